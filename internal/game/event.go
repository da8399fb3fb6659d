package game

import (
	"encoding/json"
	"time"
)

// EventType enum for event classification
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypeTick              // Tick boundary with RNG seed
	EventTypePlayerJoin
	EventTypePlayerLeave
	EventTypePlayerDeath
	EventTypeRespawn
	EventTypeEnemyKill
	EventTypeWaveStart
)

// EventVersion for backwards compatibility in replay
const EventVersion uint8 = 1

// Event is the core event structure for the event log
type Event struct {
	Version   uint8     `json:"version"`   // Schema version
	Type      EventType `json:"type"`      // Event type
	Timestamp int64     `json:"timestamp"` // Unix nano
	Sequence  uint64    `json:"sequence"`  // Monotonic sequence
	TickNum   uint64    `json:"tickNum"`   // Game tick this occurred in
	PlayerID  string    `json:"playerId"`  // Source player (for rate limiting)
	Payload   []byte    `json:"payload"`   // JSON-encoded payload
}

// String returns human-readable event type
func (t EventType) String() string {
	switch t {
	case EventTypeTick:
		return "tick"
	case EventTypePlayerJoin:
		return "player_join"
	case EventTypePlayerLeave:
		return "player_leave"
	case EventTypePlayerDeath:
		return "player_death"
	case EventTypeRespawn:
		return "player_respawn"
	case EventTypeEnemyKill:
		return "enemy_kill"
	case EventTypeWaveStart:
		return "wave_start"
	default:
		return "unknown"
	}
}

// Typed payloads for different event types

// TickPayload contains tick boundary information for replay
type TickPayload struct {
	RNGSeed     int64 `json:"rngSeed"`
	PlayerCount int   `json:"playerCount"`
	EnemyCount  int   `json:"enemyCount"`
	DeltaTimeNs int64 `json:"deltaTimeNs"`
}

// PlayerJoinPayload contains player join details
type PlayerJoinPayload struct {
	PlayerID string  `json:"playerId"`
	ColorIdx int     `json:"colorIdx"`
	SpawnX   float64 `json:"spawnX"`
	SpawnY   float64 `json:"spawnY"`
}

// PlayerLeavePayload contains the final state of a departing player
type PlayerLeavePayload struct {
	PlayerID string `json:"playerId"`
	Score    int    `json:"score"`
}

// PlayerDeathPayload describes what killed a player
type PlayerDeathPayload struct {
	PlayerID  string  `json:"playerId"`
	Archetype string  `json:"archetype"`
	Cause     string  `json:"cause"` // "bullet" or "collision"
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

// RespawnPayload contains respawn event details
type RespawnPayload struct {
	PlayerID string  `json:"playerId"`
	SpawnX   float64 `json:"spawnX"`
	SpawnY   float64 `json:"spawnY"`
}

// EnemyKillPayload records a score award
type EnemyKillPayload struct {
	PlayerID  string `json:"playerId"`
	Archetype string `json:"archetype"`
	Score     int    `json:"score"`
	Wave      int    `json:"wave"`
	Cause     string `json:"cause"`
}

// WaveStartPayload records a wave transition
type WaveStartPayload struct {
	Wave        int             `json:"wave"`
	Composition WaveComposition `json:"composition"`
}

// EncodePayload marshals a payload to JSON bytes
func EncodePayload(payload interface{}) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, tickNum uint64, playerID string, payload interface{}) Event {
	return Event{
		Version:   EventVersion,
		Type:      eventType,
		Timestamp: time.Now().UnixNano(),
		TickNum:   tickNum,
		PlayerID:  playerID,
		Payload:   EncodePayload(payload),
	}
}

// toLogEvent converts a simulation event into its persisted form
func (ev WorldEvent) toLogEvent(tickNum uint64) Event {
	switch ev.Type {
	case EventTypePlayerDeath:
		return NewEvent(ev.Type, tickNum, ev.PlayerID, PlayerDeathPayload{
			PlayerID:  ev.PlayerID,
			Archetype: ev.Archetype.String(),
			Cause:     ev.Cause,
			X:         ev.X,
			Y:         ev.Y,
		})
	case EventTypeRespawn:
		return NewEvent(ev.Type, tickNum, ev.PlayerID, RespawnPayload{PlayerID: ev.PlayerID, SpawnX: ev.X, SpawnY: ev.Y})
	case EventTypeEnemyKill:
		return NewEvent(ev.Type, tickNum, ev.PlayerID, EnemyKillPayload{
			PlayerID:  ev.PlayerID,
			Archetype: ev.Archetype.String(),
			Score:     ev.Score,
			Wave:      ev.Wave,
			Cause:     ev.Cause,
		})
	case EventTypeWaveStart:
		return NewEvent(ev.Type, tickNum, "", WaveStartPayload{Wave: ev.Wave, Composition: Composition(ev.Wave)})
	default:
		return NewEvent(ev.Type, tickNum, ev.PlayerID, nil)
	}
}
