package game

import (
	"sync/atomic"
	"time"
)

// Wire message types
const (
	MsgWelcome      = "welcome"
	MsgPlayerJoined = "playerJoined"
	MsgPlayerLeft   = "playerLeft"
	MsgState        = "state"
	MsgInput        = "input"
)

// WelcomeMessage tells a freshly connected client who it is
type WelcomeMessage struct {
	Type     string `json:"type" msgpack:"type"`
	PlayerID string `json:"playerId" msgpack:"playerId"`
	ColorIdx int    `json:"colorIdx" msgpack:"colorIdx"`
}

// PlayerJoinedMessage is broadcast when a player enters the arena
type PlayerJoinedMessage struct {
	Type     string `json:"type" msgpack:"type"`
	PlayerID string `json:"playerId" msgpack:"playerId"`
	ColorIdx int    `json:"colorIdx" msgpack:"colorIdx"`
}

// PlayerLeftMessage is broadcast when a player disconnects
type PlayerLeftMessage struct {
	Type     string `json:"type" msgpack:"type"`
	PlayerID string `json:"playerId" msgpack:"playerId"`
}

// EnemyState is the client-visible part of an enemy
type EnemyState struct {
	X       float64  `json:"x" msgpack:"x"`
	Y       float64  `json:"y" msgpack:"y"`
	Type    string   `json:"type" msgpack:"type"`
	Bullets []Bullet `json:"bullets" msgpack:"bullets"`
	Radius  float64  `json:"radius" msgpack:"radius"`
}

// PlayerState is the client-visible part of a player
type PlayerState struct {
	X          float64  `json:"x" msgpack:"x"`
	Y          float64  `json:"y" msgpack:"y"`
	VX         float64  `json:"vx" msgpack:"vx"`
	VY         float64  `json:"vy" msgpack:"vy"`
	Angle      float64  `json:"angle" msgpack:"angle"`
	Health     int      `json:"health" msgpack:"health"`
	Alive      bool     `json:"alive" msgpack:"alive"`
	Invincible float64  `json:"invincible" msgpack:"invincible"`
	Score      int      `json:"score" msgpack:"score"`
	ColorIdx   int      `json:"colorIdx" msgpack:"colorIdx"`
	Bullets    []Bullet `json:"bullets" msgpack:"bullets"`
}

// StateMessage is the per-tick world snapshot sent to every client
type StateMessage struct {
	Type    string                 `json:"type" msgpack:"type"`
	Wave    int                    `json:"wave" msgpack:"wave"`
	Enemies []EnemyState           `json:"enemies" msgpack:"enemies"`
	Players map[string]PlayerState `json:"players" msgpack:"players"`
}

// GameSnapshot is an immutable copy of the world taken at the end of a tick.
// Slices are copied so the simulation can keep mutating its own state.
type GameSnapshot struct {
	Sequence   uint64    // Monotonic sequence for ordering
	Timestamp  time.Time // When snapshot was created
	TickNumber uint64    // Game tick this represents

	State StateMessage

	// Join order, since State.Players is a map
	PlayerOrder []string

	PlayerCount int
	AliveCount  int
	EnemyCount  int
	WaveTimer   float64
}

// BuildState copies the observable part of the world into a StateMessage
func (w *World) BuildState() StateMessage {
	msg := StateMessage{
		Type:    MsgState,
		Wave:    w.Wave,
		Enemies: make([]EnemyState, 0, len(w.Enemies)),
		Players: make(map[string]PlayerState, w.Players.Len()),
	}
	for _, e := range w.Enemies {
		msg.Enemies = append(msg.Enemies, EnemyState{
			X:       e.X,
			Y:       e.Y,
			Type:    e.Type.String(),
			Bullets: copyBullets(e.Bullets),
			Radius:  e.Radius,
		})
	}
	for _, p := range w.Players.All() {
		msg.Players[p.ID] = PlayerState{
			X:          p.X,
			Y:          p.Y,
			VX:         p.VX,
			VY:         p.VY,
			Angle:      p.Angle,
			Health:     p.Health,
			Alive:      p.Alive,
			Invincible: p.Invincible,
			Score:      p.Score,
			ColorIdx:   p.ColorIdx,
			Bullets:    copyBullets(p.Bullets),
		}
	}
	return msg
}

func copyBullets(src []Bullet) []Bullet {
	out := make([]Bullet, len(src))
	copy(out, src)
	return out
}

// SnapshotStore publishes the latest snapshot for lock-free readers.
// The producer builds a fresh snapshot each tick and swaps it in atomically;
// readers never see a half-written value.
type SnapshotStore struct {
	latest   atomic.Pointer[GameSnapshot]
	sequence atomic.Uint64
}

// NewSnapshotStore creates a store holding an empty snapshot
func NewSnapshotStore() *SnapshotStore {
	s := &SnapshotStore{}
	s.latest.Store(&GameSnapshot{
		State: StateMessage{Type: MsgState, Wave: 1, Enemies: []EnemyState{}, Players: map[string]PlayerState{}},
	})
	return s
}

// Publish stamps and stores a snapshot. The caller must not modify it afterwards.
func (s *SnapshotStore) Publish(snap *GameSnapshot) {
	snap.Sequence = s.sequence.Add(1)
	snap.Timestamp = time.Now()
	s.latest.Store(snap)
}

// Latest returns the most recently published snapshot
func (s *SnapshotStore) Latest() *GameSnapshot {
	return s.latest.Load()
}

// takeSnapshot captures the world at the end of a tick
func (w *World) takeSnapshot(tick uint64) *GameSnapshot {
	snap := &GameSnapshot{
		TickNumber:  tick,
		State:       w.BuildState(),
		PlayerOrder: make([]string, 0, w.Players.Len()),
		PlayerCount: w.Players.Len(),
		EnemyCount:  len(w.Enemies),
		WaveTimer:   w.WaveTimer,
	}
	for _, p := range w.Players.All() {
		snap.PlayerOrder = append(snap.PlayerOrder, p.ID)
		if p.Alive {
			snap.AliveCount++
		}
	}
	return snap
}
