package game

import (
	"errors"
	"log"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	uuid "github.com/satori/go.uuid"
)

// ErrArenaFull is returned by Join when the player cap is reached
var ErrArenaFull = errors.New("arena is full")

// Engine defaults
const (
	DefaultTickRate     = 60                    // Simulation steps per second (dt = 1/60)
	DefaultTickInterval = 16 * time.Millisecond // Wall-clock cadence of the tick driver
	DefaultMaxPlayers   = 64
)

// EngineConfig configures a simulation instance
type EngineConfig struct {
	TickRate     int           // dt = 1/TickRate seconds per step
	TickInterval time.Duration // time between steps
	ArenaWidth   float64
	ArenaHeight  float64
	MaxPlayers   int
	Seed         int64 // 0 = time based
}

// DefaultEngineConfig returns the standard arena setup
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		TickRate:     DefaultTickRate,
		TickInterval: DefaultTickInterval,
		ArenaWidth:   DefaultArenaWidth,
		ArenaHeight:  DefaultArenaHeight,
		MaxPlayers:   DefaultMaxPlayers,
	}
}

// Broadcaster fans messages out to every open connection.
// Implementations must not block and must skip connections that are not open.
type Broadcaster interface {
	Broadcast(msg interface{})
}

// Recorder receives the event stream and per-tick snapshots, e.g. for replays
type Recorder interface {
	RecordEvent(tick uint64, event Event) error
	RecordFrame(tick uint64, snap *GameSnapshot) error
}

// TickStats summarises one tick for metrics
type TickStats struct {
	Tick     uint64
	Duration time.Duration
	Players  int
	Alive    int
	Enemies  int
	Wave     int
	Kills    int // enemies killed during this tick
	Deaths   int // players killed during this tick
}

// JoinTicket is what a new connection needs for its welcome message
type JoinTicket struct {
	PlayerID string
	ColorIdx int
}

type commandKind uint8

const (
	cmdJoin commandKind = iota
	cmdLeave
	cmdInput
)

// command is a registry mutation staged by a network goroutine and applied
// by the tick goroutine before the next step.
type command struct {
	kind     commandKind
	playerID string
	colorIdx int
	input    Input
}

// Engine owns a World and drives it at a fixed cadence. All world access
// happens with mu held; network goroutines only append to the command queue.
type Engine struct {
	mu    sync.Mutex
	world *World
	dt    float64

	config EngineConfig

	commandsMu sync.Mutex
	pending    []command
	nextColor  int                 // last color index handed out
	reserved   map[string]struct{} // identities joined and not yet left

	broadcaster Broadcaster
	recorder    Recorder
	recordQueue []Event // events of the current tick, handed to recorder after unlock
	eventLog    *EventLog
	leaderboard *Leaderboard
	snapshots   *SnapshotStore

	tickCount  uint64
	totalKills atomic.Uint64

	// Deterministic RNG, reseeded every tick so a replay can resume anywhere
	rng     *rand.Rand
	seed    int64 // initial seed
	rngSeed int64

	running  bool
	ticker   *time.Ticker
	stopChan chan struct{}
	done     chan struct{}

	onTick func(TickStats)
}

// NewEngine creates an engine and spawns the first wave. Nothing runs until Start.
func NewEngine(cfg EngineConfig) *Engine {
	def := DefaultEngineConfig()
	if cfg.TickRate <= 0 {
		cfg.TickRate = def.TickRate
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = def.TickInterval
	}
	if cfg.ArenaWidth <= 0 {
		cfg.ArenaWidth = def.ArenaWidth
	}
	if cfg.ArenaHeight <= 0 {
		cfg.ArenaHeight = def.ArenaHeight
	}
	if cfg.MaxPlayers <= 0 {
		cfg.MaxPlayers = def.MaxPlayers
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	e := &Engine{
		world:       NewWorld(cfg.ArenaWidth, cfg.ArenaHeight, rng),
		dt:          1.0 / float64(cfg.TickRate),
		config:      cfg,
		pending:     make([]command, 0, 64),
		reserved:    make(map[string]struct{}),
		eventLog:    NewEventLog(),
		leaderboard: NewLeaderboard(seed),
		snapshots:   NewSnapshotStore(),
		rng:         rng,
		seed:        seed,
		rngSeed:     seed,
	}
	e.world.SpawnWave()
	return e
}

// SetBroadcaster wires the transport. Must be called before Start.
func (e *Engine) SetBroadcaster(b Broadcaster) {
	e.mu.Lock()
	e.broadcaster = b
	e.mu.Unlock()
}

// SetRecorder wires an optional replay recorder. Must be called before Start.
func (e *Engine) SetRecorder(r Recorder) {
	e.mu.Lock()
	e.recorder = r
	e.mu.Unlock()
}

// OnTick registers a callback run after every tick, outside the world lock
func (e *Engine) OnTick(fn func(TickStats)) {
	e.mu.Lock()
	e.onTick = fn
	e.mu.Unlock()
}

// Start begins the tick loop. Overrunning ticks delay the next one; missed
// ticks are not made up.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	ticker := time.NewTicker(e.config.TickInterval)
	stop := make(chan struct{})
	done := make(chan struct{})
	e.ticker, e.stopChan, e.done = ticker, stop, done
	e.mu.Unlock()

	go func() {
		defer close(done)
		for {
			select {
			case <-ticker.C:
				e.Tick()
			case <-stop:
				return
			}
		}
	}()

	log.Printf("🎮 Arena engine started (%v cadence, dt=1/%d)", e.config.TickInterval, e.config.TickRate)
}

// Stop halts the tick loop and waits for the current tick to finish
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	e.ticker.Stop()
	close(e.stopChan)
	done := e.done
	e.mu.Unlock()

	<-done
	log.Println("🛑 Arena engine stopped")
}

// Join reserves an identity and color for a new connection. The player is
// placed in the world at the start of the next tick, when playerJoined is
// broadcast.
func (e *Engine) Join() (JoinTicket, error) {
	e.commandsMu.Lock()
	defer e.commandsMu.Unlock()

	if len(e.reserved) >= e.config.MaxPlayers {
		return JoinTicket{}, ErrArenaFull
	}

	id := newPlayerID()
	for {
		if _, taken := e.reserved[id]; !taken {
			break
		}
		id = newPlayerID()
	}
	e.reserved[id] = struct{}{}
	e.nextColor++

	t := JoinTicket{PlayerID: id, ColorIdx: e.nextColor}
	e.pending = append(e.pending, command{kind: cmdJoin, playerID: id, colorIdx: t.ColorIdx})
	return t, nil
}

// Leave removes a player at the start of the next tick. Unknown ids are ignored.
func (e *Engine) Leave(playerID string) {
	e.commandsMu.Lock()
	defer e.commandsMu.Unlock()

	if _, ok := e.reserved[playerID]; !ok {
		return
	}
	delete(e.reserved, playerID)
	e.pending = append(e.pending, command{kind: cmdLeave, playerID: playerID})
}

// SetInput replaces a player's input state at the start of the next tick.
// Unknown ids are ignored.
func (e *Engine) SetInput(playerID string, in Input) {
	e.commandsMu.Lock()
	defer e.commandsMu.Unlock()

	if _, ok := e.reserved[playerID]; !ok {
		return
	}
	e.pending = append(e.pending, command{kind: cmdInput, playerID: playerID, input: in})
}

func newPlayerID() string {
	hex := strings.ReplaceAll(uuid.NewV4().String(), "-", "")
	return "p" + hex[:8]
}

// Tick runs exactly one simulation step: apply queued commands, step the
// world, publish a snapshot and broadcast it.
func (e *Engine) Tick() {
	start := time.Now()

	e.mu.Lock()
	e.tickCount++
	tick := e.tickCount

	e.eventLog.EmitSimple(EventTypeTick, tick, "", TickPayload{
		RNGSeed:     e.rngSeed,
		PlayerCount: e.world.Players.Len(),
		EnemyCount:  len(e.world.Enemies),
		DeltaTimeNs: int64(e.dt * 1e9),
	})
	e.rngSeed = e.rng.Int63()
	e.rng.Seed(e.rngSeed)

	outbound := e.applyCommands(tick)

	e.world.Step(e.dt)
	stats := e.handleWorldEvents(tick, e.world.DrainEvents())

	snap := e.world.takeSnapshot(tick)
	e.snapshots.Publish(snap)
	for _, p := range e.world.Players.All() {
		e.leaderboard.Update(p.ID, p.Score)
	}

	broadcaster := e.broadcaster
	recorder := e.recorder
	onTick := e.onTick
	events := e.recordQueue
	e.recordQueue = nil
	e.mu.Unlock()

	if broadcaster != nil {
		for _, msg := range outbound {
			broadcaster.Broadcast(msg)
		}
		broadcaster.Broadcast(snap.State)
	}
	if recorder != nil {
		for _, ev := range events {
			if err := recorder.RecordEvent(tick, ev); err != nil {
				log.Printf("⚠️ Replay event dropped: %v", err)
			}
		}
		if err := recorder.RecordFrame(tick, snap); err != nil {
			log.Printf("⚠️ Replay frame %d dropped: %v", tick, err)
		}
	}

	if onTick != nil {
		stats.Tick = tick
		stats.Duration = time.Since(start)
		stats.Players = snap.PlayerCount
		stats.Alive = snap.AliveCount
		stats.Enemies = snap.EnemyCount
		stats.Wave = snap.State.Wave
		onTick(stats)
	}
}

// applyCommands drains the queue in arrival order. Returns the join/leave
// notifications to broadcast.
func (e *Engine) applyCommands(tick uint64) []interface{} {
	e.commandsMu.Lock()
	cmds := e.pending
	e.pending = make([]command, 0, cap(cmds))
	e.commandsMu.Unlock()

	var outbound []interface{}
	for _, c := range cmds {
		switch c.kind {
		case cmdJoin:
			p := e.world.AddPlayer(c.playerID, c.colorIdx)
			if p == nil {
				continue
			}
			e.record(NewEvent(EventTypePlayerJoin, tick, p.ID, PlayerJoinPayload{
				PlayerID: p.ID,
				ColorIdx: p.ColorIdx,
				SpawnX:   p.X,
				SpawnY:   p.Y,
			}))
			outbound = append(outbound, PlayerJoinedMessage{Type: MsgPlayerJoined, PlayerID: p.ID, ColorIdx: p.ColorIdx})
			log.Printf("✅ %s joined (color %d) - %d total", p.ID, p.ColorIdx, e.world.Players.Len())

		case cmdLeave:
			p := e.world.RemovePlayer(c.playerID)
			if p == nil {
				continue
			}
			e.leaderboard.Remove(p.ID)
			e.record(NewEvent(EventTypePlayerLeave, tick, p.ID, PlayerLeavePayload{PlayerID: p.ID, Score: p.Score}))
			e.eventLog.ForgetPlayer(p.ID)
			outbound = append(outbound, PlayerLeftMessage{Type: MsgPlayerLeft, PlayerID: p.ID})
			log.Printf("❌ %s left - %d remaining", p.ID, e.world.Players.Len())

		case cmdInput:
			e.world.SetInput(c.playerID, c.input)
		}
	}
	return outbound
}

func (e *Engine) handleWorldEvents(tick uint64, events []WorldEvent) TickStats {
	var stats TickStats
	for _, ev := range events {
		switch ev.Type {
		case EventTypeEnemyKill:
			stats.Kills++
			e.totalKills.Add(1)
		case EventTypePlayerDeath:
			stats.Deaths++
		case EventTypeWaveStart:
			log.Printf("🌊 Wave %d: %d enemies", ev.Wave, ev.Count)
		}
		e.record(ev.toLogEvent(tick))
	}
	return stats
}

// record sends an event to the audit log and queues it for the replay
// recorder, which is only called once the world lock is released.
func (e *Engine) record(ev Event) {
	e.eventLog.Emit(ev)
	if e.recorder != nil {
		e.recordQueue = append(e.recordQueue, ev)
	}
}

// GetSnapshot returns the latest published snapshot without taking the world lock
func (e *Engine) GetSnapshot() *GameSnapshot {
	return e.snapshots.Latest()
}

// Leaderboard returns the top n players by score
func (e *Engine) Leaderboard(n int) []LeaderboardEntry {
	return e.leaderboard.Top(n)
}

// PlayerRank returns one player's leaderboard entry
func (e *Engine) PlayerRank(playerID string) (LeaderboardEntry, bool) {
	return e.leaderboard.Entry(playerID)
}

// TotalKills returns the number of enemies destroyed since start
func (e *Engine) TotalKills() uint64 {
	return e.totalKills.Load()
}

// WithWorld runs fn with exclusive access to the world, between ticks
func (e *Engine) WithWorld(fn func(w *World)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.world)
}

// Seed returns the seed the simulation started from
func (e *Engine) Seed() int64 {
	return e.seed
}

// Config returns the effective configuration
func (e *Engine) Config() EngineConfig {
	return e.config
}

// StartEventLog begins writing the audit trail to filePath
func (e *Engine) StartEventLog(filePath string) error {
	return e.eventLog.Start(filePath)
}

// StopEventLog flushes and closes the audit trail
func (e *Engine) StopEventLog() {
	e.eventLog.Stop()
}

// GetEventLogStats returns event log counters
func (e *Engine) GetEventLogStats() map[string]interface{} {
	return e.eventLog.GetStats()
}
