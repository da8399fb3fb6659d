package game

import (
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"
)

// recordingBroadcaster captures everything the engine broadcasts
type recordingBroadcaster struct {
	mu   sync.Mutex
	msgs []interface{}
}

func (b *recordingBroadcaster) Broadcast(msg interface{}) {
	b.mu.Lock()
	b.msgs = append(b.msgs, msg)
	b.mu.Unlock()
}

func (b *recordingBroadcaster) take() []interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.msgs
	b.msgs = nil
	return out
}

func newTestEngine(t *testing.T, maxPlayers int) (*Engine, *recordingBroadcaster) {
	t.Helper()
	e := NewEngine(EngineConfig{MaxPlayers: maxPlayers, Seed: 1})
	b := &recordingBroadcaster{}
	e.SetBroadcaster(b)
	return e, b
}

var playerIDPattern = regexp.MustCompile(`^p[0-9a-f]{8}$`)

func TestNewEngineDefaults(t *testing.T) {
	e := NewEngine(EngineConfig{})
	cfg := e.Config()

	if cfg.TickRate != DefaultTickRate || cfg.TickInterval != DefaultTickInterval {
		t.Errorf("timing defaults = %d/%v", cfg.TickRate, cfg.TickInterval)
	}
	if cfg.ArenaWidth != DefaultArenaWidth || cfg.ArenaHeight != DefaultArenaHeight {
		t.Errorf("arena = %vx%v", cfg.ArenaWidth, cfg.ArenaHeight)
	}
	if cfg.MaxPlayers != DefaultMaxPlayers {
		t.Errorf("MaxPlayers = %d", cfg.MaxPlayers)
	}
	if e.Seed() == 0 {
		t.Error("a zero seed should be replaced with a time based one")
	}
}

func TestEngineFirstTickHasWaveOne(t *testing.T) {
	e, b := newTestEngine(t, 4)
	e.Tick()

	snap := e.GetSnapshot()
	if snap.TickNumber != 1 || snap.Sequence != 1 {
		t.Errorf("tick/sequence = %d/%d, want 1/1", snap.TickNumber, snap.Sequence)
	}
	if snap.State.Wave != 1 || snap.EnemyCount != 5 {
		t.Errorf("wave=%d enemies=%d, want wave 1 with 5 enemies", snap.State.Wave, snap.EnemyCount)
	}

	msgs := b.take()
	if len(msgs) != 1 {
		t.Fatalf("broadcasts = %d, want 1 state", len(msgs))
	}
	if st, ok := msgs[0].(StateMessage); !ok || st.Type != MsgState {
		t.Errorf("broadcast = %#v, want a state message", msgs[0])
	}
}

func TestEngineJoin(t *testing.T) {
	e, b := newTestEngine(t, 4)

	var tickets []JoinTicket
	for i := 0; i < 3; i++ {
		tk, err := e.Join()
		if err != nil {
			t.Fatalf("Join %d: %v", i, err)
		}
		if !playerIDPattern.MatchString(tk.PlayerID) {
			t.Errorf("player id %q should be p + 8 hex digits", tk.PlayerID)
		}
		if tk.ColorIdx != i+1 {
			t.Errorf("color = %d, want %d", tk.ColorIdx, i+1)
		}
		tickets = append(tickets, tk)
	}

	// Not in the world until the next tick
	if n := e.GetSnapshot().PlayerCount; n != 0 {
		t.Fatalf("players visible before tick: %d", n)
	}

	e.Tick()

	msgs := b.take()
	if len(msgs) != 4 {
		t.Fatalf("broadcasts = %d, want 3 joins + state", len(msgs))
	}
	for i, tk := range tickets {
		joined, ok := msgs[i].(PlayerJoinedMessage)
		if !ok || joined.PlayerID != tk.PlayerID || joined.ColorIdx != tk.ColorIdx {
			t.Errorf("broadcast %d = %#v, want playerJoined for %s", i, msgs[i], tk.PlayerID)
		}
	}
	state, ok := msgs[3].(StateMessage)
	if !ok {
		t.Fatalf("last broadcast = %#v, want state", msgs[3])
	}
	if len(state.Players) != 3 {
		t.Errorf("state players = %d, want 3", len(state.Players))
	}

	snap := e.GetSnapshot()
	for i, tk := range tickets {
		if snap.PlayerOrder[i] != tk.PlayerID {
			t.Errorf("PlayerOrder = %v, want join order", snap.PlayerOrder)
			break
		}
	}
}

func TestEngineArenaFull(t *testing.T) {
	e, _ := newTestEngine(t, 2)

	first, _ := e.Join()
	if _, err := e.Join(); err != nil {
		t.Fatalf("second join: %v", err)
	}
	if _, err := e.Join(); !errors.Is(err, ErrArenaFull) {
		t.Fatalf("third join err = %v, want ErrArenaFull", err)
	}

	// Leaving frees a slot immediately; colors keep counting up
	e.Leave(first.PlayerID)
	tk, err := e.Join()
	if err != nil {
		t.Fatalf("join after leave: %v", err)
	}
	if tk.ColorIdx != 3 {
		t.Errorf("color = %d, want 3", tk.ColorIdx)
	}
}

func TestEngineLeave(t *testing.T) {
	e, b := newTestEngine(t, 4)
	tk, _ := e.Join()
	e.Tick()
	b.take()

	e.Leave(tk.PlayerID)
	e.Leave(tk.PlayerID) // second leave is a no-op
	e.Tick()

	msgs := b.take()
	if len(msgs) != 2 {
		t.Fatalf("broadcasts = %d, want left + state", len(msgs))
	}
	left, ok := msgs[0].(PlayerLeftMessage)
	if !ok || left.PlayerID != tk.PlayerID || left.Type != MsgPlayerLeft {
		t.Errorf("first broadcast = %#v, want playerLeft", msgs[0])
	}
	if _, ok := e.GetSnapshot().State.Players[tk.PlayerID]; ok {
		t.Error("departed player still in state")
	}
	if len(e.Leaderboard(10)) != 0 {
		t.Error("departed player still on the leaderboard")
	}
}

func TestEngineIgnoresUnknownPlayers(t *testing.T) {
	e, b := newTestEngine(t, 4)
	e.Leave("pdeadbeef")
	e.SetInput("pdeadbeef", Input{Fire: true})
	e.Tick()

	if msgs := b.take(); len(msgs) != 1 {
		t.Errorf("broadcasts = %d, want state only", len(msgs))
	}
}

func TestEngineInputScoresKill(t *testing.T) {
	e, _ := newTestEngine(t, 4)
	tk, _ := e.Join()
	e.Tick()

	e.WithWorld(func(w *World) {
		w.Enemies = w.Enemies[:0]
		p := w.Players.Get(tk.PlayerID)
		p.X, p.Y = 400, 300
		p.Angle = 0
		addTestEnemy(w, Grunt, 500, 300)
	})
	e.SetInput(tk.PlayerID, Input{Fire: true})

	for i := 0; i < 30; i++ {
		e.Tick()
	}

	snap := e.GetSnapshot()
	if got := snap.State.Players[tk.PlayerID].Score; got != 100 {
		t.Fatalf("score = %d, want 100", got)
	}
	if e.TotalKills() != 1 {
		t.Errorf("TotalKills = %d, want 1", e.TotalKills())
	}
	top := e.Leaderboard(1)
	if len(top) != 1 || top[0].PlayerID != tk.PlayerID || top[0].Score != 100 {
		t.Errorf("leaderboard = %+v", top)
	}

	entry, ok := e.PlayerRank(tk.PlayerID)
	if !ok || entry.Rank != 1 || entry.Score != 100 {
		t.Errorf("PlayerRank = %+v, %v", entry, ok)
	}
	if _, ok := e.PlayerRank("pmissing0"); ok {
		t.Error("unknown player should have no rank")
	}
}

func TestEngineOnTick(t *testing.T) {
	e, _ := newTestEngine(t, 4)
	var got TickStats
	e.OnTick(func(s TickStats) { got = s })

	e.Tick()

	if got.Tick != 1 || got.Wave != 1 || got.Enemies != 5 {
		t.Errorf("stats = %+v", got)
	}
}

// Identical seeds and inputs give identical worlds
func TestEngineDeterminism(t *testing.T) {
	run := func() StateMessage {
		e := NewEngine(EngineConfig{Seed: 99})
		for i := 0; i < 120; i++ {
			e.Tick()
		}
		return e.GetSnapshot().State
	}

	a, b := run(), run()
	if len(a.Enemies) != len(b.Enemies) {
		t.Fatalf("enemy counts differ: %d vs %d", len(a.Enemies), len(b.Enemies))
	}
	for i := range a.Enemies {
		if a.Enemies[i].X != b.Enemies[i].X || a.Enemies[i].Y != b.Enemies[i].Y {
			t.Fatalf("enemy %d diverged", i)
		}
	}
}

func TestEngineStartStop(t *testing.T) {
	e, _ := newTestEngine(t, 4)

	e.Start()
	e.Start() // no second loop
	time.Sleep(100 * time.Millisecond)
	e.Stop()
	e.Stop()

	if e.GetSnapshot().TickNumber == 0 {
		t.Error("no ticks ran while started")
	}
}

func TestEngineRestart(t *testing.T) {
	e, _ := newTestEngine(t, 4)

	e.Start()
	time.Sleep(50 * time.Millisecond)
	e.Stop()
	first := e.GetSnapshot().TickNumber

	e.Start()
	time.Sleep(100 * time.Millisecond)
	e.Stop()

	if got := e.GetSnapshot().TickNumber; got <= first {
		t.Errorf("tick after restart = %d, want more than %d", got, first)
	}
}

// lockCheckingRecorder notes whether the engine lock was held during each call
type lockCheckingRecorder struct {
	engine *Engine

	events, frames, underLock int
}

func (r *lockCheckingRecorder) check() {
	if r.engine.mu.TryLock() {
		r.engine.mu.Unlock()
		return
	}
	r.underLock++
}

func (r *lockCheckingRecorder) RecordEvent(tick uint64, event Event) error {
	r.check()
	r.events++
	return nil
}

func (r *lockCheckingRecorder) RecordFrame(tick uint64, snap *GameSnapshot) error {
	r.check()
	r.frames++
	return nil
}

func TestEngineRecorderRunsOutsideLock(t *testing.T) {
	e, _ := newTestEngine(t, 4)
	rec := &lockCheckingRecorder{engine: e}
	e.SetRecorder(rec)

	tk, _ := e.Join()
	e.Tick()
	e.Leave(tk.PlayerID)
	e.Tick()

	if rec.frames != 2 {
		t.Errorf("frames = %d, want 2", rec.frames)
	}
	// wave start, join and leave at least
	if rec.events < 3 {
		t.Errorf("events = %d, want at least 3", rec.events)
	}
	if rec.underLock != 0 {
		t.Errorf("%d recorder calls made with the engine lock held", rec.underLock)
	}
}
