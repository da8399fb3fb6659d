package game

import (
	"math/rand"
	"testing"
)

// =============================================================================
// BENCHMARK SUITE: CRITICAL PATH PERFORMANCE TESTS
// Run with: go test -bench=. -benchmem ./internal/game/...
// =============================================================================

// -----------------------------------------------------------------------------
// ENGINE TICK BENCHMARKS
// -----------------------------------------------------------------------------

func BenchmarkEngineTick_1Player(b *testing.B)   { benchmarkEngineTick(b, 1) }
func BenchmarkEngineTick_8Players(b *testing.B)  { benchmarkEngineTick(b, 8) }
func BenchmarkEngineTick_32Players(b *testing.B) { benchmarkEngineTick(b, 32) }
func BenchmarkEngineTick_64Players(b *testing.B) { benchmarkEngineTick(b, 64) }

func benchmarkEngineTick(b *testing.B, playerCount int) {
	engine := NewEngine(EngineConfig{Seed: 1, MaxPlayers: playerCount})

	for i := 0; i < playerCount; i++ {
		tk, err := engine.Join()
		if err != nil {
			b.Fatal(err)
		}
		engine.SetInput(tk.PlayerID, Input{Right: i%2 == 0, Thrust: true, Fire: true})
	}
	engine.Tick()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		engine.Tick()
	}
}

// -----------------------------------------------------------------------------
// SNAPSHOT BENCHMARKS
// -----------------------------------------------------------------------------

func BenchmarkTakeSnapshot_8Players(b *testing.B)  { benchmarkSnapshot(b, 8) }
func BenchmarkTakeSnapshot_64Players(b *testing.B) { benchmarkSnapshot(b, 64) }

func benchmarkSnapshot(b *testing.B, playerCount int) {
	w := NewWorld(DefaultArenaWidth, DefaultArenaHeight, rand.New(rand.NewSource(1)))
	w.Wave = 8
	w.SpawnWave()
	for i := 0; i < playerCount; i++ {
		p := w.AddPlayer(newPlayerID(), i+1)
		p.Bullets = append(p.Bullets, make([]Bullet, 20)...)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		w.takeSnapshot(uint64(i))
	}
}

// -----------------------------------------------------------------------------
// COLLISION BENCHMARKS
// -----------------------------------------------------------------------------

// Every player holds a full stream of bullets against a late wave
func BenchmarkWorldStep_Wave10(b *testing.B) {
	w := NewWorld(DefaultArenaWidth, DefaultArenaHeight, rand.New(rand.NewSource(1)))
	w.Wave = 10
	w.SpawnWave()
	for i := 0; i < 16; i++ {
		p := w.AddPlayer(newPlayerID(), i+1)
		p.Input = Input{Left: true, Fire: true}
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		w.Step(1.0 / DefaultTickRate)
		if len(w.Enemies) == 0 {
			w.SpawnWave()
		}
		w.DrainEvents()
	}
}

// -----------------------------------------------------------------------------
// LEADERBOARD BENCHMARKS
// -----------------------------------------------------------------------------

func BenchmarkLeaderboardUpdate(b *testing.B) {
	lb := NewLeaderboard(1)
	ids := make([]string, 64)
	for i := range ids {
		ids[i] = newPlayerID()
		lb.Update(ids[i], 0)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		lb.Update(ids[i%len(ids)], i)
	}
}

func BenchmarkStress_RapidJoinLeave(b *testing.B) {
	engine := NewEngine(EngineConfig{Seed: 1})

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		tk, err := engine.Join()
		if err != nil {
			b.Fatal(err)
		}
		engine.Tick()
		engine.Leave(tk.PlayerID)
		engine.Tick()
	}
}
