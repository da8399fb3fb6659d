package game

import "testing"

func TestComposition(t *testing.T) {
	tests := []struct {
		wave int
		want WaveComposition
	}{
		{1, WaveComposition{Grunts: 5}},
		{2, WaveComposition{Grunts: 7, Tanks: 1}},
		{3, WaveComposition{Grunts: 9, Tanks: 1, Fast: 2}},
		{4, WaveComposition{Grunts: 11, Tanks: 2, Fast: 2, Shooters: 2}},
		{5, WaveComposition{Grunts: 13, Tanks: 2, Fast: 2, Shooters: 2}},
		{8, WaveComposition{Grunts: 19, Tanks: 4, Fast: 3, Shooters: 3}},
	}

	for _, tt := range tests {
		got := Composition(tt.wave)
		if got != tt.want {
			t.Errorf("Composition(%d) = %+v, want %+v", tt.wave, got, tt.want)
		}
		total := 0
		for _, a := range Archetypes {
			total += got.Count(a)
		}
		if total != got.Total() {
			t.Errorf("Composition(%d): counts sum to %d, Total() = %d", tt.wave, total, got.Total())
		}
	}
}

func TestSpawnWavePopulatesArena(t *testing.T) {
	w := newTestWorld(t)
	w.SpawnWave()

	if len(w.Enemies) != 5 {
		t.Fatalf("wave 1 enemies = %d, want 5", len(w.Enemies))
	}
	for i, e := range w.Enemies {
		if e.Type != Grunt {
			t.Errorf("enemy %d is %s, want grunt", i, e.Type)
		}
		onEdge := e.X == -EnemySpawnOffset || e.X == w.Width+EnemySpawnOffset ||
			e.Y == -EnemySpawnOffset || e.Y == w.Height+EnemySpawnOffset
		if !onEdge {
			t.Errorf("enemy %d spawned inside the arena at (%v, %v)", i, e.X, e.Y)
		}
	}

	events := w.DrainEvents()
	if len(events) != 1 || events[0].Type != EventTypeWaveStart || events[0].Count != 5 {
		t.Errorf("events = %+v, want a single wave_start with count 5", events)
	}
}

func TestWaveAdvancesAfterIdleDelay(t *testing.T) {
	w := newTestWorld(t)

	for i := 0; i < 119; i++ {
		w.Step(testDt)
	}
	if w.Wave != 1 || len(w.Enemies) != 0 {
		t.Fatalf("wave advanced early: wave=%d enemies=%d", w.Wave, len(w.Enemies))
	}

	for i := 0; i < 3; i++ {
		w.Step(testDt)
	}
	if w.Wave != 2 {
		t.Fatalf("wave = %d, want 2", w.Wave)
	}
	if len(w.Enemies) != Composition(2).Total() {
		t.Errorf("enemies = %d, want %d", len(w.Enemies), Composition(2).Total())
	}
	if w.WaveTimer > testDt*2 {
		t.Errorf("WaveTimer = %v, should reset on spawn", w.WaveTimer)
	}
}

func TestWaveTimerHoldsWhileEnemiesRemain(t *testing.T) {
	w := newTestWorld(t)
	e := addTestEnemy(w, Grunt, 400, 300)

	for i := 0; i < 300; i++ {
		w.Step(testDt)
	}
	if w.WaveTimer != 0 || w.Wave != 1 {
		t.Fatalf("timer ran with an enemy alive: timer=%v wave=%d", w.WaveTimer, w.Wave)
	}

	e.Health = 0
	w.Step(testDt)
	if len(w.Enemies) != 0 {
		t.Fatal("dead enemy should be removed")
	}
	if w.WaveTimer == 0 {
		t.Error("timer should start once the arena is clear")
	}
}
