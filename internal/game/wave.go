package game

// WaveIdleDelay is how long the arena must stay empty before the next wave
const WaveIdleDelay = 2.0

// WaveComposition is the number of each archetype spawned by a wave
type WaveComposition struct {
	Grunts   int `json:"grunts"`
	Tanks    int `json:"tanks"`
	Fast     int `json:"fast"`
	Shooters int `json:"shooters"`
}

// Composition returns the enemy mix for wave w
func Composition(w int) WaveComposition {
	c := WaveComposition{
		Grunts:   3 + 2*w,
		Tanks:    w / 2,
		Fast:     w / 3,
		Shooters: w / 4,
	}
	if w > 2 {
		c.Fast++
	}
	if w > 3 {
		c.Shooters++
	}
	return c
}

// Count returns how many of archetype a the wave contains
func (c WaveComposition) Count(a Archetype) int {
	switch a {
	case Grunt:
		return c.Grunts
	case Tank:
		return c.Tanks
	case Fast:
		return c.Fast
	case Shooter:
		return c.Shooters
	}
	return 0
}

// Total returns the wave size
func (c WaveComposition) Total() int {
	return c.Grunts + c.Tanks + c.Fast + c.Shooters
}

// spawnWave adds the full composition of the current wave in one go.
func (w *World) spawnWave() {
	comp := Composition(w.Wave)
	for _, a := range Archetypes {
		for i := 0; i < comp.Count(a); i++ {
			w.spawnEnemy(a)
		}
	}
	w.emit(WorldEvent{Type: EventTypeWaveStart, Wave: w.Wave, Count: comp.Total()})
}

// advanceWave runs once per tick after entity updates.
// Returns true if a new wave was spawned.
func (w *World) advanceWave(dt float64) bool {
	if len(w.Enemies) > 0 {
		return false
	}
	w.WaveTimer += dt
	if w.WaveTimer <= WaveIdleDelay {
		return false
	}
	w.Wave++
	w.WaveTimer = 0
	w.spawnWave()
	return true
}
