package game

import (
	"math"
	"math/rand"
)

// Default arena size
const (
	DefaultArenaWidth  = 800.0
	DefaultArenaHeight = 600.0
)

// WorldEvent is something notable that happened during a step.
// The engine forwards these to the event log, replay recorder and callbacks.
type WorldEvent struct {
	Type      EventType
	PlayerID  string
	Archetype Archetype
	Score     int
	Wave      int
	Count     int
	Cause     string
	X, Y      float64
}

// World is the complete simulation state. It is not safe for concurrent use;
// the Engine serialises all access.
type World struct {
	Wave      int
	WaveTimer float64
	Width     float64
	Height    float64

	Enemies []*Enemy
	Players *Registry

	rng    *rand.Rand
	events []WorldEvent
}

// NewWorld creates an empty arena at wave 1. Call SpawnWave to populate it.
func NewWorld(width, height float64, rng *rand.Rand) *World {
	if width <= 0 {
		width = DefaultArenaWidth
	}
	if height <= 0 {
		height = DefaultArenaHeight
	}
	return &World{
		Wave:    1,
		Width:   width,
		Height:  height,
		Enemies: make([]*Enemy, 0, 64),
		Players: NewRegistry(),
		rng:     rng,
		events:  make([]WorldEvent, 0, 16),
	}
}

// SpawnWave spawns the composition of the current wave immediately
func (w *World) SpawnWave() {
	w.spawnWave()
}

// AddPlayer spawns a new player on the ring. Returns nil if id is taken.
func (w *World) AddPlayer(id string, colorIdx int) *Player {
	p := NewPlayer(id, colorIdx, w.Width, w.Height, w.rng)
	if !w.Players.Add(p) {
		return nil
	}
	return p
}

// RemovePlayer drops a player and its bullets
func (w *World) RemovePlayer(id string) *Player {
	return w.Players.Remove(id)
}

// SetInput replaces a player's input wholesale. Unknown ids are ignored.
func (w *World) SetInput(id string, in Input) bool {
	p := w.Players.Get(id)
	if p == nil {
		return false
	}
	p.Input = in
	return true
}

// spawnEnemy aims the new enemy at the first living player in join order,
// falling back to the arena centre.
func (w *World) spawnEnemy(a Archetype) *Enemy {
	tx, ty := w.Width/2, w.Height/2
	if target := w.Players.FirstAlive(); target != nil {
		tx, ty = target.X, target.Y
	}
	e := NewEnemy(a, w.Wave, tx, ty, w.Width, w.Height, w.rng)
	w.Enemies = append(w.Enemies, e)
	return e
}

// Step advances the simulation by dt seconds
func (w *World) Step(dt float64) {
	for _, p := range w.Players.All() {
		if p.Alive {
			p.update(dt, w.Width, w.Height)
			continue
		}
		if p.tickRespawn(dt, w.Width, w.Height, w.rng) {
			w.emit(WorldEvent{Type: EventTypeRespawn, PlayerID: p.ID, X: p.X, Y: p.Y})
		}
	}

	// Reverse index order so a removed enemy never shifts one still to be visited.
	for i := len(w.Enemies) - 1; i >= 0; i-- {
		e := w.Enemies[i]
		w.updateEnemy(e, dt)
		if e.Dead() {
			w.Enemies = append(w.Enemies[:i], w.Enemies[i+1:]...)
		}
	}

	w.advanceWave(dt)
}

// updateEnemy moves an enemy, runs its weapon and resolves every hit it is
// involved in. It returns as soon as the enemy dies.
func (w *World) updateEnemy(e *Enemy, dt float64) {
	e.move(dt, w.Width, w.Height)

	if e.Type == Shooter {
		w.shooterFire(e, dt)
	}

	w.resolveEnemyBullets(e, dt)

	for _, p := range w.Players.All() {
		for bi := len(p.Bullets) - 1; bi >= 0; bi-- {
			b := &p.Bullets[bi]
			if !b.Live() || Distance(b.X, b.Y, e.X, e.Y) >= e.Radius+EnemyBulletHitSlack {
				continue
			}
			p.Bullets = removeBullet(p.Bullets, bi)
			e.Health--
			if e.Dead() {
				w.creditKill(p, e, "bullet")
				return
			}
		}
	}

	for _, p := range w.Players.All() {
		if !p.Vulnerable() || Distance(e.X, e.Y, p.X, p.Y) >= e.Radius+PlayerRadius {
			continue
		}
		if p.TakeDamage(CollisionDamage) {
			w.emit(WorldEvent{Type: EventTypePlayerDeath, PlayerID: p.ID, Archetype: e.Type, Cause: "collision", X: p.X, Y: p.Y})
		}
		e.Health -= CollisionDamage
		if e.Dead() {
			w.creditKill(p, e, "collision")
			return
		}
	}
}

// shooterFire fires at the nearest living player once the timer elapses.
// With nobody alive the timer stays expired and fires as soon as a target appears.
func (w *World) shooterFire(e *Enemy, dt float64) {
	e.FireTimer -= dt
	if e.FireTimer > 0 {
		return
	}
	target := w.Players.NearestAlive(e.X, e.Y)
	if target == nil {
		return
	}
	angle := math.Atan2(target.Y-e.Y, target.X-e.X)
	speed := ShooterBulletBase + ShooterBulletStep*float64(w.Wave)
	e.Bullets = append(e.Bullets, newBullet(e.X, e.Y, e.Radius, angle, speed))
	e.FireTimer = e.FireInterval
}

// resolveEnemyBullets advances an enemy's bullets and applies hits to players.
func (w *World) resolveEnemyBullets(e *Enemy, dt float64) {
	n := 0
	for i := range e.Bullets {
		b := &e.Bullets[i]
		b.advance(dt, w.Width, w.Height)
		for _, p := range w.Players.All() {
			if !b.Live() {
				break
			}
			if !p.Vulnerable() || Distance(b.X, b.Y, p.X, p.Y) >= PlayerBulletHitDist {
				continue
			}
			b.Life = 0
			if p.TakeDamage(1) {
				w.emit(WorldEvent{Type: EventTypePlayerDeath, PlayerID: p.ID, Archetype: e.Type, Cause: "bullet", X: p.X, Y: p.Y})
			}
		}
		if b.Live() {
			e.Bullets[n] = *b
			n++
		}
	}
	e.Bullets = e.Bullets[:n]
}

func (w *World) creditKill(p *Player, e *Enemy, cause string) {
	p.Score += e.Score
	w.emit(WorldEvent{
		Type:      EventTypeEnemyKill,
		PlayerID:  p.ID,
		Archetype: e.Type,
		Score:     e.Score,
		Wave:      w.Wave,
		Cause:     cause,
		X:         e.X,
		Y:         e.Y,
	})
}

func (w *World) emit(ev WorldEvent) {
	w.events = append(w.events, ev)
}

// DrainEvents returns the events produced since the last drain.
// The returned slice is only valid until the next Step.
func (w *World) DrainEvents() []WorldEvent {
	out := w.events
	w.events = w.events[:0]
	return out
}
