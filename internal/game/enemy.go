package game

import (
	"fmt"
	"math"
	"math/rand"
)

// Archetype identifies an enemy species
type Archetype uint8

const (
	Grunt Archetype = iota
	Tank
	Fast
	Shooter
)

// Archetypes lists every species in wave spawn order
var Archetypes = [...]Archetype{Grunt, Tank, Fast, Shooter}

// String returns the wire name of the archetype
func (a Archetype) String() string {
	switch a {
	case Grunt:
		return "grunt"
	case Tank:
		return "tank"
	case Fast:
		return "fast"
	case Shooter:
		return "shooter"
	default:
		return "unknown"
	}
}

// ParseArchetype is the inverse of String
func ParseArchetype(s string) (Archetype, error) {
	for _, a := range Archetypes {
		if a.String() == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown archetype %q", s)
}

// ArchetypeStats holds the fixed stats and wave-scaled speed of a species.
// Speed is BaseSpeed + SpeedPerWave*wave; the aim direction gets a uniform
// jitter in [-Jitter, +Jitter].
type ArchetypeStats struct {
	Radius       float64
	Health       int
	Score        int
	BaseSpeed    float64
	SpeedPerWave float64
	Jitter       float64
}

var archetypeStats = map[Archetype]ArchetypeStats{
	Grunt:   {Radius: 10, Health: 1, Score: 100, BaseSpeed: 60, SpeedPerWave: 8, Jitter: 0.8},
	Tank:    {Radius: 16, Health: 3, Score: 300, BaseSpeed: 35, SpeedPerWave: 4, Jitter: 0},
	Fast:    {Radius: 8, Health: 1, Score: 200, BaseSpeed: 140, SpeedPerWave: 10, Jitter: 0.3},
	Shooter: {Radius: 12, Health: 2, Score: 250, BaseSpeed: 50, SpeedPerWave: 5, Jitter: 1.0},
}

// Stats returns the stat block for an archetype
func (a Archetype) Stats() ArchetypeStats {
	return archetypeStats[a]
}

// Speed returns the archetype's launch speed at the given wave
func (a Archetype) Speed(wave int) float64 {
	s := archetypeStats[a]
	return s.BaseSpeed + s.SpeedPerWave*float64(wave)
}

// ShooterFireInterval returns seconds between shooter volleys at the given wave
func ShooterFireInterval(wave int) float64 {
	return math.Max(0.8, 2.0-0.1*float64(wave))
}

// Enemy edge entry offset and collision tolerances
const (
	EnemySpawnOffset    = 20.0
	EnemyBulletHitSlack = 3.0  // Added to enemy radius for player bullets
	CollisionDamage     = 2
	ShooterInitialDelay = 2.0
)

// Enemy is a hostile entity spawned by the wave director
type Enemy struct {
	Type   Archetype
	X, Y   float64
	VX, VY float64
	Angle  float64
	Radius float64
	Health int
	Score  int

	Bullets []Bullet

	// Shooter only
	FireTimer    float64
	FireInterval float64
}

// NewEnemy creates an enemy of the given archetype entering from a random
// edge and heading toward (targetX, targetY).
func NewEnemy(a Archetype, wave int, targetX, targetY, arenaW, arenaH float64, rng *rand.Rand) *Enemy {
	var x, y float64
	switch rng.Intn(4) {
	case 0:
		x, y = rng.Float64()*arenaW, -EnemySpawnOffset
	case 1:
		x, y = rng.Float64()*arenaW, arenaH+EnemySpawnOffset
	case 2:
		x, y = -EnemySpawnOffset, rng.Float64()*arenaH
	default:
		x, y = arenaW+EnemySpawnOffset, rng.Float64()*arenaH
	}

	stats := a.Stats()
	e := &Enemy{
		Type:    a,
		X:       x,
		Y:       y,
		Angle:   rng.Float64() * 2 * math.Pi,
		Radius:  stats.Radius,
		Health:  stats.Health,
		Score:   stats.Score,
		Bullets: make([]Bullet, 0),
	}

	aim := math.Atan2(targetY-y, targetX-x)
	if stats.Jitter > 0 {
		aim += (rng.Float64()*2 - 1) * stats.Jitter
	}
	speed := a.Speed(wave)
	e.VX = math.Cos(aim) * speed
	e.VY = math.Sin(aim) * speed

	if a == Shooter {
		e.FireInterval = ShooterFireInterval(wave)
		e.FireTimer = rng.Float64() * ShooterInitialDelay
	}
	return e
}

// Dead reports whether the enemy has been destroyed
func (e *Enemy) Dead() bool {
	return e.Health <= 0
}

func (e *Enemy) move(dt, arenaW, arenaH float64) {
	e.X += e.VX * dt
	e.Y += e.VY * dt
	e.X, e.Y = Wrap(e.X, e.Y, arenaW, arenaH)
}
