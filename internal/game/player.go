package game

import (
	"math"
	"math/rand"
)

// Player tuning constants
const (
	PlayerMaxHealth     = 3
	PlayerRadius        = 12.0 // Nose offset and hit radius against enemy bodies
	PlayerFireRate      = 0.12 // Seconds between shots
	PlayerRotSpeed      = 4.5  // Radians per second
	PlayerThrust        = 320.0
	PlayerDrag          = 0.985 // Velocity multiplier applied once per tick
	SpawnInvincibility  = 3.0
	RespawnDelay        = 2.0
	SpawnRingMin        = 150.0
	SpawnRingSpread     = 100.0
	PlayerBulletHitDist = 12.0 // Enemy bullet vs player
)

// Input is the latest control state sent by a client.
// JSON keys match what browser clients send.
type Input struct {
	Left   bool `json:"left" msgpack:"left"`
	Right  bool `json:"right" msgpack:"right"`
	Thrust bool `json:"up" msgpack:"up"`
	Fire   bool `json:"space" msgpack:"space"`
}

// Player is a connected ship.
//
// Invariants: Health > 0 implies Alive; RespawnTimer only counts down while
// !Alive; Score never decreases.
type Player struct {
	ID       string
	ColorIdx int

	X, Y   float64
	VX, VY float64
	Angle  float64

	Health    int
	MaxHealth int
	Alive     bool

	RespawnTimer float64
	FireRate     float64
	FireCooldown float64
	Invincible   float64

	Score   int
	Bullets []Bullet
	Input   Input
}

// NewPlayer creates a player on the spawn ring around the arena centre
func NewPlayer(id string, colorIdx int, arenaW, arenaH float64, rng *rand.Rand) *Player {
	p := &Player{
		ID:        id,
		ColorIdx:  colorIdx,
		Angle:     -math.Pi / 2,
		MaxHealth: PlayerMaxHealth,
		FireRate:  PlayerFireRate,
	}
	p.placeOnSpawnRing(arenaW, arenaH, rng)
	p.Health = p.MaxHealth
	p.Alive = true
	p.Invincible = SpawnInvincibility
	p.Bullets = make([]Bullet, 0, 16)
	return p
}

func (p *Player) placeOnSpawnRing(arenaW, arenaH float64, rng *rand.Rand) {
	angle := rng.Float64() * 2 * math.Pi
	d := SpawnRingMin + rng.Float64()*SpawnRingSpread
	p.X = arenaW/2 + math.Cos(angle)*d
	p.Y = arenaH/2 + math.Sin(angle)*d
	p.VX, p.VY = 0, 0
}

// Vulnerable reports whether the player can currently take damage
func (p *Player) Vulnerable() bool {
	return p.Alive && p.Invincible <= 0
}

// TakeDamage applies damage and handles death. Returns true if this hit killed the player.
func (p *Player) TakeDamage(amount int) bool {
	p.Health -= amount
	if p.Health <= 0 && p.Alive {
		p.Alive = false
		p.RespawnTimer = RespawnDelay
		return true
	}
	return false
}

// update runs one tick for a living player: steering, thrust, drag,
// integration, timers, firing and owned bullets.
func (p *Player) update(dt, arenaW, arenaH float64) {
	if p.Input.Left {
		p.Angle -= PlayerRotSpeed * dt
	}
	if p.Input.Right {
		p.Angle += PlayerRotSpeed * dt
	}

	if p.Input.Thrust {
		p.VX += math.Cos(p.Angle) * PlayerThrust * dt
		p.VY += math.Sin(p.Angle) * PlayerThrust * dt
	}

	p.VX *= PlayerDrag
	p.VY *= PlayerDrag
	p.X += p.VX * dt
	p.Y += p.VY * dt
	p.X, p.Y = Wrap(p.X, p.Y, arenaW, arenaH)

	p.Invincible = math.Max(0, p.Invincible-dt)
	p.FireCooldown = math.Max(0, p.FireCooldown-dt)

	if p.Input.Fire && p.FireCooldown <= 0 {
		p.Bullets = append(p.Bullets, newBullet(p.X, p.Y, PlayerRadius, p.Angle, PlayerBulletSpeed))
		p.FireCooldown = p.FireRate
	}

	p.Bullets = advanceBullets(p.Bullets, dt, arenaW, arenaH)
}

// tickRespawn counts down a dead player. Returns true when the player came back this tick.
func (p *Player) tickRespawn(dt, arenaW, arenaH float64, rng *rand.Rand) bool {
	p.RespawnTimer -= dt
	if p.RespawnTimer > 0 {
		return false
	}
	p.placeOnSpawnRing(arenaW, arenaH, rng)
	p.Alive = true
	p.Invincible = SpawnInvincibility
	p.Health = p.MaxHealth
	p.Bullets = p.Bullets[:0]
	return true
}
