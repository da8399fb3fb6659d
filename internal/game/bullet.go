package game

import "math"

// Bullet system constants
const (
	BulletLifetime    = 2.5   // Seconds before a bullet expires
	PlayerBulletSpeed = 500.0 // Units per second
	ShooterBulletBase = 200.0 // Shooter bullet speed at wave 0
	ShooterBulletStep = 10.0  // Added per wave
)

// Bullet is a projectile owned by the player or enemy that fired it.
// Bullets carry no back-reference; ownership is containment in the owner's slice.
type Bullet struct {
	X    float64 `json:"x" msgpack:"x"`
	Y    float64 `json:"y" msgpack:"y"`
	VX   float64 `json:"vx" msgpack:"vx"`
	VY   float64 `json:"vy" msgpack:"vy"`
	Life float64 `json:"life" msgpack:"life"`
}

// newBullet launches a bullet from the rim of a body of the given radius.
func newBullet(x, y, radius, angle, speed float64) Bullet {
	cos, sin := math.Cos(angle), math.Sin(angle)
	return Bullet{
		X:    x + cos*radius,
		Y:    y + sin*radius,
		VX:   cos * speed,
		VY:   sin * speed,
		Life: BulletLifetime,
	}
}

// advance integrates position, wraps it and burns lifetime.
// Returns false once the bullet has expired.
func (b *Bullet) advance(dt, w, h float64) bool {
	b.X += b.VX * dt
	b.Y += b.VY * dt
	b.X, b.Y = Wrap(b.X, b.Y, w, h)
	b.Life -= dt
	return b.Life > 0
}

// Live reports whether the bullet can still hit something
func (b *Bullet) Live() bool {
	return b.Life > 0
}

// advanceBullets moves every bullet and drops expired ones in place.
func advanceBullets(bullets []Bullet, dt, w, h float64) []Bullet {
	n := 0
	for i := range bullets {
		if bullets[i].advance(dt, w, h) {
			bullets[n] = bullets[i]
			n++
		}
	}
	return bullets[:n]
}

// removeBullet deletes index i preserving order
func removeBullet(bullets []Bullet, i int) []Bullet {
	return append(bullets[:i], bullets[i+1:]...)
}
