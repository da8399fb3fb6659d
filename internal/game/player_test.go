package game

import (
	"math"
	"math/rand"
	"testing"
)

func newTestPlayer(t *testing.T) *Player {
	t.Helper()
	p := NewPlayer("p1", 1, DefaultArenaWidth, DefaultArenaHeight, rand.New(rand.NewSource(7)))
	p.X, p.Y = 400, 300
	return p
}

func TestNewPlayerSpawnsOnRing(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		p := NewPlayer("p", 1, DefaultArenaWidth, DefaultArenaHeight, rng)
		d := Distance(p.X, p.Y, DefaultArenaWidth/2, DefaultArenaHeight/2)
		if d < SpawnRingMin-1e-9 || d >= SpawnRingMin+SpawnRingSpread {
			t.Fatalf("spawn distance %v outside [%v, %v)", d, SpawnRingMin, SpawnRingMin+SpawnRingSpread)
		}
		if !p.Alive || p.Health != PlayerMaxHealth || p.Invincible != SpawnInvincibility {
			t.Fatalf("fresh player state wrong: %+v", p)
		}
		if p.Angle != -math.Pi/2 {
			t.Fatalf("fresh player should face up, angle %v", p.Angle)
		}
	}
}

func TestPlayerFireCooldown(t *testing.T) {
	p := newTestPlayer(t)
	p.Input = Input{Fire: true}

	p.update(testDt, DefaultArenaWidth, DefaultArenaHeight)
	if len(p.Bullets) != 1 {
		t.Fatalf("first shot: bullets = %d, want 1", len(p.Bullets))
	}

	// 0.12s cooldown spans 7.2 ticks, so the next shot lands on tick 9
	for i := 0; i < 7; i++ {
		p.update(testDt, DefaultArenaWidth, DefaultArenaHeight)
	}
	if len(p.Bullets) != 1 {
		t.Fatalf("after 8 ticks: bullets = %d, want 1", len(p.Bullets))
	}
	p.update(testDt, DefaultArenaWidth, DefaultArenaHeight)
	if len(p.Bullets) != 2 {
		t.Fatalf("after 9 ticks: bullets = %d, want 2", len(p.Bullets))
	}
}

func TestPlayerBulletLeavesFromNose(t *testing.T) {
	p := newTestPlayer(t)
	p.Angle = 0
	p.Input = Input{Fire: true}

	p.update(testDt, DefaultArenaWidth, DefaultArenaHeight)

	b := p.Bullets[0]
	wantX := 400 + PlayerRadius + PlayerBulletSpeed*testDt
	if math.Abs(b.X-wantX) > 1e-9 || math.Abs(b.Y-300) > 1e-9 {
		t.Errorf("bullet at (%v, %v), want (%v, 300)", b.X, b.Y, wantX)
	}
	if math.Abs(b.Life-(BulletLifetime-testDt)) > 1e-9 {
		t.Errorf("bullet life = %v", b.Life)
	}
}

func TestPlayerRotation(t *testing.T) {
	p := newTestPlayer(t)
	start := p.Angle

	p.Input = Input{Left: true}
	p.update(testDt, DefaultArenaWidth, DefaultArenaHeight)
	if got := start - p.Angle; math.Abs(got-PlayerRotSpeed*testDt) > 1e-9 {
		t.Errorf("left turn = %v, want %v", got, PlayerRotSpeed*testDt)
	}

	p.Input = Input{Left: true, Right: true}
	before := p.Angle
	p.update(testDt, DefaultArenaWidth, DefaultArenaHeight)
	if math.Abs(p.Angle-before) > 1e-9 {
		t.Errorf("left+right should cancel, angle moved %v", p.Angle-before)
	}
}

func TestPlayerThrustAndDrag(t *testing.T) {
	p := newTestPlayer(t)
	p.Angle = 0
	p.Input = Input{Thrust: true}

	p.update(testDt, DefaultArenaWidth, DefaultArenaHeight)

	wantVX := PlayerThrust * testDt * PlayerDrag
	if math.Abs(p.VX-wantVX) > 1e-9 || math.Abs(p.VY) > 1e-9 {
		t.Fatalf("velocity = (%v, %v), want (%v, 0)", p.VX, p.VY, wantVX)
	}
	if math.Abs(p.X-(400+wantVX*testDt)) > 1e-9 {
		t.Errorf("X = %v, want %v", p.X, 400+wantVX*testDt)
	}

	p.Input = Input{}
	p.update(testDt, DefaultArenaWidth, DefaultArenaHeight)
	if math.Abs(p.VX-wantVX*PlayerDrag) > 1e-9 {
		t.Errorf("coasting VX = %v, want %v", p.VX, wantVX*PlayerDrag)
	}
}

func TestPlayerBulletsExpire(t *testing.T) {
	p := newTestPlayer(t)
	p.Bullets = append(p.Bullets, Bullet{X: 100, Y: 100, VX: 1, Life: testDt / 2}, Bullet{X: 200, Y: 200, Life: 1})

	p.update(testDt, DefaultArenaWidth, DefaultArenaHeight)

	if len(p.Bullets) != 1 || p.Bullets[0].X != 200 {
		t.Errorf("expired bullet should be dropped, got %+v", p.Bullets)
	}
}

func TestTakeDamage(t *testing.T) {
	p := newTestPlayer(t)

	if p.TakeDamage(1) {
		t.Fatal("1 damage should not kill")
	}
	if p.TakeDamage(1) || p.Health != 1 {
		t.Fatalf("health = %d, want 1", p.Health)
	}
	if !p.TakeDamage(2) {
		t.Fatal("overkill should report death")
	}
	if p.Alive || p.RespawnTimer != RespawnDelay {
		t.Errorf("dead player state: alive=%v timer=%v", p.Alive, p.RespawnTimer)
	}
	if p.TakeDamage(1) {
		t.Error("a dead player cannot die twice")
	}
}

func TestVulnerable(t *testing.T) {
	p := newTestPlayer(t)
	if p.Vulnerable() {
		t.Error("freshly spawned player should be invincible")
	}
	p.Invincible = 0
	if !p.Vulnerable() {
		t.Error("player without invincibility should be vulnerable")
	}
	p.Alive = false
	if p.Vulnerable() {
		t.Error("dead player is never vulnerable")
	}
}
