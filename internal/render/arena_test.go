package render

import (
	"bytes"
	"image/png"
	"testing"

	"wave-arena/internal/game"
)

func TestPlayerColorWraps(t *testing.T) {
	tests := []struct {
		idx  int
		want int
	}{
		{1, 0},
		{8, 7},
		{9, 0},
		{17, 0},
		{0, 0},
	}
	for _, tt := range tests {
		if got := PlayerColor(tt.idx); got != PlayerPalette[tt.want] {
			t.Errorf("PlayerColor(%d) = %v, want %v", tt.idx, got, PlayerPalette[tt.want])
		}
	}
}

func TestRenderPNG(t *testing.T) {
	snap := &game.GameSnapshot{
		TickNumber:  42,
		PlayerCount: 1,
		EnemyCount:  1,
		PlayerOrder: []string{"p1"},
		State: game.StateMessage{
			Type: game.MsgState,
			Wave: 3,
			Enemies: []game.EnemyState{
				{X: 100, Y: 100, Type: "shooter", Radius: 12, Bullets: []game.Bullet{{X: 110, Y: 110, Life: 1}}},
			},
			Players: map[string]game.PlayerState{
				"p1": {X: 400, Y: 300, Health: 3, Alive: true, Invincible: 1.5, ColorIdx: 2,
					Bullets: []game.Bullet{{X: 420, Y: 300, Life: 2}}},
			},
		},
	}

	r := NewArenaRenderer(400, 300, game.DefaultArenaWidth, game.DefaultArenaHeight)
	var buf bytes.Buffer
	if err := r.RenderPNG(&buf, snap); err != nil {
		t.Fatalf("RenderPNG failed: %v", err)
	}

	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 300 {
		t.Errorf("image size = %dx%d, want 400x300", b.Dx(), b.Dy())
	}

	// Renders twice on the same canvas without leaking transforms
	buf.Reset()
	if err := r.RenderPNG(&buf, snap); err != nil {
		t.Fatalf("second RenderPNG failed: %v", err)
	}
}
