// Package render draws spectator images of the arena.
package render

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"sync"

	"github.com/fogleman/gg"

	"wave-arena/internal/game"
)

// PlayerPalette matches the colors clients use for colorIdx 1..8, repeating after that
var PlayerPalette = []color.RGBA{
	{50, 255, 80, 255},
	{255, 50, 255, 255},
	{50, 200, 255, 255},
	{255, 200, 50, 255},
	{255, 100, 50, 255},
	{150, 50, 255, 255},
	{50, 255, 200, 255},
	{255, 255, 50, 255},
}

var enemyColors = map[string]color.RGBA{
	"grunt":   {255, 80, 80, 255},
	"tank":    {200, 120, 60, 255},
	"fast":    {255, 255, 255, 255},
	"shooter": {255, 60, 160, 255},
}

const gridSpacing = 50

// PlayerColor returns the palette entry for a 1-based color index
func PlayerColor(colorIdx int) color.RGBA {
	if colorIdx < 1 {
		colorIdx = 1
	}
	return PlayerPalette[(colorIdx-1)%len(PlayerPalette)]
}

// ArenaRenderer draws snapshots onto a reused canvas
type ArenaRenderer struct {
	mu            sync.Mutex
	dc            *gg.Context
	width, height int
	arenaW        float64
	arenaH        float64
}

// NewArenaRenderer creates a renderer producing width x height images of an
// arenaW x arenaH world.
func NewArenaRenderer(width, height int, arenaW, arenaH float64) *ArenaRenderer {
	return &ArenaRenderer{
		dc:     gg.NewContext(width, height),
		width:  width,
		height: height,
		arenaW: arenaW,
		arenaH: arenaH,
	}
}

// RenderPNG draws snap and encodes it as PNG into w
func (r *ArenaRenderer) RenderPNG(w io.Writer, snap *game.GameSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	dc := r.dc
	dc.Identity()
	r.drawBackground(dc)

	dc.Push()
	dc.Scale(float64(r.width)/r.arenaW, float64(r.height)/r.arenaH)
	r.drawGrid(dc)
	for _, e := range snap.State.Enemies {
		drawEnemy(dc, e)
	}
	for _, id := range snap.PlayerOrder {
		if p, ok := snap.State.Players[id]; ok {
			drawPlayer(dc, p)
		}
	}
	dc.Pop()

	drawHUD(dc, snap)

	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode arena png: %w", err)
	}
	return nil
}

func (r *ArenaRenderer) drawBackground(dc *gg.Context) {
	dc.SetColor(color.RGBA{12, 12, 28, 255})
	dc.DrawRectangle(0, 0, float64(r.width), float64(r.height))
	dc.Fill()
}

func (r *ArenaRenderer) drawGrid(dc *gg.Context) {
	dc.SetColor(color.RGBA{30, 30, 45, 255})
	dc.SetLineWidth(1)
	for x := 0.0; x <= r.arenaW; x += gridSpacing {
		dc.DrawLine(x, 0, x, r.arenaH)
		dc.Stroke()
	}
	for y := 0.0; y <= r.arenaH; y += gridSpacing {
		dc.DrawLine(0, y, r.arenaW, y)
		dc.Stroke()
	}
}

func drawEnemy(dc *gg.Context, e game.EnemyState) {
	c, ok := enemyColors[e.Type]
	if !ok {
		c = color.RGBA{200, 200, 200, 255}
	}
	dc.SetColor(c)
	dc.SetLineWidth(2)
	dc.DrawCircle(e.X, e.Y, e.Radius)
	dc.Stroke()

	dc.SetColor(color.RGBA{255, 90, 90, 255})
	for _, b := range e.Bullets {
		dc.DrawCircle(b.X, b.Y, 3)
		dc.Fill()
	}
}

func drawPlayer(dc *gg.Context, p game.PlayerState) {
	c := PlayerColor(p.ColorIdx)

	dc.SetColor(c)
	for _, b := range p.Bullets {
		dc.DrawCircle(b.X, b.Y, 2)
		dc.Fill()
	}

	if !p.Alive {
		return
	}

	// Ship: triangle pointing along the facing angle
	dc.Push()
	dc.Translate(p.X, p.Y)
	dc.Rotate(p.Angle)
	dc.MoveTo(game.PlayerRadius, 0)
	dc.LineTo(-game.PlayerRadius*0.8, -game.PlayerRadius*0.7)
	dc.LineTo(-game.PlayerRadius*0.8, game.PlayerRadius*0.7)
	dc.ClosePath()
	dc.SetLineWidth(2)
	dc.Stroke()
	dc.Pop()

	if p.Invincible > 0 {
		// Fades out as invincibility runs down
		alpha := uint8(math.Min(1, p.Invincible/game.SpawnInvincibility) * 160)
		dc.SetColor(color.RGBA{c.R, c.G, c.B, alpha})
		dc.DrawCircle(p.X, p.Y, game.PlayerRadius+6)
		dc.Stroke()
	}

	// Health pips
	for i := 0; i < p.Health; i++ {
		dc.SetColor(color.RGBA{83, 255, 69, 255})
		dc.DrawRectangle(p.X-9+float64(i)*7, p.Y-game.PlayerRadius-8, 5, 3)
		dc.Fill()
	}
}

func drawHUD(dc *gg.Context, snap *game.GameSnapshot) {
	dc.SetColor(color.White)
	dc.DrawString(fmt.Sprintf("WAVE %d", snap.State.Wave), 10, 20)
	dc.DrawString(fmt.Sprintf("players %d  enemies %d  tick %d", snap.PlayerCount, snap.EnemyCount, snap.TickNumber), 10, 36)
}
