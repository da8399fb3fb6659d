package game

import "math"

// WrapMargin is how far an entity may drift past an arena edge before it
// reappears on the opposite side.
const WrapMargin = 20.0

// Wrap maps a position onto the toroidal arena of size w x h. Coordinates
// outside [-WrapMargin, dim+WrapMargin] are shifted by exactly dim+2*WrapMargin.
func Wrap(x, y, w, h float64) (float64, float64) {
	if x < -WrapMargin {
		x += w + 2*WrapMargin
	}
	if x > w+WrapMargin {
		x -= w + 2*WrapMargin
	}
	if y < -WrapMargin {
		y += h + 2*WrapMargin
	}
	if y > h+WrapMargin {
		y -= h + 2*WrapMargin
	}
	return x, y
}

// Distance returns the Euclidean distance between two points
func Distance(x1, y1, x2, y2 float64) float64 {
	dx := x1 - x2
	dy := y1 - y2
	return math.Sqrt(dx*dx + dy*dy)
}
