// Package physics is the movement integrator shared by the authoritative
// simulation and the client predictor. Server and client must run this code
// byte for byte: any divergence here turns into permanent prediction drift,
// so everything in this package is pure and tuning lives next to the math.
package physics

import "math"

// Simulation tuning. TickRate is shared by server ticks and client
// prediction steps so both sides integrate with the same dt.
const (
	TickRate = 30
	TickDT   = 1.0 / float64(TickRate)

	Accel      = 2200.0 // px/s^2 while input held
	Friction   = 0.0025 // fraction of velocity surviving one second
	MaxSpeed   = 340.0  // px/s
	PlayerHalf = 14.0
)

// Vec2 is a 2D vector. Value semantics throughout; nothing in this package
// mutates its arguments.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec2) Add(o Vec2) Vec2      { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2      { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }
func (v Vec2) Len() float64         { return math.Hypot(v.X, v.Y) }

// Normalized returns the unit vector, or the zero vector unchanged.
func (v Vec2) Normalized() Vec2 {
	length := v.Len()
	if length == 0 {
		return Vec2{}
	}
	return Vec2{v.X / length, v.Y / length}
}

// Lerp interpolates between a and b; t outside [0,1] extrapolates.
func Lerp(a, b Vec2, t float64) Vec2 {
	return Vec2{a.X + (b.X-a.X)*t, a.Y + (b.Y-a.Y)*t}
}

// Rect is an axis-aligned wall rectangle with its origin at the top-left.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Input is the per-tick key state sampled from a player.
type Input struct {
	Up    bool `json:"up"`
	Down  bool `json:"down"`
	Left  bool `json:"left"`
	Right bool `json:"right"`
}

// Dir converts key state to a direction vector, normalized so holding two
// keys does not move faster than holding one.
func (in Input) Dir() Vec2 {
	var d Vec2
	if in.Up {
		d.Y -= 1
	}
	if in.Down {
		d.Y += 1
	}
	if in.Left {
		d.X -= 1
	}
	if in.Right {
		d.X += 1
	}
	return d.Normalized()
}

// Integrate advances one fixed timestep: accelerate along dir, decay by
// continuous friction, clamp speed, advance position. dir is expected to be
// normalized or zero. Friction applies every tick regardless of input so a
// released key coasts to a stop instead of freezing.
func Integrate(pos, vel, dir Vec2, dt float64) (Vec2, Vec2) {
	vel = vel.Add(dir.Scale(Accel * dt))

	decay := math.Pow(Friction, dt)
	vel = vel.Scale(decay)

	if speed := vel.Len(); speed > MaxSpeed {
		vel = vel.Scale(MaxSpeed / speed)
	}

	pos = pos.Add(vel.Scale(dt))
	return pos, vel
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ResolveWalls resolves a move from prev to pos against walls and world
// bounds, one axis at a time so sliding along a wall keeps the free axis.
// half is the mover's collision half-extent.
func ResolveWalls(prev, pos Vec2, half float64, walls []Rect, width, height float64) Vec2 {
	next := Vec2{
		X: clamp(pos.X, half, width-half),
		Y: clamp(pos.Y, half, height-half),
	}

	if dx := next.X - prev.X; dx != 0 {
		next.X = resolveAxisX(prev.X, prev.Y, next.X, dx, half, walls, width)
	}
	if dy := next.Y - prev.Y; dy != 0 {
		next.Y = resolveAxisY(next.X, prev.Y, next.Y, dy, half, walls, height)
	}
	return next
}

func resolveAxisX(oldX, oldY, newX, dx, half float64, walls []Rect, width float64) float64 {
	for _, w := range walls {
		minY := w.Y - half
		maxY := w.Y + w.Height + half
		if oldY < minY || oldY > maxY {
			continue
		}
		if dx > 0 {
			boundary := w.X - half
			if oldX <= boundary && newX > boundary {
				newX = boundary
			}
		} else {
			boundary := w.X + w.Width + half
			if oldX >= boundary && newX < boundary {
				newX = boundary
			}
		}
	}
	return clamp(newX, half, width-half)
}

func resolveAxisY(oldX, oldY, newY, dy, half float64, walls []Rect, height float64) float64 {
	for _, w := range walls {
		minX := w.X - half
		maxX := w.X + w.Width + half
		if oldX < minX || oldX > maxX {
			continue
		}
		if dy > 0 {
			boundary := w.Y - half
			if oldY <= boundary && newY > boundary {
				newY = boundary
			}
		} else {
			boundary := w.Y + w.Height + half
			if oldY >= boundary && newY < boundary {
				newY = boundary
			}
		}
	}
	return clamp(newY, half, height-half)
}

// ResolvePenetration nudges a mover already overlapping a wall back out
// along the shortest axis. ResolveWalls only stops moves that cross a wall
// face, so positions produced by other means (pair separation) need this
// pass to restore the no-overlap invariant.
func ResolvePenetration(pos Vec2, half float64, walls []Rect, width, height float64) Vec2 {
	for _, w := range walls {
		if !CircleRectOverlap(pos, half, w) {
			continue
		}

		closest := Vec2{
			X: clamp(pos.X, w.X, w.X+w.Width),
			Y: clamp(pos.Y, w.Y, w.Y+w.Height),
		}
		d := pos.Sub(closest)
		dist := d.Len()

		if dist == 0 {
			// Center is inside the wall; push out through the nearest face.
			left := pos.X - w.X
			right := w.X + w.Width - pos.X
			top := pos.Y - w.Y
			bottom := w.Y + w.Height - pos.Y

			min := left
			face := 0
			if right < min {
				min = right
				face = 1
			}
			if top < min {
				min = top
				face = 2
			}
			if bottom < min {
				face = 3
			}

			switch face {
			case 0:
				pos.X = w.X - half
			case 1:
				pos.X = w.X + w.Width + half
			case 2:
				pos.Y = w.Y - half
			case 3:
				pos.Y = w.Y + w.Height + half
			}
		} else if dist < half {
			pos = pos.Add(d.Scale((half - dist) / dist))
		}

		pos.X = clamp(pos.X, half, width-half)
		pos.Y = clamp(pos.Y, half, height-half)
	}
	return pos
}

// CircleRectOverlap reports whether a circle at center c with radius r
// overlaps the rectangle.
func CircleRectOverlap(c Vec2, r float64, rect Rect) bool {
	closestX := clamp(c.X, rect.X, rect.X+rect.Width)
	closestY := clamp(c.Y, rect.Y, rect.Y+rect.Height)
	dx := c.X - closestX
	dy := c.Y - closestY
	return dx*dx+dy*dy <= r*r
}

// EaseInOut is the cubic easing curve used to blend prediction corrections.
func EaseInOut(t float64) float64 {
	t = clamp(t, 0, 1)
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := -2*t + 2
	return 1 - u*u*u/2
}
