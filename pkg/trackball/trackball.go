// Package trackball implements the 2-D decaying-velocity motion integrator
// used by the mouse sink to glide pad flicks to rest (§4.2).
package trackball

import (
	"math"
	"time"
)

// restEpsilon is the speed (in scaled units per tick) below which a free-running
// ball is considered stopped; once crossed, both velocity and the
// sub-pixel residue are reset so a later touch starts clean.
const restEpsilon = 0.05

// Ball is a single-axis-pair motion integrator. The mouse sink owns two
// independent Balls: one feeding REL_X/REL_Y, one feeding REL_WHEEL/
// REL_HWHEEL, each with its own friction and per-axis scale.
type Ball struct {
	Friction     float64
	XScale       float64
	YScale       float64
	vx, vy       float64 // current velocity, scaled units per tick
	rx, ry       float64 // fractional pixel residue carried between ticks
	lastT        time.Time
	everMoved    bool
}

// New creates a Ball with the given friction (1/sec decay constant) and
// per-axis input scale.
func New(friction, xscale, yscale float64) *Ball {
	return &Ball{Friction: friction, XScale: xscale, YScale: yscale}
}

// Move advances the ball by one tick and returns the integer pixel delta to
// emit plus the Euclidean distance of that delta (used by callers to
// schedule haptic pulses on accumulated pad travel).
//
// When free is false this is a direct push: the input delta becomes the
// ball's instantaneous velocity (no decay applied this tick), modeling a
// finger still dragging the pad. When free is true the pad has been
// released: dx/dy are ignored, existing velocity decays by
// exp(-Friction*dt), and the ball continues to emit residual pixels until
// it crosses restEpsilon, at which point it is declared at rest and emits
// nothing further until the next push.
func (b *Ball) Move(dx, dy float64, free bool, now time.Time) (ex, ey int, dist float64) {
	dt := b.tick(now)

	if !free {
		b.vx = dx * b.XScale
		b.vy = dy * b.YScale
		b.everMoved = true
	} else {
		if !b.everMoved {
			return 0, 0, 0
		}
		decay := math.Exp(-b.Friction * dt)
		b.vx *= decay
		b.vy *= decay
		if math.Hypot(b.vx, b.vy) < restEpsilon {
			b.vx, b.vy = 0, 0
			b.rx, b.ry = 0, 0
			b.everMoved = false
			return 0, 0, 0
		}
	}

	b.rx += b.vx
	b.ry += b.vy
	ex = floorToInt(b.rx)
	ey = floorToInt(b.ry)
	b.rx -= float64(ex)
	b.ry -= float64(ey)

	dist = math.Hypot(float64(ex), float64(ey))
	return ex, ey, dist
}

// AtRest reports whether the ball currently has no residual velocity.
func (b *Ball) AtRest() bool {
	return !b.everMoved && b.vx == 0 && b.vy == 0
}

func (b *Ball) tick(now time.Time) float64 {
	if b.lastT.IsZero() {
		b.lastT = now
		return 0
	}
	dt := now.Sub(b.lastT).Seconds()
	b.lastT = now
	if dt < 0 {
		dt = 0
	}
	return dt
}

func floorToInt(v float64) int {
	return int(math.Floor(v))
}
