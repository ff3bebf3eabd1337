package trackball_test

import (
	"math"
	"testing"
	"time"

	"github.com/sc-userland/steamctl/pkg/trackball"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlickThenDecayExceedsDirectMotion(t *testing.T) {
	b := trackball.New(2.0, 1.0, 1.0)
	now := time.Unix(0, 0)

	// One push tick carrying a net motion of (1000, 0).
	ex, ey, _ := b.Move(1000, 0, false, now)
	total := ex

	// Many free ticks afterwards: the ball should keep emitting residual
	// pixels that monotonically approach a final value, and never emit
	// anything once at rest.
	prevAbs := math.Abs(float64(total))
	sawRest := false
	for i := 1; i <= 500; i++ {
		now = now.Add(10 * time.Millisecond)
		dx, dy, _ := b.Move(0, 0, true, now)
		total += dx
		assert.Zero(t, dy)
		if dx == 0 && b.AtRest() {
			sawRest = true
			// Once at rest it must stay at rest.
			dx2, dy2, _ := b.Move(0, 0, true, now.Add(time.Second))
			assert.Zero(t, dx2)
			assert.Zero(t, dy2)
			break
		}
		newAbs := math.Abs(float64(total))
		assert.GreaterOrEqual(t, newAbs, prevAbs-1, "total distance should not retreat")
		prevAbs = newAbs
	}

	require.True(t, sawRest, "ball should eventually come to rest")
	assert.Greater(t, total, 1000, "inertia should add travel beyond the direct push")
}

func TestNoMotionWithoutPush(t *testing.T) {
	b := trackball.New(2.0, 1.0, 1.0)
	now := time.Unix(0, 0)
	ex, ey, dist := b.Move(0, 0, true, now)
	assert.Zero(t, ex)
	assert.Zero(t, ey)
	assert.Zero(t, dist)
	assert.True(t, b.AtRest())
}
