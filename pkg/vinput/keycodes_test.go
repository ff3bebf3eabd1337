package vinput_test

import (
	"testing"

	"github.com/sc-userland/steamctl/pkg/vinput"
	"github.com/stretchr/testify/assert"
)

func TestBaseKeyCodeStripsOffset(t *testing.T) {
	base, shifted := vinput.BaseKeyCode(vinput.KeyA + vinput.KeyOffset)
	assert.True(t, shifted)
	assert.Equal(t, vinput.KeyA, base)
}

func TestBaseKeyCodeUnshiftedPassesThrough(t *testing.T) {
	base, shifted := vinput.BaseKeyCode(vinput.KeyA)
	assert.False(t, shifted)
	assert.Equal(t, vinput.KeyA, base)
}
