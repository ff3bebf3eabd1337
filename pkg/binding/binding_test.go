package binding_test

import (
	"testing"

	"github.com/sc-userland/steamctl/pkg/binding"
	"github.com/sc-userland/steamctl/pkg/vinput"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSectionRoundTrip(t *testing.T) {
	names := []string{
		"left_trackpad", "right_trackpad", "joystick", "button_diamond",
		"switch", "left_trigger", "right_trigger",
	}
	for _, name := range names {
		sec, ok := binding.ParseSection(name)
		require.True(t, ok, name)
		assert.Equal(t, name, sec.String())
	}
	_, ok := binding.ParseSection("bogus")
	assert.False(t, ok)
}

func TestModeShiftBuildsSet(t *testing.T) {
	b := binding.ModeShift(binding.ButtonDiamond, binding.Switch)
	require.Equal(t, binding.KindModeShift, b.Kind)
	assert.True(t, b.ModeShiftSet[binding.ButtonDiamond])
	assert.True(t, b.ModeShiftSet[binding.Switch])
	assert.False(t, b.ModeShiftSet[binding.Joystick])
}

func TestBindingResolveOnlyKeyAndMouseButton(t *testing.T) {
	_, _, ok := binding.None.Resolve(&vinput.Set{})
	assert.False(t, ok)

	ms := binding.ModeShift(binding.ButtonDiamond)
	_, _, ok = ms.Resolve(&vinput.Set{})
	assert.False(t, ok)
}
