package compiler_test

import (
	"testing"

	"github.com/sc-userland/steamctl/pkg/binding"
	"github.com/sc-userland/steamctl/pkg/compiler"
	"github.com/sc-userland/steamctl/pkg/profile"
	"github.com/sc-userland/steamctl/pkg/vinput"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSink is a minimal vinput.Sink stub so compiler tests never touch
// /dev/uinput.
type fakeSink struct {
	kind vinput.Kind
	keys map[uint16]bool
	axes map[uint16]bool
}

func newFakeSink(kind vinput.Kind, keys []uint16) *fakeSink {
	m := map[uint16]bool{}
	for _, k := range keys {
		m[k] = true
	}
	return &fakeSink{kind: kind, keys: m, axes: map[uint16]bool{}}
}

func (f *fakeSink) KeyEvent(uint16, int)        {}
func (f *fakeSink) AxisEvent(uint16, int32)     {}
func (f *fakeSink) RelEvent(uint16, int32)      {}
func (f *fakeSink) Syn() error                  { return nil }
func (f *fakeSink) ManagesKey(c uint16) bool    { return f.keys[c] }
func (f *fakeSink) ManagesAxis(a uint16) bool   { return f.axes[a] }
func (f *fakeSink) Kind() vinput.Kind           { return f.kind }
func (f *fakeSink) Close() error                { return nil }

func testSinks() *vinput.Set {
	gp := newFakeSink(vinput.Gamepad, []uint16{vinput.BtnA, vinput.BtnB})
	kb := newFakeSink(vinput.Keyboard, []uint16{vinput.KeyA + vinput.KeyOffset, vinput.KeyUp + vinput.KeyOffset})
	ms := newFakeSink(vinput.Mouse, []uint16{vinput.BtnLeft})
	return &vinput.Set{Sinks: [3]vinput.Sink{gp, kb, ms}}
}

func docWithButtonDiamond(binding0 string) *profile.Document {
	return &profile.Document{
		Groups: map[string]profile.Group{
			"2": {
				ID:   "2",
				Mode: "four_buttons",
				Inputs: map[string]profile.Input{
					"button_a": {Activators: map[string]profile.Activator{
						"Full_Press": {Bindings: []string{binding0}},
					}},
				},
			},
		},
		Preset: profile.Preset{GroupSourceBindings: map[string]string{"2": "button_diamond active"}},
	}
}

func TestCompileKeyPressBinding(t *testing.T) {
	doc := docWithButtonDiamond("key_press A")
	res, err := compiler.Compile(doc, testSinks())
	require.NoError(t, err)
	b := res.Tables.BtnMap[0x8000] // button_a bit
	assert.Equal(t, binding.KindKey, b.Kind)
	assert.Equal(t, vinput.KeyA+vinput.KeyOffset, b.Code)
	assert.True(t, res.NeedKeyboard)
}

func TestCompileUnboundCodeFails(t *testing.T) {
	doc := docWithButtonDiamond("key_press Z")
	_, err := compiler.Compile(doc, testSinks())
	require.Error(t, err)
	var unb *vinput.UnboundCodeError
	require.ErrorAs(t, err, &unb)
}

func TestCompileUnknownTokenIsNonFatal(t *testing.T) {
	doc := docWithButtonDiamond("frobnicate X")
	res, err := compiler.Compile(doc, testSinks())
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	var tokErr *compiler.TokenError
	require.ErrorAs(t, res.Warnings[0], &tokErr)
	assert.Equal(t, binding.KindNone, res.Tables.BtnMap[0x8000].Kind)
}

func TestCompileModeShiftGathersSections(t *testing.T) {
	doc := &profile.Document{
		Groups: map[string]profile.Group{
			"3": {
				ID:   "3",
				Mode: "four_buttons",
				Inputs: map[string]profile.Input{
					"button_a": {Activators: map[string]profile.Activator{
						"Full_Press": {Bindings: []string{"mode_shift button_diamond"}},
					}},
				},
			},
		},
		Preset: profile.Preset{GroupSourceBindings: map[string]string{"3": "switch active"}},
	}
	res, err := compiler.Compile(doc, testSinks())
	require.NoError(t, err)
	b := res.Tables.BtnMap[0x8000]
	require.Equal(t, binding.KindModeShift, b.Kind)
	assert.True(t, b.ModeShiftSet[binding.ButtonDiamond])
}

func TestCompileKeyNameNormalization(t *testing.T) {
	doc := docWithButtonDiamond("key_press UP_ARROW")
	res, err := compiler.Compile(doc, testSinks())
	require.NoError(t, err)
	b := res.Tables.BtnMap[0x8000]
	assert.Equal(t, vinput.KeyUp+vinput.KeyOffset, b.Code)
}
