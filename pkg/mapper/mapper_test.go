package mapper_test

import (
	"testing"
	"time"

	"github.com/sc-userland/steamctl/pkg/binding"
	"github.com/sc-userland/steamctl/pkg/mapper"
	"github.com/sc-userland/steamctl/pkg/scpacket"
	"github.com/sc-userland/steamctl/pkg/vinput"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink is a vinput.Sink + vinput.MouseSink test double that logs
// every call so tests can assert on press/release ordering and syn counts.
type recordingSink struct {
	kind     vinput.Kind
	keys     map[uint16]bool
	axes     map[uint16]bool
	keyLog   []keyEvt
	relLog   []relEvt
	axisLog  []axisEvt
	synCount int
}

type keyEvt struct {
	code  uint16
	value int
}
type relEvt struct {
	axis  uint16
	delta int32
}
type axisEvt struct {
	axis  uint16
	value int32
}

func newRecordingSink(kind vinput.Kind, keys, axes []uint16) *recordingSink {
	km := map[uint16]bool{}
	for _, k := range keys {
		km[k] = true
	}
	am := map[uint16]bool{}
	for _, a := range axes {
		am[a] = true
	}
	return &recordingSink{kind: kind, keys: km, axes: am}
}

func (s *recordingSink) KeyEvent(code uint16, value int) {
	s.keyLog = append(s.keyLog, keyEvt{code, value})
}
func (s *recordingSink) AxisEvent(axis uint16, value int32) {
	s.axisLog = append(s.axisLog, axisEvt{axis, value})
}
func (s *recordingSink) RelEvent(axis uint16, delta int32) {
	s.relLog = append(s.relLog, relEvt{axis, delta})
}
func (s *recordingSink) Syn() error               { s.synCount++; return nil }
func (s *recordingSink) ManagesKey(c uint16) bool  { return s.keys[c] }
func (s *recordingSink) ManagesAxis(a uint16) bool { return s.axes[a] }
func (s *recordingSink) Kind() vinput.Kind         { return s.kind }
func (s *recordingSink) Close() error              { return nil }

// mouseRecordingSink adds the MouseSink motion methods on top of
// recordingSink's plain Sink surface.
type mouseRecordingSink struct {
	*recordingSink
	moveCalls []float64
}

func (m *mouseRecordingSink) MoveEvent(dx, dy float64, free bool, now time.Time) float64 {
	m.moveCalls = append(m.moveCalls, dx)
	if !free {
		m.RelEvent(vinput.RelX, int32(dx))
		m.RelEvent(vinput.RelY, int32(dy))
	}
	return dx*dx + dy*dy
}

func (m *mouseRecordingSink) ScrollEvent(dx, dy float64, free bool, now time.Time) float64 {
	if !free {
		m.RelEvent(vinput.RelHWheel, int32(dx))
		m.RelEvent(vinput.RelWheel, int32(dy))
	}
	return 0
}

type fakeBackchannel struct {
	haptics []int
	exited  bool
}

func (f *fakeBackchannel) Haptic(position int, amplitude, period, count uint16) {
	f.haptics = append(f.haptics, position)
}
func (f *fakeBackchannel) Exit() { f.exited = true }

func testSinks() (*vinput.Set, *recordingSink, *recordingSink, *mouseRecordingSink) {
	gp := newRecordingSink(vinput.Gamepad, []uint16{vinput.BtnA, vinput.BtnB}, nil)
	kb := newRecordingSink(vinput.Keyboard, []uint16{vinput.KeyA + vinput.KeyOffset}, nil)
	ms := &mouseRecordingSink{recordingSink: newRecordingSink(vinput.Mouse, []uint16{vinput.BtnLeft}, nil)}
	return &vinput.Set{Sinks: [3]vinput.Sink{gp, kb, ms}}, gp, kb, ms
}

func baseReport() scpacket.Report {
	return scpacket.Report{Status: scpacket.StatusInput}
}

// S1: a plain button press/release round-trips to exactly one KeyEvent(1)
// and one KeyEvent(0), with a Syn in between (§8 invariant 3).
func TestButtonPressRelease(t *testing.T) {
	sinks, gp, _, _ := testSinks()
	tables := binding.Tables{
		BtnMap: map[uint32]binding.Binding{
			uint32(scpacket.ButtonA): binding.Key(vinput.BtnA),
		},
	}
	m := mapper.New(sinks, tables, &fakeBackchannel{})

	now := time.Unix(0, 0)
	m.Process(baseReport(), now)
	pressed := baseReport()
	pressed.Buttons = scpacket.ButtonA
	m.Process(pressed, now.Add(time.Millisecond))

	require.Len(t, gp.keyLog, 1)
	assert.Equal(t, keyEvt{vinput.BtnA, 1}, gp.keyLog[0])
	assert.Equal(t, 1, gp.synCount)

	m.Process(baseReport(), now.Add(2*time.Millisecond))
	require.Len(t, gp.keyLog, 2)
	assert.Equal(t, keyEvt{vinput.BtnA, 0}, gp.keyLog[1])
}

// Invariant: Process is a no-op for a non-Input status report.
func TestNonInputStatusIsNoOp(t *testing.T) {
	sinks, gp, _, _ := testSinks()
	tables := binding.Tables{
		BtnMap: map[uint32]binding.Binding{uint32(scpacket.ButtonA): binding.Key(vinput.BtnA)},
	}
	m := mapper.New(sinks, tables, &fakeBackchannel{})

	r := scpacket.Report{Status: scpacket.StatusIdle, Buttons: scpacket.ButtonA}
	m.Process(r, time.Unix(0, 0))
	assert.Empty(t, gp.keyLog)
	assert.Equal(t, 0, gp.synCount)
}

// Invariant: repeating the same button state emits no further events.
func TestUnchangedButtonsAreSilent(t *testing.T) {
	sinks, gp, _, _ := testSinks()
	tables := binding.Tables{
		BtnMap: map[uint32]binding.Binding{uint32(scpacket.ButtonA): binding.Key(vinput.BtnA)},
	}
	m := mapper.New(sinks, tables, &fakeBackchannel{})

	held := baseReport()
	held.Buttons = scpacket.ButtonA
	now := time.Unix(0, 0)
	m.Process(held, now)
	m.Process(held, now.Add(time.Millisecond))
	m.Process(held, now.Add(2*time.Millisecond))

	require.Len(t, gp.keyLog, 1)
	assert.Equal(t, 1, gp.synCount)
}

// S4: holding STEAM for longer than the long-press threshold tears the
// sinks down and signals Exit exactly once.
func TestSteamLongPressExits(t *testing.T) {
	sinks, _, _, _ := testSinks()
	back := &fakeBackchannel{}
	m := mapper.New(sinks, binding.Tables{}, back)

	now := time.Unix(0, 0)
	held := scpacket.Report{Status: scpacket.StatusInput, Buttons: scpacket.ButtonSteam}
	m.Process(held, now)
	assert.False(t, m.Exited())

	m.Process(held, now.Add(2100*time.Millisecond))
	assert.True(t, m.Exited())
	assert.True(t, back.exited)

	// Further Process calls after exit must be no-ops, not re-fire Exit.
	back.exited = false
	m.Process(held, now.Add(3*time.Second))
	assert.False(t, back.exited)
}

// S5: mode-shift held via LGRIP swaps the button_diamond map to its
// modeshift alternate, and reverts on release.
func TestModeShiftSwapsButtonDiamond(t *testing.T) {
	sinks, gp, _, _ := testSinks()
	tables := binding.Tables{
		BtnMap: map[uint32]binding.Binding{
			uint32(scpacket.ButtonLGrip): binding.ModeShift(binding.ButtonDiamond),
			uint32(scpacket.ButtonA):     binding.Key(vinput.BtnA),
		},
		ModeShiftBtnMap: map[uint32]binding.Binding{
			uint32(scpacket.ButtonA): binding.Key(vinput.BtnB),
		},
	}
	m := mapper.New(sinks, tables, &fakeBackchannel{})
	now := time.Unix(0, 0)

	m.Process(baseReport(), now)

	shifted := scpacket.Report{Status: scpacket.StatusInput, Buttons: scpacket.ButtonLGrip}
	m.Process(shifted, now.Add(time.Millisecond))
	assert.Empty(t, gp.keyLog, "mode-shift activator itself binds nothing directly")

	shiftedA := shifted
	shiftedA.Buttons |= scpacket.ButtonA
	m.Process(shiftedA, now.Add(2*time.Millisecond))
	require.Len(t, gp.keyLog, 1)
	assert.Equal(t, vinput.BtnB, gp.keyLog[0].code, "button_a should resolve via the modeshift table while LGRIP is held")

	m.Process(shifted, now.Add(3*time.Millisecond))
	require.Len(t, gp.keyLog, 2)
	assert.Equal(t, keyEvt{vinput.BtnB, 0}, gp.keyLog[1])

	// Release LGRIP: the activator's own binding lives in BtnMap, not
	// ModeShiftBtnMap, so it must still be resolved and released even
	// while button_diamond is shifted, clearing modeShiftHeld.
	m.Process(baseReport(), now.Add(4*time.Millisecond))

	pressA := baseReport()
	pressA.Buttons |= scpacket.ButtonA
	m.Process(pressA, now.Add(5*time.Millisecond))
	require.Len(t, gp.keyLog, 3, "button_a should resolve via the active table again after LGRIP release")
	assert.Equal(t, keyEvt{vinput.BtnA, 1}, gp.keyLog[2])
}

// S3: trigger hysteresis presses once past the rising threshold and
// releases once back under the lowered release threshold, never chattering
// in between.
func TestTriggerHysteresis(t *testing.T) {
	sinks, gp, _, _ := testSinks()
	tables := binding.Tables{
		Trig: [2]binding.TrigConfig{
			{Mode: binding.TrigButton, Button: binding.Key(vinput.BtnA)},
		},
	}
	m := mapper.New(sinks, tables, &fakeBackchannel{})
	now := time.Unix(0, 0)

	r := baseReport()
	r.LTrig = 0
	m.Process(r, now)

	r.LTrig = 5
	m.Process(r, now.Add(time.Millisecond))
	require.Empty(t, gp.keyLog, "below the rising threshold should not press")

	r.LTrig = 200
	m.Process(r, now.Add(2*time.Millisecond))
	require.Len(t, gp.keyLog, 1)
	assert.Equal(t, keyEvt{vinput.BtnA, 1}, gp.keyLog[0])

	r.LTrig = 190
	m.Process(r, now.Add(3*time.Millisecond))
	require.Len(t, gp.keyLog, 1, "small wobble under hysteresis band should not release")

	r.LTrig = 100
	m.Process(r, now.Add(4*time.Millisecond))
	require.Len(t, gp.keyLog, 2)
	assert.Equal(t, keyEvt{vinput.BtnA, 0}, gp.keyLog[1])
}

// S6: pad-drag in Mouse mode produces relative motion through the mouse
// sink's trackball integrator.
func TestPadMouseDrag(t *testing.T) {
	sinks, _, _, ms := testSinks()
	tables := binding.Tables{
		Pad: [2]binding.PadConfig{
			{Mode: binding.PadMouse},
		},
	}
	m := mapper.New(sinks, tables, &fakeBackchannel{})
	now := time.Unix(0, 0)

	touch := baseReport()
	touch.Buttons = scpacket.ButtonLPadTouch
	touch.LPadX, touch.LPadY = 100, 0
	m.Process(touch, now)

	touch.LPadX = 500
	m.Process(touch, now.Add(10*time.Millisecond))

	require.NotEmpty(t, ms.relLog, "dragging a Mouse-mode pad should emit relative motion")
}

// Invariant: a ButtonClick pad releases all four cardinal directions
// together when the enabling condition clears, never leaving one stuck.
func TestPadButtonClickReleasesAllFour(t *testing.T) {
	sinks, gp, _, _ := testSinks()
	events := []binding.Binding{
		binding.Key(vinput.BtnA), binding.Key(vinput.BtnA),
		binding.Key(vinput.BtnA), binding.Key(vinput.BtnA),
	}
	tables := binding.Tables{
		Pad: [2]binding.PadConfig{
			{Mode: binding.PadButtonClick, Deadzone: 0.3, Events: events},
		},
	}
	m := mapper.New(sinks, tables, &fakeBackchannel{})
	now := time.Unix(0, 0)

	m.Process(baseReport(), now)

	clicked := baseReport()
	clicked.Buttons = scpacket.ButtonLPadTouch | scpacket.ButtonLPad
	clicked.LPadX, clicked.LPadY = 0, 20000
	m.Process(clicked, now.Add(time.Millisecond))
	require.NotEmpty(t, gp.keyLog)

	m.Process(baseReport(), now.Add(2*time.Millisecond))

	// every press logged must have a matching release by the end
	pressed := map[uint16]int{}
	for _, e := range gp.keyLog {
		if e.value == 1 {
			pressed[e.code]++
		} else {
			pressed[e.code]--
		}
	}
	for code, n := range pressed {
		assert.Zero(t, n, "code %d left unbalanced", code)
	}
}

// §4.6.3: Axis-mode pads accumulate Euclidean travel and pulse haptics
// every 4000 units, the same as Mouse-mode pads.
func TestPadAxisAccumulatesHaptic(t *testing.T) {
	sinks, _, _, _ := testSinks()
	tables := binding.Tables{
		Pad: [2]binding.PadConfig{
			{Mode: binding.PadAxis, Axes: []binding.AxisTarget{
				{Sink: vinput.Gamepad, Code: vinput.AbsX},
				{Sink: vinput.Gamepad, Code: vinput.AbsY},
			}},
		},
	}
	back := &fakeBackchannel{}
	m := mapper.New(sinks, tables, back)
	now := time.Unix(0, 0)

	m.Process(baseReport(), now)

	moved := baseReport()
	moved.LPadX = 32000
	m.Process(moved, now.Add(time.Millisecond))

	require.NotEmpty(t, back.haptics, "large pad travel in Axis mode should pulse haptics")
}

// §4.6.3: the ButtonTouch/ButtonClick haptic pulse fires only on an actual
// press/release transition this tick, not on every tick the pad stays
// enabled.
func TestPadButtonHapticOnlyOnTransition(t *testing.T) {
	gp := newRecordingSink(vinput.Gamepad, []uint16{vinput.BtnA, vinput.BtnB, vinput.BtnX, vinput.BtnY}, nil)
	kb := newRecordingSink(vinput.Keyboard, nil, nil)
	ms := &mouseRecordingSink{recordingSink: newRecordingSink(vinput.Mouse, nil, nil)}
	sinks := &vinput.Set{Sinks: [3]vinput.Sink{gp, kb, ms}}
	events := []binding.Binding{
		binding.Key(vinput.BtnA), binding.Key(vinput.BtnB),
		binding.Key(vinput.BtnX), binding.Key(vinput.BtnY),
	}
	tables := binding.Tables{
		Pad: [2]binding.PadConfig{
			{Mode: binding.PadButtonClick, Deadzone: 0.3, Events: events},
		},
	}
	back := &fakeBackchannel{}
	m := mapper.New(sinks, tables, back)
	now := time.Unix(0, 0)

	m.Process(baseReport(), now)

	clicked := baseReport()
	clicked.Buttons = scpacket.ButtonLPadTouch | scpacket.ButtonLPad
	clicked.LPadX, clicked.LPadY = 0, 20000
	m.Process(clicked, now.Add(time.Millisecond))
	require.Len(t, back.haptics, 1, "the initial press should pulse once")

	// Same direction held steady across ticks: no new transition, no pulse.
	m.Process(clicked, now.Add(2*time.Millisecond))
	m.Process(clicked, now.Add(3*time.Millisecond))
	assert.Len(t, back.haptics, 1, "holding the same direction should not re-pulse every tick")

	m.Process(baseReport(), now.Add(4*time.Millisecond))
	assert.Len(t, back.haptics, 2, "releasing should pulse once more")
}
