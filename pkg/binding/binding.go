// Package binding defines the compiled binding tables the event mapper
// consumes: the tagged Binding variant, the per-section mode enums, and the
// mode-keyed configuration structs the compiler produces (§3.3-3.6).
package binding

import "github.com/sc-userland/steamctl/pkg/vinput"

// Section identifies one of the profile's recognized binding groups.
type Section int

const (
	LeftTrackpad Section = iota
	RightTrackpad
	Joystick
	ButtonDiamond
	Switch
	LeftTrigger
	RightTrigger
)

func (s Section) String() string {
	switch s {
	case LeftTrackpad:
		return "left_trackpad"
	case RightTrackpad:
		return "right_trackpad"
	case Joystick:
		return "joystick"
	case ButtonDiamond:
		return "button_diamond"
	case Switch:
		return "switch"
	case LeftTrigger:
		return "left_trigger"
	case RightTrigger:
		return "right_trigger"
	default:
		return "unknown"
	}
}

// ParseSection maps a profile source-tag section name to a Section.
func ParseSection(name string) (Section, bool) {
	switch name {
	case "left_trackpad":
		return LeftTrackpad, true
	case "right_trackpad":
		return RightTrackpad, true
	case "joystick":
		return Joystick, true
	case "button_diamond":
		return ButtonDiamond, true
	case "switch":
		return Switch, true
	case "left_trigger":
		return LeftTrigger, true
	case "right_trigger":
		return RightTrigger, true
	default:
		return 0, false
	}
}

// Kind tags what a Binding carries.
type Kind int

const (
	KindNone Kind = iota
	KindKey
	KindMouseButton
	KindModeShift
)

// Binding is the tagged variant produced for every activator (§3.3).
type Binding struct {
	Kind         Kind
	Code         uint16            // valid for KindKey / KindMouseButton
	ModeShiftSet map[Section]bool  // valid for KindModeShift
}

// None is the zero-value unbound binding.
var None = Binding{Kind: KindNone}

// Key builds a key-press binding for the given (already +0x100-shifted, if
// applicable) code.
func Key(code uint16) Binding { return Binding{Kind: KindKey, Code: code} }

// MouseButton builds a mouse-button-press binding.
func MouseButton(code uint16) Binding { return Binding{Kind: KindMouseButton, Code: code} }

// ModeShift builds a binding that overlays the given sections' modeshift
// tables while held.
func ModeShift(sections ...Section) Binding {
	set := make(map[Section]bool, len(sections))
	for _, s := range sections {
		set[s] = true
	}
	return Binding{Kind: KindModeShift, ModeShiftSet: set}
}

// Resolve routes a Key/MouseButton binding to its owning sink via the
// sink set's capability query, mirroring events.py's "for mode in Modes: if
// keyManaged" scan.
func (b Binding) Resolve(sinks *vinput.Set) (vinput.Kind, vinput.Sink, bool) {
	if b.Kind != KindKey && b.Kind != KindMouseButton {
		return 0, nil, false
	}
	return sinks.ResolveKey(b.Code)
}

// PadMode is the per-trackpad dispatch mode (§3.4).
type PadMode int

const (
	PadNoAction PadMode = iota
	PadAxis
	PadMouse
	PadMouseScroll
	PadButtonTouch
	PadButtonClick
)

// StickMode is the analog-stick dispatch mode.
type StickMode int

const (
	StickNoAction StickMode = iota
	StickAxis
	StickButton
)

// TrigMode is the analog-trigger dispatch mode.
type TrigMode int

const (
	TrigNoAction TrigMode = iota
	TrigAxis
	TrigButton
)

// AxisTarget is a single sink-routed axis or relative code a pad/trigger
// mode writes to.
type AxisTarget struct {
	Sink vinput.Kind
	Code uint16
	IsRel bool
}

// PadConfig is one compiled trackpad's behavior (§3.6).
type PadConfig struct {
	Mode     PadMode
	Deadzone float64 // fraction of 32768, default 0.6
	// Events holds the four cardinal bindings (Top, Left, Bottom, Right)
	// for ButtonTouch/ButtonClick and is empty for the other modes; Axis
	// mode writes through Axes instead, and Mouse/MouseScroll use neither.
	Events []Binding
	Axes   []AxisTarget
	Revert bool
}

// TrigConfig is one compiled trigger's behavior.
type TrigConfig struct {
	Mode   TrigMode
	Button Binding
	Axis   AxisTarget
}

// StickConfig is the analog-stick behavior.
type StickConfig struct {
	Mode   StickMode
	Events []Binding // length 4, cardinal order Top,Left,Bottom,Right
	Axes   []AxisTarget
	Revert bool
}

// Tables is the full compiled binding document the mapper reads (§3.6).
// Pos 0 = left, 1 = right throughout the per-pad/per-trigger slices.
//
// Each section that has a compiled "modeshift" group (§4.5 step 2) carries
// an alternate config alongside its active one; §4.6.7 swaps to the
// alternate while the owning grip's ModeShift binding is held and reverts
// to active on release. A nil pointer means no modeshift group exists for
// that section.
type Tables struct {
	BtnMap         map[uint32]Binding // button bit -> binding, active (button_diamond)
	ModeShiftBtnMap map[uint32]Binding // button_diamond's alternate, if any

	Pad           [2]PadConfig
	ModeShiftPad  [2]*PadConfig

	Trig          [2]TrigConfig
	ModeShiftTrig [2]*TrigConfig

	Stick          StickConfig
	ModeShiftStick *StickConfig
}
