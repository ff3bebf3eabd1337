// Package compiler turns a parsed profile document (pkg/profile) into the
// compiled binding tables (pkg/binding) the event mapper runs against
// (§4.5).
package compiler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sc-userland/steamctl/pkg/binding"
	"github.com/sc-userland/steamctl/pkg/profile"
	"github.com/sc-userland/steamctl/pkg/vinput"
)

// TokenError reports a binding token whose form compiler doesn't
// recognize (§7 UnknownToken). It is non-fatal: the caller logs it at info
// level and treats the binding as unbound.
type TokenError struct {
	Token string
}

func (e *TokenError) Error() string { return "compiler: unrecognized token: " + e.Token }

// Result is the compiler's full output: the active tables plus the set of
// sinks that must be constructed before Compile is trusted to resolve
// every code (§4.5 step 5).
type Result struct {
	Tables       binding.Tables
	NeedGamepad  bool
	NeedKeyboard bool
	NeedMouse    bool

	// Warnings collects non-fatal *TokenError values encountered along the
	// way (§7 UnknownToken: logged at info level, resolves to unbound).
	Warnings []error
}

// button name -> bit, per §3.2.
var buttonBits = map[string]uint32{
	"right_trackpad": 0x1000_0000,
	"left_trackpad":  0x0800_0000,
	"joystick":       0x0200_0000, // LPAD/STICK click
	"rtrackpad_click": 0x0400_0000,
	"rgrip":          0x0100_0000,
	"lgrip":          0x0080_0000,
	"start":          0x0040_0000,
	"steam":          0x0020_0000,
	"back":           0x0010_0000,
	"button_a":       0x8000,
	"button_x":       0x4000,
	"button_b":       0x2000,
	"button_y":       0x1000,
	"left_bumper":    0x0800,
	"right_bumper":   0x0400,
	"left_trigger":   0x0200,
	"right_trigger":  0x0100,
}

// Compile walks the parsed profile document and produces the active
// binding tables plus the matching modeshift alternates, resolving every
// key/mouse-button code against sinks.
func Compile(doc *profile.Document, sinks *vinput.Set) (*Result, error) {
	// The gamepad sink is always marked as needed (§4.5 step 5). Button bits
	// the profile leaves unmapped get no BtnMap entry and are not routed to
	// it or to any other sink.
	res := &Result{Tables: binding.Tables{BtnMap: make(map[uint32]binding.Binding)}, NeedGamepad: true}

	active, modeshift, err := invertSources(doc.Preset.GroupSourceBindings)
	if err != nil {
		return nil, err
	}

	for section, groupID := range active {
		group, ok := doc.Groups[groupID]
		if !ok {
			continue
		}
		var msGroup *profile.Group
		if msID, ok := modeshift[section]; ok {
			if g, ok := doc.Groups[msID]; ok {
				msGroup = &g
			}
		}
		if err := compileSection(section, group, msGroup, &res.Tables, sinks, res); err != nil {
			return nil, err
		}
	}

	return res, nil
}

// invertSources inverts group_source_bindings from id->source to
// section->id, split into the active and modeshift maps (§4.5 step 1).
func invertSources(gsb map[string]string) (active, modeshift map[binding.Section]string, err error) {
	active = make(map[binding.Section]string)
	modeshift = make(map[binding.Section]string)
	for id, source := range gsb {
		parts := strings.Fields(source)
		if len(parts) < 2 {
			return nil, nil, fmt.Errorf("compiler: malformed source tag %q", source)
		}
		sec, ok := binding.ParseSection(parts[0])
		if !ok {
			continue // unrecognized section, not fatal per §4.5 step 2
		}
		switch {
		case len(parts) >= 3 && parts[2] == "modeshift":
			modeshift[sec] = id
		case parts[1] == "active":
			active[sec] = id
		}
	}
	return active, modeshift, nil
}

func compileSection(section binding.Section, group profile.Group, msGroup *profile.Group, t *binding.Tables, sinks *vinput.Set, res *Result) error {
	switch section {
	case binding.LeftTrackpad:
		cfg, err := compilePad(group, sinks, res)
		if err != nil {
			return err
		}
		t.Pad[0] = cfg
		if msGroup != nil {
			ms, err := compilePad(*msGroup, sinks, res)
			if err != nil {
				return err
			}
			t.ModeShiftPad[0] = &ms
		}
	case binding.RightTrackpad:
		cfg, err := compilePad(group, sinks, res)
		if err != nil {
			return err
		}
		t.Pad[1] = cfg
		if msGroup != nil {
			ms, err := compilePad(*msGroup, sinks, res)
			if err != nil {
				return err
			}
			t.ModeShiftPad[1] = &ms
		}
	case binding.Joystick:
		cfg, err := compileStick(group, sinks, res)
		if err != nil {
			return err
		}
		t.Stick = cfg
		if msGroup != nil {
			ms, err := compileStick(*msGroup, sinks, res)
			if err != nil {
				return err
			}
			t.ModeShiftStick = &ms
		}
	case binding.ButtonDiamond, binding.Switch:
		bm, err := compileButtons(group, sinks, res)
		if err != nil {
			return err
		}
		for bit, b := range bm {
			t.BtnMap[bit] = b
		}
		if msGroup != nil {
			msbm, err := compileButtons(*msGroup, sinks, res)
			if err != nil {
				return err
			}
			if t.ModeShiftBtnMap == nil {
				t.ModeShiftBtnMap = make(map[uint32]binding.Binding)
			}
			for bit, b := range msbm {
				t.ModeShiftBtnMap[bit] = b
			}
		}
	case binding.LeftTrigger:
		cfg, err := compileTrigger(group, sinks, res)
		if err != nil {
			return err
		}
		t.Trig[0] = cfg
		if msGroup != nil {
			ms, err := compileTrigger(*msGroup, sinks, res)
			if err != nil {
				return err
			}
			t.ModeShiftTrig[0] = &ms
		}
	case binding.RightTrigger:
		cfg, err := compileTrigger(group, sinks, res)
		if err != nil {
			return err
		}
		t.Trig[1] = cfg
		if msGroup != nil {
			ms, err := compileTrigger(*msGroup, sinks, res)
			if err != nil {
				return err
			}
			t.ModeShiftTrig[1] = &ms
		}
	}
	return nil
}

// compileButtons resolves every input slot in a button_diamond/switch group
// to a bit via the slot name and a Binding via its Full_Press activator.
func compileButtons(group profile.Group, sinks *vinput.Set, res *Result) (map[uint32]binding.Binding, error) {
	out := make(map[uint32]binding.Binding)
	for name, input := range group.Inputs {
		bit, ok := buttonBits[name]
		if !ok {
			continue
		}
		b, err := resolveActivator(input, sinks, res)
		if err != nil {
			return nil, err
		}
		out[bit] = b
	}
	return out, nil
}

func resolveActivator(input profile.Input, sinks *vinput.Set, res *Result) (binding.Binding, error) {
	act, ok := input.Activators["Full_Press"]
	if !ok || len(act.Bindings) == 0 {
		return binding.None, nil
	}
	b, err := compileBindingTokens(act.Bindings, sinks, res)
	if err != nil {
		var tok *TokenError
		if errors.As(err, &tok) {
			// §7 UnknownToken: non-fatal, resolves to unbound.
			res.Warnings = append(res.Warnings, err)
			return binding.None, nil
		}
		return binding.None, err // SinkBindingFailed and friends stay fatal
	}
	return b, nil
}

// compileBindingTokens implements §4.5 step 4: tokenize "kind arg…",
// normalize and route. mode_shift activators may carry multiple arguments;
// every other kind uses element 0.
func compileBindingTokens(tokens []string, sinks *vinput.Set, res *Result) (binding.Binding, error) {
	first := strings.Fields(tokens[0])
	if len(first) == 0 {
		return binding.None, nil
	}
	kind := first[0]

	switch kind {
	case "key_press":
		if len(first) < 2 {
			return binding.None, nil
		}
		name := normalizeKeyName(first[1])
		base, ok := vinput.KeyByName(name)
		if !ok {
			return binding.None, &TokenError{Token: tokens[0]}
		}
		code := base + vinput.KeyOffset
		if _, _, ok := sinks.ResolveKey(code); !ok {
			return binding.None, &vinput.UnboundCodeError{Code: code}
		}
		res.NeedKeyboard = true
		return binding.Key(code), nil
	case "mouse_button":
		if len(first) < 2 {
			return binding.None, nil
		}
		code, ok := vinput.MouseButtonByName(strings.ToUpper(first[1]))
		if !ok {
			return binding.None, &TokenError{Token: tokens[0]}
		}
		if _, _, ok := sinks.ResolveKey(code); !ok {
			return binding.None, &vinput.UnboundCodeError{Code: code}
		}
		res.NeedMouse = true
		return binding.MouseButton(code), nil
	case "mouse_wheel":
		return binding.None, nil // reserved, §4.5 step 4
	case "mode_shift":
		var secs []binding.Section
		for _, tok := range tokens {
			fields := strings.Fields(tok)
			for _, arg := range fields[1:] {
				if sec, ok := binding.ParseSection(arg); ok {
					secs = append(secs, sec)
				}
			}
		}
		return binding.ModeShift(secs...), nil
	default:
		return binding.None, &TokenError{Token: tokens[0]}
	}
}

// normalizeKeyName applies §6's key-name normalization table.
func normalizeKeyName(raw string) string {
	name := strings.ToUpper(raw)
	if idx := strings.Index(name, ","); idx >= 0 {
		name = name[:idx] // drop trailing ",X"
	}
	if strings.HasSuffix(name, "_ARROW") {
		name = strings.TrimSuffix(name, "_ARROW")
	}
	name = strings.ReplaceAll(name, "_", "")
	switch name {
	case "PERIOD":
		name = "DOT"
	case "ESCAPE":
		name = "ESC"
	case "DASH":
		name = "MINUS"
	case "EQUALS":
		name = "EQUAL"
	}
	return name
}

func compilePad(group profile.Group, sinks *vinput.Set, res *Result) (binding.PadConfig, error) {
	deadzone := 0.6
	switch group.Mode {
	case "absolute_mouse":
		res.NeedMouse = true
		return binding.PadConfig{Mode: binding.PadMouse, Deadzone: deadzone}, nil
	case "mouse_region":
		return binding.PadConfig{Mode: binding.PadNoAction}, nil
	case "scrollwheel":
		res.NeedMouse = true
		return binding.PadConfig{Mode: binding.PadMouseScroll, Deadzone: deadzone}, nil
	case "mouse_joystick":
		axes, err := resolveAxisPair(group, sinks)
		if err != nil {
			return binding.PadConfig{}, err
		}
		return binding.PadConfig{Mode: binding.PadAxis, Axes: axes}, nil
	case "dpad":
		events, err := resolveCardinalBindings(group, sinks, res)
		if err != nil {
			return binding.PadConfig{}, err
		}
		return binding.PadConfig{Mode: binding.PadButtonClick, Deadzone: deadzone, Events: events}, nil
	case "four_buttons":
		events, err := resolveCardinalBindings(group, sinks, res)
		if err != nil {
			return binding.PadConfig{}, err
		}
		return binding.PadConfig{Mode: binding.PadButtonClick, Deadzone: deadzone, Events: events}, nil
	default:
		return binding.PadConfig{Mode: binding.PadNoAction}, nil
	}
}

func compileStick(group profile.Group, sinks *vinput.Set, res *Result) (binding.StickConfig, error) {
	switch group.Mode {
	case "joystick_mouse":
		axes, err := resolveAxisPair(group, sinks)
		if err != nil {
			return binding.StickConfig{}, err
		}
		return binding.StickConfig{Mode: binding.StickAxis, Axes: axes}, nil
	case "scrollwheel":
		return binding.StickConfig{Mode: binding.StickNoAction}, nil
	case "dpad", "buttons":
		events, err := resolveCardinalBindings(group, sinks, res)
		if err != nil {
			return binding.StickConfig{}, err
		}
		return binding.StickConfig{Mode: binding.StickButton, Events: events}, nil
	default:
		return binding.StickConfig{Mode: binding.StickNoAction}, nil
	}
}

func compileTrigger(group profile.Group, sinks *vinput.Set, res *Result) (binding.TrigConfig, error) {
	switch group.Mode {
	case "trigger":
		// A trigger group's click input carries the Button binding; lacking
		// one, or with one that resolves to unbound, the trigger is left
		// unbound (NoAction).
		input, ok := group.Inputs["click"]
		if !ok {
			return binding.TrigConfig{Mode: binding.TrigNoAction}, nil
		}
		b, err := resolveActivator(input, sinks, res)
		if err != nil {
			return binding.TrigConfig{}, err
		}
		if b.Kind == binding.KindNone {
			return binding.TrigConfig{Mode: binding.TrigNoAction}, nil
		}
		return binding.TrigConfig{Mode: binding.TrigButton, Button: b}, nil
	default:
		return binding.TrigConfig{Mode: binding.TrigNoAction}, nil
	}
}

// resolveCardinalBindings reads the four directional input slots
// of a dpad/four_buttons/buttons group in Top,Left,Bottom,Right order.
func resolveCardinalBindings(group profile.Group, sinks *vinput.Set, res *Result) ([]binding.Binding, error) {
	order := []string{"dpad_north", "dpad_west", "dpad_south", "dpad_east"}
	out := make([]binding.Binding, len(order))
	for i, name := range order {
		input, ok := group.Inputs[name]
		if !ok {
			out[i] = binding.None
			continue
		}
		b, err := resolveActivator(input, sinks, res)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

// resolveAxisPair resolves a joystick_mouse/mouse_joystick group's x/y
// virtual-axis bindings, parsed from key_press tokens that name an ABS_*
// code directly (e.g. "key_press ABS_X 0") rather than a keyboard key.
func resolveAxisPair(group profile.Group, sinks *vinput.Set) ([]binding.AxisTarget, error) {
	var out []binding.AxisTarget
	for _, name := range []string{"analog_x", "analog_y"} {
		input, ok := group.Inputs[name]
		if !ok {
			continue
		}
		act, ok := input.Activators["Full_Press"]
		if !ok || len(act.Bindings) == 0 {
			continue
		}
		fields := strings.Fields(act.Bindings[0])
		if len(fields) < 2 {
			continue
		}
		code, err := parseAxisCode(fields[1])
		if err != nil {
			continue
		}
		kind, sink, ok := sinks.ResolveAxis(code)
		if !ok || sink == nil {
			return nil, &vinput.UnboundCodeError{Code: code, IsAxis: true}
		}
		out = append(out, binding.AxisTarget{Sink: kind, Code: code})
	}
	return out, nil
}

func parseAxisCode(s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, err
	}
	return uint16(n), nil
}
