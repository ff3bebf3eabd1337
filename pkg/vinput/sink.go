// Package vinput implements the virtual-input sinks: three independent
// write-only uinput devices (gamepad, keyboard, mouse) that the event
// mapper drives (§4.1).
package vinput

import "fmt"

// Kind identifies which of the three sinks a binding targets.
type Kind int

const (
	Gamepad Kind = iota
	Keyboard
	Mouse
)

func (k Kind) String() string {
	switch k {
	case Gamepad:
		return "gamepad"
	case Keyboard:
		return "keyboard"
	case Mouse:
		return "mouse"
	default:
		return "unknown"
	}
}

// Sink is a virtual input device that accepts key/axis/relative-motion
// events and flushes them atomically on Syn.
type Sink interface {
	// KeyEvent queues a key/button state change (value 0 or 1).
	KeyEvent(code uint16, value int)
	// AxisEvent queues an absolute axis value.
	AxisEvent(axis uint16, value int32)
	// RelEvent queues a relative motion delta.
	RelEvent(axis uint16, delta int32)
	// Syn flushes all queued events since the last Syn, making them
	// atomically visible to the host.
	Syn() error

	// ManagesKey reports whether this sink was constructed with the given
	// key/button code in its advertised set.
	ManagesKey(code uint16) bool
	// ManagesAxis reports whether this sink was constructed with the given
	// absolute axis code in its advertised set.
	ManagesAxis(axis uint16) bool

	Kind() Kind
	Close() error
}

// UnboundCodeError is returned at sink-construction/binding time when a
// binding references a code that no advertised sink claims (§4.1, §7).
type UnboundCodeError struct {
	Code   uint16
	IsAxis bool
}

func (e *UnboundCodeError) Error() string {
	kind := "key"
	if e.IsAxis {
		kind = "axis"
	}
	return fmt.Sprintf("vinput: no sink claims %s code 0x%x", kind, e.Code)
}

// Set bundles the three constructed sinks in mode order, matching the
// teacher's per-package-per-device-kind layout (device/xbox360,
// device/keyboard, device/mouse) but reused here as write-only local uinput
// devices instead of USBIP-emulated peripherals.
type Set struct {
	Sinks [3]Sink // indexed by Kind
}

// ResolveKey returns the first sink (in Gamepad, Keyboard, Mouse order) that
// claims the given key code, mirroring setButtonAction's "for mode in
// Modes: if keyManaged" scan from the original source.
func (s *Set) ResolveKey(code uint16) (Kind, Sink, bool) {
	for _, k := range []Kind{Gamepad, Keyboard, Mouse} {
		if sink := s.Sinks[k]; sink != nil && sink.ManagesKey(code) {
			return k, sink, true
		}
	}
	return 0, nil, false
}

// ResolveAxis is ResolveKey's counterpart for absolute axes.
func (s *Set) ResolveAxis(axis uint16) (Kind, Sink, bool) {
	for _, k := range []Kind{Gamepad, Keyboard, Mouse} {
		if sink := s.Sinks[k]; sink != nil && sink.ManagesAxis(axis) {
			return k, sink, true
		}
	}
	return 0, nil, false
}

func (s *Set) Close() error {
	var firstErr error
	for _, sink := range s.Sinks {
		if sink == nil {
			continue
		}
		if err := sink.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
