// Package scpacket decodes the fixed 64-byte HID interrupt reports emitted
// by a Steam Controller into a typed Report.
package scpacket

import (
	"encoding/binary"
	"fmt"
)

// Status is the report's first byte (or first two bytes on older firmware),
// classifying the payload.
type Status uint16

const (
	StatusInput   Status = 0x01
	StatusHotplug Status = 0x03
	StatusIdle    Status = 0x04
)

// Button is a named bit in Report.Buttons. All bits outside ButtonMask are
// reserved and must be masked off before comparisons.
type Button uint32

const (
	ButtonRPadTouch Button = 0x1000_0000
	ButtonLPadTouch Button = 0x0800_0000
	ButtonRPad      Button = 0x0400_0000
	ButtonLPad      Button = 0x0200_0000 // also the analog-stick click
	ButtonRGrip     Button = 0x0100_0000
	ButtonLGrip     Button = 0x0080_0000
	ButtonStart     Button = 0x0040_0000
	ButtonSteam     Button = 0x0020_0000
	ButtonBack      Button = 0x0010_0000
	ButtonA         Button = 0x8000
	ButtonX         Button = 0x4000
	ButtonB         Button = 0x2000
	ButtonY         Button = 0x1000
	ButtonLB        Button = 0x0800
	ButtonRB        Button = 0x0400
	ButtonLT        Button = 0x0200
	ButtonRT        Button = 0x0100

	// ButtonMask is the union of all named bits; everything else is reserved.
	ButtonMask = ButtonRPadTouch | ButtonLPadTouch | ButtonRPad | ButtonLPad |
		ButtonRGrip | ButtonLGrip | ButtonStart | ButtonSteam | ButtonBack |
		ButtonA | ButtonX | ButtonB | ButtonY | ButtonLB | ButtonRB | ButtonLT | ButtonRT
)

// ReportSize is the fixed HID interrupt report length in bytes.
const ReportSize = 64

// Report is a decoded controller input/idle/hotplug packet (§3.1).
//
// When ButtonLPadTouch is clear, LPadX/LPadY carry the analog stick
// position rather than a pad touch coordinate; consumers must disambiguate
// by that bit before treating the left pad's fields as stick or pad data.
type Report struct {
	Status Status
	Seq    uint16
	// Buttons is pre-masked to ButtonMask by Decode.
	Buttons Button

	LTrig, RTrig uint8

	LPadX, LPadY int16
	RPadX, RPadY int16

	GPitch, GRoll, GYaw int16
	Q1, Q2, Q3, Q4      int16
}

// DecodeError wraps a failure to interpret a report buffer.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string { return "scpacket: decode: " + e.Reason }

// UnknownStatusError is returned when status does not match any of the
// known values; it is its own error type and does not wrap DecodeError. The
// session surfaces these to the mapper
// only for the known set (§4.3), but Decode still returns the parsed fields
// so callers that want to inspect raw unknown frames may do so.
type UnknownStatusError struct {
	Status uint16
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("scpacket: unknown status 0x%04x", e.Status)
}

// Decode parses a 64-byte little-endian HID report into a Report.
//
// If the status byte does not match a known Status, Decode still returns
// the parsed Report (with Status holding the raw value) alongside an
// *UnknownStatusError, so a caller may choose to drop or log it per §4.3
// without re-parsing.
func Decode(buf []byte) (Report, error) {
	var r Report
	if len(buf) != ReportSize {
		return r, &DecodeError{Reason: fmt.Sprintf("want %d bytes, got %d", ReportSize, len(buf))}
	}

	status := binary.LittleEndian.Uint16(buf[0:2])
	r.Status = Status(status)
	r.Seq = binary.LittleEndian.Uint16(buf[4:6])
	r.Buttons = Button(binary.LittleEndian.Uint32(buf[8:12])) & ButtonMask
	r.LTrig = buf[12]
	r.RTrig = buf[13]
	r.LPadX = int16(binary.LittleEndian.Uint16(buf[16:18]))
	r.LPadY = int16(binary.LittleEndian.Uint16(buf[18:20]))
	r.RPadX = int16(binary.LittleEndian.Uint16(buf[20:22]))
	r.RPadY = int16(binary.LittleEndian.Uint16(buf[22:24]))
	r.GPitch = int16(binary.LittleEndian.Uint16(buf[24:26]))
	r.GRoll = int16(binary.LittleEndian.Uint16(buf[26:28]))
	r.GYaw = int16(binary.LittleEndian.Uint16(buf[28:30]))
	r.Q1 = int16(binary.LittleEndian.Uint16(buf[30:32]))
	r.Q2 = int16(binary.LittleEndian.Uint16(buf[32:34]))
	r.Q3 = int16(binary.LittleEndian.Uint16(buf[34:36]))
	r.Q4 = int16(binary.LittleEndian.Uint16(buf[36:38]))

	switch r.Status {
	case StatusInput, StatusHotplug, StatusIdle:
		return r, nil
	default:
		return r, &UnknownStatusError{Status: status}
	}
}

// Encode is the inverse of Decode; reserved bytes are zeroed. It exists
// primarily to support the encode(decode(bytes)) == bytes round-trip
// property (§8.8) and for tests that build synthetic reports.
func Encode(r Report) []byte {
	buf := make([]byte, ReportSize)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(r.Status))
	binary.LittleEndian.PutUint16(buf[4:6], r.Seq)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(r.Buttons)&uint32(ButtonMask))
	buf[12] = r.LTrig
	buf[13] = r.RTrig
	binary.LittleEndian.PutUint16(buf[16:18], uint16(r.LPadX))
	binary.LittleEndian.PutUint16(buf[18:20], uint16(r.LPadY))
	binary.LittleEndian.PutUint16(buf[20:22], uint16(r.RPadX))
	binary.LittleEndian.PutUint16(buf[22:24], uint16(r.RPadY))
	binary.LittleEndian.PutUint16(buf[24:26], uint16(r.GPitch))
	binary.LittleEndian.PutUint16(buf[26:28], uint16(r.GRoll))
	binary.LittleEndian.PutUint16(buf[28:30], uint16(r.GYaw))
	binary.LittleEndian.PutUint16(buf[30:32], uint16(r.Q1))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(r.Q2))
	binary.LittleEndian.PutUint16(buf[34:36], uint16(r.Q3))
	binary.LittleEndian.PutUint16(buf[36:38], uint16(r.Q4))
	return buf
}

// Touched reports whether the given pad's touch bit is set in Buttons.
func (r Report) Touched(left bool) bool {
	if left {
		return r.Buttons&ButtonLPadTouch != 0
	}
	return r.Buttons&ButtonRPadTouch != 0
}
