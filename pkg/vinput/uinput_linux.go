//go:build linux

package vinput

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// uinput ioctl numbers and event-type bits. These mirror linux/uinput.h /
// linux/input-event-codes.h; Go has no generated binding for them in the
// retrieved corpus, so they're declared the way the procon2-driver
// reference file declares them (a flat const block of raw ioctl numbers).
const (
	uiSetEvBit  = 0x40045564
	uiSetKeyBit = 0x40045565
	uiSetRelBit = 0x40045566
	uiSetAbsBit = 0x40045567
	uiDevSetup  = 0x405c5503
	uiAbsSetup  = 0x401c5504
	uiDevCreate = 0x5501
	uiDevDestr  = 0x5502

	evSyn = 0x00
	evKey = 0x01
	evRel = 0x02
	evAbs = 0x03

	busUSB = 0x03
)

type inputID struct {
	BusType, Vendor, Product, Version uint16
}

type absInfo struct {
	Value, Minimum, Maximum, Fuzz, Flat, Resolution int32
}

type uinputAbsSetup struct {
	Code uint16
	_    [2]byte
	Info absInfo
	_    [4]byte
}

type uinputSetup struct {
	ID           inputID
	Name         [80]byte
	FFEffectsMax uint32
}

type inputEvent struct {
	Sec, Usec int64
	Type, Code uint16
	Value      int32
}

// absRange describes one ABS_* axis to advertise, with its HID-style
// range/fuzz/flat (§6).
type absRange struct {
	Code                   uint16
	Min, Max, Fuzz, Flat int32
}

// device is the shared uinput plumbing used by all three sink kinds.
type device struct {
	mu       sync.Mutex
	f        *os.File
	kind     Kind
	keys     map[uint16]struct{}
	axes     map[uint16]struct{}
	pending  bool
}

func openDevice(kind Kind, vendor, product uint16, name string, keys []uint16, axes []absRange, rels []uint16) (*device, error) {
	f, err := os.OpenFile("/dev/uinput", os.O_WRONLY|syscall.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("vinput: open /dev/uinput: %w", err)
	}

	if err := ioctlInt(f, uiSetEvBit, evKey); err != nil {
		f.Close()
		return nil, err
	}
	keySet := make(map[uint16]struct{}, len(keys))
	for _, k := range keys {
		if err := ioctlInt(f, uiSetKeyBit, uintptr(k)); err != nil {
			f.Close()
			return nil, fmt.Errorf("vinput: UI_SET_KEYBIT 0x%x: %w", k, err)
		}
		keySet[k] = struct{}{}
	}

	axisSet := make(map[uint16]struct{}, len(axes))
	if len(axes) > 0 {
		if err := ioctlInt(f, uiSetEvBit, evAbs); err != nil {
			f.Close()
			return nil, err
		}
		for _, a := range axes {
			if err := ioctlInt(f, uiSetAbsBit, uintptr(a.Code)); err != nil {
				f.Close()
				return nil, fmt.Errorf("vinput: UI_SET_ABSBIT 0x%x: %w", a.Code, err)
			}
			axisSet[a.Code] = struct{}{}
		}
	}

	if len(rels) > 0 {
		if err := ioctlInt(f, uiSetEvBit, evRel); err != nil {
			f.Close()
			return nil, err
		}
		for _, r := range rels {
			if err := ioctlInt(f, uiSetRelBit, uintptr(r)); err != nil {
				f.Close()
				return nil, fmt.Errorf("vinput: UI_SET_RELBIT 0x%x: %w", r, err)
			}
			axisSet[r] = struct{}{} // rel axes also tracked as "managed axes" for ManagesAxis
		}
	}

	var setup uinputSetup
	copy(setup.Name[:], name)
	setup.ID = inputID{BusType: busUSB, Vendor: vendor, Product: product, Version: 1}
	if err := ioctlPtr(f, uiDevSetup, unsafe.Pointer(&setup)); err != nil {
		f.Close()
		return nil, fmt.Errorf("vinput: UI_DEV_SETUP: %w", err)
	}

	for _, a := range axes {
		as := uinputAbsSetup{Code: a.Code, Info: absInfo{Minimum: a.Min, Maximum: a.Max, Fuzz: a.Fuzz, Flat: a.Flat}}
		if err := ioctlPtr(f, uiAbsSetup, unsafe.Pointer(&as)); err != nil {
			f.Close()
			return nil, fmt.Errorf("vinput: UI_ABS_SETUP 0x%x: %w", a.Code, err)
		}
	}

	if err := ioctlInt(f, uiDevCreate, 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("vinput: UI_DEV_CREATE: %w", err)
	}

	return &device{f: f, kind: kind, keys: keySet, axes: axisSet}, nil
}

func (d *device) keyEvent(code uint16, value int) {
	v := int32(0)
	if value != 0 {
		v = 1
	}
	d.write(evKey, code, v)
}

func (d *device) axisEvent(axis uint16, value int32) {
	d.write(evAbs, axis, value)
}

func (d *device) relEvent(axis uint16, delta int32) {
	if delta == 0 {
		return
	}
	d.write(evRel, axis, delta)
}

func (d *device) syn() error {
	d.mu.Lock()
	pending := d.pending
	d.pending = false
	d.mu.Unlock()
	if !pending {
		return nil
	}
	return d.rawWrite(inputEvent{Type: evSyn, Code: 0, Value: 0})
}

func (d *device) write(typ, code uint16, value int32) {
	d.mu.Lock()
	d.pending = true
	d.mu.Unlock()
	_ = d.rawWrite(inputEvent{Type: typ, Code: code, Value: value})
}

func (d *device) rawWrite(ev inputEvent) error {
	now := time.Now()
	ev.Sec = now.Unix()
	ev.Usec = now.UnixMicro() % 1_000_000

	buf := make([]byte, 24)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(ev.Sec))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(ev.Usec))
	binary.LittleEndian.PutUint16(buf[16:18], ev.Type)
	binary.LittleEndian.PutUint16(buf[18:20], ev.Code)
	binary.LittleEndian.PutUint32(buf[20:24], uint32(ev.Value))

	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.f.Write(buf)
	return err
}

func (d *device) managesKey(code uint16) bool {
	_, ok := d.keys[code]
	return ok
}

func (d *device) managesAxis(axis uint16) bool {
	_, ok := d.axes[axis]
	return ok
}

func (d *device) close() error {
	_ = ioctlInt(d.f, uiDevDestr, 0)
	return d.f.Close()
}

func ioctlInt(f *os.File, request, arg uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), request, arg)
	if errno != 0 {
		return errno
	}
	return nil
}

func ioctlPtr(f *os.File, request uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), request, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}
