// Package usbsession owns the real USB connection to a Steam Controller
// dongle or wired unit: probing and claiming the device, running its
// vendor-specific initialization handshake, pumping interrupt-IN reports,
// and draining a haptic/exit command queue on the control endpoint (§4.4).
package usbsession

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/gousb"

	ctllog "github.com/sc-userland/steamctl/internal/log"
	"github.com/sc-userland/steamctl/pkg/scpacket"
)

// candidate is one (product, endpoint, control-index) tuple this driver
// knows how to speak to, in probe order. Mirrors the original source's
// parallel PRODUCT_ID/ENDPOINT/CONTROLIDX tables: the single-controller
// wired identity (0x1102) and the 2.4GHz wireless dongle (0x1142), which
// exposes up to four controller slots on one USB device and so appears
// once per slot with its own interface/endpoint pair.
type candidate struct {
	product    gousb.ID
	endpoint   int
	controlIdx uint16
}

const vendorID = gousb.ID(0x28de)

var candidates = []candidate{
	{product: 0x1102, endpoint: 3, controlIdx: 2},
	{product: 0x1142, endpoint: 2, controlIdx: 1},
	{product: 0x1142, endpoint: 3, controlIdx: 2},
	{product: 0x1142, endpoint: 4, controlIdx: 3},
	{product: 0x1142, endpoint: 5, controlIdx: 4},
}

// initFrame1 disables the controller's lizard-mode keyboard/mouse
// emulation; initFrame2 disables its built-in haptic auto-feedback (§6).
var (
	initFrame1 = beWords(0x81000000)
	initFrame2 = beWords(0x87153284, 0x03180000, 0x31020008, 0x07000707, 0x00300000, 0x2f010000)
	exitFrame  = beWords(0x9f046f66, 0x66210000)
)

func beWords(words ...uint32) []byte {
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.BigEndian.PutUint32(buf[i*4:], w)
	}
	return buf
}

// NotFoundError is returned when no candidate device could be opened.
type NotFoundError struct{}

func (e *NotFoundError) Error() string { return "usbsession: no steam controller found" }

// BusyError is returned when a matching device was found but its HID
// interface could not be claimed exclusively.
type BusyError struct{}

func (e *BusyError) Error() string { return "usbsession: steam controller busy" }

// command is a haptic pulse or the exit sentinel, queued for the control
// endpoint.
type command struct {
	payload []byte
	isExit  bool
}

// Session owns one claimed controller's USB handle and drives its
// interrupt/control traffic (§4.4, §5).
type Session struct {
	log *slog.Logger
	raw ctllog.RawLogger

	ctx        *gousb.Context
	dev        *gousb.Device
	cfg        *gousb.Config
	iface      *gousb.Interface
	inEp       *gousb.InEndpoint
	controlIdx uint16

	mu    sync.Mutex
	queue []command

	lastReport     scpacket.Report
	haveLastReport bool
}

// Report wraps one delivery to the driver loop: either a freshly decoded
// frame or a soft-timer republish of the last Input report.
type Report struct {
	Value scpacket.Report
	Err   error
}

// Open probes the candidate whitelist and claims the first device whose
// kernel driver can be detached and whose HID interface can be claimed
// exclusively (§4.4).
func Open(log *slog.Logger, raw ctllog.RawLogger) (*Session, error) {
	ctx := gousb.NewContext()

	// found tracks whether any candidate VID/PID matched a physical device
	// at all, so a claim failure on a device that does exist is reported
	// as BusyError rather than the more general NotFoundError.
	found := false

	for _, c := range candidates {
		dev, err := ctx.OpenDeviceWithVIDPID(vendorID, c.product)
		if err != nil || dev == nil {
			continue
		}
		found = true

		if err := dev.SetAutoDetach(true); err != nil {
			log.Debug("usbsession: set auto detach failed", "err", err)
		}

		ifaceNumber := int(c.controlIdx) - 1

		cfg, err := dev.Config(1)
		if err != nil {
			dev.Close()
			continue
		}

		iface, err := cfg.Interface(ifaceNumber, 0)
		if err != nil {
			cfg.Close()
			dev.Close()
			continue
		}

		inEp, err := iface.InEndpoint(c.endpoint | 0x80)
		if err != nil {
			iface.Close()
			cfg.Close()
			dev.Close()
			continue
		}

		s := &Session{
			log:        log,
			raw:        raw,
			ctx:        ctx,
			dev:        dev,
			cfg:        cfg,
			iface:      iface,
			inEp:       inEp,
			controlIdx: c.controlIdx,
		}

		if err := s.initialize(); err != nil {
			s.Close()
			continue
		}

		return s, nil
	}

	ctx.Close()
	if found {
		return nil, &BusyError{}
	}
	return nil, &NotFoundError{}
}

func (s *Session) initialize() error {
	if err := s.sendControl(initFrame1); err != nil {
		return fmt.Errorf("usbsession: disable lizard mode: %w", err)
	}
	if err := s.sendControl(initFrame2); err != nil {
		return fmt.Errorf("usbsession: disable haptic feedback: %w", err)
	}
	return nil
}

func (s *Session) sendControl(payload []byte) error {
	buf := make([]byte, scpacket.ReportSize)
	copy(buf, payload)
	_, err := s.dev.Control(0x21, 0x09, 0x0300, s.controlIdx, buf)
	if s.raw != nil {
		s.raw.Log(false, buf)
	}
	return err
}

// Haptic enqueues a haptic pulse for the next control-transfer slot (§6).
func (s *Session) Haptic(position int, amplitude, period, count uint16) {
	buf := make([]byte, 9)
	buf[0] = 0x8f
	buf[1] = 0x07
	buf[2] = byte(position)
	binary.LittleEndian.PutUint16(buf[3:5], amplitude)
	binary.LittleEndian.PutUint16(buf[5:7], period)
	binary.LittleEndian.PutUint16(buf[7:9], count)

	s.mu.Lock()
	s.queue = append(s.queue, command{payload: buf})
	s.mu.Unlock()
}

// Exit enqueues the session's exit command; the run loop terminates once
// it has been written (§5 Cancellation).
func (s *Session) Exit() {
	s.mu.Lock()
	s.queue = append(s.queue, command{payload: exitFrame, isExit: true})
	s.mu.Unlock()
}

func (s *Session) popCommand() (command, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return command{}, false
	}
	cmd := s.queue[0]
	s.queue = s.queue[1:]
	return cmd, true
}

const (
	softPeriodHigh    = 20 * time.Millisecond
	softPeriodLow     = 500 * time.Millisecond
	softTimerCooldown = 1 * time.Second
)

// readResult is what the background interrupt-read goroutine posts back to
// Run's select loop.
type readResult struct {
	n   int
	err error
}

// Run submits interrupt-IN reads in a loop, drains pending commands between
// completions, and delivers each successfully decoded report (and
// soft-timer republishes) via deliver. It returns when ctx is cancelled or
// the exit command has been written (§4.4, §5).
//
// The blocking endpoint read happens on its own goroutine so the select
// loop can still service the soft timer and ctx cancellation while a read
// is outstanding; at most one read is ever in flight.
func (s *Session) Run(ctx context.Context, deliver func(Report)) error {
	buf := make([]byte, scpacket.ReportSize)
	reads := make(chan readResult, 1)

	startRead := func() {
		go func() {
			n, err := s.inEp.Read(buf)
			select {
			case reads <- readResult{n, err}:
			case <-ctx.Done():
			}
		}()
	}
	startRead()

	lastRx := time.Now()
	softTimer := time.NewTimer(softPeriodLow)
	defer softTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-softTimer.C:
			if time.Since(lastRx) > softTimerCooldown {
				softTimer.Reset(softPeriodLow)
			} else {
				softTimer.Reset(softPeriodHigh)
			}
			if s.haveLastReport {
				deliver(Report{Value: s.lastReport})
			}

		case res := <-reads:
			if res.err != nil {
				s.log.Debug("usbsession: interrupt read error, retrying", "err", res.err)
				startRead()
				continue
			}
			if res.n == scpacket.ReportSize {
				if s.raw != nil {
					s.raw.Log(true, buf)
				}
				report, derr := scpacket.Decode(buf)
				if derr == nil {
					lastRx = time.Now()
					softTimer.Reset(softPeriodHigh)
					if report.Status == scpacket.StatusInput {
						s.lastReport = report
						s.haveLastReport = true
					}
				}
				deliver(Report{Value: report, Err: derr})
			}
			startRead()

			if cmd, ok := s.popCommand(); ok {
				if err := s.sendControl(cmd.payload); err != nil {
					s.log.Warn("usbsession: control write failed", "err", err)
				}
				if cmd.isExit {
					return nil
				}
			}
		}
	}
}

// Close sends the exit command, releases the interface, and resets the
// device (§4.4 destructor semantics).
func (s *Session) Close() error {
	if s.dev == nil {
		return nil
	}
	_ = s.sendControl(exitFrame)
	if s.iface != nil {
		s.iface.Close()
	}
	if s.cfg != nil {
		s.cfg.Close()
	}
	_ = s.dev.Reset()
	err := s.dev.Close()
	s.dev = nil
	if s.ctx != nil {
		s.ctx.Close()
		s.ctx = nil
	}
	return err
}
