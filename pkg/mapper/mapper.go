// Package mapper implements the event mapper state machine: the policy
// engine that turns a decoded controller report into synthetic key, axis,
// and relative-motion events on the three virtual-input sinks (§4.6).
package mapper

import (
	"math"
	"time"

	"github.com/sc-userland/steamctl/pkg/binding"
	"github.com/sc-userland/steamctl/pkg/scpacket"
	"github.com/sc-userland/steamctl/pkg/vinput"
)

// steamLongPress is the STEAM-button hold duration that triggers the exit
// gesture (§4.6.2, S4).
const steamLongPress = 2 * time.Second

// padRotation is the fixed touchpad coordinate-frame correction applied in
// ButtonTouch/ButtonClick mode (§4.6.3), in radians.
const padRotation = -0.35877

// stickHysteresisBand and stickMaxThreshold parameterize the virtual-dpad
// edge latch on the analog stick (§4.6.4) — spec's literal values, not the
// original source's (which used a narrower 600-unit band and a 32200 cap).
const (
	stickHysteresisBand = 2000
	stickMaxThreshold    = 31000
)

// trigHysteresisBand and trigMaxThreshold parameterize trigger button
// hysteresis (§4.6.5).
const (
	trigHysteresisBand = 10
	trigMaxThreshold    = 200
	trigMaxRelease       = 180
)

// padHapticPulseDistance is the accumulated pad-travel distance (in emitted
// pixels) between haptic pulses for Mouse/MouseScroll/Axis pad modes
// (§4.6.3).
const padHapticPulseDistance = 4000.0

type onKeyID struct {
	kind vinput.Kind
	code uint16
}

// pos indexes the two trackpads/triggers; 0 = Left, 1 = Right throughout.
type pos int

const (
	left  pos = 0
	right pos = 1
)

// hapticPosition maps a pad index to the haptic wire position, which
// numbers the right pad 0 and the left pad 1 (see Backchannel.Haptic).
func (p pos) hapticPosition() int {
	if p == left {
		return 1
	}
	return 0
}

// Mapper is the event mapper's full state (§3.5). It is not safe for
// concurrent use — the owning session serializes calls to Process per the
// single-threaded cooperative model (§5).
type Mapper struct {
	sinks *vinput.Set
	back  Backchannel
	tables binding.Tables

	prev scpacket.Report

	onKeys map[onKeyID]bool
	onAbs  map[onKeyID]int32

	xdq, ydq [2]padQueue
	xmpPrev, ympPrev [2]int // previous tick's mean, for the first-touch jump guard
	wasTouched       [2]bool

	trigLatch [2]*int

	stickTop, stickLeft, stickBottom, stickRight *int

	padMoveAccum [2]float64

	steamPressTime *time.Time
	exited         bool

	modeShiftHeld map[binding.Section]bool

	syn map[vinput.Kind]bool
}

// New constructs a Mapper bound to the given sinks, compiled tables, and
// session back-channel.
func New(sinks *vinput.Set, tables binding.Tables, back Backchannel) *Mapper {
	return &Mapper{
		sinks:         sinks,
		back:          back,
		tables:        tables,
		onKeys:        make(map[onKeyID]bool),
		onAbs:         make(map[onKeyID]int32),
		modeShiftHeld: make(map[binding.Section]bool),
	}
}

// Exited reports whether the STEAM long-press gesture (or an explicit
// Process call after it fired) has already torn the sinks down.
func (m *Mapper) Exited() bool { return m.exited }

// Process runs one pass of the mapper over a newly decoded report, or a
// soft-timer republish of the last Input report (§4.4, §4.6). It is a
// no-op for any report whose Status is not Input (§8 invariant 1).
func (m *Mapper) Process(cur scpacket.Report, now time.Time) {
	if cur.Status != scpacket.StatusInput || m.exited {
		return
	}

	prev := m.prev
	m.prev = cur
	m.syn = make(map[vinput.Kind]bool)

	added := (prev.Buttons ^ cur.Buttons) & cur.Buttons
	removed := (prev.Buttons ^ cur.Buttons) & prev.Buttons

	m.processButtons(added, removed)
	m.processSteamLongPress(cur, now)
	m.processPad(left, cur, prev, now)
	m.processPad(right, cur, prev, now)
	m.processTriggers(cur, prev)
	m.processStick(cur, prev)

	for kind := range m.syn {
		if sink := m.sinks.Sinks[kind]; sink != nil {
			sink.Syn()
		}
	}
}

// --- button diff (§4.6.1, §4.6.7) ---

// processButtons resolves each changed bit's binding per-bit rather than
// swapping the whole table: §4.6.7 overlays only the shifted section, so a
// grip's own ModeShift binding (which lives in BtnMap, not
// ModeShiftBtnMap) must keep resolving from BtnMap even while shifted, or
// its release is never seen and modeShiftHeld never clears. Buttons the
// shifted table doesn't mention likewise fall back to BtnMap instead of
// going dark.
func (m *Mapper) processButtons(added, removed scpacket.Button) {
	shifted := m.modeShiftHeld[binding.ButtonDiamond] && m.tables.ModeShiftBtnMap != nil

	seen := make(map[uint32]bool, len(m.tables.BtnMap)+len(m.tables.ModeShiftBtnMap))
	dispatch := func(bitVal uint32) {
		if seen[bitVal] {
			return
		}
		seen[bitVal] = true
		bit := scpacket.Button(bitVal)

		b, ok := m.tables.BtnMap[bitVal]
		if shifted && !isGripBit(bit) {
			if sb, sok := m.tables.ModeShiftBtnMap[bitVal]; sok {
				b, ok = sb, true
			}
		}
		if !ok {
			return
		}

		switch {
		case added&bit != 0:
			m.dispatchButtonPress(bit, b)
		case removed&bit != 0:
			m.dispatchButtonRelease(bit, b)
		}
	}

	for bitVal := range m.tables.BtnMap {
		dispatch(bitVal)
	}
	for bitVal := range m.tables.ModeShiftBtnMap {
		dispatch(bitVal)
	}
}

func (m *Mapper) dispatchButtonPress(bit scpacket.Button, b binding.Binding) {
	if b.Kind == binding.KindModeShift && isGripBit(bit) {
		for sec := range b.ModeShiftSet {
			m.modeShiftHeld[sec] = true
		}
		return
	}
	m.keyPressed(b)
}

func (m *Mapper) dispatchButtonRelease(bit scpacket.Button, b binding.Binding) {
	if b.Kind == binding.KindModeShift && isGripBit(bit) {
		for sec := range b.ModeShiftSet {
			m.modeShiftHeld[sec] = false
		}
		return
	}
	m.keyReleased(b)
}

func isGripBit(bit scpacket.Button) bool {
	return bit == scpacket.ButtonLGrip || bit == scpacket.ButtonRGrip
}

// keyPressed/keyReleased consult onKeys and no-op on redundant transitions
// (§4.6.1, §8 invariant 3).
func (m *Mapper) keyPressed(b binding.Binding) bool {
	kind, sink, ok := b.Resolve(m.sinks)
	if !ok {
		return false
	}
	id := onKeyID{kind, b.Code}
	if m.onKeys[id] {
		return false
	}
	m.onKeys[id] = true
	sink.KeyEvent(b.Code, 1)
	m.syn[kind] = true
	return true
}

func (m *Mapper) keyReleased(b binding.Binding) bool {
	kind, sink, ok := b.Resolve(m.sinks)
	if !ok {
		return false
	}
	id := onKeyID{kind, b.Code}
	if !m.onKeys[id] {
		return false
	}
	delete(m.onKeys, id)
	sink.KeyEvent(b.Code, 0)
	m.syn[kind] = true
	return true
}

// --- STEAM long-press exit (§4.6.2) ---

func (m *Mapper) processSteamLongPress(cur scpacket.Report, now time.Time) {
	held := cur.Buttons&scpacket.ButtonSteam != 0
	if !held {
		m.steamPressTime = nil
		return
	}
	if m.steamPressTime == nil {
		t := now
		m.steamPressTime = &t
		return
	}
	if now.Sub(*m.steamPressTime) > steamLongPress {
		m.sinks.Close()
		m.back.Exit()
		m.exited = true
	}
}

// --- pad processing (§4.6.3) ---

func (m *Mapper) processPad(p pos, cur, prev scpacket.Report, now time.Time) {
	x, y, touchBit, clickBit := m.padCoords(p, cur)
	touched := cur.Buttons&touchBit != 0
	wasTouchedPrev := prev.Buttons&touchBit != 0

	xm, ym := 0, 0
	if touched {
		xmp, ymp := m.xdq[p].mean(), m.ydq[p].mean()
		m.xdq[p].push(int(x))
		m.ydq[p].push(int(y))
		xm, ym = m.xdq[p].mean(), m.ydq[p].mean()
		if !wasTouchedPrev {
			xmp, ymp = xm, ym
		}
		m.xmpPrev[p], m.ympPrev[p] = xmp, ymp
	}

	cfg := m.padConfigFor(p)

	switch cfg.Mode {
	case binding.PadMouse, binding.PadMouseScroll:
		m.dispatchPadMouse(p, cfg, touched, xm, ym, now)
	case binding.PadAxis:
		prevX, prevY := prevCoords(p, prev)
		m.dispatchPadAxis(p, cfg, x, y, prevX, prevY)
	case binding.PadButtonTouch, binding.PadButtonClick:
		m.dispatchPadButtons(p, cfg, cur, prev, touchBit, clickBit, xm, ym)
	}

	if !touched {
		m.xdq[p].clear()
		m.ydq[p].clear()
	}
	m.wasTouched[p] = touched
}

// padCoords resolves the raw pad coordinates and touch/click bits for pos.
func (m *Mapper) padCoords(p pos, cur scpacket.Report) (x, y int16, touchBit, clickBit scpacket.Button) {
	if p == left {
		return cur.LPadX, cur.LPadY, scpacket.ButtonLPadTouch, scpacket.ButtonLPad
	}
	return cur.RPadX, cur.RPadY, scpacket.ButtonRPadTouch, scpacket.ButtonRPad
}

func (m *Mapper) padConfigFor(p pos) binding.PadConfig {
	sec := binding.LeftTrackpad
	if p == right {
		sec = binding.RightTrackpad
	}
	if m.modeShiftHeld[sec] && m.tables.ModeShiftPad[p] != nil {
		return *m.tables.ModeShiftPad[p]
	}
	return m.tables.Pad[p]
}

func (m *Mapper) dispatchPadMouse(p pos, cfg binding.PadConfig, touched bool, xm, ym int, now time.Time) {
	ms, ok := m.sinks.Sinks[vinput.Mouse].(vinput.MouseSink)
	if !ok {
		return
	}
	dx, dy := 0.0, 0.0
	free := true
	if touched {
		free = false
		if m.wasTouched[p] {
			dx = float64(xm - m.xmpPrev[p])
			dy = float64(ym - m.ympPrev[p])
		}
	}

	var dist float64
	if cfg.Mode == binding.PadMouse {
		dist = ms.MoveEvent(dx, -dy, free, now)
	} else {
		dist = ms.ScrollEvent(dx, dy, free, now)
	}
	if dist != 0 {
		m.syn[vinput.Mouse] = true
	}

	m.padMoveAccum[p] += dist
	if m.padMoveAccum[p] >= padHapticPulseDistance {
		m.padMoveAccum[p] -= padHapticPulseDistance
		m.back.Haptic(p.hapticPosition(), 2000, 4, 1)
	}
}

// prevCoords resolves the previous tick's raw pad coordinates for pos, used
// to detect axis changes in PadAxis mode.
func prevCoords(p pos, prev scpacket.Report) (x, y int16) {
	if p == left {
		return prev.LPadX, prev.LPadY
	}
	return prev.RPadX, prev.RPadY
}

func (m *Mapper) dispatchPadAxis(p pos, cfg binding.PadConfig, x, y, prevX, prevY int16) {
	if len(cfg.Axes) < 2 {
		return
	}
	if x != prevX {
		m.emitAxis(cfg.Axes[0], int32(x))
	}
	yv := y
	if cfg.Revert {
		yv = -y
	}
	if y != prevY {
		m.emitAxis(cfg.Axes[1], int32(yv))
	}

	dist := math.Hypot(float64(x)-float64(prevX), float64(y)-float64(prevY))
	m.padMoveAccum[p] += dist
	if m.padMoveAccum[p] >= padHapticPulseDistance {
		m.padMoveAccum[p] -= padHapticPulseDistance
		m.back.Haptic(p.hapticPosition(), 2000, 4, 1)
	}
}

func (m *Mapper) emitAxis(t binding.AxisTarget, value int32) {
	sink := m.sinks.Sinks[t.Sink]
	if sink == nil {
		return
	}
	id := onKeyID{t.Sink, t.Code}
	if m.onAbs[id] == value {
		return
	}
	m.onAbs[id] = value
	if t.IsRel {
		sink.RelEvent(t.Code, value)
	} else {
		sink.AxisEvent(t.Code, value)
	}
	m.syn[t.Sink] = true
}

func (m *Mapper) dispatchPadButtons(p pos, cfg binding.PadConfig, cur, prev scpacket.Report, touchBit, clickBit scpacket.Button, xm, ym int) {
	if len(cfg.Events) < 4 {
		return
	}

	var onTest, offTest scpacket.Button
	if cfg.Mode == binding.PadButtonTouch {
		onTest, offTest = touchBit, touchBit
	} else {
		onTest, offTest = clickBit|touchBit, clickBit
	}

	enabled := cur.Buttons&onTest == onTest
	if enabled {
		xr, yr := rotate(float64(xm), float64(ym), padRotation)
		d := 32768.0 * cfg.Deadzone

		changed := false
		changed = setOrClear(m, cfg.Events[0], yr >= d) || changed  // top
		changed = setOrClear(m, cfg.Events[1], xr <= -d) || changed // left
		changed = setOrClear(m, cfg.Events[2], yr <= -d) || changed // bottom
		changed = setOrClear(m, cfg.Events[3], xr >= d) || changed  // right

		if changed {
			m.back.Haptic(p.hapticPosition(), 1200, 2, 1)
		}
	}

	wasEnabled := prev.Buttons&onTest == onTest
	if cur.Buttons&offTest != offTest && wasEnabled {
		changed := false
		for _, ev := range cfg.Events {
			changed = m.keyReleased(ev) || changed
		}
		if changed {
			m.back.Haptic(p.hapticPosition(), 1200, 2, 1)
		}
	}
}

func setOrClear(m *Mapper, b binding.Binding, on bool) bool {
	if on {
		return m.keyPressed(b)
	}
	return m.keyReleased(b)
}

func rotate(x, y, angle float64) (float64, float64) {
	s, c := math.Sin(angle), math.Cos(angle)
	return x*c - y*s, x*s + y*c
}

// --- trigger processing (§4.6.5) ---

func (m *Mapper) processTriggers(cur, prev scpacket.Report) {
	m.processTrigger(left, int(cur.LTrig), int(prev.LTrig))
	m.processTrigger(right, int(cur.RTrig), int(prev.RTrig))
}

func (m *Mapper) processTrigger(p pos, t, tp int) {
	cfg := m.trigConfigFor(p)
	switch cfg.Mode {
	case binding.TrigAxis:
		if t != tp {
			m.emitAxis(cfg.Axis, int32(t))
		}
	case binding.TrigButton:
		latch := m.trigLatch[p]
		if latch == nil && t > minInt(tp+trigHysteresisBand, trigMaxThreshold) {
			v := maxInt(0, minInt(t-trigHysteresisBand, trigMaxRelease))
			m.trigLatch[p] = &v
			m.keyPressed(cfg.Button)
		} else if latch != nil && t <= *latch {
			m.trigLatch[p] = nil
			m.keyReleased(cfg.Button)
		}
	}
}

func (m *Mapper) trigConfigFor(p pos) binding.TrigConfig {
	sec := binding.LeftTrigger
	if p == right {
		sec = binding.RightTrigger
	}
	if m.modeShiftHeld[sec] && m.tables.ModeShiftTrig[p] != nil {
		return *m.tables.ModeShiftTrig[p]
	}
	return m.tables.Trig[p]
}

// --- stick processing (§4.6.4) ---

func (m *Mapper) processStick(cur, prev scpacket.Report) {
	if cur.Buttons&scpacket.ButtonLPadTouch != 0 {
		return // left pad is in touch mode, not stick mode
	}
	x, y := int(cur.LPadX), int(cur.LPadY)
	xp, yp := int(prev.LPadX), int(prev.LPadY)

	cfg := m.stickConfig()
	switch cfg.Mode {
	case binding.StickAxis:
		if len(cfg.Axes) < 2 {
			return
		}
		if x != xp {
			m.emitAxis(cfg.Axes[0], int32(x))
		}
		yv := y
		if cfg.Revert {
			yv = -y
		}
		if y != yp {
			m.emitAxis(cfg.Axes[1], int32(yv))
		}
	case binding.StickButton:
		if len(cfg.Events) < 4 {
			return
		}
		m.stickEdge(&m.stickTop, y > 0, y, yp, 1, cfg.Events[0])
		m.stickEdge(&m.stickLeft, x < 0, x, xp, -1, cfg.Events[1])
		m.stickEdge(&m.stickBottom, y < 0, y, yp, -1, cfg.Events[2])
		m.stickEdge(&m.stickRight, x > 0, x, xp, 1, cfg.Events[3])
	}
}

func (m *Mapper) stickConfig() binding.StickConfig {
	if m.modeShiftHeld[binding.Joystick] && m.tables.ModeShiftStick != nil {
		return *m.tables.ModeShiftStick
	}
	return m.tables.Stick
}

// stickEdge implements one direction's edge-latched hysteresis (§4.6.4).
// dir is +1 for the top/right directions (press when the axis exceeds a
// rising threshold) and -1 for left/bottom (press when it falls below a
// descending threshold).
func (m *Mapper) stickEdge(latch **int, sign bool, v, vp, dir int, b binding.Binding) {
	if *latch == nil {
		if !sign {
			return
		}
		var crossed bool
		var next int
		if dir > 0 {
			threshold := minInt(vp+stickHysteresisBand, stickMaxThreshold)
			crossed = v > threshold
			next = maxInt(0, minInt(v-stickHysteresisBand, stickMaxThreshold))
		} else {
			threshold := maxInt(vp-stickHysteresisBand, -stickMaxThreshold)
			crossed = v < threshold
			next = minInt(0, maxInt(v+stickHysteresisBand, -stickMaxThreshold))
		}
		if crossed {
			*latch = &next
			m.keyPressed(b)
		}
		return
	}

	if dir > 0 {
		if v <= **latch {
			*latch = nil
			m.keyReleased(b)
		}
	} else {
		if v >= **latch {
			*latch = nil
			m.keyReleased(b)
		}
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
