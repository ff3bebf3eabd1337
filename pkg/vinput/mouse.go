package vinput

import (
	"time"

	"github.com/sc-userland/steamctl/pkg/trackball"
)

const (
	mouseVendor  = 0x28de
	mouseProduct = 0x1143
	mouseName    = "steamctl virtual mouse"
)

var mouseKeys = []uint16{BtnLeft, BtnRight, BtnMiddle, BtnSide, BtnExtra}
var mouseRels = []uint16{RelX, RelY, RelWheel, RelHWheel}

// Defaults from the original source's trackball tuning (events.py's
// setPadMouse/setPadScroll call sites); not present as named constants in
// the prep, so chosen to match the feel those call sites produce.
const (
	DefaultFriction    = 8.0
	DefaultXScale      = 1.0
	DefaultYScale      = 1.0
	DefaultScrFriction = 4.0
	DefaultScrXScale   = 0.3
	DefaultScrYScale   = 0.3
)

// MouseSink is the mouse sink's full capability, including the two motion
// integrators the mapper drives directly (§4.2, §4.6.3) alongside the
// plain Sink surface every sink shares.
type MouseSink interface {
	Sink
	MoveEvent(dx, dy float64, free bool, now time.Time) float64
	ScrollEvent(dx, dy float64, free bool, now time.Time) float64
}

// mouseSink drives REL_X/REL_Y from one trackball.Ball (move) and
// REL_WHEEL/REL_HWHEEL from a second (scroll), per §4.2/§4.3: pad release
// transitions the owning Ball from push to free mode so motion glides to
// rest instead of stopping dead.
type mouseSink struct {
	*device
	Move   *trackball.Ball
	Scroll *trackball.Ball
}

// NewMouse opens the mouse uinput device and its two motion integrators.
func NewMouse() (Sink, error) {
	d, err := openDevice(Mouse, mouseVendor, mouseProduct, mouseName, mouseKeys, nil, mouseRels)
	if err != nil {
		return nil, err
	}
	return &mouseSink{
		device: d,
		Move:   trackball.New(DefaultFriction, DefaultXScale, DefaultYScale),
		Scroll: trackball.New(DefaultScrFriction, DefaultScrXScale, DefaultScrYScale),
	}, nil
}

func (m *mouseSink) KeyEvent(code uint16, value int)    { m.device.keyEvent(code, value) }
func (m *mouseSink) AxisEvent(axis uint16, value int32) {}
func (m *mouseSink) RelEvent(axis uint16, delta int32)  { m.device.relEvent(axis, delta) }
func (m *mouseSink) Syn() error                         { return m.device.syn() }
func (m *mouseSink) ManagesKey(code uint16) bool        { return m.device.managesKey(code) }
func (m *mouseSink) ManagesAxis(axis uint16) bool       { return false }
func (m *mouseSink) Kind() Kind                         { return Mouse }
func (m *mouseSink) Close() error                       { return m.device.close() }

// MoveEvent advances the move ball by one tick and emits the resulting
// REL_X/REL_Y deltas. free indicates the pad has been released.
func (m *mouseSink) MoveEvent(dx, dy float64, free bool, now time.Time) float64 {
	ex, ey, dist := m.Move.Move(dx, dy, free, now)
	m.RelEvent(RelX, int32(ex))
	m.RelEvent(RelY, int32(ey))
	return dist
}

// ScrollEvent is MoveEvent's counterpart for the wheel axes.
func (m *mouseSink) ScrollEvent(dx, dy float64, free bool, now time.Time) float64 {
	ex, ey, dist := m.Scroll.Move(dx, dy, free, now)
	m.RelEvent(RelHWheel, int32(ex))
	m.RelEvent(RelWheel, int32(ey))
	return dist
}
