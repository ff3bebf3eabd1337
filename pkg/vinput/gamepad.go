package vinput

// Xbox360-compatible vendor/product pair, matching the axis/button set the
// original source's Xbox360 uinput subclass advertises, so downstream tools
// (Steam, SDL, udev rules) recognize the virtual pad the same way.
const (
	gamepadVendor  = 0x045e
	gamepadProduct = 0x028e
	gamepadName    = "steamctl virtual gamepad"
)

var gamepadKeys = []uint16{
	BtnA, BtnB, BtnX, BtnY,
	BtnTL, BtnTR, BtnTL2, BtnTR2,
	BtnSelect, BtnStart, BtnMode,
	BtnThumbL, BtnThumbR,
}

// gamepadAxes carries the fuzz/flat values §6 specifies for the Xbox360
// emulation: sticks span -32768..32767 with a small flat deadzone already
// applied by the kernel's absinfo, triggers span 0..255.
var gamepadAxes = []absRange{
	{Code: AbsX, Min: -32768, Max: 32767, Fuzz: 16, Flat: 128},
	{Code: AbsY, Min: -32768, Max: 32767, Fuzz: 16, Flat: 128},
	{Code: AbsRX, Min: -32768, Max: 32767, Fuzz: 16, Flat: 128},
	{Code: AbsRY, Min: -32768, Max: 32767, Fuzz: 16, Flat: 128},
	{Code: AbsZ, Min: 0, Max: 255, Fuzz: 0, Flat: 0},
	{Code: AbsRZ, Min: 0, Max: 255, Fuzz: 0, Flat: 0},
	{Code: AbsHat0X, Min: -1, Max: 1, Fuzz: 0, Flat: 0},
	{Code: AbsHat0Y, Min: -1, Max: 1, Fuzz: 0, Flat: 0},
}

// Gamepad wraps a uinput device advertising standard Xbox360 BTN_*/ABS_*
// codes (§6): button_diamond, shoulder/trigger buttons, both sticks and the
// virtual d-pad hat.
type gamepadSink struct {
	*device
}

// NewGamepad opens the gamepad uinput device.
func NewGamepad() (Sink, error) {
	d, err := openDevice(Gamepad, gamepadVendor, gamepadProduct, gamepadName, gamepadKeys, gamepadAxes, nil)
	if err != nil {
		return nil, err
	}
	return &gamepadSink{device: d}, nil
}

func (g *gamepadSink) KeyEvent(code uint16, value int)     { g.device.keyEvent(code, value) }
func (g *gamepadSink) AxisEvent(axis uint16, value int32)  { g.device.axisEvent(axis, value) }
func (g *gamepadSink) RelEvent(axis uint16, delta int32)   {}
func (g *gamepadSink) Syn() error                          { return g.device.syn() }
func (g *gamepadSink) ManagesKey(code uint16) bool         { return g.device.managesKey(code) }
func (g *gamepadSink) ManagesAxis(axis uint16) bool        { return g.device.managesAxis(axis) }
func (g *gamepadSink) Kind() Kind                          { return Gamepad }
func (g *gamepadSink) Close() error                        { return g.device.close() }
