package vinput

const (
	keyboardVendor  = 0x28de // Valve
	keyboardProduct = 0x1142
	keyboardName    = "steamctl virtual keyboard (joystick-classed)"
)

// keyboardBaseKeys is the set of KEY_* codes this sink can translate. Every
// one of them is advertised to the kernel pre-shifted by KeyOffset so the
// device enumerates as a joystick (§4.5) while key_press bindings still
// compile to the same shifted values and route here via ManagesKey.
var keyboardBaseKeys = []uint16{
	KeyEsc, Key1, Key2, Key3, Key4, Key5, Key6, Key7, Key8, Key9, Key0,
	KeyMinus, KeyEqual, KeyBackspace, KeyTab,
	KeyQ, KeyW, KeyE, KeyR, KeyT, KeyY, KeyU, KeyI, KeyO, KeyP,
	KeyLeftBrace, KeyRightBrace, KeyEnter, KeyLeftCtrl,
	KeyA, KeyS, KeyD, KeyF, KeyG, KeyH, KeyJ, KeyK, KeyL,
	KeySemicolon, KeyApostrophe, KeyGrave, KeyLeftShift, KeyBackslash,
	KeyZ, KeyX, KeyC, KeyV, KeyB, KeyN, KeyM, KeyComma, KeyDot, KeySlash,
	KeyRightShift, KeyKPAsterisk, KeyLeftAlt, KeySpace, KeyCapsLock,
	KeyF1, KeyF2, KeyF3, KeyF4, KeyF5, KeyF6, KeyF7, KeyF8, KeyF9, KeyF10, KeyF11, KeyF12,
	KeyLeft, KeyRight, KeyUp, KeyDown, KeyHome, KeyEnd, KeyPageUp, KeyPageDown,
	KeyInsert, KeyDelete, KeyLeftMeta, KeyRightMeta, KeyRightCtrl, KeyRightAlt,
}

// keyboardSink emits shifted codes unchanged, since the kernel device was
// built with only the shifted set.
type keyboardSink struct {
	*device
}

// NewKeyboard opens the keyboard uinput device, advertising every base key
// code shifted by KeyOffset.
func NewKeyboard() (Sink, error) {
	shifted := make([]uint16, len(keyboardBaseKeys))
	for i, k := range keyboardBaseKeys {
		shifted[i] = k + KeyOffset
	}
	d, err := openDevice(Keyboard, keyboardVendor, keyboardProduct, keyboardName, shifted, nil, nil)
	if err != nil {
		return nil, err
	}
	return &keyboardSink{device: d}, nil
}

func (k *keyboardSink) KeyEvent(code uint16, value int) { k.device.keyEvent(code, value) }
func (k *keyboardSink) AxisEvent(axis uint16, value int32) {}
func (k *keyboardSink) RelEvent(axis uint16, delta int32)  {}
func (k *keyboardSink) Syn() error                         { return k.device.syn() }
func (k *keyboardSink) ManagesKey(code uint16) bool        { return k.device.managesKey(code) }
func (k *keyboardSink) ManagesAxis(axis uint16) bool       { return false }
func (k *keyboardSink) Kind() Kind                         { return Keyboard }
func (k *keyboardSink) Close() error                       { return k.device.close() }
