package vinput

// Linux evdev event codes (linux/input-event-codes.h). The kernel header
// would normally be the source of truth; lacking a generator in the
// retrieved corpus, the subset actually reachable from a binding is
// hand-declared here, matching the procon2-driver reference's const block.
const (
	KeyEsc       uint16 = 1
	Key1         uint16 = 2
	Key2         uint16 = 3
	Key3         uint16 = 4
	Key4         uint16 = 5
	Key5         uint16 = 6
	Key6         uint16 = 7
	Key7         uint16 = 8
	Key8         uint16 = 9
	Key9         uint16 = 10
	Key0         uint16 = 11
	KeyMinus     uint16 = 12
	KeyEqual     uint16 = 13
	KeyBackspace uint16 = 14
	KeyTab       uint16 = 15
	KeyQ         uint16 = 16
	KeyW         uint16 = 17
	KeyE         uint16 = 18
	KeyR         uint16 = 19
	KeyT         uint16 = 20
	KeyY         uint16 = 21
	KeyU         uint16 = 22
	KeyI         uint16 = 23
	KeyO         uint16 = 24
	KeyP         uint16 = 25
	KeyLeftBrace uint16 = 26
	KeyRightBrace uint16 = 27
	KeyEnter     uint16 = 28
	KeyLeftCtrl  uint16 = 29
	KeyA         uint16 = 30
	KeyS         uint16 = 31
	KeyD         uint16 = 32
	KeyF         uint16 = 33
	KeyG         uint16 = 34
	KeyH         uint16 = 35
	KeyJ         uint16 = 36
	KeyK         uint16 = 37
	KeyL         uint16 = 38
	KeySemicolon uint16 = 39
	KeyApostrophe uint16 = 40
	KeyGrave     uint16 = 41
	KeyLeftShift uint16 = 42
	KeyBackslash uint16 = 43
	KeyZ         uint16 = 44
	KeyX         uint16 = 45
	KeyC         uint16 = 46
	KeyV         uint16 = 47
	KeyB         uint16 = 48
	KeyN         uint16 = 49
	KeyM         uint16 = 50
	KeyComma     uint16 = 51
	KeyDot       uint16 = 52
	KeySlash     uint16 = 53
	KeyRightShift uint16 = 54
	KeyKPAsterisk uint16 = 55
	KeyLeftAlt   uint16 = 56
	KeySpace     uint16 = 57
	KeyCapsLock  uint16 = 58
	KeyF1        uint16 = 59
	KeyF2        uint16 = 60
	KeyF3        uint16 = 61
	KeyF4        uint16 = 62
	KeyF5        uint16 = 63
	KeyF6        uint16 = 64
	KeyF7        uint16 = 65
	KeyF8        uint16 = 66
	KeyF9        uint16 = 67
	KeyF10       uint16 = 68
	KeyF11       uint16 = 87
	KeyF12       uint16 = 88
	KeyLeft      uint16 = 105
	KeyRight     uint16 = 106
	KeyUp        uint16 = 103
	KeyDown      uint16 = 108
	KeyHome      uint16 = 102
	KeyEnd       uint16 = 107
	KeyPageUp    uint16 = 104
	KeyPageDown  uint16 = 109
	KeyInsert    uint16 = 110
	KeyDelete    uint16 = 111
	KeyLeftMeta  uint16 = 125
	KeyRightMeta uint16 = 126
	KeyRightCtrl uint16 = 97
	KeyRightAlt  uint16 = 100
)

// Gamepad/mouse button codes (BTN_* range starts at 0x100).
const (
	BtnA      uint16 = 0x130
	BtnB      uint16 = 0x131
	BtnX      uint16 = 0x133
	BtnY      uint16 = 0x134
	BtnTL     uint16 = 0x136
	BtnTR     uint16 = 0x137
	BtnTL2    uint16 = 0x138
	BtnTR2    uint16 = 0x139
	BtnSelect uint16 = 0x13a
	BtnStart  uint16 = 0x13b
	BtnMode   uint16 = 0x13c
	BtnThumbL uint16 = 0x13d
	BtnThumbR uint16 = 0x13e

	BtnLeft   uint16 = 0x110
	BtnRight  uint16 = 0x111
	BtnMiddle uint16 = 0x112
	BtnSide   uint16 = 0x113
	BtnExtra  uint16 = 0x114
)

// Absolute axis codes (ABS_*).
const (
	AbsX     uint16 = 0x00
	AbsY     uint16 = 0x01
	AbsZ     uint16 = 0x02
	AbsRX    uint16 = 0x03
	AbsRY    uint16 = 0x04
	AbsRZ    uint16 = 0x05
	AbsHat0X uint16 = 0x10
	AbsHat0Y uint16 = 0x11
)

// Relative axis codes (REL_*).
const (
	RelX      uint16 = 0x00
	RelY      uint16 = 0x01
	RelWheel  uint16 = 0x08
	RelHWheel uint16 = 0x06
)

// KeyOffset is added to every KEY_* code the keyboard sink advertises so the
// kernel's input-device-type heuristic classifies it as a joystick rather
// than a keyboard (§4.5, §6): a device advertising EV_KEY codes only in the
// BTN_* range (>=0x100) is never picked up by getty/X11 as a text-input
// keyboard.
const KeyOffset uint16 = 0x100

// BaseKeyCode strips KeyOffset back off a shifted code, returning the
// original KEY_* value and whether the code was in fact shifted.
func BaseKeyCode(shifted uint16) (uint16, bool) {
	if shifted < KeyOffset {
		return shifted, false
	}
	return shifted - KeyOffset, true
}

// keyByName is the normalized-name -> KEY_* lookup the binding compiler
// resolves `key_press` tokens against (§6's key-name normalization table
// feeds names into this table after stripping/renaming).
var keyByName = map[string]uint16{
	"ESC": KeyEsc, "1": Key1, "2": Key2, "3": Key3, "4": Key4, "5": Key5,
	"6": Key6, "7": Key7, "8": Key8, "9": Key9, "0": Key0,
	"MINUS": KeyMinus, "EQUAL": KeyEqual, "BACKSPACE": KeyBackspace, "TAB": KeyTab,
	"Q": KeyQ, "W": KeyW, "E": KeyE, "R": KeyR, "T": KeyT, "Y": KeyY, "U": KeyU,
	"I": KeyI, "O": KeyO, "P": KeyP,
	"LEFTBRACE": KeyLeftBrace, "RIGHTBRACE": KeyRightBrace, "ENTER": KeyEnter,
	"LEFTCTRL": KeyLeftCtrl,
	"A": KeyA, "S": KeyS, "D": KeyD, "F": KeyF, "G": KeyG, "H": KeyH, "J": KeyJ,
	"K": KeyK, "L": KeyL,
	"SEMICOLON": KeySemicolon, "APOSTROPHE": KeyApostrophe, "GRAVE": KeyGrave,
	"LEFTSHIFT": KeyLeftShift, "BACKSLASH": KeyBackslash,
	"Z": KeyZ, "X": KeyX, "C": KeyC, "V": KeyV, "B": KeyB, "N": KeyN, "M": KeyM,
	"COMMA": KeyComma, "DOT": KeyDot, "SLASH": KeySlash,
	"RIGHTSHIFT": KeyRightShift, "KPASTERISK": KeyKPAsterisk, "LEFTALT": KeyLeftAlt,
	"SPACE": KeySpace, "CAPSLOCK": KeyCapsLock,
	"F1": KeyF1, "F2": KeyF2, "F3": KeyF3, "F4": KeyF4, "F5": KeyF5, "F6": KeyF6,
	"F7": KeyF7, "F8": KeyF8, "F9": KeyF9, "F10": KeyF10, "F11": KeyF11, "F12": KeyF12,
	"LEFT": KeyLeft, "RIGHT": KeyRight, "UP": KeyUp, "DOWN": KeyDown,
	"HOME": KeyHome, "END": KeyEnd, "PAGEUP": KeyPageUp, "PAGEDOWN": KeyPageDown,
	"INSERT": KeyInsert, "DELETE": KeyDelete,
	"LEFTMETA": KeyLeftMeta, "RIGHTMETA": KeyRightMeta,
	"RIGHTCTRL": KeyRightCtrl, "RIGHTALT": KeyRightAlt,
}

// KeyByName resolves a normalized key name (post key-name-normalization
// table, §6) to its base (unshifted) KEY_* code.
func KeyByName(name string) (uint16, bool) {
	code, ok := keyByName[name]
	return code, ok
}

var mouseButtonByName = map[string]uint16{
	"LEFT": BtnLeft, "RIGHT": BtnRight, "MIDDLE": BtnMiddle,
	"SIDE": BtnSide, "EXTRA": BtnExtra,
}

// MouseButtonByName resolves a mouse_button token's argument to its BTN_*
// code.
func MouseButtonByName(name string) (uint16, bool) {
	code, ok := mouseButtonByName[name]
	return code, ok
}
