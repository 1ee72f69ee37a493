package chip8

// KeypadState holds the pressed state of the 16 hexadecimal keys
type KeypadState [16]bool

// IsPressed reports whether k is down. Keys outside 0x0-0xF are never down.
func (ks KeypadState) IsPressed(k byte) bool {
	if k > 0xF {
		return false
	}
	return ks[k]
}

// FirstPressed returns the lowest key that is down
func (ks KeypadState) FirstPressed() (byte, bool) {
	for k, pressed := range ks {
		if pressed {
			return byte(k), true
		}
	}
	return 0, false
}

// Mask packs the state into a bitmask where bit k is key k
func (ks KeypadState) Mask() uint16 {
	var m uint16
	for k, pressed := range ks {
		if pressed {
			m |= 1 << k
		}
	}
	return m
}

// KeypadStateFromMask is the inverse of KeypadState.Mask
func KeypadStateFromMask(m uint16) KeypadState {
	ks := KeypadState{}
	for k := range ks {
		ks[k] = m&(1<<k) != 0
	}
	return ks
}

// Keyboard is the input collaborator of the scheduler.
type Keyboard interface {
	// Boot initializes the component
	Boot() error
	// Poll processes pending input and returns true when a quit was requested
	Poll() bool
	// State returns the current snapshot of the keypad
	State() KeypadState
}

// DummyKeyboard is driven from code, mostly by tests
type DummyKeyboard struct {
	Keys KeypadState
	Quit bool
}

func NewDummyKeyboard() *DummyKeyboard {
	return &DummyKeyboard{}
}

// Boot implements Keyboard.
func (kb *DummyKeyboard) Boot() error {
	return nil
}

// Poll implements Keyboard.
func (kb *DummyKeyboard) Poll() bool {
	return kb.Quit
}

// State implements Keyboard.
func (kb *DummyKeyboard) State() KeypadState {
	return kb.Keys
}

func (kb *DummyKeyboard) Press(k byte) {
	if k > 0xF {
		return
	}

	kb.Keys[k] = true
}

func (kb *DummyKeyboard) Release(k byte) {
	if k > 0xF {
		return
	}

	kb.Keys[k] = false
}

// KeyboardLayout lists the physical keys bound to keypad 0x0 through 0xF
type KeyboardLayout [16]rune

// DefaultKeyboardLayout maps the 4x4 hexadecimal keypad onto a QWERTY block
//
//	1 2 3 C        1 2 3 4
//	4 5 6 D   <=   Q W E R
//	7 8 9 E        A S D F
//	A 0 B F        Z X C V
var DefaultKeyboardLayout = KeyboardLayout{
	0x0: 'x',
	0x1: '1', 0x2: '2', 0x3: '3',
	0x4: 'q', 0x5: 'w', 0x6: 'e',
	0x7: 'a', 0x8: 's', 0x9: 'd',
	0xA: 'z', 0xB: 'c',
	0xC: '4', 0xD: 'r', 0xE: 'f', 0xF: 'v',
}

// LookupMap inverts a layout so front-ends can go from a physical key to a keypad index
func LookupMap(layout KeyboardLayout) map[rune]byte {
	m := make(map[rune]byte, len(layout))
	for k, r := range layout {
		m[r] = byte(k)
	}
	return m
}
