package overlay

// Key is a key the overlay reacts to.
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	Key1
	Key2
	Key3
	Key4
	Key5
	KeyMinus
	KeyEqual
)

// KeyResolver maps a wl_keyboard key code to a Key.
type KeyResolver interface {
	Resolve(code uint32) Key
}

// EvdevKeys resolves Linux evdev codes as sent by every compositor,
// ignoring the keymap. Keypad digits and +/- are accepted as well.
type EvdevKeys struct{}

var evdevKeys = map[uint32]Key{
	1:  KeyEscape,
	2:  Key1,
	3:  Key2,
	4:  Key3,
	5:  Key4,
	6:  Key5,
	12: KeyMinus,
	13: KeyEqual,
	74: KeyMinus, // KP_MINUS
	75: Key4,     // KP_4
	76: Key5,     // KP_5
	78: KeyEqual, // KP_PLUS
	79: Key1,     // KP_1
	80: Key2,     // KP_2
	81: Key3,     // KP_3
}

func (EvdevKeys) Resolve(code uint32) Key {
	return evdevKeys[code]
}
