package playback

// Key is a player keyboard binding.
type Key int

const (
	KeyUnknown Key = iota
	KeySpace
	KeyLeft
	KeyRight
	KeyMute
	KeyFullscreen
	KeyRate
)

// KeyFromRune maps a typed character to a binding.
func KeyFromRune(r rune) Key {
	switch r {
	case ' ':
		return KeySpace
	case 'm', 'M':
		return KeyMute
	case 'f', 'F':
		return KeyFullscreen
	case 'r', 'R':
		return KeyRate
	default:
		return KeyUnknown
	}
}

// HandleKey applies a key binding. Keys are ignored while a text input has
// focus. It reports whether the key was bound.
func (c *Controller) HandleKey(key Key, textInputFocused bool) bool {
	if textInputFocused {
		return false
	}
	switch key {
	case KeySpace:
		c.TogglePlayPause()
	case KeyLeft:
		c.Previous()
	case KeyRight:
		c.Next()
	case KeyMute:
		c.ToggleMute()
	case KeyFullscreen:
		c.ToggleFullscreen()
	case KeyRate:
		c.CyclePlaybackRate()
	default:
		return false
	}
	return true
}
