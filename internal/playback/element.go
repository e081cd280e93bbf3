package playback

import "errors"

// ErrFullscreenUnsupported is returned by elements that cannot go fullscreen.
var ErrFullscreenUnsupported = errors.New("fullscreen unsupported")

// Element is the media surface the controller owns exclusively.
type Element interface {
	RequestFullscreen() error
	ExitFullscreen() error
}
