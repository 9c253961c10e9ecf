package camera

import (
	"errors"
	"image"
)

var (
	// ErrDeviceUnavailable is returned when no camera could be opened:
	// missing device, permission denied, or busy.
	ErrDeviceUnavailable = errors.New("camera: device unavailable")

	// ErrSourceEnded is returned by Read once the device stopped delivering
	// frames for good (unplugged, stream closed).
	ErrSourceEnded = errors.New("camera: source ended")

	// ErrEmptyFrame is a transient read that produced no pixels.
	ErrEmptyFrame = errors.New("camera: empty frame")

	// ErrClosed is returned by Read after Close.
	ErrClosed = errors.New("camera: source closed")
)

// Source is a live video frame source bound to one open camera handle.
type Source interface {
	// Read blocks until the next frame is available.
	Read() (image.Image, error)

	// FrameSize reports the native frame size, independent of any preview
	// scaling. Zero values mean the size is not known yet.
	FrameSize() (width, height int)

	// Close releases the camera handle. It is safe to call more than once.
	Close() error
}

// Opener acquires a Source for the given configuration.
type Opener func(cfg Config) (Source, error)

// IsDeviceError reports whether err means the camera itself is gone or
// could not be acquired.
func IsDeviceError(err error) bool {
	return errors.Is(err, ErrDeviceUnavailable) || errors.Is(err, ErrSourceEnded)
}
