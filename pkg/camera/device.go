package camera

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Device is a Source backed by an OpenCV VideoCapture.
type Device struct {
	cap    *gocv.VideoCapture
	cfg    Config
	frame  gocv.Mat
	width  int
	height int
	closed bool
	mu     sync.Mutex
}

var _ Source = (*Device)(nil)

// OpenDevice opens the camera described by cfg. It satisfies Opener.
func OpenDevice(cfg Config) (Source, error) {
	var id interface{} = cfg.Device
	if idx, ok := cfg.DeviceIndex(); ok {
		id = idx
	}

	vc, err := gocv.OpenVideoCapture(id)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrDeviceUnavailable, cfg.String(), err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: %s not opened", ErrDeviceUnavailable, cfg.String())
	}

	// Requests only; the driver picks the closest mode it supports.
	if cfg.Width > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	}
	if cfg.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	}
	if cfg.Framerate > 0 {
		vc.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))
	}

	return &Device{
		cap:    vc,
		cfg:    cfg,
		frame:  gocv.NewMat(),
		width:  int(vc.Get(gocv.VideoCaptureFrameWidth)),
		height: int(vc.Get(gocv.VideoCaptureFrameHeight)),
	}, nil
}

// Read grabs the next frame and converts it to an image.Image.
func (d *Device) Read() (image.Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}
	if ok := d.cap.Read(&d.frame); !ok {
		return nil, ErrSourceEnded
	}
	if d.frame.Empty() {
		return nil, ErrEmptyFrame
	}

	if d.cfg.Mirror {
		gocv.Flip(d.frame, &d.frame, 1)
	}

	d.width = d.frame.Cols()
	d.height = d.frame.Rows()

	img, err := d.frame.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	return img, nil
}

// FrameSize returns the size of the last frame read, or what the driver
// reported at open time.
func (d *Device) FrameSize() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.width, d.height
}

// Close releases the capture device. A Read in progress holds the device
// until its frame arrives; Close waits for it rather than freeing the
// capture under it.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	d.frame.Close()
	return d.cap.Close()
}
