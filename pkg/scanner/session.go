package scanner

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/teslashibe/go-scanner/pkg/camera"
	"github.com/teslashibe/go-scanner/pkg/decode"
)

// session binds one open camera to one running decode subscription.
type session struct {
	id  string
	src camera.Source
	sub *decode.Subscription
}

// openSession acquires the camera. Decoding starts with run.
func openSession(open camera.Opener, cfg camera.Config) (*session, error) {
	src, err := open(cfg)
	if err != nil {
		if !errors.Is(err, camera.ErrDeviceUnavailable) {
			err = fmt.Errorf("%w: %v", camera.ErrDeviceUnavailable, err)
		}
		return nil, err
	}
	return &session{
		id:  uuid.NewString(),
		src: src,
	}, nil
}

func (s *session) run(dec decode.Decoder, opts decode.LoopOptions, cb decode.Callback) {
	opts.Ended = func(err error) bool {
		return errors.Is(err, camera.ErrSourceEnded) || errors.Is(err, camera.ErrClosed)
	}
	s.sub = decode.StartContinuous(context.Background(), s.src, dec, opts, cb)
}

// close stops the loop, releases the camera and waits until the loop has
// returned. Sources that can interrupt a blocked Read (fakes, pipes) return
// ErrClosed from it at once; camera.Device finishes the frame in flight
// first, so close takes at most one frame period there.
func (s *session) close() error {
	if s.sub != nil {
		s.sub.Stop()
	}
	err := s.src.Close()
	if s.sub != nil {
		s.sub.Wait()
	}
	if err != nil {
		return fmt.Errorf("close camera: %w", err)
	}
	return nil
}
