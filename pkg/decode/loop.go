package decode

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"
)

// ErrSourceEnded is returned by a FrameSource that will not produce more
// frames. The loop reports it through the callback and then stops.
var ErrSourceEnded = errors.New("decode: source ended")

// FrameSource is the part of a camera the loop needs.
type FrameSource interface {
	Read() (image.Image, error)
}

// Callback receives one decode attempt. Exactly one of res and err is
// usually set; both nil never happens.
type Callback func(res *Result, err error)

// LoopOptions tunes the continuous decode loop.
type LoopOptions struct {
	// Interval is the minimum time between attempts. Zero decodes as fast
	// as frames arrive.
	Interval time.Duration

	// OnFrame, when set, sees every frame before it is decoded.
	OnFrame func(img image.Image)

	// Ended reports whether a Read error means the source is gone for
	// good. Defaults to errors.Is(err, ErrSourceEnded).
	Ended func(err error) bool
}

// Subscription is a running continuous decode. Cancel stops it.
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// StartContinuous starts decoding frames from src in a new goroutine and
// calls cb once per attempt, in frame order, never concurrently.
// The loop stops when ctx is done, Cancel is called, or the source ends.
func StartContinuous(ctx context.Context, src FrameSource, dec Decoder, opts LoopOptions, cb Callback) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	ended := opts.Ended
	if ended == nil {
		ended = func(err error) bool { return errors.Is(err, ErrSourceEnded) }
	}

	go func() {
		defer close(s.done)
		run(ctx, src, dec, opts, ended, cb)
	}()

	return s
}

func run(ctx context.Context, src FrameSource, dec Decoder, opts LoopOptions, ended func(error) bool, cb Callback) {
	var timer *time.Timer
	if opts.Interval > 0 {
		timer = time.NewTimer(0)
		defer timer.Stop()
	}

	for {
		if timer != nil {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				timer.Reset(opts.Interval)
			}
		} else if ctx.Err() != nil {
			return
		}

		img, err := src.Read()
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			cb(nil, err)
			if ended(err) {
				return
			}
			continue
		}

		if opts.OnFrame != nil {
			opts.OnFrame(img)
		}

		res, err := dec.Decode(img)
		if ctx.Err() != nil {
			return
		}
		cb(res, err)
	}
}

// Stop signals the loop to end without waiting. A loop blocked in Read
// returns once the source delivers or fails.
func (s *Subscription) Stop() {
	s.once.Do(s.cancel)
}

// Wait blocks until the loop has returned.
func (s *Subscription) Wait() {
	<-s.done
}

// Cancel stops the loop and blocks until it has returned, so no callback is
// running or will run afterwards. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.Stop()
	s.Wait()
}

// Done is closed once the loop has returned.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}
