package decode

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"
)

// scriptedSource returns the scripted errors in order, then frames forever.
type scriptedSource struct {
	mu    sync.Mutex
	errs  []error
	reads int
}

func (s *scriptedSource) Read() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return image.NewGray(image.Rect(0, 0, 4, 4)), nil
}

func TestStartContinuous_DeliversInOrder(t *testing.T) {
	var n int
	dec := DecoderFunc(func(image.Image) (*Result, error) {
		n++
		if n%2 == 0 {
			return &Result{Text: "hit"}, nil
		}
		return nil, errors.New("miss")
	})

	var (
		mu       sync.Mutex
		attempts []string
		inFlight int
		overlap  bool
	)
	done := make(chan struct{})
	sub := StartContinuous(context.Background(), &scriptedSource{}, dec, LoopOptions{}, func(res *Result, err error) {
		mu.Lock()
		inFlight++
		if inFlight > 1 {
			overlap = true
		}
		if res != nil {
			attempts = append(attempts, res.Text)
		} else {
			attempts = append(attempts, err.Error())
		}
		full := len(attempts) == 6
		inFlight--
		mu.Unlock()
		if full {
			close(done)
		}
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for attempts")
	}
	sub.Cancel()

	mu.Lock()
	defer mu.Unlock()
	want := []string{"miss", "hit", "miss", "hit", "miss", "hit"}
	for i := range want {
		if attempts[i] != want[i] {
			t.Fatalf("attempts = %v, want prefix %v", attempts, want)
		}
	}
	if overlap {
		t.Error("callbacks overlapped")
	}
}

func TestSubscription_CancelStopsCallbacks(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	dec := DecoderFunc(func(image.Image) (*Result, error) { return nil, errors.New("miss") })

	sub := StartContinuous(context.Background(), &scriptedSource{}, dec, LoopOptions{Interval: time.Millisecond}, func(*Result, error) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	time.Sleep(20 * time.Millisecond)
	sub.Cancel()

	mu.Lock()
	after := calls
	mu.Unlock()

	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if calls != after {
		t.Errorf("callback ran after Cancel returned: %d -> %d", after, calls)
	}

	select {
	case <-sub.Done():
	default:
		t.Error("Done not closed after Cancel")
	}

	// Second cancel must not block or panic.
	sub.Cancel()
}

func TestStartContinuous_SourceEndedStopsLoop(t *testing.T) {
	src := &scriptedSource{errs: []error{errors.New("empty frame"), ErrSourceEnded}}
	dec := DecoderFunc(func(image.Image) (*Result, error) { return &Result{Text: "never"}, nil })

	var got []error
	sub := StartContinuous(context.Background(), src, dec, LoopOptions{}, func(res *Result, err error) {
		if res != nil {
			t.Errorf("unexpected result %+v", res)
		}
		got = append(got, err)
	})

	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop on source end")
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 error callbacks, got %v", got)
	}
	if !errors.Is(got[1], ErrSourceEnded) {
		t.Errorf("last error = %v, want ErrSourceEnded", got[1])
	}
}

func TestStartContinuous_OnFrameAndContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	frames := make(chan struct{}, 1)
	dec := DecoderFunc(func(image.Image) (*Result, error) { return nil, errors.New("miss") })
	opts := LoopOptions{
		Interval: time.Millisecond,
		OnFrame: func(image.Image) {
			select {
			case frames <- struct{}{}:
			default:
			}
		},
	}

	sub := StartContinuous(ctx, &scriptedSource{}, dec, opts, func(*Result, error) {})

	select {
	case <-frames:
	case <-time.After(2 * time.Second):
		t.Fatal("OnFrame never called")
	}

	cancel()
	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("loop ignored context cancellation")
	}
}
