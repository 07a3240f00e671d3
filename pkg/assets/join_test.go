package assets

import (
	"context"
	stderrors "errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/visaposter/pkg/errors"
)

func resolveAfter(h *Handle, d time.Duration, err error) {
	go func() {
		time.Sleep(d)
		if err != nil {
			h.Resolve(nil, err)
			return
		}
		h.Resolve(image.NewNRGBA(image.Rect(0, 0, 1, 1)), nil)
	}()
}

func TestJoinWaitsForSlowest(t *testing.T) {
	start := time.Now()
	a, b, c := NewHandle("a"), NewHandle("b"), NewHandle("c")
	resolveAfter(a, 0, nil)
	resolveAfter(b, 10*time.Millisecond, nil)
	resolveAfter(c, 60*time.Millisecond, nil)

	var mu sync.Mutex
	var order []string
	ready, err := Join(context.Background(), []*Handle{a, b, c}, OnReady(func(id string, _ time.Duration, err error) {
		mu.Lock()
		order = append(order, id)
		mu.Unlock()
	}))
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if time.Since(start) < 60*time.Millisecond {
		t.Error("Join returned before the slowest handle resolved")
	}
	if len(ready) != 3 {
		t.Errorf("ready = %d images, want 3", len(ready))
	}
	for _, h := range []*Handle{a, b, c} {
		if !h.Ready() {
			t.Errorf("%s not ready after Join", h.ID())
		}
	}
	if len(order) != 3 || order[2] != "c" {
		t.Errorf("ready order = %v, want c last", order)
	}
}

func TestJoinNeverResolvesWithoutTimeout(t *testing.T) {
	stuck := NewHandle("stuck")
	ok := NewHandle("ok")
	resolveAfter(ok, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() {
		_, err := Join(ctx, []*Handle{ok, stuck})
		result <- err
	}()

	select {
	case err := <-result:
		t.Fatalf("Join returned %v while a handle was unresolved", err)
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-result:
		if !stderrors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Join ignored cancellation")
	}
}

func TestJoinTimeout(t *testing.T) {
	stuck := NewHandle("stuck")
	_, err := Join(context.Background(), []*Handle{stuck}, WithJoinTimeout(20*time.Millisecond))
	if !errors.Is(err, errors.ErrCodeAssetTimeout) {
		t.Fatalf("err = %v, want ASSET_TIMEOUT", err)
	}
}

func TestJoinLoadFailure(t *testing.T) {
	bad, good := NewHandle("bad"), NewHandle("good")
	resolveAfter(bad, 0, stderrors.New("boom"))
	resolveAfter(good, 0, nil)
	_, err := Join(context.Background(), []*Handle{good, bad})
	if !errors.Is(err, errors.ErrCodeAssetLoad) {
		t.Fatalf("err = %v, want ASSET_LOAD", err)
	}
}

func TestJoinEmpty(t *testing.T) {
	ready, err := Join(context.Background(), nil)
	if err != nil || len(ready) != 0 {
		t.Fatalf("Join(nil) = %v, %v", ready, err)
	}
}

func TestHandleResolveOnce(t *testing.T) {
	h := NewHandle("x")
	h.Resolve(nil, stderrors.New("first"))
	h.Resolve(image.NewNRGBA(image.Rect(0, 0, 1, 1)), nil)
	if _, err := h.Wait(context.Background()); err == nil || err.Error() != "first" {
		t.Fatalf("err = %v, want first resolution kept", err)
	}
}
