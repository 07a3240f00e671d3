package assets

import (
	"context"
	"image"
	"sync"
	"time"
)

// Handle is the readiness signal of one asset: a future that resolves
// exactly once with a decoded image or an error.
type Handle struct {
	id      string
	started time.Time

	once sync.Once
	done chan struct{}
	img  image.Image
	err  error
}

// NewHandle returns an unresolved handle for id.
func NewHandle(id string) *Handle {
	return &Handle{id: id, started: time.Now(), done: make(chan struct{})}
}

// ID returns the asset id.
func (h *Handle) ID() string { return h.id }

// Done is closed once the handle has resolved.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Resolve settles the handle. Calls after the first are ignored.
func (h *Handle) Resolve(img image.Image, err error) {
	h.once.Do(func() {
		h.img, h.err = img, err
		close(h.done)
	})
}

// Ready reports whether the handle resolved successfully.
func (h *Handle) Ready() bool {
	select {
	case <-h.done:
		return h.err == nil
	default:
		return false
	}
}

// failed reports whether the handle resolved with an error.
func (h *Handle) failed() bool {
	select {
	case <-h.done:
		return h.err != nil
	default:
		return false
	}
}

// Wait blocks until the handle resolves or ctx ends.
func (h *Handle) Wait(ctx context.Context) (image.Image, error) {
	select {
	case <-h.done:
		return h.img, h.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
