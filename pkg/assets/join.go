package assets

import (
	"context"
	stderrors "errors"
	"image"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/visaposter/pkg/errors"
)

// ReadyFunc is called once per handle as it resolves during a [Join].
type ReadyFunc func(id string, wait time.Duration, err error)

type joinConfig struct {
	timeout time.Duration
	onReady ReadyFunc
}

// JoinOption configures a Join.
type JoinOption func(*joinConfig)

// WithJoinTimeout bounds the whole join. Zero waits until ctx ends.
func WithJoinTimeout(d time.Duration) JoinOption {
	return func(c *joinConfig) { c.timeout = d }
}

// OnReady registers a callback for each resolved handle.
func OnReady(fn ReadyFunc) JoinOption {
	return func(c *joinConfig) { c.onReady = fn }
}

// Join waits for every handle and returns the decoded images keyed by id.
//
// It returns only after all handles resolved successfully, or on the first
// failure. Failures are coded: a handle that resolves with an error yields
// ASSET_LOAD, an expired timeout yields ASSET_TIMEOUT. Cancellation of ctx
// is returned as ctx.Err().
func Join(ctx context.Context, handles []*Handle, opts ...JoinOption) (map[string]image.Image, error) {
	var cfg joinConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	waitCtx := ctx
	if cfg.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	start := time.Now()
	var mu sync.Mutex
	ready := make(map[string]image.Image, len(handles))

	g, gctx := errgroup.WithContext(waitCtx)
	for _, h := range handles {
		g.Go(func() error {
			img, err := h.Wait(gctx)
			if err != nil && gctx.Err() != nil && !h.failed() {
				// Interrupted rather than failed; reported once below.
				return err
			}
			if cfg.onReady != nil {
				cfg.onReady(h.id, time.Since(start), err)
			}
			if err != nil {
				return errors.Wrap(errors.ErrCodeAssetLoad, err, "asset %s failed to load", truncateID(h.id))
			}
			mu.Lock()
			ready[h.id] = img
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var coded *errors.Error
		if stderrors.As(err, &coded) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if stderrors.Is(waitCtx.Err(), context.DeadlineExceeded) {
			return nil, errors.New(errors.ErrCodeAssetTimeout, "%d of %d assets not ready after %s",
				pending(handles), len(handles), cfg.timeout)
		}
		return nil, err
	}
	return ready, nil
}

func pending(handles []*Handle) int {
	n := 0
	for _, h := range handles {
		select {
		case <-h.done:
		default:
			n++
		}
	}
	return n
}
