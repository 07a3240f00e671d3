package assets

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Loader starts asset loads and memoizes one [Handle] per asset id.
type Loader struct {
	src    Source
	logger *log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	handles map[string]*Handle
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *log.Logger) LoaderOption {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// NewLoader creates a loader reading from src.
func NewLoader(src Source, opts ...LoaderOption) *Loader {
	ctx, cancel := context.WithCancel(context.Background())
	l := &Loader{
		src:     src,
		logger:  log.New(io.Discard),
		ctx:     ctx,
		cancel:  cancel,
		handles: make(map[string]*Handle),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the handle for id, starting a load if none is in flight or
// done. It never blocks on I/O. A handle that failed is replaced by a fresh
// load.
func (l *Loader) Load(id string) *Handle {
	l.mu.RLock()
	h, ok := l.handles[id]
	l.mu.RUnlock()
	if ok && !h.failed() {
		return h
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if h, ok := l.handles[id]; ok && !h.failed() {
		return h
	}
	h = NewHandle(id)
	l.handles[id] = h
	go l.run(h)
	return h
}

// Handles returns the handles for ids, starting loads as needed.
func (l *Loader) Handles(ids []string) []*Handle {
	hs := make([]*Handle, len(ids))
	for i, id := range ids {
		hs[i] = l.Load(id)
	}
	return hs
}

// Status is the load state of an asset id.
type Status int

// Load states.
const (
	StatusUnknown Status = iota // never requested
	StatusPending
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Status reports the state of id without starting or retrying a load.
func (l *Loader) Status(id string) Status {
	l.mu.RLock()
	h, ok := l.handles[id]
	l.mu.RUnlock()
	switch {
	case !ok:
		return StatusUnknown
	case h.Ready():
		return StatusReady
	case h.failed():
		return StatusFailed
	}
	return StatusPending
}

// Close cancels in-flight loads.
func (l *Loader) Close() {
	l.cancel()
}

func (l *Loader) run(h *Handle) {
	start := time.Now()
	data, err := l.src.Fetch(l.ctx, h.id)
	if err != nil {
		l.logger.Debug("asset fetch failed", "asset", truncateID(h.id), "err", err)
		h.Resolve(nil, fmt.Errorf("fetch %s: %w", truncateID(h.id), err))
		return
	}
	img, err := Decode(data)
	if err != nil {
		l.logger.Debug("asset decode failed", "asset", truncateID(h.id), "err", err)
		h.Resolve(nil, fmt.Errorf("decode %s: %w", truncateID(h.id), err))
		return
	}
	b := img.Bounds()
	l.logger.Debug("asset loaded", "asset", truncateID(h.id),
		"size", fmt.Sprintf("%dx%d", b.Dx(), b.Dy()), "duration", time.Since(start))
	h.Resolve(img, nil)
}
