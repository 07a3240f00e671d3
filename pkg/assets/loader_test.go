package assets

import (
	"context"
	stderrors "errors"
	"testing"
	"time"
)

func errorsIs(err, target error) bool { return stderrors.Is(err, target) }

func TestLoaderMemoizes(t *testing.T) {
	src := &countingSource{data: map[string][]byte{"a.png": pngBytes(t, 3, 2)}}
	l := NewLoader(src)
	defer l.Close()

	h1 := l.Load("a.png")
	h2 := l.Load("a.png")
	if h1 != h2 {
		t.Fatal("Load returned different handles for the same id")
	}
	img, err := h1.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 2 {
		t.Errorf("bounds = %v", b)
	}
	if n := src.calls.Load(); n != 1 {
		t.Errorf("fetches = %d, want 1", n)
	}
}

func TestLoaderRetriesFailedHandle(t *testing.T) {
	src := &countingSource{data: map[string][]byte{}}
	l := NewLoader(src)
	defer l.Close()

	h := l.Load("late.png")
	if _, err := h.Wait(context.Background()); err == nil {
		t.Fatal("expected load error")
	}

	src.data["late.png"] = pngBytes(t, 1, 1)
	h2 := l.Load("late.png")
	if h2 == h {
		t.Fatal("failed handle was reused")
	}
	if _, err := h2.Wait(context.Background()); err != nil {
		t.Fatalf("second load: %v", err)
	}
}

func TestLoaderDecodeError(t *testing.T) {
	src := &countingSource{data: map[string][]byte{"x.png": []byte("garbage")}}
	l := NewLoader(src)
	defer l.Close()
	if _, err := l.Load("x.png").Wait(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestLoaderLoadDoesNotBlock(t *testing.T) {
	src := &countingSource{data: map[string][]byte{"a.png": pngBytes(t, 1, 1)}, gate: make(chan struct{})}
	l := NewLoader(src)
	defer l.Close()

	done := make(chan *Handle)
	go func() { done <- l.Load("a.png") }()
	var h *Handle
	select {
	case h = <-done:
	case <-time.After(time.Second):
		t.Fatal("Load blocked on I/O")
	}
	if h.Ready() {
		t.Fatal("handle ready before the fetch completed")
	}
	close(src.gate)
	if _, err := h.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestLoaderStatus(t *testing.T) {
	src := &countingSource{data: map[string][]byte{"a.png": pngBytes(t, 1, 1)}, gate: make(chan struct{})}
	l := NewLoader(src)
	defer l.Close()

	if got := l.Status("a.png"); got != StatusUnknown {
		t.Errorf("before Load: %v, want unknown", got)
	}
	h := l.Load("a.png")
	if got := l.Status("a.png"); got != StatusPending {
		t.Errorf("in flight: %v, want pending", got)
	}
	close(src.gate)
	if _, err := h.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := l.Status("a.png"); got != StatusReady {
		t.Errorf("loaded: %v, want ready", got)
	}

	if _, err := l.Load("missing.png").Wait(context.Background()); err == nil {
		t.Fatal("expected load error")
	}
	if got := l.Status("missing.png"); got != StatusFailed {
		t.Errorf("failed load: %v, want failed", got)
	}
	if n := src.calls.Load(); n != 2 {
		t.Errorf("fetches = %d, want 2 (Status must not retry)", n)
	}
}
