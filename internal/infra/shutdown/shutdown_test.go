package shutdown

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"syscall"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewHandler(t *testing.T) {
	h := NewHandler(5*time.Second, nil)
	if h.timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", h.timeout)
	}
	if h.logger == nil {
		t.Error("logger should default to slog.Default()")
	}

	select {
	case <-h.Done():
		t.Error("Done channel should not be closed initially")
	default:
	}
}

func TestHandler_Trigger_RunsHooksInReverse(t *testing.T) {
	h := NewHandler(5*time.Second, quietLogger())

	var (
		mu    sync.Mutex
		order []string
	)
	for _, name := range []string{"http", "redis", "watcher"} {
		h.OnShutdown(name, func(context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		})
	}

	h.Trigger()
	h.Trigger() // idempotent

	if err := h.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	want := []string{"watcher", "redis", "http"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}

	select {
	case <-h.Done():
	default:
		t.Error("Done channel should be closed after Wait")
	}
}

func TestHandler_Wait_ContextCancel(t *testing.T) {
	h := NewHandler(time.Second, quietLogger())
	called := false
	h.OnShutdown("only", func(context.Context) error {
		called = true
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := h.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if !called {
		t.Error("hook was not called")
	}
}

func TestHandler_Wait_Signal(t *testing.T) {
	h := NewHandler(time.Second, quietLogger())
	called := make(chan struct{})
	h.OnShutdown("sig", func(context.Context) error {
		close(called)
		return nil
	})

	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait(context.Background()) }()

	time.Sleep(50 * time.Millisecond)
	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("kill: %v", err)
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after SIGTERM")
	}
	<-called
}

func TestHandler_Wait_HookErrorsJoined(t *testing.T) {
	h := NewHandler(time.Second, quietLogger())
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	ranLast := false

	h.OnShutdown("last", func(context.Context) error {
		ranLast = true
		return nil
	})
	h.OnShutdown("b", func(context.Context) error { return errB })
	h.OnShutdown("a", func(context.Context) error { return errA })

	h.Trigger()
	err := h.Wait(context.Background())
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Fatalf("Wait() = %v, want both hook errors", err)
	}
	if !ranLast {
		t.Error("a failing hook must not stop later hooks")
	}
}

func TestHandler_HooksShareDeadline(t *testing.T) {
	h := NewHandler(50*time.Millisecond, quietLogger())
	h.OnShutdown("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	h.Trigger()
	err := h.Wait(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait() = %v, want deadline exceeded", err)
	}
}
