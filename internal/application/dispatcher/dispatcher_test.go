package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/garyjia/societyhub/internal/domain/event"
)

// mockLogger implements Logger for testing
type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	warns  []string
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
}

func (m *mockLogger) Warn(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warns = append(m.warns, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

func (m *mockLogger) ErrorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}

func (m *mockLogger) WarnCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.warns)
}

func newStatusEvent() *event.Event {
	return event.NewEvent(event.TypeStatusChanged, "txn-1", "agent-1", map[string]interface{}{
		"from": "pending_on_agent",
		"to":   "completed",
	})
}

func TestSubscribe(t *testing.T) {
	t.Run("auto-generates handler names", func(t *testing.T) {
		d := NewDispatcher()
		noop := func(ctx context.Context, evt *event.Event) error { return nil }

		d.Subscribe(event.TypeStatusChanged, noop)
		d.Subscribe(event.TypeStatusChanged, noop)

		handlers := d.ListHandlers(event.TypeStatusChanged)
		if len(handlers) != 2 {
			t.Fatalf("expected 2 handlers, got %d", len(handlers))
		}
		if handlers[0].Name != "handler-0" || handlers[1].Name != "handler-1" {
			t.Errorf("unexpected names: %s, %s", handlers[0].Name, handlers[1].Name)
		}
	})

	t.Run("handlers are scoped by event type", func(t *testing.T) {
		d := NewDispatcher()
		var called atomic.Bool

		d.Subscribe(event.TypeTransactionCreated, func(ctx context.Context, evt *event.Event) error {
			called.Store(true)
			return nil
		})

		if err := d.Dispatch(context.Background(), newStatusEvent()); err != nil {
			t.Fatalf("dispatch failed: %v", err)
		}
		if called.Load() {
			t.Error("handler for another event type should not run")
		}
	})
}

func TestUnsubscribe(t *testing.T) {
	d := NewDispatcher()
	var calls atomic.Int32

	d.SubscribeNamed(event.TypeStatusChanged, "audit", func(ctx context.Context, evt *event.Event) error {
		calls.Add(1)
		return nil
	})
	d.SubscribeNamed(event.TypeStatusChanged, "metrics", func(ctx context.Context, evt *event.Event) error {
		calls.Add(10)
		return nil
	})

	d.Unsubscribe(event.TypeStatusChanged, "metrics")

	if err := d.Dispatch(context.Background(), newStatusEvent()); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected only the remaining handler to run, calls=%d", got)
	}
}

func TestDispatch(t *testing.T) {
	t.Run("runs specific handlers before wildcard handlers", func(t *testing.T) {
		d := NewDispatcher()
		var order []string

		d.SubscribeNamed(AnyEvent, "audit-log", func(ctx context.Context, evt *event.Event) error {
			order = append(order, "any")
			return nil
		})
		d.SubscribeNamed(event.TypeStatusChanged, "first", func(ctx context.Context, evt *event.Event) error {
			order = append(order, "first")
			return nil
		})
		d.SubscribeNamed(event.TypeStatusChanged, "second", func(ctx context.Context, evt *event.Event) error {
			order = append(order, "second")
			return nil
		})

		if err := d.Dispatch(context.Background(), newStatusEvent()); err != nil {
			t.Fatalf("dispatch failed: %v", err)
		}

		want := []string{"first", "second", "any"}
		if fmt.Sprint(order) != fmt.Sprint(want) {
			t.Errorf("order = %v, want %v", order, want)
		}
	})

	t.Run("returns first error encountered", func(t *testing.T) {
		d := NewDispatcher()
		expectedErr := errors.New("handler error")
		called := false

		d.Subscribe(event.TypeStatusChanged, func(ctx context.Context, evt *event.Event) error {
			return expectedErr
		})
		d.Subscribe(event.TypeStatusChanged, func(ctx context.Context, evt *event.Event) error {
			called = true
			return nil
		})

		err := d.Dispatch(context.Background(), newStatusEvent())
		if !errors.Is(err, expectedErr) {
			t.Fatalf("expected error to wrap %v, got %v", expectedErr, err)
		}
		if called {
			t.Error("expected second handler not to be called after first error")
		}
	})

	t.Run("recovers from handler panic", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))

		d.Subscribe(event.TypeStatusChanged, func(ctx context.Context, evt *event.Event) error {
			panic("boom")
		})

		if err := d.Dispatch(context.Background(), newStatusEvent()); err == nil {
			t.Fatal("expected error from panic recovery")
		}
		if logger.ErrorCount() == 0 {
			t.Error("expected panic to be logged as error")
		}
	})

	t.Run("returns error when dispatcher is closed", func(t *testing.T) {
		d := NewDispatcher()
		if err := d.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		if err := d.Dispatch(context.Background(), newStatusEvent()); err == nil {
			t.Fatal("expected error when dispatching to closed dispatcher")
		}
	})
}

func TestDispatchAsync(t *testing.T) {
	t.Run("Close waits for async handlers", func(t *testing.T) {
		d := NewDispatcher()
		var called atomic.Int32

		for i := 0; i < 3; i++ {
			d.Subscribe(event.TypeStatusChanged, func(ctx context.Context, evt *event.Event) error {
				time.Sleep(10 * time.Millisecond)
				called.Add(1)
				return nil
			})
		}

		d.DispatchAsync(context.Background(), newStatusEvent())
		if err := d.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}

		if got := called.Load(); got != 3 {
			t.Errorf("expected 3 handler runs, got %d", got)
		}
	})

	t.Run("handlers outlive the request context", func(t *testing.T) {
		d := NewDispatcher()
		var ctxErr atomic.Value

		started := make(chan struct{})
		d.Subscribe(event.TypeStatusChanged, func(ctx context.Context, evt *event.Event) error {
			<-started
			if err := ctx.Err(); err != nil {
				ctxErr.Store(err)
			}
			return nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		d.DispatchAsync(ctx, newStatusEvent())
		cancel()
		close(started)

		if err := d.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}
		if v := ctxErr.Load(); v != nil {
			t.Errorf("handler saw cancelled context: %v", v)
		}
	})

	t.Run("handler timeout bounds the run", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger), WithHandlerTimeout(20*time.Millisecond))

		d.Subscribe(event.TypeStatusChanged, func(ctx context.Context, evt *event.Event) error {
			<-ctx.Done()
			return ctx.Err()
		})

		d.DispatchAsync(context.Background(), newStatusEvent())
		if err := d.Close(); err != nil {
			t.Fatalf("close failed: %v", err)
		}
		if logger.ErrorCount() == 0 {
			t.Error("expected timed-out handler to be logged")
		}
	})

	t.Run("closed dispatcher drops the event", func(t *testing.T) {
		logger := &mockLogger{}
		d := NewDispatcher(WithLogger(logger))
		var called atomic.Bool
		d.Subscribe(event.TypeStatusChanged, func(ctx context.Context, evt *event.Event) error {
			called.Store(true)
			return nil
		})

		_ = d.Close()
		d.DispatchAsync(context.Background(), newStatusEvent())

		if called.Load() {
			t.Error("handler should not run after close")
		}
		if logger.WarnCount() == 0 {
			t.Error("expected dropped event to be logged")
		}
	})
}

func TestClose_Twice(t *testing.T) {
	d := NewDispatcher()
	if err := d.Close(); err != nil {
		t.Fatalf("first close failed: %v", err)
	}
	if err := d.Close(); err == nil {
		t.Error("expected error on second close")
	}
}

func TestConcurrentSubscribeAndDispatch(t *testing.T) {
	d := NewDispatcher()
	var calls atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			d.SubscribeNamed(event.TypeRemarkAdded, fmt.Sprintf("h-%d", n), func(ctx context.Context, evt *event.Event) error {
				calls.Add(1)
				return nil
			})
		}(i)
		go func() {
			defer wg.Done()
			_ = d.Dispatch(context.Background(), event.NewEvent(event.TypeRemarkAdded, "txn-1", "", nil))
		}()
	}
	wg.Wait()

	if got := len(d.ListHandlers(event.TypeRemarkAdded)); got != 20 {
		t.Errorf("expected 20 handlers, got %d", got)
	}
}
