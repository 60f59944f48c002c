package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/garyjia/societyhub/internal/application/dispatcher"
	"github.com/garyjia/societyhub/internal/application/port"
	"github.com/garyjia/societyhub/internal/domain/entity"
	"github.com/garyjia/societyhub/internal/domain/event"
	"github.com/garyjia/societyhub/internal/infrastructure/persistence/memory"
	"github.com/garyjia/societyhub/internal/infrastructure/persistence/seed"
	"github.com/garyjia/societyhub/pkg/auth"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	adminActor   = entity.Actor{ID: "admin1", Name: "System Administrator", Email: "admin@societyhub.com", Role: entity.RoleAdmin}
	managerActor = entity.Actor{ID: "manager1", Name: "John Manager", Email: "manager@greenvalley.org", Role: entity.RoleSocietyUser, SocietyID: "society1"}
	otherManager = entity.Actor{ID: "manager2", Name: "Mike Manager", Email: "manager@sunriseheights.org", Role: entity.RoleSocietyUser, SocietyID: "society2"}
	agentActor   = entity.Actor{ID: "agent1", Name: "Processing Agent", Email: "agent@societyhub.com", Role: entity.RoleAgent, SocietyID: "society1"}
)

func newHasher() *auth.PasswordHasher {
	return auth.NewPasswordHasher(bcrypt.MinCost)
}

func newSeededStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore(nil)
	require.NoError(t, seed.Demo(context.Background(), store, newHasher().Hash, zap.NewNop()))
	return store
}

// mockChannel records every message it is asked to send
type mockChannel struct {
	name    string
	sendErr error

	mu   sync.Mutex
	sent []port.OutboundMessage
}

func (m *mockChannel) Name() string {
	return m.name
}

func (m *mockChannel) Send(ctx context.Context, msg port.OutboundMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *mockChannel) messages() []port.OutboundMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]port.OutboundMessage(nil), m.sent...)
}

// mockDispatcher captures published events and registered handlers
type mockDispatcher struct {
	mu       sync.Mutex
	events   []*event.Event
	handlers map[event.Type][]dispatcher.Handler
}

func (m *mockDispatcher) Subscribe(eventType event.Type, handler dispatcher.Handler) {
	m.SubscribeNamed(eventType, "", handler)
}

func (m *mockDispatcher) SubscribeNamed(eventType event.Type, name string, handler dispatcher.Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handlers == nil {
		m.handlers = make(map[event.Type][]dispatcher.Handler)
	}
	m.handlers[eventType] = append(m.handlers[eventType], handler)
}

func (m *mockDispatcher) Unsubscribe(eventType event.Type, name string) {}

func (m *mockDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	m.mu.Lock()
	m.events = append(m.events, evt)
	handlers := append([]dispatcher.Handler(nil), m.handlers[evt.Type]...)
	m.mu.Unlock()

	var errs []error
	for _, h := range handlers {
		errs = append(errs, h(ctx, evt))
	}
	return errors.Join(errs...)
}

func (m *mockDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	_ = m.Dispatch(ctx, evt)
}

func (m *mockDispatcher) ListHandlers(eventType event.Type) []dispatcher.HandlerInfo {
	return nil
}

func (m *mockDispatcher) Close() error {
	return nil
}

func (m *mockDispatcher) last() *event.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.events) == 0 {
		return nil
	}
	return m.events[len(m.events)-1]
}

// mockExporter writes a fixed marker and remembers what it rendered
type mockExporter struct {
	err    error
	report *entity.Report
	rows   []*entity.Transaction
}

func (m *mockExporter) ContentType() string {
	return "text/plain"
}

func (m *mockExporter) FileExtension() string {
	return ".txt"
}

func (m *mockExporter) Export(w io.Writer, report *entity.Report, rows []*entity.Transaction) error {
	if m.err != nil {
		return m.err
	}
	m.report = report
	m.rows = rows
	_, err := io.WriteString(w, "exported")
	return err
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
