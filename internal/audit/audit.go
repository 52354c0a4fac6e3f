package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Actions recorded by the pipeline.
const (
	ActionFileIngested   = "file.ingested"
	ActionFileRejected   = "file.rejected"
	ActionJoinCompleted  = "join.completed"
	ActionProposalMerged = "proposal.merged"
	ActionRaiseEdited    = "raise.edited"
	ActionValidationRun  = "validation.run"
	ActionSettingsSaved  = "settings.saved"
	ActionSessionReset   = "session.reset"
)

// Event is one append-only audit record.
type Event struct {
	ID         string         `json:"id"`
	Action     string         `json:"action"`
	Timestamp  time.Time      `json:"timestamp"`
	EmployeeID string         `json:"employeeId,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

// Emit assigns an ID and timestamp when missing and appends the event.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return p.store.Append(ctx, event)
}

// List returns the most recent events, newest first.
func (p *Publisher) List(ctx context.Context, limit int) ([]Event, error) {
	return p.store.ListRecent(ctx, limit)
}

// MemoryStore is the default append-only sink.
type MemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *MemoryStore) ListRecent(_ context.Context, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.events) {
		limit = len(s.events)
	}
	out := make([]Event, 0, limit)
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.events[i])
	}
	return out, nil
}
