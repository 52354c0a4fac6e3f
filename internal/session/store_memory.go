package session

import (
	"context"
	"sync"
	"time"

	"compass/internal/employee/models"
	"compass/internal/ingest"
	"compass/pkg/sentinel"
)

// MemoryEmployeeStore is the default store: mutex-guarded map plus insertion
// order, so List returns employees the way the join produced them.
type MemoryEmployeeStore struct {
	mu    sync.RWMutex
	byID  map[string]*models.Employee
	order []string
}

func NewMemoryEmployeeStore() *MemoryEmployeeStore {
	return &MemoryEmployeeStore{byID: make(map[string]*models.Employee)}
}

func (s *MemoryEmployeeStore) ReplaceAll(_ context.Context, employees []*models.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = make(map[string]*models.Employee, len(employees))
	s.order = s.order[:0]
	for _, emp := range employees {
		clone := *emp
		if _, exists := s.byID[emp.EmployeeID]; !exists {
			s.order = append(s.order, emp.EmployeeID)
		}
		s.byID[emp.EmployeeID] = &clone
	}
	return nil
}

func (s *MemoryEmployeeStore) List(_ context.Context) ([]*models.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Employee, 0, len(s.order))
	for _, id := range s.order {
		clone := *s.byID[id]
		out = append(out, &clone)
	}
	return out, nil
}

func (s *MemoryEmployeeStore) Get(_ context.Context, employeeID string) (*models.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	emp, ok := s.byID[employeeID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *emp
	return &clone, nil
}

func (s *MemoryEmployeeStore) Update(_ context.Context, emp *models.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[emp.EmployeeID]; !ok {
		return sentinel.ErrNotFound
	}
	clone := *emp
	s.byID[emp.EmployeeID] = &clone
	return nil
}

func (s *MemoryEmployeeStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID = make(map[string]*models.Employee)
	s.order = nil
	return nil
}

// MemorySessionStore holds the single current session.
type MemorySessionStore struct {
	mu      sync.RWMutex
	current *Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{}
}

func (s *MemorySessionStore) Save(_ context.Context, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := sess
	s.current = &clone
	return nil
}

func (s *MemorySessionStore) Current(_ context.Context) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Session{}, sentinel.ErrNotFound
	}
	return *s.current, nil
}

func (s *MemorySessionStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	return nil
}

// MemoryFileCache is a TTL cache of parsed files keyed by content hash.
type MemoryFileCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]fileCacheEntry
	now     func() time.Time
}

type fileCacheEntry struct {
	result  *ingest.FileResult
	expires time.Time
}

func NewMemoryFileCache(ttl time.Duration) *MemoryFileCache {
	return &MemoryFileCache{
		ttl:     ttl,
		entries: make(map[string]fileCacheEntry),
		now:     time.Now,
	}
}

func (c *MemoryFileCache) Get(_ context.Context, contentHash string) (*ingest.FileResult, bool) {
	c.mu.RLock()
	entry, ok := c.entries[contentHash]
	c.mu.RUnlock()
	if !ok || c.now().After(entry.expires) {
		return nil, false
	}
	return entry.result, true
}

func (c *MemoryFileCache) Set(_ context.Context, contentHash string, result *ingest.FileResult) {
	c.mu.Lock()
	c.entries[contentHash] = fileCacheEntry{result: result, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *MemoryFileCache) Clear(_ context.Context) {
	c.mu.Lock()
	c.entries = make(map[string]fileCacheEntry)
	c.mu.Unlock()
}
