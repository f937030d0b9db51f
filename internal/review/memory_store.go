package review

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/studyplan/pkg/models"
)

// MemoryStore is an in-memory implementation of Store and ReviewLogger,
// used by tests and by the "memory" database driver.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[stateKey]*models.MemoryState
	logs   []models.ReviewLog
	now    func() time.Time
}

type stateKey struct {
	userID    string
	conceptID string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states: make(map[stateKey]*models.MemoryState),
		now:    time.Now,
	}
}

// Get returns a copy of the stored state.
func (m *MemoryStore) Get(_ context.Context, userID, conceptID string) (*models.MemoryState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.states[stateKey{userID, conceptID}]
	if !ok {
		return nil, ErrNotFound
	}
	c := s.Clone()
	return &c, nil
}

// Create inserts a new state, assigning an ID if it has none.
func (m *MemoryStore) Create(_ context.Context, state *models.MemoryState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := stateKey{state.UserID, state.ConceptID}
	if _, ok := m.states[key]; ok {
		return ErrAlreadyExists
	}
	if state.ID == "" {
		state.ID = uuid.NewString()
	}
	if state.CreatedAt.IsZero() {
		state.CreatedAt = m.now()
	}
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = state.CreatedAt
	}
	state.Version = 1

	c := state.Clone()
	m.states[key] = &c
	return nil
}

// Put replaces the stored state when the versions match.
func (m *MemoryStore) Put(_ context.Context, state *models.MemoryState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := stateKey{state.UserID, state.ConceptID}
	cur, ok := m.states[key]
	if !ok {
		return ErrNotFound
	}
	if cur.Version != state.Version {
		return ErrConflict
	}

	state.Version++
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = m.now()
	}
	c := state.Clone()
	m.states[key] = &c
	return nil
}

// ListDue returns due states for a learner.
func (m *MemoryStore) ListDue(_ context.Context, userID string, asOf time.Time) ([]models.MemoryState, error) {
	return m.list(func(s *models.MemoryState) bool {
		return s.UserID == userID && s.IsDue(asOf)
	}), nil
}

// ListAll returns every state for a learner.
func (m *MemoryStore) ListAll(_ context.Context, userID string) ([]models.MemoryState, error) {
	return m.list(func(s *models.MemoryState) bool {
		return s.UserID == userID
	}), nil
}

// Delete removes a state.
func (m *MemoryStore) Delete(_ context.Context, userID, conceptID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := stateKey{userID, conceptID}
	if _, ok := m.states[key]; !ok {
		return ErrNotFound
	}
	delete(m.states, key)
	return nil
}

// CountDueByUser counts due states per learner.
func (m *MemoryStore) CountDueByUser(_ context.Context, asOf time.Time) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[string]int)
	for _, s := range m.states {
		if s.IsDue(asOf) {
			counts[s.UserID]++
		}
	}
	return counts, nil
}

// Append records an audit entry.
func (m *MemoryStore) Append(_ context.Context, entry *models.ReviewLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	m.logs = append(m.logs, *entry)
	return nil
}

// Logs returns a copy of all audit entries in insertion order.
func (m *MemoryStore) Logs() []models.ReviewLog {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.ReviewLog, len(m.logs))
	copy(out, m.logs)
	return out
}

func (m *MemoryStore) list(keep func(*models.MemoryState) bool) []models.MemoryState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.MemoryState
	for _, s := range m.states {
		if keep(s) {
			out = append(out, s.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].NextReview.Equal(out[j].NextReview) {
			return out[i].NextReview.Before(out[j].NextReview)
		}
		return out[i].ConceptID < out[j].ConceptID
	})
	return out
}
