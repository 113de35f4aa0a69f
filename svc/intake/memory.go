package intake

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/formgate/pkg/quota"
)

// MemoryRepository keeps forms and submissions in process memory. It also satisfies
// quota.Counter, so a Service can run without Postgres in tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	forms map[uuid.UUID]Form
	subs  map[uuid.UUID][]Submission // per form, insertion order
}

var (
	_ Repository    = (*MemoryRepository)(nil)
	_ quota.Counter = (*MemoryRepository)(nil)
)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		forms: make(map[uuid.UUID]Form),
		subs:  make(map[uuid.UUID][]Submission),
	}
}

func (m *MemoryRepository) GetForm(_ context.Context, formID uuid.UUID) (Form, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.forms[formID]
	if !ok {
		return Form{}, ErrFormNotFound
	}
	return f, nil
}

func (m *MemoryRepository) InsertForm(_ context.Context, f Form) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forms[f.ID] = f
	return nil
}

func (m *MemoryRepository) InsertSubmission(_ context.Context, s Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.forms[s.FormID]; !ok {
		return ErrFormNotFound
	}
	m.subs[s.FormID] = append(m.subs[s.FormID], s)
	return nil
}

func (m *MemoryRepository) CountFormSubmissions(_ context.Context, formID uuid.UUID) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.subs[formID])), nil
}

func (m *MemoryRepository) ListSubmissions(_ context.Context, formID uuid.UUID, visible, offset, limit int64) ([]Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.subs[formID]
	visible = min(visible, int64(len(all)))
	shown := slices.Clone(all[:visible])
	slices.Reverse(shown)
	if offset >= int64(len(shown)) {
		return []Submission{}, nil
	}
	end := min(offset+limit, int64(len(shown)))
	return shown[offset:end], nil
}

func (m *MemoryRepository) CountForms(_ context.Context, accountID uuid.UUID) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, f := range m.forms {
		if f.AccountID == accountID {
			n++
		}
	}
	return n, nil
}

func (m *MemoryRepository) CountSubmissionsSince(_ context.Context, accountID uuid.UUID, since time.Time) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for formID, subs := range m.subs {
		if m.forms[formID].AccountID != accountID {
			continue
		}
		for _, s := range subs {
			if !s.CreatedAt.Before(since) {
				n++
			}
		}
	}
	return n, nil
}
