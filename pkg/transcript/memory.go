package transcript

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps transcripts in process memory. It backs tests and runs
// without a DATABASE_URL.
type MemoryStore struct {
	mu    sync.RWMutex
	steps map[string][]StepRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{steps: map[string][]StepRecord{}}
}

func (m *MemoryStore) AppendStep(ctx context.Context, s StepRecord) (StepRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing := m.steps[s.SessionID]
	s.Seq = int64(len(existing)) + 1
	if s.StepID == "" {
		s.StepID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	m.steps[s.SessionID] = append(existing, s)
	return s, nil
}

func (m *MemoryStore) ListSteps(ctx context.Context, sessionID string, afterSeq int64, limit int) ([]StepRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []StepRecord
	for _, s := range m.steps[sessionID] {
		if s.Seq <= afterSeq {
			continue
		}
		out = append(out, s)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) LastSeq(ctx context.Context, sessionID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.steps[sessionID])), nil
}

func (m *MemoryStore) Close() error { return nil }
