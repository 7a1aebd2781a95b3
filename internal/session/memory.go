package session

import (
	"context"
	"sync"
	"time"

	"github.com/liliang-cn/askstock/internal/domain"
)

type memoryRecord struct {
	history   []domain.ConversationMessage
	data      map[string]string
	expiresAt time.Time
}

// MemoryStore implements Store with an in-process map. Expiry is lazy:
// records past their deadline are dropped when next touched, there is no
// background sweeper.
type MemoryStore struct {
	mu           sync.Mutex
	records      map[string]*memoryRecord
	ttl          time.Duration
	historyLimit int

	now func() time.Time // overridable in tests
}

// NewMemoryStore creates an in-memory session store.
func NewMemoryStore(ttl time.Duration, historyLimit int) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &MemoryStore{
		records:      make(map[string]*memoryRecord),
		ttl:          ttl,
		historyLimit: historyLimit,
		now:          time.Now,
	}
}

// History implements Store.
func (s *MemoryStore) History(ctx context.Context, userID string) ([]domain.ConversationMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.live(userID)
	if rec == nil {
		return nil, nil
	}
	s.touch(rec)

	out := make([]domain.ConversationMessage, len(rec.history))
	copy(out, rec.history)
	return out, nil
}

// AddMessage implements Store.
func (s *MemoryStore) AddMessage(ctx context.Context, userID string, msg domain.ConversationMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.liveOrNew(userID)
	rec.history = append(rec.history, msg)
	if n := len(rec.history); n > s.historyLimit {
		rec.history = rec.history[n-s.historyLimit:]
	}
	s.touch(rec)
	return nil
}

// Data implements Store.
func (s *MemoryStore) Data(ctx context.Context, userID string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.live(userID)
	if rec == nil {
		return map[string]string{}, nil
	}
	s.touch(rec)

	out := make(map[string]string, len(rec.data))
	for k, v := range rec.data {
		out[k] = v
	}
	return out, nil
}

// SetData implements Store.
func (s *MemoryStore) SetData(ctx context.Context, userID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.liveOrNew(userID)
	rec.data[key] = value
	s.touch(rec)
	return nil
}

// Clear implements Store.
func (s *MemoryStore) Clear(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, userID)
	return nil
}

// live returns the record for userID, dropping it first if expired.
// Caller must hold the lock.
func (s *MemoryStore) live(userID string) *memoryRecord {
	rec, ok := s.records[userID]
	if !ok {
		return nil
	}
	if s.now().After(rec.expiresAt) {
		delete(s.records, userID)
		return nil
	}
	return rec
}

func (s *MemoryStore) liveOrNew(userID string) *memoryRecord {
	if rec := s.live(userID); rec != nil {
		return rec
	}
	rec := &memoryRecord{data: make(map[string]string)}
	s.records[userID] = rec
	return rec
}

func (s *MemoryStore) touch(rec *memoryRecord) {
	rec.expiresAt = s.now().Add(s.ttl)
}
