package submission

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local Store. Expired records are dropped lazily
// on access and by an optional cleanup loop.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*Record
	now     func() time.Time
	ticker  *time.Ticker
	done    chan struct{}
	closed  sync.Once
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryClock overrides time.Now. Used in tests.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(m *MemoryStore) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemoryStore creates a store. A positive cleanupInterval starts a
// background loop stopped by Close.
func NewMemoryStore(cleanupInterval time.Duration, opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		records: make(map[string]*Record),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	if cleanupInterval > 0 {
		m.ticker = time.NewTicker(cleanupInterval)
		go m.cleanupLoop()
	}
	return m
}

func (m *MemoryStore) Save(ctx context.Context, rec *Record) error {
	if err := rec.validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.records[rec.SessionID]; ok && !existing.expired(m.now()) {
		return ErrAlreadySubmitted
	}
	cp := *rec
	m.records[rec.SessionID] = &cp
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, sessionID string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	cp := *rec
	return &cp, nil
}

func (m *MemoryStore) Fire(ctx context.Context, sessionID string, ev Event, detail string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	if err := rec.apply(ev, detail, m.now()); err != nil {
		return nil, err
	}
	cp := *rec
	return &cp, nil
}

func (m *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, sessionID)
	return nil
}

// DeleteExpired drops every expired record.
func (m *MemoryStore) DeleteExpired(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for id, rec := range m.records {
		if rec.expired(now) {
			delete(m.records, id)
		}
	}
	return nil
}

// Len returns the number of stored records, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// Close stops the cleanup loop.
func (m *MemoryStore) Close() error {
	m.closed.Do(func() {
		if m.ticker != nil {
			m.ticker.Stop()
		}
		close(m.done)
	})
	return nil
}

// lookup must be called with mu held.
func (m *MemoryStore) lookup(sessionID string) (*Record, error) {
	rec, ok := m.records[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	if rec.expired(m.now()) {
		delete(m.records, sessionID)
		return nil, ErrNotFound
	}
	return rec, nil
}

func (m *MemoryStore) cleanupLoop() {
	for {
		select {
		case <-m.ticker.C:
			_ = m.DeleteExpired(context.Background())
		case <-m.done:
			return
		}
	}
}
