package datastore

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/ideabox/pkg/subscription"
	"github.com/dmitrymomot/ideabox/svc/idea"
)

type memoryIdea struct {
	idea.Idea
	seq uint64
}

// Memory keeps everything in process memory. Safe for concurrent use.
type Memory struct {
	mu            sync.RWMutex
	seq           uint64
	ideas         map[string][]memoryIdea
	subscriptions map[string]subscription.Subscription
	now           func() time.Time

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithMemoryClock overrides the clock used for CreatedAt.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		ideas:         make(map[string][]memoryIdea),
		subscriptions: make(map[string]subscription.Subscription),
		locks:         make(map[string]*sync.Mutex),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithOwnerLock runs fn while holding the owner's mutex.
func (m *Memory) WithOwnerLock(ctx context.Context, ownerID string, fn func(ctx context.Context) error) error {
	m.locksMu.Lock()
	l, ok := m.locks[ownerID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[ownerID] = l
	}
	m.locksMu.Unlock()

	l.Lock()
	defer l.Unlock()
	return fn(ctx)
}

func (m *Memory) ListIdeas(_ context.Context, ownerID string) ([]idea.Idea, error) {
	m.mu.RLock()
	stored := slices.Clone(m.ideas[ownerID])
	m.mu.RUnlock()

	slices.SortFunc(stored, func(a, b memoryIdea) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		switch {
		case a.seq > b.seq:
			return -1
		case a.seq < b.seq:
			return 1
		}
		return 0
	})

	out := make([]idea.Idea, 0, len(stored))
	for _, s := range stored {
		i := s.Idea
		i.Tags = slices.Clone(i.Tags)
		out = append(out, i)
	}
	return out, nil
}

func (m *Memory) CountIdeas(_ context.Context, ownerID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.ideas[ownerID])), nil
}

func (m *Memory) InsertIdea(_ context.Context, i idea.Idea) (*idea.Idea, error) {
	i.ID = uuid.NewString()
	i.CreatedAt = m.now().UTC()
	i.Tags = slices.Clone(i.Tags)
	if i.Tags == nil {
		i.Tags = []string{}
	}

	m.mu.Lock()
	m.seq++
	m.ideas[i.OwnerID] = append(m.ideas[i.OwnerID], memoryIdea{Idea: i, seq: m.seq})
	m.mu.Unlock()

	out := i
	out.Tags = slices.Clone(i.Tags)
	return &out, nil
}

func (m *Memory) DeleteIdea(_ context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ideas[ownerID] = slices.DeleteFunc(m.ideas[ownerID], func(s memoryIdea) bool {
		return s.ID == id
	})
	return nil
}

func (m *Memory) GetSubscription(_ context.Context, ownerID string) (*subscription.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.subscriptions[ownerID]
	if !ok {
		return nil, subscription.ErrSubscriptionNotFound
	}
	return &s, nil
}

func (m *Memory) UpsertSubscription(_ context.Context, s subscription.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions[s.OwnerID] = s
	return nil
}

func (m *Memory) UpdateSubscriptionStatus(_ context.Context, ref string, status subscription.Status, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for owner, s := range m.subscriptions {
		if s.SubscriptionRef != ref {
			continue
		}
		s.Status = status
		s.UpdatedAt = at
		m.subscriptions[owner] = s
		n++
	}
	return n, nil
}
