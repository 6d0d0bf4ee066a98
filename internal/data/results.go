package data

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"switchwrapper/internal/model"
)

// Result is one interpreted optimizer run held for later retrieval.
type Result struct {
	ID        string
	Source    string
	Scenarios map[int]*model.Scenario
	CreatedAt time.Time
	ExpiresAt time.Time
}

// ResultStore keeps interpreted runs in memory under random IDs. Entries
// expire after the store's TTL.
type ResultStore struct {
	mu    sync.RWMutex
	store map[string]*Result
	ttl   time.Duration
	now   func() time.Time
}

// DefaultResultTTL is used when NewResultStore is given a non-positive TTL.
const DefaultResultTTL = time.Hour

func NewResultStore(ttl time.Duration) *ResultStore {
	if ttl <= 0 {
		ttl = DefaultResultTTL
	}
	return &ResultStore{
		store: make(map[string]*Result),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Put stores scenarios and returns the new entry.
func (c *ResultStore) Put(source string, scenarios map[int]*model.Scenario) *Result {
	now := c.now()
	r := &Result{
		ID:        uuid.NewString(),
		Source:    source,
		Scenarios: scenarios,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[r.ID] = r
	return r
}

// Get returns a stored result if present and not expired.
func (c *ResultStore) Get(id string) (*Result, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	r, ok := c.store[id]
	if !ok || c.now().After(r.ExpiresAt) {
		return nil, false
	}
	return r, true
}

func (c *ResultStore) Delete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, id)
}

func (c *ResultStore) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Prune removes expired entries and reports how many were dropped.
func (c *ResultStore) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for id, r := range c.store {
		if now.After(r.ExpiresAt) {
			delete(c.store, id)
			n++
		}
	}
	return n
}

// RunCleanup prunes every interval until stop is closed.
func (c *ResultStore) RunCleanup(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Prune()
		case <-stop:
			return
		}
	}
}
