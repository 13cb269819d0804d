package browsers

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo keeps live browsers in process memory. Durable state lives in
// each browser's credential store, so a dropped entry is rebuilt and
// rehydrated on the visitor's next request.
type InMemoryRepo struct {
	mu       sync.Mutex
	browsers map[string]*Browser
	build    Builder
}

func NewInMemoryRepo(build Builder) *InMemoryRepo {
	return &InMemoryRepo{
		browsers: make(map[string]*Browser),
		build:    build,
	}
}

// GetOrCreate returns the browser for id, building it on first sight
func (r *InMemoryRepo) GetOrCreate(ctx context.Context, id string) (*Browser, error) {
	if id == "" {
		return nil, fmt.Errorf("browser id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.browsers[id]; ok {
		b.lastSeen = NowTimeFunc()
		return b, nil
	}

	b, err := r.build(id)
	if err != nil {
		return nil, fmt.Errorf("[InMemoryRepo GetOrCreate] %w", err)
	}
	b.ID = id
	b.lastSeen = NowTimeFunc()
	r.browsers[id] = b
	return b, nil
}

// Get returns a live browser without creating one
func (r *InMemoryRepo) Get(id string) (*Browser, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.browsers[id]
	return b, ok
}

// Delete drops a browser from memory
func (r *InMemoryRepo) Delete(id string) {
	r.mu.Lock()
	b, ok := r.browsers[id]
	delete(r.browsers, id)
	r.mu.Unlock()

	if ok {
		b.Close()
	}
}

// Sweep drops browsers not seen for maxIdle and returns how many went
func (r *InMemoryRepo) Sweep(maxIdle time.Duration) int {
	cutoff := NowTimeFunc().Add(-maxIdle)

	r.mu.Lock()
	var idle []*Browser
	for id, b := range r.browsers {
		if b.lastSeen.Before(cutoff) {
			idle = append(idle, b)
			delete(r.browsers, id)
		}
	}
	r.mu.Unlock()

	for _, b := range idle {
		b.Close()
	}
	return len(idle)
}
