// Package resource keeps a local copy of one backend collection in step with
// the server by re-reading the whole list after every successful mutation.
package resource

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/jrsteele09/go-hr-console/gateway"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// API is the part of the gateway a Synchronizer needs
type API interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
}

// Collection is a server-backed list of T
type Collection[T any] interface {
	List(ctx context.Context) error
	Create(ctx context.Context, payload any) error
	Update(ctx context.Context, id string, payload any) error
	Remove(ctx context.Context, id string) error
	Find(ctx context.Context, id string) (T, error)
	Items() []T
	IsLoading() bool
}

// Synchronizer is the Collection implementation for one endpoint
type Synchronizer[T any] struct {
	api      API
	endpoint string
	logger   zerolog.Logger

	mu       sync.Mutex
	items    []T
	inFlight int
	closed   bool
}

var _ Collection[struct{}] = (*Synchronizer[struct{}])(nil)

// Option configures a Synchronizer
type Option func(*options)

type options struct {
	logger zerolog.Logger
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New creates a Synchronizer for endpoint, relative to the gateway's base URL
func New[T any](api API, endpoint string, opts ...Option) (*Synchronizer[T], error) {
	if api == nil {
		return nil, errors.New("[resource.New] api is required")
	}
	endpoint = strings.Trim(endpoint, "/")
	if endpoint == "" {
		return nil, errors.New("[resource.New] endpoint is required")
	}

	o := options{logger: log.Logger}
	for _, opt := range opts {
		opt(&o)
	}

	return &Synchronizer[T]{
		api:      api,
		endpoint: endpoint,
		logger:   o.logger.With().Str("endpoint", endpoint).Logger(),
	}, nil
}

// List fetches the collection and replaces the local items. On failure the
// previous items are kept.
func (s *Synchronizer[T]) List(ctx context.Context) error {
	s.mu.Lock()
	s.inFlight++
	s.mu.Unlock()

	var items gateway.Collection[T]
	err := s.api.Get(ctx, s.endpoint, &items)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight--
	if s.closed {
		s.logger.Debug().Msg("Discarding list result for closed consumer")
		return err
	}
	if err != nil {
		return fmt.Errorf("[Synchronizer List] %w", err)
	}
	s.items = []T(items)
	if s.items == nil {
		s.items = []T{}
	}
	return nil
}

// Create posts payload and refreshes the collection on success
func (s *Synchronizer[T]) Create(ctx context.Context, payload any) error {
	if err := s.api.Post(ctx, s.endpoint, payload, nil); err != nil {
		return fmt.Errorf("[Synchronizer Create] %w", err)
	}
	return s.refresh(ctx)
}

// Update puts payload to the item and refreshes the collection on success
func (s *Synchronizer[T]) Update(ctx context.Context, id string, payload any) error {
	if err := s.api.Put(ctx, s.itemPath(id), payload, nil); err != nil {
		return fmt.Errorf("[Synchronizer Update] %w", err)
	}
	return s.refresh(ctx)
}

// Remove deletes the item and refreshes the collection on success
func (s *Synchronizer[T]) Remove(ctx context.Context, id string) error {
	if err := s.api.Delete(ctx, s.itemPath(id), nil); err != nil {
		return fmt.Errorf("[Synchronizer Remove] %w", err)
	}
	return s.refresh(ctx)
}

// Find reads a single item without touching the collection
func (s *Synchronizer[T]) Find(ctx context.Context, id string) (T, error) {
	var item T
	if err := s.api.Get(ctx, s.itemPath(id), &item); err != nil {
		return item, fmt.Errorf("[Synchronizer Find] %w", err)
	}
	return item, nil
}

// Items returns a copy of the last successfully listed items
func (s *Synchronizer[T]) Items() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]T(nil), s.items...)
}

// IsLoading reports whether a list call is in flight
func (s *Synchronizer[T]) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight > 0
}

// Close detaches the consumer. Results arriving afterwards are dropped.
func (s *Synchronizer[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *Synchronizer[T]) refresh(ctx context.Context) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil
	}

	// The write has taken effect, the caller still learns the list is stale
	if err := s.List(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Refresh after mutation failed")
		return err
	}
	return nil
}

func (s *Synchronizer[T]) itemPath(id string) string {
	return s.endpoint + "/" + url.PathEscape(id)
}
