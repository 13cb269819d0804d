package credentials

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/jrsteele09/go-hr-console/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Record is the persisted counterpart of a session. Each part is
// independently nullable on read.
type Record struct {
	Token    string
	Identity *users.Identity
	Profile  *users.Profile
}

// Empty reports whether nothing at all is stored
func (r Record) Empty() bool {
	return r.Token == "" && r.Identity == nil && r.Profile == nil
}

// Store persists the token, identity snapshot and profile snapshot of one
// browser profile. It never returns errors: when the backend fails the
// store keeps working for the lifetime of the process but the session
// will not survive a reload, which Persistent reports.
type Store struct {
	backend Backend
	logger  zerolog.Logger

	reload bool

	mu         sync.Mutex
	loaded     bool
	current    Record
	persistent bool
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithLogger sets the logger used to report degraded storage
func WithLogger(logger zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithReload makes the store read the backend on every access instead of
// once. Backends that expire entries (Redis with a TTL) need it for the
// expiry to reach a live browser.
func WithReload() StoreOption {
	return func(s *Store) {
		s.reload = true
	}
}

// NewStore wraps backend. A nil backend behaves like unavailable storage.
func NewStore(backend Backend, options ...StoreOption) *Store {
	s := &Store{
		backend:    backend,
		logger:     log.Logger,
		persistent: backend != nil,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Write stores the full triple. A nil profile removes any earlier profile.
func (s *Store) Write(ctx context.Context, token string, identity *users.Identity, profile *users.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loaded = true
	s.current = Record{
		Token:    token,
		Identity: cloneIdentity(identity),
		Profile:  cloneProfile(profile),
	}

	values := map[string]string{KeyToken: token}
	if identity != nil {
		data, err := json.Marshal(identity)
		if err != nil {
			s.degrade(err, "encode identity")
			return
		}
		values[KeyIdentity] = string(data)
	}
	if profile != nil {
		data, err := json.Marshal(profile)
		if err != nil {
			s.degrade(err, "encode profile")
			return
		}
		values[KeyProfile] = string(data)
	}

	if s.backend == nil {
		return
	}
	if err := s.backend.Save(ctx, values); err != nil {
		s.degrade(err, "save")
	}
}

// Read returns the stored triple, loading it from the backend on first use
func (s *Store) Read(ctx context.Context) Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.load(ctx)
	return Record{
		Token:    s.current.Token,
		Identity: cloneIdentity(s.current.Identity),
		Profile:  cloneProfile(s.current.Profile),
	}
}

// Token returns the stored bearer token or "" when there is none
func (s *Store) Token(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.load(ctx)
	return s.current.Token
}

// Clear removes all three values
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loaded = true
	s.current = Record{}
	if s.backend == nil {
		return
	}
	if err := s.backend.Clear(ctx); err != nil {
		s.degrade(err, "clear")
	}
}

// Persistent reports whether the credentials will survive a reload
func (s *Store) Persistent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistent
}

// load must be called with mu held. Once storage has failed the cached
// triple is the only copy and is no longer re-read.
func (s *Store) load(ctx context.Context) {
	if s.loaded && !(s.reload && s.persistent) {
		return
	}
	s.loaded = true
	if s.backend == nil {
		return
	}

	values, err := s.backend.Load(ctx)
	if err != nil {
		// Unreadable storage is indistinguishable from no session
		s.degrade(err, "load")
		return
	}

	s.current = Record{Token: values[KeyToken]}
	if raw := values[KeyIdentity]; raw != "" {
		var identity users.Identity
		if err := json.Unmarshal([]byte(raw), &identity); err != nil {
			s.logger.Warn().Err(err).Msg("Discarding unreadable identity snapshot")
		} else {
			s.current.Identity = &identity
		}
	}
	if raw := values[KeyProfile]; raw != "" {
		var profile users.Profile
		if err := json.Unmarshal([]byte(raw), &profile); err != nil {
			s.logger.Warn().Err(err).Msg("Discarding unreadable profile snapshot")
		} else {
			s.current.Profile = &profile
		}
	}
}

func (s *Store) degrade(err error, op string) {
	if s.persistent {
		s.logger.Warn().Err(err).Str("op", op).Msg("Credential storage unavailable, session will not persist")
	}
	s.persistent = false
}

func cloneIdentity(identity *users.Identity) *users.Identity {
	if identity == nil {
		return nil
	}
	c := *identity
	return &c
}

func cloneProfile(profile *users.Profile) *users.Profile {
	if profile == nil {
		return nil
	}
	c := *profile
	c.Roles = append([]string(nil), profile.Roles...)
	return &c
}
