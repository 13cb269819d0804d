// Package session owns the authenticated state of one console instance.
//
// The Manager is the only writer of both the in-memory session and the
// credential store. Every transition updates the two under the same lock,
// so a caller reading through the Manager never observes an identity
// without a token or a token without an identity.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jrsteele09/go-hr-console/credentials"
	errs "github.com/jrsteele09/go-hr-console/internal/errors"
	"github.com/jrsteele09/go-hr-console/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultLoginPath is where a stale session is sent
const DefaultLoginPath = "/login"

// API is the part of the gateway the Manager needs
type API interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	OnUnauthenticated(fn func(ctx context.Context)) (unsubscribe func())
}

// credentialExchangeKey marks requests whose 401 is a local, user-correctable
// failure rather than a stale session.
type credentialExchangeKey struct{}

type authResponse struct {
	Token   string          `json:"token"`
	User    *users.Identity `json:"user"`
	Profile *users.Profile  `json:"profile"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type photoRequest struct {
	Photo string `json:"photo"`
}

// Manager orchestrates login, registration, logout and startup rehydration
type Manager struct {
	store     *credentials.Store
	api       API
	nav       Navigator
	loginPath string
	endpoints Endpoints
	logger    zerolog.Logger

	initOnce sync.Once

	mu           sync.RWMutex
	state        State
	initializing bool
	identity     *users.Identity
	profile      *users.Profile
	generation   uint64 // bumped on every identity change

	subMu       sync.Mutex
	subscribers map[int]func(Snapshot)
	nextSubID   int

	unsubscribeAPI func()
}

// Option configures a Manager
type Option func(*Manager)

// WithNavigator sets the navigator told to go to the login path on 401
func WithNavigator(nav Navigator) Option {
	return func(m *Manager) {
		m.nav = nav
	}
}

// WithLoginPath overrides DefaultLoginPath
func WithLoginPath(path string) Option {
	return func(m *Manager) {
		m.loginPath = path
	}
}

// WithEndpoints overrides DefaultEndpoints
func WithEndpoints(endpoints Endpoints) Option {
	return func(m *Manager) {
		m.endpoints = endpoints
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager in the Uninitialized state and subscribes it
// to the gateway's authentication failures.
func NewManager(store *credentials.Store, api API, options ...Option) (*Manager, error) {
	if store == nil {
		return nil, errors.New("[NewManager] credential store is required")
	}
	if api == nil {
		return nil, errors.New("[NewManager] api is required")
	}

	m := &Manager{
		store:       store,
		api:         api,
		loginPath:   DefaultLoginPath,
		endpoints:   DefaultEndpoints(),
		logger:      log.Logger,
		state:       StateUninitialized,
		subscribers: make(map[int]func(Snapshot)),
	}
	for _, opt := range options {
		opt(m)
	}

	m.unsubscribeAPI = api.OnUnauthenticated(m.handleUnauthenticated)
	return m, nil
}

// Close detaches the Manager from the gateway
func (m *Manager) Close() {
	if m.unsubscribeAPI != nil {
		m.unsubscribeAPI()
	}
}

// Init rehydrates the session from the credential store. It runs once; later
// calls are no-ops. No network call is made.
func (m *Manager) Init(ctx context.Context) {
	m.initOnce.Do(func() {
		m.mu.Lock()
		m.initializing = true
		m.mu.Unlock()
		m.notify(m.Snapshot())

		record := m.store.Read(ctx)

		m.mu.Lock()
		switch {
		case record.Token != "" && record.Identity != nil && record.Identity.Role.Valid():
			m.state = StateAuthenticated
			m.identity = record.Identity
			m.profile = record.Profile
			m.generation++
		case !record.Empty():
			// A token without an identity (or the reverse) cannot be trusted
			m.logger.Warn().Msg("Discarding incomplete stored credentials")
			m.store.Clear(ctx)
			m.state = StateAnonymous
		default:
			m.state = StateAnonymous
		}
		m.initializing = false
		snapshot := m.snapshotLocked()
		m.mu.Unlock()

		m.notify(snapshot)
	})
}

// Login exchanges an email and password for a session. On failure the
// existing session is left untouched and the backend's error is returned.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	var resp authResponse
	err := m.api.Post(credentialExchange(ctx), m.endpoints.Login, loginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return fmt.Errorf("[Manager Login] %w", err)
	}
	if err := m.establish(ctx, resp); err != nil {
		return fmt.Errorf("[Manager Login] %w", err)
	}
	return nil
}

// Register creates an account and signs it in, exactly like Login
func (m *Manager) Register(ctx context.Context, name, email, password string) error {
	var resp authResponse
	err := m.api.Post(credentialExchange(ctx), m.endpoints.Register, registerRequest{Name: name, Email: email, Password: password}, &resp)
	if err != nil {
		return fmt.Errorf("[Manager Register] %w", err)
	}
	if err := m.establish(ctx, resp); err != nil {
		return fmt.Errorf("[Manager Register] %w", err)
	}
	return nil
}

// Logout asks the backend to invalidate the token, then clears the local
// session whatever the outcome. The remote call may fail if the token has
// already expired; the token is unusable client-side either way.
func (m *Manager) Logout(ctx context.Context) {
	if m.store.Token(ctx) != "" {
		if err := m.api.Post(credentialExchange(ctx), m.endpoints.Logout, nil, nil); err != nil {
			m.logger.Debug().Err(err).Msg("Remote logout failed, clearing local session anyway")
		}
	}
	m.reset(ctx)
}

// LoadProfile fetches the staff record of the signed-in identity. The result
// is dropped if the identity changed while the request was in flight.
func (m *Manager) LoadProfile(ctx context.Context) error {
	generation, ok := m.currentGeneration()
	if !ok {
		return fmt.Errorf("[Manager LoadProfile] %w", errs.ErrNoSession)
	}

	var profile users.Profile
	if err := m.api.Get(ctx, m.endpoints.Profile, &profile); err != nil {
		return fmt.Errorf("[Manager LoadProfile] %w", err)
	}
	m.applyProfile(ctx, generation, &profile)
	return nil
}

// ChangePhoto submits a new photo and persists the accepted profile
func (m *Manager) ChangePhoto(ctx context.Context, photo string) error {
	generation, ok := m.currentGeneration()
	if !ok {
		return fmt.Errorf("[Manager ChangePhoto] %w", errs.ErrNoSession)
	}

	var profile users.Profile
	if err := m.api.Put(ctx, m.endpoints.Photo, photoRequest{Photo: photo}, &profile); err != nil {
		return fmt.Errorf("[Manager ChangePhoto] %w", err)
	}
	m.applyProfile(ctx, generation, &profile)
	return nil
}

// Snapshot returns a copy of the current session
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every change
func (m *Manager) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	m.subMu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = fn
	m.subMu.Unlock()

	return func() {
		m.subMu.Lock()
		delete(m.subscribers, id)
		m.subMu.Unlock()
	}
}

// handleUnauthenticated is the single coordinator of the gateway's 401 event
func (m *Manager) handleUnauthenticated(ctx context.Context) {
	if isCredentialExchange(ctx) {
		return
	}
	if m.nav != nil && m.nav.Location(ctx) == m.loginPath {
		return
	}

	m.logger.Info().Msg("Backend rejected the session credential, signing out")
	m.reset(ctx)

	if m.nav != nil {
		m.nav.Navigate(ctx, m.loginPath)
	}
}

func (m *Manager) establish(ctx context.Context, resp authResponse) error {
	if resp.Token == "" || resp.User == nil {
		return errs.ErrMalformedResponse
	}
	if !resp.User.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", errs.ErrMalformedResponse, resp.User.Role)
	}

	m.mu.Lock()
	m.store.Write(ctx, resp.Token, resp.User, resp.Profile)
	m.state = StateAuthenticated
	m.identity = resp.User
	m.profile = resp.Profile
	m.generation++
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	m.logger.Info().Str("user_id", resp.User.ID).Str("role", string(resp.User.Role)).Msg("Session established")
	m.notify(snapshot)
	return nil
}

func (m *Manager) reset(ctx context.Context) {
	m.mu.Lock()
	m.store.Clear(ctx)
	m.state = StateAnonymous
	m.identity = nil
	m.profile = nil
	m.generation++
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snapshot)
}

func (m *Manager) applyProfile(ctx context.Context, generation uint64, profile *users.Profile) {
	m.mu.Lock()
	if m.generation != generation || m.state != StateAuthenticated {
		m.mu.Unlock()
		m.logger.Debug().Msg("Dropping profile for a session that is no longer current")
		return
	}

	identity := *m.identity
	if profile != nil && profile.Photo != "" {
		identity.Photo = profile.Photo
	}
	m.store.Write(ctx, m.store.Token(ctx), &identity, profile)
	m.identity = &identity
	m.profile = profile
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snapshot)
}

func (m *Manager) currentGeneration() (uint64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generation, m.state == StateAuthenticated
}

func (m *Manager) snapshotLocked() Snapshot {
	s := Snapshot{
		State:        m.state,
		Initializing: m.initializing,
	}
	if m.identity != nil {
		identity := *m.identity
		s.Identity = &identity
	}
	if m.profile != nil {
		profile := *m.profile
		s.Profile = &profile
	}
	return s
}

func (m *Manager) notify(snapshot Snapshot) {
	m.subMu.Lock()
	subscribers := make([]func(Snapshot), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		subscribers = append(subscribers, fn)
	}
	m.subMu.Unlock()

	for _, fn := range subscribers {
		fn(snapshot)
	}
}

func credentialExchange(ctx context.Context) context.Context {
	return context.WithValue(ctx, credentialExchangeKey{}, true)
}

func isCredentialExchange(ctx context.Context) bool {
	v, _ := ctx.Value(credentialExchangeKey{}).(bool)
	return v
}
