// Package mockbackend is an in-memory stand-in for the HR REST backend. It
// issues real bearer tokens and enforces roles so the console can be run
// and tested without the production service.
package mockbackend

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"
	"net/mail"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/go-hr-console/hr"
	"github.com/jrsteele09/go-hr-console/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	MessageBadCredentials  = "These credentials do not match our records."
	MessageUnauthenticated = "Unauthenticated."
	MessageForbidden       = "This action is unauthorized."
	MessageInvalid         = "The given data was invalid."
	MessageNotFound        = "Record not found."
)

type accountKey struct{}

// Backend serves the REST API
type Backend struct {
	accounts    *accountRepo
	tokens      *tokenIssuer
	collections map[string]*collection
	logger      zerolog.Logger
}

type options struct {
	seed     *Seed
	secret   []byte
	tokenTTL time.Duration
	logger   zerolog.Logger
}

// Option configures a Backend
type Option func(*options)

// WithSeed replaces DefaultSeed
func WithSeed(seed *Seed) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithSecret sets the HS256 signing key, random by default
func WithSecret(secret []byte) Option {
	return func(o *options) {
		o.secret = secret
	}
}

// WithTokenTTL sets how long issued tokens stay valid
func WithTokenTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.tokenTTL = ttl
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New creates a Backend loaded with its seed
func New(opts ...Option) (*Backend, error) {
	o := options{
		seed:     DefaultSeed(),
		tokenTTL: 8 * time.Hour,
		logger:   log.Logger,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if len(o.secret) == 0 {
		o.secret = make([]byte, 32)
		if _, err := rand.Read(o.secret); err != nil {
			return nil, fmt.Errorf("[mockbackend.New] generating secret: %w", err)
		}
	}

	b := &Backend{
		accounts:    newAccountRepo(),
		tokens:      newTokenIssuer(o.secret, o.tokenTTL),
		collections: make(map[string]*collection),
		logger:      o.logger,
	}
	for _, s := range hr.Screens() {
		b.collections[s.Endpoint] = newCollection(s)
	}

	for _, a := range o.seed.Accounts {
		hash, err := users.HashPassword(a.Password)
		if err != nil {
			return nil, fmt.Errorf("[mockbackend.New] hashing password for %s: %w", a.Email, err)
		}
		b.accounts.Upsert(&Account{
			Name:         a.Name,
			Email:        a.Email,
			Role:         a.Role,
			PasswordHash: hash,
			Photo:        a.Photo,
			Profile:      a.Profile,
		})
	}
	for endpoint, records := range o.seed.Collections {
		c, ok := b.collections[endpoint]
		if !ok {
			return nil, fmt.Errorf("[mockbackend.New] unknown collection %q", endpoint)
		}
		for _, r := range records {
			c.insert(r)
		}
	}
	return b, nil
}

// Handler returns the HTTP API
func (b *Backend) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /login", b.handleLogin)
	mux.HandleFunc("POST /register", b.handleRegister)
	mux.HandleFunc("POST /logout", b.requireBearer(b.handleLogout))
	mux.HandleFunc("GET /profile", b.requireBearer(b.handleGetProfile))
	mux.HandleFunc("PUT /profile/photo", b.requireBearer(b.handleChangePhoto))

	mux.HandleFunc("GET /{collection}", b.requireBearer(b.withCollection(b.handleList)))
	mux.HandleFunc("POST /{collection}", b.requireBearer(b.withCollection(b.handleCreate)))
	mux.HandleFunc("GET /{collection}/{id}", b.requireBearer(b.withCollection(b.handleFind)))
	mux.HandleFunc("PUT /{collection}/{id}", b.requireBearer(b.withCollection(b.handleUpdate)))
	mux.HandleFunc("PATCH /{collection}/{id}", b.requireBearer(b.withCollection(b.handleUpdate)))
	mux.HandleFunc("DELETE /{collection}/{id}", b.requireBearer(b.withCollection(b.handleDelete)))

	return b.logRequests(mux)
}

type authResponse struct {
	Token   string          `json:"token"`
	User    *users.Identity `json:"user"`
	Profile *users.Profile  `json:"profile,omitempty"`
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed request body.")
		return
	}

	problems := map[string][]string{}
	if strings.TrimSpace(req.Email) == "" {
		problems["email"] = append(problems["email"], "The email field is required.")
	}
	if req.Password == "" {
		problems["password"] = append(problems["password"], "The password field is required.")
	}
	if len(problems) > 0 {
		writeValidation(w, problems)
		return
	}

	account, err := b.accounts.GetByEmail(req.Email)
	if err != nil || !users.CheckPasswordHash(req.Password, account.PasswordHash) {
		b.logger.Debug().Str("email", req.Email).Msg("Rejected login")
		writeMessage(w, http.StatusUnauthorized, MessageBadCredentials)
		return
	}
	b.issue(w, http.StatusOK, account)
}

func (b *Backend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed request body.")
		return
	}

	problems := map[string][]string{}
	if strings.TrimSpace(req.Name) == "" {
		problems["name"] = append(problems["name"], "The name field is required.")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		problems["email"] = append(problems["email"], "The email must be a valid email address.")
	} else if _, err := b.accounts.GetByEmail(req.Email); err == nil {
		problems["email"] = append(problems["email"], "The email has already been taken.")
	}
	if err := users.ValidatePasswordStrength(req.Password); err != nil {
		problems["password"] = append(problems["password"], err.Error())
	}
	if len(problems) > 0 {
		writeValidation(w, problems)
		return
	}

	hash, err := users.HashPassword(req.Password)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Server Error")
		return
	}

	first, last, _ := strings.Cut(strings.TrimSpace(req.Name), " ")
	account := b.accounts.Upsert(&Account{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		Role:         users.RoleEmployee,
		PasswordHash: hash,
		Profile: &users.Profile{
			FirstName: first,
			LastName:  strings.TrimSpace(last),
			Email:     normaliseEmail(req.Email),
			HiredAt:   NowTimeFunc().UTC().Truncate(time.Second),
		},
	})
	b.logger.Info().Str("email", account.Email).Msg("Registered account")
	b.issue(w, http.StatusCreated, account)
}

func (b *Backend) issue(w http.ResponseWriter, status int, account *Account) {
	token, err := b.tokens.Issue(account)
	if err != nil {
		b.logger.Err(err).Msg("Failed to issue token")
		writeMessage(w, http.StatusInternalServerError, "Server Error")
		return
	}
	writeJSON(w, status, authResponse{Token: token, User: account.Identity(), Profile: account.Profile})
}

func (b *Backend) handleLogout(w http.ResponseWriter, r *http.Request) {
	b.tokens.Revoke(claimsFrom(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	account := accountFrom(r.Context())
	writeJSON(w, http.StatusOK, profileOf(account))
}

func (b *Backend) handleChangePhoto(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Photo string `json:"photo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Photo) == "" {
		writeValidation(w, map[string][]string{"photo": {"The photo field is required."}})
		return
	}

	photo := strings.TrimSpace(req.Photo)
	updated, err := b.accounts.Update(accountFrom(r.Context()).ID, func(a *Account) {
		profile := profileOf(a)
		profile.Photo = photo
		a.Profile = profile
		a.Photo = photo
	})
	if err != nil {
		writeMessage(w, http.StatusNotFound, MessageNotFound)
		return
	}
	writeJSON(w, http.StatusOK, updated.Profile)
}

// profileOf returns a copy of the account's staff record, synthesised for
// accounts without one
func profileOf(a *Account) *users.Profile {
	if a.Profile != nil {
		p := *a.Profile
		return &p
	}
	first, last, _ := strings.Cut(a.Name, " ")
	return &users.Profile{ID: a.ID, FirstName: first, LastName: last, Email: a.Email, Photo: a.Photo}
}

func (b *Backend) handleList(w http.ResponseWriter, r *http.Request, c *collection) {
	items := c.list()
	writeJSON(w, http.StatusOK, map[string]any{"data": items, "total": len(items)})
}

func (b *Backend) handleFind(w http.ResponseWriter, r *http.Request, c *collection) {
	record, ok := c.get(r.PathValue("id"))
	if !ok {
		writeMessage(w, http.StatusNotFound, MessageNotFound)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (b *Backend) handleCreate(w http.ResponseWriter, r *http.Request, c *collection) {
	var payload hr.Record
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	if problems := c.screen.Validate(payload); problems != nil {
		writeValidation(w, problems)
		return
	}
	writeJSON(w, http.StatusCreated, c.insert(payload))
}

func (b *Backend) handleUpdate(w http.ResponseWriter, r *http.Request, c *collection) {
	var payload hr.Record
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	record, problems, ok := c.update(r.PathValue("id"), payload)
	switch {
	case !ok:
		writeMessage(w, http.StatusNotFound, MessageNotFound)
	case problems != nil:
		writeValidation(w, problems)
	default:
		writeJSON(w, http.StatusOK, record)
	}
}

func (b *Backend) handleDelete(w http.ResponseWriter, r *http.Request, c *collection) {
	if !c.delete(r.PathValue("id")) {
		writeMessage(w, http.StatusNotFound, MessageNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// requireBearer rejects requests without a valid, unrevoked bearer token
func (b *Backend) requireBearer(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeMessage(w, http.StatusUnauthorized, MessageUnauthenticated)
			return
		}
		claims, err := b.tokens.Verify(raw)
		if err != nil {
			b.logger.Debug().Err(err).Msg("Rejected bearer token")
			writeMessage(w, http.StatusUnauthorized, MessageUnauthenticated)
			return
		}
		account, err := b.accounts.GetByID(claims.Subject)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, MessageUnauthenticated)
			return
		}

		ctx := context.WithValue(r.Context(), accountKey{}, &authContext{account: account, claims: claims})
		next(w, r.WithContext(ctx))
	}
}

// withCollection resolves the collection and enforces the screen's role
func (b *Backend) withCollection(next func(http.ResponseWriter, *http.Request, *collection)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := b.collections[r.PathValue("collection")]
		if !ok {
			writeMessage(w, http.StatusNotFound, MessageNotFound)
			return
		}
		if c.screen.Role != "" && accountFrom(r.Context()).Role != c.screen.Role {
			writeMessage(w, http.StatusForbidden, MessageForbidden)
			return
		}
		next(w, r, c)
	}
}

func (b *Backend) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		b.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("Backend request")
	})
}

type authContext struct {
	account *Account
	claims  *tokenClaims
}

func accountFrom(ctx context.Context) *Account {
	return ctx.Value(accountKey{}).(*authContext).account
}

func claimsFrom(ctx context.Context) *tokenClaims {
	return ctx.Value(accountKey{}).(*authContext).claims
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func writeValidation(w http.ResponseWriter, problems map[string][]string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"message": MessageInvalid, "errors": problems})
}

// collection is the in-memory table behind one catalogue endpoint
type collection struct {
	screen hr.Screen

	mu     sync.Mutex
	items  map[int]hr.Record
	nextID int
}

func newCollection(screen hr.Screen) *collection {
	return &collection{screen: screen, items: make(map[int]hr.Record), nextID: 1}
}

func (c *collection) insert(payload hr.Record) hr.Record {
	c.mu.Lock()
	defer c.mu.Unlock()

	record := make(hr.Record, len(payload)+1)
	for k, v := range payload {
		record[k] = v
	}
	record["id"] = c.nextID
	c.items[c.nextID] = record
	c.nextID++
	return record
}

func (c *collection) list() []hr.Record {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]int, 0, len(c.items))
	for id := range c.items {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]hr.Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.items[id])
	}
	return out
}

func (c *collection) get(rawID string) (hr.Record, bool) {
	id, err := strconv.Atoi(rawID)
	if err != nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.items[id]
	return r, ok
}

func (c *collection) update(rawID string, payload hr.Record) (hr.Record, map[string][]string, bool) {
	id, err := strconv.Atoi(rawID)
	if err != nil {
		return nil, nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, ok := c.items[id]
	if !ok {
		return nil, nil, false
	}
	merged := make(hr.Record, len(existing)+len(payload))
	for k, v := range existing {
		merged[k] = v
	}
	for k, v := range payload {
		merged[k] = v
	}
	merged["id"] = id

	if problems := c.screen.Validate(merged); problems != nil {
		return nil, problems, true
	}
	c.items[id] = merged
	return merged, nil, true
}

func (c *collection) delete(rawID string) bool {
	id, err := strconv.Atoi(rawID)
	if err != nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[id]; !ok {
		return false
	}
	delete(c.items, id)
	return true
}
