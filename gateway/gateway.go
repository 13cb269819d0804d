// Package gateway is the single outbound HTTP client of the console. Every
// backend call goes through a Gateway, which attaches the bearer token and
// reports authentication failures to its listeners.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	errs "github.com/jrsteele09/go-hr-console/internal/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const contentTypeJSON = "application/json"

// TokenSource supplies the bearer token for outgoing requests.
// An empty token means the request is sent unauthenticated.
type TokenSource interface {
	Token(ctx context.Context) string
}

// Gateway sends JSON requests to the backend
type Gateway struct {
	baseURL *url.URL
	tokens  TokenSource
	client  *http.Client
	logger  zerolog.Logger
	timeout time.Duration

	mu        sync.RWMutex
	listeners map[int]func(context.Context)
	nextID    int
}

// Option configures a Gateway
type Option func(*Gateway)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(client *http.Client) Option {
	return func(g *Gateway) {
		g.client = client
	}
}

// WithLogger sets the request logger
func WithLogger(logger zerolog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// WithTimeout bounds every request. Zero means no timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(g *Gateway) {
		g.timeout = timeout
	}
}

// New creates a Gateway for the backend at baseURL
func New(baseURL string, tokens TokenSource, options ...Option) (*Gateway, error) {
	if baseURL == "" {
		return nil, errors.New("[gateway New] baseURL is required")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("[gateway New] invalid baseURL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("[gateway New] baseURL %q must be absolute", baseURL)
	}

	g := &Gateway{
		baseURL:   u,
		tokens:    tokens,
		client:    http.DefaultClient,
		logger:    log.Logger,
		listeners: make(map[int]func(context.Context)),
	}
	for _, opt := range options {
		opt(g)
	}
	return g, nil
}

// OnUnauthenticated registers fn to be called whenever the backend answers 401.
// The returned function removes the registration.
func (g *Gateway) OnUnauthenticated(fn func(ctx context.Context)) (unsubscribe func()) {
	g.mu.Lock()
	id := g.nextID
	g.nextID++
	g.listeners[id] = fn
	g.mu.Unlock()

	return func() {
		g.mu.Lock()
		delete(g.listeners, id)
		g.mu.Unlock()
	}
}

func (g *Gateway) Get(ctx context.Context, path string, out any) error {
	return g.Do(ctx, http.MethodGet, path, nil, out)
}

func (g *Gateway) Post(ctx context.Context, path string, body, out any) error {
	return g.Do(ctx, http.MethodPost, path, body, out)
}

func (g *Gateway) Put(ctx context.Context, path string, body, out any) error {
	return g.Do(ctx, http.MethodPut, path, body, out)
}

func (g *Gateway) Patch(ctx context.Context, path string, body, out any) error {
	return g.Do(ctx, http.MethodPatch, path, body, out)
}

func (g *Gateway) Delete(ctx context.Context, path string, out any) error {
	return g.Do(ctx, http.MethodDelete, path, nil, out)
}

// Do sends one request. It never retries. Non-2xx responses are returned as
// *Error; a 401 additionally notifies the OnUnauthenticated listeners.
func (g *Gateway) Do(ctx context.Context, method, path string, body, out any) error {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	req, err := g.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Debug().Err(err).Str("method", method).Str("path", path).Msg("Backend request failed")
		return errs.Wrapf(errors.Join(errs.ErrTransport, err), "[Gateway Do] %s %s", method, path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.Wrapf(errors.Join(errs.ErrTransport, err), "[Gateway Do] %s %s: read body", method, path)
	}

	g.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Backend request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newError(resp.StatusCode, data)
		if resp.StatusCode == http.StatusUnauthorized {
			g.emitUnauthenticated(ctx)
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errs.Wrapf(errors.Join(errs.ErrMalformedResponse, err), "[Gateway Do] %s %s", method, path)
	}
	return nil
}

func (g *Gateway) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("[Gateway newRequest] encode body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.resolve(path), reader)
	if err != nil {
		return nil, fmt.Errorf("[Gateway newRequest] %w", err)
	}
	req.Header.Set("Content-Type", contentTypeJSON)
	req.Header.Set("Accept", contentTypeJSON)

	if g.tokens != nil {
		if token := g.tokens.Token(ctx); token != "" {
			(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
		}
	}
	return req, nil
}

func (g *Gateway) resolve(path string) string {
	return g.baseURL.String() + "/" + strings.TrimLeft(path, "/")
}

func (g *Gateway) emitUnauthenticated(ctx context.Context) {
	g.mu.RLock()
	listeners := make([]func(context.Context), 0, len(g.listeners))
	for _, fn := range g.listeners {
		listeners = append(listeners, fn)
	}
	g.mu.RUnlock()

	for _, fn := range listeners {
		fn(ctx)
	}
}
