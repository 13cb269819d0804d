package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-hr-console/credentials"
	"github.com/jrsteele09/go-hr-console/gateway"
	"github.com/jrsteele09/go-hr-console/guard"
	"github.com/jrsteele09/go-hr-console/internal/config"
	"github.com/jrsteele09/go-hr-console/server/browsers"
	"github.com/jrsteele09/go-hr-console/session"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

type Server struct {
	mux         *http.ServeMux
	routes      []string
	config      config.Config
	credentials credentials.Factory
	httpClient  *http.Client
	paths       guard.Paths
	browsers    browsers.Repo
	pages       *pages
}

// Option configures a Server
type Option func(*Server)

// WithHTTPClient sets the client used for backend calls
func WithHTTPClient(client *http.Client) Option {
	return func(s *Server) {
		s.httpClient = client
	}
}

// WithBrowserRepo replaces the in-memory browser registry
func WithBrowserRepo(repo browsers.Repo) Option {
	return func(s *Server) {
		s.browsers = repo
	}
}

func New(config config.Config, factory credentials.Factory, options ...Option) (*Server, error) {
	pages, err := parsePages()
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to parse templates: %w", err)
	}

	s := &Server{
		mux:         http.NewServeMux(),
		config:      config,
		credentials: factory,
		paths:       guard.DefaultPaths(),
		pages:       pages,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.browsers == nil {
		s.browsers = browsers.NewInMemoryRepo(s.newBrowser)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

// SweepIdle forgets browsers idle for longer than maxIdle and returns how
// many went. Browsers whose credentials only live in memory are kept, their
// visitors would otherwise be signed out.
func (s *Server) SweepIdle(maxIdle time.Duration) int {
	if !s.credentials.Durable() {
		return 0
	}
	return s.browsers.Sweep(maxIdle)
}

// newBrowser wires a credential store, gateway and session for one browser id
func (s *Server) newBrowser(id string) (*browsers.Browser, error) {
	backend, err := s.credentials.New(id)
	if err != nil {
		return nil, err
	}
	logger := log.With().Str("browser", id).Logger()
	storeOpts := []credentials.StoreOption{credentials.WithLogger(logger)}
	if s.credentials.Expires() {
		storeOpts = append(storeOpts, credentials.WithReload())
	}
	store := credentials.NewStore(backend, storeOpts...)

	gatewayOpts := []gateway.Option{gateway.WithTimeout(s.config.GetBackendTimeout())}
	if s.httpClient != nil {
		gatewayOpts = append(gatewayOpts, gateway.WithHTTPClient(s.httpClient))
	}
	api, err := gateway.New(s.config.GetBackendURL(), store, gatewayOpts...)
	if err != nil {
		return nil, err
	}

	manager, err := session.NewManager(store, api,
		session.WithNavigator(requestNavigator{}),
		session.WithLoginPath(s.paths.Login),
		session.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	manager.Subscribe(func(snapshot session.Snapshot) {
		if snapshot.Initializing {
			return
		}
		logger.Debug().
			Str("state", snapshot.State.String()).
			Str("role", string(snapshot.Role())).
			Msg("Session changed")
	})

	b := &browsers.Browser{
		Store:   store,
		API:     api,
		Session: manager,
	}
	if s.config.GetEnableRateLimiting() {
		b.LoginLimiter = rate.NewLimiter(rate.Limit(s.config.GetLoginRateLimit()), s.config.GetLoginRateBurst())
	}
	return b, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if !s.config.IsDevelopment() {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Printf("[%-19s] %s", displayMethod, path)
}

func logError(method, path, error string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Printf("[%-19s] %s %s", displayMethod, path, Red+error+ResetColor)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
