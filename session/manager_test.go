package session_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/go-hr-console/credentials"
	"github.com/jrsteele09/go-hr-console/gateway"
	errs "github.com/jrsteele09/go-hr-console/internal/errors"
	"github.com/jrsteele09/go-hr-console/session"
	"github.com/jrsteele09/go-hr-console/users"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// fakeNavigator records forced navigations
type fakeNavigator struct {
	mu        sync.Mutex
	location  string
	navigated []string
}

func (n *fakeNavigator) Location(context.Context) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.location
}

func (n *fakeNavigator) Navigate(_ context.Context, path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.navigated = append(n.navigated, path)
	n.location = path
}

func (n *fakeNavigator) Navigations() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.navigated...)
}

// testFixture holds a manager wired to a scripted backend
type testFixture struct {
	backend  *httptest.Server
	mux      *http.ServeMux
	requests atomic.Int32
	storage  *credentials.MemoryBackend
	store    *credentials.Store
	api      *gateway.Gateway
	nav      *fakeNavigator
	manager  *session.Manager
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	return setupTestFixtureWithStorage(t, credentials.NewMemoryBackend())
}

func setupTestFixtureWithStorage(t *testing.T, storage *credentials.MemoryBackend) *testFixture {
	t.Helper()

	f := &testFixture{
		mux:     http.NewServeMux(),
		storage: storage,
		nav:     &fakeNavigator{location: "/admin/dashboard"},
	}
	f.backend = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		f.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.backend.Close)

	f.store = credentials.NewStore(storage, credentials.WithLogger(zerolog.Nop()))

	api, err := gateway.New(f.backend.URL, f.store, gateway.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	f.api = api

	manager, err := session.NewManager(f.store, api,
		session.WithNavigator(f.nav),
		session.WithLogger(zerolog.Nop()),
	)
	require.NoError(t, err)
	t.Cleanup(manager.Close)
	f.manager = manager

	f.mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		switch body["email"] {
		case "a@x.com":
			writeJSON(w, http.StatusOK, map[string]any{
				"token": "t1",
				"user":  map[string]any{"id": "1", "email": "a@x.com", "role": "admin"},
			})
		case "e@x.com":
			writeJSON(w, http.StatusOK, map[string]any{
				"token":   "t2",
				"user":    map[string]any{"id": "2", "email": "e@x.com", "role": "employee"},
				"profile": map[string]any{"id": "20", "first_name": "Eve", "department": "IT"},
			})
		case "broken@x.com":
			writeJSON(w, http.StatusOK, map[string]any{"token": "t3"})
		default:
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "These credentials do not match our records."})
		}
	})

	return f
}

func (f *testFixture) requireConsistent(t *testing.T) {
	t.Helper()
	snapshot := f.manager.Snapshot()
	token := f.store.Token(context.Background())
	require.Equal(t, snapshot.Identity != nil, token != "", "identity and token diverged")
}

func (f *testFixture) login(t *testing.T, email string) {
	t.Helper()
	f.manager.Init(context.Background())
	require.NoError(t, f.manager.Login(context.Background(), email, "secret"))
}

func TestManager_NewValidatesDependencies(t *testing.T) {
	_, err := session.NewManager(nil, nil)
	require.Error(t, err)

	store := credentials.NewStore(nil)
	_, err = session.NewManager(store, nil)
	require.Error(t, err)
}

func TestManager_Login(t *testing.T) {
	t.Run("admin login establishes the session", func(t *testing.T) {
		f := setupTestFixture(t)
		f.manager.Init(context.Background())
		require.Equal(t, session.StateAnonymous, f.manager.Snapshot().State)

		require.NoError(t, f.manager.Login(context.Background(), "a@x.com", "secret"))

		snapshot := f.manager.Snapshot()
		require.Equal(t, session.StateAuthenticated, snapshot.State)
		require.Equal(t, users.RoleAdmin, snapshot.Role())
		require.Nil(t, snapshot.Profile)
		require.Equal(t, "t1", f.store.Token(context.Background()))
		f.requireConsistent(t)
	})

	t.Run("employee login carries the profile", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, "e@x.com")

		snapshot := f.manager.Snapshot()
		require.Equal(t, users.RoleEmployee, snapshot.Role())
		require.Equal(t, "IT", snapshot.Profile.Department)
		require.Equal(t, "IT", f.store.Read(context.Background()).Profile.Department)
	})

	t.Run("rejected credentials surface the backend message", func(t *testing.T) {
		f := setupTestFixture(t)
		f.nav.location = "/login"
		f.manager.Init(context.Background())

		err := f.manager.Login(context.Background(), "nobody@x.com", "bad")
		require.ErrorIs(t, err, errs.ErrUnauthenticated)
		require.Equal(t, "These credentials do not match our records.", gateway.UserMessage(err))
		require.Equal(t, session.StateAnonymous, f.manager.Snapshot().State)
		require.Empty(t, f.nav.Navigations())
		f.requireConsistent(t)
	})

	t.Run("failed login does not disturb an existing session", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, "a@x.com")

		err := f.manager.Login(context.Background(), "nobody@x.com", "bad")
		require.Error(t, err)
		require.Equal(t, users.RoleAdmin, f.manager.Snapshot().Role())
		require.Equal(t, "t1", f.store.Token(context.Background()))
		require.Empty(t, f.nav.Navigations())
	})

	t.Run("response without identity is rejected", func(t *testing.T) {
		f := setupTestFixture(t)
		f.manager.Init(context.Background())

		err := f.manager.Login(context.Background(), "broken@x.com", "secret")
		require.ErrorIs(t, err, errs.ErrMalformedResponse)
		require.Equal(t, session.StateAnonymous, f.manager.Snapshot().State)
		require.Equal(t, "", f.store.Token(context.Background()))
	})
}

func TestManager_Register(t *testing.T) {
	f := setupTestFixture(t)
	f.mux.HandleFunc("POST /register", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] == "short" {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"message": "The given data was invalid.",
				"errors":  map[string][]string{"password": {"password must be at least 8 characters long"}},
			})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"token": "t9",
			"user":  map[string]any{"id": "9", "name": body["name"], "email": body["email"], "role": "employee"},
		})
	})
	f.manager.Init(context.Background())

	err := f.manager.Register(context.Background(), "Eve", "e@x.com", "short")
	require.ErrorIs(t, err, errs.ErrValidation)
	require.Contains(t, gateway.FieldErrors(err), "password")
	require.Equal(t, session.StateAnonymous, f.manager.Snapshot().State)

	require.NoError(t, f.manager.Register(context.Background(), "Eve", "e@x.com", "Password123"))
	snapshot := f.manager.Snapshot()
	require.Equal(t, session.StateAuthenticated, snapshot.State)
	require.Equal(t, "Eve", snapshot.Identity.Name)
	require.Equal(t, "t9", f.store.Token(context.Background()))
}

func TestManager_Logout(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"remote success", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }},
		{"remote says token expired", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusUnauthorized) }},
		{"remote failure", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestFixture(t)
			var sawToken string
			f.mux.HandleFunc("POST /logout", func(w http.ResponseWriter, r *http.Request) {
				sawToken = r.Header.Get("Authorization")
				tt.handler(w, r)
			})
			f.login(t, "a@x.com")

			f.manager.Logout(context.Background())

			require.Equal(t, "Bearer t1", sawToken)
			require.Equal(t, session.StateAnonymous, f.manager.Snapshot().State)
			require.True(t, f.store.Read(context.Background()).Empty())
			values, err := f.storage.Load(context.Background())
			require.NoError(t, err)
			require.Empty(t, values)
			require.Empty(t, f.nav.Navigations())
		})
	}

	t.Run("unreachable backend", func(t *testing.T) {
		f := setupTestFixture(t)
		f.login(t, "a@x.com")
		f.backend.Close()

		f.manager.Logout(context.Background())
		require.Equal(t, session.StateAnonymous, f.manager.Snapshot().State)
		require.Equal(t, "", f.store.Token(context.Background()))
	})

	t.Run("anonymous logout makes no request", func(t *testing.T) {
		f := setupTestFixture(t)
		f.manager.Init(context.Background())
		f.manager.Logout(context.Background())
		require.Equal(t, int32(0), f.requests.Load())
	})
}

func TestManager_StaleSessionForcesLogin(t *testing.T) {
	f := setupTestFixture(t)
	f.mux.HandleFunc("GET /employees", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	f.login(t, "a@x.com")

	err := f.api.Get(context.Background(), "employees", nil)
	require.ErrorIs(t, err, errs.ErrUnauthenticated)

	require.Equal(t, session.StateAnonymous, f.manager.Snapshot().State)
	require.Equal(t, "", f.store.Token(context.Background()))
	require.Equal(t, []string{"/login"}, f.nav.Navigations())
	f.requireConsistent(t)

	t.Run("already on the login screen", func(t *testing.T) {
		_ = f.api.Get(context.Background(), "employees", nil)
		require.Equal(t, []string{"/login"}, f.nav.Navigations(), "no redirect loop")
	})
}

func TestManager_Rehydration(t *testing.T) {
	t.Run("stored credentials restore the session without a network call", func(t *testing.T) {
		storage := credentials.NewMemoryBackend()
		first := setupTestFixtureWithStorage(t, storage)
		first.login(t, "e@x.com")

		reloaded := setupTestFixtureWithStorage(t, storage)
		require.Equal(t, session.StateUninitialized, reloaded.manager.Snapshot().State)

		reloaded.manager.Init(context.Background())
		snapshot := reloaded.manager.Snapshot()
		require.Equal(t, session.StateAuthenticated, snapshot.State)
		require.False(t, snapshot.Initializing)
		require.Equal(t, users.RoleEmployee, snapshot.Role())
		require.Equal(t, "IT", snapshot.Profile.Department)
		require.Equal(t, int32(0), reloaded.requests.Load())
	})

	t.Run("token without identity is discarded", func(t *testing.T) {
		storage := credentials.NewMemoryBackend()
		require.NoError(t, storage.Save(context.Background(), map[string]string{credentials.KeyToken: "t1"}))

		f := setupTestFixtureWithStorage(t, storage)
		f.manager.Init(context.Background())
		require.Equal(t, session.StateAnonymous, f.manager.Snapshot().State)
		values, err := storage.Load(context.Background())
		require.NoError(t, err)
		require.Empty(t, values)
	})

	t.Run("runs once and reports initializing while running", func(t *testing.T) {
		f := setupTestFixture(t)
		var seen []session.Snapshot
		f.manager.Subscribe(func(s session.Snapshot) { seen = append(seen, s) })

		f.manager.Init(context.Background())
		f.manager.Init(context.Background())

		require.Len(t, seen, 2)
		require.True(t, seen[0].Initializing)
		require.False(t, seen[1].Initializing)
		require.Equal(t, session.StateAnonymous, seen[1].State)
	})
}

func TestManager_Profile(t *testing.T) {
	t.Run("load profile persists it", func(t *testing.T) {
		f := setupTestFixture(t)
		f.mux.HandleFunc("GET /profile", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"id": "20", "first_name": "Eve", "department": "Finance"})
		})
		f.login(t, "e@x.com")

		require.NoError(t, f.manager.LoadProfile(context.Background()))
		require.Equal(t, "Finance", f.manager.Snapshot().Profile.Department)
		require.Equal(t, "Finance", f.store.Read(context.Background()).Profile.Department)
		require.Equal(t, "t2", f.store.Token(context.Background()))
	})

	t.Run("profile arriving after logout is dropped", func(t *testing.T) {
		f := setupTestFixture(t)
		f.mux.HandleFunc("GET /profile", func(w http.ResponseWriter, r *http.Request) {
			f.manager.Logout(context.Background())
			writeJSON(w, http.StatusOK, map[string]any{"id": "20", "department": "Finance"})
		})
		f.mux.HandleFunc("POST /logout", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
		f.login(t, "e@x.com")

		require.NoError(t, f.manager.LoadProfile(context.Background()))
		require.Equal(t, session.StateAnonymous, f.manager.Snapshot().State)
		require.True(t, f.store.Read(context.Background()).Empty())
	})

	t.Run("change photo updates identity and profile", func(t *testing.T) {
		f := setupTestFixture(t)
		f.mux.HandleFunc("PUT /profile/photo", func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			writeJSON(w, http.StatusOK, map[string]any{"id": "20", "department": "IT", "photo": body["photo"]})
		})
		f.login(t, "e@x.com")

		require.NoError(t, f.manager.ChangePhoto(context.Background(), "https://cdn/eve.png"))
		snapshot := f.manager.Snapshot()
		require.Equal(t, "https://cdn/eve.png", snapshot.Identity.Photo)
		require.Equal(t, "https://cdn/eve.png", snapshot.Profile.Photo)
		require.Equal(t, "https://cdn/eve.png", f.store.Read(context.Background()).Identity.Photo)
	})

	t.Run("anonymous sessions have no profile", func(t *testing.T) {
		f := setupTestFixture(t)
		f.manager.Init(context.Background())
		require.ErrorIs(t, f.manager.LoadProfile(context.Background()), errs.ErrNoSession)
		require.ErrorIs(t, f.manager.ChangePhoto(context.Background(), "x"), errs.ErrNoSession)
	})
}

func TestManager_SubscribersSeeEveryTransition(t *testing.T) {
	f := setupTestFixture(t)
	f.mux.HandleFunc("POST /logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	var states []session.State
	unsubscribe := f.manager.Subscribe(func(s session.Snapshot) {
		states = append(states, s.State)
		// Subscribers observe the store and the session in agreement
		require.Equal(t, s.Identity != nil, f.store.Token(context.Background()) != "")
	})

	f.login(t, "a@x.com")
	f.manager.Logout(context.Background())
	unsubscribe()
	_ = f.manager.Login(context.Background(), "a@x.com", "secret")

	require.Equal(t, []session.State{
		session.StateUninitialized,
		session.StateAnonymous,
		session.StateAuthenticated,
		session.StateAnonymous,
	}, states)
}
