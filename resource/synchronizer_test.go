package resource_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/jrsteele09/go-hr-console/gateway"
	errs "github.com/jrsteele09/go-hr-console/internal/errors"
	"github.com/jrsteele09/go-hr-console/resource"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type department struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// departmentsBackend is an in-memory departments endpoint that counts calls
type departmentsBackend struct {
	mu        sync.Mutex
	items     map[int]department
	nextID    int
	lists     int
	failList  bool
	failWrite bool
	onList    func()
}

func newDepartmentsBackend(names ...string) *departmentsBackend {
	b := &departmentsBackend{items: make(map[int]department), nextID: 1}
	for _, n := range names {
		b.items[b.nextID] = department{ID: b.nextID, Name: n}
		b.nextID++
	}
	return b
}

func (b *departmentsBackend) Lists() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lists
}

func (b *departmentsBackend) routes() http.Handler {
	mux := http.NewServeMux()
	writeErr := func(w http.ResponseWriter, status int, msg string) {
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
	}

	mux.HandleFunc("GET /departments", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.lists++
		onList := b.onList
		if b.failList {
			b.mu.Unlock()
			writeErr(w, http.StatusInternalServerError, "boom")
			return
		}
		out := make([]department, 0, len(b.items))
		for id := 1; id < b.nextID; id++ {
			if d, ok := b.items[id]; ok {
				out = append(out, d)
			}
		}
		b.mu.Unlock()
		if onList != nil {
			onList()
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": out})
	})
	mux.HandleFunc("GET /departments/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.Atoi(r.PathValue("id"))
		b.mu.Lock()
		d, ok := b.items[id]
		b.mu.Unlock()
		if !ok {
			writeErr(w, http.StatusNotFound, "Department not found")
			return
		}
		_ = json.NewEncoder(w).Encode(d)
	})
	mux.HandleFunc("POST /departments", func(w http.ResponseWriter, r *http.Request) {
		var d department
		_ = json.NewDecoder(r.Body).Decode(&d)
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.failWrite || d.Name == "" {
			writeErr(w, http.StatusUnprocessableEntity, "The name field is required.")
			return
		}
		d.ID = b.nextID
		b.nextID++
		b.items[d.ID] = d
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(d)
	})
	mux.HandleFunc("PUT /departments/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.Atoi(r.PathValue("id"))
		var d department
		_ = json.NewDecoder(r.Body).Decode(&d)
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.items[id]; !ok || b.failWrite {
			writeErr(w, http.StatusNotFound, "Department not found")
			return
		}
		d.ID = id
		b.items[id] = d
		_ = json.NewEncoder(w).Encode(d)
	})
	mux.HandleFunc("DELETE /departments/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.Atoi(r.PathValue("id"))
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.items, id)
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func setup(t *testing.T, backend *departmentsBackend) *resource.Synchronizer[department] {
	t.Helper()
	srv := httptest.NewServer(backend.routes())
	t.Cleanup(srv.Close)

	api, err := gateway.New(srv.URL, nil, gateway.WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	s, err := resource.New[department](api, "/departments/", resource.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	return s
}

func TestNew(t *testing.T) {
	_, err := resource.New[department](nil, "departments")
	require.Error(t, err)

	api, err := gateway.New("http://backend.local", nil)
	require.NoError(t, err)
	_, err = resource.New[department](api, "/")
	require.Error(t, err)
}

func TestSynchronizer_List(t *testing.T) {
	backend := newDepartmentsBackend("HR", "IT")
	s := setup(t, backend)

	require.Empty(t, s.Items())
	require.False(t, s.IsLoading())

	require.NoError(t, s.List(context.Background()))
	require.Equal(t, []department{{1, "HR"}, {2, "IT"}}, s.Items())
	require.False(t, s.IsLoading())
	require.Equal(t, 1, backend.Lists())

	t.Run("failure keeps previous items", func(t *testing.T) {
		backend.mu.Lock()
		backend.failList = true
		backend.mu.Unlock()

		err := s.List(context.Background())
		require.ErrorIs(t, err, errs.ErrServer)
		require.Equal(t, []department{{1, "HR"}, {2, "IT"}}, s.Items())
		require.False(t, s.IsLoading())
	})
}

func TestSynchronizer_LoadingWhileInFlight(t *testing.T) {
	backend := newDepartmentsBackend("HR")
	s := setup(t, backend)

	var sawLoading bool
	backend.onList = func() { sawLoading = s.IsLoading() }

	require.NoError(t, s.List(context.Background()))
	require.True(t, sawLoading)
	require.False(t, s.IsLoading())
}

func TestSynchronizer_Mutations(t *testing.T) {
	t.Run("update triggers exactly one refresh", func(t *testing.T) {
		backend := newDepartmentsBackend("HR", "IT", "Ops")
		s := setup(t, backend)
		require.NoError(t, s.List(context.Background()))

		require.NoError(t, s.Update(context.Background(), "3", department{Name: "Operations"}))
		require.Equal(t, 2, backend.Lists())
		require.Equal(t, []department{{1, "HR"}, {2, "IT"}, {3, "Operations"}}, s.Items())
		require.False(t, s.IsLoading())
	})

	t.Run("create reads back server assigned state", func(t *testing.T) {
		backend := newDepartmentsBackend("HR")
		s := setup(t, backend)

		require.NoError(t, s.Create(context.Background(), department{Name: "Finance"}))
		require.Equal(t, 1, backend.Lists())
		require.Equal(t, []department{{1, "HR"}, {2, "Finance"}}, s.Items())
	})

	t.Run("remove", func(t *testing.T) {
		backend := newDepartmentsBackend("HR", "IT")
		s := setup(t, backend)

		require.NoError(t, s.Remove(context.Background(), "1"))
		require.Equal(t, []department{{2, "IT"}}, s.Items())
	})

	t.Run("failed write does not refresh", func(t *testing.T) {
		backend := newDepartmentsBackend("HR")
		s := setup(t, backend)
		require.NoError(t, s.List(context.Background()))

		err := s.Create(context.Background(), department{})
		require.ErrorIs(t, err, errs.ErrValidation)
		require.Equal(t, "The name field is required.", gateway.UserMessage(err))
		require.Equal(t, 1, backend.Lists())
		require.Equal(t, []department{{1, "HR"}}, s.Items())
		require.False(t, s.IsLoading())
	})

	t.Run("identical writes leave identical state", func(t *testing.T) {
		backend := newDepartmentsBackend("HR")
		s := setup(t, backend)

		require.NoError(t, s.Update(context.Background(), "1", department{Name: "People"}))
		first := s.Items()
		require.NoError(t, s.Update(context.Background(), "1", department{Name: "People"}))
		require.Equal(t, first, s.Items())
		require.Equal(t, 2, backend.Lists())
	})
}

func TestSynchronizer_Find(t *testing.T) {
	s := setup(t, newDepartmentsBackend("HR"))

	d, err := s.Find(context.Background(), "1")
	require.NoError(t, err)
	require.Equal(t, department{1, "HR"}, d)
	require.Empty(t, s.Items())

	_, err = s.Find(context.Background(), "9")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestSynchronizer_Close(t *testing.T) {
	backend := newDepartmentsBackend("HR")
	s := setup(t, backend)

	backend.onList = func() { s.Close() }
	require.NoError(t, s.List(context.Background()))
	require.Empty(t, s.Items(), "result landing after close is discarded")
	require.False(t, s.IsLoading())

	backend.onList = nil
	require.NoError(t, s.Create(context.Background(), department{Name: "IT"}))
	require.Equal(t, 1, backend.Lists(), "closed consumers are not refreshed")
}
