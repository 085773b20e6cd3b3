package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore/internal/cache"
	"bookstore/internal/entity"
	"bookstore/internal/usecase"
)

// memRepo is an in-memory BookRepository so the full request path can run
// through a real Coordinator without Postgres.
type memRepo struct {
	mu     sync.Mutex
	nextID int64
	books  map[int64]entity.Book
}

func newMemRepo() *memRepo {
	return &memRepo{nextID: 1, books: map[int64]entity.Book{}}
}

func (m *memRepo) Create(_ context.Context, in usecase.BookInput) (entity.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.books {
		if b.ISBN == in.ISBN {
			return entity.Book{}, usecase.ErrDuplicateISBN
		}
	}
	now := time.Now()
	b := entity.Book{
		ID: m.nextID, Title: in.Title, Author: in.Author, ISBN: in.ISBN,
		Price: in.Price, Stock: in.Stock, CreatedAt: now, UpdatedAt: now,
	}
	m.books[b.ID] = b
	m.nextID++
	return b, nil
}

func (m *memRepo) Get(_ context.Context, id int64) (entity.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok {
		return entity.Book{}, usecase.ErrNotFound
	}
	return b, nil
}

func (m *memRepo) List(_ context.Context) ([]entity.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []entity.Book{}
	for id := m.nextID - 1; id >= 1; id-- {
		if b, ok := m.books[id]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memRepo) Update(_ context.Context, id int64, in usecase.BookInput) (entity.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[id]
	if !ok {
		return entity.Book{}, usecase.ErrNotFound
	}
	b.Title, b.Author, b.ISBN = in.Title, in.Author, in.ISBN
	b.Price, b.Stock = in.Price, in.Stock
	b.UpdatedAt = time.Now()
	m.books[id] = b
	return b, nil
}

func (m *memRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[id]; !ok {
		return usecase.ErrNotFound
	}
	delete(m.books, id)
	return nil
}

// memStore is a minimal in-memory cache.Store.
type memStore struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemStore() *memStore { return &memStore{entries: map[string][]byte{}} }

func (s *memStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.entries[key]
	return b, ok, nil
}

func (s *memStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
	return nil
}

func (s *memStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.entries, k)
	}
	return nil
}

func (s *memStore) DelPattern(_ context.Context, pattern string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range s.entries {
		if strings.HasPrefix(k, prefix) {
			delete(s.entries, k)
		}
	}
	return nil
}

func TestBookAPI_EndToEnd(t *testing.T) {
	coordinator := cache.NewCoordinator(newMemRepo(), newMemStore(), time.Minute)
	mux := http.NewServeMux()
	NewBookHandler(coordinator).Register(mux)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, path, nil)
		} else {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
		}
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		return w
	}

	decode := func(t *testing.T, w *httptest.ResponseRecorder) SuccessResponse {
		t.Helper()
		var resp SuccessResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp
	}

	// Create a book.
	w := do(http.MethodPost, "/books", `{"title":"A","author":"B","isbn":"111"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode(t, w).Data.(map[string]interface{})
	assert.Equal(t, float64(1), created["id"])

	// Point read: miss first, cache hit second.
	w = do(http.MethodGet, "/books/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "database", decode(t, w).Meta.(map[string]interface{})["source"])

	w = do(http.MethodGet, "/books/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cache", decode(t, w).Meta.(map[string]interface{})["source"])

	// Warm the collection, then update the stock.
	w = do(http.MethodGet, "/books", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(http.MethodPut, "/books/1", `{"title":"A","author":"B","isbn":"111","price":0,"stock":5}`)
	require.Equal(t, http.StatusOK, w.Code)

	// The list must reflect the update, not a stale cached snapshot.
	w = do(http.MethodGet, "/books", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "database", resp.Meta.(map[string]interface{})["source"])
	books := resp.Data.([]interface{})
	require.Len(t, books, 1)
	assert.Equal(t, float64(5), books[0].(map[string]interface{})["stock"])

	// Duplicate ISBN is rejected.
	w = do(http.MethodPost, "/books", `{"title":"C","author":"D","isbn":"111"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Delete, then both reads report not found.
	w = do(http.MethodDelete, "/books/1", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(http.MethodGet, "/books/1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(http.MethodGet, "/books", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w).Data)
}
