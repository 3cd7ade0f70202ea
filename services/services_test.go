package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"auto-uc2-dashboard/api"
)

// backend routes "METHOD /path" to canned JSON bodies and counts the hits.
type backend struct {
	mu     sync.Mutex
	routes map[string]string
	hits   map[string]int
	bodies map[string]string
	total  atomic.Int32
}

func newBackend(t *testing.T, routes map[string]string) (*backend, Deps) {
	t.Helper()
	b := &backend{routes: routes, hits: map[string]int{}, bodies: map[string]string{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.total.Add(1)
		key := r.Method + " " + strings.TrimPrefix(r.URL.RequestURI(), "/api/v1")
		var buf strings.Builder
		if r.Body != nil {
			var payload json.RawMessage
			if err := json.NewDecoder(r.Body).Decode(&payload); err == nil {
				buf.Write(payload)
			}
		}
		b.mu.Lock()
		b.hits[key]++
		b.bodies[key] = buf.String()
		body, ok := b.routes[key]
		b.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"status":"fail","message":"no route ` + key + `"}`))
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return b, Deps{API: api.New(srv.URL+"/api/v1", nil)}
}

func (b *backend) count(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[key]
}

func (b *backend) body(key string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bodies[key]
}

// memCache is an in-process Cache.
type memCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemCache() *memCache { return &memCache{items: map[string][]byte{}} }

func (m *memCache) Get(_ context.Context, key string, dst any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.items[key]
	if !ok {
		return ErrCacheMiss
	}
	return json.Unmarshal(data, dst)
}

func (m *memCache) Set(_ context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = data
	return nil
}

func (m *memCache) Invalidate(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.items {
		if strings.HasPrefix(k, prefix) {
			delete(m.items, k)
		}
	}
	return nil
}

type recordingAuditor struct {
	mu     sync.Mutex
	events []AuditEvent
}

func (r *recordingAuditor) Record(_ context.Context, ev AuditEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}
