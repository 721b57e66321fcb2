package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Santhosh-Rony/growdigo-qdrant/internal/config"
	"github.com/Santhosh-Rony/growdigo-qdrant/internal/domain"
)

// fakeQdrant implements the subset of the Qdrant REST API the store uses
type fakeQdrant struct {
	mu          sync.Mutex
	apiKey      string
	collections map[string]json.RawMessage
	points      map[int64]json.RawMessage
	vectors     map[int64][]float32
	creates     int
}

func newFakeQdrant(apiKey string) *fakeQdrant {
	return &fakeQdrant{
		apiKey:      apiKey,
		collections: make(map[string]json.RawMessage),
		points:      make(map[int64]json.RawMessage),
		vectors:     make(map[int64][]float32),
	}
}

func (f *fakeQdrant) reply(w http.ResponseWriter, status int, result any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"status": "ok", "time": 0.001, "result": result})
}

func (f *fakeQdrant) fail(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"status": map[string]string{"error": msg}, "time": 0.001})
}

func (f *fakeQdrant) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.apiKey != "" && r.Header.Get("api-key") != f.apiKey {
		f.fail(w, http.StatusUnauthorized, "invalid api key")
		return
	}

	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && path == "/collections":
		list := []map[string]string{}
		for name := range f.collections {
			list = append(list, map[string]string{"name": name})
		}
		f.reply(w, http.StatusOK, map[string]any{"collections": list})

	case r.Method == http.MethodPut && strings.HasSuffix(path, "/points"):
		var body struct {
			Points []struct {
				ID      int64           `json:"id"`
				Vector  []float32       `json:"vector"`
				Payload json.RawMessage `json:"payload"`
			} `json:"points"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			f.fail(w, http.StatusBadRequest, err.Error())
			return
		}
		for _, p := range body.Points {
			f.points[p.ID] = p.Payload
			f.vectors[p.ID] = p.Vector
		}
		f.reply(w, http.StatusOK, map[string]string{"status": "completed"})

	case r.Method == http.MethodPut && strings.HasPrefix(path, "/collections/"):
		name := strings.TrimPrefix(path, "/collections/")
		if _, ok := f.collections[name]; ok {
			f.fail(w, http.StatusConflict, "Wrong input: Collection `"+name+"` already exists!")
			return
		}
		var body json.RawMessage
		json.NewDecoder(r.Body).Decode(&body)
		f.collections[name] = body
		f.creates++
		f.reply(w, http.StatusOK, true)

	case r.Method == http.MethodPost && strings.HasSuffix(path, "/points/scroll"):
		var body struct {
			Limit int `json:"limit"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		ids := make([]int64, 0, len(f.points))
		for id := range f.points {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		if len(ids) > body.Limit {
			ids = ids[:body.Limit]
		}
		points := []map[string]any{}
		for _, id := range ids {
			points = append(points, map[string]any{"id": id, "payload": f.points[id]})
		}
		f.reply(w, http.StatusOK, map[string]any{"points": points, "next_page_offset": nil})

	case r.Method == http.MethodPost && strings.HasSuffix(path, "/points/delete"):
		var body struct {
			Points []int64 `json:"points"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		for _, id := range body.Points {
			delete(f.points, id)
			delete(f.vectors, id)
		}
		f.reply(w, http.StatusOK, map[string]string{"status": "completed"})

	case r.Method == http.MethodPost && strings.HasSuffix(path, "/points"):
		var body struct {
			IDs []int64 `json:"ids"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		points := []map[string]any{}
		for _, id := range body.IDs {
			if payload, ok := f.points[id]; ok {
				points = append(points, map[string]any{"id": id, "payload": payload})
			}
		}
		f.reply(w, http.StatusOK, points)

	default:
		f.fail(w, http.StatusNotFound, "unknown route "+r.Method+" "+path)
	}
}

func newTestStore(t *testing.T, apiKey string) (*Store, *fakeQdrant) {
	t.Helper()
	fake := newFakeQdrant(apiKey)
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	store := NewStore(config.QdrantConfig{URL: srv.URL + "/", APIKey: apiKey, Timeout: 5 * time.Second}, "chat_conversations")
	t.Cleanup(func() { store.Close() })
	return store, fake
}

func title(s string) *string { return &s }

func TestStore_EnsureCollection(t *testing.T) {
	ctx := context.Background()
	store, fake := newTestStore(t, "secret")
	spec := domain.CollectionSpec{Name: "chat_conversations", Dimension: 1536, Distance: domain.DistanceCosine}

	require.NoError(t, store.EnsureCollection(ctx, spec))
	require.NoError(t, store.EnsureCollection(ctx, spec))
	assert.Equal(t, 1, fake.creates)

	var created struct {
		Vectors struct {
			Size     int    `json:"size"`
			Distance string `json:"distance"`
		} `json:"vectors"`
	}
	require.NoError(t, json.Unmarshal(fake.collections["chat_conversations"], &created))
	assert.Equal(t, 1536, created.Vectors.Size)
	assert.Equal(t, "Cosine", created.Vectors.Distance)

	count, err := store.Collections(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStore_PointLifecycle(t *testing.T) {
	ctx := context.Background()
	store, fake := newTestStore(t, "")

	conv := &domain.Conversation{
		ID:        42,
		Title:     title("Hello there"),
		Messages:  []domain.Message{{ID: 1, Role: "user", Content: "Hello there", Timestamp: "2024-01-01T00:00:00"}},
		UserID:    "user-1",
		CreatedAt: "2024-01-01T00:00:00.000000",
		UpdatedAt: "2024-01-01T00:00:00.000000",
	}
	vec := []float32{0.1, 0.2, 0.3}
	require.NoError(t, store.Upsert(ctx, conv.ID, vec, conv))
	assert.Equal(t, vec, fake.vectors[42])

	got, err := store.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, conv, got)

	missing, err := store.Get(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, store.Upsert(ctx, 3, vec, &domain.Conversation{ID: 3, UserID: "user-2", Messages: []domain.Message{}}))

	list, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(3), list[0].ID)
	assert.Equal(t, int64(42), list[1].ID)

	limited, err := store.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	require.NoError(t, store.Delete(ctx, 42))
	require.NoError(t, store.Delete(ctx, 42))

	gone, err := store.Get(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestStore_ErrorsSurface(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"status":{"error":"Service internal error: disk full"},"time":0}`))
	}))
	defer srv.Close()

	store := NewStore(config.QdrantConfig{URL: srv.URL, Timeout: time.Second}, "chat_conversations")

	err := store.Upsert(ctx, 1, nil, &domain.Conversation{ID: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	_, err = store.Get(ctx, 1)
	assert.Error(t, err)

	_, err = store.Collections(ctx)
	assert.Error(t, err)
}

func TestStore_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	store := NewStore(config.QdrantConfig{URL: url, Timeout: time.Second}, "chat_conversations")
	_, err := store.Collections(context.Background())
	assert.Error(t, err)
}

func TestStatus_UnmarshalJSON(t *testing.T) {
	var ok envelope[json.RawMessage]
	require.NoError(t, json.Unmarshal([]byte(`{"status":"ok","result":true}`), &ok))
	assert.Equal(t, "ok", ok.Status.State)
	assert.NoError(t, checkStatus(ok.Status))

	var bad envelope[json.RawMessage]
	require.NoError(t, json.Unmarshal([]byte(`{"status":{"error":"boom"}}`), &bad))
	assert.Equal(t, "error", bad.Status.State)
	assert.EqualError(t, checkStatus(bad.Status), "boom")
}
