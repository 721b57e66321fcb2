// Package qdrant stores conversations as points in a Qdrant collection
// through its REST API.
package qdrant

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
	"time"

	"github.com/Santhosh-Rony/growdigo-qdrant/internal/config"
	"github.com/Santhosh-Rony/growdigo-qdrant/internal/domain"
)

const maxResponseBytes = 8 << 20

// status supports both `status: "ok"` and `status: {"error":"..."}`.
type status struct {
	State string
	Error string
}

func (s *status) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		s.State = strings.ToLower(v)
		return nil
	}
	var obj struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	if obj.Error != "" {
		s.State = "error"
		s.Error = obj.Error
	}
	return nil
}

type envelope[T any] struct {
	Status status  `json:"status"`
	Time   float64 `json:"time"`
	Result T       `json:"result"`
}

type pointResult struct {
	ID      json.RawMessage `json:"id"`
	Payload json.RawMessage `json:"payload"`
}

type scrollResult struct {
	Points []pointResult    `json:"points"`
	Offset json.RawMessage `json:"next_page_offset"`
}

type collectionsResult struct {
	Collections []struct {
		Name string `json:"name"`
	} `json:"collections"`
}

type pointStruct struct {
	ID      int64                `json:"id"`
	Vector  []float32            `json:"vector"`
	Payload *domain.Conversation `json:"payload"`
}

// Store implements domain.ConversationStore against a Qdrant server
type Store struct {
	baseURL    string
	apiKey     string
	collection string
	client     *http.Client
}

// NewStore creates a Qdrant-backed conversation store
func NewStore(cfg config.QdrantConfig, collection string) *Store {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Store{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// EnsureCollection creates the collection when it is not listed yet.
// A concurrent creator racing us ("already exists") is treated as success.
func (s *Store) EnsureCollection(ctx context.Context, spec domain.CollectionSpec) error {
	names, err := s.collectionNames(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}
	for _, name := range names {
		if name == spec.Name {
			return nil
		}
	}

	distance := spec.Distance
	if distance == "" {
		distance = domain.DistanceCosine
	}
	req := map[string]any{
		"vectors": map[string]any{
			"size":     spec.Dimension,
			"distance": string(distance),
		},
	}

	var resp envelope[json.RawMessage]
	err = s.do(ctx, http.MethodPut, "/collections/"+url.PathEscape(spec.Name), req, &resp)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "already exists") {
			return nil
		}
		return fmt.Errorf("failed to create collection %s: %w", spec.Name, err)
	}
	return checkStatus(resp.Status)
}

func (s *Store) Upsert(ctx context.Context, id int64, vector []float32, payload *domain.Conversation) error {
	req := map[string]any{
		"points": []pointStruct{{ID: id, Vector: vector, Payload: payload}},
	}

	var resp envelope[json.RawMessage]
	if err := s.do(ctx, http.MethodPut, s.pointsPath("?wait=true"), req, &resp); err != nil {
		return err
	}
	return checkStatus(resp.Status)
}

func (s *Store) Get(ctx context.Context, id int64) (*domain.Conversation, error) {
	req := map[string]any{
		"ids":          []int64{id},
		"with_payload": true,
		"with_vector":  false,
	}

	var resp envelope[[]pointResult]
	if err := s.do(ctx, http.MethodPost, s.pointsPath(""), req, &resp); err != nil {
		return nil, err
	}
	if err := checkStatus(resp.Status); err != nil {
		return nil, err
	}
	if len(resp.Result) == 0 {
		return nil, nil
	}

	return decodePayload(resp.Result[0])
}

// List returns a single scroll page of at most limit points, in Qdrant's
// id order.
func (s *Store) List(ctx context.Context, limit int) ([]domain.Conversation, error) {
	if limit <= 0 {
		return []domain.Conversation{}, nil
	}
	req := map[string]any{
		"limit":        limit,
		"with_payload": true,
		"with_vector":  false,
	}

	var resp envelope[scrollResult]
	if err := s.do(ctx, http.MethodPost, s.pointsPath("/scroll"), req, &resp); err != nil {
		return nil, err
	}
	if err := checkStatus(resp.Status); err != nil {
		return nil, err
	}

	out := make([]domain.Conversation, 0, len(resp.Result.Points))
	for _, p := range resp.Result.Points {
		conv, err := decodePayload(p)
		if err != nil {
			return nil, err
		}
		out = append(out, *conv)
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	req := map[string]any{
		"points": []int64{id},
	}

	var resp envelope[json.RawMessage]
	if err := s.do(ctx, http.MethodPost, s.pointsPath("/delete?wait=true"), req, &resp); err != nil {
		return err
	}
	return checkStatus(resp.Status)
}

func (s *Store) Collections(ctx context.Context) (int, error) {
	names, err := s.collectionNames(ctx)
	if err != nil {
		return 0, err
	}
	return len(names), nil
}

func (s *Store) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *Store) collectionNames(ctx context.Context) ([]string, error) {
	var resp envelope[collectionsResult]
	if err := s.do(ctx, http.MethodGet, "/collections", nil, &resp); err != nil {
		return nil, err
	}
	if err := checkStatus(resp.Status); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(resp.Result.Collections))
	for _, c := range resp.Result.Collections {
		names = append(names, c.Name)
	}
	return names, nil
}

func (s *Store) pointsPath(suffix string) string {
	return fmt.Sprintf("/collections/%s/points%s", url.PathEscape(s.collection), suffix)
}

func (s *Store) do(ctx context.Context, method, path string, body any, out any) error {
	u := s.baseURL + path

	var reader io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read qdrant response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var env envelope[json.RawMessage]
		if json.Unmarshal(payload, &env) == nil && env.Status.Error != "" {
			return fmt.Errorf("qdrant %s %s -> http %d: %s", method, path, resp.StatusCode, env.Status.Error)
		}
		return fmt.Errorf("qdrant %s %s -> http %d: %s",
			method, path, resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	if out != nil && len(payload) > 0 {
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("failed to decode qdrant response: %w", err)
		}
	}
	return nil
}

func checkStatus(s status) error {
	if s.Error != "" {
		return errors.New(s.Error)
	}
	return nil
}

func decodePayload(p pointResult) (*domain.Conversation, error) {
	var conv domain.Conversation
	if len(p.Payload) == 0 || string(p.Payload) == "null" {
		return nil, fmt.Errorf("point %s has no payload", string(p.ID))
	}
	if err := json.Unmarshal(p.Payload, &conv); err != nil {
		return nil, fmt.Errorf("failed to decode payload of point %s: %w", string(p.ID), err)
	}
	return &conv, nil
}
