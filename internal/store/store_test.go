package store

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/dgallion1/regrag/internal/doctree"
	"github.com/dgallion1/regrag/internal/pathstore"
)

func sampleDoc(id, hash, created string) *doctree.Document {
	return &doctree.Document{
		DocumentID:  id,
		Filename:    id + ".pdf",
		ContentHash: hash,
		PageCount:   2,
		CreatedAt:   created,
		Chunks: []doctree.Chunk{
			{ChunkID: id + "_chunk_001", DocumentID: id, Content: "first", ChunkIndex: 1,
				HeaderPath: []doctree.HeaderNode{{Level: 1, Name: "Scope"}}},
			{ChunkID: id + "_chunk_002", DocumentID: id, Content: "second", ChunkIndex: 2},
		},
		SectionSummaries: map[string]string{"Scope": "about scope"},
		DocumentSummary:  "overview of " + id,
		Costs:            map[string]float64{doctree.CostSectionSummaries: 0.5, doctree.CostDocumentSummary: 0.25},
	}
}

// fakePathstore is an in-memory implementation of the pathstore KV API.
type fakePathstore struct {
	mu    sync.Mutex
	nodes map[string]json.RawMessage
}

func newFakePathstore(t *testing.T) *httptest.Server {
	f := &fakePathstore{nodes: map[string]json.RawMessage{}}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return srv
}

func (f *fakePathstore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.TrimPrefix(r.URL.Path, "/kv/")
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(key, "/*"):
		prefix := strings.TrimSuffix(key, "*")
		var keys []string
		for k := range f.nodes {
			if strings.HasPrefix(k, prefix) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		var nodes []pathstore.Node
		for _, k := range keys {
			nodes = append(nodes, pathstore.Node{Key: k, Value: f.nodes[k]})
		}
		json.NewEncoder(w).Encode(map[string]any{"nodes": nodes})
	case r.Method == http.MethodGet:
		v, ok := f.nodes[key]
		if !ok {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(pathstore.Node{Key: key, Value: v})
	case r.Method == http.MethodPut:
		var req struct {
			Value json.RawMessage `json:"value"`
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.nodes[key] = req.Value
		w.WriteHeader(http.StatusCreated)
	case r.Method == http.MethodDelete:
		if _, ok := f.nodes[key]; !ok {
			http.NotFound(w, r)
			return
		}
		delete(f.nodes, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func backends(t *testing.T) map[string]Store {
	sq, err := NewSQLite(OpenMemory(t))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	srv := newFakePathstore(t)
	return map[string]Store{
		"sqlite":    sq,
		"pathstore": NewPathstore(pathstore.NewClient(srv.URL, "key"), ""),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			doc := sampleDoc("doc1", "hash1", "2026-01-01T00:00:00Z")
			if err := s.Put(ctx, doc); err != nil {
				t.Fatalf("put: %v", err)
			}

			got, err := s.Get(ctx, "doc1")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got.DocumentSummary != doc.DocumentSummary || len(got.Chunks) != 2 {
				t.Errorf("expected stored document back, got %+v", got)
			}
			if got.Chunks[0].HeaderPath[0].Name != "Scope" || got.SectionSummaries["Scope"] != "about scope" {
				t.Errorf("expected header path and summaries preserved, got %+v", got)
			}

			byHash, err := s.FindByHash(ctx, "hash1")
			if err != nil || byHash.DocumentID != "doc1" {
				t.Errorf("expected doc1 by hash, got %v %v", byHash, err)
			}
			if _, err := s.FindByHash(ctx, "nope"); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound for unknown hash, got %v", err)
			}
			if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestStoreListAndChunks(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s.Put(ctx, sampleDoc("a", "ha", "2026-01-01T00:00:00Z"))
			s.Put(ctx, sampleDoc("b", "hb", "2026-02-01T00:00:00Z"))

			list, err := s.List(ctx)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(list) != 2 || list[0].DocumentID != "b" {
				t.Fatalf("expected newest first, got %+v", list)
			}
			if list[1].ChunkCount != 2 || list[1].TotalCost != 0.75 || list[1].Filename != "a.pdf" {
				t.Errorf("unexpected info %+v", list[1])
			}

			chunks, err := s.AllChunks(ctx)
			if err != nil {
				t.Fatalf("all chunks: %v", err)
			}
			if len(chunks) != 4 || chunks[0].Chunk.ChunkID != "a_chunk_001" || chunks[3].Filename != "b.pdf" {
				t.Errorf("unexpected chunks %+v", chunks)
			}
		})
	}
}

func TestStoreDeleteAndReplace(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			doc := sampleDoc("a", "ha", "2026-01-01T00:00:00Z")
			s.Put(ctx, doc)

			doc.Chunks = doc.Chunks[:1]
			if err := s.Put(ctx, doc); err != nil {
				t.Fatalf("replace: %v", err)
			}
			chunks, _ := s.AllChunks(ctx)
			if len(chunks) != 1 {
				t.Errorf("expected replaced chunk set, got %d chunks", len(chunks))
			}

			if err := s.Delete(ctx, "a"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, err := s.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound after delete, got %v", err)
			}
			if _, err := s.FindByHash(ctx, "ha"); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected hash gone after delete, got %v", err)
			}
			if err := s.Delete(ctx, "a"); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound on second delete, got %v", err)
			}
			chunks, _ = s.AllChunks(ctx)
			if len(chunks) != 0 {
				t.Errorf("expected no chunks after delete, got %d", len(chunks))
			}
		})
	}
}
