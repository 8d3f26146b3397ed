package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/examplan-cli/internal/core/domain"
)

func newTestService(t *testing.T, handler http.HandlerFunc) (*EmbeddingService, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	service := NewEmbeddingService(Config{BaseURL: server.URL})
	service.backoff = []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}
	return service, server
}

func TestEmbeddingService_Defaults(t *testing.T) {
	service := NewEmbeddingService(Config{})

	assert.Equal(t, DefaultModel, service.ModelName())
	assert.Equal(t, DefaultDimensions, service.Dimensions())
}

func TestEmbeddingService_EmbedBatch(t *testing.T) {
	var gotReq embedRequest
	service, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(embedResponse{
			Embeddings: [][]float32{{1, 0}, {0, 1}},
		})
	})

	vectors, err := service.EmbedBatch(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)

	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vectors)
	assert.Equal(t, "nomic-embed-text", gotReq.Model)
	assert.Equal(t, []string{"search_document: alpha", "search_document: beta"}, gotReq.Input)
}

func TestEmbeddingService_EmbedQuery(t *testing.T) {
	var gotReq embedRequest
	service, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float32{{0.5, 0.5}}})
	})

	vector, err := service.EmbedQuery(context.Background(), "what is stress")
	require.NoError(t, err)

	assert.Equal(t, []float32{0.5, 0.5}, vector)
	assert.Equal(t, []string{"search_query: what is stress"}, gotReq.Input)
}

func TestEmbeddingService_NoPrefixForOtherModels(t *testing.T) {
	var gotReq embedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float32{{1}}})
	}))
	defer server.Close()

	service := NewEmbeddingService(Config{BaseURL: server.URL, Model: "mxbai-embed-large", Dimensions: 1024})

	_, err := service.EmbedQuery(context.Background(), "plain text")
	require.NoError(t, err)
	assert.Equal(t, []string{"plain text"}, gotReq.Input)
	assert.Equal(t, 1024, service.Dimensions())
}

func TestEmbeddingService_CountMismatch(t *testing.T) {
	service, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float32{{1}}})
	})

	_, err := service.EmbedBatch(context.Background(), []string{"a", "b"})
	assert.ErrorContains(t, err, "expected 2 embeddings, got 1")
}

func TestEmbeddingService_RetriesBusyServer(t *testing.T) {
	attempts := 0
	service, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float32{{1}}})
	})

	vectors, err := service.EmbedBatch(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Len(t, vectors, 1)
	assert.Equal(t, 3, attempts)
}

func TestEmbeddingService_ProviderExhausted(t *testing.T) {
	attempts := 0
	service, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := service.EmbedBatch(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, domain.ErrProviderExhausted)
	assert.Equal(t, 4, attempts)
}

func TestEmbeddingService_APIError(t *testing.T) {
	service, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{Error: "model not found"})
	})

	_, err := service.EmbedBatch(context.Background(), []string{"a"})
	assert.ErrorContains(t, err, "model not found")
}

func TestEmbeddingService_Ping(t *testing.T) {
	service, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})

	assert.NoError(t, service.Ping(context.Background()))
}

func TestEmbeddingService_PingFailure(t *testing.T) {
	service, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	})

	err := service.Ping(context.Background())
	assert.ErrorContains(t, err, "status 500")
}
