package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/examplan-cli/internal/core/domain"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *EmbeddingService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	service, err := NewEmbeddingService(Config{
		APIKey:            "test-key",
		BaseURL:           server.URL,
		RequestsPerSecond: 1000, // no pacing in tests
	})
	require.NoError(t, err)
	service.backoff = []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}
	return service
}

func TestNewEmbeddingService_RequiresKey(t *testing.T) {
	_, err := NewEmbeddingService(Config{})
	assert.ErrorContains(t, err, "API key")
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	service, err := NewEmbeddingService(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "gemini-embedding-001", service.ModelName())
	assert.Equal(t, 3072, service.Dimensions())
}

func TestEmbedBatch(t *testing.T) {
	var gotPath, gotKey string
	var gotReq batchEmbedRequest

	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(batchEmbedResponse{Embeddings: []embedding{
			{Values: []float32{1, 2}},
			{Values: []float32{3, 4}},
		}})
	})

	vectors, err := service.EmbedBatch(context.Background(), []string{"first", "second"})
	require.NoError(t, err)

	assert.Equal(t, [][]float32{{1, 2}, {3, 4}}, vectors)
	assert.True(t, strings.HasSuffix(gotPath, ":batchEmbedContents"), "path was %s", gotPath)
	assert.Equal(t, "test-key", gotKey)

	require.Len(t, gotReq.Requests, 2)
	assert.Equal(t, taskTypeDocument, gotReq.Requests[0].TaskType)
	assert.Equal(t, "first", gotReq.Requests[0].Content.Parts[0].Text)
}

func TestEmbedBatch_Empty(t *testing.T) {
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty batch")
	})

	vectors, err := service.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestEmbedBatch_CountMismatch(t *testing.T) {
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(batchEmbedResponse{Embeddings: []embedding{{Values: []float32{1}}}})
	})

	_, err := service.EmbedBatch(context.Background(), []string{"a", "b"})
	assert.ErrorContains(t, err, "got 1 embeddings for 2 texts")
}

func TestEmbedQuery(t *testing.T) {
	var gotPath string
	var gotReq embedRequest

	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(embedResponse{Embedding: embedding{Values: []float32{0.5, 0.6}}})
	})

	vector, err := service.EmbedQuery(context.Background(), "what is probability")
	require.NoError(t, err)

	assert.Equal(t, []float32{0.5, 0.6}, vector)
	assert.True(t, strings.HasSuffix(gotPath, ":embedContent"), "path was %s", gotPath)
	assert.Equal(t, taskTypeQuery, gotReq.TaskType)
}

func TestEmbedQuery_RetriesRateLimit(t *testing.T) {
	attempts := 0
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(embedResponse{Embedding: embedding{Values: []float32{1}}})
	})

	vector, err := service.EmbedQuery(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, []float32{1}, vector)
	assert.Equal(t, 3, attempts)
}

func TestEmbedQuery_ProviderExhausted(t *testing.T) {
	attempts := 0
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := service.EmbedQuery(context.Background(), "q")
	assert.ErrorIs(t, err, domain.ErrProviderExhausted)
	assert.Equal(t, 4, attempts, "initial attempt plus three retries")
}

func TestEmbedQuery_APIError(t *testing.T) {
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{Error: &apiError{Code: 400, Message: "invalid model"}})
	})

	_, err := service.EmbedQuery(context.Background(), "q")
	assert.ErrorContains(t, err, "invalid model")
}

func TestEmbedQuery_HTTPError(t *testing.T) {
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "server on fire", http.StatusInternalServerError)
	})

	_, err := service.EmbedQuery(context.Background(), "q")
	assert.ErrorContains(t, err, "status 500")
}

func TestPing(t *testing.T) {
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(`{"name":"models/gemini-embedding-001"}`))
	})
	assert.NoError(t, service.Ping(context.Background()))
}

func TestPing_BadKey(t *testing.T) {
	service := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusForbidden)
	})
	assert.ErrorContains(t, service.Ping(context.Background()), "status 403")
}
