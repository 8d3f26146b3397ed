// Package flat provides an exact, in-memory inner-product vector index
// with paired binary/JSON persistence.
package flat

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"

	"github.com/custodia-labs/examplan-cli/internal/core/domain"
	"github.com/custodia-labs/examplan-cli/internal/core/ports/driven"
	"github.com/custodia-labs/examplan-cli/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// magic identifies the index file format.
var magic = [8]byte{'E', 'X', 'P', 'L', 'I', 'D', 'X', '1'}

// overfetchFactor is how many extra candidates a filtered search ranks
// before post-filtering down to topK.
const overfetchFactor = 3

// Index is a flat (brute force) index: every search scores every row.
// Vectors are L2-normalised at build time so the inner product equals
// cosine similarity. Exact and fast enough at textbook scale; a few
// thousand rows score in well under a millisecond.
type Index struct {
	mu      sync.RWMutex
	dim     int
	vectors [][]float32
	metas   []domain.ChunkMeta
}

// New creates an empty index.
func New() *Index {
	return &Index{}
}

// Build replaces the index contents. Vectors are copied and normalised;
// the caller's slices are not retained.
func (x *Index) Build(vectors [][]float32, metas []domain.ChunkMeta) error {
	if len(vectors) != len(metas) {
		return fmt.Errorf("%w: %d vectors but %d metadata rows", domain.ErrIndexMismatch, len(vectors), len(metas))
	}

	dim := 0
	normalised := make([][]float32, len(vectors))
	for i, v := range vectors {
		if i == 0 {
			dim = len(v)
		} else if len(v) != dim {
			return fmt.Errorf("%w: vector %d has %d dimensions, want %d", domain.ErrInvalidInput, i, len(v), dim)
		}
		normalised[i] = normalise(v)
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.dim = dim
	x.vectors = normalised
	x.metas = append([]domain.ChunkMeta(nil), metas...)
	return nil
}

// Search scores every row against the normalised query and returns up
// to topK hits. With filters, overfetchFactor*topK candidates are
// ranked first and the filters applied to that candidate set, in
// chapter, file, minimum-score order.
func (x *Index) Search(ctx context.Context, query []float32, topK int, filters domain.SearchFilters) ([]domain.SearchHit, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top_k must be positive, got %d", domain.ErrInvalidInput, topK)
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	if len(x.vectors) == 0 {
		return nil, nil
	}
	if len(query) != x.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d", domain.ErrInvalidInput, len(query), x.dim)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q := normalise(query)

	hits := make([]domain.SearchHit, len(x.vectors))
	for row, vec := range x.vectors {
		score := 0.0
		for i, v := range vec {
			score += float64(v) * float64(q[i])
		}
		hits[row] = domain.SearchHit{Score: score, Row: row, Meta: x.metas[row]}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Row < hits[j].Row
	})

	if filters.IsZero() {
		if len(hits) > topK {
			hits = hits[:topK]
		}
		return hits, nil
	}

	candidates := topK * overfetchFactor
	if len(hits) > candidates {
		hits = hits[:candidates]
	}

	filtered := make([]domain.SearchHit, 0, topK)
	for _, hit := range hits {
		if !filters.MatchesChapter(hit.Meta.ChapterNumber) {
			continue
		}
		if filters.FileID != "" && hit.Meta.FileID != filters.FileID {
			continue
		}
		if hit.Score < filters.MinScore {
			continue
		}
		filtered = append(filtered, hit)
		if len(filtered) == topK {
			break
		}
	}
	return filtered, nil
}

// Save writes the vectors as a binary artifact and the metadata mapping
// as JSON. The two files share row order.
func (x *Index) Save(indexPath, mappingPath string) error {
	x.mu.RLock()
	defer x.mu.RUnlock()

	buf := make([]byte, 0, 16+len(x.vectors)*x.dim*4)
	buf = append(buf, magic[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(x.dim))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(x.vectors)))
	for _, vec := range x.vectors {
		for _, v := range vec {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
	}
	if err := os.WriteFile(indexPath, buf, 0o644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}

	mapping, err := json.Marshal(x.metas)
	if err != nil {
		return fmt.Errorf("marshal mapping: %w", err)
	}
	if err := os.WriteFile(mappingPath, mapping, 0o644); err != nil {
		return fmt.Errorf("write mapping: %w", err)
	}

	logger.Debug("Saved index: %d rows, %d dimensions", len(x.vectors), x.dim)
	return nil
}

// Load reads a previously saved index/mapping pair.
func (x *Index) Load(indexPath, mappingPath string) error {
	raw, err := os.ReadFile(indexPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: index file %s (run build-index first)", domain.ErrInputMissing, indexPath)
		}
		return fmt.Errorf("read index: %w", err)
	}

	if len(raw) < 16 || [8]byte(raw[:8]) != magic {
		return fmt.Errorf("index file %s is not in the expected format", indexPath)
	}
	dim := int(binary.LittleEndian.Uint32(raw[8:12]))
	count := int(binary.LittleEndian.Uint32(raw[12:16]))

	want := 16 + count*dim*4
	if len(raw) != want {
		return fmt.Errorf("%w: index file is %d bytes, want %d for %d x %d", domain.ErrIndexMismatch, len(raw), want, count, dim)
	}

	vectors := make([][]float32, count)
	offset := 16
	for row := range vectors {
		vec := make([]float32, dim)
		for i := range vec {
			vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[offset:]))
			offset += 4
		}
		vectors[row] = vec
	}

	mappingRaw, err := os.ReadFile(mappingPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: mapping file %s", domain.ErrInputMissing, mappingPath)
		}
		return fmt.Errorf("read mapping: %w", err)
	}
	var metas []domain.ChunkMeta
	if err := json.Unmarshal(mappingRaw, &metas); err != nil {
		return fmt.Errorf("parse mapping: %w", err)
	}

	if len(metas) != count {
		return fmt.Errorf("%w: index has %d rows but mapping has %d entries", domain.ErrIndexMismatch, count, len(metas))
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.dim = dim
	x.vectors = vectors
	x.metas = metas
	logger.Debug("Loaded index: %d rows, %d dimensions", count, dim)
	return nil
}

// Len returns the number of indexed rows.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.vectors)
}

// normalise returns a unit-length copy of v. Zero vectors stay zero so
// they never match anything.
func normalise(v []float32) []float32 {
	sum := 0.0
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		return out
	}
	norm := math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
