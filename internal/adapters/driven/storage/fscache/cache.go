// Package fscache provides a filesystem-backed embedding vector cache.
package fscache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/custodia-labs/examplan-cli/internal/core/ports/driven"
	"github.com/custodia-labs/examplan-cli/internal/logger"
)

// Ensure Cache implements the interface.
var _ driven.VectorCache = (*Cache)(nil)

// digestLen is the number of hex characters kept from the SHA-256 of
// the chunk text.
const digestLen = 16

// Cache stores one vector artifact and one digest artifact per chunk id
// under a single directory. The digest records which text the vector
// was computed from; a stale or missing digest invalidates the entry.
//
// Writes go through a temp file and rename, and the vector lands before
// the digest, so a crash mid-write can never produce a digest that
// vouches for a corrupt vector.
type Cache struct {
	dir string
}

// New creates a cache rooted at dir, creating it if needed.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Digest returns the content digest used to validate cache entries.
func Digest(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:digestLen]
}

// Get returns the cached vector for (chunkID, text) when the stored
// digest still matches the text.
func (c *Cache) Get(_ context.Context, chunkID, text string) ([]float32, bool) {
	stored, err := os.ReadFile(c.digestPath(chunkID))
	if err != nil {
		return nil, false
	}
	if string(stored) != Digest(text) {
		return nil, false
	}

	raw, err := os.ReadFile(c.vectorPath(chunkID))
	if err != nil || len(raw) < 4 {
		// Unreadable vector artifacts count as misses. The next Put
		// overwrites them.
		logger.Debug("Cache entry %s unreadable, treating as miss", chunkID)
		return nil, false
	}

	dim := int(binary.LittleEndian.Uint32(raw))
	body := raw[4:]
	if len(body) != dim*4 {
		logger.Debug("Cache entry %s has %d payload bytes for dim %d, treating as miss", chunkID, len(body), dim)
		return nil, false
	}

	vector := make([]float32, dim)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(body[i*4:]))
	}
	return vector, true
}

// Put persists the vector and then the digest for chunkID. Each
// artifact is written to a temp file and renamed into place. The
// vector artifact is a little-endian uint32 dimension followed by the
// float32 components.
func (c *Cache) Put(_ context.Context, chunkID, text string, vector []float32) error {
	raw := make([]byte, 4+len(vector)*4)
	binary.LittleEndian.PutUint32(raw, uint32(len(vector)))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(raw[4+i*4:], math.Float32bits(v))
	}

	if err := c.writeAtomic(c.vectorPath(chunkID), raw); err != nil {
		return fmt.Errorf("write vector %s: %w", chunkID, err)
	}
	if err := c.writeAtomic(c.digestPath(chunkID), []byte(Digest(text))); err != nil {
		return fmt.Errorf("write digest %s: %w", chunkID, err)
	}
	return nil
}

// writeAtomic writes data via a temp file in the cache directory and
// renames it over the destination.
func (c *Cache) writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(c.dir, ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (c *Cache) vectorPath(chunkID string) string {
	return filepath.Join(c.dir, chunkID+".vec")
}

func (c *Cache) digestPath(chunkID string) string {
	return filepath.Join(c.dir, chunkID+".digest")
}
