// Package index provides the per-query flat nearest-neighbor index built
// over one tenant's chunk vectors. The index is a snapshot: positions are
// valid only against the entry slice it was built from, and it is discarded
// after the query.
package index

import (
	"fmt"
	"sort"

	"github.com/alex-wang101/Quiry/internal/domain"
)

// Entry is one indexed chunk: the persisted id, its vector, and the merged
// text returned to callers.
type Entry struct {
	ID     string
	Vector []float32
	Text   string
}

// Hit is a nearest-neighbor match with its squared L2 distance.
type Hit struct {
	Entry    Entry
	Distance float64
}

// Flat is a brute-force index over squared Euclidean distance.
// Build is O(N*D) and each Search is O(N*D); tenants are assumed
// small-to-medium, and the index lives for a single query.
type Flat struct {
	dim     int
	entries []Entry
}

// Build validates dimensions and constructs a flat index. All vectors must
// share one dimension; a mismatch is a data-integrity fault and aborts the
// build rather than truncating or padding. Zero entries yield an empty
// index, which is a normal state for a fresh tenant.
func Build(entries []Entry) (*Flat, error) {
	if len(entries) == 0 {
		return &Flat{}, nil
	}

	dim := len(entries[0].Vector)
	if dim == 0 {
		return nil, fmt.Errorf("entry %s has no vector: %w", entries[0].ID, domain.ErrVectorDimMismatch)
	}
	for _, e := range entries[1:] {
		if len(e.Vector) != dim {
			return nil, fmt.Errorf("entry %s has dimension %d, index has %d: %w",
				e.ID, len(e.Vector), dim, domain.ErrVectorDimMismatch)
		}
	}

	return &Flat{dim: dim, entries: entries}, nil
}

// Empty reports whether the index holds no vectors.
func (f *Flat) Empty() bool { return len(f.entries) == 0 }

// Len returns the number of indexed entries.
func (f *Flat) Len() int { return len(f.entries) }

// Dim returns the vector dimension, 0 for an empty index.
func (f *Flat) Dim() int { return f.dim }

// Search returns up to topK entries nearest to the query by squared L2
// distance, ascending. Exact-distance ties are returned in unspecified
// order. The query dimension must match the index dimension.
func (f *Flat) Search(query []float32, topK int) ([]Hit, error) {
	if f.Empty() || topK <= 0 {
		return nil, nil
	}
	if len(query) != f.dim {
		return nil, fmt.Errorf("query has dimension %d, index has %d: %w",
			len(query), f.dim, domain.ErrVectorDimMismatch)
	}

	hits := make([]Hit, len(f.entries))
	for i, e := range f.entries {
		hits[i] = Hit{Entry: e, Distance: squaredL2(query, e.Vector)}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })

	if topK > len(hits) {
		topK = len(hits)
	}
	return hits[:topK], nil
}

func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
