// Package sorter orders vertex collections. Layouts that place vertices in
// sequence (circle, grid, spiral) accept a [Sorter] to decide that sequence.
//
// Two strategies are provided: [ByComparison] delegates to a caller-supplied
// total order, and [ByMetadata] orders by a typed metadata value that every
// vertex must carry.
package sorter

import (
	"cmp"
	"errors"
	"slices"
	"strings"

	nxerrors "github.com/matzehuels/netgraph/pkg/errors"
	"github.com/matzehuels/netgraph/pkg/graph"
)

// ErrMissingSortKey is returned by a metadata sorter when a vertex lacks the
// sort key or stores it with the wrong type.
var ErrMissingSortKey = errors.New("missing sort key")

// Sorter orders vertices. Sort returns a new slice and leaves the input
// untouched.
type Sorter interface {
	Sort(vertices []*graph.Vertex) ([]*graph.Vertex, error)
}

// CompareFunc is a total order over vertices, in the style of [cmp.Compare].
type CompareFunc func(a, b *graph.Vertex) int

// CompareID orders vertices by ascending ID.
func CompareID(a, b *graph.Vertex) int { return cmp.Compare(a.ID(), b.ID()) }

type comparisonSorter struct {
	cmp CompareFunc
}

// ByComparison returns a sorter using cmp. A nil cmp sorts by ascending ID.
// The sort is stable.
func ByComparison(cmp CompareFunc) Sorter {
	if cmp == nil {
		cmp = CompareID
	}
	return comparisonSorter{cmp: cmp}
}

func (s comparisonSorter) Sort(vertices []*graph.Vertex) ([]*graph.Vertex, error) {
	out := slices.Clone(vertices)
	slices.SortStableFunc(out, s.cmp)
	return out, nil
}

// ByName sorts by case-insensitive name, then by ID.
func ByName() Sorter {
	return ByComparison(func(a, b *graph.Vertex) int {
		if c := strings.Compare(strings.ToLower(a.Name()), strings.ToLower(b.Name())); c != 0 {
			return c
		}
		return CompareID(a, b)
	})
}

type metadataSorter[T cmp.Ordered] struct {
	key        graph.Key[T]
	descending bool
}

// ByMetadata returns a sorter ordering vertices by the value stored under
// key. Every vertex must carry the key with type T, otherwise Sort fails
// with [ErrMissingSortKey] naming the key and the vertex. Equal values are
// ordered by ascending ID in both directions.
func ByMetadata[T cmp.Ordered](key graph.Key[T], descending bool) Sorter {
	return metadataSorter[T]{key: key, descending: descending}
}

func (s metadataSorter[T]) Sort(vertices []*graph.Vertex) ([]*graph.Vertex, error) {
	// Read each value once; comparisons only touch the parallel slice.
	values := make([]T, len(vertices))
	for i, v := range vertices {
		val, ok, err := graph.TryGetValue(v.Metadata(), s.key)
		if err != nil || !ok {
			return nil, nxerrors.MetadataContract(&nxerrors.KeyError{Key: s.key.Name(), Err: ErrMissingSortKey},
				"sort %s", v)
		}
		values[i] = val
	}

	idx := make([]int, len(vertices))
	for i := range idx {
		idx[i] = i
	}
	slices.SortFunc(idx, func(i, j int) int {
		c := cmp.Compare(values[i], values[j])
		if s.descending {
			c = -c
		}
		if c != 0 {
			return c
		}
		return CompareID(vertices[i], vertices[j])
	})

	out := make([]*graph.Vertex, len(idx))
	for i, k := range idx {
		out[i] = vertices[k]
	}
	return out, nil
}

// Chain sorts with the first sorter that succeeds. It is used to fall back
// to ID order when an optional metadata key is absent.
func Chain(sorters ...Sorter) Sorter {
	return chain(sorters)
}

type chain []Sorter

func (c chain) Sort(vertices []*graph.Vertex) ([]*graph.Vertex, error) {
	var lastErr error
	for _, s := range c {
		out, err := s.Sort(vertices)
		if err == nil {
			return out, nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return slices.Clone(vertices), nil
}
