package dataspace

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIntersects(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Dataspace
		expected bool
	}{
		{
			name:     "overlapping boxes",
			a:        boxSpace(t, []uint64{0, 0}, []uint64{5, 5}),
			b:        boxSpace(t, []uint64{3, 3}, []uint64{8, 8}),
			expected: true,
		},
		{
			name:     "disjoint boxes",
			a:        boxSpace(t, []uint64{0, 0}, []uint64{2, 2}),
			b:        boxSpace(t, []uint64{3, 3}, []uint64{5, 5}),
			expected: false,
		},
		{
			name:     "touching at a single point",
			a:        boxSpace(t, []uint64{0}, []uint64{4}),
			b:        boxSpace(t, []uint64{4}, []uint64{9}),
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.a.Intersects(tt.b))
			require.Equal(t, tt.expected, tt.b.Intersects(tt.a))
		})
	}
}

func TestSetExtent(t *testing.T) {
	d := NewSimple([]uint64{10}, []uint64{Unlimited})
	require.NoError(t, d.SetExtent([]uint64{20}, nil))
	require.Equal(t, uint64(20), d.Dims[0])
	require.Equal(t, uint64(19), d.Max[0])

	bounded := NewSimple([]uint64{10}, []uint64{15})
	require.Error(t, bounded.SetExtent([]uint64{16}, nil))
}

func TestProjectIntersectionAndIterate(t *testing.T) {
	// A 10-element 1-D dataset; write selects [2:6), read queries [3:5).
	file := NewSimple([]uint64{10}, nil)
	require.NoError(t, file.SelectHyperslab([]uint64{2}, []uint64{1}, []uint64{4}, []uint64{1}))

	mem := NewSimple([]uint64{4}, nil)
	mem.SelectAll()

	query := NewSimple([]uint64{10}, nil)
	require.NoError(t, query.SelectHyperslab([]uint64{3}, []uint64{1}, []uint64{2}, []uint64{1}))

	require.True(t, file.Intersects(query))

	// project the file selection through the query intersection onto mem,
	// to find which memory elements the overlapping region came from
	projMem, err := ProjectIntersection(file, mem, query)
	require.NoError(t, err)
	require.Equal(t, uint64(2), mustSize(t, projMem))

	projFile, err := ProjectIntersection(file, file, query)
	require.NoError(t, err)

	var gotOffsets []uint64
	Iterate(projFile, 4, func(off, length uint64) {
		gotOffsets = append(gotOffsets, off)
		require.Equal(t, uint64(8), length) // two contiguous elements merge into one run
	})
	require.Equal(t, []uint64{12}, gotOffsets) // element index 3 * 4 bytes
}

func TestSelectHyperslabRejectsOutOfBoundsSelection(t *testing.T) {
	d := NewSimple([]uint64{10}, nil)
	err := d.SelectHyperslab([]uint64{8}, []uint64{1}, []uint64{4}, []uint64{1})
	require.Error(t, err)
}

func TestSelectHyperslabAllowsEmptySelection(t *testing.T) {
	// A rank that owns zero rows of an uneven decomposition (more ranks
	// than rows) selects an empty hyperslab; that must not be rejected as
	// out-of-bounds.
	d := NewSimple([]uint64{10}, nil)
	require.NoError(t, d.SelectHyperslab([]uint64{10}, []uint64{1}, []uint64{0}, []uint64{1}))
	require.Equal(t, uint64(0), mustSize(t, d))
}

func TestIteratePairMismatchedCounts(t *testing.T) {
	a := NewSimple([]uint64{4}, nil)
	a.SelectAll()
	b := NewSimple([]uint64{5}, nil)
	b.SelectAll()

	err := IteratePair(a, 4, b, 4, func(uint64, uint64, uint64) {})
	require.Error(t, err)
}

func boxSpace(t *testing.T, min, max []uint64) Dataspace {
	t.Helper()
	dims := make([]uint64, len(min))
	block := make([]uint64, len(min))
	start := make([]uint64, len(min))
	stride := make([]uint64, len(min))
	count := make([]uint64, len(min))
	for i := range min {
		dims[i] = max[i] + 1
		start[i] = min[i]
		stride[i] = 1
		count[i] = 1
		block[i] = max[i] - min[i] + 1
	}
	d := NewSimple(dims, nil)
	require.NoError(t, d.SelectHyperslab(start, stride, count, block))
	return d
}

func mustSize(t *testing.T, d Dataspace) uint64 {
	t.Helper()
	n, err := d.Size()
	require.NoError(t, err)
	return n
}
