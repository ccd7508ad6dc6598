package index

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scigolib/lowfive/internal/dataspace"
)

func TestRankBoxSingleRankSelectsAll(t *testing.T) {
	dc := NewDecomposer([]uint64{10}, 1)
	box := dc.RankBox(0)
	require.Equal(t, dataspace.SelectionAll, box.Selection)
}

func TestRankBoxEvenSplitCoversWholeExtentWithoutOverlap(t *testing.T) {
	dc := NewDecomposer([]uint64{10, 3}, 2)
	a := dc.RankBox(0)
	b := dc.RankBox(1)

	require.Equal(t, uint64(0), a.Min[0])
	require.Equal(t, uint64(4), a.Max[0])
	require.Equal(t, uint64(5), b.Min[0])
	require.Equal(t, uint64(9), b.Max[0])
}

func TestRankBoxUnevenSplitGivesRemainderToLowRanks(t *testing.T) {
	dc := NewDecomposer([]uint64{10}, 3)
	a := dc.RankBox(0)
	b := dc.RankBox(1)
	c := dc.RankBox(2)

	require.Equal(t, uint64(0), a.Min[0])
	require.Equal(t, uint64(3), a.Max[0])
	require.Equal(t, uint64(4), b.Min[0])
	require.Equal(t, uint64(6), b.Max[0])
	require.Equal(t, uint64(7), c.Min[0])
	require.Equal(t, uint64(9), c.Max[0])
}

func TestBoundsToGIDsFindsOwningRanks(t *testing.T) {
	dc := NewDecomposer([]uint64{10}, 2)
	query := dataspace.NewSimple([]uint64{10}, nil)
	require.NoError(t, query.SelectHyperslab([]uint64{4}, []uint64{1}, []uint64{2}, []uint64{1}))

	gids := dc.BoundsToGIDs(query)
	require.Equal(t, []int{0, 1}, gids)
}

func TestBoundsToGIDsSingleOwner(t *testing.T) {
	dc := NewDecomposer([]uint64{10}, 2)
	query := dataspace.NewSimple([]uint64{10}, nil)
	require.NoError(t, query.SelectHyperslab([]uint64{1}, []uint64{1}, []uint64{1}, []uint64{1}))

	require.Equal(t, []int{0}, dc.BoundsToGIDs(query))
}
