// Package index implements the producer-side distributed index (spec
// §4.G): partitioning a dataset's file-space bounding box across the
// local communicator's ranks, and a serve loop answering get_data and
// redirects requests from consumers.
package index

import (
	"github.com/scigolib/lowfive/internal/dataspace"
)

// Decomposer partitions a dataset's global extent into one contiguous
// block per rank along its slowest-varying dimension — a regular block
// decomposition. Because the partition function is the same deterministic
// formula on every rank, box-to-owner lookups need no cross-rank exchange
// (see DESIGN.md for why this replaces the original's reduce-exchange).
type Decomposer struct {
	Dims []uint64
	Size int
}

// NewDecomposer builds a decomposer for a dataset of the given global
// extent, spread across size ranks.
func NewDecomposer(dims []uint64, size int) *Decomposer {
	return &Decomposer{Dims: append([]uint64(nil), dims...), Size: size}
}

// RankBox returns the sub-box of the global extent assigned to rank, as a
// hyperslab-selected Dataspace over the full extent.
func (dc *Decomposer) RankBox(rank int) dataspace.Dataspace {
	dim := len(dc.Dims)
	space := dataspace.NewSimple(dc.Dims, nil)
	if dim == 0 || dc.Size <= 1 {
		space.SelectAll()
		return space
	}

	total := dc.Dims[0]
	base := total / uint64(dc.Size)
	rem := total % uint64(dc.Size)

	start := uint64(rank) * base
	if uint64(rank) < rem {
		start += uint64(rank)
	} else {
		start += rem
	}
	count := base
	if uint64(rank) < rem {
		count++
	}

	starts := make([]uint64, dim)
	strides := make([]uint64, dim)
	counts := make([]uint64, dim)
	blocks := make([]uint64, dim)
	starts[0] = start
	strides[0] = 1
	counts[0] = count
	blocks[0] = 1
	for i := 1; i < dim; i++ {
		strides[i] = 1
		counts[i] = dc.Dims[i]
		blocks[i] = 1
	}
	_ = space.SelectHyperslab(starts, strides, counts, blocks)
	return space
}

// BoundsToGIDs returns the rank ids whose RankBox intersects box, mirroring
// the consumer-side decomposer's bounds_to_gids (spec §4.H).
func (dc *Decomposer) BoundsToGIDs(box dataspace.Dataspace) []int {
	var gids []int
	for r := 0; r < dc.Size; r++ {
		if dc.RankBox(r).Intersects(box) {
			gids = append(gids, r)
		}
	}
	return gids
}
