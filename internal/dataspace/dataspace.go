// Package dataspace implements HDF5 dataspace selections: extent, class,
// and the point/hyperslab/all selection kinds, plus the intersection,
// projection and run-iteration primitives the VOL dispatcher (component D)
// and the distributed index/query protocol (components G/H) build on.
//
// Only regular hyperslabs are supported, matching spec §4.A; irregular
// selections are rejected rather than silently approximated.
package dataspace

import (
	"fmt"

	"github.com/scigolib/lowfive/internal/serialize"
	"github.com/scigolib/lowfive/internal/utils"
)

// Class mirrors H5S_class_t.
type Class int

const (
	ClassScalar Class = iota
	ClassSimple
	ClassNull
)

// Selection mirrors H5S_sel_type, restricted to the kinds spec §4.A names.
type Selection int

const (
	SelectionNone Selection = iota
	SelectionPoints
	SelectionHyperslab
	SelectionAll
)

// Dataspace is a value type: extent plus a selection on that extent. It has
// no parent/children and is safe to copy.
type Dataspace struct {
	Dim               int
	Min, Max          []uint64 // bounding box of the current selection
	Dims, MaxDims     []uint64 // current and maximum extent; MaxDims[i] == Unlimited for unbounded dims
	Class             Class
	Selection         Selection
	Start, Stride     []uint64 // regular hyperslab parameters
	Count, Block      []uint64
	Points            [][]uint64 // explicit point list, used for SelectionPoints (including projected results)
}

// Unlimited marks a dimension with no maximum extent, mirroring H5S_UNLIMITED.
const Unlimited = ^uint64(0)

// NewScalar returns the dataspace of a scalar (rank-0) object.
func NewScalar() Dataspace {
	return Dataspace{Class: ClassScalar}
}

// NewSimple returns a simple dataspace of the given current extent, with an
// "all" selection (the default HDF5 selection on a freshly created
// dataspace). maxdims may be nil, meaning maxdims == dims.
func NewSimple(dims []uint64, maxdims []uint64) Dataspace {
	dim := len(dims)
	d := Dataspace{
		Dim:       dim,
		Dims:      append([]uint64(nil), dims...),
		Class:     ClassSimple,
		Selection: SelectionAll,
	}
	if maxdims == nil {
		d.MaxDims = append([]uint64(nil), dims...)
	} else {
		d.MaxDims = append([]uint64(nil), maxdims...)
	}
	d.Min = make([]uint64, dim)
	d.Max = make([]uint64, dim)
	for i := range dims {
		if dims[i] > 0 {
			d.Max[i] = dims[i] - 1
		}
	}
	return d
}

// SelectHyperslab sets a regular hyperslab selection and recomputes the
// bounding box (Min/Max) to match it.
func (d *Dataspace) SelectHyperslab(start, stride, count, block []uint64) error {
	if len(start) != d.Dim || len(stride) != d.Dim || len(count) != d.Dim || len(block) != d.Dim {
		return fmt.Errorf("dataspace: hyperslab parameter rank mismatch with dim %d", d.Dim)
	}
	empty := false
	for i := range count {
		if count[i] == 0 || block[i] == 0 {
			empty = true
			break
		}
	}
	// An empty selection (a rank assigned zero rows by Decomposer.RankBox,
	// say) has nothing to bounds- or overflow-check.
	if !empty {
		if len(d.Dims) == d.Dim {
			if err := utils.ValidateHyperslabBounds(start, count, stride, d.Dims); err != nil {
				return fmt.Errorf("dataspace: select_hyperslab: %w", err)
			}
		}
		if _, err := utils.CalculateHyperslabElements(count); err != nil {
			return fmt.Errorf("dataspace: select_hyperslab: %w", err)
		}
	}
	d.Selection = SelectionHyperslab
	d.Start = append([]uint64(nil), start...)
	d.Stride = append([]uint64(nil), stride...)
	d.Count = append([]uint64(nil), count...)
	d.Block = append([]uint64(nil), block...)
	d.Points = nil

	d.Min = make([]uint64, d.Dim)
	d.Max = make([]uint64, d.Dim)
	for i := 0; i < d.Dim; i++ {
		d.Min[i] = start[i]
		if count[i] == 0 || block[i] == 0 {
			d.Max[i] = start[i]
			continue
		}
		d.Max[i] = start[i] + stride[i]*(count[i]-1) + block[i] - 1
	}
	return nil
}

// SelectAll sets the "entire extent" selection.
func (d *Dataspace) SelectAll() {
	d.Selection = SelectionAll
	d.Points = nil
	d.Min = make([]uint64, d.Dim)
	d.Max = make([]uint64, d.Dim)
	for i := 0; i < d.Dim; i++ {
		if d.Dims[i] > 0 {
			d.Max[i] = d.Dims[i] - 1
		}
	}
}

// SelectPoints sets an explicit point-list selection, e.g. the result of a
// ProjectIntersection.
func (d *Dataspace) SelectPoints(points [][]uint64) {
	d.Selection = SelectionPoints
	d.Points = points
	d.Min = make([]uint64, d.Dim)
	d.Max = make([]uint64, d.Dim)
	for i := 0; i < d.Dim; i++ {
		first := true
		for _, p := range points {
			if first || p[i] < d.Min[i] {
				d.Min[i] = p[i]
			}
			if first || p[i] > d.Max[i] {
				d.Max[i] = p[i]
			}
			first = false
		}
	}
}

// Size returns the number of points in the current selection (not the
// extent), matching how callers of this package use it: to size a
// dataset_write buffer or a blob during serialization (spec invariant 2).
func (d Dataspace) Size() (uint64, error) {
	switch d.Class {
	case ClassScalar:
		return 1, nil
	case ClassNull:
		return 0, nil
	}

	switch d.Selection {
	case SelectionNone:
		return 0, nil
	case SelectionAll:
		total := uint64(1)
		for _, n := range d.Dims {
			var err error
			total, err = utils.SafeMultiply(total, n)
			if err != nil {
				return 0, err
			}
		}
		return total, nil
	case SelectionPoints:
		return uint64(len(d.Points)), nil
	case SelectionHyperslab:
		total := uint64(1)
		for i := 0; i < d.Dim; i++ {
			perDim, err := utils.SafeMultiply(d.Count[i], d.Block[i])
			if err != nil {
				return 0, err
			}
			if total, err = utils.SafeMultiply(total, perDim); err != nil {
				return 0, err
			}
		}
		return total, nil
	default:
		return 0, fmt.Errorf("dataspace: unknown selection kind %d", d.Selection)
	}
}

// SetExtent extends the current extent in place, keeping Min fixed, per
// spec §4.A. It fails if size[i] exceeds MaxDims[i] unless that maximum is
// Unlimited.
func (d *Dataspace) SetExtent(size []uint64, maxsize []uint64) error {
	if d.Class != ClassSimple {
		return fmt.Errorf("dataspace: set_extent on non-simple dataspace")
	}
	if len(size) != d.Dim {
		return fmt.Errorf("dataspace: set_extent rank mismatch")
	}
	if maxsize != nil {
		if len(maxsize) != d.Dim {
			return fmt.Errorf("dataspace: set_extent maxsize rank mismatch")
		}
		d.MaxDims = append([]uint64(nil), maxsize...)
	}
	for i := 0; i < d.Dim; i++ {
		if d.MaxDims[i] != Unlimited && size[i] > d.MaxDims[i] {
			return fmt.Errorf("dataspace: set_extent(): size %d exceeds maxdims %d in dimension %d", size[i], d.MaxDims[i], i)
		}
	}
	for i := 0; i < d.Dim; i++ {
		d.Dims[i] = size[i]
		if size[i] > 0 {
			d.Max[i] = d.Min[i] + size[i] - 1
		} else {
			d.Max[i] = d.Min[i]
		}
	}
	return nil
}

// Intersects reports whether the two selections' bounding boxes overlap in
// every dimension, matching H5Sselect_intersect_block's block-intersect
// semantics (spec §4.A).
func (d Dataspace) Intersects(other Dataspace) bool {
	if d.Class != ClassSimple || other.Class != ClassSimple {
		return false
	}
	n := other.Dim
	if d.Dim < n {
		n = d.Dim
	}
	for i := 0; i < n; i++ {
		if d.Max[i] < other.Min[i] || other.Max[i] < d.Min[i] {
			return false
		}
	}
	return true
}

// Contains reports whether other's bounding box lies entirely within d's,
// dimension by dimension (same two-Simple-dataspace restriction as
// Intersects). Used to check that a producer rank's actual writes stay
// within the box a Decomposer's formula assigned it, since BoundsToGIDs
// trusts that alignment rather than re-deriving it from the writes
// themselves.
func (d Dataspace) Contains(other Dataspace) bool {
	if d.Class != ClassSimple || other.Class != ClassSimple {
		return false
	}
	n := other.Dim
	if d.Dim < n {
		n = d.Dim
	}
	for i := 0; i < n; i++ {
		if other.Min[i] < d.Min[i] || other.Max[i] > d.Max[i] {
			return false
		}
	}
	return true
}

// containsBox reports whether point p lies within this dataspace's bounding
// box, used by ProjectIntersection to test src-selection membership against
// the intersect box.
func (d Dataspace) containsBox(p []uint64) bool {
	for i := 0; i < d.Dim && i < len(p); i++ {
		if p[i] < d.Min[i] || p[i] > d.Max[i] {
			return false
		}
	}
	return true
}

// points enumerates the coordinates selected by d, in the row-major order
// HDF5's selection iterator produces them in.
func (d Dataspace) points() [][]uint64 {
	switch d.Selection {
	case SelectionPoints:
		return d.Points
	case SelectionNone:
		return nil
	case SelectionAll:
		return enumerateBox(make([]uint64, d.Dim), subtractOne(d.Dims), nil)
	case SelectionHyperslab:
		return enumerateHyperslab(d.Start, d.Stride, d.Count, d.Block)
	default:
		return nil
	}
}

func subtractOne(dims []uint64) []uint64 {
	out := make([]uint64, len(dims))
	for i, v := range dims {
		if v > 0 {
			out[i] = v - 1
		}
	}
	return out
}

// enumerateBox enumerates every integer point in [0,max] per dimension,
// row-major (last dimension varies fastest).
func enumerateBox(_, max []uint64, _ []uint64) [][]uint64 {
	dim := len(max)
	if dim == 0 {
		return [][]uint64{{}}
	}
	sizes := make([]uint64, dim)
	total := uint64(1)
	for i := 0; i < dim; i++ {
		sizes[i] = max[i] + 1
		total *= sizes[i]
	}
	points := make([][]uint64, 0, total)
	idx := make([]uint64, dim)
	for {
		p := append([]uint64(nil), idx...)
		points = append(points, p)

		k := dim - 1
		for k >= 0 {
			idx[k]++
			if idx[k] < sizes[k] {
				break
			}
			idx[k] = 0
			k--
		}
		if k < 0 {
			break
		}
	}
	return points
}

// enumerateHyperslab enumerates the points of a regular hyperslab
// (start, stride, count, block), row-major across block-within-count.
func enumerateHyperslab(start, stride, count, block []uint64) [][]uint64 {
	dim := len(start)
	total := uint64(1)
	for i := 0; i < dim; i++ {
		total *= count[i] * block[i]
	}
	if total == 0 {
		return nil
	}
	points := make([][]uint64, 0, total)

	// idx[i] walks (countIdx, blockIdx) pairs per dimension.
	countIdx := make([]uint64, dim)
	blockIdx := make([]uint64, dim)
	for {
		p := make([]uint64, dim)
		for i := 0; i < dim; i++ {
			p[i] = start[i] + stride[i]*countIdx[i] + blockIdx[i]
		}
		points = append(points, p)

		k := dim - 1
		for k >= 0 {
			blockIdx[k]++
			if blockIdx[k] < block[k] {
				break
			}
			blockIdx[k] = 0
			countIdx[k]++
			if countIdx[k] < count[k] {
				break
			}
			countIdx[k] = 0
			k--
		}
		if k < 0 {
			break
		}
	}
	return points
}

// ProjectIntersection returns a new point-selection dataspace on dst
// consisting of the points of dst that correspond, ordinal position for
// ordinal position in the selection enumeration, to the points of src that
// lie inside srcIntersect. This is the Go equivalent of
// H5Sselect_project_intersection (spec §4.A).
func ProjectIntersection(src, dst, srcIntersect Dataspace) (Dataspace, error) {
	srcPoints := src.points()
	dstPoints := dst.points()
	if len(srcPoints) != len(dstPoints) {
		return Dataspace{}, fmt.Errorf("dataspace: project_intersection: src has %d points, dst has %d", len(srcPoints), len(dstPoints))
	}

	out := make([][]uint64, 0, len(srcPoints))
	for i, p := range srcPoints {
		if srcIntersect.containsBox(p) {
			out = append(out, dstPoints[i])
		}
	}

	result := Dataspace{Dim: dst.Dim, Class: ClassSimple, Dims: dst.Dims, MaxDims: dst.MaxDims}
	result.SelectPoints(out)
	return result, nil
}

// Run is a contiguous (byte offset, byte length) span within a flattened
// buffer, as produced by Iterate.
type Run struct {
	Offset uint64
	Length uint64
}

// linearOffset converts a point coordinate into a row-major element index
// within dims, then to a byte offset given elementSize.
func linearOffset(p []uint64, dims []uint64, elementSize uint64) uint64 {
	idx := uint64(0)
	stride := uint64(1)
	for i := len(dims) - 1; i >= 0; i-- {
		idx += p[i] * stride
		stride *= dims[i]
	}
	return idx * elementSize
}

// Iterate streams the selection of space as a sequence of (byte offset,
// byte length) runs, merging consecutive points into the longest possible
// run the way HDF5's selection iterator does (spec §4.A).
func Iterate(space Dataspace, elementSize uint64, f func(offset, length uint64)) {
	pts := space.points()
	if len(pts) == 0 {
		return
	}
	offsets := make([]uint64, len(pts))
	for i, p := range pts {
		offsets[i] = linearOffset(p, space.Dims, elementSize)
	}
	runStart := offsets[0]
	runLen := elementSize
	for i := 1; i < len(offsets); i++ {
		if offsets[i] == runStart+runLen {
			runLen += elementSize
			continue
		}
		f(runStart, runLen)
		runStart = offsets[i]
		runLen = elementSize
	}
	f(runStart, runLen)
}

// IteratePair simultaneously walks two selections of equal point count and
// yields (offset-in-a, offset-in-b, length) for the longest runs common to
// both, matching the two-dataspace overload of spec §4.A's iterate.
func IteratePair(spaceA Dataspace, sizeA uint64, spaceB Dataspace, sizeB uint64, f func(offA, offB, length uint64)) error {
	ptsA := spaceA.points()
	ptsB := spaceB.points()
	if len(ptsA) != len(ptsB) {
		return fmt.Errorf("dataspace: iterate: selections have different point counts (%d vs %d)", len(ptsA), len(ptsB))
	}
	if len(ptsA) == 0 {
		return nil
	}

	offA := make([]uint64, len(ptsA))
	offB := make([]uint64, len(ptsB))
	for i := range ptsA {
		offA[i] = linearOffset(ptsA[i], spaceA.Dims, sizeA)
		offB[i] = linearOffset(ptsB[i], spaceB.Dims, sizeB)
	}

	runA, runB := offA[0], offB[0]
	lenA, lenB := sizeA, sizeB
	for i := 1; i < len(offA); i++ {
		if offA[i] == runA+lenA && offB[i] == runB+lenB && sizeA == sizeB {
			lenA += sizeA
			lenB += sizeB
			continue
		}
		f(runA, runB, min(lenA, lenB))
		runA, runB = offA[i], offB[i]
		lenA, lenB = sizeA, sizeB
	}
	f(runA, runB, min(lenA, lenB))
	return nil
}

func min(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

// Encode appends d to buf, matching the original serializer's encoding of
// dataspaces as part of a dataset/attribute record (spec §4.E), except that
// here the selection is carried explicitly instead of through H5Sencode.
func (d Dataspace) Encode(buf *serialize.Buffer) {
	buf.PutInt(int(d.Class))
	buf.PutInt(d.Dim)
	putU64Slice(buf, d.Dims)
	putU64Slice(buf, d.MaxDims)
	buf.PutInt(int(d.Selection))
	putU64Slice(buf, d.Start)
	putU64Slice(buf, d.Stride)
	putU64Slice(buf, d.Count)
	putU64Slice(buf, d.Block)
	buf.PutInt(len(d.Points))
	for _, p := range d.Points {
		putU64Slice(buf, p)
	}
}

// Decode reads a Dataspace previously written by Encode, including
// re-deriving its bounding box via the same constructors used when the
// selection was first made.
func Decode(buf *serialize.Buffer) (Dataspace, error) {
	var d Dataspace
	class, err := buf.GetInt()
	if err != nil {
		return d, err
	}
	d.Class = Class(class)
	if d.Dim, err = buf.GetInt(); err != nil {
		return d, err
	}
	if d.Dims, err = getU64Slice(buf); err != nil {
		return d, err
	}
	if d.MaxDims, err = getU64Slice(buf); err != nil {
		return d, err
	}
	sel, err := buf.GetInt()
	if err != nil {
		return d, err
	}
	d.Selection = Selection(sel)
	if d.Start, err = getU64Slice(buf); err != nil {
		return d, err
	}
	if d.Stride, err = getU64Slice(buf); err != nil {
		return d, err
	}
	if d.Count, err = getU64Slice(buf); err != nil {
		return d, err
	}
	if d.Block, err = getU64Slice(buf); err != nil {
		return d, err
	}
	npoints, err := buf.GetInt()
	if err != nil {
		return d, err
	}
	if npoints > 0 {
		d.Points = make([][]uint64, npoints)
		for i := range d.Points {
			if d.Points[i], err = getU64Slice(buf); err != nil {
				return d, err
			}
		}
	}

	switch d.Class {
	case ClassSimple:
		d.Min = make([]uint64, d.Dim)
		d.Max = make([]uint64, d.Dim)
		switch d.Selection {
		case SelectionHyperslab:
			for i := 0; i < d.Dim; i++ {
				d.Min[i] = d.Start[i]
				if d.Count[i] == 0 || d.Block[i] == 0 {
					d.Max[i] = d.Start[i]
					continue
				}
				d.Max[i] = d.Start[i] + d.Stride[i]*(d.Count[i]-1) + d.Block[i] - 1
			}
		case SelectionAll:
			for i := 0; i < d.Dim; i++ {
				if d.Dims[i] > 0 {
					d.Max[i] = d.Dims[i] - 1
				}
			}
		case SelectionPoints:
			d.SelectPoints(d.Points)
		}
	}
	return d, nil
}

func putU64Slice(buf *serialize.Buffer, s []uint64) {
	buf.PutInt(len(s))
	for _, v := range s {
		buf.PutUint64(v)
	}
}

func getU64Slice(buf *serialize.Buffer) ([]uint64, error) {
	n, err := buf.GetInt()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	out := make([]uint64, n)
	for i := range out {
		if out[i], err = buf.GetUint64(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// String renders a Dataspace for trace logging, in the same spirit as the
// original source's operator<<.
func (d Dataspace) String() string {
	switch d.Class {
	case ClassScalar:
		return "class=scalar"
	case ClassNull:
		return "class=null"
	}
	return fmt.Sprintf("class=simple dims=%v maxdims=%v selection=%v", d.Dims, d.MaxDims, d.Selection)
}
