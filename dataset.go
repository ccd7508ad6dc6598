package lowfive

import (
	"github.com/scigolib/lowfive/internal/dataspace"
	"github.com/scigolib/lowfive/internal/datatype"
)

// Ownership selects whether a Dataset's write buffers are borrowed
// (zero-copy, spec's "user" ownership) or deep-copied and owned by the
// tree ("lowfive" ownership, spec §3 "Dataset").
type Ownership int

const (
	// OwnershipLowFive deep-copies every write into tree-owned storage.
	OwnershipLowFive Ownership = iota
	// OwnershipUser borrows the caller's buffer; the application must keep
	// it live until every potential reader has consumed it (spec
	// "Zero-copy", GLOSSARY).
	OwnershipUser
)

// DataTriple is one recorded write to a Dataset: the memory type used for
// that write, the memory and file dataspaces describing the selection, the
// resulting bytes, and whether those bytes are owned by the triple or only
// borrowed (spec §3 "DataTriple").
type DataTriple struct {
	Type   datatype.Datatype
	Memory dataspace.Dataspace
	File   dataspace.Dataspace
	Bytes  []byte
	Owned  bool
}

// Dataset carries its declared type/dataspace plus the append-only list of
// writes made to it (spec §3 "Dataset"). A dataset must be routed through
// at least one of IsPassthru/IsMemory (spec invariant 3).
type Dataset struct {
	base

	Type  datatype.Datatype
	Space dataspace.Dataspace

	DCPL, DAPL interface{}

	Ownership   Ownership
	IsPassthru  bool
	IsMemory    bool

	// Data is the append-only list of DataTriples written to this dataset.
	// Concurrent writes covering overlapping regions are resolved on read
	// by last-writer-wins within a selection (spec §3 "Dataset").
	Data []DataTriple

	// Dummy is not set anywhere in this package: a dataset_open whose path
	// does not resolve locally yields a separate DummyDataset node
	// (dummy.go) instead.
	Dummy bool
}

// NewDataset constructs a Dataset node, not yet attached to a parent.
func NewDataset(name string, typ datatype.Datatype, space dataspace.Dataspace, dcpl, dapl interface{}) *Dataset {
	return &Dataset{base: newBase(TypeDataset, name), Type: typ, Space: space, DCPL: dcpl, DAPL: dapl}
}

// AddChild inserts child under d (used for Attribute children only).
func (d *Dataset) AddChild(child Object) { addChild(d, child) }

// Write appends a DataTriple. If the dataset's ownership is OwnershipUser,
// buf is stored without copying (the caller must keep it alive); otherwise
// the whole of buf is deep-copied (spec §4.D dataset_write). In both cases
// the stored bytes keep buf's memory layout: elements outside the memory
// selection are not dropped, and Read and the index address the bytes by
// memory-space offset.
func (d *Dataset) Write(typ datatype.Datatype, memory, file dataspace.Dataspace, buf []byte) DataTriple {
	dt := DataTriple{Type: typ, Memory: memory, File: file}
	if d.Ownership == OwnershipUser {
		dt.Bytes = buf
		dt.Owned = false
	} else {
		dt.Bytes = make([]byte, len(buf))
		copy(dt.Bytes, buf)
		dt.Owned = true
	}
	d.Data = append(d.Data, dt)
	return dt
}

// Read copies into dst every byte of every DataTriple whose file selection
// intersects fileSel, projecting through fileSel onto memSel the way spec
// §4.D's dataset_read does. Triples are visited in insertion order so a
// later overlapping write overwrites an earlier one in dst (last-writer-
// wins within a selection, spec §3).
func (d *Dataset) Read(fileSel, memSel dataspace.Dataspace, elementSize uint64, dst []byte) error {
	for _, triple := range d.Data {
		if !triple.File.Intersects(fileSel) {
			continue
		}

		// Points of triple.Memory whose corresponding triple.File point
		// falls inside the requested file selection: the source bytes.
		memSrc, err := dataspace.ProjectIntersection(triple.File, triple.Memory, fileSel)
		if err != nil {
			return err
		}
		// Points of memSel whose corresponding fileSel point falls inside
		// this triple's file selection: the destination offsets.
		memDst, err := dataspace.ProjectIntersection(fileSel, memSel, triple.File)
		if err != nil {
			return err
		}

		if err := dataspace.IteratePair(memSrc, elementSize, memDst, elementSize, func(srcOff, dstOff, length uint64) {
			copy(dst[dstOff:dstOff+length], triple.Bytes[srcOff:srcOff+length])
		}); err != nil {
			return err
		}
	}
	return nil
}
