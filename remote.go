package lowfive

import "github.com/scigolib/lowfive/internal/query"

// RemoteFile is the consumer-side shadow installed when file_open
// resolves a filename to a producer across an intercommunicator instead of
// to a local File (spec §3 "RemoteFile/RemoteGroup/RemoteDataset").
type RemoteFile struct {
	base
}

// NewRemoteFile constructs a RemoteFile shadow.
func NewRemoteFile(name string) *RemoteFile {
	return &RemoteFile{base: newBase(TypeFile, name)}
}

// AddChild inserts child under f in insertion order.
func (f *RemoteFile) AddChild(child Object) { addChild(f, child) }

// RemoteGroup is the consumer-side shadow of a group resolved under a
// RemoteFile.
type RemoteGroup struct {
	base
}

// NewRemoteGroup constructs a RemoteGroup shadow.
func NewRemoteGroup(name string) *RemoteGroup {
	return &RemoteGroup{base: newBase(TypeGroup, name)}
}

// AddChild inserts child under g in insertion order.
func (g *RemoteGroup) AddChild(child Object) { addChild(g, child) }

// RemoteDataset is the consumer-side shadow installed by distributed.go's
// DatasetOpen when a path does not resolve locally: it carries the
// dimension, type, dataspace and decomposer the producer reported, plus
// the query handle bound to the intercommunicator that answered (spec §3).
type RemoteDataset struct {
	base

	Handle *query.RemoteHandle
}

// NewRemoteDataset constructs a RemoteDataset shadow bound to h.
func NewRemoteDataset(name string, h *query.RemoteHandle) *RemoteDataset {
	return &RemoteDataset{base: newBase(TypeDataset, name), Handle: h}
}

// AddChild inserts child under d in insertion order (attribute children).
func (d *RemoteDataset) AddChild(child Object) { addChild(d, child) }
