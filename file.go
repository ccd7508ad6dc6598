package lowfive

// File is the root of one metadata subtree (spec §3 "File"). It has no
// parent and its name is the filename exactly as passed to file_create or
// file_open.
type File struct {
	base

	// FCPL / FAPL hold the host's file creation / access property list
	// identifiers, forwarded back to the native connector unchanged; the
	// core never interprets their contents.
	FCPL, FAPL interface{}

	// Dummy is not set anywhere in this package: a file_open of a name not
	// present in the process registry yields a separate DummyFile node
	// (dummy.go, spec §3 "DummyFile/DummyGroup/DummyDataset") instead.
	Dummy bool

	// Keep, when true, survives this File past file_close instead of being
	// released from the process registry (spec §4.D file_close, and the
	// SUPPLEMENTED "keep" feature in SPEC_FULL.md).
	Keep bool
}

// NewFile constructs a root File node. It is not inserted into any
// registry; callers (Connector.FileCreate/FileOpen) own that.
func NewFile(name string, fcpl, fapl interface{}) *File {
	return &File{base: newBase(TypeFile, name), FCPL: fcpl, FAPL: fapl}
}

// AddChild inserts child under f in insertion order (spec §3 invariant:
// children list is in insertion order).
func (f *File) AddChild(child Object) { addChild(f, child) }
