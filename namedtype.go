package lowfive

import "github.com/scigolib/lowfive/internal/datatype"

// NamedDtype carries a live HDF5 type identifier committed by a producer
// application (spec §3 "NamedDtype / CommittedDatatype").
type NamedDtype struct {
	base
	Datatype datatype.Datatype
}

// NewNamedDtype constructs a NamedDtype node.
func NewNamedDtype(name string, dt datatype.Datatype) *NamedDtype {
	return &NamedDtype{base: newBase(TypeNamedDtype, name), Datatype: dt}
}

// CommittedDatatype carries a type together with its encoded binary form;
// Serialize and Deserialize (serialize.go) write and rebuild both.
type CommittedDatatype struct {
	base
	Datatype datatype.Datatype
	Encoded  []byte
}

// NewCommittedDatatype constructs a CommittedDatatype node from its
// encoded form.
func NewCommittedDatatype(name string, dt datatype.Datatype, encoded []byte) *CommittedDatatype {
	return &CommittedDatatype{base: newBase(TypeCommittedDatatype, name), Datatype: dt, Encoded: append([]byte(nil), encoded...)}
}
