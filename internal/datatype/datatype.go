// Package datatype describes HDF5 datatypes as carried by the metadata
// tree: a class, a size, and a native type handle, plus the variable-length
// flags the serializer (internal/serialize) needs to walk indirect storage.
package datatype

import "github.com/scigolib/lowfive/internal/serialize"

// Class mirrors H5T_class_t's members the core needs to distinguish.
type Class int

const (
	ClassInteger Class = iota
	ClassFloat
	ClassString
	ClassCompound
	ClassArray
	ClassEnum
	ClassVlen
	ClassReference
	ClassOpaque
)

func (c Class) String() string {
	switch c {
	case ClassInteger:
		return "integer"
	case ClassFloat:
		return "float"
	case ClassString:
		return "string"
	case ClassCompound:
		return "compound"
	case ClassArray:
		return "array"
	case ClassEnum:
		return "enum"
	case ClassVlen:
		return "vlen"
	case ClassReference:
		return "reference"
	case ClassOpaque:
		return "opaque"
	default:
		return "unknown"
	}
}

// NativeID is an opaque handle to the host HDF5 library's hid_t for this
// type. The core never interprets it; it is only forwarded back to the
// native connector (internal/native) on passthrough calls.
type NativeID interface{}

// Datatype is the value type carried by Dataset/Attribute/NamedDtype nodes.
// It is a plain value (no parent/children) per spec §4.A.
type Datatype struct {
	Class Class
	// Size is the element size in bytes. For variable-length types this is
	// the size of the indirect-storage descriptor, not the payload.
	Size uint64
	// Native is the host library's live type identifier, present when the
	// datatype originated from (or was registered with) the native
	// connector; nil for a purely in-memory datatype reconstructed from a
	// serialized stream.
	Native NativeID
	// VarLen marks a variable-length string or generic variable-length
	// container, so the serializer walks it element by element instead of
	// copying Size bytes verbatim (spec §4.E).
	VarLen bool
	// VarLenIsString narrows VarLen to the string case; generic vlen
	// containers (VarLen && !VarLenIsString) carry auxiliary element-size
	// metadata the serializer also needs, which is out of scope here.
	VarLenIsString bool
}

// Fixed builds a plain fixed-size Datatype, the common case for numeric
// element types.
func Fixed(class Class, size uint64) Datatype {
	return Datatype{Class: class, Size: size}
}

// VarLenString builds the variable-length string Datatype used by
// attribute and dataset APIs that carry strings.
func VarLenString() Datatype {
	return Datatype{Class: ClassString, Size: 0, VarLen: true, VarLenIsString: true}
}

// Equal compares the two datatypes structurally (ignoring Native, which is
// a host-library handle with no stable cross-process meaning — equality of
// two datatypes received over RPC is judged on Class/Size/VarLen alone).
func (d Datatype) Equal(other Datatype) bool {
	return d.Class == other.Class &&
		d.Size == other.Size &&
		d.VarLen == other.VarLen &&
		d.VarLenIsString == other.VarLenIsString
}

// Encode appends d to buf. Native is never encoded: it has no meaning on
// the receiving side of an RPC, which reconstructs a purely in-memory
// Datatype (spec §4.E).
func (d Datatype) Encode(buf *serialize.Buffer) {
	buf.PutInt(int(d.Class))
	buf.PutUint64(d.Size)
	buf.PutBool(d.VarLen)
	buf.PutBool(d.VarLenIsString)
}

// Decode reads a Datatype previously written by Encode.
func Decode(buf *serialize.Buffer) (Datatype, error) {
	var d Datatype
	class, err := buf.GetInt()
	if err != nil {
		return d, err
	}
	d.Class = Class(class)
	if d.Size, err = buf.GetUint64(); err != nil {
		return d, err
	}
	if d.VarLen, err = buf.GetBool(); err != nil {
		return d, err
	}
	if d.VarLenIsString, err = buf.GetBool(); err != nil {
		return d, err
	}
	return d, nil
}
