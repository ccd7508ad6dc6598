package lowfive

import (
	"github.com/scigolib/lowfive/internal/dataspace"
	"github.com/scigolib/lowfive/internal/datatype"
)

// Attribute carries a single buffer sized by the memory type's element
// size, deep-copied on write (spec §3 "Attribute", §4.D attr_write). For
// variable-length types, AuxData holds the indirect storage the
// serializer walks element by element.
type Attribute struct {
	base

	Type    datatype.Datatype
	Space   dataspace.Dataspace
	MemType datatype.Datatype
	Data    []byte

	// AuxData holds variable-length indirect storage (e.g. per-element
	// string bytes) when MemType.VarLen is set.
	AuxData [][]byte
}

// NewAttribute constructs an Attribute node, not yet attached to a parent.
func NewAttribute(name string, typ datatype.Datatype, space dataspace.Dataspace) *Attribute {
	return &Attribute{base: newBase(TypeAttribute, name), Type: typ, Space: space}
}

// Write deep-copies buf into the attribute (attribute writes always
// deep-copy, unlike dataset zero-copy — spec §4.D attr_create/write).
func (a *Attribute) Write(memType datatype.Datatype, buf []byte) {
	a.MemType = memType
	a.Data = make([]byte, len(buf))
	copy(a.Data, buf)
}

// WriteVarLen writes a variable-length attribute (e.g. an array of
// strings), storing each element's bytes separately in AuxData so the
// serializer can walk them individually (spec §4.E).
func (a *Attribute) WriteVarLen(memType datatype.Datatype, elements [][]byte) {
	a.MemType = memType
	a.AuxData = make([][]byte, len(elements))
	for i, e := range elements {
		a.AuxData[i] = append([]byte(nil), e...)
	}
}

// IterateAttributes walks o's Attribute children in insertion order,
// invoking fn with each attribute's name and node (spec §4.D "attr_iter",
// spec §8's link/attribute iteration scenario: names in order, with an
// early-termination return from the callback stopping iteration and
// propagating to the caller). Non-Attribute children (groups, datasets,
// links) are skipped. If fn returns a non-nil error, iteration stops and
// that error is returned. If fn returns stop=true, iteration stops and
// IterateAttributes returns nil.
func IterateAttributes(o Object, fn func(name string, attr *Attribute) (stop bool, err error)) error {
	for _, child := range o.Children() {
		a, ok := child.(*Attribute)
		if !ok {
			continue
		}
		stop, err := fn(a.Name(), a)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
	return nil
}
