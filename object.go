// Package lowfive implements the VOL-interception core described by the
// project: a metadata tree mirroring HDF5's object model, a glob-based
// router choosing between passthrough/memory/zero-copy policies, and the
// distributed index/query protocol that lets a consumer application read
// objects written by a concurrently running producer application. See
// SPEC_FULL.md for the component map.
package lowfive

import (
	"github.com/google/uuid"
)

// ObjectType discriminates the closed set of node kinds the metadata tree
// can hold. A tagged variant with explicit switches on this tag (rather
// than virtual dispatch) is used throughout, per SPEC_FULL.md's design
// notes: nearly every call site already needs to know the concrete kind.
type ObjectType int

const (
	TypeFile ObjectType = iota
	TypeGroup
	TypeDataset
	TypeAttribute
	TypeNamedDtype
	TypeCommittedDatatype
	TypeHardLink
	TypeSoftLink
	// TypeWrapper tags the transient (native, metadata) pair the VOL
	// dispatcher hands back to the host for every call (see ObjectPointers
	// in connector.go); a Wrapper is never inserted into the tree itself.
	TypeWrapper
)

func (t ObjectType) String() string {
	switch t {
	case TypeFile:
		return "File"
	case TypeGroup:
		return "Group"
	case TypeDataset:
		return "Dataset"
	case TypeAttribute:
		return "Attribute"
	case TypeNamedDtype:
		return "NamedDtype"
	case TypeCommittedDatatype:
		return "CommittedDatatype"
	case TypeHardLink:
		return "HardLink"
	case TypeSoftLink:
		return "SoftLink"
	case TypeWrapper:
		return "Wrapper"
	default:
		return "Unknown"
	}
}

// Token is the opaque identity handle spec §3 requires: stable for an
// object's lifetime and byte-wise comparable. It backs the host's
// H5O_token_t via fill_token/find_token (tree.go).
type Token [16]byte

func newToken() Token {
	var t Token
	copy(t[:], uuid.New().Bytes())
	return t
}

// IsZero reports whether t is the zero token, used as a not-found sentinel.
func (t Token) IsZero() bool { return t == Token{} }

// Object is the common interface every metadata tree node satisfies: a
// parent pointer, an ordered child list, a stable token, a type tag and a
// name (spec §3, "Object"). Concrete kinds (File, Group, Dataset, ...)
// embed base and get these methods for free; callers type-switch on the
// concrete type (or check Type()) to reach kind-specific fields.
type Object interface {
	Parent() Object
	Children() []Object
	Type() ObjectType
	Name() string
	Tok() Token
}

// base implements the common Object fields and invariants: at most one
// parent, children in insertion order (spec §3). It is embedded by every
// concrete node type.
type base struct {
	parent   Object
	children []Object
	token    Token
	typ      ObjectType
	name     string
}

func newBase(typ ObjectType, name string) base {
	return base{typ: typ, name: name, token: newToken()}
}

func (b *base) Parent() Object     { return b.parent }
func (b *base) Children() []Object { return b.children }
func (b *base) Type() ObjectType   { return b.typ }
func (b *base) Name() string       { return b.name }
func (b *base) Tok() Token         { return b.token }

// addChild appends child in insertion order and sets its parent, enforcing
// the single-owning-parent invariant (spec §3 "Object").
func addChild(parent Object, child Object) {
	setParent(child, parent)
	appendChild(parent, child)
}

// the following helpers reach into base via the small mutation interface
// below, so that addChild/removeChild work uniformly across concrete types
// without a type switch at every call site.

type mutableObject interface {
	Object
	setParentPtr(Object)
	appendChildPtr(Object)
	removeChildPtr(Object)
}

func (b *base) setParentPtr(p Object)      { b.parent = p }
func (b *base) appendChildPtr(c Object)     { b.children = append(b.children, c) }
func (b *base) removeChildPtr(target Object) {
	for i, c := range b.children {
		if c == target {
			b.children = append(b.children[:i], b.children[i+1:]...)
			return
		}
	}
}

// setTok overwrites the token assigned by newBase. Used only by Deserialize
// to restore the exact token the producer wrote, so that the round-trip
// invariant in spec §4.E (deserialize(serialize(x)) == x) extends to
// token identity.
func (b *base) setTok(t Token) { b.token = t }

type tokenSetter interface {
	setTok(Token)
}

func restoreToken(o Object, t Token) {
	if ts, ok := o.(tokenSetter); ok {
		ts.setTok(t)
	}
}

func setParent(child Object, parent Object) {
	if m, ok := child.(mutableObject); ok {
		m.setParentPtr(parent)
	}
}

func appendChild(parent Object, child Object) {
	if m, ok := parent.(mutableObject); ok {
		m.appendChildPtr(child)
	}
}

// Remove detaches o from its parent's children list (spec §3
// "Object.remove"). It is a no-op if o has no parent.
func Remove(o Object) {
	p := o.Parent()
	if p == nil {
		return
	}
	if m, ok := p.(mutableObject); ok {
		m.removeChildPtr(o)
	}
	if m, ok := o.(mutableObject); ok {
		m.setParentPtr(nil)
	}
}
