package lowfive

// Group is an HDF5 container object (spec §3 "Group"): it may hold any mix
// of Group, Dataset, Attribute (as a child, for iteration purposes),
// NamedDtype, CommittedDatatype, HardLink and SoftLink children.
type Group struct {
	base

	// GCPL holds the host's group-creation property list identifier.
	GCPL interface{}

	// Dummy is not set anywhere in this package: unresolved opens are
	// represented by the separate Dummy* node types (dummy.go, spec §3).
	Dummy bool
}

// NewGroup constructs a Group node, not yet attached to a parent.
func NewGroup(name string, gcpl interface{}) *Group {
	return &Group{base: newBase(TypeGroup, name), GCPL: gcpl}
}

// AddChild inserts child under g in insertion order.
func (g *Group) AddChild(child Object) { addChild(g, child) }

// IterateLinks walks g's children in insertion order, invoking fn with each
// child's name and Object (spec §4.D "link_iterate", spec §8 "Link
// iteration": "invoke the callback with names in [insertion] order; an
// early-termination return from the callback must stop iteration and
// propagate to the caller"). If fn returns a non-nil error, iteration stops
// and that error is returned. If fn returns stop=true, iteration stops and
// IterateLinks returns nil.
func (g *Group) IterateLinks(fn func(name string, child Object) (stop bool, err error)) error {
	for _, child := range g.Children() {
		stop, err := fn(child.Name(), child)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
	return nil
}
