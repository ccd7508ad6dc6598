package lowfive

// HardLink is a name plus a non-owning pointer to another Object in the
// same tree (spec §3 "HardLink"). It is weak: destroying its target does
// not destroy the link, and the link must be unlinked before the target's
// File is destroyed (spec design note "Pointer-graph metadata tree").
type HardLink struct {
	base
	Target Object
}

// NewHardLink constructs a HardLink pointing at target.
func NewHardLink(name string, target Object) *HardLink {
	return &HardLink{base: newBase(TypeHardLink, name), Target: target}
}

// SoftLink is a name plus a string target resolved lazily at lookup time
// (spec §3 "SoftLink").
type SoftLink struct {
	base
	TargetPath string
}

// NewSoftLink constructs a SoftLink to the given path, resolved on demand
// by Search (tree.go) restarting from TargetPath (spec §4.B).
func NewSoftLink(name, targetPath string) *SoftLink {
	return &SoftLink{base: newBase(TypeSoftLink, name), TargetPath: targetPath}
}
