package lowfive

import "strings"

// Path pairs an object with the unresolved remainder of a search path, the
// result of Search walking as far down the tree as names exist (spec §4.B
// "Search"). Remainder is empty exactly when Object names the leaf.
type Path struct {
	Object    Object
	Remainder string
}

// IsName reports whether Remainder is a single path component rather than a
// deeper, still-unresolved chain.
func (p Path) IsName() bool {
	return !strings.Contains(p.Remainder, "/")
}

// Exact returns Object, requiring that Search fully resolved the path.
func (p Path) Exact() (Object, bool) {
	if p.Remainder != "" {
		return nil, false
	}
	return p.Object, true
}

// Search walks path component by component through root's subtree,
// stopping at the first component with no matching child name (spec §4.B).
// The returned Path's Object is either the resolved leaf (Remainder == "")
// or the deepest object reached before the walk ran out of children,
// together with the unresolved suffix.
func Search(root Object, path string) Path {
	if path == "" || path == "." {
		return Path{Object: root, Remainder: ""}
	}

	first, rest, hasMore := strings.Cut(path, "/")
	if first == "" {
		return Search(root, rest)
	}

	for _, child := range root.Children() {
		if child.Name() != first {
			continue
		}

		// spec §4.B: a hard link is followed transparently (the walk
		// continues from its target as if the link were the target
		// itself); a soft link is resolved by restarting the search from
		// the link's target path against the enclosing tree's root.
		switch v := child.(type) {
		case *HardLink:
			if hasMore {
				return Search(v.Target, rest)
			}
			return Path{Object: v.Target, Remainder: ""}
		case *SoftLink:
			target := v.TargetPath
			if hasMore {
				target = joinPath(target, rest)
			}
			return Search(FindRoot(root), target)
		}

		if hasMore {
			return Search(child, rest)
		}
		return Path{Object: child, Remainder: ""}
	}

	return Path{Object: root, Remainder: path}
}

// FindToken searches root's subtree (inclusive) for the object carrying
// token, mirroring locate-by-token (spec §4.B). It returns nil if no object
// matches.
func FindToken(root Object, token Token) Object {
	if root.Tok() == token {
		return root
	}
	for _, child := range root.Children() {
		if found := FindToken(child, token); found != nil {
			return found
		}
	}
	return nil
}

// FindRoot walks Parent() pointers up to the object with no parent.
func FindRoot(o Object) Object {
	cur := o
	for cur.Parent() != nil {
		cur = cur.Parent()
	}
	return cur
}

// Fullname returns the enclosing File's name and the absolute path from
// that file's root down to o, with childPath appended (spec §4.B
// "fullname", used when registering a hard link's target path for
// serialization).
func Fullname(o Object, childPath string) (filename, fullPath string) {
	var parts []string
	if childPath != "" {
		parts = append(parts, childPath)
	}

	cur := o
	for cur.Type() != TypeFile {
		if cur.Name() != "" {
			parts = append(parts, cur.Name())
		}
		cur = cur.Parent()
	}

	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return cur.Name(), "/" + strings.Join(parts, "/")
}
