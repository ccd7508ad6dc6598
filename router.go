package lowfive

import "path"

// Policy names the three routing policies a (filename, path) pair can
// select (spec §1, §4.C).
type Policy int

const (
	PolicyMemory Policy = iota
	PolicyPassthru
	PolicyZeroCopy
)

// globRow is one (filename-glob, path-glob) registration.
type globRow struct {
	filenamePattern string
	pathPattern     string
}

// Router holds the three ordered glob lists that classify every VOL call by
// (filename, path) (spec §4.C). Rows are matched in registration order;
// find_match reports the first match, find_matches every match.
type Router struct {
	memory    []globRow
	passthru  []globRow
	zerocopy  []globRow
	intercomm []intercommRow
}

type intercommRow struct {
	globRow
	index int
}

// NewRouter returns an empty Router; nothing matches until patterns are
// registered.
func NewRouter() *Router {
	return &Router{}
}

// SetMemory registers a (filename, path) glob pair against the memory
// policy list (spec §6 "set_memory").
func (r *Router) SetMemory(filenamePattern, pathPattern string) {
	r.memory = append(r.memory, globRow{filenamePattern, pathPattern})
}

// SetPassthru registers against the passthrough policy list.
func (r *Router) SetPassthru(filenamePattern, pathPattern string) {
	r.passthru = append(r.passthru, globRow{filenamePattern, pathPattern})
}

// SetZeroCopy registers against the zero-copy ownership policy list.
func (r *Router) SetZeroCopy(filenamePattern, pathPattern string) {
	r.zerocopy = append(r.zerocopy, globRow{filenamePattern, pathPattern})
}

// SetIntercomm binds a (filename, path) glob to one of the
// intercommunicators the connector was constructed with (spec §6
// "set_intercomm").
func (r *Router) SetIntercomm(filenamePattern, pathPattern string, intercommIndex int) {
	r.intercomm = append(r.intercomm, intercommRow{globRow{filenamePattern, pathPattern}, intercommIndex})
}

// globMatch implements '*' (zero or more) / '?' (one) glob matching. When
// partial is true, a pattern ending in '*' also matches any strict prefix
// of s up to the point the literal prefix is satisfied, so an ancestor path
// can be classified before its leaf name is known (spec §4.C).
func globMatch(pattern, s string, partial bool) bool {
	if partial && len(pattern) > 0 && pattern[len(pattern)-1] == '*' {
		literal := pattern[:len(pattern)-1]
		if len(s) <= len(literal) {
			return matchGlob(pattern[:min(len(pattern), len(s)+1)], s)
		}
	}
	return matchGlob(pattern, s)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// matchGlob is a classic recursive-descent '*'/'?' matcher equivalent to
// path.Match but without path.Match's restriction against '*' crossing '/'
// (a path glob in this router matches across separators, per spec §4.C).
func matchGlob(pattern, s string) bool {
	if pattern == "" {
		return s == ""
	}
	switch pattern[0] {
	case '*':
		if matchGlob(pattern[1:], s) {
			return true
		}
		for i := 0; i < len(s); i++ {
			if matchGlob(pattern[1:], s[i+1:]) {
				return true
			}
		}
		return false
	case '?':
		if s == "" {
			return false
		}
		return matchGlob(pattern[1:], s[1:])
	default:
		if s == "" || s[0] != pattern[0] {
			return false
		}
		return matchGlob(pattern[1:], s[1:])
	}
}

// MatchAny reports whether (filename, p) matches any row of list under the
// given partial mode. An empty filename pattern matches the filename
// itself verbatim (spec §6 "Empty pattern matches the filename itself").
func matchAny(filename, p string, list []globRow, partial bool) bool {
	for _, row := range list {
		fp := row.filenamePattern
		if fp == "" {
			fp = filename
		}
		if globMatch(fp, filename, false) && globMatch(row.pathPattern, p, partial) {
			return true
		}
	}
	return false
}

// FindMatch returns the index of the first row of list matching (filename,
// p), or -1.
func findMatch(filename, p string, list []globRow, partial bool) int {
	for i, row := range list {
		fp := row.filenamePattern
		if fp == "" {
			fp = filename
		}
		if globMatch(fp, filename, false) && globMatch(row.pathPattern, p, partial) {
			return i
		}
	}
	return -1
}

// FindMatches returns the indices of every row of list matching (filename,
// p).
func findMatches(filename, p string, list []globRow, partial bool) []int {
	var out []int
	for i, row := range list {
		fp := row.filenamePattern
		if fp == "" {
			fp = filename
		}
		if globMatch(fp, filename, false) && globMatch(row.pathPattern, p, partial) {
			out = append(out, i)
		}
	}
	return out
}

// IsMemory reports whether (filename, p) matches the memory policy list.
func (r *Router) IsMemory(filename, p string, partial bool) bool {
	return matchAny(filename, p, r.memory, partial)
}

// IsPassthru reports whether (filename, p) matches the passthrough policy
// list.
func (r *Router) IsPassthru(filename, p string, partial bool) bool {
	return matchAny(filename, p, r.passthru, partial)
}

// IsZeroCopy reports whether (filename, p) matches the zero-copy ownership
// list.
func (r *Router) IsZeroCopy(filename, p string, partial bool) bool {
	return matchAny(filename, p, r.zerocopy, partial)
}

// Intercomm returns the intercommunicator index bound to (filename, p), and
// whether a binding exists (spec §4.I "Mapping" error when none does).
func (r *Router) Intercomm(filename, p string, partial bool) (int, bool) {
	for _, row := range r.intercomm {
		fp := row.filenamePattern
		if fp == "" {
			fp = filename
		}
		if globMatch(fp, filename, false) && globMatch(row.pathPattern, p, partial) {
			return row.index, true
		}
	}
	return 0, false
}

// MatchingIntercomms returns every distinct intercommunicator index whose
// filename pattern matches filename, ignoring the path pattern (spec §4.H
// "file_open(name) sends a file-open notification on every
// intercommunicator whose pattern matches the filename").
func (r *Router) MatchingIntercomms(filename string) []int {
	seen := make(map[int]bool)
	var out []int
	for _, row := range r.intercomm {
		fp := row.filenamePattern
		if fp == "" {
			fp = filename
		}
		if globMatch(fp, filename, false) && !seen[row.index] {
			seen[row.index] = true
			out = append(out, row.index)
		}
	}
	return out
}

// joinPath appends name to parent using '/' regardless of host OS, since
// HDF5 paths are always slash-separated (unlike path/filepath, which would
// be backslash-separated on Windows).
func joinPath(parent, name string) string {
	return path.Join(parent, name)
}
