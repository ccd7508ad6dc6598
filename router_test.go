package lowfive

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRouterEmptyFilenamePatternMatchesFilenameVerbatim(t *testing.T) {
	r := NewRouter()
	r.SetMemory("", "/data/*")
	require.True(t, r.IsMemory("any.h5", "/data/values", false))
}

func TestRouterPolicyListsAreIndependent(t *testing.T) {
	r := NewRouter()
	r.SetMemory("a.h5", "/mem/*")
	r.SetPassthru("a.h5", "/pt/*")
	r.SetZeroCopy("a.h5", "/zc/*")

	require.True(t, r.IsMemory("a.h5", "/mem/x", false))
	require.False(t, r.IsMemory("a.h5", "/pt/x", false))
	require.True(t, r.IsPassthru("a.h5", "/pt/x", false))
	require.True(t, r.IsZeroCopy("a.h5", "/zc/x", false))
}

func TestRouterFirstMatchWins(t *testing.T) {
	r := NewRouter()
	r.SetIntercomm("a.h5", "/*", 0)
	r.SetIntercomm("a.h5", "/values", 1)

	idx, ok := r.Intercomm("a.h5", "/values", false)
	require.True(t, ok)
	require.Equal(t, 0, idx)
}

func TestRouterIntercommUnmappedReturnsFalse(t *testing.T) {
	r := NewRouter()
	_, ok := r.Intercomm("a.h5", "/values", false)
	require.False(t, ok)
}

func TestRouterPartialMatchAtExactLiteralBoundary(t *testing.T) {
	r := NewRouter()
	r.SetMemory("", "/group/*")
	require.True(t, r.IsMemory("a.h5", "/group/", true))
	require.False(t, r.IsMemory("a.h5", "/other/", true))
}

func TestMatchingIntercommsDedupsAcrossPathPatterns(t *testing.T) {
	r := NewRouter()
	r.SetIntercomm("a.h5", "/x", 0)
	r.SetIntercomm("a.h5", "/y", 0)
	r.SetIntercomm("b.h5", "/z", 1)

	require.Equal(t, []int{0}, r.MatchingIntercomms("a.h5"))
	require.Equal(t, []int{1}, r.MatchingIntercomms("b.h5"))
	require.Empty(t, r.MatchingIntercomms("c.h5"))
}

func TestMatchingIntercommsGlobFilenamePattern(t *testing.T) {
	r := NewRouter()
	r.SetIntercomm("*.h5", "/x", 2)
	require.Equal(t, []int{2}, r.MatchingIntercomms("anything.h5"))
}

func TestJoinPathAlwaysUsesSlash(t *testing.T) {
	require.Equal(t, "/a/b", joinPath("/a", "b"))
	require.Equal(t, "/b", joinPath("/", "b"))
}

func TestGlobMatchQuestionMark(t *testing.T) {
	require.True(t, matchGlob("a?c", "abc"))
	require.False(t, matchGlob("a?c", "ac"))
}

func TestGlobMatchStarCrossesSeparators(t *testing.T) {
	require.True(t, matchGlob("/a/*", "/a/b/c"))
}
