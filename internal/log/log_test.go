package log

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrReturnsNopForNil(t *testing.T) {
	require.Equal(t, Nop, Or(nil))
}

func TestOrReturnsSuppliedLoggerUnchanged(t *testing.T) {
	var got string
	l := FromPrintf(func(format string, args ...interface{}) { got = format })
	require.Equal(t, l, Or(l))

	Or(l).Trace("hello")
	require.Equal(t, "TRACE hello", got)
}

func TestNopDiscardsEveryCall(t *testing.T) {
	require.NotPanics(t, func() {
		Nop.Trace("x %d", 1)
		Nop.Debug("y")
		Nop.Error("z")
	})
}

func TestFromPrintfPrefixesLevel(t *testing.T) {
	var calls []string
	l := FromPrintf(func(format string, args ...interface{}) {
		calls = append(calls, Sprintf(format, args...))
	})

	l.Trace("a=%d", 1)
	l.Debug("b=%d", 2)
	l.Error("c=%d", 3)

	require.Equal(t, []string{"TRACE a=1", "DEBUG b=2", "ERROR c=3"}, calls)
}

func TestSprintfFormatsLikeFmt(t *testing.T) {
	require.Equal(t, "n=5", Sprintf("n=%d", 5))
}
