package rpc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientTrackRetainRelease(t *testing.T) {
	c := NewClient()
	c.Track(0, 1, true)
	c.Retain(0, 1)

	require.False(t, c.Release(0, 1))
	require.True(t, c.Release(0, 1))
}

func TestClientReleaseNonOwning(t *testing.T) {
	c := NewClient()
	c.Track(0, 1, false)
	require.False(t, c.Release(0, 1))
}

func TestClientReleaseUnknown(t *testing.T) {
	c := NewClient()
	require.False(t, c.Release(0, 99))
}

func TestClientTrackAccumulatesCount(t *testing.T) {
	c := NewClient()
	c.Track(0, 1, true)
	c.Track(0, 1, true)
	require.False(t, c.Release(0, 1))
	require.True(t, c.Release(0, 1))
}

func TestServerCreateLookupDestroy(t *testing.T) {
	s := NewServer()
	destroyed := false
	s.RegisterDestructor(7, func(obj interface{}) error {
		destroyed = true
		require.Equal(t, "payload", obj)
		return nil
	})

	ref := s.Create(7, "payload")
	require.Equal(t, uint32(7), ref.ClassID)

	obj, ok := s.Lookup(ref.ObjectID)
	require.True(t, ok)
	require.Equal(t, "payload", obj)

	require.NoError(t, s.Destroy(ref.ObjectID))
	require.True(t, destroyed)

	_, ok = s.Lookup(ref.ObjectID)
	require.False(t, ok)
}

func TestServerDestroyUnknown(t *testing.T) {
	s := NewServer()
	require.Error(t, s.Destroy(404))
}

func TestServerCreateAssignsDistinctIDs(t *testing.T) {
	s := NewServer()
	a := s.Create(1, "a")
	b := s.Create(1, "b")
	require.NotEqual(t, a.ObjectID, b.ObjectID)
}
