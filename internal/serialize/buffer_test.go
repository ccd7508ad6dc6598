package serialize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBufferRoundTrip(t *testing.T) {
	buf := New()
	buf.PutUint64(42)
	buf.PutInt(-7)
	buf.PutBool(true)
	buf.PutBool(false)
	buf.PutString("hello")
	buf.PutBytes([]byte{1, 2, 3})
	buf.SaveBlob([]byte("blob-a"))
	buf.SaveBlob([]byte("blob-b"))

	out := FromBytes(buf.Bytes(), buf.Blobs())

	u, err := out.GetUint64()
	require.NoError(t, err)
	require.Equal(t, uint64(42), u)

	i, err := out.GetInt()
	require.NoError(t, err)
	require.Equal(t, -7, i)

	b1, err := out.GetBool()
	require.NoError(t, err)
	require.True(t, b1)

	b2, err := out.GetBool()
	require.NoError(t, err)
	require.False(t, b2)

	s, err := out.GetString()
	require.NoError(t, err)
	require.Equal(t, "hello", s)

	bs, err := out.GetBytes()
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, bs)

	blobA, err := out.LoadBlob()
	require.NoError(t, err)
	require.Equal(t, []byte("blob-a"), blobA)

	blobB, err := out.LoadBlob()
	require.NoError(t, err)
	require.Equal(t, []byte("blob-b"), blobB)

	_, err = out.LoadBlob()
	require.Error(t, err)
}

func TestBufferUnderrun(t *testing.T) {
	buf := FromBytes([]byte{1, 2, 3}, nil)
	_, err := buf.GetUint64()
	require.Error(t, err)
}

func TestNBlobs(t *testing.T) {
	buf := New()
	buf.SaveBlob([]byte("a"))
	buf.SaveBlob([]byte("b"))
	out := FromBytes(buf.Bytes(), buf.Blobs())
	require.Equal(t, 2, out.NBlobs())
	_, err := out.LoadBlob()
	require.NoError(t, err)
	require.Equal(t, 1, out.NBlobs())
}
