package rpc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	m := Message{
		Opcode: OpFunction,
		Callee: "get_data",
		Body:   []byte("request body"),
		Blobs:  [][]byte{[]byte("blob one"), []byte("blob two")},
	}

	data := Encode(m)
	decoded, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, m.Opcode, decoded.Opcode)
	require.Equal(t, m.Callee, decoded.Callee)
	require.Equal(t, m.Body, decoded.Body)
	require.Equal(t, m.Blobs, decoded.Blobs)
}

func TestEncodeDecodeNoBlobs(t *testing.T) {
	m := Message{Opcode: OpFinish, Callee: "", Body: nil}
	decoded, err := Decode(Encode(m))
	require.NoError(t, err)
	require.Equal(t, OpFinish, decoded.Opcode)
	require.Empty(t, decoded.Callee)
	require.Empty(t, decoded.Body)
	require.Empty(t, decoded.Blobs)
}

func TestDecodeTruncated(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3})
	require.Error(t, err)
}
