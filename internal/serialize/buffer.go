// Package serialize provides the wire buffer the core uses to flatten a
// metadata subtree for transport between producer and consumer (spec §4.E
// "Serializer"). It is a generic append-only byte buffer with an
// out-of-band side channel for large blobs (dataset bytes), grounded on
// the same split the original implementation uses between its inline
// stream and its binary-blob channel, adapted to a plain []byte encoding
// instead of a C++ serialization library.
package serialize

import (
	"encoding/binary"
	"fmt"
)

// Buffer is a bidirectional cursor over an inline byte stream plus a list
// of out-of-band blobs. The same type serves encoding (append-only) and
// decoding (cursor advances as values are read).
type Buffer struct {
	data    []byte
	pos     int
	blobs   [][]byte
	blobPos int
}

// New returns an empty Buffer ready for encoding.
func New() *Buffer {
	return &Buffer{}
}

// FromBytes wraps previously encoded bytes and blobs for decoding.
func FromBytes(data []byte, blobs [][]byte) *Buffer {
	return &Buffer{data: data, blobs: blobs}
}

// Bytes returns the inline stream accumulated so far.
func (b *Buffer) Bytes() []byte { return b.data }

// Blobs returns the out-of-band blobs accumulated so far.
func (b *Buffer) Blobs() [][]byte { return b.blobs }

// NBlobs reports how many blobs remain to be loaded, mirroring the
// trace-level bookkeeping the original serializer logs during
// deserialization.
func (b *Buffer) NBlobs() int { return len(b.blobs) - b.blobPos }

func (b *Buffer) PutUint64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	b.data = append(b.data, tmp[:]...)
}

func (b *Buffer) GetUint64() (uint64, error) {
	if b.pos+8 > len(b.data) {
		return 0, fmt.Errorf("serialize: buffer underrun reading uint64")
	}
	v := binary.LittleEndian.Uint64(b.data[b.pos : b.pos+8])
	b.pos += 8
	return v, nil
}

func (b *Buffer) PutInt(v int) { b.PutUint64(uint64(int64(v))) }

func (b *Buffer) GetInt() (int, error) {
	v, err := b.GetUint64()
	return int(int64(v)), err
}

func (b *Buffer) PutBool(v bool) {
	if v {
		b.data = append(b.data, 1)
	} else {
		b.data = append(b.data, 0)
	}
}

func (b *Buffer) GetBool() (bool, error) {
	if b.pos >= len(b.data) {
		return false, fmt.Errorf("serialize: buffer underrun reading bool")
	}
	v := b.data[b.pos] != 0
	b.pos++
	return v, nil
}

func (b *Buffer) PutString(s string) {
	b.PutUint64(uint64(len(s)))
	b.data = append(b.data, s...)
}

func (b *Buffer) GetString() (string, error) {
	n, err := b.GetUint64()
	if err != nil {
		return "", err
	}
	if b.pos+int(n) > len(b.data) {
		return "", fmt.Errorf("serialize: buffer underrun reading string of length %d", n)
	}
	s := string(b.data[b.pos : b.pos+int(n)])
	b.pos += int(n)
	return s, nil
}

// PutBytes writes an inline byte slice, length-prefixed. Use SaveBlob
// instead for large payloads (dataset data) so they travel out of band.
func (b *Buffer) PutBytes(p []byte) {
	b.PutUint64(uint64(len(p)))
	b.data = append(b.data, p...)
}

func (b *Buffer) GetBytes() ([]byte, error) {
	n, err := b.GetUint64()
	if err != nil {
		return nil, err
	}
	if b.pos+int(n) > len(b.data) {
		return nil, fmt.Errorf("serialize: buffer underrun reading bytes of length %d", n)
	}
	p := append([]byte(nil), b.data[b.pos:b.pos+int(n)]...)
	b.pos += int(n)
	return p, nil
}

// SaveBlob appends p to the out-of-band blob channel, so that an RPC
// transport can move it without an extra copy through the inline stream.
func (b *Buffer) SaveBlob(p []byte) {
	b.blobs = append(b.blobs, p)
}

// LoadBlob reads the next blob in order.
func (b *Buffer) LoadBlob() ([]byte, error) {
	if b.blobPos >= len(b.blobs) {
		return nil, fmt.Errorf("serialize: no more blobs (read %d)", b.blobPos)
	}
	blob := b.blobs[b.blobPos]
	b.blobPos++
	return blob, nil
}
