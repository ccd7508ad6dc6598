package rpc

import (
	"encoding/binary"
	"fmt"
)

// Message is one RPC frame: an opcode, the callable identifier it applies
// to (a method name, a class name for create/destroy, or empty for
// finish), the serialized argument body, and any out-of-band blobs (spec
// §4.F, §6 "Wire format").
type Message struct {
	Opcode Opcode
	Callee string
	Body   []byte
	Blobs  [][]byte
}

// Encode renders m as the wire format spec §6 describes: a length-prefixed
// buffer followed by a blob count and length-prefixed blob windows, with
// the opcode and callee identifier written last so a receiver can read
// them from the back of the buffer without first consuming the body.
func Encode(m Message) []byte {
	var out []byte
	out = appendUint64(out, uint64(len(m.Body)))
	out = append(out, m.Body...)

	out = appendUint64(out, uint64(len(m.Blobs)))
	for _, blob := range m.Blobs {
		out = appendUint64(out, uint64(len(blob)))
		out = append(out, blob...)
	}

	out = appendUint64(out, uint64(len(m.Callee)))
	out = append(out, m.Callee...)
	out = append(out, byte(m.Opcode))
	return out
}

// Decode parses a Message previously produced by Encode. The opcode and
// callee are read from the tail first, then the body and blobs are parsed
// forward from the front of what remains.
func Decode(data []byte) (Message, error) {
	if len(data) < 1 {
		return Message{}, fmt.Errorf("rpc: empty message")
	}
	opcode := Opcode(data[len(data)-1])
	data = data[:len(data)-1]

	calleeLen, data, err := takeTailUint64(data)
	if err != nil {
		return Message{}, fmt.Errorf("rpc: reading callee length: %w", err)
	}
	if uint64(len(data)) < calleeLen {
		return Message{}, fmt.Errorf("rpc: truncated callee")
	}
	callee := string(data[len(data)-int(calleeLen):])
	data = data[:len(data)-int(calleeLen)]

	pos := 0
	bodyLen, pos, err := takeUint64(data, pos)
	if err != nil {
		return Message{}, fmt.Errorf("rpc: reading body length: %w", err)
	}
	if pos+int(bodyLen) > len(data) {
		return Message{}, fmt.Errorf("rpc: truncated body")
	}
	body := append([]byte(nil), data[pos:pos+int(bodyLen)]...)
	pos += int(bodyLen)

	nBlobs, pos, err := takeUint64(data, pos)
	if err != nil {
		return Message{}, fmt.Errorf("rpc: reading blob count: %w", err)
	}
	blobs := make([][]byte, nBlobs)
	for i := range blobs {
		var blen uint64
		blen, pos, err = takeUint64(data, pos)
		if err != nil {
			return Message{}, fmt.Errorf("rpc: reading blob %d length: %w", i, err)
		}
		if pos+int(blen) > len(data) {
			return Message{}, fmt.Errorf("rpc: truncated blob %d", i)
		}
		blobs[i] = append([]byte(nil), data[pos:pos+int(blen)]...)
		pos += int(blen)
	}

	return Message{Opcode: opcode, Callee: callee, Body: body, Blobs: blobs}, nil
}

func appendUint64(out []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(out, tmp[:]...)
}

func takeUint64(data []byte, pos int) (uint64, int, error) {
	if pos+8 > len(data) {
		return 0, pos, fmt.Errorf("rpc: buffer underrun")
	}
	return binary.LittleEndian.Uint64(data[pos : pos+8]), pos + 8, nil
}

func takeTailUint64(data []byte) (uint64, []byte, error) {
	if len(data) < 8 {
		return 0, nil, fmt.Errorf("rpc: buffer underrun")
	}
	v := binary.LittleEndian.Uint64(data[len(data)-8:])
	return v, data[:len(data)-8], nil
}
