package index

import (
	"github.com/scigolib/lowfive/internal/dataspace"
	"github.com/scigolib/lowfive/internal/datatype"
	"github.com/scigolib/lowfive/internal/rpc"
	"github.com/scigolib/lowfive/internal/serialize"
)

func decodeGetDataRequest(req rpc.Message) (filename, path string, query dataspace.Dataspace, elementSize uint64, err error) {
	buf := serialize.FromBytes(req.Body, req.Blobs)
	if filename, err = buf.GetString(); err != nil {
		return
	}
	if path, err = buf.GetString(); err != nil {
		return
	}
	if query, err = dataspace.Decode(buf); err != nil {
		return
	}
	elementSize, err = buf.GetUint64()
	return
}

// EncodeGetDataRequest is exported for internal/query to build the
// matching request body.
func EncodeGetDataRequest(filename, path string, query dataspace.Dataspace, elementSize uint64) rpc.Message {
	buf := serialize.New()
	buf.PutString(filename)
	buf.PutString(path)
	query.Encode(buf)
	buf.PutUint64(elementSize)
	return rpc.Message{Opcode: rpc.OpFunction, Callee: "get_data", Body: buf.Bytes(), Blobs: buf.Blobs()}
}

func encodeGetDataResponse(regions []ReturnedRegion) rpc.Message {
	buf := serialize.New()
	buf.PutInt(len(regions))
	for _, r := range regions {
		r.FileSelection.Encode(buf)
		buf.SaveBlob(r.Bytes)
	}
	return rpc.Message{Opcode: rpc.OpFunction, Callee: "get_data", Body: buf.Bytes(), Blobs: buf.Blobs()}
}

// DecodeGetDataResponse is exported for internal/query to parse the
// response body encodeGetDataResponse produces.
func DecodeGetDataResponse(resp rpc.Message) ([]ReturnedRegion, error) {
	buf := serialize.FromBytes(resp.Body, resp.Blobs)
	n, err := buf.GetInt()
	if err != nil {
		return nil, err
	}
	regions := make([]ReturnedRegion, n)
	for i := range regions {
		if regions[i].FileSelection, err = dataspace.Decode(buf); err != nil {
			return nil, err
		}
		if regions[i].Bytes, err = buf.LoadBlob(); err != nil {
			return nil, err
		}
	}
	return regions, nil
}

func decodeRedirectsRequest(req rpc.Message) (filename, path string, query dataspace.Dataspace, err error) {
	buf := serialize.FromBytes(req.Body, req.Blobs)
	if filename, err = buf.GetString(); err != nil {
		return
	}
	if path, err = buf.GetString(); err != nil {
		return
	}
	query, err = dataspace.Decode(buf)
	return
}

// EncodeRedirectsRequest is exported for internal/query.
func EncodeRedirectsRequest(filename, path string, query dataspace.Dataspace) rpc.Message {
	buf := serialize.New()
	buf.PutString(filename)
	buf.PutString(path)
	query.Encode(buf)
	return rpc.Message{Opcode: rpc.OpFunction, Callee: "redirects", Body: buf.Bytes()}
}

func encodeRedirectsResponse(redirects []Redirect) rpc.Message {
	buf := serialize.New()
	buf.PutInt(len(redirects))
	for _, r := range redirects {
		r.Box.Encode(buf)
		buf.PutInt(r.Rank)
	}
	return rpc.Message{Opcode: rpc.OpFunction, Callee: "redirects", Body: buf.Bytes()}
}

// DecodeRedirectsResponse is exported for internal/query.
func DecodeRedirectsResponse(resp rpc.Message) ([]Redirect, error) {
	buf := serialize.FromBytes(resp.Body, resp.Blobs)
	n, err := buf.GetInt()
	if err != nil {
		return nil, err
	}
	redirects := make([]Redirect, n)
	for i := range redirects {
		var err error
		if redirects[i].Box, err = dataspace.Decode(buf); err != nil {
			return nil, err
		}
		if redirects[i].Rank, err = buf.GetInt(); err != nil {
			return nil, err
		}
	}
	return redirects, nil
}

func decodeDimsRequest(req rpc.Message) (filename, path string, err error) {
	buf := serialize.FromBytes(req.Body, req.Blobs)
	if filename, err = buf.GetString(); err != nil {
		return
	}
	path, err = buf.GetString()
	return
}

// EncodeDimsRequest is exported for internal/query.
func EncodeDimsRequest(filename, path string) rpc.Message {
	buf := serialize.New()
	buf.PutString(filename)
	buf.PutString(path)
	return rpc.Message{Opcode: rpc.OpFunction, Callee: "dims", Body: buf.Bytes()}
}

func encodeDimsResponse(typ datatype.Datatype, space dataspace.Dataspace) rpc.Message {
	buf := serialize.New()
	typ.Encode(buf)
	space.Encode(buf)
	return rpc.Message{Opcode: rpc.OpFunction, Callee: "dims", Body: buf.Bytes()}
}

// DecodeDimsResponse is exported for internal/query.
func DecodeDimsResponse(resp rpc.Message) (datatype.Datatype, dataspace.Dataspace, error) {
	buf := serialize.FromBytes(resp.Body, resp.Blobs)
	typ, err := datatype.Decode(buf)
	if err != nil {
		return datatype.Datatype{}, dataspace.Dataspace{}, err
	}
	space, err := dataspace.Decode(buf)
	return typ, space, err
}

func encodeFilenamesResponse(names []string) rpc.Message {
	buf := serialize.New()
	buf.PutInt(len(names))
	for _, n := range names {
		buf.PutString(n)
	}
	return rpc.Message{Opcode: rpc.OpFunction, Callee: "get_filenames", Body: buf.Bytes()}
}

// DecodeFilenamesResponse is exported for internal/query.
func DecodeFilenamesResponse(resp rpc.Message) ([]string, error) {
	buf := serialize.FromBytes(resp.Body, resp.Blobs)
	n, err := buf.GetInt()
	if err != nil {
		return nil, err
	}
	names := make([]string, n)
	for i := range names {
		if names[i], err = buf.GetString(); err != nil {
			return nil, err
		}
	}
	return names, nil
}
