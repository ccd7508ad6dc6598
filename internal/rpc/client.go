package rpc

import (
	"context"
	"fmt"

	"github.com/scigolib/lowfive/internal/mpi"
)

// Call sends a function/mem_fn request to dest and blocks for its
// response, the request/response round trip spec §5 says every RPC
// incurs ("every RPC round-trip blocks the calling rank until the
// response arrives").
func Call(ctx context.Context, ic mpi.Intercomm, dest int, opcode Opcode, callee string, body []byte, blobs [][]byte) (Message, error) {
	req := Message{Opcode: opcode, Callee: callee, Body: body, Blobs: blobs}
	if err := Send(ctx, ic, dest, mpi.TagConsumer, req); err != nil {
		return Message{}, fmt.Errorf("rpc: sending request to rank %d: %w", dest, err)
	}
	_, resp, err := Recv(ctx, ic, dest, mpi.TagProducer)
	if err != nil {
		return Message{}, fmt.Errorf("rpc: awaiting response from rank %d: %w", dest, err)
	}
	return resp, nil
}

// SendFinish tells dest's server loop that this peer is done issuing
// requests on ic (spec §4.F "A finish request terminates the server's loop
// for the sending peer").
func SendFinish(ctx context.Context, ic mpi.Intercomm, dest int) error {
	return Send(ctx, ic, dest, mpi.TagConsumer, Message{Opcode: OpFinish})
}
