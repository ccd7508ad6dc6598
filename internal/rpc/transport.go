package rpc

import (
	"context"

	"github.com/scigolib/lowfive/internal/mpi"
)

// Send encodes and transmits m to dest over ic tagged tag (spec §4.F
// "Message transport"). Requests should be tagged mpi.TagConsumer,
// responses mpi.TagProducer.
func Send(ctx context.Context, ic mpi.Intercomm, dest int, tag mpi.Tag, m Message) error {
	return ic.Send(ctx, dest, tag, Encode(m))
}

// Recv blocks for the next message tagged tag from source (or
// mpi.AnySource), returning the sender's rank alongside the decoded
// Message.
func Recv(ctx context.Context, ic mpi.Intercomm, source int, tag mpi.Tag) (int, Message, error) {
	actual, data, err := ic.Recv(ctx, source, tag)
	if err != nil {
		return 0, Message{}, err
	}
	m, err := Decode(data)
	if err != nil {
		return 0, Message{}, err
	}
	return actual, m, nil
}
