// Package mpi declares the point-to-point, collective and intercommunicator
// surface the core consumes from MPI. Per spec §1 the MPI library itself is
// an external collaborator; this package only names the interface a real
// binding (e.g. a cgo MPI_Comm wrapper) would implement. internal/mpitest
// provides an in-process double of these interfaces for tests and the
// example producer/consumer in cmd/.
package mpi

import "context"

// Tag distinguishes the direction of an RPC message, per spec §4.F: a
// "finish" request terminates the server loop for the sending peer, and
// every message is tagged by which side sent it so that, in the threaded
// (shared-rank) regime, sender and recipient can be told apart.
type Tag int

const (
	TagConsumer Tag = iota + 1
	TagProducer
)

// AnySource matches a message from any sender, mirroring MPI_ANY_SOURCE.
const AnySource = -1

// Request represents a non-blocking collective in flight (spec §5,
// "serve blocks ... until the local ranks collectively complete an
// ibarrier").
type Request interface {
	// Test reports whether the operation has completed, without blocking.
	Test() (bool, error)
	// Wait blocks until the operation completes.
	Wait() error
}

// Comm is the local (intra-)communicator: the group of ranks running one
// side (producer or consumer) of the coupling.
type Comm interface {
	Rank() int
	Size() int
	Barrier(ctx context.Context) error
	IBarrier(ctx context.Context) (Request, error)
}

// Intercomm connects the local Comm's ranks to a disjoint remote group
// (spec GLOSSARY "Intercommunicator"). All RPC between producer and
// consumer crosses one.
type Intercomm interface {
	// RemoteSize is the number of ranks on the other side of this
	// intercommunicator.
	RemoteSize() int
	// Send blocks until data is handed to the transport for delivery to
	// dest on the remote side, tagged tag.
	Send(ctx context.Context, dest int, tag Tag, data []byte) error
	// Recv blocks until a message tagged tag arrives from source
	// (or mpi.AnySource), returning the actual sender's rank and payload.
	Recv(ctx context.Context, source int, tag Tag) (actualSource int, data []byte, err error)
	// IProbe reports, without consuming a message, whether one tagged tag
	// is available, and from which rank.
	IProbe(tag Tag) (source int, ok bool, err error)
}
