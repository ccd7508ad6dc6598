package rpc

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/scigolib/lowfive/internal/mpi"
)

// Handler answers one request's body (plus any blobs) with a response
// body (plus any blobs), or an error that becomes an RPCError at the
// caller. Opcode tells the handler whether it was registered for
// function, mem_fn, create or destroy dispatch.
type Handler func(req Message) (Message, error)

// Dispatcher maps callee names to Handlers, per opcode, the way the
// original server resolves a function-name hash to a registered callable
// (spec §4.F "Function-name resolution").
type Dispatcher struct {
	mu       sync.Mutex
	handlers map[Opcode]map[string]Handler
}

// NewDispatcher returns an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[Opcode]map[string]Handler)}
}

// Register installs h for (opcode, callee).
func (d *Dispatcher) Register(opcode Opcode, callee string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.handlers[opcode] == nil {
		d.handlers[opcode] = make(map[string]Handler)
	}
	d.handlers[opcode][callee] = h
}

// Dispatch resolves req.Callee under req.Opcode and invokes it. Finish
// requests carry no callee and are handled by the caller's serve loop, not
// here.
func (d *Dispatcher) Dispatch(req Message) (Message, error) {
	d.mu.Lock()
	h, ok := d.handlers[req.Opcode][req.Callee]
	d.mu.Unlock()
	if !ok {
		return Message{}, fmt.Errorf("rpc: no handler registered for %s %q", req.Opcode, req.Callee)
	}
	return h(req)
}

// Serve dispatches requests and replies on every intercomm in ics until
// every one of them has sent finish (spec §4.G "Termination: each peer
// sends finish; when every intercommunicator has sent finish the server
// performs a local barrier and exits"). Each intercomm is serviced by its
// own goroutine under an errgroup, so one intercomm with nothing to send
// cannot stall the others; comm's barrier is entered only after every
// goroutine has returned, matching the collective shutdown spec §5
// describes.
func Serve(ctx context.Context, comm mpi.Comm, ics []mpi.Intercomm, d *Dispatcher) error {
	g, gctx := errgroup.WithContext(ctx)
	for i, ic := range ics {
		i, ic := i, ic
		g.Go(func() error { return serveOne(gctx, i, ic, d) })
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := comm.Barrier(ctx); err != nil {
		return fmt.Errorf("rpc: serve exit barrier: %w", err)
	}
	return nil
}

// serveOne services requests on a single intercommunicator until it sends
// finish, blocking on Recv between requests rather than polling — safe
// because each intercomm has exactly one goroutine reading it.
func serveOne(ctx context.Context, i int, ic mpi.Intercomm, d *Dispatcher) error {
	for {
		actual, req, err := Recv(ctx, ic, mpi.AnySource, mpi.TagConsumer)
		if err != nil {
			return fmt.Errorf("rpc: receiving on intercomm %d: %w", i, err)
		}

		if req.Opcode == OpFinish {
			return nil
		}

		resp, err := d.Dispatch(req)
		if err != nil {
			resp = Message{Opcode: req.Opcode, Callee: req.Callee, Body: []byte(err.Error())}
		}
		if err := Send(ctx, ic, actual, mpi.TagProducer, resp); err != nil {
			return fmt.Errorf("rpc: replying on intercomm %d: %w", i, err)
		}
	}
}
