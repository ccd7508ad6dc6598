package index

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/scigolib/lowfive/internal/mpi"
	"github.com/scigolib/lowfive/internal/rpc"
)

// pendingOpensPoll bounds how long Serve waits, after every intercomm has
// sent finish, for the SUPPLEMENTED open-file reference count to drain.
const pendingOpensPoll = time.Millisecond

// Serve runs the producer's serve loop over ics (spec §4.G "the serve loop
// polls every intercommunicator ... termination: each peer sends finish;
// when every intercommunicator has sent finish the server performs a local
// barrier and exits"), layering the SUPPLEMENTED open-file reference count
// atop plain finish-counting: once any file_open has been observed, Serve
// also waits for the count to return to zero before entering the exit
// barrier (src/dist/index.cpp's serve()). One intercomm that never sends a
// request cannot stall the others: each is served by its own goroutine
// under an errgroup, so the first hard failure (a genuine transport error,
// not finish) cancels every peer's loop and is returned from Serve.
func (idx *Index) Serve(ctx context.Context, comm mpi.Comm, ics []mpi.Intercomm, d *rpc.Dispatcher) error {
	g, gctx := errgroup.WithContext(ctx)
	for i, ic := range ics {
		i, ic := i, ic
		g.Go(func() error { return idx.serveOne(gctx, i, ic, d) })
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for idx.pendingOpens() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pendingOpensPoll):
		}
	}

	if err := comm.Barrier(ctx); err != nil {
		return fmt.Errorf("index: serve exit barrier: %w", err)
	}
	return nil
}

// serveOne services requests on a single intercommunicator until it sends
// finish while no file is open; a finish received while a file_open is
// still unmatched is skipped and serving continues. It blocks on Recv
// between requests rather than polling — safe because each intercomm has
// exactly one goroutine reading it.
func (idx *Index) serveOne(ctx context.Context, i int, ic mpi.Intercomm, d *rpc.Dispatcher) error {
	for {
		actual, req, err := rpc.Recv(ctx, ic, mpi.AnySource, mpi.TagConsumer)
		if err != nil {
			return fmt.Errorf("index: receiving on intercomm %d: %w", i, err)
		}

		if req.Opcode == rpc.OpFinish {
			if !idx.pendingOpens() {
				return nil
			}
			continue
		}

		resp, err := d.Dispatch(req)
		if err != nil {
			resp = rpc.Message{Opcode: req.Opcode, Callee: req.Callee, Body: []byte(err.Error())}
		}
		if err := rpc.Send(ctx, ic, actual, mpi.TagProducer, resp); err != nil {
			return fmt.Errorf("index: replying on intercomm %d: %w", i, err)
		}
	}
}
