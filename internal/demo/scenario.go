// Package demo wires a minimal producer/consumer pair entirely in-process,
// using internal/mpitest and internal/nativemem in place of a real MPI
// runtime and HDF5 library. cmd/producer and cmd/consumer both call
// RunScenario: in production they would instead run as separate MPI ranks
// joined by a real intercommunicator, but mpitest's mailboxes only connect
// goroutines sharing an address space, so this package demonstrates the
// full producer -> index -> query -> consumer round trip in one process.
package demo

import (
	"context"
	"fmt"

	lowfive "github.com/scigolib/lowfive"
	"github.com/scigolib/lowfive/internal/dataspace"
	"github.com/scigolib/lowfive/internal/datatype"
	"github.com/scigolib/lowfive/internal/mpitest"
	"github.com/scigolib/lowfive/internal/nativemem"
)

const (
	filename    = "demo.h5"
	datasetName = "values"
)

// Result reports what the consumer read back for RunScenario's callers to
// check against what the producer wrote.
type Result struct {
	Written []byte
	Read    []byte
}

// RunScenario creates a 4-element integer dataset on the producer side,
// closes the file with serve_on_close set, and has the consumer side
// open it remotely and read every element back (spec §4.H/§4.I, and
// spec §8's "single rank round trip" scenario).
func RunScenario(ctx context.Context) (*Result, error) {
	producerComms := mpitest.NewWorld(1)
	consumerComms := mpitest.NewWorld(1)
	producerIcs, consumerIcs := mpitest.NewIntercommPair(1, 1)

	producerRouter := lowfive.NewRouter()
	producerRouter.SetMemory("", "*")
	producerRouter.SetIntercomm("", "*", 0)

	producerConn := lowfive.NewConnector(producerRouter, lowfive.WithNativeConnector(nativemem.New()))
	producer := lowfive.NewDistributed(producerConn, producerComms[0], producerIcs)
	producer.SetServeOnClose(true)

	fileOp, err := producer.FileCreate(filename, 0, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("demo: file_create: %w", err)
	}

	typ := datatype.Fixed(datatype.ClassInteger, 8)
	space := dataspace.NewSimple([]uint64{4}, nil)
	space.SelectAll()

	datasetOp, err := producerConn.DatasetCreate(fileOp, datasetName, typ, space, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("demo: dataset_create: %w", err)
	}

	written := make([]byte, 4*8)
	for i := 0; i < 4; i++ {
		written[i*8] = byte(i + 1)
	}
	if err := producerConn.DatasetWrite(datasetOp, typ, space, space, written); err != nil {
		return nil, fmt.Errorf("demo: dataset_write: %w", err)
	}

	closeDone := make(chan error, 1)
	go func() { closeDone <- producer.FileClose(ctx, fileOp) }()

	consumerRouter := lowfive.NewRouter()
	consumerRouter.SetMemory("", "*")
	consumerRouter.SetIntercomm("", "*", 0)

	consumerConn := lowfive.NewConnector(consumerRouter)
	consumer := lowfive.NewDistributed(consumerConn, consumerComms[0], consumerIcs)

	consumerFileOp, err := consumer.FileOpen(ctx, filename, 0, nil)
	if err != nil {
		return nil, fmt.Errorf("demo: file_open: %w", err)
	}

	consumerDatasetOp, err := consumer.DatasetOpen(ctx, consumerFileOp, datasetName)
	if err != nil {
		return nil, fmt.Errorf("demo: dataset_open: %w", err)
	}

	read := make([]byte, len(written))
	if err := consumer.DatasetRead(ctx, consumerDatasetOp, space, space, typ.Size, read); err != nil {
		return nil, fmt.Errorf("demo: dataset_read: %w", err)
	}

	if err := consumer.FileClose(ctx, consumerFileOp); err != nil {
		return nil, fmt.Errorf("demo: consumer file_close: %w", err)
	}

	if err := consumer.SendDone(ctx, filename, "/"+datasetName); err != nil {
		return nil, fmt.Errorf("demo: send_done: %w", err)
	}

	if err := <-closeDone; err != nil {
		return nil, fmt.Errorf("demo: file_close/serve: %w", err)
	}

	return &Result{Written: written, Read: read}, nil
}
