package index

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scigolib/lowfive/internal/datatype"
	"github.com/scigolib/lowfive/internal/log"
	"github.com/scigolib/lowfive/internal/mpitest"
	"github.com/scigolib/lowfive/internal/rpc"
)

func TestServeWaitsForOpenFilesBeforeExiting(t *testing.T) {
	serverComms := mpitest.NewWorld(1)
	serverIcs, clientIcs := mpitest.NewIntercommPair(1, 1)

	idx := New(0, 1, log.Or(nil))
	typ := datatype.Fixed(datatype.ClassInteger, 8)
	space := fourElementSpace()
	require.NoError(t, idx.Add("f.h5", "/values", typ, space, nil))

	disp := rpc.NewDispatcher()
	idx.RegisterHandlers(disp)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	serveDone := make(chan error, 1)
	go func() { serveDone <- idx.Serve(ctx, serverComms[0], serverIcs, disp) }()

	_, err := rpc.Call(ctx, clientIcs[0], 0, rpc.OpFunction, "file_open", nil, nil)
	require.NoError(t, err)

	require.NoError(t, rpc.SendFinish(ctx, clientIcs[0], 0))

	select {
	case <-serveDone:
		t.Fatal("serve exited while a file was still open")
	case <-time.After(20 * time.Millisecond):
	}

	_, err = rpc.Call(ctx, clientIcs[0], 0, rpc.OpFunction, "file_close", nil, nil)
	require.NoError(t, err)

	require.NoError(t, rpc.SendFinish(ctx, clientIcs[0], 0))
	require.NoError(t, <-serveDone)
}

func TestServeExitsImmediatelyWithoutAnyOpen(t *testing.T) {
	serverComms := mpitest.NewWorld(1)
	serverIcs, clientIcs := mpitest.NewIntercommPair(1, 1)

	idx := New(0, 1, log.Or(nil))
	disp := rpc.NewDispatcher()
	idx.RegisterHandlers(disp)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	serveDone := make(chan error, 1)
	go func() { serveDone <- idx.Serve(ctx, serverComms[0], serverIcs, disp) }()

	require.NoError(t, rpc.SendFinish(ctx, clientIcs[0], 0))
	require.NoError(t, <-serveDone)
}
