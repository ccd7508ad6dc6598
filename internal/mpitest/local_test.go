package mpitest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scigolib/lowfive/internal/mpi"
)

func TestNewWorldAssignsDistinctRanksAndSharedSize(t *testing.T) {
	comms := NewWorld(3)
	require.Len(t, comms, 3)
	for i, c := range comms {
		require.Equal(t, i, c.Rank())
		require.Equal(t, 3, c.Size())
	}
}

func TestBarrierReleasesAllOnceEveryRankArrives(t *testing.T) {
	comms := NewWorld(3)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i, c := range comms {
		wg.Add(1)
		go func(i int, c mpi.Comm) {
			defer wg.Done()
			errs[i] = c.Barrier(ctx)
		}(i, c)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}
}

func TestBarrierIsReusableAcrossSuccessiveRounds(t *testing.T) {
	comms := NewWorld(2)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for round := 0; round < 3; round++ {
		var wg sync.WaitGroup
		for _, c := range comms {
			wg.Add(1)
			go func(c mpi.Comm) {
				defer wg.Done()
				require.NoError(t, c.Barrier(ctx))
			}(c)
		}
		wg.Wait()
	}
}

func TestIBarrierRequestTestAndWait(t *testing.T) {
	comms := NewWorld(2)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	req, err := comms[0].IBarrier(ctx)
	require.NoError(t, err)

	done, err := req.Test()
	require.NoError(t, err)
	require.False(t, done)

	require.NoError(t, comms[1].Barrier(ctx))
	require.NoError(t, req.Wait())
}

func TestIntercommSendRecvDeliversCopiedBytes(t *testing.T) {
	local, remote := NewIntercommPair(1, 1)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	payload := []byte{1, 2, 3}
	require.NoError(t, local[0].Send(ctx, 0, mpi.Tag(7), payload))
	payload[0] = 99 // mutating after send must not affect the delivered copy

	from, data, err := remote[0].Recv(ctx, 0, mpi.Tag(7))
	require.NoError(t, err)
	require.Equal(t, 0, from)
	require.Equal(t, []byte{1, 2, 3}, data)
}

func TestIntercommRecvAnySourceMatchesEitherSender(t *testing.T) {
	local, remote := NewIntercommPair(2, 1)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, local[1].Send(ctx, 0, mpi.Tag(1), []byte("from-rank-1")))

	from, data, err := remote[0].Recv(ctx, mpi.AnySource, mpi.Tag(1))
	require.NoError(t, err)
	require.Equal(t, 1, from)
	require.Equal(t, []byte("from-rank-1"), data)
}

func TestIntercommRecvBlocksUntilSent(t *testing.T) {
	local, remote := NewIntercommPair(1, 1)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		_, data, err := remote[0].Recv(ctx, 0, mpi.Tag(3))
		require.NoError(t, err)
		require.Equal(t, []byte("late"), data)
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, local[0].Send(ctx, 0, mpi.Tag(3), []byte("late")))
	<-done
}

func TestIntercommRecvRespectsContextCancellation(t *testing.T) {
	_, remote := NewIntercommPair(1, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, _, err := remote[0].Recv(ctx, 0, mpi.Tag(9))
	require.Error(t, err)
}

func TestIntercommIProbeReportsPendingMessage(t *testing.T) {
	local, remote := NewIntercommPair(1, 1)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, ok, err := remote[0].IProbe(mpi.Tag(4))
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, local[0].Send(ctx, 0, mpi.Tag(4), []byte("x")))
	source, ok, err := remote[0].IProbe(mpi.Tag(4))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 0, source)
}

func TestIntercommRemoteSizeMatchesPeerGroup(t *testing.T) {
	local, remote := NewIntercommPair(2, 3)
	require.Equal(t, 3, local[0].RemoteSize())
	require.Equal(t, 2, remote[0].RemoteSize())
}
