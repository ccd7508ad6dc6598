// Package query implements the consumer-side query client (spec §4.H):
// file_open/dataset_open/query/file_close/send_done against a producer's
// index service over one or more intercommunicators.
package query

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/scigolib/lowfive/internal/dataspace"
	"github.com/scigolib/lowfive/internal/datatype"
	"github.com/scigolib/lowfive/internal/index"
	"github.com/scigolib/lowfive/internal/log"
	"github.com/scigolib/lowfive/internal/mpi"
	"github.com/scigolib/lowfive/internal/rpc"
)

// RemoteHandle is the consumer-side shadow a RemoteDataset carries: the
// dataset's declared shape, a Decomposer matching the producer's
// partition, and the (intercommunicator, producer rank) a dataset_open
// resolved it to (spec §3 "RemoteFile/RemoteGroup/RemoteDataset"). ID is a
// sequence number the Query assigns locally per dataset_open; it is not
// sent to the producer, and later RPCs still name the dataset by Filename
// and Path.
type RemoteHandle struct {
	Intercomm mpi.Intercomm
	Rank      int // producer rank dataset_open's dims request was answered by
	ID        uint64
	Filename  string
	Path      string
	Dim       int
	Type      datatype.Datatype
	Space     dataspace.Dataspace

	Decomposer *index.Decomposer
}

// Query is the consumer-side client of a producer's index service. One
// Query serves the local communicator (root rank only issues the
// collective file_open/file_close notifications spec §4.H describes);
// distributed.go constructs one Query per Connector and routes individual
// calls to the intercommunicator the Router binds for a given path.
type Query struct {
	mu     sync.Mutex
	comm   mpi.Comm
	log    log.Logger
	nextID uint64
}

// New builds a Query bound to the local communicator comm.
func New(comm mpi.Comm, logger log.Logger) *Query {
	return &Query{comm: comm, log: log.Or(logger)}
}

// FileOpen sends a file-open notification on every ic in ics, from the
// local root rank only (spec §4.H "sends a file-open notification on
// every intercommunicator whose pattern matches the filename (root rank
// only)"). dest is the producer rank addressed on each intercommunicator;
// the producer's own local communicator is responsible for fanning the
// notification out to its other ranks.
func (q *Query) FileOpen(ctx context.Context, ics []mpi.Intercomm, dest int, name string) error {
	if q.comm.Rank() != 0 {
		return nil
	}
	for i, ic := range ics {
		if _, err := rpc.Call(ctx, ic, dest, rpc.OpFunction, "file_open", []byte(name), nil); err != nil {
			return fmt.Errorf("query: file_open %q on intercomm %d: %w", name, i, err)
		}
	}
	return nil
}

// FileClose mirrors FileOpen (spec §4.H "file_close mirrors file_open").
func (q *Query) FileClose(ctx context.Context, ics []mpi.Intercomm, dest int, name string) error {
	if q.comm.Rank() != 0 {
		return nil
	}
	for i, ic := range ics {
		if _, err := rpc.Call(ctx, ic, dest, rpc.OpFunction, "file_close", []byte(name), nil); err != nil {
			return fmt.Errorf("query: file_close %q on intercomm %d: %w", name, i, err)
		}
	}
	return nil
}

// SendDone terminates the producer's serve loop for this intercommunicator
// (spec §4.H "send_done terminates the producer loop on the associated
// intercommunicator").
func (q *Query) SendDone(ctx context.Context, ic mpi.Intercomm, dest int) error {
	return rpc.SendFinish(ctx, ic, dest)
}

// Filenames fetches the list of filenames a producer rank currently serves
// (SUPPLEMENTED get_filenames, original source's msgs::fnames).
func (q *Query) Filenames(ctx context.Context, ic mpi.Intercomm, producerRank int) ([]string, error) {
	resp, err := rpc.Call(ctx, ic, producerRank, rpc.OpFunction, "get_filenames", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query: get_filenames: %w", err)
	}
	return index.DecodeFilenamesResponse(resp)
}

// DatasetOpen queries the owning intercommunicator for (filename, path)'s
// dim/type/space and constructs a Decomposer matching the producer's
// partition (spec §4.H "dataset_open(path) queries the owning
// intercommunicator for the dataset's dim/type/space and constructs a
// decomposer matching the producer's partition"), and gives the handle the
// next local ID (1 for the first dataset_open of this Query).
func (q *Query) DatasetOpen(ctx context.Context, ic mpi.Intercomm, producerRank int, filename, path string) (*RemoteHandle, error) {
	req := index.EncodeDimsRequest(filename, path)
	resp, err := rpc.Call(ctx, ic, producerRank, rpc.OpFunction, "dims", req.Body, req.Blobs)
	if err != nil {
		return nil, fmt.Errorf("query: dataset_open %s:%q: %w", filename, path, err)
	}
	typ, space, err := index.DecodeDimsResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("query: dataset_open %s:%q: decoding dims response: %w", filename, path, err)
	}

	q.mu.Lock()
	q.nextID++
	id := q.nextID
	q.mu.Unlock()

	return &RemoteHandle{
		Intercomm:  ic,
		Rank:       producerRank,
		ID:         id,
		Filename:   filename,
		Path:       path,
		Dim:        space.Dim,
		Type:       typ,
		Space:      space,
		Decomposer: index.NewDecomposer(space.Dims, ic.RemoteSize()),
	}, nil
}

// QueryData executes spec §4.H's query(): find the producer ranks whose
// partition intersects fileSpace, fetch each one's redirects concurrently,
// fetch get_data once per unique redirect-target rank concurrently, then
// project each returned region onto memSpace and copy into buf. The two
// fan-out/fan-in stages use errgroup so the first failing RPC cancels the
// rest of that stage, the same pattern the original expresses with
// diy::Master's collective exchange.
func (q *Query) QueryData(ctx context.Context, h *RemoteHandle, fileSpace, memSpace dataspace.Dataspace, elementSize uint64, buf []byte) error {
	owners := h.Decomposer.BoundsToGIDs(fileSpace)
	if len(owners) == 0 {
		return nil
	}

	redirectSet := make(map[int]bool)
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, owner := range owners {
		owner := owner
		g.Go(func() error {
			req := index.EncodeRedirectsRequest(h.Filename, h.Path, fileSpace)
			resp, err := rpc.Call(gctx, h.Intercomm, owner, rpc.OpFunction, "redirects", req.Body, req.Blobs)
			if err != nil {
				return fmt.Errorf("query: redirects from rank %d: %w", owner, err)
			}
			redirects, err := index.DecodeRedirectsResponse(resp)
			if err != nil {
				return fmt.Errorf("query: decoding redirects from rank %d: %w", owner, err)
			}
			mu.Lock()
			for _, r := range redirects {
				redirectSet[r.Rank] = true
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var regions []index.ReturnedRegion
	var rmu sync.Mutex
	g2, gctx2 := errgroup.WithContext(ctx)
	for rank := range redirectSet {
		rank := rank
		g2.Go(func() error {
			req := index.EncodeGetDataRequest(h.Filename, h.Path, fileSpace, elementSize)
			resp, err := rpc.Call(gctx2, h.Intercomm, rank, rpc.OpFunction, "get_data", req.Body, req.Blobs)
			if err != nil {
				return fmt.Errorf("query: get_data from rank %d: %w", rank, err)
			}
			got, err := index.DecodeGetDataResponse(resp)
			if err != nil {
				return fmt.Errorf("query: decoding get_data from rank %d: %w", rank, err)
			}
			rmu.Lock()
			regions = append(regions, got...)
			rmu.Unlock()
			return nil
		})
	}
	if err := g2.Wait(); err != nil {
		return err
	}

	for _, region := range regions {
		memDst, err := dataspace.ProjectIntersection(fileSpace, memSpace, region.FileSelection)
		if err != nil {
			return fmt.Errorf("query: projecting returned region onto memory selection: %w", err)
		}
		// region.Bytes holds the returned elements back to back, one per
		// point of region.FileSelection, so the source offsets are those of
		// a dense 1-D space of that many points.
		n, err := region.FileSelection.Size()
		if err != nil {
			return fmt.Errorf("query: sizing returned region: %w", err)
		}
		src := dataspace.NewSimple([]uint64{n}, nil)
		src.SelectAll()
		if err := dataspace.IteratePair(src, elementSize, memDst, elementSize, func(srcOff, dstOff, length uint64) {
			copy(buf[dstOff:dstOff+length], region.Bytes[srcOff:srcOff+length])
		}); err != nil {
			return err
		}
	}
	return nil
}
