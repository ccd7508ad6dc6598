package lowfive

import (
	"context"
	"fmt"
	"sync"

	"github.com/scigolib/lowfive/internal/dataspace"
	"github.com/scigolib/lowfive/internal/index"
	"github.com/scigolib/lowfive/internal/mpi"
	"github.com/scigolib/lowfive/internal/query"
	"github.com/scigolib/lowfive/internal/rpc"
)

// Distributed layers component I's two state-machine additions atop a
// Connector (spec §4.I): consumer-side dataset_open upgrading a
// DummyDataset to a RemoteDataset bound to an intercommunicator, and
// producer-side file_close/serve_all running an Index over the datasets
// accumulated since the last serve. The base Connector alone implements
// the local (single-process) VOL semantics of spec §4.D.
type Distributed struct {
	*Connector

	comm       mpi.Comm
	intercomms []mpi.Intercomm
	query      *query.Query

	mu          sync.Mutex
	remoteFiles map[string]*RemoteFile

	// serveOnClose makes FileClose run ServeAll immediately instead of
	// requiring an explicit call (spec §4.I "serve_all is invoked (either
	// explicitly or because serve_on_close is set)").
	serveOnClose bool
}

// NewDistributed wraps c with the distributed VOL additions, bound to the
// local communicator comm and the ordered list of intercommunicators that
// Router.SetIntercomm's indices refer to.
func NewDistributed(c *Connector, comm mpi.Comm, intercomms []mpi.Intercomm) *Distributed {
	return &Distributed{
		Connector:   c,
		comm:        comm,
		intercomms:  intercomms,
		query:       query.New(comm, c.log),
		remoteFiles: make(map[string]*RemoteFile),
	}
}

// SetServeOnClose toggles the serve_on_close behavior (spec §4.I).
func (d *Distributed) SetServeOnClose(v bool) { d.serveOnClose = v }

// intercommFor resolves the intercommunicator Router.SetIntercomm bound to
// (filename, p), reporting ok=false if none was registered (spec §7
// "Mapping" error).
func (d *Distributed) intercommFor(filename, p string) (mpi.Intercomm, bool) {
	idx, ok := d.Router.Intercomm(filename, p, false)
	if !ok || idx < 0 || idx >= len(d.intercomms) {
		return nil, false
	}
	return d.intercomms[idx], true
}

// FileOpen runs the base FileOpen; if the result is a DummyFile, it sends
// the file_open notification across every intercommunicator whose pattern
// matches filename and upgrades the shadow to a RemoteFile (spec §4.H
// "file_open(name) sends ... on every intercommunicator whose pattern
// matches the filename", §4.I). A previously-upgraded RemoteFile for the
// same filename is returned without re-querying.
func (d *Distributed) FileOpen(ctx context.Context, filename string, flags int, fapl interface{}) (*ObjectPointers, error) {
	d.mu.Lock()
	if rf, ok := d.remoteFiles[filename]; ok {
		d.mu.Unlock()
		return &ObjectPointers{Meta: rf}, nil
	}
	d.mu.Unlock()

	op, err := d.Connector.FileOpen(filename, flags, fapl)
	if err != nil {
		return nil, err
	}
	if _, ok := op.Meta.(*DummyFile); !ok {
		return op, nil
	}

	indices := d.Router.MatchingIntercomms(filename)
	if len(indices) == 0 {
		return op, nil
	}
	ics := make([]mpi.Intercomm, 0, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(d.intercomms) {
			ics = append(ics, d.intercomms[i])
		}
	}
	if err := d.query.FileOpen(ctx, ics, 0, filename); err != nil {
		return nil, RPCError("file_open", err)
	}

	rf := NewRemoteFile(filename)
	d.mu.Lock()
	d.remoteFiles[filename] = rf
	d.mu.Unlock()
	return &ObjectPointers{Meta: rf}, nil
}

// FileCreate runs the base FileCreate and starts accumulating a serve_data
// set for filename, so that DatasetCreate calls against this file register
// into it (spec §4.I "every newly-created dataset is added to a
// serve_data set").
func (d *Distributed) FileCreate(filename string, flags int, fcpl, fapl interface{}) (*ObjectPointers, error) {
	op, err := d.Connector.FileCreate(filename, flags, fcpl, fapl)
	if err != nil {
		return nil, err
	}
	d.Connector.lock()
	d.Connector.markServeData(filename)
	d.Connector.unlock()
	return op, nil
}

// DatasetOpen looks up name under parent; if a child of that name already
// exists (local or previously-opened remote), it is returned unchanged.
// Otherwise the dispatcher resolves the owning intercommunicator for
// (filename, path) and issues the RPC dataset_open, installing a
// RemoteDataset; if no intercommunicator is bound, a DummyDataset is
// installed instead (spec §4.I first bullet).
func (d *Distributed) DatasetOpen(ctx context.Context, parent *ObjectPointers, name string) (*ObjectPointers, error) {
	for _, ch := range parent.Meta.Children() {
		if ch.Name() == name && ch.Type() == TypeDataset {
			return &ObjectPointers{Meta: ch}, nil
		}
	}

	filename, parentPath := Fullname(parent.Meta, "")
	fullPath := joinPath(parentPath, name)

	ic, ok := d.intercommFor(filename, fullPath)
	if !ok {
		dummy := NewDummyDataset(name)
		addChild(parent.Meta, dummy)
		return &ObjectPointers{Meta: dummy}, nil
	}

	h, err := d.query.DatasetOpen(ctx, ic, 0, filename, fullPath)
	if err != nil {
		return nil, RPCError("dataset_open", err)
	}

	rd := NewRemoteDataset(name, h)
	addChild(parent.Meta, rd)
	return &ObjectPointers{Meta: rd}, nil
}

// DatasetRead serves a read against a RemoteDataset by running spec
// §4.H's query() over its bound intercommunicator. Local datasets are
// unaffected by Distributed and continue to go through Connector.DatasetRead.
func (d *Distributed) DatasetRead(ctx context.Context, op *ObjectPointers, fileSpace, memSpace dataspace.Dataspace, elementSize uint64, buf []byte) error {
	rd, ok := op.Meta.(*RemoteDataset)
	if !ok {
		return MetadataError("dataset_read", fmt.Errorf("target is not a RemoteDataset"))
	}
	if err := d.query.QueryData(ctx, rd.Handle, fileSpace, memSpace, elementSize, buf); err != nil {
		return RPCError("dataset_read", err)
	}
	return nil
}

// SendDone terminates the producer's serve loop on the intercommunicator
// bound to (filename, path) (spec §4.H "send_done terminates the producer
// loop on the associated intercommunicator").
func (d *Distributed) SendDone(ctx context.Context, filename, path string) error {
	ic, ok := d.intercommFor(filename, path)
	if !ok {
		return MappingError("send_done", fmt.Errorf("no intercommunicator bound for %q", filename))
	}
	return d.query.SendDone(ctx, ic, 0)
}

// FileClose mirrors FileOpen's split: closing a RemoteFile sends the
// file_close notification across every intercommunicator that served it
// (spec §4.H "file_close mirrors file_open"), which is what lets the
// producer's open-file reference count (index.go's noteFileClose) return
// to zero and its serve loop exit. Closing a local File instead runs the
// base FileClose and, when serve_on_close is set, ServeAll immediately
// afterward (spec §4.I).
func (d *Distributed) FileClose(ctx context.Context, op *ObjectPointers) error {
	if rf, ok := op.Meta.(*RemoteFile); ok {
		indices := d.Router.MatchingIntercomms(rf.Name())
		ics := make([]mpi.Intercomm, 0, len(indices))
		for _, i := range indices {
			if i >= 0 && i < len(d.intercomms) {
				ics = append(ics, d.intercomms[i])
			}
		}
		if err := d.query.FileClose(ctx, ics, 0, rf.Name()); err != nil {
			return RPCError("file_close", err)
		}
		d.mu.Lock()
		delete(d.remoteFiles, rf.Name())
		d.mu.Unlock()
		return nil
	}

	if err := d.Connector.FileClose(op); err != nil {
		return err
	}
	if d.serveOnClose {
		return d.ServeAll(ctx)
	}
	return nil
}

// ServeAll builds an Index over every dataset accumulated in the
// connector's serve_data sets since the last serve, and runs its serve
// loop to completion over every configured intercommunicator (spec §4.I
// "once serve_all is invoked ... an Index is constructed on the set and
// its serve loop runs until all peers send finish").
func (d *Distributed) ServeAll(ctx context.Context) error {
	d.Connector.lock()
	idx := index.New(d.comm.Rank(), d.comm.Size(), d.log)
	var addErr error
	for filename, set := range d.Connector.serveData {
		for ds := range set {
			triples := make([]index.Triple, len(ds.Data))
			for i, t := range ds.Data {
				triples[i] = index.Triple{Type: t.Type, Memory: t.Memory, File: t.File, Bytes: t.Bytes}
			}
			_, p := Fullname(ds, "")
			if err := idx.Add(filename, p, ds.Type, ds.Space, triples); err != nil && addErr == nil {
				addErr = err
			}
		}
	}
	d.Connector.serveData = make(map[string]map[*Dataset]bool)
	d.Connector.unlock()
	if addErr != nil {
		return addErr
	}

	disp := rpc.NewDispatcher()
	idx.RegisterHandlers(disp)
	return idx.Serve(ctx, d.comm, d.intercomms, disp)
}
