package index

import (
	"fmt"
	"sync"

	"github.com/scigolib/lowfive/internal/dataspace"
	"github.com/scigolib/lowfive/internal/datatype"
	"github.com/scigolib/lowfive/internal/log"
	"github.com/scigolib/lowfive/internal/rpc"
)

// Triple mirrors a Dataset's DataTriple, duplicated here so this package
// has no dependency on the root package's Object tree (spec §4.G "every
// Dataset leaf" is handed to the index as plain data).
type Triple struct {
	Type   datatype.Datatype
	Memory dataspace.Dataspace
	File   dataspace.Dataspace
	Bytes  []byte
}

// IndexedDataset is the per-dataset state spec §4.G describes: its
// declared shape, a Decomposer matching the local communicator, and the
// DataTriples a get_data/redirects request is served from.
type IndexedDataset struct {
	Filename   string
	Path       string
	Dim        int
	Type       datatype.Datatype
	Space      dataspace.Dataspace
	Decomposer *Decomposer
	Triples    []Triple
}

// Index is the producer-side distributed index over a set of datasets
// (spec §4.G). One Index instance corresponds to one invocation of
// serve_all (component I); it may carry datasets from more than one file,
// since "on first serve, the index walks all files in the process map".
type Index struct {
	mu       sync.Mutex
	rank     int
	size     int
	log      log.Logger
	datasets map[string]*IndexedDataset

	// sawOpen/openFiles implement the SUPPLEMENTED open-file reference
	// count (original source's "open_files" in src/dist/index.cpp's
	// serve()): Serve does not exit on the first finish once any file_open
	// has been observed, only once the count returns to zero.
	sawOpen   bool
	openFiles int
}

// New builds an empty Index for a local communicator of the given rank and
// size.
func New(rank, size int, logger log.Logger) *Index {
	return &Index{rank: rank, size: size, log: log.Or(logger), datasets: make(map[string]*IndexedDataset)}
}

func key(filename, path string) string { return filename + "\x00" + path }

// Add registers (filename, path)'s dataset with the index, building its
// Decomposer from the dataset's own declared extent (spec §4.G
// "instantiates an IndexedDataset carrying (dim, type, space, decomposer,
// box locations)"). With more than one rank, BoundsToGIDs trusts that every
// rank's writes stay within the box its own RankBox formula assigns it
// (see DESIGN.md's decomposer entry for why); Add enforces that trust
// instead of silently accepting a triple Redirects could never route a
// consumer to, which it rejects rather than indexing.
func (idx *Index) Add(filename, path string, typ datatype.Datatype, space dataspace.Dataspace, triples []Triple) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	dc := NewDecomposer(space.Dims, idx.size)
	if idx.size > 1 {
		box := dc.RankBox(idx.rank)
		for _, t := range triples {
			if !box.Contains(t.File) {
				return fmt.Errorf("index: add %s:%q: triple file selection (%s) is not contained in rank %d's formula-aligned partition (%s); writes must align with Decomposer.RankBox across this many ranks", filename, path, t.File, idx.rank, box)
			}
		}
	}
	idx.datasets[key(filename, path)] = &IndexedDataset{
		Filename:   filename,
		Path:       path,
		Dim:        space.Dim,
		Type:       typ,
		Space:      space,
		Decomposer: dc,
		Triples:    triples,
	}
	idx.log.Trace("index: added dataset %s:%q with %d triples", filename, path, len(triples))
	return nil
}

func (idx *Index) get(filename, path string) (*IndexedDataset, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	ds, ok := idx.datasets[key(filename, path)]
	if !ok {
		return nil, fmt.Errorf("index: no such dataset %s:%q", filename, path)
	}
	return ds, nil
}

// Filenames returns the distinct filenames this index currently serves
// (SUPPLEMENTED get_filenames / original source's msgs::fnames).
func (idx *Index) Filenames() []string {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	seen := make(map[string]bool)
	var names []string
	for _, ds := range idx.datasets {
		if !seen[ds.Filename] {
			seen[ds.Filename] = true
			names = append(names, ds.Filename)
		}
	}
	return names
}

func (idx *Index) noteFileOpen() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.sawOpen = true
	idx.openFiles++
}

func (idx *Index) noteFileClose() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.openFiles > 0 {
		idx.openFiles--
	}
}

func (idx *Index) pendingOpens() bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.sawOpen && idx.openFiles > 0
}

// GetData answers a get_data(file_space) request: for every local
// DataTriple intersecting query, the projected file selection followed by
// the corresponding bytes, read from the triple's memory-laid-out bytes
// through the memory points that match the projected file points (spec
// §4.G).
func (idx *Index) GetData(filename, path string, query dataspace.Dataspace, elementSize uint64) ([]ReturnedRegion, error) {
	ds, err := idx.get(filename, path)
	if err != nil {
		return nil, err
	}

	var regions []ReturnedRegion
	for _, t := range ds.Triples {
		if !t.File.Intersects(query) {
			continue
		}
		fileSel, err := dataspace.ProjectIntersection(t.File, t.File, query)
		if err != nil {
			return nil, err
		}
		memSel, err := dataspace.ProjectIntersection(t.File, t.Memory, query)
		if err != nil {
			return nil, err
		}
		out := make([]byte, 0, len(t.Bytes))
		var readErr error
		dataspace.Iterate(memSel, elementSize, func(offset, length uint64) {
			if readErr != nil {
				return
			}
			if int(offset+length) > len(t.Bytes) {
				readErr = fmt.Errorf("index: get_data: triple too short for projected selection")
				return
			}
			out = append(out, t.Bytes[offset:offset+length]...)
		})
		if readErr != nil {
			return nil, readErr
		}
		regions = append(regions, ReturnedRegion{FileSelection: fileSel, Bytes: out})
	}
	return regions, nil
}

// ReturnedRegion is one (file selection, bytes) pair a get_data response
// carries (spec §4.H step 4).
type ReturnedRegion struct {
	FileSelection dataspace.Dataspace
	Bytes         []byte
}

// Redirect is one (sub-selection, owner rank) tuple a redirects response
// carries (spec §4.G).
type Redirect struct {
	Box  dataspace.Dataspace
	Rank int
}

// Redirects answers a redirects(file_space) request with the list of
// (sub-selection, owner rank) tuples a consumer should contact next (spec
// §4.G).
func (idx *Index) Redirects(filename, path string, query dataspace.Dataspace) ([]Redirect, error) {
	ds, err := idx.get(filename, path)
	if err != nil {
		return nil, err
	}

	var out []Redirect
	for _, rank := range ds.Decomposer.BoundsToGIDs(query) {
		out = append(out, Redirect{Box: ds.Decomposer.RankBox(rank), Rank: rank})
	}
	return out, nil
}

// Dims returns a dataset's declared extent, type and rank, as dataset_open
// fetches them (spec §4.H).
func (idx *Index) Dims(filename, path string) (dim int, typ datatype.Datatype, space dataspace.Dataspace, err error) {
	ds, err := idx.get(filename, path)
	if err != nil {
		return 0, datatype.Datatype{}, dataspace.Dataspace{}, err
	}
	return ds.Dim, ds.Type, ds.Space, nil
}

// RegisterHandlers wires get_data, redirects, dims, file_open, file_close
// and get_filenames onto d under OpFunction, using a request/response
// encoding private to this package (internal/rpc only carries opaque
// bytes). file_open/file_close additionally drive the SUPPLEMENTED
// open-file reference count Serve waits on before exiting.
func (idx *Index) RegisterHandlers(d *rpc.Dispatcher) {
	d.Register(rpc.OpFunction, "get_data", func(req rpc.Message) (rpc.Message, error) {
		filename, path, query, elementSize, err := decodeGetDataRequest(req)
		if err != nil {
			return rpc.Message{}, err
		}
		regions, err := idx.GetData(filename, path, query, elementSize)
		if err != nil {
			return rpc.Message{}, err
		}
		return encodeGetDataResponse(regions), nil
	})

	d.Register(rpc.OpFunction, "redirects", func(req rpc.Message) (rpc.Message, error) {
		filename, path, query, err := decodeRedirectsRequest(req)
		if err != nil {
			return rpc.Message{}, err
		}
		redirects, err := idx.Redirects(filename, path, query)
		if err != nil {
			return rpc.Message{}, err
		}
		return encodeRedirectsResponse(redirects), nil
	})

	d.Register(rpc.OpFunction, "dims", func(req rpc.Message) (rpc.Message, error) {
		filename, path, err := decodeDimsRequest(req)
		if err != nil {
			return rpc.Message{}, err
		}
		_, typ, space, err := idx.Dims(filename, path)
		if err != nil {
			return rpc.Message{}, err
		}
		return encodeDimsResponse(typ, space), nil
	})

	d.Register(rpc.OpFunction, "file_open", func(req rpc.Message) (rpc.Message, error) {
		idx.noteFileOpen()
		return rpc.Message{Opcode: rpc.OpFunction, Callee: "file_open"}, nil
	})

	d.Register(rpc.OpFunction, "file_close", func(req rpc.Message) (rpc.Message, error) {
		idx.noteFileClose()
		return rpc.Message{Opcode: rpc.OpFunction, Callee: "file_close"}, nil
	})

	d.Register(rpc.OpFunction, "get_filenames", func(req rpc.Message) (rpc.Message, error) {
		return encodeFilenamesResponse(idx.Filenames()), nil
	})
}
