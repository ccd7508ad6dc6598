package rpc

import (
	"fmt"
	"sync"
)

// ObjectRef is how an RPC object argument crosses the wire: a class
// identifier plus the server-assigned object id (spec §4.F "Arguments
// that are RPC objects are sent as (class_id, object_id)").
type ObjectRef struct {
	ClassID  uint32
	ObjectID uint64
}

type clientKey struct {
	rank int
	id   uint64
}

type refEntry struct {
	count  int
	owning bool
}

// Client tracks, per (target rank, object id), a reference count over
// handles the local process holds to remote objects (spec §4.F). Dropping
// the last local handle to an owning reference sends a destroy message;
// references created non-owning (the remote side retains sole ownership)
// never do.
type Client struct {
	mu   sync.Mutex
	refs map[clientKey]*refEntry
}

// NewClient returns an empty reference table.
func NewClient() *Client {
	return &Client{refs: make(map[clientKey]*refEntry)}
}

// Track registers a freshly received handle, owning iff the create call
// that produced it was owning.
func (c *Client) Track(rank int, id uint64, owning bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := clientKey{rank, id}
	if e, ok := c.refs[k]; ok {
		e.count++
		return
	}
	c.refs[k] = &refEntry{count: 1, owning: owning}
}

// Retain increments the reference count for an already-tracked handle.
func (c *Client) Retain(rank int, id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.refs[clientKey{rank, id}]; ok {
		e.count++
	}
}

// Release decrements the reference count and reports whether this was the
// last owning reference, i.e. whether the caller must now send a destroy
// message for (rank, id).
func (c *Client) Release(rank int, id uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := clientKey{rank, id}
	e, ok := c.refs[k]
	if !ok {
		return false
	}
	e.count--
	if e.count > 0 {
		return false
	}
	delete(c.refs, k)
	return e.owning
}

// Server maintains the parallel vector of live objects and per-class
// destructors the producer side exposes to RPC (spec §4.F "The server
// maintains a parallel vector of live objects and class proxies").
type Server struct {
	mu          sync.Mutex
	nextID      uint64
	objects     map[uint64]interface{}
	classOf     map[uint64]uint32
	destructors map[uint32]func(interface{}) error
}

// NewServer returns an empty live-object table.
func NewServer() *Server {
	return &Server{
		objects:     make(map[uint64]interface{}),
		classOf:     make(map[uint64]uint32),
		destructors: make(map[uint32]func(interface{}) error),
	}
}

// RegisterDestructor installs the cleanup function invoked when the last
// client reference to an object of classID is destroyed.
func (s *Server) RegisterDestructor(classID uint32, destroy func(interface{}) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destructors[classID] = destroy
}

// Create allocates a new slot for obj under classID and returns its id.
func (s *Server) Create(classID uint32, obj interface{}) ObjectRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.objects[id] = obj
	s.classOf[id] = classID
	return ObjectRef{ClassID: classID, ObjectID: id}
}

// Lookup resolves a previously created object id.
func (s *Server) Lookup(id uint64) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[id]
	return obj, ok
}

// Destroy runs the registered destructor for id's class and frees its
// slot.
func (s *Server) Destroy(id uint64) error {
	s.mu.Lock()
	obj, ok := s.objects[id]
	classID := s.classOf[id]
	destroy := s.destructors[classID]
	delete(s.objects, id)
	delete(s.classOf, id)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("rpc: destroy on unknown object id %d", id)
	}
	if destroy == nil {
		return nil
	}
	return destroy(obj)
}
