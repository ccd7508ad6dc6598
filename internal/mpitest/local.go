// Package mpitest provides an in-process double of internal/mpi's
// interfaces, built from goroutines and mutex-guarded queues instead of a
// real MPI runtime. It exists purely so the end-to-end scenarios of spec §8
// can run as ordinary Go tests; it is not a reimplementation of MPI (spec
// §1 explicitly keeps the MPI library out of scope), only a same-process
// stand-in for its interface.
package mpitest

import (
	"context"
	"sync"
	"time"

	"github.com/scigolib/lowfive/internal/mpi"
)

const pollInterval = time.Millisecond

// --- local.Comm: intra-group collectives ---

type barrierState struct {
	mu      sync.Mutex
	size    int
	count   int
	release chan struct{}
}

func newBarrierState(size int) *barrierState {
	return &barrierState{size: size, release: make(chan struct{})}
}

func (b *barrierState) wait(ctx context.Context) error {
	b.mu.Lock()
	ch := b.release
	b.count++
	if b.count == b.size {
		b.count = 0
		b.release = make(chan struct{})
		close(ch)
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type request struct {
	mu   sync.Mutex
	done bool
	err  error
	ch   chan error
}

func newRequest(f func() error) *request {
	r := &request{ch: make(chan error, 1)}
	go func() { r.ch <- f() }()
	return r
}

func (r *request) Test() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return true, r.err
	}
	select {
	case err := <-r.ch:
		r.done = true
		r.err = err
		return true, err
	default:
		return false, nil
	}
}

func (r *request) Wait() error {
	r.mu.Lock()
	if r.done {
		err := r.err
		r.mu.Unlock()
		return err
	}
	r.mu.Unlock()

	err := <-r.ch
	r.mu.Lock()
	r.done = true
	r.err = err
	r.mu.Unlock()
	return err
}

// Comm implements mpi.Comm for one rank of an in-process world.
type Comm struct {
	rank    int
	size    int
	barrier *barrierState
}

// NewWorld builds size ranks of a local intracommunicator sharing one
// barrier.
func NewWorld(size int) []mpi.Comm {
	b := newBarrierState(size)
	comms := make([]mpi.Comm, size)
	for i := 0; i < size; i++ {
		comms[i] = &Comm{rank: i, size: size, barrier: b}
	}
	return comms
}

func (c *Comm) Rank() int { return c.rank }
func (c *Comm) Size() int { return c.size }

func (c *Comm) Barrier(ctx context.Context) error {
	return c.barrier.wait(ctx)
}

func (c *Comm) IBarrier(ctx context.Context) (mpi.Request, error) {
	return newRequest(func() error { return c.barrier.wait(ctx) }), nil
}

// --- local.Intercomm: cross-group point-to-point ---

type message struct {
	from int
	data []byte
}

type mailbox struct {
	mu sync.Mutex
	qs map[mpi.Tag][]message
}

func newMailbox() *mailbox { return &mailbox{qs: make(map[mpi.Tag][]message)} }

func (m *mailbox) push(tag mpi.Tag, msg message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.qs[tag] = append(m.qs[tag], msg)
}

func (m *mailbox) pop(tag mpi.Tag, source int) (message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := m.qs[tag]
	for i, msg := range q {
		if source == mpi.AnySource || msg.from == source {
			m.qs[tag] = append(q[:i], q[i+1:]...)
			return msg, true
		}
	}
	return message{}, false
}

func (m *mailbox) peek(tag mpi.Tag) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := m.qs[tag]
	if len(q) == 0 {
		return 0, false
	}
	return q[0].from, true
}

// Intercomm implements mpi.Intercomm for one rank on one side of an
// in-process intercommunicator.
type Intercomm struct {
	rank          int
	myMailboxes   []*mailbox // indexed by my group's rank: where others deliver to me
	peerMailboxes []*mailbox // indexed by peer group's rank: where I deliver to them
}

// NewIntercommPair builds a connected pair of intercommunicator rank sets,
// localSize ranks on one side and remoteSize on the other, with mailboxes
// shared between the two slices returned.
func NewIntercommPair(localSize, remoteSize int) (local []mpi.Intercomm, remote []mpi.Intercomm) {
	localBoxes := make([]*mailbox, localSize)
	for i := range localBoxes {
		localBoxes[i] = newMailbox()
	}
	remoteBoxes := make([]*mailbox, remoteSize)
	for i := range remoteBoxes {
		remoteBoxes[i] = newMailbox()
	}

	local = make([]mpi.Intercomm, localSize)
	for i := 0; i < localSize; i++ {
		local[i] = &Intercomm{rank: i, myMailboxes: localBoxes, peerMailboxes: remoteBoxes}
	}
	remote = make([]mpi.Intercomm, remoteSize)
	for j := 0; j < remoteSize; j++ {
		remote[j] = &Intercomm{rank: j, myMailboxes: remoteBoxes, peerMailboxes: localBoxes}
	}
	return local, remote
}

func (ic *Intercomm) RemoteSize() int { return len(ic.peerMailboxes) }

func (ic *Intercomm) Send(ctx context.Context, dest int, tag mpi.Tag, data []byte) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	cp := append([]byte(nil), data...)
	ic.peerMailboxes[dest].push(tag, message{from: ic.rank, data: cp})
	return nil
}

func (ic *Intercomm) Recv(ctx context.Context, source int, tag mpi.Tag) (int, []byte, error) {
	box := ic.myMailboxes[ic.rank]
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		if msg, ok := box.pop(tag, source); ok {
			return msg.from, msg.data, nil
		}
		select {
		case <-ctx.Done():
			return 0, nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (ic *Intercomm) IProbe(tag mpi.Tag) (int, bool, error) {
	box := ic.myMailboxes[ic.rank]
	source, ok := box.peek(tag)
	return source, ok, nil
}
