// Package gstack provides the resizable-stack abstraction the prompt
// runtime switches between. A native implementation would reserve a range
// of virtual memory and commit pages into it on demand, then swap the CPU's
// stack pointer with a handwritten assembly routine. Go exposes neither
// primitive to a library, so a gstack here is a goroutine parked on a
// channel: the "stack" is whatever the Go runtime has grown for that
// goroutine, and "context switch" is a pair of channel operations. A
// channel handoff is a documented happens-before edge, so writes made on
// the departing side are visible to the arriving side without extra
// synchronization.
package gstack

import (
	"errors"
	"fmt"
	"sync"
)

// ErrPoolClosed is returned by Acquire once the owning Provider has been
// closed.
var ErrPoolClosed = errors.New("gstack: provider closed")

// MsgKind classifies a value handed across a gstack boundary.
type MsgKind int

const (
	// MsgReturn carries the final result of a Body that ran to completion.
	MsgReturn MsgKind = iota
	// MsgYield carries a value suspended mid-Body via Stack.Yield.
	MsgYield
	// MsgAbort carries an Abort value that unwound the Body via panic/recover.
	MsgAbort
)

// Msg is one handoff from a gstack back to whichever side is waiting on it.
type Msg struct {
	Kind  MsgKind
	Value any
}

// Abort is the marker a caller's resume value must implement for Stack.Yield
// to re-raise it as a panic on the blocked goroutine rather than returning
// it as an ordinary resume value. The prompt runtime uses this to drive
// cross-goroutine unwinds; gstack itself does not interpret the payload.
type Abort interface {
	GstackAbort()
}

// Body is the function a gstack runs. self is the handle the body uses to
// Yield back to whoever is driving it; arg is the value it was started or
// last resumed with.
type Body func(self *Stack, arg any) any

// Stack is a parked goroutine standing in for a gstack. Exactly one of its
// two ends is ever runnable at a time: either the goroutine running Body is
// executing (and whoever switched to it is blocked in a channel receive),
// or Body is blocked inside Yield (and whoever holds the Stack is free to
// inspect or resume it). Stack is not safe for concurrent use from more
// than one logical thread; the prompt runtime serializes access to it the
// same way it serializes access to the shadow stack.
type Stack struct {
	in  chan any // resumer -> blocked body
	out chan Msg // body -> whoever is waiting on it
	id  uint64
}

// Yield suspends the running Body, handing payload to whoever is waiting on
// this Stack, and blocks until resumed. If the resume value implements
// Abort, Yield panics with it instead of returning it, so the blocked
// goroutine's own defers (and any FINALLY frames) run on unwind. Yield is
// YieldTo(s, payload): the common case where the Stack yielding and the
// Stack whose output carries the Msg are the same.
func (s *Stack) Yield(payload any) any {
	return s.YieldTo(s, payload)
}

// YieldTo suspends the running Body exactly like Yield, but delivers the
// Msg to target's output rather than this Stack's own. This is the single
// channel send that implements a multi-level yield directly to an ancestor
// prompt's gstack: target may belong to a goroutine several nested prompts
// away from the one calling YieldTo, and every gstack strictly between them
// is left untouched, still blocked waiting on its own child — exactly as a
// register-level context switch would leave intermediate stack frames
// sitting dormant in memory rather than unwinding through them.
func (s *Stack) YieldTo(target *Stack, payload any) any {
	target.out <- Msg{Kind: MsgYield, Value: payload}
	v := <-s.in
	if a, ok := v.(Abort); ok {
		panic(a)
	}
	return v
}

// Provider allocates and recycles gstacks. A released Stack's goroutine is
// not torn down; it loops back to wait for its next Body, which is the
// Go-idiomatic analogue of returning committed stack pages to a pool
// instead of unmapping them.
type Provider struct {
	mu     sync.Mutex
	idle   []*Stack
	closed bool
	nextID uint64
}

// NewProvider returns an empty Provider. Stacks are spawned lazily on first
// Acquire and recycled into idle on Release.
func NewProvider() *Provider {
	return &Provider{}
}

type job struct {
	body Body
	arg  any
}

// Acquire obtains a Stack (reused from the idle pool, or freshly spawned)
// and switches onto it: body(self, arg) begins running immediately, and
// Acquire blocks until it yields or returns.
func (p *Provider) Acquire(body Body, arg any) (*Stack, Msg, error) {
	s, err := p.acquire()
	if err != nil {
		return nil, Msg{}, err
	}
	s.in <- job{body: body, arg: arg}
	msg := <-s.out
	return s, msg, nil
}

// Send wakes the goroutine blocked in s.Yield with v, without waiting for
// whatever it produces next. Callers that need the next Msg call s.Recv
// themselves (possibly after relaying v to a Stack several levels removed
// from whichever Stack's own "natural" reader is currently parked).
func (s *Stack) Send(v any) { s.in <- v }

// Recv blocks for the next Msg this Stack produces, whether that is the
// direct result of a preceding Send or something written far deeper in a
// chain of nested gstacks this Stack's goroutine is itself waiting on.
func (s *Stack) Recv() Msg { return <-s.out }

// Resume is Send followed by Recv on the same Stack: the common case where
// the resumer is also the sole reader of that Stack's output.
func (p *Provider) Resume(s *Stack, v any) Msg {
	s.Send(v)
	return s.Recv()
}

func (p *Provider) acquire() (*Stack, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if n := len(p.idle); n > 0 {
		s := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		return s, nil
	}
	p.nextID++
	s := &Stack{in: make(chan any), out: make(chan Msg), id: p.nextID}
	p.mu.Unlock()
	go p.run(s)
	return s, nil
}

func (p *Provider) run(s *Stack) {
	for raw := range s.in {
		j, ok := raw.(job)
		if !ok {
			// Nothing queued this Stack for reuse; drop the stray value.
			continue
		}
		result, aborted := runBody(j.body, s, j.arg)
		if aborted != nil {
			s.out <- Msg{Kind: MsgAbort, Value: aborted}
			continue
		}
		s.out <- Msg{Kind: MsgReturn, Value: result}
	}
}

func runBody(body Body, s *Stack, arg any) (result any, aborted any) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(Abort); ok {
				aborted = r
				return
			}
			panic(r)
		}
	}()
	result = body(s, arg)
	return result, nil
}

// Release returns s to the idle pool for reuse by a later Acquire. Callers
// must only release a Stack once its Body has fully returned or aborted;
// releasing a Stack still blocked in Yield leaks its goroutine.
func (p *Provider) Release(s *Stack) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		close(s.in)
		return
	}
	p.idle = append(p.idle, s)
}

// Close stops every idle goroutine. Stacks still mid-Body when Close runs
// are left to finish and will be torn down individually as they are
// released.
func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	for _, s := range p.idle {
		close(s.in)
	}
	p.idle = nil
}

// Stats reports p's idle count and the total number of gstacks it has ever
// spawned. The difference between the two is how many are currently
// checked out — running or parked mid-Yield — the Go-idiomatic analogue of
// a native allocator's "pages committed but not free" counter. See
// package diag's Snapshot.
func (p *Provider) Stats() (idle int, everSpawned uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle), p.nextID
}

// ID returns a stable debug identifier for s, distinct across the lifetime
// of the Provider that spawned it (including after recycling).
func (s *Stack) ID() uint64 { return s.id }

func (s *Stack) String() string {
	return fmt.Sprintf("gstack#%d", s.id)
}
