package editor

import (
	"context"
	"sync"

	"github.com/teranos/arbor/errors"
)

// ErrStopped is returned for work submitted after Stop
var ErrStopped = errors.New("session actor stopped")

// Actor runs all work for one session on a single goroutine, so gestures
// from several clients never interleave mid-operation. A prompt blocks the
// actor (and thereby every other mutation) until it is answered.
type Actor struct {
	session *Session
	ops     chan func()
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewActor starts the actor goroutine
func NewActor(s *Session) *Actor {
	a := &Actor{
		session: s,
		ops:     make(chan func()),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go a.loop()
	return a
}

func (a *Actor) loop() {
	defer close(a.done)
	for {
		select {
		case op := <-a.ops:
			op()
		case <-a.stop:
			return
		}
	}
}

// Do runs fn on the actor goroutine and waits for it to finish. If ctx ends
// first, Do returns ctx.Err() but fn, once started, still runs to completion.
func (a *Actor) Do(ctx context.Context, fn func(*Session)) error {
	finished := make(chan struct{})
	op := func() {
		defer close(finished)
		fn(a.session)
	}

	select {
	case a.ops <- op:
	case <-a.stop:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Session returns the wrapped session. Only goroutine-safe methods
// (PointerDown, ID) may be called on it outside Do.
func (a *Actor) Session() *Session { return a.session }

// Stop ends the actor once the running operation returns
func (a *Actor) Stop() {
	a.once.Do(func() { close(a.stop) })
	<-a.done
}
