package usecase

import (
	"context"
	"errors"
)

// Pending is the deferred result of a queued operation.
type Pending[R any] struct {
	id    string
	done  chan struct{}
	value R
	err   error
}

func newPending[R any]() *Pending[R] {
	return &Pending[R]{done: make(chan struct{})}
}

// resolved returns a Pending that has already completed.
func resolved[R any](value R, err error) *Pending[R] {
	p := newPending[R]()
	p.resolve(value, err)
	return p
}

func (p *Pending[R]) resolve(value R, err error) {
	p.value, p.err = value, err
	close(p.done)
}

// ID returns the queue task id, empty for operations that were never queued.
func (p *Pending[R]) ID() string { return p.id }

// Done is closed once the result is available.
func (p *Pending[R]) Done() <-chan struct{} { return p.done }

// Wait blocks until the operation completes or ctx ends. Ending ctx abandons
// the wait only; the operation itself still runs.
func (p *Pending[R]) Wait(ctx context.Context) (R, error) {
	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

// WaitAll waits for every pending result and ANDs them. Errors are joined.
func WaitAll(ctx context.Context, pending ...*Pending[bool]) (bool, error) {
	ok := true
	var errs []error
	for _, p := range pending {
		v, err := p.Wait(ctx)
		if err != nil {
			errs = append(errs, err)
		}
		ok = ok && v
	}
	return ok, errors.Join(errs...)
}
