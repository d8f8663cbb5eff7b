// Package command serializes every operation on a Context through a single
// goroutine. Callers build a Command with a Responder, submit it to the
// queue and wait for the reply string.
package command

import (
	"context"
)

// QueueCapacity bounds the number of commands waiting for the dispatcher.
const QueueCapacity = 32

// Responder receives exactly one reply. It is buffered so the dispatcher
// never blocks on a caller that went away.
type Responder chan string

// NewResponder returns a one-slot responder.
func NewResponder() Responder {
	return make(Responder, 1)
}

// deliver hands the reply over without blocking. The reply is dropped when
// the slot is already taken.
func (r Responder) deliver(reply string) bool {
	select {
	case r <- reply:
		return true
	default:
		return false
	}
}

// NewQueue returns the bounded command queue.
func NewQueue() chan Command {
	return make(chan Command, QueueCapacity)
}

// Submit enqueues cmd, blocking while the queue is full until ctx is done.
// The queue must not be closed yet.
func Submit(ctx context.Context, queue chan<- Command, cmd Command) error {
	select {
	case queue <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Await waits for the reply on responder.
func Await(ctx context.Context, responder Responder) (string, error) {
	select {
	case reply := <-responder:
		return reply, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Call builds a command around a fresh responder, submits it and waits for
// the reply.
func Call(ctx context.Context, queue chan<- Command, build func(Reply) Command) (string, error) {
	responder := NewResponder()
	if err := Submit(ctx, queue, build(Reply{To: responder})); err != nil {
		return "", err
	}
	return Await(ctx, responder)
}
