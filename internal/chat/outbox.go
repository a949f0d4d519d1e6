package chat

import (
	"errors"
	"io"
	"sync"

	"github.com/eapache/queue"
)

// ErrOutboxClosed is returned by Enqueue after the outbox stopped accepting
// frames.
var ErrOutboxClosed = errors.New("chat: outbox closed")

// Outbox serializes writes to one connection. Frames are flushed strictly
// in enqueue order with at most one write in flight; a slow peer grows the
// queue instead of causing reordered or interleaved writes.
type Outbox struct {
	w io.Writer

	mu       sync.Mutex
	pending  *queue.Queue
	closed   bool
	draining bool
	onDrain  func()

	wake chan struct{}
	done chan struct{}
	once sync.Once

	onError func(error)
}

// NewOutbox starts a flush goroutine for w. onError is invoked at most once
// if a write fails; frames still queued at that point are discarded.
func NewOutbox(w io.Writer, onError func(error)) *Outbox {
	o := &Outbox{
		w:       w,
		pending: queue.New(),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		onError: onError,
	}
	go o.flushLoop()
	return o
}

// Enqueue appends one encoded frame and kicks the flush loop.
func (o *Outbox) Enqueue(frame []byte) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrOutboxClosed
	}
	o.pending.Add(frame)
	o.mu.Unlock()
	o.signal()
	return nil
}

// CloseAfterDrain refuses further frames and, once everything already
// queued has been written, invokes fn and stops the flush loop.
func (o *Outbox) CloseAfterDrain(fn func()) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.draining = true
	o.onDrain = fn
	o.mu.Unlock()
	o.signal()
}

// Close stops the outbox immediately, dropping any queued frames. Safe to
// call more than once.
func (o *Outbox) Close() {
	o.mu.Lock()
	o.closed = true
	o.draining = false
	o.onDrain = nil
	o.mu.Unlock()
	o.once.Do(func() { close(o.done) })
}

func (o *Outbox) signal() {
	select {
	case o.wake <- struct{}{}:
	default:
	}
}

// flushLoop sends the frame at the head of the queue, pops it on
// completion, and keeps going while the queue is non-empty.
func (o *Outbox) flushLoop() {
	for {
		select {
		case <-o.done:
			return
		case <-o.wake:
		}

		for {
			o.mu.Lock()
			if o.pending.Length() == 0 {
				drained := o.draining
				fn := o.onDrain
				o.mu.Unlock()
				if drained {
					if fn != nil {
						fn()
					}
					return
				}
				break
			}
			frame := o.pending.Peek().([]byte)
			o.mu.Unlock()

			if _, err := o.w.Write(frame); err != nil {
				o.fail(err)
				return
			}

			o.mu.Lock()
			o.pending.Remove()
			o.mu.Unlock()
		}
	}
}

func (o *Outbox) fail(err error) {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	if o.onError != nil {
		o.onError(err)
	}
}
