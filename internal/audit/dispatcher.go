package audit

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/MrEthical07/goAccount/internal/logging"
)

// Config controls how account events are queued.
type Config struct {
	Enabled    bool
	BufferSize int
	// DropIfFull keeps login and registration latency independent of the
	// sink: a full queue discards the event and counts it.
	DropIfFull bool
	// Log reports sinks that panic. Nil means silent.
	Log logging.Logger
}

// pending pairs an event with the values of the request that produced it.
// The request's cancellation is stripped so delivery outlives the handler.
type pending struct {
	ctx   context.Context
	event Event
}

// Dispatcher relays account events to one sink from a single goroutine, so
// sinks see events in emission order. A nil Dispatcher discards everything.
type Dispatcher struct {
	sink       Sink
	log        logging.Logger
	dropIfFull bool

	queue    chan pending
	stop     chan struct{}
	finished sync.WaitGroup
	stopOnce sync.Once
	stopped  atomic.Bool

	dropped atomic.Uint64
}

// NewDispatcher starts the relay goroutine. It returns nil when
// cfg.Enabled is false.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	size := cfg.BufferSize
	if size <= 0 {
		size = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	log := cfg.Log
	if log == nil {
		log = logging.Nop()
	}

	d := &Dispatcher{
		sink:       sink,
		log:        log,
		dropIfFull: cfg.DropIfFull,
		queue:      make(chan pending, size),
		stop:       make(chan struct{}),
	}
	d.finished.Add(1)
	go d.relay()
	return d
}

func (d *Dispatcher) relay() {
	defer d.finished.Done()
	for {
		select {
		case p := <-d.queue:
			d.deliver(p)
		case <-d.stop:
			d.flush()
			return
		}
	}
}

// flush delivers whatever was queued before Close.
func (d *Dispatcher) flush() {
	for {
		select {
		case p := <-d.queue:
			d.deliver(p)
		default:
			return
		}
	}
}

// deliver hands one event to the sink. A panicking sink loses that event
// only; the relay keeps running.
func (d *Dispatcher) deliver(p pending) {
	defer func() {
		if r := recover(); r != nil {
			d.dropped.Add(1)
			d.log.Error(p.ctx, "audit sink panicked", "type", p.event.Type, "panic", r)
		}
	}()
	d.sink.Emit(p.ctx, p.event)
}

// Emit queues an account event. With DropIfFull a full queue counts a drop;
// otherwise Emit waits until there is room, ctx is done or the dispatcher
// closes.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil || d.stopped.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	p := pending{ctx: context.WithoutCancel(ctx), event: event}

	if d.dropIfFull {
		select {
		case d.queue <- p:
		case <-d.stop:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.queue <- p:
	case <-ctx.Done():
		d.dropped.Add(1)
	case <-d.stop:
	}
}

// Close refuses new events and returns once the queue is flushed. It is
// called from Engine.Close and is safe to repeat.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.stopOnce.Do(func() {
		d.stopped.Store(true)
		close(d.stop)
		d.finished.Wait()
	})
}

// Dropped counts events that never reached the sink, whether the queue was
// full, the caller gave up waiting or the sink panicked.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
