package player

import (
	"sync"

	"github.com/ayusman/gesturetube/internal/gesture"
	"github.com/ayusman/gesturetube/internal/log"
)

// DefaultQueueSize bounds commands waiting for a slow control surface.
const DefaultQueueSize = 4

// Dispatcher sends one command per accepted gesture to a Control.
//
// Dispatch never blocks the caller: commands are handed to a single sender
// goroutine, so they reach the surface in order. Failures are logged and not
// retried; when the queue is full the command is dropped.
type Dispatcher struct {
	control Control
	queue   chan Command
	done    chan struct{}
	mu      sync.Mutex
	closed  bool
}

// NewDispatcher starts a dispatcher for control.
func NewDispatcher(control Control, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	d := &Dispatcher{
		control: control,
		queue:   make(chan Command, queueSize),
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

// Control returns the surface commands are sent to.
func (d *Dispatcher) Control() Control {
	return d.control
}

// Dispatch queues the command for g. It reports false for None, after Close,
// or when the queue is full.
func (d *Dispatcher) Dispatch(g gesture.Gesture) (Command, bool) {
	cmd, ok := CommandFor(g)
	if !ok {
		return 0, false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return cmd, false
	}

	select {
	case d.queue <- cmd:
		return cmd, true
	default:
		log.Warn("player busy, command dropped", "command", cmd.String(), "surface", d.control.Name())
		return cmd, false
	}
}

// Close stops accepting commands and waits for queued ones to be sent.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.done
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)

	for cmd := range d.queue {
		var err error
		switch cmd {
		case PlayVideo:
			err = d.control.Play()
		case PauseVideo:
			err = d.control.Pause()
		}

		if err != nil {
			log.Warn("player command failed", "command", cmd.String(), "surface", d.control.Name(), "err", err)
			continue
		}
		log.Debug("player command sent", "command", cmd.String(), "surface", d.control.Name())
	}
}
