package app

import (
	"sync"
	"sync/atomic"
)

// dispatcher hands results from the pipeline goroutine to the consumer on
// its own goroutine. Only the newest undelivered result is kept: posting
// overwrites whatever is still waiting, and a result whose Seq is not
// greater than the last delivered one is never delivered.
type dispatcher struct {
	consumer Consumer

	slot   atomic.Pointer[Result]
	alert  atomic.Pointer[Alert]
	notify chan struct{}

	halted    atomic.Bool
	alertOnce sync.Once

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}

	// last is only touched by run.
	last uint64
}

func newDispatcher(c Consumer) *dispatcher {
	if c == nil {
		c = ConsumerFuncs{}
	}
	return &dispatcher{
		consumer: c,
		notify:   make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// post offers r for delivery. It reports false once the dispatcher has
// been halted by an alert.
func (d *dispatcher) post(r Result) bool {
	if d.halted.Load() {
		return false
	}
	d.slot.Store(&r)
	d.wake()
	return true
}

// raise halts result delivery and queues the alert. A result still waiting
// in the slot is dropped, so nothing reaches the consumer after the alert.
// Only the first alert of a dispatcher is delivered.
func (d *dispatcher) raise(a Alert) {
	d.alertOnce.Do(func() {
		d.halted.Store(true)
		d.slot.Store(nil)
		d.alert.Store(&a)
		d.wake()
	})
}

func (d *dispatcher) wake() {
	select {
	case d.notify <- struct{}{}:
	default:
	}
}

func (d *dispatcher) run() {
	defer close(d.done)

	for {
		select {
		case <-d.stopCh:
			d.deliverAlert()
			return
		case <-d.notify:
			if r := d.slot.Swap(nil); r != nil && r.Seq > d.last && !d.halted.Load() {
				d.last = r.Seq
				d.consumer.OnResult(*r)
			}
			d.deliverAlert()
		}
	}
}

func (d *dispatcher) deliverAlert() {
	if a := d.alert.Swap(nil); a != nil {
		d.consumer.OnAlert(*a)
	}
}

// close stops the dispatcher and waits for run to return. A queued alert
// is still delivered; a queued result is not.
func (d *dispatcher) close() {
	d.stopOnce.Do(func() { close(d.stopCh) })
	<-d.done
}
