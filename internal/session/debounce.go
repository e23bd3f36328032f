package session

import "time"

// debouncer is a table of trailing-edge timers keyed by note id. It is owned
// by the session goroutine: schedule, cancel and the fire callbacks all run
// there. Timers hand their callback back through post, and a callback whose
// entry was replaced or cancelled in the meantime does nothing.
type debouncer struct {
	delay  time.Duration
	post   func(func())
	timers map[string]*pendingTimer
	seq    uint64
}

type pendingTimer struct {
	t   *time.Timer
	seq uint64
}

func newDebouncer(delay time.Duration, post func(func())) *debouncer {
	return &debouncer{
		delay:  delay,
		post:   post,
		timers: make(map[string]*pendingTimer),
	}
}

// schedule (re)starts the timer for key. Only the last fire of a burst runs.
func (d *debouncer) schedule(key string, fire func()) {
	if p, ok := d.timers[key]; ok {
		p.t.Stop()
	}
	d.seq++
	seq := d.seq
	p := &pendingTimer{seq: seq}
	p.t = time.AfterFunc(d.delay, func() {
		d.post(func() {
			cur, ok := d.timers[key]
			if !ok || cur.seq != seq {
				return
			}
			delete(d.timers, key)
			fire()
		})
	})
	d.timers[key] = p
}

// cancel drops the pending timer for key, if any.
func (d *debouncer) cancel(key string) bool {
	p, ok := d.timers[key]
	if !ok {
		return false
	}
	p.t.Stop()
	delete(d.timers, key)
	return true
}

func (d *debouncer) pending(key string) bool {
	_, ok := d.timers[key]
	return ok
}

func (d *debouncer) len() int { return len(d.timers) }

func (d *debouncer) stopAll() {
	for key, p := range d.timers {
		p.t.Stop()
		delete(d.timers, key)
	}
}
