package chain

import "sync"

// statusFeed hands statuses to a single subscriber in the order they were
// pushed. push never blocks; the backlog grows instead.
type statusFeed struct {
	mu      sync.Mutex
	queue   []Status
	wake    chan struct{}
	deliver func(Status)
}

func newStatusFeed(deliver func(Status)) *statusFeed {
	f := &statusFeed{
		wake:    make(chan struct{}, 1),
		deliver: deliver,
	}
	go f.loop()
	return f
}

// push queues st. Callers serialize push and stop (the chain holds its mutex).
func (f *statusFeed) push(st Status) {
	f.mu.Lock()
	f.queue = append(f.queue, st)
	f.mu.Unlock()

	select {
	case f.wake <- struct{}{}:
	default:
	}
}

// stop ends the delivery goroutine once the backlog is delivered.
func (f *statusFeed) stop() {
	close(f.wake)
}

func (f *statusFeed) loop() {
	for range f.wake {
		for {
			f.mu.Lock()
			if len(f.queue) == 0 {
				f.mu.Unlock()
				break
			}
			st := f.queue[0]
			f.queue = f.queue[1:]
			f.mu.Unlock()

			f.deliver(st)
		}
	}
	// wake closed; deliver anything pushed just before stop
	f.mu.Lock()
	rest := f.queue
	f.queue = nil
	f.mu.Unlock()
	for _, st := range rest {
		f.deliver(st)
	}
}
