package frameloop

import (
	"sync"

	"github.com/samejima-ai/minute-board-app/domain/layout"
)

// StreamObserver receives stream metrics
type StreamObserver interface {
	ObserveSubscribers(n int)
	ObserveDroppedFrame()
}

type nopObserver struct{}

func (nopObserver) ObserveSubscribers(int) {}
func (nopObserver) ObserveDroppedFrame()   {}

// Broadcaster keeps the latest frame and fans frames out to subscribers.
// A subscriber that falls behind loses its oldest buffered frame, never
// the newest.
type Broadcaster struct {
	mu       sync.RWMutex
	latest   layout.Frame
	has      bool
	subs     map[*Subscription]struct{}
	buffer   int
	closed   bool
	observer StreamObserver
}

// Subscription is one consumer of the frame stream
type Subscription struct {
	// C delivers frames; it is closed when the subscription or the
	// broadcaster is closed.
	C <-chan layout.Frame

	ch   chan layout.Frame
	b    *Broadcaster
	once sync.Once
}

// NewBroadcaster creates a broadcaster whose subscribers buffer up to buffer frames
func NewBroadcaster(buffer int, observer StreamObserver) *Broadcaster {
	if buffer < 1 {
		buffer = 1
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &Broadcaster{
		subs:     make(map[*Subscription]struct{}),
		buffer:   buffer,
		observer: observer,
	}
}

// Publish stores f as the latest frame and offers it to every subscriber
func (b *Broadcaster) Publish(f layout.Frame) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.latest, b.has = f, true

	for s := range b.subs {
		select {
		case s.ch <- f:
			continue
		default:
		}
		// full: make room by discarding the oldest frame
		select {
		case <-s.ch:
			b.observer.ObserveDroppedFrame()
		default:
		}
		select {
		case s.ch <- f:
		default:
		}
	}
}

// Latest returns the most recent frame, if any was published
func (b *Broadcaster) Latest() (layout.Frame, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.latest, b.has
}

// Subscribe registers a consumer. The latest frame, if any, is delivered
// first. Subscribing to a closed broadcaster returns a closed subscription.
func (b *Broadcaster) Subscribe() *Subscription {
	ch := make(chan layout.Frame, b.buffer)
	s := &Subscription{C: ch, ch: ch, b: b}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		s.once.Do(func() { close(ch) })
		return s
	}
	if b.has {
		ch <- b.latest
	}
	b.subs[s] = struct{}{}
	b.observer.ObserveSubscribers(len(b.subs))
	return s
}

// Close unsubscribes. Safe to call more than once.
func (s *Subscription) Close() {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	if _, ok := s.b.subs[s]; ok {
		delete(s.b.subs, s)
		s.b.observer.ObserveSubscribers(len(s.b.subs))
	}
	s.once.Do(func() { close(s.ch) })
}

// Subscribers returns the number of active subscriptions
func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close ends every subscription and rejects further frames
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for s := range b.subs {
		delete(b.subs, s)
		s.once.Do(func() { close(s.ch) })
	}
	b.observer.ObserveSubscribers(0)
}
