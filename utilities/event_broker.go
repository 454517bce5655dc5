package utilities

import "sync"

type Subscriber[T any] interface {
	OnEvent(event T)
}

// SubscriberFunc adapts a plain function to a Subscriber.
type SubscriberFunc[T any] func(event T)

func (f SubscriberFunc[T]) OnEvent(event T) {
	f(event)
}

type registration[T any] struct {
	id  uint64
	sub Subscriber[T]
}

type EventPublisher[T any] struct {
	subscribers []registration[T]
	nextID      uint64
	mu          sync.RWMutex // Mutex to protect the subscribers slice
}

func NewPublisher[T any]() *EventPublisher[T] {
	return &EventPublisher[T]{
		subscribers: make([]registration[T], 0),
	}
}

// Register adds s to the subscribers and returns a function removing it again.
func (p *EventPublisher[T]) Register(s Subscriber[T]) (deregister func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	id := p.nextID
	p.subscribers = append(p.subscribers, registration[T]{id: id, sub: s})
	return func() {
		p.deregister(id)
	}
}

func (p *EventPublisher[T]) deregister(id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, r := range p.subscribers {
		if r.id == id {
			p.subscribers = append(p.subscribers[:i], p.subscribers[i+1:]...)
			return
		}
	}
}

func (p *EventPublisher[T]) SendEvent(data T) {
	if p == nil {
		return
	}
	p.mu.RLock()
	subs := make([]Subscriber[T], len(p.subscribers))
	for i, r := range p.subscribers {
		subs[i] = r.sub
	}
	p.mu.RUnlock()

	for _, s := range subs {
		s.OnEvent(data)
	}
}
