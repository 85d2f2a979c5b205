package utils

import (
	"sync"

	"github.com/sasha-s/go-deadlock"
)

// Topic fans each published value out to every current subscriber.
// Publish blocks until each subscriber has either received the value or
// called Done.
type Topic[T any] struct {
	subscribers map[*Subscriber[T]]struct{}
	mutex       deadlock.Mutex
}

func NewTopic[T any]() *Topic[T] {
	return &Topic[T]{
		subscribers: make(map[*Subscriber[T]]struct{}),
	}
}

func (t *Topic[T]) Publish(value T) {
	t.mutex.Lock()
	subscribers := make([]*Subscriber[T], 0, len(t.subscribers))
	for subscriber := range t.subscribers {
		subscribers = append(subscribers, subscriber)
	}
	t.mutex.Unlock()

	for _, subscriber := range subscribers {
		select {
		case subscriber.channel <- value:
		case <-subscriber.done:
		}
	}
}

func (t *Topic[T]) NumSubscribers() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return len(t.subscribers)
}

type Subscriber[T any] struct {
	channel chan T
	done    chan struct{}
	once    sync.Once
	topic   *Topic[T]
}

// Subscribe registers a subscriber with room for size pending values.
func (t *Topic[T]) Subscribe(size int) *Subscriber[T] {
	subscriber := &Subscriber[T]{
		channel: make(chan T, size),
		done:    make(chan struct{}),
		topic:   t,
	}

	t.mutex.Lock()
	t.subscribers[subscriber] = struct{}{}
	t.mutex.Unlock()

	return subscriber
}

func (s *Subscriber[T]) Recv() <-chan T {
	return s.channel
}

func (s *Subscriber[T]) Done() {
	s.once.Do(func() {
		close(s.done)
	})

	topic := s.topic
	topic.mutex.Lock()
	delete(topic.subscribers, s)
	topic.mutex.Unlock()
}
