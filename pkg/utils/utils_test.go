package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopic(t *testing.T) {
	topic := NewTopic[string]()

	first := topic.Subscribe(1)
	second := topic.Subscribe(1)
	require.Equal(t, 2, topic.NumSubscribers())

	topic.Publish("Carol")
	assert.Equal(t, "Carol", <-first.Recv())
	assert.Equal(t, "Carol", <-second.Recv())

	second.Done()
	assert.Equal(t, 1, topic.NumSubscribers())

	topic.Publish("Bob")
	assert.Equal(t, "Bob", <-first.Recv())

	select {
	case value := <-second.Recv():
		t.Fatalf("unsubscribed receiver got %q", value)
	default:
	}
}

func TestTopicDoneWhilePublishing(t *testing.T) {
	topic := NewTopic[string]()
	subscriber := topic.Subscribe(1)

	// Fills the buffer so the next publish has to wait
	topic.Publish("Alice")

	published := make(chan struct{})
	go func() {
		topic.Publish("Bob")
		close(published)
	}()

	stopped := make(chan struct{})
	go func() {
		subscriber.Done()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Done blocked behind Publish")
	}

	select {
	case <-published:
	case <-time.After(5 * time.Second):
		t.Fatal("Publish never gave up on a finished subscriber")
	}

	assert.Equal(t, 0, topic.NumSubscribers())

	// Publishing with nobody listening returns immediately
	topic.Publish("Carol")
}

func TestSession(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	session := NewSession(parent)

	assert.False(t, session.IsDone())
	assert.WithinDuration(t, time.Now(), session.Started(), time.Second)

	cancel()
	<-session.Done()
	assert.True(t, session.IsDone())

	other := NewSession(context.Background())
	other.Cancel()
	assert.True(t, other.IsDone())
}
