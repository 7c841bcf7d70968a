package events

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeanderZiehm/git-dashboard/internal/models"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	hub := NewHub()

	a := hub.Subscribe()
	b := hub.Subscribe()
	defer hub.Unsubscribe(a)
	defer hub.Unsubscribe(b)

	hub.Publish(Event{Type: EventStatus, Repo: "alpha", Data: &models.RepoStatus{Name: "alpha"}})

	for _, sub := range []chan Event{a, b} {
		select {
		case ev := <-sub:
			assert.Equal(t, "alpha", ev.Repo)
		default:
			t.Fatal("expected buffered event")
		}
	}
}

func TestSlowSubscriberDropsEvents(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	// Overfill the subscriber buffer; Publish must never block.
	for i := 0; i < subscriberBuffer*2; i++ {
		hub.Publish(Event{Type: EventStatus, Repo: fmt.Sprintf("repo-%d", i)})
	}

	count := 0
	for {
		select {
		case <-sub:
			count++
			continue
		default:
		}
		break
	}
	assert.Equal(t, subscriberBuffer, count)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe()
	require.Equal(t, 1, hub.Len())

	hub.Unsubscribe(sub)
	assert.Equal(t, 0, hub.Len())

	_, open := <-sub
	assert.False(t, open)

	// A second unsubscribe is a no-op.
	hub.Unsubscribe(sub)
}

func TestPublishWithoutSubscribers(t *testing.T) {
	hub := NewHub()
	hub.Publish(Event{Type: EventRemoved, Repo: "gone"})
}
