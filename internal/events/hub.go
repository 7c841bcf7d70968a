// Package events provides a broadcast hub for repository status updates.
package events

import (
	"sync"

	"github.com/LeanderZiehm/git-dashboard/internal/models"
)

// EventType identifies what happened to a repository.
type EventType string

const (
	// EventStatus means a repo status was refreshed.
	EventStatus EventType = "status"
	// EventRemoved means a repo disappeared from the scan root.
	EventRemoved EventType = "removed"
)

// Event is one status broadcast delivered to subscribers.
type Event struct {
	Type EventType          `json:"type"`
	Repo string             `json:"repo"`
	Data *models.RepoStatus `json:"data,omitempty"`
}

// subscriberBuffer bounds how many undelivered events a subscriber may
// hold before further events are dropped for it.
const subscriberBuffer = 32

// Hub fans status events out to subscribers. Sends never block: a slow
// subscriber loses events rather than stalling the syncer.
type Hub struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a new listener. The caller must Unsubscribe when
// done to prevent leaks.
func (h *Hub) Subscribe() chan Event {
	ch := make(chan Event, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (h *Hub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	_, ok := h.subs[ch]
	delete(h.subs, ch)
	h.mu.Unlock()
	if ok {
		close(ch)
	}
}

// Publish delivers an event to all subscribers without blocking.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			// Subscriber buffer full; it will resync on its next read.
		}
	}
}

// Len returns the current number of subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
