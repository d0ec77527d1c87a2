package sse

import (
	"sync"

	"videofetch/models"
)

// Client is one subscriber waiting for progress of a request id.
type Client struct {
	Channel chan models.DownloadProgress
}

// Hub fans download progress out to every subscriber of a request id.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	buffer  int
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 20
	}
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		buffer:  buffer,
	}
}

func (h *Hub) Register(id string) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	client := &Client{
		Channel: make(chan models.DownloadProgress, h.buffer),
	}
	if h.clients[id] == nil {
		h.clients[id] = make(map[*Client]struct{})
	}
	h.clients[id][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(id string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.clients[id]
	if !ok {
		return
	}
	if _, ok := subs[client]; ok {
		close(client.Channel)
		delete(subs, client)
	}
	if len(subs) == 0 {
		delete(h.clients, id)
	}
}

// Subscribers returns how many clients currently listen on id.
func (h *Hub) Subscribers(id string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[id])
}

// Publish never blocks: a subscriber with a full buffer misses the event.
func (h *Hub) Publish(progress models.DownloadProgress) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[progress.RequestID] {
		select {
		case client.Channel <- progress:
		default:
		}
	}
}

// Final reports whether no further events follow this one.
func Final(progress models.DownloadProgress) bool {
	return progress.Status == "completed" || progress.Status == "error"
}
