package services

import (
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// ChangeEvent is pushed to every subscribed dashboard after a
// successful save so clients can re-fetch instead of polling blind.
type ChangeEvent struct {
	Type        string `json:"type"`
	Fingerprint string `json:"fingerprint"`
	Durable     bool   `json:"durable"`
}

// subscriber is one websocket client. Writes go through a channel so a
// slow client never blocks the save path.
type subscriber struct {
	conn      *websocket.Conn
	writeChan chan ChangeEvent
	stopChan  chan struct{}
}

// Broadcaster manages all active event subscriber connections
type Broadcaster struct {
	subscribers map[string]*subscriber
	mutex       sync.RWMutex
}

// NewBroadcaster creates a new broadcaster
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subscribers: make(map[string]*subscriber),
	}
}

// Add registers a connection and starts its writer loop. It returns
// once the connection drops or Remove is called.
func (b *Broadcaster) Add(connID string, conn *websocket.Conn) {
	sub := &subscriber{
		conn:      conn,
		writeChan: make(chan ChangeEvent, 8),
		stopChan:  make(chan struct{}),
	}

	b.mutex.Lock()
	b.subscribers[connID] = sub
	total := len(b.subscribers)
	b.mutex.Unlock()
	log.Printf("✅ Event subscriber added: %s (Total: %d)", connID, total)

	for {
		select {
		case event, ok := <-sub.writeChan:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				b.Remove(connID)
				return
			}
		case <-sub.stopChan:
			return
		}
	}
}

// Remove drops a connection
func (b *Broadcaster) Remove(connID string) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if sub, exists := b.subscribers[connID]; exists {
		close(sub.stopChan)
		delete(b.subscribers, connID)
		log.Printf("❌ Event subscriber removed: %s (Total: %d)", connID, len(b.subscribers))
	}
}

// Count returns the number of active subscribers
func (b *Broadcaster) Count() int {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return len(b.subscribers)
}

// Broadcast queues an event for every subscriber. Clients whose queues
// are full skip the event; they will catch up on their next fetch.
func (b *Broadcaster) Broadcast(event ChangeEvent) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	for _, sub := range b.subscribers {
		select {
		case sub.writeChan <- event:
		default:
		}
	}
}
