package realtime

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

const sendBuffer = 16

// Hub fans seller notifications out to that seller's live connections.
type Hub struct {
	mu   sync.RWMutex
	subs map[int64]map[*Subscriber]struct{}
	log  *slog.Logger
}

type Subscriber struct {
	SellerID int64
	send     chan []byte
	once     sync.Once
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{subs: make(map[int64]map[*Subscriber]struct{}), log: log}
}

func (h *Hub) Subscribe(sellerID int64) *Subscriber {
	s := &Subscriber{SellerID: sellerID, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[sellerID] == nil {
		h.subs[sellerID] = make(map[*Subscriber]struct{})
	}
	h.subs[sellerID][s] = struct{}{}
	return s
}

// Unsubscribe detaches s and closes its message channel. Safe to call more than once.
func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	if set, ok := h.subs[s.SellerID]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(h.subs, s.SellerID)
		}
	}
	h.mu.Unlock()
	s.once.Do(func() { close(s.send) })
}

// Publish encodes msg as JSON and queues it for every subscriber of sellerID.
// Slow subscribers whose buffer is full miss the message. Returns how many received it.
func (h *Hub) Publish(sellerID int64, msg any) (int, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return 0, fmt.Errorf("encode live message: %w", err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for s := range h.subs[sellerID] {
		select {
		case s.send <- data:
			delivered++
		default:
			h.log.Warn("live feed buffer full, dropping message", "seller_id", sellerID)
		}
	}
	return delivered, nil
}

func (h *Hub) Subscribers(sellerID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[sellerID])
}

func (s *Subscriber) Messages() <-chan []byte {
	return s.send
}
