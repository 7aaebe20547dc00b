package events

import (
	"sync"
	"time"
)

type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// OrderTransition is published on every successful lifecycle change.
type OrderTransition struct {
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id"`
	From    string `json:"from"`
	To      string `json:"to"`
	TS      int64  `json:"ts"`
}

type Bus struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

func NewBus() *Bus {
	return &Bus{subs: make(map[chan Event]struct{})}
}

func (b *Bus) Subscribe() chan Event {
	ch := make(chan Event, 100)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Bus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

// Publish fans out without blocking; slow subscribers drop events.
func (b *Bus) Publish(evt Event) {
	b.mu.RLock()
	for ch := range b.subs {
		select {
		case ch <- evt:
		default:
		}
	}
	b.mu.RUnlock()
}

func (b *Bus) PublishOrderTransition(orderID, userID, from, to string) {
	b.Publish(Event{Type: "order_status", Data: OrderTransition{
		OrderID: orderID,
		UserID:  userID,
		From:    from,
		To:      to,
		TS:      time.Now().UnixMilli(),
	}})
}
