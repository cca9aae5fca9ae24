// Package sse implements the Server-Sent Events broker that carries mutation
// notices to the presentation layer.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/starford/bookdesk/internal/metrics"
	"github.com/starford/bookdesk/internal/models"
)

// Event types written to the stream.
const (
	EventNotice          = "notice"
	EventBookCreated     = "book.created"
	EventBookUpdated     = "book.updated"
	EventBookDeleted     = "book.deleted"
	EventViewInvalidated = "view.invalidated"
	EventStoreRefreshed  = "store.refreshed"
)

var bookEvents = map[string]string{
	models.OpCreate: EventBookCreated,
	models.OpUpdate: EventBookUpdated,
	models.OpDelete: EventBookDeleted,
}

// Event is one message on the stream.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

func (e Event) frame() ([]byte, error) {
	payload, err := json.Marshal(e.Data)
	if err != nil {
		return nil, err
	}
	return fmt.Appendf(nil, "event: %s\ndata: %s\n\n", e.Type, payload), nil
}

// subscribers is the client set. Only the broker loop touches it.
type subscribers map[chan []byte]struct{}

func (s subscribers) send(e Event) {
	raw, err := e.frame()
	if err != nil {
		return
	}
	for ch := range s {
		select {
		case ch <- raw:
		default:
			// Slow client; drop rather than stall the loop.
		}
	}
}

func (s subscribers) closeAll() {
	for ch := range s {
		close(ch)
		delete(s, ch)
	}
}

// Broker fans events out to connected stream clients.
//
// One goroutine owns the client set and the invalidation throttle. Public
// methods reach it through channels and become no-ops once Close returns.
type Broker struct {
	invalidateMin time.Duration

	join   chan chan []byte
	leave  chan chan []byte
	events chan Event
	notes  chan models.Notice
	counts chan chan int

	quit   chan struct{}
	done   chan struct{}
	closed atomic.Bool
}

// NewBroker creates a broker that emits at most one view.invalidated event
// per invalidateThrottle.
func NewBroker(invalidateThrottle time.Duration) *Broker {
	if invalidateThrottle <= 0 {
		invalidateThrottle = time.Second
	}
	b := &Broker{
		invalidateMin: invalidateThrottle,
		join:          make(chan chan []byte),
		leave:         make(chan chan []byte),
		events:        make(chan Event, 256),
		notes:         make(chan models.Notice, 256),
		counts:        make(chan chan int),
		quit:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	go b.loop()
	return b
}

func (b *Broker) loop() {
	defer close(b.done)

	clients := subscribers{}
	var lastInvalidate time.Time
	track := func() { metrics.StreamClients.Set(float64(len(clients))) }

	for {
		select {
		case <-b.quit:
			clients.closeAll()
			track()
			return

		case ch := <-b.join:
			clients[ch] = struct{}{}
			track()

		case ch := <-b.leave:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
				track()
			}

		case e := <-b.events:
			clients.send(e)

		case n := <-b.notes:
			clients.send(Event{Type: EventNotice, Data: n})
			if n.Level != models.NoticeSuccess {
				continue
			}
			if typ, ok := bookEvents[n.Op]; ok {
				clients.send(Event{Type: typ, Data: map[string]string{"id": n.BookID}})
			}
			if now := time.Now(); now.Sub(lastInvalidate) >= b.invalidateMin {
				lastInvalidate = now
				clients.send(Event{Type: EventViewInvalidated, Data: map[string]string{}})
			}

		case reply := <-b.counts:
			reply <- len(clients)
		}
	}
}

// Close stops the loop and closes every client channel. It is safe to call
// more than once.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.quit)
	}
	<-b.done
}

// Subscribe registers a client. The returned channel is already closed when
// the broker is.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}
	select {
	case b.join <- ch:
	case <-b.done:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.leave <- ch:
	case <-b.done:
	}
}

// ClientCount reports how many clients are connected.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}
	reply := make(chan int, 1)
	select {
	case b.counts <- reply:
	case <-b.done:
		return 0
	}
	select {
	case n := <-reply:
		return n
	case <-b.done:
		return 0
	}
}

// Publish broadcasts e to every client.
func (b *Broker) Publish(e Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.events <- e:
	case <-b.done:
	}
}

// Notify broadcasts n as a notice event. Successful mutations also emit the
// matching book.* event and a throttled view.invalidated hint.
func (b *Broker) Notify(n models.Notice) {
	if b.closed.Load() {
		return
	}
	select {
	case b.notes <- n:
	case <-b.done:
	}
}

// ServeHTTP streams events to one client (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
