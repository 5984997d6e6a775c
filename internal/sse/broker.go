// Package sse streams publish progress to browsers as Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

// Event types.
const (
	EventPublishStarted   = "publish.started"
	EventPublishCompleted = "publish.completed"
	EventPublishFailed    = "publish.failed"
	EventPagePublished    = "page.published"
	EventPageFailed       = "page.failed"
	EventIndexUpdated     = "index.updated"
)

const (
	clientBuffer = 64
	// historySize bounds the events replayed to a reconnecting client.
	historySize = 128
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type frame struct {
	id  uint64
	raw []byte
}

type subscription struct {
	ch     chan []byte
	lastID uint64
}

// Broker fans publish events out to SSE clients. Every event gets an
// increasing id; a client reconnecting with Last-Event-ID is sent the events
// it missed that are still in the history.
//
// A single event loop goroutine owns the client set, the history and the
// index throttle timestamp. Public methods talk to it over channels.
type Broker struct {
	indexMin time.Duration

	subscribeCh   chan subscription
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker that emits index.updated at most once per
// indexThrottle.
func NewBroker(indexThrottle time.Duration) *Broker {
	if indexThrottle <= 0 {
		indexThrottle = 2 * time.Second
	}

	b := &Broker{
		indexMin:      indexThrottle,
		subscribeCh:   make(chan subscription),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	history := make([]frame, 0, historySize)
	var (
		nextID    uint64
		lastIndex time.Time
	)

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		nextID++
		f := frame{
			id:  nextID,
			raw: []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", nextID, event.Type, payload)),
		}
		if len(history) == historySize {
			history = append(history[:0], history[1:]...)
		}
		history = append(history, f)

		for ch := range clients {
			select {
			case ch <- f.raw:
			default:
				// Slow client; it can catch up through Last-Event-ID.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case sub := <-b.subscribeCh:
			clients[sub.ch] = struct{}{}
			if sub.lastID == 0 {
				continue
			}
			for _, f := range history {
				if f.id <= sub.lastID {
					continue
				}
				select {
				case sub.ch <- f.raw:
				default:
				}
			}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)
			if event.Type != EventPagePublished {
				continue
			}
			if now := time.Now(); now.Sub(lastIndex) >= b.indexMin {
				lastIndex = now
				broadcast(Event{Type: EventIndexUpdated, Data: map[string]string{}})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close stops the event loop and closes every client channel.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a client that only sees new events.
func (b *Broker) Subscribe() chan []byte {
	return b.SubscribeFrom(0)
}

// SubscribeFrom adds a client and queues the retained events newer than
// lastID.
func (b *Broker) SubscribeFrom(lastID uint64) chan []byte {
	ch := make(chan []byte, clientBuffer)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- subscription{ch: ch, lastID: lastID}:
	case <-b.stopped:
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
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PagePublished announces a saved page, followed by a throttled
// index.updated event.
func (b *Broker) PagePublished(noteID, route string) {
	b.Publish(Event{Type: EventPagePublished, Data: pageData(noteID, route)})
}

// PageFailed announces a page that could not be saved.
func (b *Broker) PageFailed(noteID, route string) {
	b.Publish(Event{Type: EventPageFailed, Data: pageData(noteID, route)})
}

func pageData(noteID, route string) map[string]string {
	return map[string]string{"noteId": noteID, "route": route}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	lastID, _ := strconv.ParseUint(r.Header.Get("Last-Event-ID"), 10, 64)
	ch := b.SubscribeFrom(lastID)
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
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
