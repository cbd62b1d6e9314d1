// Package sse pushes directory changes to browsers as Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/starford/torlist/internal/models"
)

// Event types.
const (
	TypeListingCreated   = "listing.created"
	TypeListingAppended  = "listing.appended"
	TypeDenylistCreated  = "denylist.created"
	TypeDenylistUpdated  = "denylist.updated"
	TypeDenylistDeleted  = "denylist.deleted"
	TypeDirectoryUpdated = "directory.updated"
)

const defaultKeepAlive = 25 * time.Second

// AppendedListing is the payload of listing.appended. Listing is nil when
// the record behind CID could not be read.
type AppendedListing struct {
	CID     string          `json:"cid"`
	Listing *models.Listing `json:"listing,omitempty"`
}

// DirectoryUpdate is the payload of directory.updated: how many listing and
// moderation changes it coalesces.
type DirectoryUpdate struct {
	Listings    int `json:"listings"`
	Moderations int `json:"moderations"`
}

type change struct {
	eventType  string
	data       any
	moderation bool
}

// Broker fans directory changes out to connected clients.
//
// Every change is sent as its own event, followed by at most one
// directory.updated per throttle interval. Changes arriving inside the
// interval are counted and flushed when it ends, so the last one is never
// lost. A single goroutine owns the client set, the counters and the
// event sequence.
type Broker struct {
	dirMin    time.Duration
	keepAlive time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	changeCh      chan change
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker emitting at most one directory.updated per
// throttle interval.
func NewBroker(throttle time.Duration) *Broker {
	if throttle <= 0 {
		throttle = 2 * time.Second
	}

	b := &Broker{
		dirMin:        throttle,
		keepAlive:     defaultKeepAlive,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		changeCh:      make(chan change, 256),
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
	var (
		seq     uint64
		lastDir time.Time
		pending DirectoryUpdate
		flushC  <-chan time.Time
	)

	broadcast := func(eventType string, data any) {
		payload, err := json.Marshal(data)
		if err != nil {
			return
		}
		seq++
		raw := []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", seq, eventType, payload))

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Slow client; drop rather than stall everyone else.
			}
		}
	}

	flushDir := func(now time.Time) {
		lastDir = now
		flushC = nil
		broadcast(TypeDirectoryUpdated, pending)
		pending = DirectoryUpdate{}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case c := <-b.changeCh:
			broadcast(c.eventType, c.data)
			if c.moderation {
				pending.Moderations++
			} else {
				pending.Listings++
			}
			now := time.Now()
			if wait := b.dirMin - now.Sub(lastDir); wait <= 0 {
				flushDir(now)
			} else if flushC == nil {
				flushC = time.After(wait)
			}

		case now := <-flushC:
			flushDir(now)

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close stops the loop and closes every client channel.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
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

// ListingAdmitted announces a listing accepted by this process.
func (b *Broker) ListingAdmitted(l models.Listing) {
	b.send(change{eventType: TypeListingCreated, data: l})
}

// ListingAppended announces a listing another writer put on the journal.
// l may be nil when only the cid is known.
func (b *Broker) ListingAppended(cid string, l *models.Listing) {
	b.send(change{eventType: TypeListingAppended, data: AppendedListing{CID: cid, Listing: l}})
}

// DenylistChanged announces a moderation change. eventType is one of the
// TypeDenylist* constants.
func (b *Broker) DenylistChanged(eventType string, e models.DenylistEntry) {
	b.send(change{eventType: eventType, data: e, moderation: true})
}

func (b *Broker) send(c change) {
	if b.closed.Load() {
		return
	}
	select {
	case b.changeCh <- c:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events). Idle streams get
// a comment line every keep-alive interval so proxies keep them open.
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

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ping := time.NewTicker(b.keepAlive)
	defer ping.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			_, _ = w.Write([]byte(": keepalive\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
