package api

import (
	"encoding/json"
	"sync"
	"time"
)

type event struct {
	ID   int64
	Kind string
	At   time.Time
	Data []byte
}

// feed fans invocation events out to /events subscribers and keeps the last
// few in a ring so a reconnecting client can catch up via Last-Event-ID.
type feed struct {
	mu     sync.Mutex
	lastID int64
	ring   []event
	head   int
	count  int
	subs   map[chan event]struct{}
}

func newFeed(capacity int) *feed {
	return &feed{
		ring: make([]event, max(capacity, 1)),
		subs: make(map[chan event]struct{}),
	}
}

func (f *feed) publish(kind string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		payload = []byte("{}")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.lastID++
	ev := event{ID: f.lastID, Kind: kind, At: time.Now().UTC(), Data: payload}

	if f.count < len(f.ring) {
		f.ring[(f.head+f.count)%len(f.ring)] = ev
		f.count++
	} else {
		f.ring[f.head] = ev
		f.head = (f.head + 1) % len(f.ring)
	}

	for ch := range f.subs {
		// Slow subscribers drop events rather than stall invocations.
		select {
		case ch <- ev:
		default:
		}
	}
}

// subscribe returns a channel of new events and a func that releases it.
func (f *feed) subscribe() (<-chan event, func()) {
	ch := make(chan event, 32)
	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, ch)
			f.mu.Unlock()
			close(ch)
		})
	}
}

// since returns buffered events with ID > lastID, oldest first.
func (f *feed) since(lastID int64) []event {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]event, 0, f.count)
	for i := 0; i < f.count; i++ {
		ev := f.ring[(f.head+i)%len(f.ring)]
		if ev.ID > lastID {
			out = append(out, ev)
		}
	}
	return out
}
