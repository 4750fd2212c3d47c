package hub

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/queueflow/backend/domain"
)

type keyKind int

const (
	keyTicket keyKind = iota
	keyDepartment
)

// Subscriber is one live connection's view of the hub. The owning connection
// reads from Events and calls Heartbeat on every client ping.
type Subscriber struct {
	ID   string
	kind keyKind
	key  string

	events    chan domain.Event
	lastSeen  atomic.Int64
	closeOnce sync.Once
	done      chan struct{}
}

func newSubscriber(kind keyKind, key string, buffer int) *Subscriber {
	sub := &Subscriber{
		ID:     uuid.NewString(),
		kind:   kind,
		key:    key,
		events: make(chan domain.Event, buffer),
		done:   make(chan struct{}),
	}
	sub.Heartbeat()
	return sub
}

// Events is the subscriber's receive queue. It is never closed; consumers
// stop when Done fires.
func (s *Subscriber) Events() <-chan domain.Event {
	return s.events
}

// Done is closed when the hub drops the subscriber.
func (s *Subscriber) Done() <-chan struct{} {
	return s.done
}

// Heartbeat marks the subscriber as alive.
func (s *Subscriber) Heartbeat() {
	s.lastSeen.Store(time.Now().UnixNano())
}

func (s *Subscriber) silentSince(deadline time.Time) bool {
	return s.lastSeen.Load() < deadline.UnixNano()
}

// close signals shutdown through done. The events channel is deliberately
// left open: a publish that raced the removal may still hold a reference,
// and a send must never panic on the dispatcher's mutation path.
func (s *Subscriber) close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// registry indexes subscribers by their key, one map per kind.
type registry struct {
	mu     sync.RWMutex
	byKind map[keyKind]map[string]map[*Subscriber]struct{}
}

func newRegistry() *registry {
	return &registry{
		byKind: map[keyKind]map[string]map[*Subscriber]struct{}{
			keyTicket:     {},
			keyDepartment: {},
		},
	}
}

func (r *registry) add(sub *Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()

	keyed := r.byKind[sub.kind]
	if keyed[sub.key] == nil {
		keyed[sub.key] = make(map[*Subscriber]struct{})
	}
	keyed[sub.key][sub] = struct{}{}
}

func (r *registry) remove(sub *Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()

	keyed := r.byKind[sub.kind]
	if set, ok := keyed[sub.key]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(keyed, sub.key)
		}
	}
}

func (r *registry) match(ticketID, departmentID string) []*Subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var subs []*Subscriber
	for sub := range r.byKind[keyTicket][ticketID] {
		subs = append(subs, sub)
	}
	for sub := range r.byKind[keyDepartment][departmentID] {
		subs = append(subs, sub)
	}
	return subs
}

func (r *registry) staleSince(deadline time.Time) []*Subscriber {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stale []*Subscriber
	for _, keyed := range r.byKind {
		for _, set := range keyed {
			for sub := range set {
				if sub.silentSince(deadline) {
					stale = append(stale, sub)
				}
			}
		}
	}
	return stale
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, keyed := range r.byKind {
		for _, set := range keyed {
			total += len(set)
		}
	}
	return total
}
