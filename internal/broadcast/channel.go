// Package broadcast fans quiz state deltas out to long-lived client
// connections. A Channel keeps the rolling state (the shallow merge of every
// delta broadcast so far) and a monotonic event id, so clients that connect
// late or reconnect with a stale id catch up with one full-state message.
package broadcast

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/poalrom/big-web-quiz/internal/domain"
)

// DefaultMaxPerUser is the per-user open connection ceiling. Admins are
// exempt so operators can open extra sessions while testing.
const DefaultMaxPerUser = 10

// subscriptionBuffer bounds how many undelivered messages a slow consumer
// may queue before its oldest message is dropped.
const subscriptionBuffer = 16

// Identity is the connection owner, used for the per-user ceiling.
type Identity struct {
	UserID string
	Admin  bool
}

// Message is one serialized push: the channel sequence number plus the
// JSON-encoded delta (or full rolling state for catch-up deliveries).
type Message struct {
	ID   uint64
	Data []byte
}

// Channel is a connection registry plus rolling broadcast state. Two
// instances exist per deployment: the participant channel (long-poll and
// websocket) and the presentation channel (SSE).
type Channel struct {
	name       string
	maxPerUser int

	mu          sync.Mutex
	lastEventID uint64
	rolling     domain.Delta
	subs        map[*Subscription]struct{}
}

// NewChannel creates a channel. maxPerUser <= 0 selects DefaultMaxPerUser.
func NewChannel(name string, maxPerUser int) *Channel {
	if maxPerUser <= 0 {
		maxPerUser = DefaultMaxPerUser
	}
	return &Channel{
		name:       name,
		maxPerUser: maxPerUser,
		subs:       make(map[*Subscription]struct{}),
	}
}

// Subscription is the handle a transport holds for one client connection.
// Exactly one of "normal completion" or "transport close" must call Close;
// calling it from both is safe.
type Subscription struct {
	owner   Identity
	ch      chan Message
	channel *Channel
	once    sync.Once
}

// C is the stream of pushes for this subscription. It is closed by Close.
func (s *Subscription) C() <-chan Message {
	return s.ch
}

// Close unregisters the subscription and closes its stream. Idempotent.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.channel.remove(s)
	})
}

// Subscribe registers a connection for future broadcasts. When the caller's
// last seen event id differs from the channel's current id, the full rolling
// state is queued first so the client closes the gap before any delta
// arrives. Non-admin users holding more connections than the ceiling are
// rejected with domain.ErrTooManyConnections.
func (c *Channel) Subscribe(owner Identity, lastSeenID uint64) (*Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !owner.Admin && c.countLocked(owner.UserID) > c.maxPerUser {
		return nil, domain.ErrTooManyConnections
	}

	sub := &Subscription{
		owner:   owner,
		ch:      make(chan Message, subscriptionBuffer),
		channel: c,
	}

	if lastSeenID != c.lastEventID {
		data, err := json.Marshal(c.rolling)
		if err != nil {
			return nil, err
		}
		sub.ch <- Message{ID: c.lastEventID, Data: data}
	}

	c.subs[sub] = struct{}{}
	return sub, nil
}

// Broadcast merges delta into the rolling state, bumps the event id and
// pushes the serialized delta to every registered subscription. Delivery to
// one slow or dead connection never blocks the rest: a full buffer loses its
// oldest message instead.
func (c *Channel) Broadcast(delta domain.Delta) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delta.Merge(&c.rolling)
	c.lastEventID++

	data, err := json.Marshal(delta)
	if err != nil {
		return err
	}
	msg := Message{ID: c.lastEventID, Data: data}

	for sub := range c.subs {
		select {
		case sub.ch <- msg:
		default:
			// Slow consumer: shed its oldest queued message. The client
			// sees the id gap and recovers via the rolling state on
			// reconnect.
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- msg:
			default:
				log.Printf("%s channel: dropped event %d for user %s", c.name, msg.ID, sub.owner.UserID)
			}
		}
	}
	return nil
}

// LastEventID returns the id of the most recent broadcast.
func (c *Channel) LastEventID() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastEventID
}

// ConnectionsFor counts the open subscriptions held by one user.
func (c *Channel) ConnectionsFor(userID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.countLocked(userID)
}

func (c *Channel) countLocked(userID string) int {
	n := 0
	for sub := range c.subs {
		if sub.owner.UserID == userID {
			n++
		}
	}
	return n
}

func (c *Channel) remove(s *Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.subs[s]; ok {
		delete(c.subs, s)
		close(s.ch)
	}
}
