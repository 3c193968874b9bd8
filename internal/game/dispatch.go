package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/playperu/wattquiz/internal/wattquiz"
)

var (
	// ErrPollTimeout is returned when no update arrived within the poll
	// timeout. Clients are expected to poll again right away.
	ErrPollTimeout = errors.New("poll timeout")

	// ErrSuperseded is returned to a waiting poll when the same player
	// registers a newer one.
	ErrSuperseded = errors.New("poll superseded")
)

// Broker is an in-process pub/sub for encoded updates, keyed by game ID.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives envelope-encoded updates for
// the given game.
func (b *Broker) Subscribe(topic string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[chan []byte]struct{})
	}
	b.subs[topic][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the game's subscribers.
func (b *Broker) Unsubscribe(topic string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[topic], ch)
	if len(b.subs[topic]) == 0 {
		delete(b.subs, topic)
	}
	b.mu.Unlock()
}

// Publish sends u to all subscribers of the given game.
func (b *Broker) Publish(topic string, u wattquiz.Update) error {
	data, err := wattquiz.EncodeUpdate(u)
	if err != nil {
		return err
	}
	b.mu.RLock()
	for ch := range b.subs[topic] {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
	return nil
}

// slotBacklog bounds the updates a slot keeps while no poll is waiting.
const slotBacklog = 64

type delivery struct {
	update wattquiz.Update
	err    error
}

// Slot is a player's long-poll mailbox: at most one waiting poll, plus a
// bounded backlog of updates produced between polls. Once closed, polls
// drain the backlog and then receive the terminal GameFinished sentinel.
type Slot struct {
	mu      sync.Mutex
	waiter  chan delivery
	backlog []wattquiz.Update
	closed  bool
}

func newSlot() *Slot {
	return &Slot{}
}

// Deliver hands u to the waiting poll, or queues it. When the backlog is
// full the oldest update is discarded.
func (s *Slot) Deliver(u wattquiz.Update) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if s.waiter != nil {
		s.waiter <- delivery{update: u}
		s.waiter = nil
		return
	}
	if len(s.backlog) == slotBacklog {
		s.backlog = s.backlog[1:]
	}
	s.backlog = append(s.backlog, u)
}

// Wait returns the next update. It supersedes any poll already waiting on
// the slot and gives up with ErrPollTimeout after timeout.
func (s *Slot) Wait(ctx context.Context, timeout time.Duration) (wattquiz.Update, error) {
	s.mu.Lock()
	if len(s.backlog) > 0 {
		u := s.backlog[0]
		s.backlog = s.backlog[1:]
		s.mu.Unlock()
		return u, nil
	}
	if s.closed {
		s.mu.Unlock()
		return wattquiz.GameFinished{}, nil
	}
	if s.waiter != nil {
		s.waiter <- delivery{err: ErrSuperseded}
	}
	ch := make(chan delivery, 1)
	s.waiter = ch
	s.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var err error
	select {
	case d := <-ch:
		return d.update, d.err
	case <-timer.C:
		err = ErrPollTimeout
	case <-ctx.Done():
		err = ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.waiter == ch {
		s.waiter = nil
		return nil, err
	}
	// A delivery raced the timeout and is already buffered.
	d := <-ch
	return d.update, d.err
}

// Close resolves the waiting poll with the sentinel and rejects further
// deliveries. Queued updates stay readable.
func (s *Slot) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.close()
}

// Discard is Close without the backlog: every later poll gets the sentinel.
func (s *Slot) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backlog = nil
	s.close()
}

func (s *Slot) close() {
	if s.closed {
		return
	}
	s.closed = true
	// A waiting poll implies an empty backlog.
	if s.waiter != nil {
		s.waiter <- delivery{update: wattquiz.GameFinished{}}
		s.waiter = nil
	}
}
