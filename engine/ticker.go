// Package engine drives the simulation: a fixed-timestep loop, a periodic
// ticker for lifecycle events and a calendar clock.
package engine

// Subscriber receives ticks.
type Subscriber interface {
	OnTick()
}

// SubscriberFunc adapts a function to Subscriber.
type SubscriberFunc func()

// OnTick calls f.
func (f SubscriberFunc) OnTick() { f() }

// Subscription identifies a subscriber for Unsubscribe.
type Subscription int

type subscription struct {
	id  Subscription
	sub Subscriber
}

// Ticker fires its subscribers, in subscription order, each time the
// accumulated update time reaches the interval.
type Ticker struct {
	interval float64
	elapsed  float64
	ticks    int64
	nextID   Subscription
	subs     []subscription
}

// NewTicker creates a ticker firing every interval seconds.
func NewTicker(interval float64) *Ticker {
	return &Ticker{interval: interval, nextID: 1}
}

// Subscribe adds s to the end of the subscriber list.
func (t *Ticker) Subscribe(s Subscriber) Subscription {
	id := t.nextID
	t.nextID++
	t.subs = append(t.subs, subscription{id: id, sub: s})
	return id
}

// Unsubscribe removes a subscriber. It reports whether it was subscribed.
func (t *Ticker) Unsubscribe(id Subscription) bool {
	for i, s := range t.subs {
		if s.id == id {
			t.subs = append(t.subs[:i], t.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Update accumulates delta seconds. When the interval is reached the
// accumulator resets to zero, dropping any excess, and every subscriber
// is called. It reports whether a tick fired.
func (t *Ticker) Update(delta float64) bool {
	t.elapsed += delta
	if t.elapsed < t.interval {
		return false
	}
	t.elapsed = 0
	t.ticks++
	for _, s := range t.subs {
		s.sub.OnTick()
	}
	return true
}

// Ticks returns how many times the ticker has fired.
func (t *Ticker) Ticks() int64 {
	return t.ticks
}

// Interval returns the tick interval in seconds.
func (t *Ticker) Interval() float64 {
	return t.interval
}

// Len returns the number of subscribers.
func (t *Ticker) Len() int {
	return len(t.subs)
}
