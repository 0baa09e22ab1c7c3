package events

import "github.com/kelindar/event"

// SubscribeToChannel forwards events of type T to ch, for handlers that
// consume events in a select loop such as SSE streams. The returned
// function unsubscribes.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- any) func() {
	return SubscribeToChannelFunc[T](bus, ch, nil)
}

// SubscribeToChannelFunc is SubscribeToChannel with a filter: only events
// for which keep returns true are forwarded. A nil keep forwards all.
// Events are dropped while ch is full, so a slow reader never holds up
// the bus.
func SubscribeToChannelFunc[T Event](bus *Bus, ch chan<- any, keep func(T) bool) func() {
	if bus == nil {
		return func() {}
	}
	return event.Subscribe(bus.dispatcher, func(e T) {
		if keep != nil && !keep(e) {
			return
		}
		select {
		case ch <- e:
		default:
		}
	})
}

// SubscribeToChannelBlocking forwards every event of type T to ch, waiting
// for room instead of dropping. Forwarding gives up once done is closed;
// close done before the reader stops reading ch.
func SubscribeToChannelBlocking[T Event](bus *Bus, ch chan<- any, done <-chan struct{}) func() {
	if bus == nil {
		return func() {}
	}
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		case <-done:
		}
	})
}
