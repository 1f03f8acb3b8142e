// Package bus is the synchronous fan-out used by every producer in the
// greenhouse core.
//
// Subscriptions are made once while the system is assembled and are never
// removed. Publish calls subscribers in the order they subscribed, on the
// publisher's goroutine, before it returns.
package bus

import "log/slog"

// Feed delivers events of type E to its subscribers. The zero value is ready
// to use.
type Feed[E any] struct {
	// Name only shows up in log lines.
	Name string

	subs    []func(E)
	sending bool
}

// Subscribe appends fn to the delivery list.
func (f *Feed[E]) Subscribe(fn func(E)) {
	if fn == nil {
		return
	}
	f.subs = append(f.subs, fn)
}

// Publish delivers e to every subscriber. A subscriber may publish on other
// feeds, but a publish on this feed from inside its own delivery is dropped:
// that chain would never terminate.
func (f *Feed[E]) Publish(e E) {
	if f.sending {
		slog.Warn("dropping re-entrant publish", "feed", f.Name)
		return
	}
	f.sending = true
	defer func() { f.sending = false }()

	for _, fn := range f.subs {
		fn(e)
	}
}

// Len reports the number of subscribers.
func (f *Feed[E]) Len() int {
	return len(f.subs)
}
