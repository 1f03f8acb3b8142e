package store

import (
	"context"
	"log/slog"
	"time"

	"furitingoasis/greenhouse/relays"
	"furitingoasis/greenhouse/sensors"
)

// ClearEvery is how often the climate table is emptied.
const ClearEvery = 48 * time.Hour

type record struct {
	at      time.Time
	climate *sensors.ClimateEvent
	relays  *relays.State
}

// Recorder subscribes to the climate and relay feeds and writes them from
// its own goroutine, so the poll tick never waits on the disk. Events that
// arrive while the buffer is full are dropped.
type Recorder struct {
	store   *Store
	now     func() time.Time
	pending chan record
}

func NewRecorder(s *Store, buffer int) *Recorder {
	if buffer <= 0 {
		buffer = 64
	}
	return &Recorder{store: s, now: time.Now, pending: make(chan record, buffer)}
}

func (r *Recorder) OnClimate(e sensors.ClimateEvent) {
	r.enqueue(record{at: r.now(), climate: &e})
}

func (r *Recorder) OnRelays(s relays.State) {
	r.enqueue(record{at: r.now(), relays: &s})
}

func (r *Recorder) enqueue(rec record) {
	select {
	case r.pending <- rec:
	default:
		slog.Warn("history buffer full, record dropped")
	}
}

// Run writes queued records until ctx is done, clearing the climate table
// every ClearEvery.
func (r *Recorder) Run(ctx context.Context) {
	purge := time.NewTicker(ClearEvery)
	defer purge.Stop()
	for {
		select {
		case <-ctx.Done():
			r.drain()
			return
		case rec := <-r.pending:
			r.write(rec)
		case <-purge.C:
			if err := r.store.ClearClimate(ctx); err != nil {
				slog.Error("clearing climate history failed", "error", err)
				continue
			}
			slog.Info("climate history cleared")
		}
	}
}

func (r *Recorder) drain() {
	for {
		select {
		case rec := <-r.pending:
			r.write(rec)
		default:
			return
		}
	}
}

// write outlives the Run context so a shutdown still flushes the buffer.
func (r *Recorder) write(rec record) {
	ctx := context.Background()
	var err error
	switch {
	case rec.climate != nil:
		err = r.store.InsertClimate(ctx, *rec.climate, rec.at)
	case rec.relays != nil:
		err = r.store.InsertRelays(ctx, *rec.relays, rec.at)
	}
	if err != nil {
		slog.Error("history write failed", "error", err)
	}
}
