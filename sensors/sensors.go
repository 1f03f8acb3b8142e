// Package sensors holds the producers that turn periodic hardware reads into
// change events: the inside and outside climate pair, three soil moisture
// probes, the ambient light level and the water tank level.
//
// Every producer is polled from the control loop through Update and reads
// its hardware only when its own read delay has passed. A failed read is
// logged and retried after the next delay; there is no other retry.
package sensors

import "furitingoasis/greenhouse/param"

// Clock returns monotonic milliseconds.
type Clock func() uint64

// Analog is a single ADC channel returning raw counts.
type Analog interface {
	Read() (int, error)
}

// schedule gates reads on a per-producer delay in milliseconds.
type schedule struct {
	now   Clock
	delay uint16
	last  uint64
	read  bool
}

const defaultReadDelay = 2000

func newSchedule(now Clock) schedule {
	return schedule{now: now, delay: defaultReadDelay}
}

// due reports whether a read should happen now. The first read is never
// delayed.
func (s *schedule) due() (uint64, bool) {
	now := s.now()
	if s.read && now-s.last < uint64(s.delay) {
		return now, false
	}
	return now, true
}

func (s *schedule) mark(now uint64) {
	s.last = now
	s.read = true
}

var readDelayDesc = param.Numeric[*schedule, uint16]{
	Access: func(s *schedule, v *uint16) uint16 {
		if v != nil {
			s.delay = *v
		}
		return s.delay
	},
	Range: param.Range[uint16]{Min: 100, Max: 60000, Step: 50, Unit: "ms"},
}

// scale maps raw ADC counts onto [0, full].
func scale(raw, steps, full int) int {
	if steps <= 0 || raw <= 0 {
		return 0
	}
	if raw >= steps {
		return full
	}
	return raw * full / steps
}
