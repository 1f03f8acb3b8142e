package sensors

import (
	"log/slog"
	"strconv"

	"furitingoasis/greenhouse/bus"
	"furitingoasis/greenhouse/param"
)

// Moisture is an ordered soil state. The value of each band is the scaled
// reading at which it begins, so bands compare with the usual operators.
type Moisture uint16

const (
	Uninitialized Moisture = 0
	ExtremelyWet  Moisture = 210
	WetSoil       Moisture = 250
	MoistSoil     Moisture = 290
	DrySoil       Moisture = 330
	ExtremelyDry  Moisture = 370
)

// Bands lists the moisture states from wettest to driest.
var Bands = []Moisture{ExtremelyWet, WetSoil, MoistSoil, DrySoil, ExtremelyDry}

func (m Moisture) String() string {
	switch m {
	case Uninitialized:
		return "uninitialized"
	case ExtremelyWet:
		return "extremely-wet"
	case WetSoil:
		return "wet"
	case MoistSoil:
		return "moist"
	case DrySoil:
		return "dry"
	case ExtremelyDry:
		return "extremely-dry"
	}
	return "moisture(" + strconv.Itoa(int(m)) + ")"
}

func (m Moisture) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Band returns the position of m in Bands, or -1.
func (m Moisture) Band() int {
	for i, b := range Bands {
		if b == m {
			return i
		}
	}
	return -1
}

// MoistureLabels returns the band names in Bands order.
func MoistureLabels() []string {
	labels := make([]string, len(Bands))
	for i, b := range Bands {
		labels[i] = b.String()
	}
	return labels
}

// Classify moves prev at most one band toward the scaled reading v. A move
// needs v beyond the neighbouring band edge by more than hys. From
// Uninitialized the reading maps straight onto its band.
func Classify(prev Moisture, v, hys int) Moisture {
	i := prev.Band()
	if i < 0 {
		state := ExtremelyWet
		for _, b := range Bands {
			if v >= int(b) {
				state = b
			}
		}
		return state
	}
	if i+1 < len(Bands) && v > int(Bands[i+1])+hys {
		return Bands[i+1]
	}
	if i > 0 && v < int(prev)-hys {
		return Bands[i-1]
	}
	return prev
}

type SoilEvent struct {
	ID    int      `json:"id"`
	State Moisture `json:"state"`
	Value int      `json:"value"`
}

type SoilSubscriber interface {
	OnSoil(SoilEvent)
}

const (
	soilFullScale  = 500
	soilHysteresis = 20
)

// Soil classifies one capacitive probe.
type Soil struct {
	schedule
	id         int
	reader     Analog
	steps      int
	hysteresis uint8

	state Moisture
	value int

	feed bus.Feed[SoilEvent]
}

// NewSoil builds probe id reading from r, where steps is the ADC count at
// full scale.
func NewSoil(id int, r Analog, steps int, now Clock) *Soil {
	s := &Soil{
		schedule:   newSchedule(now),
		id:         id,
		reader:     r,
		steps:      steps,
		hysteresis: soilHysteresis,
	}
	s.feed.Name = "soil " + strconv.Itoa(id)
	return s
}

func (s *Soil) Subscribe(sub SoilSubscriber) {
	s.feed.Subscribe(sub.OnSoil)
}

func (s *Soil) Update() {
	now, ok := s.due()
	if !ok {
		return
	}
	s.mark(now)

	raw, err := s.reader.Read()
	if err != nil {
		slog.Error("soil read failed", "sensor", s.id, "error", err)
		return
	}
	s.value = scale(raw, s.steps, soilFullScale)

	next := Classify(s.state, s.value, int(s.hysteresis))
	if next == s.state {
		return
	}
	slog.Debug("soil state changed", "sensor", s.id, "from", s.state, "to", next, "value", s.value)
	s.state = next
	s.feed.Publish(SoilEvent{ID: s.id, State: s.state, Value: s.value})
}

func (s *Soil) ID() int { return s.id }

func (s *Soil) State() Moisture { return s.state }

// Value is the last scaled reading.
func (s *Soil) Value() int { return s.value }

var soilHysteresisDesc = param.Numeric[*Soil, uint8]{
	Access: func(s *Soil, v *uint8) uint8 {
		if v != nil {
			s.hysteresis = *v
		}
		return s.hysteresis
	},
	Range: param.Range[uint8]{Min: 0, Max: 40, Step: 1},
}

func (s *Soil) HysteresisParam() param.NumericParam[uint8] {
	return soilHysteresisDesc.Bind(s)
}

func (s *Soil) DelayParam() param.NumericParam[uint16] {
	return readDelayDesc.Bind(&s.schedule)
}
