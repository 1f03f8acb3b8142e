package sensors

import (
	"errors"
	"testing"
)

type fakeClock struct{ ms uint64 }

func (c *fakeClock) Now() uint64 { return c.ms }

type fakeAnalog struct {
	raw []int
	err error
	n   int
}

func (a *fakeAnalog) Read() (int, error) {
	if a.err != nil {
		return 0, a.err
	}
	v := a.raw[a.n]
	if a.n < len(a.raw)-1 {
		a.n++
	}
	return v, nil
}

type soilRecorder struct{ events []SoilEvent }

func (r *soilRecorder) OnSoil(e SoilEvent) { r.events = append(r.events, e) }

func TestClassifyFromUninitialized(t *testing.T) {
	tests := []struct {
		v    int
		want Moisture
	}{
		{0, ExtremelyWet},
		{249, ExtremelyWet},
		{250, WetSoil},
		{300, MoistSoil},
		{330, DrySoil},
		{499, ExtremelyDry},
	}
	for _, tc := range tests {
		if got := Classify(Uninitialized, tc.v, 20); got != tc.want {
			t.Errorf("Classify(uninit, %d): expected %s, got %s", tc.v, tc.want, got)
		}
	}
}

func TestClassifyHysteresis(t *testing.T) {
	tests := []struct {
		name string
		prev Moisture
		v    int
		want Moisture
	}{
		{"inside margin above", WetSoil, 309, WetSoil},
		{"at margin above", WetSoil, 310, WetSoil},
		{"past margin above", WetSoil, 311, MoistSoil},
		{"one band per read", WetSoil, 499, MoistSoil},
		{"inside margin below", MoistSoil, 271, MoistSoil},
		{"at margin below", MoistSoil, 270, MoistSoil},
		{"past margin below", MoistSoil, 269, WetSoil},
		{"driest stays", ExtremelyDry, 499, ExtremelyDry},
		{"wettest stays", ExtremelyWet, 0, ExtremelyWet},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.prev, tc.v, 20); got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestClassifyBoundaryNeverOscillates(t *testing.T) {
	for _, hys := range []int{0, 5, 20} {
		for _, b := range Bands {
			state := Classify(Uninitialized, int(b), hys)
			for i := 0; i < 10; i++ {
				next := Classify(state, int(b), hys)
				if next != state {
					t.Fatalf("hys %d, reading %d: state moved %s -> %s", hys, b, state, next)
				}
			}
		}
	}
}

func TestSoilPublishesOnChange(t *testing.T) {
	clock := &fakeClock{}
	// 1023 steps full scale, 500 after scaling.
	adc := &fakeAnalog{raw: []int{700, 700, 400}}
	s := NewSoil(1, adc, 1023, clock.Now)
	rec := &soilRecorder{}
	s.Subscribe(rec)

	s.Update()
	if len(rec.events) != 1 || rec.events[0].State != DrySoil || rec.events[0].ID != 1 {
		t.Fatalf("expected one dry event, got %+v", rec.events)
	}

	clock.ms += 500
	s.Update()
	if adc.n != 1 {
		t.Fatalf("expected read to wait for delay, reads %d", adc.n)
	}

	clock.ms += 2000
	s.Update()
	if len(rec.events) != 1 {
		t.Fatalf("expected no event for unchanged state, got %d", len(rec.events))
	}

	clock.ms += 2000
	s.Update()
	if len(rec.events) != 2 || rec.events[1].State != MoistSoil {
		t.Fatalf("expected moist event, got %+v", rec.events)
	}
}

func TestSoilReadErrorKeepsState(t *testing.T) {
	clock := &fakeClock{}
	s := NewSoil(0, &fakeAnalog{err: errors.New("bus down")}, 1023, clock.Now)
	rec := &soilRecorder{}
	s.Subscribe(rec)

	s.Update()
	if s.State() != Uninitialized || len(rec.events) != 0 {
		t.Errorf("expected no change on read error, got %s and %d events", s.State(), len(rec.events))
	}
}

func TestSoilParams(t *testing.T) {
	s := NewSoil(2, &fakeAnalog{raw: []int{0}}, 1023, (&fakeClock{}).Now)

	if got := s.HysteresisParam().Write(90); got != 40 {
		t.Errorf("expected hysteresis clamp to 40, got %d", got)
	}
	if got := s.DelayParam().Write(10); got != 100 {
		t.Errorf("expected delay clamp to 100, got %d", got)
	}
	if s.DelayParam().Read() != 100 {
		t.Errorf("expected delay stored on the sensor")
	}
}

type climateReader struct {
	temp, hum []float32
	n         int
}

func (r *climateReader) ReadClimate() (float32, float32, error) {
	t, h := r.temp[r.n], r.hum[r.n]
	if r.n < len(r.temp)-1 {
		r.n++
	}
	return t, h, nil
}

type climateRecorder struct{ events []ClimateEvent }

func (r *climateRecorder) OnClimate(e ClimateEvent) { r.events = append(r.events, e) }

func TestClimateChangeDetection(t *testing.T) {
	clock := &fakeClock{}
	c := NewClimate(Outside, &climateReader{
		temp: []float32{20, 20, 20},
		hum:  []float32{50, 50, 51},
	}, clock.Now)
	rec := &climateRecorder{}
	c.Subscribe(rec)

	for i := 0; i < 3; i++ {
		c.Update()
		clock.ms += 2000
	}

	if len(rec.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(rec.events))
	}
	if rec.events[1].Humidity != 51 || rec.events[1].Place != Outside {
		t.Errorf("unexpected event %+v", rec.events[1])
	}
}

type levelRecorder struct{ events []LevelEvent }

func (r *levelRecorder) OnLevel(e LevelEvent) { r.events = append(r.events, e) }

type percent uint8

func (p percent) ReadPercent() (uint8, error) { return uint8(p), nil }

func TestLevels(t *testing.T) {
	clock := &fakeClock{}
	light := NewLight(&fakeAnalog{raw: []int{512, 1023}}, 1023, clock.Now)
	water := NewWater(percent(15), clock.Now)
	rec := &levelRecorder{}
	light.Subscribe(rec)
	water.Subscribe(rec)

	light.Update()
	water.Update()
	clock.ms += 2000
	light.Update()
	water.Update()

	want := []LevelEvent{
		{Kind: LightLevel, Level: 50},
		{Kind: WaterLevel, Level: 15},
		{Kind: LightLevel, Level: 100},
	}
	if len(rec.events) != len(want) {
		t.Fatalf("expected %d events, got %+v", len(want), rec.events)
	}
	for i := range want {
		if rec.events[i] != want[i] {
			t.Errorf("event %d: expected %+v, got %+v", i, want[i], rec.events[i])
		}
	}
}

func TestMoistureLabels(t *testing.T) {
	labels := MoistureLabels()
	if len(labels) != 5 || labels[0] != "extremely-wet" || labels[3] != "dry" {
		t.Errorf("unexpected labels %v", labels)
	}
}
