package farm

import (
	"testing"

	"furitingoasis/greenhouse/relays"
	"furitingoasis/greenhouse/sensors"
)

type fakeActuators struct {
	direction relays.Direction
	commands  []relays.Direction
	heater    bool
	light     bool
	pump      bool
}

func (a *fakeActuators) Direction() relays.Direction { return a.direction }

func (a *fakeActuators) Command(d relays.Direction) {
	a.commands = append(a.commands, d)
	a.direction = d
}

func (a *fakeActuators) Heater() bool { return a.heater }

func (a *fakeActuators) SetHeater(on bool) { a.heater = on }

func (a *fakeActuators) Light() bool { return a.light }

func (a *fakeActuators) SetLight(on bool) { a.light = on }

func (a *fakeActuators) Pump() bool { return a.pump }

func (a *fakeActuators) SetPump(on bool) { a.pump = on }

type lamp struct{ on bool }

func (l *lamp) Set(on bool) { l.on = on }

type harness struct {
	ms               uint64
	act              *fakeActuators
	red, green, blue *lamp
	p                *Processor
}

func newHarness() *harness {
	h := &harness{
		act:   &fakeActuators{direction: relays.FinishedClose},
		red:   &lamp{},
		green: &lamp{},
		blue:  &lamp{},
	}
	h.p = NewProcessor(h.act, Indicators{Red: h.red, Green: h.green, Blue: h.blue}, func() uint64 { return h.ms })
	return h
}

func (h *harness) inside(temp, hum float32) {
	h.p.OnClimate(sensors.ClimateEvent{Place: sensors.Inside, Temperature: temp, Humidity: hum})
	h.p.Update()
}

func (h *harness) soil(states ...sensors.Moisture) {
	for i, s := range states {
		h.p.OnSoil(sensors.SoilEvent{ID: i, State: s})
	}
}

func TestHeaterHysteresisScenario(t *testing.T) {
	h := newHarness()

	steps := []struct {
		temp float32
		want bool
	}{
		{21.5, true},
		{23.9, true},
		{26.1, false},
		{24.0, false},
		{22.0, false},
		{21.9, true},
	}
	for _, s := range steps {
		h.inside(s.temp, 50)
		if h.act.heater != s.want {
			t.Fatalf("at %.1f C: expected heater %v, got %v", s.temp, s.want, h.act.heater)
		}
		if h.red.on != s.want {
			t.Fatalf("at %.1f C: expected red lamp to follow heater", s.temp)
		}
	}
}

func TestClimateEveryTick(t *testing.T) {
	h := newHarness()
	h.inside(20, 50)
	if !h.act.heater {
		t.Fatal("expected heater on")
	}

	h.act.heater = false
	h.p.Update()
	if !h.act.heater {
		t.Error("expected the heater re-derived from the last sample")
	}

	h.p.TempSetpointParam().Write(17)
	h.p.Update()
	if h.act.heater {
		t.Error("expected a lower setpoint to switch the heater off")
	}
}

func TestVentOpensOnceClosed(t *testing.T) {
	h := newHarness()
	h.act.direction = relays.Unknown
	h.p.OnClimate(sensors.ClimateEvent{Place: sensors.Outside, Temperature: 24})
	h.inside(24, 80)
	if len(h.act.commands) != 1 || h.act.commands[0] != relays.Close {
		t.Fatalf("expected close with no known end, got %v", h.act.commands)
	}

	h.act.direction = relays.FinishedClose
	for i := 0; i < 3; i++ {
		h.ms += 1000
		h.p.Update()
	}
	want := []relays.Direction{relays.Close, relays.Open}
	if len(h.act.commands) != len(want) || h.act.commands[1] != relays.Open {
		t.Errorf("expected %v on the same humid sample, got %v", want, h.act.commands)
	}
}

func TestVentRules(t *testing.T) {
	tests := []struct {
		name    string
		current relays.Direction
		temp    float32
		hum     float32
		out     float32
		want    []relays.Direction
	}{
		{"unknown closes", relays.Unknown, 24, 50, 24, []relays.Direction{relays.Close}},
		{"open and hot outside closes", relays.FinishedOpen, 25, 50, 30, []relays.Direction{relays.Close}},
		{"open and cold inside closes", relays.Open, 20, 70, 20, []relays.Direction{relays.Close}},
		{"open otherwise stays", relays.FinishedOpen, 24, 70, 24, nil},
		{"closed and humid opens", relays.FinishedClose, 24, 70, 24, []relays.Direction{relays.Open}},
		{"closed and hot inside opens", relays.Close, 27, 50, 23, []relays.Direction{relays.Open}},
		{"closed, cold inside, hot outside opens", relays.FinishedClose, 20, 50, 27, []relays.Direction{relays.Open}},
		{"closed and humid but freezing outside stays", relays.FinishedClose, 24, 70, 5, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness()
			h.act.direction = tc.current
			h.p.OnClimate(sensors.ClimateEvent{Place: sensors.Outside, Temperature: tc.out})
			h.inside(tc.temp, tc.hum)

			if len(h.act.commands) != len(tc.want) {
				t.Fatalf("expected commands %v, got %v", tc.want, h.act.commands)
			}
			for i := range tc.want {
				if h.act.commands[i] != tc.want[i] {
					t.Errorf("expected commands %v, got %v", tc.want, h.act.commands)
				}
			}
		})
	}
}

func TestVentNeedsOutsideSample(t *testing.T) {
	h := newHarness()
	h.act.direction = relays.Unknown
	h.inside(30, 90)
	if len(h.act.commands) != 0 {
		t.Errorf("expected no vent command without outside sample, got %v", h.act.commands)
	}
}

func TestPumpAgreementScenario(t *testing.T) {
	h := newHarness()

	h.soil(sensors.DrySoil, sensors.DrySoil, sensors.MoistSoil)
	if !h.p.Status().PumpEligible || !h.blue.on {
		t.Fatal("expected pump eligible with two dry sensors")
	}
	if !h.act.pump {
		t.Fatal("expected pump running")
	}

	h.ms += 3000
	h.p.OnSoil(sensors.SoilEvent{ID: 0, State: sensors.MoistSoil})
	if h.p.Status().PumpEligible || h.blue.on {
		t.Fatal("expected pump ineligible with one dry sensor")
	}
	if h.act.pump {
		t.Fatal("expected pump forced off mid run phase")
	}
}

func TestPumpCountsEachSensor(t *testing.T) {
	h := newHarness()
	h.p.PumpCountParam().Write(3)

	h.soil(sensors.DrySoil, sensors.MoistSoil, sensors.MoistSoil)
	if h.p.Status().PumpEligible {
		t.Error("expected wet sensors 1 and 2 to count against watering")
	}

	h.soil(sensors.ExtremelyDry, sensors.DrySoil, sensors.DrySoil)
	if !h.p.Status().PumpEligible {
		t.Error("expected all three dry sensors to agree")
	}
}

func TestPumpWaitsForAllSensors(t *testing.T) {
	h := newHarness()
	h.p.PumpCountParam().Write(1)

	h.p.OnSoil(sensors.SoilEvent{ID: 0, State: sensors.ExtremelyDry})
	h.p.OnSoil(sensors.SoilEvent{ID: 1, State: sensors.ExtremelyDry})
	if h.p.Status().PumpEligible || h.act.pump {
		t.Fatal("expected no watering before every sensor reported")
	}

	h.p.OnSoil(sensors.SoilEvent{ID: 2, State: sensors.WetSoil})
	if !h.p.Status().PumpEligible {
		t.Error("expected watering once all sensors reported")
	}
}

func TestPumpSetpointParam(t *testing.T) {
	h := newHarness()
	h.soil(sensors.MoistSoil, sensors.MoistSoil, sensors.WetSoil)
	if h.p.Status().PumpEligible {
		t.Fatal("expected moist soil below the dry setpoint")
	}

	sp := h.p.PumpSetpointParam()
	i, _ := sp.Index("moist")
	sp.Write(i)
	if !h.p.Status().PumpEligible {
		t.Error("expected setpoint change to re-check soil")
	}
}

func TestPumpDutyCycle(t *testing.T) {
	h := newHarness()
	h.p.PumpRunParam().Write(5)
	h.p.PumpIntervalParam().Write(3)
	h.soil(sensors.DrySoil, sensors.DrySoil, sensors.DrySoil)

	checks := []struct {
		at   uint64
		want bool
	}{
		{4999, true},
		{5000, false},
		{7999, false},
		{8000, true},
		{12999, true},
		{13000, false},
	}
	for _, c := range checks {
		h.ms = c.at
		h.p.Update()
		if h.act.pump != c.want {
			t.Fatalf("at %d ms: expected pump %v, got %v", c.at, c.want, h.act.pump)
		}
	}
}

func TestLedMinutes(t *testing.T) {
	h := newHarness()
	h.p.LedRunParam().Write(5)
	h.p.LedIntervalParam().Write(10)

	h.p.OnLevel(sensors.LevelEvent{Kind: sensors.LightLevel, Level: 20})
	if !h.act.light {
		t.Fatal("expected grow light on in the dark")
	}

	h.ms = 5*60*1000 - 1
	h.p.Update()
	if !h.act.light {
		t.Fatal("expected light still on before five minutes")
	}

	h.ms = 5 * 60 * 1000
	h.p.Update()
	if h.act.light {
		t.Fatal("expected light resting after five minutes")
	}

	h.ms = 15 * 60 * 1000
	h.p.Update()
	if !h.act.light {
		t.Fatal("expected light back on after ten minutes of rest")
	}
}

func TestLightHysteresis(t *testing.T) {
	h := newHarness()
	levels := []struct {
		level uint8
		want  bool
	}{
		{50, false},
		{44, true},
		{60, true},
		{66, false},
		{46, false},
	}
	for _, l := range levels {
		h.p.OnLevel(sensors.LevelEvent{Kind: sensors.LightLevel, Level: l.level})
		if got := h.p.Status().LightEligible; got != l.want {
			t.Fatalf("at %d%%: expected eligible %v, got %v", l.level, l.want, got)
		}
		if h.act.light != l.want {
			t.Fatalf("at %d%%: expected light %v, got %v", l.level, l.want, h.act.light)
		}
	}
}

func TestLowWaterLamp(t *testing.T) {
	h := newHarness()
	h.p.OnLevel(sensors.LevelEvent{Kind: sensors.WaterLevel, Level: 15})
	if !h.green.on {
		t.Error("expected green lamp at 15%")
	}
	h.p.OnLevel(sensors.LevelEvent{Kind: sensors.WaterLevel, Level: 20})
	if h.green.on {
		t.Error("expected green lamp off at 20%")
	}
}

func TestParamsClamp(t *testing.T) {
	h := newHarness()
	if got := h.p.TempSetpointParam().Write(80); got != 50 {
		t.Errorf("expected 50, got %v", got)
	}
	if got := h.p.PumpCountParam().Write(9); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
	if got := h.p.LedRunParam().Write(2); got != 5 {
		t.Errorf("expected 5, got %d", got)
	}
	if got := h.p.PumpSetpointParam().Write(12); got != len(sensors.Bands)-1 {
		t.Errorf("expected last band, got %d", got)
	}
}
