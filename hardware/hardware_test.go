package hardware

import (
	"bytes"
	"errors"
	"testing"
)

func pads(n int, wet byte) ([8]byte, [12]byte) {
	var low [8]byte
	var high [12]byte
	for i := 0; i < n; i++ {
		if i < 8 {
			low[i] = wet
		} else {
			high[i-8] = wet
		}
	}
	return low, high
}

func TestWaterLevel(t *testing.T) {
	tests := []struct {
		name string
		wet  int
		want uint8
	}{
		{"dry", 0, 0},
		{"low chip only", 3, 15},
		{"across chips", 10, 50},
		{"full", 20, 100},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			low, high := pads(tc.wet, 200)
			if got := WaterLevel(low, high); got != tc.want {
				t.Errorf("expected %d%%, got %d%%", tc.want, got)
			}
		})
	}
}

func TestWaterLevelStopsAtGap(t *testing.T) {
	low, high := pads(20, 200)
	low[2] = 100
	if got := WaterLevel(low, high); got != 10 {
		t.Errorf("expected 10%%, got %d%%", got)
	}
}

func TestWaterBoardReads(t *testing.T) {
	low, high := pads(9, 150)
	w := NewWaterBoard(bytes.NewReader(low[:]), bytes.NewReader(high[:]))
	got, err := w.ReadPercent()
	if err != nil {
		t.Fatal(err)
	}
	if got != 45 {
		t.Errorf("expected 45%%, got %d%%", got)
	}

	short := NewWaterBoard(bytes.NewReader(low[:4]), bytes.NewReader(high[:]))
	if _, err := short.ReadPercent(); err == nil {
		t.Error("expected a short read to fail")
	}
}

type fakeSHT struct {
	temp, hum float32
	err       error
}

func (f *fakeSHT) Temperature() (float32, error) { return f.temp, f.err }

func (f *fakeSHT) Humidity() (float32, error) { return f.hum, f.err }

func TestSHT2xOffset(t *testing.T) {
	s := NewSHT2x(&fakeSHT{temp: 21, hum: 80}, -17)
	temp, hum, err := s.ReadClimate()
	if err != nil {
		t.Fatal(err)
	}
	if temp != 21 || hum != 63 {
		t.Errorf("expected 21/63, got %v/%v", temp, hum)
	}

	s = NewSHT2x(&fakeSHT{hum: 10}, -17)
	if _, hum, _ := s.ReadClimate(); hum != 0 {
		t.Errorf("expected humidity clamped to 0, got %v", hum)
	}

	s = NewSHT2x(&fakeSHT{err: errors.New("nack")}, 0)
	if _, _, err := s.ReadClimate(); err == nil {
		t.Error("expected read error")
	}
}

func TestOneWireOffset(t *testing.T) {
	o := &OneWire{Address: "28-01", Offset: 0.5, read: func(string) (float64, error) { return 12, nil }}
	temp, hum, err := o.ReadClimate()
	if err != nil {
		t.Fatal(err)
	}
	if temp != 12.5 || hum != 0 {
		t.Errorf("expected 12.5/0, got %v/%v", temp, hum)
	}
}

type fakeADC struct{ v int }

func (f *fakeADC) AnalogRead(string) (int, error) { return f.v, nil }

func TestChannelClampsNegative(t *testing.T) {
	c := NewChannel(&fakeADC{v: -40}, 0)
	if v, _ := c.Read(); v != 0 {
		t.Errorf("expected 0, got %d", v)
	}
}
