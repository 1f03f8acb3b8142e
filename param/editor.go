package param

import (
	"fmt"
	"strconv"
	"strings"
)

// Editor is a transient edit session over one Param. Stepping wraps at the
// domain boundary: past Max continues at Min and below Min continues at Max.
// Nothing is written until Commit, unless the session is live.
type Editor struct {
	p     Param
	value float64
	min   float64
	max   float64
	step  float64
	live  bool
}

// NewEditor starts a session from the param's current value. A live editor
// writes through on every step.
func NewEditor(p Param, live bool) *Editor {
	e := &Editor{p: p, live: live, step: 1}
	switch p := p.(type) {
	case NumericParam[uint8]:
		e.value, e.min, e.max, e.step = float64(p.Read()), float64(p.Min), float64(p.Max), float64(p.Step)
	case NumericParam[uint16]:
		e.value, e.min, e.max, e.step = float64(p.Read()), float64(p.Min), float64(p.Max), float64(p.Step)
	case NumericParam[float32]:
		e.value, e.min, e.max, e.step = float64(p.Read()), float64(p.Min), float64(p.Max), float64(p.Step)
	case BoolParam:
		e.max = 1
		if p.Read() {
			e.value = 1
		}
	case EnumParam:
		e.max = float64(len(p.Labels) - 1)
		e.value = float64(ClampIndex(p.Read(), len(p.Labels)))
	}
	if e.step <= 0 {
		e.step = 1
	}
	return e
}

func (e *Editor) Param() Param { return e.p }

func (e *Editor) Value() float64 { return e.value }

// Step moves the working value by n steps, wrapping per step.
func (e *Editor) Step(n int) {
	dir := 1
	if n < 0 {
		dir, n = -1, -n
	}
	for ; n > 0; n-- {
		e.value += e.step * float64(dir)
		if e.value > e.max {
			e.value = e.min
		} else if e.value < e.min {
			e.value = e.max
		}
	}
	if e.live {
		e.Commit()
	}
}

// Text renders the working value.
func (e *Editor) Text() string {
	return formatValue(e.p, e.value)
}

// Commit writes the working value and reloads it from the accessor's answer.
func (e *Editor) Commit() {
	switch p := e.p.(type) {
	case NumericParam[uint8]:
		e.value = float64(p.Write(fromFloat[uint8](e.value)))
	case NumericParam[uint16]:
		e.value = float64(p.Write(fromFloat[uint16](e.value)))
	case NumericParam[float32]:
		e.value = float64(p.Write(fromFloat[float32](e.value)))
	case BoolParam:
		if p.Write(e.value != 0) {
			e.value = 1
		} else {
			e.value = 0
		}
	case EnumParam:
		e.value = float64(p.Write(int(e.value)))
	}
}

// Cancel leaves the session. A Bool param falls back to its off state; other
// kinds keep the last written value.
func (e *Editor) Cancel() {
	if p, ok := e.p.(BoolParam); ok {
		p.Write(false)
		e.value = 0
	}
}

// Format renders the current value of p with its unit or label.
func Format(p Param) string {
	switch p := p.(type) {
	case NumericParam[uint8]:
		return formatValue(p, float64(p.Read()))
	case NumericParam[uint16]:
		return formatValue(p, float64(p.Read()))
	case NumericParam[float32]:
		return formatValue(p, float64(p.Read()))
	case BoolParam:
		return p.Label(p.Read())
	case EnumParam:
		return p.Label(p.Read())
	}
	return ""
}

func formatValue(p Param, v float64) string {
	withUnit := func(s, unit string) string {
		if unit == "" {
			return s
		}
		return s + " " + unit
	}
	switch p := p.(type) {
	case NumericParam[uint8]:
		return withUnit(strconv.FormatFloat(v, 'f', 0, 64), p.Unit)
	case NumericParam[uint16]:
		return withUnit(strconv.FormatFloat(v, 'f', 0, 64), p.Unit)
	case NumericParam[float32]:
		return withUnit(strconv.FormatFloat(v, 'f', 1, 64), p.Unit)
	case BoolParam:
		return p.Label(v != 0)
	case EnumParam:
		return p.Label(int(v))
	}
	return ""
}

// Info is a read-only view of a param for API consumers.
type Info struct {
	Kind   Kind     `json:"kind"`
	Value  any      `json:"value"`
	Text   string   `json:"text"`
	Min    float64  `json:"min"`
	Max    float64  `json:"max"`
	Step   float64  `json:"step,omitempty"`
	Unit   string   `json:"unit,omitempty"`
	Labels []string `json:"labels,omitempty"`
}

func Describe(p Param) Info {
	info := Info{Kind: p.Kind(), Text: Format(p)}
	switch p := p.(type) {
	case NumericParam[uint8]:
		info.Value, info.Min, info.Max, info.Step, info.Unit = p.Read(), float64(p.Min), float64(p.Max), float64(p.Step), p.Unit
	case NumericParam[uint16]:
		info.Value, info.Min, info.Max, info.Step, info.Unit = p.Read(), float64(p.Min), float64(p.Max), float64(p.Step), p.Unit
	case NumericParam[float32]:
		info.Value, info.Min, info.Max, info.Step, info.Unit = p.Read(), float64(p.Min), float64(p.Max), float64(p.Step), p.Unit
	case BoolParam:
		info.Value, info.Max, info.Labels = p.Read(), 1, []string{p.Off, p.On}
	case EnumParam:
		info.Value, info.Max, info.Labels = p.Read(), float64(len(p.Labels)-1), p.Labels
	}
	return info
}

// Assign writes a loosely typed value, as decoded from JSON or a form field,
// through p. Numbers may arrive as float64 or numeric strings; Bool accepts
// bool, its labels or on/off/true/false; Enum accepts an index or a label.
// Range problems are clamped, only unusable input is an error.
func Assign(p Param, v any) (Info, error) {
	switch p := p.(type) {
	case NumericParam[uint8]:
		f, err := toFloat(v)
		if err != nil {
			return Info{}, err
		}
		p.Write(fromFloat[uint8](clampFloat(f, float64(p.Min), float64(p.Max))))
	case NumericParam[uint16]:
		f, err := toFloat(v)
		if err != nil {
			return Info{}, err
		}
		p.Write(fromFloat[uint16](clampFloat(f, float64(p.Min), float64(p.Max))))
	case NumericParam[float32]:
		f, err := toFloat(v)
		if err != nil {
			return Info{}, err
		}
		p.Write(fromFloat[float32](clampFloat(f, float64(p.Min), float64(p.Max))))
	case BoolParam:
		b, err := toBool(p, v)
		if err != nil {
			return Info{}, err
		}
		p.Write(b)
	case EnumParam:
		if len(p.Labels) == 0 {
			return Info{}, ErrNoLabels
		}
		if s, ok := v.(string); ok {
			if i, found := p.Index(s); found {
				p.Write(i)
				break
			}
		}
		f, err := toFloat(v)
		if err != nil {
			return Info{}, err
		}
		p.Write(int(clampFloat(f, -1, float64(len(p.Labels)))))
	default:
		return Info{}, ErrType
	}
	return Describe(p), nil
}

// clampFloat keeps huge inputs from overflowing the integer conversion.
func clampFloat(f, lo, hi float64) float64 {
	if f != f || f < lo {
		return lo
	}
	if f > hi {
		return hi
	}
	return f
}

func toFloat(v any) (float64, error) {
	switch v := v.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrType, v)
		}
		return f, nil
	}
	return 0, fmt.Errorf("%w: %T", ErrType, v)
}

func toBool(p BoolParam, v any) (bool, error) {
	switch v := v.(type) {
	case bool:
		return v, nil
	case float64:
		return v != 0, nil
	case string:
		switch {
		case strings.EqualFold(v, p.On), strings.EqualFold(v, "on"), strings.EqualFold(v, "true"), v == "1":
			return true, nil
		case strings.EqualFold(v, p.Off), strings.EqualFold(v, "off"), strings.EqualFold(v, "false"), v == "0":
			return false, nil
		}
		return false, fmt.Errorf("%w: %q", ErrType, v)
	}
	return false, fmt.Errorf("%w: %T", ErrType, v)
}
