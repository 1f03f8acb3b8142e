// Package param describes tunable values so a generic editor can read and
// write them without knowing who owns them.
//
// A descriptor is process-lifetime data held by the owning subsystem. The
// editor never sees the owner directly: the owner binds its descriptor to
// itself and hands out the resulting Param, one of NumericParam[uint8],
// NumericParam[uint16], NumericParam[float32], BoolParam or EnumParam.
package param

import (
	"errors"
	"fmt"
	"math"
)

type Kind uint8

const (
	KindUInt8 Kind = iota
	KindUInt16
	KindFloat
	KindBool
	KindEnum
)

func (k Kind) String() string {
	switch k {
	case KindUInt8:
		return "uint8"
	case KindUInt16:
		return "uint16"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindEnum:
		return "enum"
	default:
		return "unknown"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	for c := KindUInt8; c <= KindEnum; c++ {
		if c.String() == string(b) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("%w: kind %q", ErrType, b)
}

var (
	ErrType     = errors.New("param: value does not match kind")
	ErrNoLabels = errors.New("param: enum has no labels")

	// ErrUnknownKey is returned by lookups for a key nothing registered.
	ErrUnknownKey = errors.New("param: unknown key")
)

// Number is the set of numeric representations a descriptor can carry.
type Number interface {
	uint8 | uint16 | float32
}

// Accessor is the single read/write entry point of a tunable. A nil v is a
// pure read; a non-nil v applies *v and returns the resulting value.
type Accessor[O any, T any] func(owner O, v *T) T

// Range is the closed numeric domain of a tunable plus its display unit.
type Range[T Number] struct {
	Min  T
	Max  T
	Step T
	Unit string
}

// Numeric describes a UInt8, UInt16 or Float tunable owned by O.
type Numeric[O any, T Number] struct {
	Access Accessor[O, T]
	Range[T]
}

// Bind routes the descriptor to one owner instance.
func (d *Numeric[O, T]) Bind(owner O) NumericParam[T] {
	access := d.Access
	return NumericParam[T]{
		access: func(v *T) T { return access(owner, v) },
		Range:  d.Range,
	}
}

// Toggle describes a Bool tunable. On and Off are the labels shown for the
// two states.
type Toggle[O any] struct {
	Access Accessor[O, bool]
	On     string
	Off    string
}

func (d *Toggle[O]) Bind(owner O) BoolParam {
	access := d.Access
	return BoolParam{
		access: func(v *bool) bool { return access(owner, v) },
		On:     d.On,
		Off:    d.Off,
	}
}

// Choice describes an Enum tunable. Values are indices into Labels.
type Choice[O any] struct {
	Access Accessor[O, int]
	Labels []string
}

func (d *Choice[O]) Bind(owner O) EnumParam {
	access := d.Access
	return EnumParam{
		access: func(v *int) int { return access(owner, v) },
		Labels: d.Labels,
	}
}

// Param is a descriptor bound to its owner.
type Param interface {
	Kind() Kind
	isParam()
}

type NumericParam[T Number] struct {
	access func(*T) T
	Range[T]
}

func (p NumericParam[T]) Kind() Kind {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return KindUInt8
	case uint16:
		return KindUInt16
	default:
		return KindFloat
	}
}

func (NumericParam[T]) isParam() {}

func (p NumericParam[T]) Read() T {
	return p.access(nil)
}

// Write clamps v into [Min, Max] and applies it. The applied value is
// returned.
func (p NumericParam[T]) Write(v T) T {
	v = Clamp(v, p.Min, p.Max)
	return p.access(&v)
}

type BoolParam struct {
	access func(*bool) bool
	On     string
	Off    string
}

func (BoolParam) Kind() Kind { return KindBool }
func (BoolParam) isParam()   {}

func (p BoolParam) Read() bool {
	return p.access(nil)
}

func (p BoolParam) Write(v bool) bool {
	return p.access(&v)
}

func (p BoolParam) Label(v bool) string {
	if v {
		return p.On
	}
	return p.Off
}

type EnumParam struct {
	access func(*int) int
	Labels []string
}

func (EnumParam) Kind() Kind { return KindEnum }
func (EnumParam) isParam()   {}

func (p EnumParam) Read() int {
	return p.access(nil)
}

// Write clamps i to a valid label index and applies it.
func (p EnumParam) Write(i int) int {
	i = ClampIndex(i, len(p.Labels))
	return p.access(&i)
}

// Label returns the label for index i, or "" when i is out of range.
func (p EnumParam) Label(i int) string {
	if i < 0 || i >= len(p.Labels) {
		return ""
	}
	return p.Labels[i]
}

// Index finds the label's index.
func (p EnumParam) Index(label string) (int, bool) {
	for i, l := range p.Labels {
		if l == label {
			return i, true
		}
	}
	return 0, false
}

// Clamp limits v to [lo, hi]. A NaN float clamps to lo.
func Clamp[T Number](v, lo, hi T) T {
	if v != v {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampIndex limits i to [0, n-1]. With n == 0 it returns 0.
func ClampIndex(i, n int) int {
	if n <= 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// fromFloat converts an editor value back to T, rounding for integer kinds.
func fromFloat[T Number](f float64) T {
	var zero T
	if _, ok := any(zero).(float32); ok {
		return T(f)
	}
	if f < 0 {
		return 0
	}
	r := math.Round(f)
	if r > float64(math.MaxUint16) {
		r = math.MaxUint16
	}
	switch any(zero).(type) {
	case uint8:
		if r > math.MaxUint8 {
			r = math.MaxUint8
		}
	}
	return T(r)
}
