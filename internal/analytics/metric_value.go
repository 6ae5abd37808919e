package analytics

import (
	"math"
	"reflect"
	"strconv"
	"strings"
)

// ValueKind tags the variant held by a MetricValue.
type ValueKind int

const (
	KindInvalid ValueKind = iota
	KindNumber
	KindInfinite
)

func (k ValueKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindInfinite:
		return "infinite"
	default:
		return "invalid"
	}
}

// MetricValue is a rankable metric value: a finite-or-negative-infinite number,
// positive infinity, or invalid. The zero value is invalid.
type MetricValue struct {
	kind   ValueKind
	number float64
}

// Number wraps a numeric value. +Inf becomes Infinite and NaN becomes Invalid.
func Number(v float64) MetricValue {
	switch {
	case math.IsNaN(v):
		return Invalid()
	case math.IsInf(v, 1):
		return Infinite()
	}
	return MetricValue{kind: KindNumber, number: v}
}

// Infinite is the "growth from zero" sentinel; it orders above every number.
func Infinite() MetricValue {
	return MetricValue{kind: KindInfinite}
}

// Invalid marks a value that cannot take part in ranking.
func Invalid() MetricValue {
	return MetricValue{}
}

func (v MetricValue) Kind() ValueKind { return v.kind }

func (v MetricValue) IsValid() bool { return v.kind != KindInvalid }

// Float64 returns the numeric value, +Inf for Infinite and NaN for Invalid.
func (v MetricValue) Float64() float64 {
	switch v.kind {
	case KindNumber:
		return v.number
	case KindInfinite:
		return math.Inf(1)
	default:
		return math.NaN()
	}
}

// Equal reports whether two valid values are the same. Invalid equals nothing.
func (v MetricValue) Equal(o MetricValue) bool {
	if !v.IsValid() || !o.IsValid() {
		return false
	}
	return v.Float64() == o.Float64()
}

// Less orders valid values ascending, Infinite last.
func (v MetricValue) Less(o MetricValue) bool {
	return v.Float64() < o.Float64()
}

func (v MetricValue) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.number, 'g', -1, 64)
	case KindInfinite:
		return "+Inf"
	default:
		return "invalid"
	}
}

// Coerce converts a raw metric value into a MetricValue. Native integers and
// floats are accepted as-is, strings are parsed as an integer and then as a
// float, and everything else (nil, nil pointers, bools, unparsable strings) is invalid.
func Coerce(raw any) MetricValue {
	switch v := raw.(type) {
	case nil:
		return Invalid()
	case bool:
		return Invalid()
	case MetricValue:
		return v
	case int:
		return Number(float64(v))
	case int64:
		return Number(float64(v))
	case int32:
		return Number(float64(v))
	case uint64:
		return Number(float64(v))
	case uint:
		return Number(float64(v))
	case float64:
		return Number(v)
	case float32:
		return Number(float64(v))
	case string:
		return coerceString(v)
	}

	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return Invalid()
		}
		return Coerce(rv.Elem().Interface())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Number(float64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Number(float64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return Number(rv.Float())
	case reflect.String:
		return coerceString(rv.String())
	}
	return Invalid()
}

func coerceString(s string) MetricValue {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Number(float64(n))
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Number(f)
	}
	return Invalid()
}
