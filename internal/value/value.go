package value

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// Kind discriminates the literal types a Value can carry.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindInt64
	KindDouble
	KindString
	KindDate
	KindTimestamp
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "BOOL"
	case KindInt64:
		return "INT64"
	case KindDouble:
		return "DOUBLE"
	case KindString:
		return "STRING"
	case KindDate:
		return "DATE"
	case KindTimestamp:
		return "TIMESTAMP"
	default:
		return "INVALID"
	}
}

// ErrUnsupportedType is returned by Classify for Go values that have no
// literal representation.
var ErrUnsupportedType = errors.New("unsupported value type")

// Value is a closed tagged union over the literal types accepted as query
// parameters. The zero Value is invalid.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	d    Date
	t    time.Time
}

func Bool(v bool) Value { return Value{kind: KindBool, b: v} }
func Int64(v int64) Value { return Value{kind: KindInt64, i: v} }
func Double(v float64) Value { return Value{kind: KindDouble, f: v} }
func String(v string) Value { return Value{kind: KindString, s: v} }
func DateOf(v Date) Value { return Value{kind: KindDate, d: v} }

// Timestamp builds a timestamp value from the wall clock of v, truncated to
// whole seconds. The zone is dropped: 11:25:30+01:00 becomes 11:25:30 UTC.
func Timestamp(v time.Time) Value {
	return Value{kind: KindTimestamp, t: wallClock(v)}
}

func wallClock(t time.Time) time.Time {
	y, mo, d := t.Date()
	h, mi, s := t.Clock()
	return time.Date(y, mo, d, h, mi, s, 0, time.UTC)
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsValid() bool { return v.kind != KindInvalid }

func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }
func (v Value) AsInt64() (int64, bool) { return v.i, v.kind == KindInt64 }
func (v Value) AsDouble() (float64, bool) { return v.f, v.kind == KindDouble }
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }
func (v Value) AsDate() (Date, bool) { return v.d, v.kind == KindDate }
func (v Value) AsTime() (time.Time, bool) { return v.t, v.kind == KindTimestamp }

// Native returns the Go representation of the value: bool, int64, float64,
// string, Date or time.Time. Invalid values yield nil.
func (v Value) Native() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt64:
		return v.i
	case KindDouble:
		return v.f
	case KindString:
		return v.s
	case KindDate:
		return v.d
	case KindTimestamp:
		return v.t
	default:
		return nil
	}
}

// Equal reports whether both values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == o.b
	case KindInt64:
		return v.i == o.i
	case KindDouble:
		return v.f == o.f
	case KindString:
		return v.s == o.s
	case KindDate:
		return v.d == o.d
	case KindTimestamp:
		return v.t.Equal(o.t)
	default:
		return true
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt64:
		return strconv.FormatInt(v.i, 10)
	case KindDouble:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.s)
	case KindDate:
		return v.d.String()
	case KindTimestamp:
		return v.t.Format(TimestampLayout)
	default:
		return "<invalid>"
	}
}

// Classify maps a native Go value onto a Value. bool is matched before any
// integer type so a boolean never becomes INT64.
func Classify(v any) (Value, error) {
	switch x := v.(type) {
	case Value:
		if !x.IsValid() {
			return Value{}, fmt.Errorf("%w: invalid value", ErrUnsupportedType)
		}
		return x, nil
	case bool:
		return Bool(x), nil
	case int:
		return Int64(int64(x)), nil
	case int8:
		return Int64(int64(x)), nil
	case int16:
		return Int64(int64(x)), nil
	case int32:
		return Int64(int64(x)), nil
	case int64:
		return Int64(x), nil
	case uint8:
		return Int64(int64(x)), nil
	case uint16:
		return Int64(int64(x)), nil
	case uint32:
		return Int64(int64(x)), nil
	case uint:
		if uint64(x) > math.MaxInt64 {
			return Value{}, fmt.Errorf("%w: %T %d overflows int64", ErrUnsupportedType, x, x)
		}
		return Int64(int64(x)), nil
	case uint64:
		if x > math.MaxInt64 {
			return Value{}, fmt.Errorf("%w: %T %d overflows int64", ErrUnsupportedType, x, x)
		}
		return Int64(int64(x)), nil
	case float32:
		return Double(float64(x)), nil
	case float64:
		return Double(x), nil
	case string:
		return String(x), nil
	case Date:
		return DateOf(x), nil
	case time.Time:
		return Timestamp(x), nil
	case dbtype.Date:
		return DateOf(DateFromTime(x.Time())), nil
	case dbtype.LocalDateTime:
		return Timestamp(x.Time()), nil
	default:
		return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedType, v)
	}
}
