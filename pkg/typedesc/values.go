// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package typedesc

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Coerce converts v to the native Go representation of t. Literals parsed from
// configuration (int64, float64, string, bool) are accepted for every type
// they can represent without loss.
func Coerce(t PropertyType, v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	switch t {
	case String:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case Bool:
		switch x := v.(type) {
		case bool:
			return x, nil
		case string:
			b, err := strconv.ParseBool(x)
			if err != nil {
				return nil, Error.Wrap(err)
			}
			return b, nil
		}
	case Int8, Int16, Int32, Int64:
		n, ok, err := toInt64(v)
		if err != nil {
			return nil, err
		}
		if ok {
			return narrowInt(t, n)
		}
	case Float32, Float64:
		f, ok, err := toFloat64(v)
		if err != nil {
			return nil, err
		}
		if ok {
			if t == Float32 {
				return float32(f), nil
			}
			return f, nil
		}
	case Bytes:
		if b, ok := v.([]byte); ok {
			return b, nil
		}
	case Time:
		switch x := v.(type) {
		case time.Time:
			return x, nil
		case string:
			ts, err := time.Parse(time.RFC3339Nano, x)
			if err != nil {
				return nil, Error.Wrap(err)
			}
			return ts, nil
		case int64:
			return time.UnixMilli(x), nil
		}
	case Decimal:
		switch x := v.(type) {
		case decimal.Decimal:
			return x, nil
		case string:
			d, err := decimal.NewFromString(x)
			if err != nil {
				return nil, Error.Wrap(err)
			}
			return d, nil
		case float64:
			return decimal.NewFromFloat(x), nil
		case float32:
			return decimal.NewFromFloat32(x), nil
		default:
			if n, ok, _ := toInt64(v); ok {
				return decimal.NewFromInt(n), nil
			}
		}
	case Object:
		return v, nil
	}
	return nil, Error.New("cannot use %T value %v as %s", v, v, t)
}

func toInt64(v interface{}) (int64, bool, error) {
	switch x := v.(type) {
	case int:
		return int64(x), true, nil
	case int8:
		return int64(x), true, nil
	case int16:
		return int64(x), true, nil
	case int32:
		return int64(x), true, nil
	case int64:
		return x, true, nil
	case uint8:
		return int64(x), true, nil
	case uint16:
		return int64(x), true, nil
	case uint32:
		return int64(x), true, nil
	case uint64:
		if x > math.MaxInt64 {
			return 0, false, Error.New("value %d overflows int64", x)
		}
		return int64(x), true, nil
	case float64:
		if x != math.Trunc(x) {
			return 0, false, Error.New("value %v is not integral", x)
		}
		return int64(x), true, nil
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			return 0, false, Error.Wrap(err)
		}
		return n, true, nil
	}
	return 0, false, nil
}

func toFloat64(v interface{}) (float64, bool, error) {
	switch x := v.(type) {
	case float32:
		return float64(x), true, nil
	case float64:
		return x, true, nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, false, Error.Wrap(err)
		}
		return f, true, nil
	}
	n, ok, err := toInt64(v)
	return float64(n), ok, err
}

func narrowInt(t PropertyType, n int64) (interface{}, error) {
	switch t {
	case Int8:
		if n < math.MinInt8 || n > math.MaxInt8 {
			return nil, Error.New("value %d overflows %s", n, t)
		}
		return int8(n), nil
	case Int16:
		if n < math.MinInt16 || n > math.MaxInt16 {
			return nil, Error.New("value %d overflows %s", n, t)
		}
		return int16(n), nil
	case Int32:
		if n < math.MinInt32 || n > math.MaxInt32 {
			return nil, Error.New("value %d overflows %s", n, t)
		}
		return int32(n), nil
	}
	return n, nil
}

// FormatValue renders a property value as text. ParseValue reverses it.
func FormatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return hex.EncodeToString(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case decimal.Decimal:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// ParseValue parses text produced by FormatValue into a value of type t.
func ParseValue(t PropertyType, s string) (interface{}, error) {
	switch t {
	case Bytes:
		b, err := hex.DecodeString(s)
		if err != nil {
			return nil, Error.Wrap(err)
		}
		return b, nil
	case Object:
		return nil, Error.New("cannot parse %s values", t)
	}
	return Coerce(t, s)
}

// EqualValues compares two property values of the same type. Byte slices
// compare by content and times by instant.
func EqualValues(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case []byte:
		y, ok := b.([]byte)
		return ok && bytes.Equal(x, y)
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	case decimal.Decimal:
		y, ok := b.(decimal.Decimal)
		return ok && x.Equal(y)
	}
	return reflect.DeepEqual(a, b)
}
