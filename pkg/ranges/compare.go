// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package ranges

import (
	"bytes"
	"math"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// Compare orders two property values. Integers of every width, floats and
// decimals compare numerically with each other; strings, byte slices, times
// and bools compare only with their own kind. ok is false when the values
// cannot be ordered.
func Compare(a, b interface{}) (cmp int, ok bool) {
	if a == nil || b == nil {
		return 0, false
	}
	if na, isNum := number(a); isNum {
		nb, isNum := number(b)
		if !isNum || na == nil || nb == nil {
			return 0, false
		}
		return na.Cmp(nb), true
	}
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	case []byte:
		y, ok := b.([]byte)
		if !ok {
			return 0, false
		}
		return bytes.Compare(x, y), true
	case time.Time:
		y, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return x.Compare(y), true
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

// EqualValues reports whether two values compare equal.
func EqualValues(a, b interface{}) bool {
	c, ok := Compare(a, b)
	return ok && c == 0
}

func number(v interface{}) (*big.Float, bool) {
	switch x := v.(type) {
	case int:
		return new(big.Float).SetInt64(int64(x)), true
	case int8:
		return new(big.Float).SetInt64(int64(x)), true
	case int16:
		return new(big.Float).SetInt64(int64(x)), true
	case int32:
		return new(big.Float).SetInt64(int64(x)), true
	case int64:
		return new(big.Float).SetInt64(x), true
	case uint8:
		return new(big.Float).SetUint64(uint64(x)), true
	case uint16:
		return new(big.Float).SetUint64(uint64(x)), true
	case uint32:
		return new(big.Float).SetUint64(uint64(x)), true
	case uint64:
		return new(big.Float).SetUint64(x), true
	case float32:
		if math.IsNaN(float64(x)) {
			return nil, true
		}
		return new(big.Float).SetFloat64(float64(x)), true
	case float64:
		if math.IsNaN(x) {
			return nil, true
		}
		return new(big.Float).SetFloat64(x), true
	case decimal.Decimal:
		return x.BigFloat(), true
	}
	return nil, false
}
