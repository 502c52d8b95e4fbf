// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package sqlmap translates type descriptors, entries and templates into SQL
// with bound parameters.
package sqlmap

import (
	"database/sql"
	"math"
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeebo/errs"

	"github.com/gridlabs/tieredstorage/pkg/typedesc"
)

// Error is the error class for values and queries that have no SQL form.
var Error = errs.Class("sqlmap")

var columnTypes = map[typedesc.PropertyType]string{
	typedesc.String:  "VARCHAR",
	typedesc.Bool:    "BIT",
	typedesc.Int8:    "TINYINT",
	typedesc.Int16:   "SMALLINT",
	typedesc.Int32:   "INTEGER",
	typedesc.Int64:   "BIGINT",
	typedesc.Float32: "REAL",
	typedesc.Float64: "FLOAT",
	typedesc.Bytes:   "BINARY",
	typedesc.Time:    "DATETIME",
	typedesc.Decimal: "DECIMAL",
}

// ColumnType returns the column type storing values of t.
func ColumnType(t typedesc.PropertyType) (string, error) {
	if column, ok := columnTypes[t]; ok {
		return column, nil
	}
	return "", Error.New("unsupported property type %s", t)
}

// QuoteIdent quotes an identifier.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// BindValue converts a property value of type t into a statement argument.
func BindValue(t typedesc.PropertyType, v interface{}) (interface{}, error) {
	if _, err := ColumnType(t); err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	c, err := typedesc.Coerce(t, v)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	switch x := c.(type) {
	case string, bool, int64, float64, []byte:
		return x, nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case float32:
		return float64(x), nil
	case time.Time:
		return x.UTC(), nil
	case decimal.Decimal:
		if !exactDecimal(x) {
			return nil, Error.New("decimal %s exceeds %d significant digits", x, DecimalDigits)
		}
		return x.String(), nil
	}
	return nil, Error.New("unsupported property type %s", t)
}

// DecimalDigits is the precision a DECIMAL column keeps for fractional
// values. Decimal columns have NUMERIC affinity: integers are stored as
// INTEGER, everything else as REAL.
const DecimalDigits = 15

// exactDecimal returns true when d is read back unchanged.
func exactDecimal(d decimal.Decimal) bool {
	if d.IsInteger() && d.BigInt().IsInt64() {
		return true
	}
	digits := new(big.Int).Abs(d.Coefficient()).String()
	digits = strings.TrimRight(digits, "0")
	if len(digits) > DecimalDigits {
		return false
	}
	f, _ := d.Float64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return false
	}
	return decimal.NewFromFloat(f).Equal(d)
}

// ScanDest returns a destination for scanning a column of type t.
func ScanDest(t typedesc.PropertyType) (interface{}, error) {
	switch t {
	case typedesc.String:
		return new(sql.NullString), nil
	case typedesc.Bool:
		return new(sql.NullBool), nil
	case typedesc.Int8, typedesc.Int16, typedesc.Int32, typedesc.Int64:
		return new(sql.NullInt64), nil
	case typedesc.Float32, typedesc.Float64:
		return new(sql.NullFloat64), nil
	case typedesc.Bytes:
		return new([]byte), nil
	case typedesc.Time:
		return new(sql.NullTime), nil
	case typedesc.Decimal:
		return new(decimal.NullDecimal), nil
	}
	return nil, Error.New("unsupported property type %s", t)
}

// ScanValue extracts the property value from a destination created by
// ScanDest. NULL columns yield nil.
func ScanValue(t typedesc.PropertyType, dest interface{}) (interface{}, error) {
	switch d := dest.(type) {
	case *sql.NullString:
		if d.Valid {
			return d.String, nil
		}
	case *sql.NullBool:
		if d.Valid {
			return d.Bool, nil
		}
	case *sql.NullInt64:
		if d.Valid {
			v, err := typedesc.Coerce(t, d.Int64)
			return v, Error.Wrap(err)
		}
	case *sql.NullFloat64:
		if d.Valid {
			if t == typedesc.Float32 {
				return float32(d.Float64), nil
			}
			return d.Float64, nil
		}
	case *[]byte:
		if *d != nil {
			return *d, nil
		}
	case *sql.NullTime:
		if d.Valid {
			return d.Time.UTC(), nil
		}
	case *decimal.NullDecimal:
		if d.Valid {
			return d.Decimal, nil
		}
	default:
		return nil, Error.New("unsupported scan destination %T", dest)
	}
	return nil, nil
}
