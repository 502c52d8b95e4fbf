// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package typedesc

import (
	"strings"
)

// PropertyType is the scalar type of a fixed property.
type PropertyType int

const (
	// Invalid is the zero PropertyType.
	Invalid PropertyType = iota
	// String holds Go string values.
	String
	// Bool holds Go bool values.
	Bool
	// Int8 holds Go int8 values.
	Int8
	// Int16 holds Go int16 values.
	Int16
	// Int32 holds Go int32 values.
	Int32
	// Int64 holds Go int64 values.
	Int64
	// Float32 holds Go float32 values.
	Float32
	// Float64 holds Go float64 values.
	Float64
	// Bytes holds Go []byte values.
	Bytes
	// Time holds time.Time values.
	Time
	// Decimal holds decimal.Decimal values.
	Decimal
	// Object holds arbitrary nested documents. It can live in memory but has
	// no relational column mapping.
	Object
)

var propertyTypeNames = map[PropertyType]string{
	String:  "string",
	Bool:    "bool",
	Int8:    "int8",
	Int16:   "int16",
	Int32:   "int32",
	Int64:   "int64",
	Float32: "float32",
	Float64: "float64",
	Bytes:   "bytes",
	Time:    "time",
	Decimal: "decimal",
	Object:  "object",
}

// String implements fmt.Stringer.
func (t PropertyType) String() string {
	if name, ok := propertyTypeNames[t]; ok {
		return name
	}
	return "invalid"
}

// IsInteger returns true for the signed integer widths.
func (t PropertyType) IsInteger() bool {
	return t == Int8 || t == Int16 || t == Int32 || t == Int64
}

// ParsePropertyType parses the names produced by PropertyType.String.
func ParsePropertyType(name string) (PropertyType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for t, n := range propertyTypeNames {
		if n == name {
			return t, nil
		}
	}
	switch name {
	case "int", "integer":
		return Int32, nil
	case "long":
		return Int64, nil
	case "double":
		return Float64, nil
	case "float":
		return Float32, nil
	case "boolean":
		return Bool, nil
	case "timestamp", "datetime":
		return Time, nil
	}
	return Invalid, Error.New("unknown property type %q", name)
}
