// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package tieredconfig

import (
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

// Version is the encoding version written by MarshalBinary.
const Version = 1

// Config fields.
const (
	fieldTables  protowire.Number = 1
	fieldVersion protowire.Number = 2
)

// TableConfig fields.
const (
	fieldName       protowire.Number = 1
	fieldTimeColumn protowire.Number = 2
	fieldRetention  protowire.Number = 3
	fieldPeriod     protowire.Number = 4
	fieldCriteria   protowire.Number = 5
	fieldTransient  protowire.Number = 6
)

// MarshalBinary encodes the configuration with tagged fields. Decoders skip
// fields they do not know, so nodes running different versions can exchange
// configurations.
func (c Config) MarshalBinary() ([]byte, error) {
	var b []byte
	b = protowire.AppendTag(b, fieldVersion, protowire.VarintType)
	b = protowire.AppendVarint(b, Version)
	for _, t := range c.Tables {
		b = protowire.AppendTag(b, fieldTables, protowire.BytesType)
		b = protowire.AppendBytes(b, t.appendBinary(nil))
	}
	return b, nil
}

// UnmarshalBinary decodes a configuration encoded by MarshalBinary.
func (c *Config) UnmarshalBinary(data []byte) error {
	*c = Config{}
	return consumeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldTables && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			var t TableConfig
			if err := t.unmarshalBinary(v); err != nil {
				return 0, err
			}
			c.Tables = append(c.Tables, t)
			return n, nil
		case num == fieldVersion && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n >= 0 && v == 0 {
				return 0, Error.New("invalid encoding version 0")
			}
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

func (t TableConfig) appendBinary(b []byte) []byte {
	appendString := func(num protowire.Number, s string) {
		if s != "" {
			b = protowire.AppendTag(b, num, protowire.BytesType)
			b = protowire.AppendString(b, s)
		}
	}
	appendDuration := func(num protowire.Number, d time.Duration) {
		if d != 0 {
			b = protowire.AppendTag(b, num, protowire.VarintType)
			b = protowire.AppendVarint(b, uint64(d))
		}
	}

	appendString(fieldName, t.Name)
	appendString(fieldTimeColumn, t.TimeColumn)
	appendDuration(fieldRetention, t.Retention)
	appendDuration(fieldPeriod, t.Period)
	appendString(fieldCriteria, t.Criteria)
	if t.Transient {
		b = protowire.AppendTag(b, fieldTransient, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(true))
	}
	return b
}

func (t *TableConfig) unmarshalBinary(data []byte) error {
	return consumeFields(data, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch typ {
		case protowire.BytesType:
			var target *string
			switch num {
			case fieldName:
				target = &t.Name
			case fieldTimeColumn:
				target = &t.TimeColumn
			case fieldCriteria:
				target = &t.Criteria
			}
			if target == nil {
				break
			}
			v, n := protowire.ConsumeString(b)
			*target = v
			return n, nil
		case protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			switch num {
			case fieldRetention:
				t.Retention = time.Duration(v)
			case fieldPeriod:
				t.Period = time.Duration(v)
			case fieldTransient:
				t.Transient = protowire.DecodeBool(v)
			}
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
}

// consumeFields calls fn for every field in data. fn returns the number of
// bytes of the field value it consumed, or a negative protowire error code.
func consumeFields(data []byte, fn func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return Error.Wrap(protowire.ParseError(n))
		}
		data = data[n:]
		m, err := fn(num, typ, data)
		if err != nil {
			return err
		}
		if m < 0 {
			return Error.Wrap(protowire.ParseError(m))
		}
		data = data[m:]
	}
	return nil
}
