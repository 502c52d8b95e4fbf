// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package tieredconfig holds the per-table tiered storage configuration.
package tieredconfig

import (
	"fmt"
	"time"

	"github.com/zeebo/errs"

	"github.com/gridlabs/tieredstorage/pkg/cacherule"
	"github.com/gridlabs/tieredstorage/pkg/ranges"
	"github.com/gridlabs/tieredstorage/pkg/typedesc"
)

// Error is the error class for invalid configuration.
var Error = errs.Class("tiered config")

// TableConfig is the tiering policy of one type.
type TableConfig struct {
	Name       string        `mapstructure:"name"`
	TimeColumn string        `mapstructure:"time-column"`
	Retention  time.Duration `mapstructure:"retention"`
	Period     time.Duration `mapstructure:"period"`
	Criteria   string        `mapstructure:"criteria"`
	Transient  bool          `mapstructure:"transient"`
}

// Config is the tiered storage configuration of a space.
type Config struct {
	Tables []TableConfig `mapstructure:"tables"`
}

// IsTimeRule returns true when the table is tiered by age.
func (t TableConfig) IsTimeRule() bool { return t.TimeColumn != "" && t.Period > 0 }

// String implements fmt.Stringer.
func (t TableConfig) String() string {
	return fmt.Sprintf("%s{time-column=%q retention=%s period=%s criteria=%q transient=%t}",
		t.Name, t.TimeColumn, t.Retention, t.Period, t.Criteria, t.Transient)
}

// Validate checks a single table.
func (t TableConfig) Validate() error {
	switch {
	case t.Name == "":
		return Error.New("table name is required")
	case t.Period < 0 || t.Retention < 0:
		return Error.New("table %q: durations must not be negative", t.Name)
	case t.Transient && (t.Criteria != "" || t.TimeColumn != "" || t.Period != 0):
		return Error.New("table %q: transient tables cannot have criteria or a time rule", t.Name)
	case t.TimeColumn != "" && t.Period == 0:
		return Error.New("table %q: time column %q requires a period", t.Name, t.TimeColumn)
	case t.TimeColumn == "" && t.Period != 0:
		return Error.New("table %q: period requires a time column", t.Name)
	case t.TimeColumn != "" && t.Criteria != "":
		return Error.New("table %q: criteria and time column are exclusive", t.Name)
	case t.Retention != 0 && t.Period != 0 && t.Retention < t.Period:
		return Error.New("table %q: retention %s is shorter than period %s", t.Name, t.Retention, t.Period)
	case !t.Transient && t.TimeColumn == "" && t.Criteria == "":
		return Error.New("table %q: no cache rule", t.Name)
	}
	return nil
}

// Validate checks every table and that table names are unique.
func (c Config) Validate() error {
	var group errs.Group
	seen := make(map[string]bool, len(c.Tables))
	for _, t := range c.Tables {
		group.Add(t.Validate())
		if t.Name != "" && seen[t.Name] {
			group.Add(Error.New("table %q is configured twice", t.Name))
		}
		seen[t.Name] = true
	}
	return group.Err()
}

// Table returns the configuration of the named table.
func (c Config) Table(name string) (TableConfig, bool) {
	for _, t := range c.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return TableConfig{}, false
}

// Compile builds the cache rule of the table against its type. now is used
// by time rules and may be nil.
func (t TableConfig) Compile(td *typedesc.TypeDescriptor, now func() time.Time) (cacherule.Predicate, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	switch {
	case t.Transient:
		return cacherule.Transient{}, nil
	case t.TimeColumn != "":
		rule := cacherule.Time{TypeName: t.Name, Column: t.TimeColumn, Period: t.Period, Now: now}
		if _, err := rule.Range(td); err != nil {
			return nil, Error.Wrap(err)
		}
		return rule, nil
	case ranges.IsAll(t.Criteria):
		return cacherule.All{}, nil
	}

	r, err := ranges.Parse(t.Criteria)
	if err != nil {
		return nil, Error.New("table %q: failed to parse criteria %q: %v", t.Name, t.Criteria, err)
	}
	prop, ok := td.Property(r.Path())
	if !ok {
		return nil, Error.New("table %q: criteria property %q does not exist", t.Name, r.Path())
	}
	if _, isRegex := r.(ranges.RegexRange); isRegex && prop.Type != typedesc.String {
		return nil, Error.New("table %q: regular expression on %s property %q", t.Name, prop.Type, prop.Name)
	}
	r, err = ranges.Convert(r, func(v interface{}) (interface{}, error) {
		return typedesc.Coerce(prop.Type, v)
	})
	if err != nil {
		return nil, Error.New("table %q: criteria %q: %v", t.Name, t.Criteria, err)
	}
	return cacherule.Criteria{TypeName: t.Name, Range: r}, nil
}

// RetentionRule returns the rule selecting records younger than the
// retention. ok is false when the table has no retention.
func (t TableConfig) RetentionRule(now func() time.Time) (rule cacherule.Time, ok bool) {
	if t.TimeColumn == "" || t.Retention == 0 {
		return cacherule.Time{}, false
	}
	return cacherule.Time{TypeName: t.Name, Column: t.TimeColumn, Period: t.Retention, Now: now}, true
}
