// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package tiered

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

// Count is the number of entries of a type.
type Count struct {
	// Total counts every entry, whatever its tier.
	Total int64
	// RAM counts the entries with a memory copy.
	RAM int64
}

// typeCounters are the counters of one type.
type typeCounters struct {
	total atomic.Int64
	ram   atomic.Int64
}

// typesMetaData holds lock-free counters per type.
type typesMetaData struct {
	counters sync.Map // string -> *typeCounters
}

// register creates the counters of a type if they are missing.
func (md *typesMetaData) register(typeName string) *typeCounters {
	if v, ok := md.counters.Load(typeName); ok {
		return v.(*typeCounters)
	}
	v, _ := md.counters.LoadOrStore(typeName, new(typeCounters))
	return v.(*typeCounters)
}

// lookup returns the counters of a type. Updating the counters of a type that
// never had an entry is a bug in the caller.
func (md *typesMetaData) lookup(typeName string) *typeCounters {
	v, ok := md.counters.Load(typeName)
	if !ok {
		panic(fmt.Sprintf("tiered: no counters for type %q", typeName))
	}
	return v.(*typeCounters)
}

func (md *typesMetaData) increment(typeName string, hot bool) {
	c := md.register(typeName)
	c.total.Add(1)
	if hot {
		c.ram.Add(1)
	}
}

func (md *typesMetaData) decrement(typeName string, hot bool) {
	c := md.lookup(typeName)
	mustNotUnderflow(typeName, "total", c.total.Add(-1))
	if hot {
		mustNotUnderflow(typeName, "ram", c.ram.Add(-1))
	}
}

// adjustRAM moves an entry in or out of the memory tier.
func (md *typesMetaData) adjustRAM(typeName string, wasHot, isHot bool) {
	switch {
	case wasHot == isHot:
	case isHot:
		md.lookup(typeName).ram.Add(1)
	default:
		mustNotUnderflow(typeName, "ram", md.lookup(typeName).ram.Add(-1))
	}
}

func mustNotUnderflow(typeName, counter string, value int64) {
	if value < 0 {
		panic(fmt.Sprintf("tiered: %s counter of type %q is negative", counter, typeName))
	}
}

func (md *typesMetaData) count(typeName string) Count {
	v, ok := md.counters.Load(typeName)
	if !ok {
		return Count{}
	}
	c := v.(*typeCounters)
	return Count{Total: c.total.Load(), RAM: c.ram.Load()}
}

func (md *typesMetaData) snapshot() map[string]Count {
	counts := map[string]Count{}
	md.counters.Range(func(key, value interface{}) bool {
		c := value.(*typeCounters)
		counts[key.(string)] = Count{Total: c.total.Load(), RAM: c.ram.Load()}
		return true
	})
	return counts
}

// TypeNames returns the names of the types that have counters, sorted.
func (m *Manager) TypeNames() []string {
	var names []string
	m.counters.counters.Range(func(key, _ interface{}) bool {
		names = append(names, key.(string))
		return true
	})
	sort.Strings(names)
	return names
}
