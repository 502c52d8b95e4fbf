// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package rdbms

import (
	"context"

	"github.com/gridlabs/tieredstorage/pkg/tier"
	"github.com/gridlabs/tieredstorage/pkg/typedesc"
)

// MultiTypedIterator iterates the entries of several types in order. It
// opens one type iterator at a time and skips types without a table.
type MultiTypedIterator struct {
	manager *Manager
	tc      tier.Context
	types   []string
	tmpl    *typedesc.Template

	current  EntryIterator
	index    int
	finished bool
}

// NewMultiTypedIterator creates an iterator over types. tmpl may be nil to
// return every entry; otherwise only the type of tmpl is scanned.
func (m *Manager) NewMultiTypedIterator(tc tier.Context, types []string, tmpl *typedesc.Template) *MultiTypedIterator {
	return &MultiTypedIterator{manager: m, tc: tc, types: types, tmpl: tmpl}
}

// Next implements EntryIterator.
func (it *MultiTypedIterator) Next(ctx context.Context) (*typedesc.Entry, error) {
	for !it.finished {
		if it.current == nil {
			if err := it.openNext(ctx); err != nil {
				return nil, err
			}
			if it.current == nil {
				it.finished = true
				return nil, nil
			}
		}

		entry, err := it.current.Next(ctx)
		if err != nil {
			return nil, err
		}
		if entry != nil {
			return entry, nil
		}

		err = it.current.Close()
		it.current = nil
		it.index++
		if err != nil {
			return nil, Error.Wrap(err)
		}
	}
	return nil, nil
}

func (it *MultiTypedIterator) openNext(ctx context.Context) error {
	for ; it.index < len(it.types); it.index++ {
		name := it.types[it.index]
		if !it.manager.IsKnownType(name) {
			continue
		}
		if it.tmpl != nil && it.tmpl.Type.Name != name {
			continue
		}
		current, err := it.manager.MakeEntriesIter(ctx, it.tc, name, it.tmpl)
		if err != nil {
			return err
		}
		it.current = current
		return nil
	}
	return nil
}

// Close implements EntryIterator.
func (it *MultiTypedIterator) Close() error {
	it.finished = true
	if it.current == nil {
		return nil
	}
	err := it.current.Close()
	it.current = nil
	return err
}
