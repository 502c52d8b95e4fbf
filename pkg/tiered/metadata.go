// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package tiered

import (
	"context"

	"go.uber.org/zap"

	"github.com/gridlabs/tieredstorage/pkg/tier"
	"github.com/gridlabs/tieredstorage/pkg/typedesc"
)

// HotCache is the memory tier as seen by the manager.
type HotCache interface {
	// GetByID returns the memory copy of an entry, or nil.
	GetByID(typeName string, id interface{}) *typedesc.Entry
}

// EntryTieredMetaData describes where an entry is stored.
type EntryTieredMetaData struct {
	ID    interface{}
	State tier.State
	// IdenticalToCache is true when the entry is in both tiers and the copies
	// hold the same values.
	IdenticalToCache bool
}

// EntriesTieredMetaData reports, for each id, which tiers hold the entry and
// whether the memory and disk copies agree. Ids found in no tier are reported
// with state Unknown.
func (m *Manager) EntriesTieredMetaData(ctx context.Context, hot HotCache, typeName string, ids []interface{}) (_ []EntryTieredMetaData, err error) {
	defer mon.Task()(&ctx)(&err)

	td, ok := m.types.TypeDescriptor(typeName)
	if !ok {
		return nil, Error.New("no type descriptor for %q", typeName)
	}

	infos := make([]EntryTieredMetaData, 0, len(ids))
	for _, id := range ids {
		var memory *typedesc.Entry
		if hot != nil {
			memory = hot.GetByID(typeName, id)
		}

		var disk *typedesc.Entry
		if td.AutoGenerateID {
			uid, _ := id.(string)
			disk, err = m.GetByUID(ctx, tier.Context{}, typeName, uid, nil)
		} else {
			disk, err = m.GetByID(ctx, tier.Context{}, typeName, id, nil)
		}
		if err != nil {
			return nil, err
		}

		info := EntryTieredMetaData{ID: id}
		switch {
		case memory != nil && disk != nil:
			info.State = tier.HotAndCold
			info.IdenticalToCache = memory.Equal(disk)
			if !info.IdenticalToCache {
				m.log.Warn("memory and disk copies differ", zap.String("type", typeName), zap.String("uid", disk.UID))
			}
		case memory != nil:
			info.State = tier.Hot
		case disk != nil:
			info.State = tier.Cold
		}
		infos = append(infos, info)
	}
	return infos, nil
}
