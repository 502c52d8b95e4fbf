// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spacemonkeygo/monkit/v3"
	"github.com/spf13/cobra"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"github.com/gridlabs/tieredstorage/pkg/process"
	"github.com/gridlabs/tieredstorage/pkg/tier"
	"github.com/gridlabs/tieredstorage/pkg/tiered"
	"github.com/gridlabs/tieredstorage/pkg/tiered/tieredmetrics"
	"github.com/gridlabs/tieredstorage/pkg/typedesc"
	"github.com/gridlabs/tieredstorage/storage/rdbms"
	"github.com/gridlabs/tieredstorage/storage/rdbms/sqliterdbms"
	"github.com/gridlabs/tieredstorage/storage/storelogger"
)

var (
	scanCmd = &cobra.Command{
		Use:   "scan [type...]",
		Short: "print the entries stored on disk with their tier",
		RunE:  cmdScan,
	}
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "load a store and serve its tier counters on the debug endpoint",
		Args:  cobra.NoArgs,
		RunE:  cmdServe,
	}

	storeConfig struct {
		Space  string
		Member string
		SQLite sqliterdbms.Config
	}
	debugAddr string
)

func init() {
	for _, cmd := range []*cobra.Command{scanCmd, serveCmd} {
		flags := cmd.Flags()
		flags.StringVar(&storeConfig.Space, "space", "space", "name of the space")
		flags.StringVar(&storeConfig.Member, "member", "space_container1:space", "full member name of the space instance")
		flags.StringVar(&storeConfig.SQLite.Dir, "storage.dir", "", "directory holding the database files")
		flags.IntVar(&storeConfig.SQLite.CacheSize, "storage.cache-size", 5000, "page cache size in pages")
		flags.DurationVar(&storeConfig.SQLite.BusyTimeout, "storage.busy-timeout", 5*time.Second, "how long a writer waits for a locked database")
	}
	serveCmd.Flags().StringVar(&debugAddr, "debug.addr", "127.0.0.1:0", "address to listen on for debug endpoints")
}

// store is an opened tiered manager over the SQLite store in --storage.dir.
type store struct {
	manager *tiered.Manager
	types   *typedesc.Registry
	db      *sqliterdbms.Store
}

func openStore(ctx context.Context, cmd *cobra.Command, log *zap.Logger) (*store, error) {
	config, types, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if storeConfig.SQLite.Dir == "" {
		return nil, errs.New("--storage.dir is required")
	}

	db := sqliterdbms.New(log.Named("sqlite"), storeConfig.SQLite)
	internal := rdbms.NewManager(log, storelogger.New(log.Named("rdbms"), db))
	manager := tiered.NewManager(log, tiered.Config{Tables: config}, types, internal)
	if err := manager.Initialize(ctx, storeConfig.Space, storeConfig.Member); err != nil {
		return nil, errs.Combine(err, db.Close())
	}
	return &store{manager: manager, types: types, db: db}, nil
}

// Close releases the database without removing its files.
func (s *store) Close() error { return s.db.Close() }

func cmdScan(cmd *cobra.Command, args []string) (err error) {
	ctx, cancel := process.Ctx(cmd)
	defer cancel()

	log, err := process.NewLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	s, err := openStore(ctx, cmd, log)
	if err != nil {
		return err
	}
	defer func() { err = errs.Combine(err, s.Close()) }()
	manager, types := s.manager, s.types

	names := args
	if len(names) == 0 {
		names = types.Names()
	}

	out := cmd.OutOrStdout()
	it := manager.InternalStorage().NewMultiTypedIterator(tier.Context{DisableMetrics: true}, names, nil)
	defer func() { err = errs.Combine(err, it.Close()) }()
	for {
		entry, err := it.Next(ctx)
		if err != nil {
			return err
		}
		if entry == nil {
			return nil
		}
		state, err := manager.EntryTieredState(entry)
		if err != nil {
			return err
		}
		values := make([]string, len(entry.Values))
		for i, v := range entry.Values {
			values[i] = entry.Type.Properties[i].Name + "=" + typedesc.FormatValue(v)
		}
		_, _ = fmt.Fprintf(out, "%s\t%s\t%s\n", entry.UID, state, strings.Join(values, " "))
	}
}

func cmdServe(cmd *cobra.Command, args []string) (err error) {
	ctx, cancel := process.Ctx(cmd)
	defer cancel()

	log, err := process.NewLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	s, err := openStore(ctx, cmd, log)
	if err != nil {
		return err
	}
	defer func() { err = errs.Combine(err, s.Close()) }()
	manager, types := s.manager, s.types

	for _, name := range types.Names() {
		td, _ := types.TypeDescriptor(name)
		if err := manager.AddType(ctx, td); err != nil {
			return err
		}
	}
	loaded, err := manager.InitialLoad(ctx, types.Names(), nil)
	if err != nil {
		return err
	}

	srv, err := process.NewDebugServer(log, debugAddr, monkit.Default, tieredmetrics.NewRegistry(manager))
	if err != nil {
		return err
	}
	log.Info("serving tier counters", zap.Int("entries", loaded), zap.Stringer("addr", srv.Addr()))
	return srv.Run(ctx)
}
