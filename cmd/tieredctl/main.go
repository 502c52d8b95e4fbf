// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/zeebo/errs"

	"github.com/gridlabs/tieredstorage/pkg/process"
	"github.com/gridlabs/tieredstorage/pkg/tieredconfig"
	"github.com/gridlabs/tieredstorage/pkg/typedesc"
)

var (
	rootCmd = &cobra.Command{
		Use:   "tieredctl",
		Short: "inspect tiered storage configurations and stores",
	}
	rulesCmd = &cobra.Command{
		Use:   "rules",
		Short: "validate the tiered storage configuration and print the compiled cache rules",
		Args:  cobra.NoArgs,
		RunE:  cmdRules,
	}
	encodeCmd = &cobra.Command{
		Use:   "encode <output>",
		Short: "write the tiered storage configuration in its versioned binary form",
		Args:  cobra.ExactArgs(1),
		RunE:  cmdEncode,
	}
	decodeCmd = &cobra.Command{
		Use:   "decode <input>",
		Short: "print a configuration written by encode",
		Args:  cobra.ExactArgs(1),
		RunE:  cmdDecode,
	}
)

func init() {
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	process.Exec(rootCmd)
}

// loadConfig reads the table policies and type definitions from the file
// given with --config.
func loadConfig(cmd *cobra.Command) (tieredconfig.Config, *typedesc.Registry, error) {
	vip, err := process.Viper(cmd)
	if err != nil {
		return tieredconfig.Config{}, nil, err
	}
	if vip.ConfigFileUsed() == "" {
		return tieredconfig.Config{}, nil, errs.New("--config is required")
	}
	config, err := tieredconfig.FromViper(vip)
	if err != nil {
		return tieredconfig.Config{}, nil, err
	}
	types, err := tieredconfig.TypesFromViper(vip)
	if err != nil {
		return tieredconfig.Config{}, nil, err
	}
	return config, types, nil
}

func cmdRules(cmd *cobra.Command, args []string) error {
	config, types, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var group errs.Group
	for _, table := range config.Tables {
		td, ok := types.TypeDescriptor(table.Name)
		if !ok {
			_, _ = fmt.Fprintf(out, "%s: not a declared type\n", table.Name)
			continue
		}
		rule, err := table.Compile(td, time.Now)
		if err != nil {
			group.Add(err)
			continue
		}
		_, _ = fmt.Fprintf(out, "%s: %s\n", table.Name, rule)
		if retention, ok := table.RetentionRule(time.Now); ok {
			_, _ = fmt.Fprintf(out, "%s: retention %s\n", table.Name, retention.Period)
		}
	}

	var untiered []string
	for _, name := range types.Names() {
		if _, ok := config.Table(name); !ok {
			untiered = append(untiered, name)
		}
	}
	sort.Strings(untiered)
	for _, name := range untiered {
		_, _ = fmt.Fprintf(out, "%s: disk only\n", name)
	}
	return group.Err()
}

func cmdEncode(cmd *cobra.Command, args []string) error {
	config, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	data, err := config.MarshalBinary()
	if err != nil {
		return err
	}
	return process.AtomicWrite(args[0], 0644, data)
}

func cmdDecode(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return errs.Wrap(err)
	}
	var config tieredconfig.Config
	if err := config.UnmarshalBinary(data); err != nil {
		return err
	}
	if err := config.Validate(); err != nil {
		return err
	}
	for _, table := range config.Tables {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), table)
	}
	return nil
}
