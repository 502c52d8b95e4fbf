// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package process

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/zeebo/errs"
)

// EnvPrefix prefixes the environment variables overriding flags.
const EnvPrefix = "TIERED"

// Exec runs a *cobra.Command after setting up the process wide flags. Flags
// not given on the command line are taken from TIERED_ environment variables
// and from the file named by --config.
func Exec(cmd *cobra.Command) {
	Must(ExecContext(context.Background(), cmd))
}

// ExecContext is Exec returning the error of the command.
func ExecContext(ctx context.Context, cmd *cobra.Command) error {
	flags := cmd.PersistentFlags()
	if flags.Lookup("config") == nil {
		flags.String("config", "", "config file")
	}
	if flags.Lookup("log.level") == nil {
		BindLogFlags(flags)
	}

	for _, c := range allCommands(cmd) {
		c := c
		pre := c.PreRunE
		c.PreRunE = func(c *cobra.Command, args []string) error {
			if _, err := Viper(c); err != nil {
				return err
			}
			if pre != nil {
				return pre(c, args)
			}
			return nil
		}
	}

	return cmd.ExecuteContext(ctx)
}

func allCommands(cmd *cobra.Command) []*cobra.Command {
	commands := []*cobra.Command{cmd}
	for _, c := range cmd.Commands() {
		commands = append(commands, allCommands(c)...)
	}
	return commands
}

// Viper returns a viper holding the flags of cmd, the environment and the
// config file. Flags left unset on the command line are updated in place.
func Viper(cmd *cobra.Command) (*viper.Viper, error) {
	vip := viper.New()
	vip.SetEnvPrefix(EnvPrefix)
	vip.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	vip.AutomaticEnv()
	if err := vip.BindPFlags(cmd.Flags()); err != nil {
		return nil, Error.Wrap(err)
	}

	if cfg := cmd.Flags().Lookup("config"); cfg != nil && cfg.Value.String() != "" {
		vip.SetConfigFile(cfg.Value.String())
		if err := vip.ReadInConfig(); err != nil {
			return nil, Error.Wrap(err)
		}
	}

	var group errs.Group
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed || f.Name == "config" || !vip.IsSet(f.Name) {
			return
		}
		value := vip.GetString(f.Name)
		if value == f.Value.String() {
			return
		}
		if err := f.Value.Set(value); err != nil {
			group.Add(Error.New("invalid value %q for %s: %v", value, f.Name, err))
		}
	})
	if err := group.Err(); err != nil {
		return nil, err
	}
	return vip, nil
}

// Ctx returns the context of the command, canceled on SIGINT or SIGTERM.
func Ctx(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// Must checks for errors.
func Must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
