/*
 * main.go, part of gocorr.
 *
 * Copyright 2026 The gocorr Authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

// Command gocorr computes time and space correlation functions of particle
// trajectories in STF format.
//
//	gocorr gen traj.stf --particles 1000 --frames 200
//	gocorr run traj.stf --corr gr,msd,fskt --config opts.yaml --out results --plot
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	corr "github.com/rmera/gocorr"
	"github.com/rmera/gocorr/corrfn"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var level string
	root := &cobra.Command{
		Use:          "gocorr",
		Short:        "Correlation functions of particle trajectories",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var l slog.Level
			if err := l.UnmarshalText([]byte(level)); err != nil {
				return fmt.Errorf("log level: %w", err)
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: l})))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&level, "log-level", "info", "debug, info, warn or error")
	root.AddCommand(newRunCmd(), newGenCmd(), newListCmd())
	return root
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available correlation functions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := corr.DefaultOptions()
			for _, t := range corrfn.Tags() {
				c := corrfn.MustNew(t, opts)
				var needs []string
				if c.NeedsUnwrapped() {
					needs = append(needs, "unwrapped")
				}
				if c.NeedsVelocities() {
					needs = append(needs, "velocities")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-7s %s", t, c.Title())
				if len(needs) > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), " (needs %s)", strings.Join(needs, ", "))
				}
				fmt.Fprintln(cmd.OutOrStdout())
			}
			return nil
		},
	}
}
