/*
	Ibex
	Copyright (c) 2026 The Ibex Authors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU Affero General Public License as published
	by the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU Affero General Public License for more details.

	You should have received a copy of the GNU Affero General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package main

import (
	"fmt"

	"github.com/ibextract/ibex/internal/backup"
	"github.com/ibextract/ibex/internal/device"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func infoCmd(logger func() *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "info <backup-path>",
		Short: "Print information about the backed-up device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			log := logger()

			resolver, err := backup.Open(cmd.Context(), args[0], log)
			if err != nil {
				return fmt.Errorf("opening backup at %s: %w", args[0], err)
			}
			defer resolver.Close()

			info, err := device.Load(cmd.Context(), resolver, log)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printField := func(label, value string) {
				if value != "" {
					fmt.Fprintf(out, "%s: %s\n", label, value)
				}
			}
			printField("Device Name", info.Name)
			printField("Product Type", info.ProductType)
			printField("iOS Version", info.ProductVersion)
			printField("Serial Number", info.SerialNumber)
			printField("Phone Number", info.FormattedPhoneNumber())

			return nil
		},
	}
}
