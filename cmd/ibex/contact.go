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
	"github.com/ibextract/ibex/internal/contacts"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func contactCmd(logger func() *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   `contact <backup-path> "<First Last>"`,
		Short: "Look up a single contact by full name and print their card",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			log := logger()

			resolver, err := backup.Open(cmd.Context(), args[0], log)
			if err != nil {
				return fmt.Errorf("opening backup at %s: %w", args[0], err)
			}
			defer resolver.Close()

			c, err := contacts.ByName(cmd.Context(), resolver, args[1], log)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), c.Card())
			return nil
		},
	}
}
