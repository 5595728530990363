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
	"time"

	"github.com/ibextract/ibex/internal/config"
	"github.com/ibextract/ibex/internal/extract"
	"github.com/ibextract/ibex/internal/messages"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func extractCmd(logger func() *zap.Logger) *cobra.Command {
	var (
		outputPath   string
		noContacts   bool
		noMessages   bool
		noPhotos     bool
		vcardOut     bool
		serviceMatch string
		sessionGap   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "extract <backup-path>",
		Short: "Extract contacts, message transcripts, and photos from a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			// config provides defaults; flags win when set
			if !cmd.Flags().Changed("service-match") {
				serviceMatch = cfg.ServiceMatch
			}
			if !cmd.Flags().Changed("session-gap") {
				sessionGap = time.Duration(cfg.SessionGapHours * float64(time.Hour))
			}

			opts := extract.Options{
				OutputPath:   outputPath,
				SkipContacts: noContacts,
				SkipMessages: noMessages,
				SkipPhotos:   noPhotos,
				VCard:        vcardOut,
				SessionGap:   sessionGap,
				ServiceMatch: messages.ServiceMatch(serviceMatch),
				Placeholder:  cfg.TextPlaceholder,
			}

			return extract.Run(cmd.Context(), args[0], opts, logger())
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output directory (required)")
	cmd.Flags().BoolVar(&noContacts, "no-contacts", false, "skip the contact directory")
	cmd.Flags().BoolVar(&noMessages, "no-messages", false, "skip message transcripts")
	cmd.Flags().BoolVar(&noPhotos, "no-photos", false, "skip the photo library")
	cmd.Flags().BoolVar(&vcardOut, "vcard", false, "also write contacts as a .vcf file")
	cmd.Flags().StringVar(&serviceMatch, "service-match", string(messages.ServiceAny),
		fmt.Sprintf("handle matching mode: %q or %q", messages.ServiceAny, messages.ServiceIMessage))
	cmd.Flags().DurationVar(&sessionGap, "session-gap", 2*time.Hour,
		"inactivity gap that starts a new transcript session")

	if err := cmd.MarkFlagRequired("output"); err != nil {
		panic(err)
	}

	return cmd
}
