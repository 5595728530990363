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

// Package extract runs a full extraction pass over a backup: contacts,
// message transcripts, and photos, each into its own output directory.
//
// Failures are scoped to their category. A category whose database simply
// isn't in the backup (a contacts-only backup has no message store) is
// skipped with a note; a category that fails for any other reason is
// reported but doesn't stop its siblings. Only a manifest that can't be
// opened aborts the whole run, since nothing works without it.
package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ibextract/ibex/internal/backup"
	"github.com/ibextract/ibex/internal/contacts"
	"github.com/ibextract/ibex/internal/messages"
	"github.com/ibextract/ibex/internal/photos"
	"github.com/ibextract/ibex/internal/transcript"
	"go.uber.org/zap"
)

// Options configures a run.
type Options struct {
	OutputPath string

	SkipContacts bool
	SkipMessages bool
	SkipPhotos   bool

	// Also write the contact directory as a .vcf file.
	VCard bool

	SessionGap   time.Duration
	ServiceMatch messages.ServiceMatch
	Placeholder  string
}

// Run extracts everything requested from the backup at backupRoot. The
// returned error is non-nil if the manifest could not be opened or if any
// category failed.
func Run(ctx context.Context, backupRoot string, opts Options, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	resolver, err := backup.Open(ctx, backupRoot, logger)
	if err != nil {
		return fmt.Errorf("opening backup at %s: %w", backupRoot, err)
	}
	defer resolver.Close()

	if err := os.MkdirAll(opts.OutputPath, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	// the contact directory feeds both the contacts category and the
	// message join, so load it once up front
	var contactList []contacts.Contact
	var contactsErr error
	if !opts.SkipContacts || !opts.SkipMessages {
		contactList, contactsErr = contacts.Extract(ctx, resolver, logger)
	}

	var failed []string

	if !opts.SkipContacts {
		switch {
		case contactsErr != nil:
			failed = appendFailure(failed, "contacts", contactsErr, logger)
		default:
			if err := writeContacts(contactList, opts); err != nil {
				failed = appendFailure(failed, "contacts", err, logger)
			} else {
				logger.Info("extracted contacts", zap.Int("count", len(contactList)))
			}
		}
	}

	if !opts.SkipMessages {
		switch {
		case contactsErr != nil:
			// no address book, no join
			failed = appendFailure(failed, "messages", contactsErr, logger)
		default:
			n, err := writeTranscripts(ctx, resolver, contactList, opts, logger)
			if err != nil {
				failed = appendFailure(failed, "messages", err, logger)
			} else {
				logger.Info("extracted message transcripts", zap.Int("files", n))
			}
		}
	}

	if !opts.SkipPhotos {
		photosDir := filepath.Join(opts.OutputPath, "photos")
		if err := os.MkdirAll(photosDir, 0o755); err != nil {
			failed = appendFailure(failed, "photos", err, logger)
		} else if err := photos.Extract(ctx, resolver, photosDir, logger); err != nil {
			failed = appendFailure(failed, "photos", err, logger)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("extraction failed for: %s", strings.Join(failed, ", "))
	}
	return nil
}

// appendFailure records a category failure, except that an artifact
// genuinely absent from the backup is only a note, not a failure.
func appendFailure(failed []string, category string, err error, logger *zap.Logger) []string {
	if backup.IsNotFound(err) {
		logger.Info("category not present in this backup, skipping",
			zap.String("category", category),
			zap.Error(err))
		return failed
	}
	logger.Error("category extraction failed",
		zap.String("category", category),
		zap.Error(err))
	return append(failed, category)
}

func writeContacts(list []contacts.Contact, opts Options) error {
	dir := filepath.Join(opts.OutputPath, "contacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	var sb strings.Builder
	for _, c := range list {
		sb.WriteString(c.Card())
		sb.WriteRune('\n')
	}
	if err := os.WriteFile(filepath.Join(dir, "contacts.txt"), []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("writing contact cards: %w", err)
	}

	if opts.VCard {
		f, err := os.Create(filepath.Join(dir, "contacts.vcf"))
		if err != nil {
			return fmt.Errorf("creating vCard file: %w", err)
		}
		err = contacts.WriteVCards(f, list)
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		if err != nil {
			return err
		}
	}

	return nil
}

func writeTranscripts(ctx context.Context, resolver *backup.Resolver, contactList []contacts.Contact, opts Options, logger *zap.Logger) (int, error) {
	convos, err := messages.Extract(ctx, resolver, contactList,
		messages.Options{ServiceMatch: opts.ServiceMatch}, logger)
	if err != nil {
		return 0, err
	}

	dir := filepath.Join(opts.OutputPath, "messages")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	renderOpts := transcript.Options{
		SessionGap:  opts.SessionGap,
		Placeholder: opts.Placeholder,
	}

	var written int
	for _, convo := range convos {
		outPath, err := transcript.Render(convo, dir, renderOpts, logger)
		if err != nil {
			return written, err
		}
		if outPath != "" {
			written++
		}
	}

	return written, nil
}
