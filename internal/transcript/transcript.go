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

// Package transcript renders extracted conversations as plain text files,
// one per contact, split into sessions wherever the conversation went
// quiet for a while.
package transcript

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/ibextract/ibex/internal/appletime"
	"github.com/ibextract/ibex/internal/fsutil"
	"github.com/ibextract/ibex/internal/messages"
	"go.uber.org/zap"
)

const (
	// DefaultSessionGap is the inactivity threshold that starts a new
	// session block in the transcript.
	DefaultSessionGap = 2 * time.Hour

	// DefaultPlaceholder stands in for messages with no text content
	// (attachments and the like).
	DefaultPlaceholder = "<unknown>"

	// SenderMe is the sender token for messages sent from the device.
	SenderMe = "me"

	headerTimeFormat = "Monday, January 02, 2006 @ 03:04 PM"
)

// Options configures rendering.
type Options struct {
	SessionGap  time.Duration // zero means DefaultSessionGap
	Placeholder string        // empty means DefaultPlaceholder
}

func (o Options) sessionGap() time.Duration {
	if o.SessionGap <= 0 {
		return DefaultSessionGap
	}
	return o.SessionGap
}

func (o Options) placeholder() string {
	if o.Placeholder == "" {
		return DefaultPlaceholder
	}
	return o.Placeholder
}

// Render writes one conversation into dir as "<contact>.txt", returning the
// path written. The contact's display name is sanitized for the filesystem,
// and a numeric suffix is appended if another contact already took the
// name. An empty conversation writes nothing and returns "". A file that
// ends up with no message lines is removed, never left as a zero-byte
// artifact.
func Render(convo messages.Conversation, dir string, opts Options, logger *zap.Logger) (string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(convo.Messages) == 0 {
		logger.Debug("skipping contact with no messages",
			zap.String("contact", convo.Contact.DisplayName()))
		return "", nil
	}

	base := fsutil.SanitizeName(convo.Contact.DisplayName())
	outPath := fsutil.UniquePath(dir, base, ".txt")

	f, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("creating transcript file: %w", err)
	}

	lines, err := write(f, convo, opts)

	if closeErr := f.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("closing transcript file: %w", closeErr)
	}
	if err != nil {
		os.Remove(outPath)
		return "", err
	}
	if lines == 0 {
		// nothing made it into the file; don't leave an empty artifact
		os.Remove(outPath)
		return "", nil
	}

	logger.Debug("wrote transcript",
		zap.String("contact", convo.Contact.DisplayName()),
		zap.String("path", outPath),
		zap.Int("messages", lines))

	return outPath, nil
}

// write emits the session-delimited transcript and returns the number of
// message lines written.
func write(f *os.File, convo messages.Conversation, opts Options) (int, error) {
	w := bufio.NewWriter(f)

	gap := opts.sessionGap()
	displayName := convo.Contact.DisplayName()

	// seeded with the Apple epoch so gap math is well-defined for the
	// first message; the first header is forced regardless
	last := appletime.Epoch

	var lines int
	for i, msg := range convo.Messages {
		if i == 0 || msg.Timestamp.Sub(last) > gap {
			if i > 0 {
				if _, err := w.WriteString("\n"); err != nil {
					return lines, err
				}
			}
			if _, err := fmt.Fprintf(w, "%s\n", msg.Timestamp.Format(headerTimeFormat)); err != nil {
				return lines, err
			}
		}

		sender := displayName
		if msg.FromMe {
			sender = SenderMe
		}
		text := opts.placeholder()
		if msg.Text != nil {
			text = *msg.Text
		}

		if _, err := fmt.Fprintf(w, "[%s]: %s\n", sender, text); err != nil {
			return lines, err
		}
		lines++

		last = msg.Timestamp
	}

	if err := w.Flush(); err != nil {
		return lines, err
	}
	return lines, nil
}
