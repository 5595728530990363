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

// Package messages extracts per-contact conversations from the message
// store of an iPhone backup. Messages are joined to contacts by normalized
// phone number: the contact's number (normalized at extraction) is matched
// against the handle table with the same normalization applied inline in
// SQL, so both sides of the join always agree.
package messages

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ibextract/ibex/internal/appletime"
	"github.com/ibextract/ibex/internal/backup"
	"github.com/ibextract/ibex/internal/contacts"
	"go.uber.org/zap"
)

// ServiceMatch selects how strictly a handle row must identify its
// messaging service before we treat it as a real conversation partner.
type ServiceMatch string

const (
	// ServiceAny accepts any handle with a service recorded
	// (service IS NOT NULL); rows without one are legacy/unknown entries.
	ServiceAny ServiceMatch = "any"

	// ServiceIMessage only accepts handles whose service is iMessage.
	ServiceIMessage ServiceMatch = "imessage"
)

// Valid reports whether m is a recognized mode.
func (m ServiceMatch) Valid() bool {
	return m == ServiceAny || m == ServiceIMessage
}

// Message is one message in a conversation. Text is nil for messages whose
// content is not plain text (an attachment, for example); the renderer
// substitutes a placeholder.
type Message struct {
	Text      *string
	FromMe    bool
	Timestamp time.Time
}

// Conversation is one contact's chronologically ordered message stream.
// Messages are non-decreasing in timestamp; ties keep the store's row
// order. A conversation may be empty (a contact with a phone number but
// no messages); empty conversations never produce output files.
type Conversation struct {
	Contact  contacts.Contact
	Messages []Message
}

// Options configures extraction.
type Options struct {
	// How handle rows are matched to a messaging service. Defaults to
	// ServiceAny.
	ServiceMatch ServiceMatch
}

// Extract reads each contact's conversation out of the backup's message
// store. Conversations come back in contact order (the address book's
// person rowid order), one per contact with a phone number. Only standard
// text messages (type 0) are included; other types are system and group
// events.
//
// If two contacts share a normalized number they are indistinguishable to
// this join; the first one claims the conversation and later ones come
// back empty rather than duplicating every message.
func Extract(ctx context.Context, resolver *backup.Resolver, list []contacts.Contact, opts Options, logger *zap.Logger) ([]Conversation, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ServiceMatch == "" {
		opts.ServiceMatch = ServiceAny
	}
	if !opts.ServiceMatch.Valid() {
		return nil, fmt.Errorf("unknown service match mode '%s'", opts.ServiceMatch)
	}

	db, err := resolver.OpenDB(ctx, backup.MessagesDBPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	serviceCond := "h.service IS NOT NULL"
	if opts.ServiceMatch == ServiceIMessage {
		serviceCond = "h.service = 'iMessage'"
	}

	// one parameterized query per contact; the subquery normalizes the
	// handle's stored id exactly like contacts.Normalize did on our side
	q := `SELECT m.text, m.is_from_me, m.date
		FROM message AS m
		WHERE m.handle_id = (
			SELECT h.ROWID
			FROM handle AS h
			WHERE ` + contacts.NormalizeSQL + ` = ? AND ` + serviceCond + `
			ORDER BY h.ROWID ASC
			LIMIT 1
		) AND m.type = 0
		ORDER BY m.date ASC, m.ROWID ASC`

	stmt, err := db.PrepareContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("preparing message query: %w", err)
	}
	defer stmt.Close()

	convos := make([]Conversation, 0, len(list))
	claimed := make(map[string]bool)

	for _, contact := range list {
		convo := Conversation{Contact: contact}

		if contact.PhoneNumber != nil && !claimed[*contact.PhoneNumber] {
			claimed[*contact.PhoneNumber] = true

			convo.Messages, err = queryConversation(ctx, stmt, *contact.PhoneNumber)
			if err != nil {
				return nil, fmt.Errorf("extracting conversation with '%s': %w", contact.DisplayName(), err)
			}
		}

		logger.Debug("extracted conversation",
			zap.String("contact", contact.DisplayName()),
			zap.Int("messages", len(convo.Messages)))

		convos = append(convos, convo)
	}

	return convos, nil
}

func queryConversation(ctx context.Context, stmt *sql.Stmt, phoneNumber string) ([]Message, error) {
	rows, err := stmt.QueryContext(ctx, phoneNumber)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var text *string
		var isFromMe *int
		var date *int64

		if err := rows.Scan(&text, &isFromMe, &date); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		var ts time.Time
		if date != nil {
			ts, err = appletime.DecodeMessage(*date)
			if err != nil {
				return nil, err
			}
		}

		msgs = append(msgs, Message{
			Text:      text,
			FromMe:    isFromMe != nil && *isFromMe == 1,
			Timestamp: ts,
		})
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("scanning rows: %w", err)
	}

	return msgs, nil
}
