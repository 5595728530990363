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

// Package contacts extracts the address book from an iPhone backup. The
// address book database has a person table plus a multi-value side table
// keyed by property codes; phone numbers, email addresses, and
// anniversaries all live in the side table.
package contacts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ibextract/ibex/internal/appletime"
	"github.com/ibextract/ibex/internal/backup"
	"go.uber.org/zap"
)

// Multi-value property codes in the ABMultiValue table.
const (
	propertyPhoneNumber = 3
	propertyEmail       = 4
	propertyAnniversary = 12
)

// ErrNotFound means no contact matched a point lookup.
var ErrNotFound = errors.New("contact not found")

// Date is a civil date from the address book. Apple lets users enter dates
// without a year (stored with a second epoch offset); YearKnown is false
// for those, and only the month and day of Time are meaningful.
type Date struct {
	Time      time.Time
	YearKnown bool
}

// Format renders the date the way the contact card shows it.
func (d Date) Format() string {
	if d.YearKnown {
		return d.Time.Format("January 02, 2006")
	}
	return d.Time.Format("January 02")
}

// Contact is one address book entry. Only the first name is guaranteed;
// rows without one are placeholder entries and are skipped at extraction.
// PhoneNumber, if present, is already normalized (see Normalize) and is
// the contact's join identity for the message store.
type Contact struct {
	FirstName  string
	MiddleName *string
	LastName   *string
	Nickname   *string
	Prefix     *string
	Suffix     *string

	PhoneNumber *string
	Email       *string

	Organization *string
	Department   *string
	JobTitle     *string

	Birthday    *Date
	Anniversary *Date
	Note        *string
}

// DisplayName returns "First Last" (or just "First" when there is no last
// name). This is the name conversations are grouped and files are named by.
func (c Contact) DisplayName() string {
	if c.LastName != nil {
		return c.FirstName + " " + *c.LastName
	}
	return c.FirstName
}

// Extract reads every contact out of the backup's address book, in person
// rowid order. A contact with several phone numbers (or emails, or
// anniversaries) keeps the first one stored; the rest are dropped.
func Extract(ctx context.Context, resolver *backup.Resolver, logger *zap.Logger) ([]Contact, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := resolver.OpenDB(ctx, backup.ContactsDBPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	list, err := queryContacts(ctx, db, "")
	if err != nil {
		return nil, err
	}

	logger.Debug("extracted address book", zap.Int("contacts", len(list)))

	return list, nil
}

// ByName looks up a single contact whose "First Last" exactly equals
// fullName. If several match, the lowest person rowid wins; if none match,
// the error wraps ErrNotFound.
func ByName(ctx context.Context, resolver *backup.Resolver, fullName string, logger *zap.Logger) (Contact, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := resolver.OpenDB(ctx, backup.ContactsDBPath)
	if err != nil {
		return Contact{}, err
	}
	defer db.Close()

	list, err := queryContacts(ctx, db, fullName)
	if err != nil {
		return Contact{}, err
	}
	if len(list) == 0 {
		return Contact{}, fmt.Errorf("looking up '%s': %w", fullName, ErrNotFound)
	}
	if len(list) > 1 {
		logger.Debug("multiple contacts share this name; using the first",
			zap.String("name", fullName),
			zap.Int("matches", len(list)))
	}
	return list[0], nil
}

// queryContacts runs the address book query, optionally restricted to one
// full name. A single contact may be spread across multiple rows thanks to
// the multi-value LEFT JOIN, so rows are folded back together by person
// rowid as we iterate.
func queryContacts(ctx context.Context, db *sql.DB, fullName string) ([]Contact, error) {
	q := `SELECT
			p.ROWID, p.First, p.Middle, p.Last, p.Nickname, p.Prefix, p.Suffix,
			p.Organization, p.Department, p.JobTitle,
			CAST(p.Birthday AS TEXT), p.Note,
			mv.property, CAST(mv.value AS TEXT)
		FROM ABPerson AS p
		LEFT JOIN ABMultiValue AS mv
			ON mv.record_id = p.ROWID
			AND mv.property IN (3, 4, 12)
		WHERE p.First IS NOT NULL`
	args := []any{}
	if fullName != "" {
		q += ` AND (p.First || ' ' || p.Last) = ?`
		args = append(args, fullName)
	}
	q += ` ORDER BY p.ROWID ASC, mv.UID ASC`

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying address book for contacts: %w", err)
	}
	defer rows.Close()

	var list []Contact
	var current *Contact
	var currentRowID int64

	for rows.Next() {
		var rowID *int64
		var first, middle, last, nick, prefix, suffix *string
		var org, dept, job, birthday, note *string
		var mvProperty *int
		var mvValue *string

		err := rows.Scan(&rowID, &first, &middle, &last, &nick, &prefix, &suffix,
			&org, &dept, &job, &birthday, &note, &mvProperty, &mvValue)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		// I haven't seen this, but just to avoid a panic
		if rowID == nil || first == nil {
			continue
		}

		// start of new contact
		if current == nil || *rowID != currentRowID {
			if current != nil {
				list = append(list, *current)
			}
			currentRowID = *rowID

			current = &Contact{
				FirstName:    *first,
				MiddleName:   middle,
				LastName:     last,
				Nickname:     nick,
				Prefix:       prefix,
				Suffix:       suffix,
				Organization: org,
				Department:   dept,
				JobTitle:     job,
				Note:         note,
			}

			if birthday != nil {
				d, err := decodeDate(*birthday)
				if err != nil {
					return nil, fmt.Errorf("contact %d: %w", currentRowID, err)
				}
				current.Birthday = &d
			}
		}

		// continuation (or still first row) of same contact; fold in the
		// multi-value row, keeping the first value stored per property
		if mvProperty != nil && mvValue != nil {
			switch *mvProperty {
			case propertyPhoneNumber:
				if current.PhoneNumber == nil {
					if num := Normalize(*mvValue); num != "" {
						current.PhoneNumber = &num
					}
				}
			case propertyEmail:
				if current.Email == nil {
					current.Email = mvValue
				}
			case propertyAnniversary:
				if current.Anniversary == nil {
					d, err := decodeDate(*mvValue)
					if err != nil {
						return nil, fmt.Errorf("contact %d: %w", currentRowID, err)
					}
					current.Anniversary = &d
				}
			}
		}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("scanning rows: %w", err)
	}

	// don't forget the last one!
	if current != nil {
		list = append(list, *current)
	}

	return list, nil
}

// decodeDate decodes a stored date column. An undecodable value means the
// database is corrupt; that is fatal, not skippable.
func decodeDate(raw string) (Date, error) {
	ts, yearKnown, err := appletime.DecodeString(raw)
	if err != nil {
		return Date{}, fmt.Errorf("decoding stored date: %w", err)
	}
	return Date{Time: ts, YearKnown: yearKnown}, nil
}
