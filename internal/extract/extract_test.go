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

package extract

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	addressBookFileID = "31bb7ba8914766d4ba40d6dfb6113c8b614be442"
	messagesFileID    = "3d0d7e5fb2ce288813306e4d4636395e047a3d28"
)

// newFullBackup builds a backup containing an address book with one
// contact (Jane Doe) and a message store with a short conversation.
func newFullBackup(t *testing.T) string {
	t.Helper()

	root := t.TempDir()

	manifest, err := sql.Open("sqlite3", filepath.Join(root, "Manifest.db"))
	require.NoError(t, err)
	defer manifest.Close()
	_, err = manifest.Exec("CREATE TABLE Files (fileID TEXT, domain TEXT, relativePath TEXT)")
	require.NoError(t, err)
	_, err = manifest.Exec(`INSERT INTO Files VALUES
		(?, 'HomeDomain', 'Library/AddressBook/AddressBook.sqlitedb'),
		(?, 'HomeDomain', 'Library/SMS/sms.db')`,
		addressBookFileID, messagesFileID)
	require.NoError(t, err)

	for _, fileID := range []string{addressBookFileID, messagesFileID} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, fileID[:2]), 0o755))
	}

	adb, err := sql.Open("sqlite3", filepath.Join(root, addressBookFileID[:2], addressBookFileID))
	require.NoError(t, err)
	defer adb.Close()
	_, err = adb.Exec(`CREATE TABLE ABPerson (
		ROWID INTEGER PRIMARY KEY,
		First TEXT, Middle TEXT, Last TEXT, Nickname TEXT, Prefix TEXT, Suffix TEXT,
		Organization TEXT, Department TEXT, JobTitle TEXT, Birthday REAL, Note TEXT
	)`)
	require.NoError(t, err)
	_, err = adb.Exec(`CREATE TABLE ABMultiValue (
		UID INTEGER PRIMARY KEY, record_id INTEGER, property INTEGER, label INTEGER, value TEXT
	)`)
	require.NoError(t, err)
	_, err = adb.Exec(`INSERT INTO ABPerson (ROWID, First, Last) VALUES (1, 'Jane', 'Doe')`)
	require.NoError(t, err)
	_, err = adb.Exec(`INSERT INTO ABMultiValue (record_id, property, value) VALUES (1, 3, '(555) 123-4567')`)
	require.NoError(t, err)

	smsdb, err := sql.Open("sqlite3", filepath.Join(root, messagesFileID[:2], messagesFileID))
	require.NoError(t, err)
	defer smsdb.Close()
	_, err = smsdb.Exec("CREATE TABLE handle (ROWID INTEGER PRIMARY KEY, id TEXT, service TEXT)")
	require.NoError(t, err)
	_, err = smsdb.Exec(`CREATE TABLE message (
		ROWID INTEGER PRIMARY KEY, text TEXT, is_from_me INTEGER, date INTEGER, type INTEGER, handle_id INTEGER
	)`)
	require.NoError(t, err)
	_, err = smsdb.Exec("INSERT INTO handle (ROWID, id, service) VALUES (1, '+15551234567', 'iMessage')")
	require.NoError(t, err)
	// close enough together to land in one session block
	_, err = smsdb.Exec(`INSERT INTO message (text, is_from_me, date, type, handle_id) VALUES
		('hi Jane', 1, 0, 0, 1),
		('hi yourself', 0, 10000, 0, 1)`)
	require.NoError(t, err)

	return root
}

func TestRunEndToEnd(t *testing.T) {
	root := newFullBackup(t)
	out := filepath.Join(t.TempDir(), "out")

	err := Run(context.Background(), root, Options{OutputPath: out, VCard: true}, zaptest.NewLogger(t))
	require.NoError(t, err, "photos are absent but that is a skip, not a failure")

	// contact cards
	cards, err := os.ReadFile(filepath.Join(out, "contacts", "contacts.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(cards), "[Jane Doe]:")
	assert.Contains(t, string(cards), "Phone Number: +15551234567")

	// vCards
	vcf, err := os.ReadFile(filepath.Join(out, "contacts", "contacts.vcf"))
	require.NoError(t, err)
	assert.Contains(t, string(vcf), "FN:Jane Doe")
	assert.Contains(t, string(vcf), "TEL:+15551234567")

	// transcript: one session block, one header, two message lines
	tr, err := os.ReadFile(filepath.Join(out, "messages", "Jane Doe.txt"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(tr), "\n"), "\n")
	require.Len(t, lines, 3)
	wantHeader := time.Unix(978307200, 0).Format("Monday, January 02, 2006 @ 03:04 PM")
	assert.Equal(t, wantHeader, lines[0])
	assert.Equal(t, "[me]: hi Jane", lines[1])
	assert.Equal(t, "[Jane Doe]: hi yourself", lines[2])
}

func TestRunMissingManifestIsFatal(t *testing.T) {
	err := Run(context.Background(), t.TempDir(), Options{OutputPath: t.TempDir()}, zaptest.NewLogger(t))
	require.Error(t, err)
}

func TestRunSkipFlags(t *testing.T) {
	root := newFullBackup(t)
	out := filepath.Join(t.TempDir(), "out")

	err := Run(context.Background(), root, Options{
		OutputPath:   out,
		SkipContacts: true,
		SkipPhotos:   true,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(out, "contacts"))
	assert.True(t, os.IsNotExist(err))

	_, err = os.Stat(filepath.Join(out, "messages", "Jane Doe.txt"))
	assert.NoError(t, err, "messages still extract when contacts output is skipped")
}
