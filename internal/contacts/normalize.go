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

package contacts

import "strings"

// Normalize converts a raw phone number as stored in the address book to
// the form the message store keys its handles by: formatting characters
// stripped, "+1" prepended if no country code is present. This is NOT
// E.164 validation -- it is the same heuristic the backup's own databases
// use, and it must be applied identically to the contact side and the
// handle side of the message join or matching rows are silently dropped.
// It is a pure function and idempotent.
//
// NormalizeSQL is the same transformation as a SQL expression over a
// handle's id column, so a query can match handles without loading them
// all into memory first. The two must stay in lockstep.
func Normalize(raw string) string {
	num := strings.NewReplacer("(", "", ")", "", " ", "", "-", "").Replace(raw)
	if num == "" {
		return ""
	}
	if !strings.HasPrefix(num, "+") {
		num = "+1" + num
	}
	return num
}

// NormalizeSQL is Normalize as a SQL expression over handle.id.
// North American numbering is assumed when no "+" country prefix is stored,
// same as Normalize.
const NormalizeSQL = `(CASE
	WHEN REPLACE(REPLACE(REPLACE(REPLACE(h.id, '(', ''), ')', ''), ' ', ''), '-', '') LIKE '+%'
	THEN REPLACE(REPLACE(REPLACE(REPLACE(h.id, '(', ''), ')', ''), ' ', ''), '-', '')
	ELSE '+1' || REPLACE(REPLACE(REPLACE(REPLACE(h.id, '(', ''), ')', ''), ' ', ''), '-', '')
END)`
