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

// Card renders the contact as a human-readable text card:
//
//	[Dr. Jane Q Doe (Janie)]:
//	Phone Number: +15551234567
//	Email: jane@example.com
//	Birthday: March 14
//
// Fields that were never filled in on the device are simply omitted.
func (c Contact) Card() string {
	var sb strings.Builder

	sb.WriteRune('[')
	if c.Prefix != nil {
		sb.WriteString(*c.Prefix)
		sb.WriteRune(' ')
	}
	sb.WriteString(c.FirstName)
	if c.MiddleName != nil {
		sb.WriteRune(' ')
		sb.WriteString(*c.MiddleName)
	}
	if c.LastName != nil {
		sb.WriteRune(' ')
		sb.WriteString(*c.LastName)
	}
	if c.Suffix != nil {
		sb.WriteRune(' ')
		sb.WriteString(*c.Suffix)
	}
	if c.Nickname != nil {
		sb.WriteString(" (")
		sb.WriteString(*c.Nickname)
		sb.WriteRune(')')
	}
	sb.WriteString("]:")

	writeField := func(label string, value *string) {
		if value != nil {
			sb.WriteRune('\n')
			sb.WriteString(label)
			sb.WriteString(": ")
			sb.WriteString(*value)
		}
	}
	writeField("Phone Number", c.PhoneNumber)
	writeField("Email", c.Email)
	writeField("Organization", c.Organization)
	writeField("Department", c.Department)
	writeField("Job Title", c.JobTitle)

	if c.Birthday != nil {
		sb.WriteString("\nBirthday: ")
		sb.WriteString(c.Birthday.Format())
	}
	if c.Anniversary != nil {
		sb.WriteString("\nAnniversary: ")
		sb.WriteString(c.Anniversary.Format())
	}

	writeField("Note", c.Note)

	sb.WriteRune('\n')

	return sb.String()
}
