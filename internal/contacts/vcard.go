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

import (
	"fmt"
	"io"

	"github.com/emersion/go-vcard"
)

// WriteVCards encodes the contacts as a vCard 4.0 stream, one card per
// contact, so the extracted directory can be imported into anything that
// speaks .vcf. Dates without a known year use vCard's no-year date form
// (--MMDD).
func WriteVCards(w io.Writer, list []Contact) error {
	enc := vcard.NewEncoder(w)

	for _, c := range list {
		card := make(vcard.Card)

		name := &vcard.Name{GivenName: c.FirstName}
		if c.MiddleName != nil {
			name.AdditionalName = *c.MiddleName
		}
		if c.LastName != nil {
			name.FamilyName = *c.LastName
		}
		if c.Prefix != nil {
			name.HonorificPrefix = *c.Prefix
		}
		if c.Suffix != nil {
			name.HonorificSuffix = *c.Suffix
		}
		card.AddName(name)
		card.SetValue(vcard.FieldFormattedName, c.DisplayName())

		if c.Nickname != nil {
			card.SetValue(vcard.FieldNickname, *c.Nickname)
		}
		if c.PhoneNumber != nil {
			card.SetValue(vcard.FieldTelephone, *c.PhoneNumber)
		}
		if c.Email != nil {
			card.SetValue(vcard.FieldEmail, *c.Email)
		}
		if c.Organization != nil {
			card.SetValue(vcard.FieldOrganization, *c.Organization)
		}
		if c.JobTitle != nil {
			card.SetValue(vcard.FieldTitle, *c.JobTitle)
		}
		if c.Birthday != nil {
			card.SetValue(vcard.FieldBirthday, vcardDate(*c.Birthday))
		}
		if c.Anniversary != nil {
			card.SetValue(vcard.FieldAnniversary, vcardDate(*c.Anniversary))
		}
		if c.Note != nil {
			card.SetValue(vcard.FieldNote, *c.Note)
		}

		vcard.ToV4(card)

		if err := enc.Encode(card); err != nil {
			return fmt.Errorf("encoding vCard for '%s': %w", c.DisplayName(), err)
		}
	}

	return nil
}

func vcardDate(d Date) string {
	if d.YearKnown {
		return d.Time.Format("20060102")
	}
	return "--" + d.Time.Format("0102")
}
