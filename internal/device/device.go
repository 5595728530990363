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

// Package device reads information about the backed-up device from the
// property lists the backup tool leaves alongside (and inside) the blob
// store.
package device

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ibextract/ibex/internal/backup"
	"github.com/ttacon/libphonenumber"
	"go.uber.org/zap"
	"howett.net/plist"
)

// Info describes the device a backup was taken from, as recorded in the
// backup's Info.plist.
type Info struct {
	Name           string `plist:"Device Name"`
	DisplayName    string `plist:"Display Name"`
	ProductType    string `plist:"Product Type"`
	ProductVersion string `plist:"Product Version"`
	SerialNumber   string `plist:"Serial Number"`
	PhoneNumber    string `plist:"Phone Number"`
}

// commCenterInfo is the device's cellular service information, kept in a
// preferences plist inside the blob store.
type commCenterInfo struct {
	SIMPhoneNumber string `plist:"SIMPhoneNumber"`
	PhoneNumber    string `plist:"PhoneNumber"`
}

func (c commCenterInfo) phoneNumber() string {
	if c.SIMPhoneNumber != "" {
		return c.SIMPhoneNumber
	}
	return c.PhoneNumber
}

// Load reads device info from the backup. The phone number comes from
// Info.plist when present, falling back to the telephony preferences
// resolved through the manifest. A backup without an Info.plist is legal
// (older backup tools); missing fields just stay empty.
func Load(ctx context.Context, resolver *backup.Resolver, logger *zap.Logger) (Info, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var info Info

	f, err := os.Open(filepath.Join(resolver.Root(), "Info.plist"))
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Debug("backup has no Info.plist")
	case err != nil:
		return Info{}, fmt.Errorf("opening Info.plist: %w", err)
	default:
		err = plist.NewDecoder(f).Decode(&info)
		f.Close()
		if err != nil {
			return Info{}, fmt.Errorf("decoding Info.plist: %w", err)
		}
	}

	if info.PhoneNumber == "" {
		num, err := loadCommCenterNumber(ctx, resolver)
		if err != nil && !backup.IsNotFound(err) {
			return Info{}, err
		}
		info.PhoneNumber = num
	}

	return info, nil
}

func loadCommCenterNumber(ctx context.Context, resolver *backup.Resolver) (string, error) {
	plistPath, err := resolver.Resolve(ctx, backup.CommCenterPlistPath)
	if err != nil {
		return "", err
	}

	f, err := os.Open(plistPath)
	if err != nil {
		return "", fmt.Errorf("opening commcenter plist: %w", err)
	}
	defer f.Close()

	var cc commCenterInfo
	if err := plist.NewDecoder(f).Decode(&cc); err != nil {
		return "", fmt.Errorf("decoding commcenter plist: %w", err)
	}

	return cc.phoneNumber(), nil
}

// FormattedPhoneNumber returns the device's phone number in E.164 if it
// parses, or as stored if it doesn't. Display only; never used for joins.
func (i Info) FormattedPhoneNumber() string {
	if i.PhoneNumber == "" {
		return ""
	}
	num, err := libphonenumber.Parse(i.PhoneNumber, "US")
	if err != nil {
		return i.PhoneNumber
	}
	return libphonenumber.Format(num, libphonenumber.E164)
}
