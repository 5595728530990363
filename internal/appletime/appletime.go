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

// Package appletime converts the timestamps found in iPhone backup databases
// to normal timestamps. Apple uses an epoch of Jan 1, 2001 and stores some
// values (dates with no year, like a birthday where only the month and day
// were entered) shifted by a second, much larger offset.
package appletime

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

const (
	// Seconds from the Unix epoch to Jan 1, 2001 @ 00:00 UTC (Apple's epoch).
	EpochOffsetSeconds = 978307200

	// Added on top of the epoch offset when the stored date has no year
	// component. A raw value that goes negative after the epoch offset is
	// one of these.
	NoYearOffsetSeconds = 12528129600

	nanosPerSecond = 1e9
)

// Epoch is Apple's epoch (Jan 1, 2001 @ 00:00 UTC) as a Unix timestamp.
var Epoch = time.Unix(EpochOffsetSeconds, 0)

// Decode converts a raw second-resolution Apple timestamp, as stored in the
// address book (birthdays, anniversaries, creation dates), to a local
// time.Time. yearKnown is false if the source date had no year component,
// in which case only the month and day of the result are meaningful.
//
// A raw value that lands outside the representable calendar after offset
// application indicates a corrupt database and is a hard error.
func Decode(raw int64) (ts time.Time, yearKnown bool, err error) {
	if raw > math.MaxInt64-EpochOffsetSeconds-NoYearOffsetSeconds {
		return time.Time{}, false, fmt.Errorf("timestamp %d overflows the Apple epoch offset", raw)
	}

	unixSec := raw + EpochOffsetSeconds
	yearKnown = true
	if unixSec < 0 {
		unixSec += NoYearOffsetSeconds
		yearKnown = false
	}

	ts = time.Unix(unixSec, 0)
	if year := ts.Year(); year < 1 || year > 9999 {
		return time.Time{}, false, fmt.Errorf("timestamp %d decodes to out-of-range year %d", raw, year)
	}

	return ts, yearKnown, nil
}

// DecodeString decodes a timestamp stored as a decimal string of seconds
// since the Apple epoch. The address book stores some date columns this way
// (e.g. "-23919039.000000"); any fractional part is discarded.
func DecodeString(raw string) (time.Time, bool, error) {
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parsing string '%s' as float: %w", raw, err)
	}
	return Decode(int64(seconds))
}

// DecodeMessage converts a raw message timestamp to a local time.Time. The
// message store records dates in nanoseconds since the Apple epoch (as of
// iOS 11), so the value is scaled down to seconds first. Message dates
// always carry a year.
func DecodeMessage(raw int64) (time.Time, error) {
	ts, _, err := Decode(raw / nanosPerSecond)
	return ts, err
}
