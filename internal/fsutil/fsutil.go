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

// Package fsutil names output files after untrusted strings (contact names,
// asset filenames) without letting them escape the output folder or collide
// with each other.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FallbackName is used when sanitizing leaves nothing usable.
const FallbackName = "unnamed"

// SanitizeName makes a string safe to use as a single filename component on
// any platform: leading/trailing dots and spaces are stripped, characters
// reserved by common filesystems and ASCII control characters are replaced
// with "_". If nothing survives, FallbackName is returned.
func SanitizeName(name string) string {
	name = strings.Trim(name, ". ")

	var sb strings.Builder
	for _, r := range name {
		switch {
		case r < 0x20 || r == 0x7f:
			sb.WriteRune('_')
		case strings.ContainsRune(`<>:"/\|?*`, r):
			sb.WriteRune('_')
		default:
			sb.WriteRune(r)
		}
	}

	out := strings.Trim(sb.String(), ". ")
	if out == "" {
		return FallbackName
	}
	return out
}

// UniquePath returns dir/base+ext, appending an incrementing numeric suffix
// ("base 1", "base 2", ...) until the path does not exist yet. The
// check-then-create is not atomic; callers running writers concurrently
// must serialize around it.
func UniquePath(dir, base, ext string) string {
	p := filepath.Join(dir, base+ext)
	for i := 1; ; i++ {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return p
		}
		p = filepath.Join(dir, fmt.Sprintf("%s %d%s", base, i, ext))
	}
}
