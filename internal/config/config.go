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

// Package config loads ibex's optional TOML configuration. Everything has
// a sensible default; the file only exists to change the tunables that
// vary between backups (how strict handle matching is, how long a lull
// splits a transcript session).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config are the user-tunable extraction settings.
type Config struct {
	// Inactivity gap, in hours, that starts a new session block in
	// message transcripts.
	SessionGapHours float64 `toml:"session_gap_hours"`

	// How message handles are matched to a service: "any" (any handle
	// with a service recorded) or "imessage" (iMessage handles only).
	ServiceMatch string `toml:"service_match"`

	// Placeholder written for messages with no text content.
	TextPlaceholder string `toml:"text_placeholder"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		SessionGapHours: 2,
		ServiceMatch:    "any",
		TextPlaceholder: "<unknown>",
	}
}

// Load reads ~/.config/ibex/config.toml over the defaults. A missing file
// is not an error; a malformed one is.
func Load() (*Config, error) {
	cfg := Default()

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, nil // no home dir, no config file; defaults it is
	}

	cfgPath := filepath.Join(home, ".config", "ibex", "config.toml")
	if _, err := os.Stat(cfgPath); err != nil {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
	}

	return cfg, nil
}
