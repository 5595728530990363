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

// Package backup resolves files inside an unencrypted iPhone backup folder.
// The backup is a flat store of content-addressed blobs plus a Manifest.db
// that maps each file's original path on the device to the blob name it was
// saved under.
package backup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	// registers the "sqlite3" driver
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Well-known logical paths of the databases we extract from. The manifest
// stores these relative to their backup domain; in practice the path alone
// identifies each one.
const (
	ContactsDBPath = "Library/AddressBook/AddressBook.sqlitedb"
	MessagesDBPath = "Library/SMS/sms.db"
	PhotosDBPath   = "Media/PhotoData/Photos.sqlite"

	CommCenterPlistPath = "Library/Preferences/com.apple.commcenter.plist"

	manifestFilename = "Manifest.db"
)

// NotFoundError means a requested artifact genuinely does not exist in this
// backup (no manifest row for the logical path, or no manifest at all) --
// as opposed to a malformed database, which surfaces as a plain error.
// Callers use this to skip a category that the device simply never backed
// up, rather than aborting the whole run.
type NotFoundError struct {
	LogicalPath string // empty if the manifest itself is missing
}

func (e NotFoundError) Error() string {
	if e.LogicalPath == "" {
		return "backup manifest not found"
	}
	return fmt.Sprintf("no file at logical path '%s' in this backup", e.LogicalPath)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nfe NotFoundError
	return errors.As(err, &nfe)
}

// Resolver answers "where on disk is the blob for this device path" for one
// backup folder. It owns the open manifest handle for its lifetime; close
// it when done. Backups are static, read-only inputs, so a Resolver is safe
// for concurrent lookups.
type Resolver struct {
	root     string
	manifest *sql.DB
	log      *zap.Logger
}

// Open opens the manifest database inside the backup folder rooted at root.
// A missing manifest is a NotFoundError (the folder is not a backup); a
// manifest that exists but cannot be queried is a plain error.
func Open(ctx context.Context, root string, logger *zap.Logger) (*Resolver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	manifestPath := filepath.Join(root, manifestFilename)
	if _, err := os.Stat(manifestPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, NotFoundError{}
		}
		return nil, fmt.Errorf("statting manifest DB: %w", err)
	}

	db, err := sql.Open("sqlite3", manifestPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("opening manifest DB: %w", err)
	}

	// sql.Open is lazy; make sure the manifest is actually a usable
	// database before handing out the resolver
	var n int
	if err := db.QueryRowContext(ctx, "SELECT count() FROM Files").Scan(&n); err != nil {
		db.Close()
		return nil, fmt.Errorf("manifest DB is unreadable: %w", err)
	}

	logger.Debug("opened backup manifest",
		zap.String("root", root),
		zap.Int("manifest_files", n))

	return &Resolver{root: root, manifest: db, log: logger}, nil
}

// Close releases the manifest handle.
func (r *Resolver) Close() error {
	return r.manifest.Close()
}

// Resolve looks up the blob for the file at the given path relative to its
// domain root on the device, and returns its absolute on-disk location.
// Duplicate manifest rows for one path should not happen in a well-formed
// backup; if they do, the lowest-rowid row wins. Zero rows is a
// NotFoundError.
func (r *Resolver) Resolve(ctx context.Context, logicalPath string) (string, error) {
	var fileID *string
	err := r.manifest.QueryRowContext(ctx,
		"SELECT fileID FROM Files WHERE relativePath=? ORDER BY rowid LIMIT 1",
		logicalPath).Scan(&fileID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", NotFoundError{LogicalPath: logicalPath}
	}
	if err != nil {
		return "", fmt.Errorf("looking up fileID for relative path '%s': %w", logicalPath, err)
	}
	if fileID == nil || *fileID == "" {
		return "", NotFoundError{LogicalPath: logicalPath}
	}

	physical := r.fileIDToPath(*fileID)

	r.log.Debug("resolved backup file",
		zap.String("logical_path", logicalPath),
		zap.String("file_id", *fileID))

	return physical, nil
}

// OpenDB resolves the blob for logicalPath and opens it as a read-only
// sqlite database. The caller owns the returned handle.
func (r *Resolver) OpenDB(ctx context.Context, logicalPath string) (*sql.DB, error) {
	dbPath, err := r.Resolve(ctx, logicalPath)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("opening database at '%s': %w", logicalPath, err)
	}
	return db, nil
}

// fileIDToPath converts a fileID (the checksum the blob is stored under) to
// its absolute on-disk path. Blobs are sharded into 256 directories by the
// first two characters of the checksum to bound directory size.
func (r *Resolver) fileIDToPath(fileID string) string {
	const shardLen = 2
	if len(fileID) < shardLen {
		return filepath.Join(r.root, fileID) // shouldn't happen; safer than an empty path element
	}
	return filepath.Join(r.root, filepath.FromSlash(path.Join(fileID[:shardLen], fileID)))
}

// Root returns the backup folder this resolver reads from.
func (r *Resolver) Root() string {
	return r.root
}
