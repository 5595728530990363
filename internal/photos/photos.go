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

// Package photos extracts the photo library from an iPhone backup. The
// Photos.sqlite asset table knows each asset's on-device directory and
// filename; each one resolves through the manifest to a blob we can copy
// back out under its original name.
package photos

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/ibextract/ibex/internal/backup"
	"github.com/ibextract/ibex/internal/fsutil"
	"go.uber.org/zap"
)

// Asset is one photo or video in the library.
type Asset struct {
	Filename    string // original filename on the device
	LogicalPath string // device path, resolvable through the manifest
}

// List returns the camera roll assets recorded in the photo library,
// skipping synthesized entries outside the DCIM tree (thumbnails,
// adjustments).
func List(ctx context.Context, resolver *backup.Resolver) ([]Asset, error) {
	db, err := resolver.OpenDB(ctx, backup.PhotosDBPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx,
		`SELECT ZFilename, 'Media/' || ZDirectory || '/' || ZFilename
		FROM ZAsset
		WHERE ZDirectory LIKE 'DCIM/%' AND ZFilename IS NOT NULL
		ORDER BY ZDirectory, ZFilename`)
	if err != nil {
		return nil, fmt.Errorf("querying photo library for assets: %w", err)
	}
	defer rows.Close()

	var assets []Asset
	for rows.Next() {
		var filename, logicalPath *string
		if err := rows.Scan(&filename, &logicalPath); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if filename == nil || logicalPath == nil {
			continue
		}
		assets = append(assets, Asset{Filename: *filename, LogicalPath: *logicalPath})
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("scanning rows: %w", err)
	}

	return assets, nil
}

// Extract copies every library asset into dir under its original filename,
// suffixing duplicates. Assets whose blob is missing from the backup are
// logged and skipped; a partially synced library shouldn't sink the rest.
func Extract(ctx context.Context, resolver *backup.Resolver, dir string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	assets, err := List(ctx, resolver)
	if err != nil {
		return err
	}

	var copied int
	for _, asset := range assets {
		blobPath, err := resolver.Resolve(ctx, asset.LogicalPath)
		if err != nil {
			if backup.IsNotFound(err) {
				logger.Warn("photo not present in backup, skipping",
					zap.String("logical_path", asset.LogicalPath))
				continue
			}
			return err
		}

		name := fsutil.SanitizeName(asset.Filename)
		ext := path.Ext(name)
		outPath := fsutil.UniquePath(dir, name[:len(name)-len(ext)], ext)

		if err := copyFile(blobPath, outPath); err != nil {
			return fmt.Errorf("copying photo '%s': %w", asset.Filename, err)
		}
		copied++
	}

	logger.Info("extracted photo library",
		zap.Int("assets", len(assets)),
		zap.Int("copied", copied))

	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	_, err = io.Copy(out, in)
	if closeErr := out.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}
