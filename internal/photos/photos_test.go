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

package photos

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/ibextract/ibex/internal/backup"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const photosFileID = "12b144c0bd44f2b3dffd9186d3f9c05b917cee25"

type fixture struct {
	root     string
	manifest *sql.DB
}

// addBlob registers a logical path in the manifest and writes its blob.
func (f fixture) addBlob(t *testing.T, logicalPath, fileID string, content []byte) {
	t.Helper()
	_, err := f.manifest.Exec("INSERT INTO Files VALUES (?, 'CameraRollDomain', ?)", fileID, logicalPath)
	require.NoError(t, err)
	if content != nil {
		blobDir := filepath.Join(f.root, fileID[:2])
		require.NoError(t, os.MkdirAll(blobDir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(blobDir, fileID), content, 0o600))
	}
}

func newBackupWithPhotos(t *testing.T) (*backup.Resolver, fixture, *sql.DB) {
	t.Helper()

	root := t.TempDir()

	manifest, err := sql.Open("sqlite3", filepath.Join(root, "Manifest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { manifest.Close() })
	_, err = manifest.Exec("CREATE TABLE Files (fileID TEXT, domain TEXT, relativePath TEXT)")
	require.NoError(t, err)

	f := fixture{root: root, manifest: manifest}
	f.addBlob(t, backup.PhotosDBPath, photosFileID, nil)

	blobDir := filepath.Join(root, photosFileID[:2])
	require.NoError(t, os.MkdirAll(blobDir, 0o755))
	photosdb, err := sql.Open("sqlite3", filepath.Join(blobDir, photosFileID))
	require.NoError(t, err)
	t.Cleanup(func() { photosdb.Close() })

	_, err = photosdb.Exec("CREATE TABLE ZAsset (ZFilename TEXT, ZDirectory TEXT)")
	require.NoError(t, err)

	r, err := backup.Open(context.Background(), root, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })

	return r, f, photosdb
}

func TestListFiltersNonCameraRoll(t *testing.T) {
	r, _, photosdb := newBackupWithPhotos(t)

	_, err := photosdb.Exec(`INSERT INTO ZAsset (ZFilename, ZDirectory) VALUES
		('IMG_0001.JPG', 'DCIM/100APPLE'),
		('thumb.JPG', 'PhotoData/Thumbnails'),
		(NULL, 'DCIM/100APPLE')`)
	require.NoError(t, err)

	assets, err := List(context.Background(), r)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "IMG_0001.JPG", assets[0].Filename)
	assert.Equal(t, "Media/DCIM/100APPLE/IMG_0001.JPG", assets[0].LogicalPath)
}

func TestExtract(t *testing.T) {
	r, f, photosdb := newBackupWithPhotos(t)

	_, err := photosdb.Exec(`INSERT INTO ZAsset (ZFilename, ZDirectory) VALUES
		('IMG_0001.JPG', 'DCIM/100APPLE'),
		('IMG_0002.JPG', 'DCIM/100APPLE')`)
	require.NoError(t, err)

	f.addBlob(t, "Media/DCIM/100APPLE/IMG_0001.JPG", "aa00000000000000000000000000000000000001", []byte("jpeg bytes"))
	// IMG_0002 is in the library but its blob never made it into the backup

	outDir := t.TempDir()
	err = Extract(context.Background(), r, outDir, zaptest.NewLogger(t))
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(outDir, "IMG_0001.JPG"))
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg bytes"), content)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "missing blob is skipped, not copied")
}
