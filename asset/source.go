// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package asset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gobuffalo/packd"

	"github.com/devblok/kore/kar"
)

// ErrNotFound is returned by sources that have no file for a name.
var ErrNotFound = errors.New("asset not found")

// Source provides the raw bytes of assets by name. Names are slash
// separated and relative. Sources are read from loader goroutines, so
// ReadFile must be safe for concurrent use.
type Source interface {
	ReadFile(name string) ([]byte, error)
}

func cleanName(name string) (string, error) {
	clean := path.Clean(strings.TrimPrefix(name, "/"))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%q: invalid asset name", name)
	}
	return clean, nil
}

// DirSource reads assets from a directory on disk.
type DirSource struct {
	Root string
}

// ReadFile implements Source
func (d DirSource) ReadFile(name string) ([]byte, error) {
	clean, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(d.Root, filepath.FromSlash(clean)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return data, err
}

// ArchiveSource reads assets from a kar archive.
type ArchiveSource struct {
	Archive *kar.Archive
}

// ReadFile implements Source
func (a ArchiveSource) ReadFile(name string) ([]byte, error) {
	clean, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	data, err := a.Archive.ReadAll(clean)
	if errors.Is(err, kar.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return data, err
}

// BoxSource reads assets from a packd.Finder, a packr.Box for assets
// embedded into the binary or a packd.MemoryBox in tests.
type BoxSource struct {
	Box packd.Finder
}

// ReadFile implements Source. Boxes do not tell missing files apart from
// other failures, every error is reported as ErrNotFound.
func (b BoxSource) ReadFile(name string) ([]byte, error) {
	clean, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	data, err := b.Box.Find(clean)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", name, ErrNotFound, err)
	}
	return data, nil
}
