// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/pierrec/lz4"
)

// NewBuilder creates a new Builder. Do not fill the Index in
// the header, it will be overwritten anyway.
func NewBuilder(header Header) (*Builder, error) {
	temp, err := os.MkdirTemp("", "karBuilder")
	if err != nil {
		return nil, fmt.Errorf("kar builder: %w", err)
	}
	return &Builder{
		tempDir: temp,
		header:  header,
		names:   make(map[string]struct{}),
	}, nil
}

type tempFile struct {

	// Name is the actual name of the file
	Name string

	// TempName is the path of the compressed copy
	TempName string

	// Size in uncompressed state
	Size int64

	Compressed int64
}

// Builder is the high level builder for the archive format.
// Archives are versioned and cannot be appended to, this Builder
// is the way to create an archive. Whenever Add is called, Builder
// stores the compressed file in a temporary dir, WriteTo then bundles
// them together. Close removes the temporary dir.
type Builder struct {
	tempDir string
	header  Header

	mutex sync.Mutex
	names map[string]struct{}
	files []tempFile
}

// Add compresses everything read from r into the builder under a given
// name. Will block until lz4 finishes compression. Is safe to use
// concurrently in different goroutines.
func (b *Builder) Add(name string, r io.Reader) error {
	b.mutex.Lock()
	if _, ok := b.names[name]; ok {
		b.mutex.Unlock()
		return fmt.Errorf("%q: %w", name, ErrDuplicate)
	}
	b.names[name] = struct{}{}
	b.mutex.Unlock()

	entry, err := b.compress(name, r)
	if err != nil {
		b.mutex.Lock()
		delete(b.names, name)
		b.mutex.Unlock()
		return fmt.Errorf("kar add %q: %w", name, err)
	}

	b.mutex.Lock()
	b.files = append(b.files, entry)
	b.mutex.Unlock()
	return nil
}

func (b *Builder) compress(name string, r io.Reader) (tempFile, error) {
	f, err := os.CreateTemp(b.tempDir, "entry")
	if err != nil {
		return tempFile{}, err
	}
	defer f.Close()

	writer := lz4.NewWriter(f)
	written, err := io.Copy(writer, r)
	if err != nil {
		return tempFile{}, err
	}
	if err := writer.Close(); err != nil {
		return tempFile{}, err
	}
	info, err := f.Stat()
	if err != nil {
		return tempFile{}, err
	}
	return tempFile{
		Name:       name,
		TempName:   f.Name(),
		Size:       written,
		Compressed: info.Size(),
	}, nil
}

// WriteTo bundles and writes all of the files added to the Builder
// into a kar archive that is ready to use. Files are ordered by name.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	files := make([]tempFile, len(b.files))
	copy(files, b.files)
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	header := b.header
	header.Index = make([]IndexEntry, 0, len(files))
	var offset int64
	for _, v := range files {
		header.Index = append(header.Index, IndexEntry{
			Name:           v.Name,
			Size:           v.Size,
			CompressedSize: v.Compressed,
			Offset:         offset,
		})
		offset += v.Compressed
	}

	rawHeader, err := gobEncode(header)
	if err != nil {
		return 0, err
	}

	cw := &countingWriter{w: w}
	if _, err := cw.Write(magic[:]); err != nil {
		return cw.n, err
	}
	if _, err := cw.Write(int64ToBinary(int64(len(rawHeader)))); err != nil {
		return cw.n, err
	}
	if _, err := cw.Write(rawHeader); err != nil {
		return cw.n, err
	}
	for _, v := range files {
		if err := appendFile(cw, v.TempName); err != nil {
			return cw.n, fmt.Errorf("kar write %q: %w", v.Name, err)
		}
	}
	return cw.n, nil
}

// Close removes the temporary files of the builder.
func (b *Builder) Close() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.files = nil
	return os.RemoveAll(b.tempDir)
}

func appendFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
