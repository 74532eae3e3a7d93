// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/pierrec/lz4"
	"golang.org/x/exp/mmap"
)

// Open opens the kar archive from r. It will also check
// if the file is actually a kar archive, will return ErrFileFormat
// when the file is incorrect.
func Open(r io.ReaderAt) (*Archive, error) {
	prefix := make([]byte, MagicLength+HeaderSizeNumberLength)
	if num, err := r.ReadAt(prefix, 0); num < len(prefix) {
		if err == nil || err == io.EOF {
			err = ErrFileFormat
		}
		return nil, err
	}
	if !bytes.Equal(prefix[:MagicLength], magic[:]) {
		return nil, ErrFileFormat
	}

	headerSize, err := binaryToInt64(prefix[MagicLength:])
	if err != nil {
		return nil, err
	}
	if headerSize <= 0 || headerSize > MaxHeaderSize {
		return nil, ErrFileFormat
	}

	headerBytes := make([]byte, headerSize)
	if num, err := r.ReadAt(headerBytes, int64(len(prefix))); int64(num) < headerSize {
		if err == nil || err == io.EOF {
			err = ErrFileFormat
		}
		return nil, err
	}

	var header Header
	if err := gobDecode(&header, headerBytes); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFileFormat, err)
	}

	ar := &Archive{
		reader: r,
		header: header,
		index:  make(map[string]IndexEntry, len(header.Index)),
		base:   int64(len(prefix)) + headerSize,
	}
	for _, e := range header.Index {
		if e.Offset < 0 || e.CompressedSize < 0 || e.Size < 0 {
			return nil, ErrFileFormat
		}
		ar.index[e.Name] = e
	}
	return ar, nil
}

// OpenFile memory maps the archive at path.
func OpenFile(path string) (*Archive, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	ar, err := Open(r)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	ar.closer = r
	return ar, nil
}

// Archive provides concurrent io for a kar file, and can provide
// an io.Reader for each file separately to perform actions on.
type Archive struct {
	reader io.ReaderAt
	closer io.Closer
	header Header
	index  map[string]IndexEntry
	base   int64
}

// Header returns the decoded archive header.
func (a *Archive) Header() Header {
	return a.header
}

// Names lists the files in the archive, sorted.
func (a *Archive) Names() []string {
	names := make([]string, 0, len(a.index))
	for name := range a.index {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stat returns the index entry for a file.
func (a *Archive) Stat(name string) (IndexEntry, error) {
	e, ok := a.index[name]
	if !ok {
		return IndexEntry{}, fmt.Errorf("%q: %w", name, ErrNotExist)
	}
	return e, nil
}

// maxPrealloc caps the buffer ReadAll allocates before reading.
const maxPrealloc = 1 << 20

// ReadAll returns the entire contents of a file with a given name
func (a *Archive) ReadAll(name string) ([]byte, error) {
	f, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	// Size comes from the file, so it only bounds the read.
	buf := bytes.NewBuffer(make([]byte, 0, min(f.Size(), maxPrealloc)))
	if _, err := buf.ReadFrom(io.LimitReader(f, f.Size()+1)); err != nil {
		return nil, fmt.Errorf("%q: %w", name, err)
	}
	if int64(buf.Len()) != f.Size() {
		return nil, fmt.Errorf("%q: %w", name, ErrFileFormat)
	}
	return buf.Bytes(), nil
}

// Open returns a Reader for a file in the Archive
func (a *Archive) Open(name string) (*Reader, error) {
	e, err := a.Stat(name)
	if err != nil {
		return nil, err
	}
	section := io.NewSectionReader(a.reader, a.base+e.Offset, e.CompressedSize)
	return &Reader{
		entry: e,
		lz:    lz4.NewReader(section),
	}, nil
}

// Close releases the memory map of archives opened with OpenFile.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// Reader is a reader for a single file in an Archive.
// Abstracts away the location that needs to be known.
type Reader struct {
	entry IndexEntry
	lz    *lz4.Reader
}

// Size is the decompressed size of the file.
func (r *Reader) Size() int64 {
	return r.entry.Size
}

// Read reads already decompressed data
func (r *Reader) Read(p []byte) (n int, err error) {
	return r.lz.Read(p)
}
