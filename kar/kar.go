// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package kar is an api for an lz4 backed file format.
// It's purpose is to be well suited for streaming resources from it.
// It's designed to be memory mapped, so (unlike tar) it knows where all
// the files are located before they're read. The archive itself is not
// compressed, rather every file is individually compressed, so it can be
// read from it's place and decompressed on the fly. Space efficiency is
// not the primary goal of this package, getting resources from disk to a
// usable state is. An Archive can be read from concurrently.
//
// Layout of an archive:
//
//	magic        "KAR\x00"
//	header size  int64, little endian
//	header       gob encoded Header
//	data         lz4 frames, Offset is relative to the start of data
package kar

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
)

// package errors
var (
	ErrFileFormat = errors.New("corrupted or not a kar archive")
	ErrNotExist   = errors.New("file does not exist in archive")
	ErrDuplicate  = errors.New("file already added")
)

// Sizes relevant to the header of file
const (
	MagicLength            = 4
	HeaderSizeNumberLength = 8

	// MaxHeaderSize bounds the header read from untrusted files.
	MaxHeaderSize = 64 << 20
)

var magic = [MagicLength]byte{'K', 'A', 'R', '\x00'}

// IndexEntry is info for one file in the file index.
type IndexEntry struct {
	Name           string
	Offset         int64
	Size           int64
	CompressedSize int64
}

// Header is the file header for kar files.
type Header struct {
	Author      string
	DateCreated int64
	Version     int64
	Index       []IndexEntry
}

func int64ToBinary(num int64) []byte {
	bts := make([]byte, HeaderSizeNumberLength)
	binary.LittleEndian.PutUint64(bts, uint64(num))
	return bts
}

func binaryToInt64(bts []byte) (int64, error) {
	if len(bts) < HeaderSizeNumberLength {
		return 0, ErrFileFormat
	}
	return int64(binary.LittleEndian.Uint64(bts)), nil
}

func gobEncode(data interface{}) ([]byte, error) {
	var encoded bytes.Buffer
	enc := gob.NewEncoder(&encoded)
	if err := enc.Encode(data); err != nil {
		return nil, err
	}
	return encoded.Bytes(), nil
}

func gobDecode(obj interface{}, bts []byte) error {
	dec := gob.NewDecoder(bytes.NewReader(bts))
	return dec.Decode(obj)
}
