// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/devblok/kore/kar"
)

var (
	testString1 = "this is a test"
	testString2 = "this is another test"
)

func buildArchive(t *testing.T, files map[string]string) []byte {
	builder, err := kar.NewBuilder(kar.Header{
		Author:      "devblok",
		DateCreated: time.Now().Unix(),
		Version:     1,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer builder.Close()

	for name, content := range files {
		if err := builder.Add(name, strings.NewReader(content)); err != nil {
			t.Fatal(err)
		}
	}

	buf := bytes.NewBuffer([]byte{})
	if _, err := builder.WriteTo(buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func testFiles() map[string]string {
	return map[string]string{
		"test/test1.txt": testString1,
		"test/test2.txt": testString2,
		"test/empty":     "",
		"test/large.bin": strings.Repeat("koru", 64*1024),
	}
}

func readFileAndCompare(f *kar.Reader, expected string) error {
	result, err := io.ReadAll(f)
	if err != nil {
		return err
	}
	if string(result) != expected {
		return errors.New("test string does not match up")
	}
	return nil
}

func TestOpenAndRead(t *testing.T) {
	ar, err := kar.Open(bytes.NewReader(buildArchive(t, testFiles())))
	if err != nil {
		t.Fatal(err)
	}

	for name, expected := range testFiles() {
		f, err := ar.Open(name)
		if err != nil {
			t.Error(err)
			continue
		}
		if f.Size() != int64(len(expected)) {
			t.Errorf("%s: size %d, expected %d", name, f.Size(), len(expected))
		}
		if err := readFileAndCompare(f, expected); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
}

func TestOpenAndReadAll(t *testing.T) {
	ar, err := kar.Open(bytes.NewReader(buildArchive(t, testFiles())))
	if err != nil {
		t.Fatal(err)
	}

	if f, err := ar.ReadAll("test/test1.txt"); err != nil {
		t.Error(err)
	} else if string(f) != testString1 {
		t.Error("result is not expected value")
	}

	if _, err := ar.ReadAll("test/missing.txt"); !errors.Is(err, kar.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestHeaderAndNames(t *testing.T) {
	ar, err := kar.Open(bytes.NewReader(buildArchive(t, testFiles())))
	if err != nil {
		t.Fatal(err)
	}

	expected := []string{"test/empty", "test/large.bin", "test/test1.txt", "test/test2.txt"}
	if names := ar.Names(); !reflect.DeepEqual(names, expected) {
		t.Errorf("names %v, expected %v", names, expected)
	}

	header := ar.Header()
	if header.Author != "devblok" || header.Version != 1 {
		t.Errorf("unexpected header %+v", header)
	}
	if len(header.Index) != 4 {
		t.Errorf("expected 4 index entries, got %d", len(header.Index))
	}
}

func TestOpenFileMmap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opentest.kar")
	if err := os.WriteFile(path, buildArchive(t, testFiles()), 0o644); err != nil {
		t.Fatal(err)
	}

	ar, err := kar.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer ar.Close()

	if f, err := ar.Open("test/test2.txt"); err != nil {
		t.Error(err)
	} else if err := readFileAndCompare(f, testString2); err != nil {
		t.Error(err)
	}
}

func TestConcurrentReads(t *testing.T) {
	ar, err := kar.Open(bytes.NewReader(buildArchive(t, testFiles())))
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		for name, expected := range testFiles() {
			wg.Add(1)
			go func(name, expected string) {
				defer wg.Done()
				data, err := ar.ReadAll(name)
				if err != nil {
					t.Error(err)
					return
				}
				if string(data) != expected {
					t.Errorf("%s: content mismatch", name)
				}
			}(name, expected)
		}
	}
	wg.Wait()
}

func TestOpenRejectsGarbage(t *testing.T) {
	cases := map[string][]byte{
		"empty":       {},
		"short":       []byte("KA"),
		"wrong magic": []byte("TAR\x00\x01\x00\x00\x00\x00\x00\x00\x00"),
		"huge header": append([]byte("KAR\x00"), 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x0f),
		"cut header":  append([]byte("KAR\x00"), 0x40, 0, 0, 0, 0, 0, 0, 0, 1, 2, 3),
	}
	for name, data := range cases {
		if _, err := kar.Open(bytes.NewReader(data)); !errors.Is(err, kar.ErrFileFormat) {
			t.Errorf("%s: expected ErrFileFormat, got %v", name, err)
		}
	}
}
