// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command kar creates, lists and extracts kar archives.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/devblok/kore/kar"
)

func init() {
	currentUserName = "unknown"
	if u, err := user.Current(); err == nil {
		currentUserName = u.Name
	}
}

var (
	currentUserName string
	author          = flag.String("author", "", "Set the author of the package when compressing")
	version         = flag.Int64("version", 1, "Archive version number to create it with")
	extract         = flag.String("e", "", "Extract the file given")
	list            = flag.String("l", "", "List the files of the archive given")
	compress        = flag.String("c", "", "Compress the given folder")
	dstFile         = flag.String("f", "out.kar", "Destination file")
	outDir          = flag.String("o", ".", "Destination folder when extracting")
	silent          = flag.Bool("s", false, "Silent")
)

func main() {
	flag.Parse()
	if *silent {
		log.SetLevel(log.WarnLevel)
	}

	ops := 0
	for _, op := range []string{*extract, *list, *compress} {
		if op != "" {
			ops++
		}
	}
	if ops > 1 {
		log.Fatal("only one operation at a time")
	}

	var err error
	switch {
	case *compress != "":
		err = compressFiles(*compress, *dstFile)
	case *extract != "":
		err = extractFiles(*extract, *outDir)
	case *list != "":
		err = listFiles(*list)
	default:
		flag.PrintDefaults()
		return
	}
	if err != nil {
		log.Fatal(err)
	}
}

func compressFiles(dir, dst string) error {
	if _, err := os.Stat(dst); err == nil {
		return errors.New("destination file exists, will not overwrite")
	}

	var filesToCompress []string
	if err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		filesToCompress = append(filesToCompress, path)
		return nil
	}); err != nil {
		return err
	}

	name := *author
	if name == "" {
		name = currentUserName
	}
	karBuilder, err := kar.NewBuilder(kar.Header{
		Author:      name,
		DateCreated: time.Now().Unix(),
		Version:     *version,
	})
	if err != nil {
		return err
	}
	defer karBuilder.Close()

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for _, ftc := range filesToCompress {
		ftc := ftc
		g.Go(func() error {
			rel, err := filepath.Rel(dir, ftc)
			if err != nil {
				return err
			}
			f, err := os.Open(ftc)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := karBuilder.Add(filepath.ToSlash(rel), f); err != nil {
				return err
			}
			log.WithField("file", rel).Debug("Compressed")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	written, err := karBuilder.WriteTo(out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"archive": dst,
		"files":   len(filesToCompress),
		"bytes":   written,
	}).Info("Archive written")
	return nil
}

func listFiles(path string) error {
	ar, err := kar.OpenFile(path)
	if err != nil {
		return err
	}
	defer ar.Close()

	header := ar.Header()
	fmt.Printf("author: %s, version: %d, created: %s\n",
		header.Author, header.Version, time.Unix(header.DateCreated, 0).Format(time.RFC3339))
	for _, name := range ar.Names() {
		e, err := ar.Stat(name)
		if err != nil {
			return err
		}
		fmt.Printf("%10d %10d %s\n", e.Size, e.CompressedSize, name)
	}
	return nil
}

func extractFiles(path, dir string) error {
	ar, err := kar.OpenFile(path)
	if err != nil {
		return err
	}
	defer ar.Close()

	for _, name := range ar.Names() {
		clean := filepath.FromSlash(filepath.Clean("/" + name))
		target := filepath.Join(dir, strings.TrimPrefix(clean, string(filepath.Separator)))
		data, err := ar.ReadAll(name)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return err
		}
		log.WithField("file", target).Debug("Extracted")
	}
	log.WithFields(log.Fields{"archive": path, "files": len(ar.Names())}).Info("Archive extracted")
	return nil
}
