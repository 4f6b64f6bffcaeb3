// Copyright 2022 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/saferwall/jclass"
	jlog "github.com/saferwall/jclass/log"
)

// dumpPath dispatches on the kind of path: a directory is walked, a jar is
// opened as an archive, anything else is decoded as a single class file.
func dumpPath(path string) {
	info, err := os.Stat(path)
	if err != nil {
		log.Printf("Error while opening %s, reason: %v", path, err)
		return
	}

	switch {
	case info.IsDir():
		dumpDir(path)
	case strings.HasSuffix(path, ".jar"):
		dumpJar(path)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("Error while reading %s, reason: %v", path, err)
			return
		}
		dumpClass(path, data)
	}
}

func dumpDir(dir string) {
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch {
		case strings.HasSuffix(path, ".class"):
			data, err := os.ReadFile(path)
			if err != nil {
				log.Printf("Error while reading %s, reason: %v", path, err)
				return nil
			}
			dumpClass(path, data)
		case strings.HasSuffix(path, ".jar"):
			dumpJar(path)
		}
		return nil
	})
	if err != nil {
		log.Printf("Error while walking %s, reason: %v", dir, err)
	}
}

func dumpJar(path string) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		log.Printf("Error while opening archive %s, reason: %v", path, err)
		return
	}
	defer zr.Close()

	for _, entry := range zr.File {
		if !strings.HasSuffix(entry.Name, ".class") {
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			log.Printf("Error while opening %s!%s, reason: %v", path, entry.Name, err)
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			log.Printf("Error while reading %s!%s, reason: %v", path, entry.Name, err)
			continue
		}
		dumpClass(path+"!"+entry.Name, data)
	}
}

func dumpClass(name string, data []byte) {
	log.Printf("Processing %s", name)

	opts := jclass.Options{}
	if verbose {
		opts.Logger = jlog.NewStdLogger(os.Stderr)
	}

	file, err := jclass.NewBytes(data, &opts)
	if err != nil {
		log.Printf("Error while opening %s, reason: %v", name, err)
		return
	}
	defer file.Close()

	if err := file.Parse(); err != nil {
		log.Printf("Error while parsing %s, reason: %v", name, err)
		return
	}

	fmt.Printf("%s (%s, major %d, minor %d) %s\n", file.Path, jclass.JavaVersion(file.Version.Major),
		file.Version.Major, file.Version.Minor, file.Flags)

	if constants || all {
		printJSON(file.Constants)
	}
	if fields || all {
		printJSON(file.Fields)
	}
	if methods || all {
		printJSON(file.Methods)
	}
	if attributes || all {
		printJSON(file.Attributes)
	}
	if inner || all {
		printJSON(file.InnerTypes)
	}
}

func printJSON(v interface{}) {
	buff, err := json.Marshal(v)
	if err != nil {
		log.Printf("JSON marshal error: %v", err)
		return
	}
	fmt.Println(prettyPrint(buff))
}

func prettyPrint(buff []byte) string {
	var prettyJSON bytes.Buffer
	err := json.Indent(&prettyJSON, buff, "", "\t")
	if err != nil {
		log.Println("JSON parse error: ", err)
		return string(buff)
	}

	return prettyJSON.String()
}
