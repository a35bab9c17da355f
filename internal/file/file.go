// Copyright The Notary Project Authors.
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package file holds small file helpers shared by config, secret and the
// dispatcher.
package file

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var validFileName = regexp.MustCompile(`^[^<>:"/\\|?*\x00-\x1f]+$`)

// IsValidFileName reports whether fileName is a plain file name that stays
// inside the directory it is joined to.
func IsValidFileName(fileName string) bool {
	if fileName == "" || fileName == "." || fileName == ".." {
		return false
	}
	if strings.TrimRight(fileName, ". ") == "" {
		return false
	}
	return validFileName.MatchString(fileName)
}

// SaveJSON stores v to filePath as indented JSON, creating parent
// directories as needed.
func SaveJSON(filePath string, v interface{}) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	file, err := os.OpenFile(filePath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "    ")
	return encoder.Encode(v)
}

// LoadJSON decodes the regular file at path into v.
func LoadJSON(path string, v interface{}) error {
	if err := CheckRegular(path); err != nil {
		return err
	}
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return json.NewDecoder(file).Decode(v)
}

// CheckRegular returns an error if path is a directory, a symlink or does
// not exist.
func CheckRegular(path string) error {
	fileInfo, err := os.Lstat(path)
	if err != nil {
		return err
	}
	mode := fileInfo.Mode()
	if mode.IsDir() || mode&fs.ModeSymlink != 0 {
		return fmt.Errorf("%q is not a regular file (symlinks are not supported)", path)
	}
	return nil
}
