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

// Package extension holds the table of Office document extensions that the
// Office Subject Interface Packages can sign, grouped by SIP family and
// application.
package extension

import (
	"fmt"
	"path/filepath"
	"strings"

	set "github.com/offsign/offsign-go/internal/container"
)

// Family is an Office Subject Interface Package family.
type Family string

const (
	// FamilyMSOSIP covers the legacy binary formats.
	FamilyMSOSIP Family = "MSOSIP"

	// FamilyMSOSIPX covers the OOXML macro-enabled formats.
	FamilyMSOSIPX Family = "MSOSIPX"
)

// Entry describes one allowed extension.
type Entry struct {
	Family      Family `json:"family"`
	Application string `json:"application"`
	Extension   string `json:"extension"`
}

type group struct {
	application string
	extensions  []string
}

var table = []struct {
	family Family
	groups []group
}{
	{FamilyMSOSIP, []group{
		{"Excel", []string{".xla", ".xls", ".xlt"}},
		{"PowerPoint", []string{".pot", ".ppa", ".pps", ".ppt"}},
		{"Project", []string{".mpp", ".mpt"}},
		{"Publisher", []string{".pub"}},
		{"Visio", []string{".vdw", ".vdx", ".vsd", ".vss", ".vst", ".vsx", ".vtx"}},
		{"Word", []string{".doc", ".dot", ".wiz"}},
	}},
	{FamilyMSOSIPX, []group{
		{"Excel", []string{".xlam", ".xlsb", ".xlsm", ".xltm"}},
		{"PowerPoint", []string{".potm", ".ppam", ".ppsm", ".pptm"}},
		{"Visio", []string{".vsdm", ".vssm", ".vstm"}},
		{"Word", []string{".docm", ".dotm"}},
	}},
}

var (
	entries []Entry
	allowed set.Set[string]
	byExt   map[string]Entry
)

func init() {
	allowed = set.New[string]()
	byExt = make(map[string]Entry)
	for _, f := range table {
		for _, g := range f.groups {
			for _, ext := range g.extensions {
				if allowed.Contains(ext) {
					panic(fmt.Sprintf("extension %s listed twice", ext))
				}
				e := Entry{Family: f.family, Application: g.application, Extension: ext}
				allowed.Add(ext)
				byExt[ext] = e
				entries = append(entries, e)
			}
		}
	}
}

// UnsupportedError is returned when a file name does not end with an
// extension from the table.
type UnsupportedError struct {
	FileName string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("file %q has an unsupported extension", e.FileName)
}

// Lookup returns the table entry matching the extension of fileName,
// ignoring case.
func Lookup(fileName string) (Entry, bool) {
	ext := normalize(fileName)
	if !allowed.Contains(ext) {
		return Entry{}, false
	}
	return byExt[ext], true
}

// Validate returns an *UnsupportedError if fileName cannot be signed.
func Validate(fileName string) error {
	if _, ok := Lookup(fileName); !ok {
		return &UnsupportedError{FileName: fileName}
	}
	return nil
}

// All returns every entry in table order.
func All() []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Extensions returns every allowed extension in ascending order.
func Extensions() []string {
	return set.Sorted(allowed)
}

func normalize(fileName string) string {
	return strings.ToLower(filepath.Ext(fileName))
}
