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

package extension

import (
	"errors"
	"strings"
	"testing"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		fileName string
		want     Entry
	}{
		{"Report.pptm", Entry{FamilyMSOSIPX, "PowerPoint", ".pptm"}},
		{"Legacy.ppt", Entry{FamilyMSOSIP, "PowerPoint", ".ppt"}},
		{"BUDGET.XLSM", Entry{FamilyMSOSIPX, "Excel", ".xlsm"}},
		{"plan.Mpp", Entry{FamilyMSOSIP, "Project", ".mpp"}},
		{"flyer.pub", Entry{FamilyMSOSIP, "Publisher", ".pub"}},
		{"diagram.vstm", Entry{FamilyMSOSIPX, "Visio", ".vstm"}},
		{"archive.v1.dotm", Entry{FamilyMSOSIPX, "Word", ".dotm"}},
	}
	for _, tt := range tests {
		t.Run(tt.fileName, func(t *testing.T) {
			got, ok := Lookup(tt.fileName)
			if !ok {
				t.Fatalf("Lookup(%q) rejected a supported file", tt.fileName)
			}
			if got != tt.want {
				t.Fatalf("Lookup(%q) = %+v, want %+v", tt.fileName, got, tt.want)
			}
		})
	}
}

func TestValidateRejects(t *testing.T) {
	for _, name := range []string{"notes.txt", "docm", "report.docx", "sheet.xlsx", "noext", "", "trailing.", "macro.docm.bak"} {
		t.Run(name, func(t *testing.T) {
			err := Validate(name)
			var unsupported *UnsupportedError
			if !errors.As(err, &unsupported) {
				t.Fatalf("Validate(%q) error = %v, want *UnsupportedError", name, err)
			}
			if unsupported.FileName != name {
				t.Fatalf("UnsupportedError.FileName = %q, want %q", unsupported.FileName, name)
			}
		})
	}
}

func TestEveryTableExtensionIsAccepted(t *testing.T) {
	all := All()
	if len(all) != 33 {
		t.Fatalf("All() returned %d entries, want 33", len(all))
	}
	for _, e := range all {
		for _, name := range []string{"a" + e.Extension, "A" + strings.ToUpper(e.Extension)} {
			if err := Validate(name); err != nil {
				t.Errorf("Validate(%q) = %v, want nil", name, err)
			}
		}
	}
	if got := len(Extensions()); got != len(all) {
		t.Fatalf("Extensions() returned %d values, want %d", got, len(all))
	}
}
