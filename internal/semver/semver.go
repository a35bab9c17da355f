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

// Package semver compares Windows Kits versions such as 10.0.22621.0.
// The first three components follow semantic versioning; the optional
// fourth one is a numeric revision.
package semver

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// IsKitVersionValid reports whether version is a Windows Kits version.
func IsKitVersionValid(version string) bool {
	_, _, err := parse(version)
	return err == nil
}

// CompareKitVersion returns -1, 0 or +1 as v is lower than, equal to or
// higher than w.
func CompareKitVersion(v, w string) (int, error) {
	vs, vrev, err := parse(v)
	if err != nil {
		return 0, err
	}
	ws, wrev, err := parse(w)
	if err != nil {
		return 0, err
	}
	if c := semver.Compare(vs, ws); c != 0 {
		return c, nil
	}
	switch {
	case vrev > wrev:
		return 1, nil
	case vrev < wrev:
		return -1, nil
	}
	return 0, nil
}

func parse(version string) (string, int, error) {
	// a kit version has no 'v' prefix
	if strings.HasPrefix(version, "v") {
		return "", 0, fmt.Errorf("%s is not a valid kit version", version)
	}
	parts := strings.Split(version, ".")
	if len(parts) < 3 || len(parts) > 4 {
		return "", 0, fmt.Errorf("%s is not a valid kit version", version)
	}
	// golang.org/x/mod/semver requires the prefix 'v'
	sv := "v" + strings.Join(parts[:3], ".")
	if !semver.IsValid(sv) {
		return "", 0, fmt.Errorf("%s is not a valid kit version", version)
	}
	var revision int
	if len(parts) == 4 {
		rev, err := strconv.Atoi(parts[3])
		if err != nil || rev < 0 {
			return "", 0, fmt.Errorf("%s is not a valid kit version", version)
		}
		revision = rev
	}
	return sv, revision, nil
}
