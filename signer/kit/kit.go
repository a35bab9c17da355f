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

// Package kit locates signtool.exe inside a Windows SDK (Windows Kits)
// installation.
package kit

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/offsign/offsign-go/internal/semver"
)

// SignTool is the file name of the signing utility.
const SignTool = "signtool.exe"

// DefaultArch is the architecture directory used when none is configured.
const DefaultArch = "x64"

// ErrSignToolNotFound is returned when no directory under the kit root
// contains SignTool.
var ErrSignToolNotFound = errors.New("signtool.exe not found")

// Resolve returns the directory holding signtool.exe for root, which may be
// that directory itself, its parent architecture directory, a versioned bin
// directory, or a Windows Kits root such as
// "C:\Program Files (x86)\Windows Kits\10". When several SDK versions are
// installed the newest one wins.
func Resolve(root, arch string) (string, error) {
	if root == "" {
		return "", errors.New("windows kits path not specified")
	}
	if arch == "" {
		arch = DefaultArch
	}
	for _, dir := range []string{root, filepath.Join(root, arch)} {
		if hasSignTool(dir) {
			return dir, nil
		}
	}

	binDir := filepath.Join(root, "bin")
	if fi, err := os.Stat(binDir); err != nil || !fi.IsDir() {
		binDir = root
	}
	entries, err := os.ReadDir(binDir)
	if err != nil {
		return "", fmt.Errorf("failed to read windows kits path: %w", err)
	}
	var best, bestVer string
	for _, e := range entries {
		if !e.IsDir() || !semver.IsKitVersionValid(e.Name()) {
			continue
		}
		dir := filepath.Join(binDir, e.Name(), arch)
		if !hasSignTool(dir) {
			continue
		}
		if best == "" {
			best, bestVer = dir, e.Name()
			continue
		}
		if c, err := semver.CompareKitVersion(e.Name(), bestVer); err == nil && c > 0 {
			best, bestVer = dir, e.Name()
		}
	}
	if best == "" {
		return "", fmt.Errorf("%w under %s for %s", ErrSignToolNotFound, root, arch)
	}
	return best, nil
}

func hasSignTool(dir string) bool {
	fi, err := os.Stat(filepath.Join(dir, SignTool))
	return err == nil && fi.Mode().IsRegular()
}
