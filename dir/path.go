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

// Package dir implements the offsign directory structure.
//
// The user level config directory holds offsign.json and, optionally, the
// secrets file. The user level cache directory holds the scratch area where
// request payloads are decoded before signing:
//
//	{USER_CONFIG}/offsign/offsign.json
//	{USER_CACHE}/offsign/scratch/{request-id}/{file}
package dir

import (
	"os"
	"path/filepath"
)

var (
	UserConfigDir string // Absolute path of user level {CONFIG}
	UserCacheDir  string // Absolute path of user level {CACHE}
)

const (
	// offsign is the directory name for offsign configurations.
	offsign = "offsign"
)

// The relative path to {CONFIG} or {CACHE}.
const (
	// PathConfigFile is the offsign config file name.
	PathConfigFile = "offsign.json"

	// PathSecretsFile is the default secrets file name used by secret.File.
	PathSecretsFile = "secrets.json"

	// PathScratch is the directory of request scratch files.
	PathScratch = "scratch"

	// PathArchive is the default OCI layout of the signed document archive.
	PathArchive = "archive"
)

// for mocking
var (
	userConfigDir = os.UserConfigDir
	userCacheDir  = os.UserCacheDir
)

// userConfigDirPath returns the user level {CONFIG} path.
func userConfigDirPath() string {
	if UserConfigDir == "" {
		userDir, err := userConfigDir()
		if err != nil {
			// fallback to current directory
			UserConfigDir = "." + offsign
			return UserConfigDir
		}
		UserConfigDir = filepath.Join(userDir, offsign)
	}
	return UserConfigDir
}

// userCacheDirPath returns the user level {CACHE} path.
func userCacheDirPath() string {
	if UserCacheDir == "" {
		userDir, err := userCacheDir()
		if err != nil {
			// fallback to the temporary directory
			UserCacheDir = filepath.Join(os.TempDir(), offsign)
			return UserCacheDir
		}
		UserCacheDir = filepath.Join(userDir, offsign)
	}
	return UserCacheDir
}

// ScratchDir returns the default scratch directory.
func ScratchDir() string {
	return filepath.Join(userCacheDirPath(), PathScratch)
}

// ArchiveDir returns the default signed document archive directory.
func ArchiveDir() string {
	return filepath.Join(userCacheDirPath(), PathArchive)
}
