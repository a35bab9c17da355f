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

// Package config provides the ability to load and save offsign.json.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/offsign/offsign-go/dir"
	"github.com/offsign/offsign-go/internal/file"
)

// Config reflects the offsign.json file.
type Config struct {
	// SignToolPath is offsign.bat or the directory containing it.
	SignToolPath string `json:"signToolPath,omitempty"`

	// WindowsKitsPath is the signtool.exe directory or a Windows Kits root.
	WindowsKitsPath string `json:"windowsKitsPath,omitempty"`

	// Architecture selects the signtool.exe flavour inside a Windows Kits
	// root. Defaults to x64.
	Architecture string `json:"architecture,omitempty"`

	// ScratchDir holds decoded payloads while they are signed.
	ScratchDir string `json:"scratchDir,omitempty"`

	// DigestAlgorithm is used when a request names none.
	DigestAlgorithm string `json:"digestAlgorithm,omitempty"`

	// FailureMarker overrides the wrapper failure text.
	FailureMarker string `json:"failureMarker,omitempty"`

	// Timeout bounds one wrapper run; "0s" disables the bound.
	Timeout *Duration `json:"timeout,omitempty"`

	// SecretsFile is a JSON object of secret name to value.
	SecretsFile string `json:"secretsFile,omitempty"`

	// SecretsEnvPrefix overrides the prefix of environment variable secrets.
	SecretsEnvPrefix string `json:"secretsEnvPrefix,omitempty"`

	// VerifyCertificate opens certificate files before signing.
	VerifyCertificate bool `json:"verifyCertificate,omitempty"`

	// ArchiveDir enables the signed document archive in the given OCI layout.
	ArchiveDir string `json:"archiveDir,omitempty"`

	Server ServerConfig `json:"server,omitempty"`
	Log    LogConfig    `json:"log,omitempty"`
}

// ServerConfig configures offsign serve.
type ServerConfig struct {
	Address string `json:"address,omitempty"`
}

// LogConfig configures the offsign logger.
type LogConfig struct {
	Level      string `json:"level,omitempty"`
	File       string `json:"file,omitempty"`
	MaxSizeMB  int    `json:"maxSizeMB,omitempty"`
	MaxBackups int    `json:"maxBackups,omitempty"`
	MaxAgeDays int    `json:"maxAgeDays,omitempty"`
}

// DefaultServerAddress is the listen address of offsign serve.
const DefaultServerAddress = "127.0.0.1:8080"

// NewConfig creates a config holding the defaults.
func NewConfig() *Config {
	return &Config{
		Server: ServerConfig{Address: DefaultServerAddress},
		Log:    LogConfig{Level: "info"},
	}
}

// Save stores the config to offsign.json in the user config directory.
func (c *Config) Save() error {
	path, err := dir.ConfigFS().SysPath(dir.PathConfigFile)
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile stores the config to path.
func (c *Config) SaveFile(path string) error {
	return file.SaveJSON(path, c)
}

// LoadConfig reads the config from file or return a default config if not found.
func LoadConfig() (*Config, error) {
	path, err := dir.ConfigFS().SysPath(dir.PathConfigFile)
	if err != nil {
		return nil, err
	}
	return LoadConfigFile(path)
}

// LoadConfigFile reads the config from path, falling back to defaults for
// a missing file and for unset fields.
func LoadConfigFile(path string) (*Config, error) {
	config := NewConfig()
	if err := file.LoadJSON(path, config); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewConfig(), nil
		}
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return config, nil
}

// Duration is a time.Duration encoded as a Go duration string.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if v < 0 {
		return fmt.Errorf("invalid duration %q: must not be negative", s)
	}
	d.Duration = v
	return nil
}
