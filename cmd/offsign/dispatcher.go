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

package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/offsign/offsign-go"
	"github.com/offsign/offsign-go/archive"
	"github.com/offsign/offsign-go/config"
	"github.com/offsign/offsign-go/dir"
	"github.com/offsign/offsign-go/secret"
	"github.com/offsign/offsign-go/signer"
)

// newSigner returns the Signer used by the dispatcher.
var newSigner = func(cfg *config.Config) signer.Signer { // for unit test
	w := signer.NewWrapper()
	if cfg.FailureMarker != "" {
		w.FailureMarker = cfg.FailureMarker
	}
	if cfg.Timeout != nil {
		w.Timeout = cfg.Timeout.Duration
	}
	return w
}

// newDispatcher builds a Dispatcher from cfg. The archive is enabled when
// cfg names an archive directory or withArchive is set.
func newDispatcher(cfg *config.Config, withArchive bool, observer offsign.Observer) (*offsign.Dispatcher, error) {
	alg, err := signer.ParseDigestAlgorithm(cfg.DigestAlgorithm)
	if err != nil {
		return nil, err
	}
	secrets, err := secretProvider(cfg)
	if err != nil {
		return nil, err
	}
	opts := offsign.Options{
		ScratchDir:        cfg.ScratchDir,
		SignToolPath:      cfg.SignToolPath,
		WindowsKitsPath:   cfg.WindowsKitsPath,
		Architecture:      cfg.Architecture,
		DigestAlgorithm:   alg,
		Secrets:           secrets,
		VerifyCertificate: cfg.VerifyCertificate,
		Observer:          observer,
	}
	if withArchive || cfg.ArchiveDir != "" {
		root := cfg.ArchiveDir
		if root == "" {
			root = dir.ArchiveDir()
		}
		store, err := archive.New(root)
		if err != nil {
			return nil, err
		}
		opts.Archiver = store
	}
	return offsign.New(newSigner(cfg), opts), nil
}

// secretProvider looks secrets up in the environment, then in the secrets
// file. Without a configured file, the user level secrets file is used when
// it exists.
func secretProvider(cfg *config.Config) (secret.Provider, error) {
	chain := secret.Chain{secret.Env{Prefix: cfg.SecretsEnvPrefix}}
	path := cfg.SecretsFile
	if path == "" {
		defaultPath, err := dir.ConfigFS().SysPath(dir.PathSecretsFile)
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(defaultPath); err == nil {
			path = defaultPath
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	if path != "" {
		chain = append(chain, secret.File{Path: path})
	}
	return chain, nil
}
