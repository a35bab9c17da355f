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

// Package credential resolves the signing credential handed to the signer
// wrapper: either a certificate file with its password or a certificate
// store lookup by issuer and subject.
package credential

import (
	"context"
	"errors"
	"fmt"

	"github.com/offsign/offsign-go/log"
	"github.com/offsign/offsign-go/secret"
)

// PasswordSecretName is the name under which the certificate file password
// is looked up in the secret Provider.
const PasswordSecretName = "LocalCertPassword"

// Credential is either a File or a Store.
type Credential interface {
	credential()
}

// File signs with a certificate file (PFX) protected by Password.
type File struct {
	Path     string
	Password secret.Secret
}

func (File) credential() {}

// Store signs with a certificate from the certificate store, selected by
// substrings of its issuer and subject names.
type Store struct {
	Issuer  string
	Subject string
}

func (Store) credential() {}

// Options are the caller supplied credential parameters.
type Options struct {
	// CertPath is the path of the certificate file.
	CertPath string

	// PasswordSecret is the protected password of CertPath. It takes
	// precedence over every other password source.
	PasswordSecret *secret.Secret

	// Password is the plain text password of CertPath, used when neither
	// PasswordSecret nor the secret Provider yields a value.
	Password string

	// Issuer and Subject select a certificate from the store.
	Issuer  string
	Subject string
}

// PasswordSource tells where the password of a File credential came from.
type PasswordSource string

const (
	SourceCaller   PasswordSource = "caller secret"
	SourceProvider PasswordSource = "secret provider"
	SourcePlain    PasswordSource = "plain value"
)

// ErrNoValidCredential is returned when neither a file credential nor a
// store credential can be assembled.
var ErrNoValidCredential = errors.New("no valid credential")

// Resolver builds a Credential from Options.
type Resolver struct {
	// Secrets is consulted for PasswordSecretName when the caller supplied
	// no protected password. It may be nil.
	Secrets secret.Provider
}

// Resolve returns a File when CertPath is set and a Store when both Issuer
// and Subject are set. File takes precedence when both are given.
func (r *Resolver) Resolve(ctx context.Context, opts Options) (Credential, error) {
	logger := log.GetLogger(ctx)
	if opts.CertPath != "" {
		if opts.Issuer != "" || opts.Subject != "" {
			logger.Debug("both certificate file and store parameters supplied, using the certificate file")
		}
		password, source, err := r.password(ctx, opts)
		if err != nil {
			return nil, err
		}
		logger.Debugf("using certificate file %s with password from %s", opts.CertPath, source)
		return File{Path: opts.CertPath, Password: password}, nil
	}
	if opts.Issuer != "" && opts.Subject != "" {
		logger.Debugf("using certificate store lookup issuer=%q subject=%q", opts.Issuer, opts.Subject)
		return Store{Issuer: opts.Issuer, Subject: opts.Subject}, nil
	}
	if opts.Issuer != "" || opts.Subject != "" {
		return nil, fmt.Errorf("%w: certificate store lookup needs both issuer and subject", ErrNoValidCredential)
	}
	return nil, fmt.Errorf("%w: neither a certificate file nor a certificate store lookup was supplied", ErrNoValidCredential)
}

func (r *Resolver) password(ctx context.Context, opts Options) (secret.Secret, PasswordSource, error) {
	if opts.PasswordSecret != nil && !opts.PasswordSecret.IsEmpty() {
		return *opts.PasswordSecret, SourceCaller, nil
	}
	if r.Secrets != nil {
		s, err := r.Secrets.GetByName(ctx, PasswordSecretName)
		switch {
		case err == nil && !s.IsEmpty():
			return s, SourceProvider, nil
		case err != nil && !errors.Is(err, secret.ErrNotFound):
			return secret.Secret{}, "", fmt.Errorf("%w: failed to look up %s: %v", ErrNoValidCredential, PasswordSecretName, err)
		}
	}
	if opts.Password != "" {
		return secret.New(opts.Password), SourcePlain, nil
	}
	return secret.Secret{}, "", fmt.Errorf("%w: no password available for certificate file %s", ErrNoValidCredential, opts.CertPath)
}
