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

package credential

import (
	"bytes"
	"context"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"time"

	corex509 "github.com/notaryproject/notation-core-go/x509"
	"github.com/offsign/offsign-go/log"
	"golang.org/x/crypto/pkcs12"
)

// for mocking
var now = time.Now

// VerifyFile opens the certificate file of f with its password before the
// signer wrapper is started, so that a wrong password is reported as a
// credential problem instead of an opaque tool failure. Problems with the
// certificate chain itself are only logged.
func VerifyFile(ctx context.Context, f File) ([]*x509.Certificate, error) {
	logger := log.GetLogger(ctx)
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read certificate file: %v", ErrNoValidCredential, err)
	}
	blocks, err := pkcs12.ToPEM(data, f.Password.Reveal())
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open certificate file %s: %v", ErrNoValidCredential, f.Path, err)
	}
	chain, err := orderChain(blocks)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoValidCredential, f.Path, err)
	}
	signingTime := now()
	if err := corex509.ValidateCodeSigningCertChain(chain, &signingTime); err != nil {
		logger.Warnf("certificate file %s does not hold a valid code signing chain: %v", f.Path, err)
	}
	logger.Debugf("certificate file %s opened, subject %q", f.Path, chain[0].Subject.String())
	return chain, nil
}

// orderChain returns the certificates of a decoded PFX ordered from the
// certificate matching the private key up the issuer chain.
func orderChain(blocks []*pem.Block) ([]*x509.Certificate, error) {
	var (
		keyID string
		certs []*x509.Certificate
		ids   []string
	)
	for _, b := range blocks {
		switch b.Type {
		case "CERTIFICATE":
			cert, err := x509.ParseCertificate(b.Bytes)
			if err != nil {
				return nil, err
			}
			certs = append(certs, cert)
			ids = append(ids, b.Headers["localKeyId"])
		case "PRIVATE KEY":
			keyID = b.Headers["localKeyId"]
		}
	}
	if len(certs) == 0 {
		return nil, fmt.Errorf("no certificate found")
	}

	leaf := 0
	if keyID != "" {
		for i, id := range ids {
			if id == keyID {
				leaf = i
				break
			}
		}
	}
	chain := []*x509.Certificate{certs[leaf]}
	used := map[int]bool{leaf: true}
	for {
		current := chain[len(chain)-1]
		if bytes.Equal(current.RawIssuer, current.RawSubject) {
			break
		}
		next := -1
		for i, c := range certs {
			if !used[i] && bytes.Equal(c.RawSubject, current.RawIssuer) {
				next = i
				break
			}
		}
		if next < 0 {
			break
		}
		used[next] = true
		chain = append(chain, certs[next])
	}
	return chain, nil
}
