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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/offsign/offsign-go"
	"github.com/offsign/offsign-go/credential"
	"github.com/offsign/offsign-go/secret"
	"github.com/offsign/offsign-go/signer"
	"github.com/spf13/cobra"
)

type signOptions struct {
	signToolPath        string
	fileStream          string
	localFilePath       string
	fileName            string
	localCertPath       string
	localCertPassword   string
	passwordStdin       bool
	certIssuer          string
	certName            string
	fileDigestAlgorithm string
	windowsKitsPath     string
	archive             bool
}

func (o *signOptions) addFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&o.signToolPath, "sign-tool-path", "", "offsign.bat or the directory containing it")
	fs.StringVar(&o.fileStream, "file-stream", "", "base64 encoded document to sign")
	fs.StringVar(&o.localFilePath, "local-file-path", "", "directory of a document to sign in place")
	fs.StringVar(&o.fileName, "file-name", "", "file name of the document")
	fs.StringVar(&o.localCertPath, "local-cert-path", "", "path of a PFX certificate file")
	fs.StringVar(&o.localCertPassword, "local-cert-password", "", "password of the certificate file")
	fs.BoolVar(&o.passwordStdin, "local-cert-password-stdin", false, "read the certificate file password from stdin")
	fs.StringVar(&o.certIssuer, "cert-issuer", "", "issuer substring of a certificate in the store")
	fs.StringVar(&o.certName, "cert-name", "", "subject substring of a certificate in the store")
	fs.StringVar(&o.fileDigestAlgorithm, "file-digest-algorithm", "", "file digest algorithm: SHA256 or SHA1")
	fs.StringVar(&o.windowsKitsPath, "windows-kits-path", "", "signtool.exe directory or Windows Kits root")
	fs.BoolVar(&o.archive, "archive", false, "keep a copy of the signed document in the archive")
	cmd.MarkFlagsMutuallyExclusive("file-stream", "local-file-path")
	cmd.MarkFlagsMutuallyExclusive("local-cert-password", "local-cert-password-stdin")
	_ = cmd.MarkFlagRequired("file-name")
}

// request builds the signing request, reading the password from stdin when
// asked to.
func (o *signOptions) request(stdin io.Reader) (*offsign.SigningRequest, error) {
	req := &offsign.SigningRequest{
		FileStream:    o.fileStream,
		LocalFilePath: o.localFilePath,
		FileName:      o.fileName,
		Credential: credential.Options{
			CertPath: o.localCertPath,
			Password: o.localCertPassword,
			Issuer:   o.certIssuer,
			Subject:  o.certName,
		},
		DigestAlgorithm: signer.DigestAlgorithm(o.fileDigestAlgorithm),
		SignToolPath:    o.signToolPath,
		WindowsKitsPath: o.windowsKitsPath,
	}
	if o.passwordStdin {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read password from stdin: %w", err)
		}
		password := strings.TrimRight(string(b), "\r\n")
		if password == "" {
			return nil, errors.New("password from stdin is empty")
		}
		protected := secret.New(password)
		req.Credential.PasswordSecret = &protected
	}
	return req, nil
}

func signCommand(root *rootOptions) *cobra.Command {
	opts := &signOptions{}
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign and verify one Office document",
		Long: `Sign and verify one Office document with offsign.bat.

The JSON result is written to stdout. The command exits with status 1 when
the result code is 500.`,
		Example: `  offsign sign --file-name Report.pptm --file-stream "$(base64 -w0 Report.pptm)" --cert-issuer Sign --cert-name Sign
  offsign sign --local-file-path C:\docs --file-name Legacy.ppt --local-cert-path C:\certs\sign.pfx --local-cert-password-stdin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := opts.request(cmd.InOrStdin())
			if err != nil {
				return err
			}
			d, err := newDispatcher(root.cfg, opts.archive, nil)
			if err != nil {
				return err
			}
			result := d.Sign(root.context(cmd.Context()), req)
			if err := json.NewEncoder(cmd.OutOrStdout()).Encode(result); err != nil {
				return err
			}
			if !result.OK() {
				return exitError{code: 1}
			}
			return nil
		},
	}
	opts.addFlags(cmd)
	return cmd
}
