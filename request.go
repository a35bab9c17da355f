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

package offsign

import (
	"fmt"

	"github.com/offsign/offsign-go/credential"
	"github.com/offsign/offsign-go/internal/file"
	"github.com/offsign/offsign-go/signer"
)

// SigningRequest is one file to sign.
type SigningRequest struct {
	// FileStream is the base64 encoded file. Exactly one of FileStream and
	// LocalFilePath must be set.
	FileStream string

	// LocalFilePath is the directory of an existing file named FileName,
	// which is signed in place and never removed.
	LocalFilePath string

	// FileName is the name of the file. Its extension selects the SIP.
	FileName string

	// Credential selects the certificate.
	Credential credential.Options

	// DigestAlgorithm defaults to the dispatcher default, then SHA256.
	DigestAlgorithm signer.DigestAlgorithm

	// SignToolPath and WindowsKitsPath override the dispatcher defaults.
	SignToolPath    string
	WindowsKitsPath string
}

func (r *SigningRequest) validate() error {
	switch {
	case r.FileStream != "" && r.LocalFilePath != "":
		return InvalidRequestError{Msg: "only one of file stream and local file path can be supplied"}
	case r.FileStream == "" && r.LocalFilePath == "":
		return InvalidRequestError{Msg: "either a file stream or a local file path must be supplied"}
	case r.FileName == "":
		return InvalidRequestError{Msg: "file name not specified"}
	case !file.IsValidFileName(r.FileName):
		return InvalidRequestError{Msg: fmt.Sprintf("file name %q is not a plain file name", r.FileName)}
	}
	return nil
}
