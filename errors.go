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

// ArtifactWriteError is used when the decoded payload cannot be written to
// the scratch directory.
type ArtifactWriteError struct {
	Msg string
	Err error
}

func (e ArtifactWriteError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "failed to write the file to sign"
}

func (e ArtifactWriteError) Unwrap() error {
	return e.Err
}

// UnsupportedExtensionError is used when the file name does not carry an
// extension an Office SIP can sign.
type UnsupportedExtensionError struct {
	FileName string
}

func (e UnsupportedExtensionError) Error() string {
	if e.FileName != "" {
		return "unsupported file extension: " + e.FileName
	}
	return "unsupported file extension"
}

// NoValidCredentialError is used when neither a certificate file with a
// password nor a certificate store lookup can be assembled.
type NoValidCredentialError struct {
	Msg string
	Err error
}

func (e NoValidCredentialError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "no valid signing credential"
}

func (e NoValidCredentialError) Unwrap() error {
	return e.Err
}

// SigningToolError is used when the signer wrapper fails. Output is the
// captured wrapper output, verbatim.
type SigningToolError struct {
	Output string
	Err    error
}

func (e SigningToolError) Error() string {
	if e.Output != "" {
		return e.Output
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "signing tool failed"
}

func (e SigningToolError) Unwrap() error {
	return e.Err
}

// InvalidRequestError is used when the request itself is malformed.
type InvalidRequestError struct {
	Msg string
}

func (e InvalidRequestError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "invalid signing request"
}

// UnexpectedError is used for every other failure.
type UnexpectedError struct {
	Msg string
	Err error
}

func (e UnexpectedError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "unexpected error while signing"
}

func (e UnexpectedError) Unwrap() error {
	return e.Err
}
