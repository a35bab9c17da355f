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

package signer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/offsign/offsign-go/credential"
)

// VerifyArgs is the verify sub-command handed to the wrapper.
const VerifyArgs = "verify /pa"

const redactedPassword = "********"

// ErrUnquotableArgument is returned when a value cannot be passed through
// the wrapper's double quoted arguments.
var ErrUnquotableArgument = errors.New("argument contains a double quote")

// SignArgs builds the sign sub-command for cred.
//
//	File:  sign /f "<path>" /p "<password>" /fd "<alg>"
//	Store: sign /i "<issuer>" /n "<subject>" /sm /fd "<alg>"
func SignArgs(cred credential.Credential, alg DigestAlgorithm) (string, error) {
	return signArgs(cred, alg, false)
}

func signArgs(cred credential.Credential, alg DigestAlgorithm, redact bool) (string, error) {
	if alg == "" {
		alg = DefaultDigestAlgorithm
	}
	switch c := cred.(type) {
	case credential.File:
		password := c.Password.Reveal()
		if redact {
			password = redactedPassword
		}
		return join("sign", "/f", quoted(c.Path), "/p", quoted(password), "/fd", quoted(string(alg)))
	case credential.Store:
		return join("sign", "/i", quoted(c.Issuer), "/n", quoted(c.Subject), "/sm", "/fd", quoted(string(alg)))
	}
	return "", fmt.Errorf("unsupported credential type %T", cred)
}

type quoted string

func join(parts ...interface{}) (string, error) {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		switch v := p.(type) {
		case quoted:
			if strings.ContainsRune(string(v), '"') {
				return "", ErrUnquotableArgument
			}
			out = append(out, `"`+string(v)+`"`)
		case string:
			out = append(out, v)
		}
	}
	return strings.Join(out, " "), nil
}
