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
	"fmt"
	"strings"
)

// DigestAlgorithm is the file digest algorithm passed to signtool /fd.
type DigestAlgorithm string

const (
	SHA1   DigestAlgorithm = "SHA1"
	SHA256 DigestAlgorithm = "SHA256"
)

// DefaultDigestAlgorithm is used when the caller names none.
const DefaultDigestAlgorithm = SHA256

// ParseDigestAlgorithm parses s case-insensitively. An empty s yields
// DefaultDigestAlgorithm.
func ParseDigestAlgorithm(s string) (DigestAlgorithm, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return DefaultDigestAlgorithm, nil
	case "SHA1", "SHA-1":
		return SHA1, nil
	case "SHA256", "SHA-256":
		return SHA256, nil
	}
	return "", fmt.Errorf("unsupported file digest algorithm %q", s)
}
