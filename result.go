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

import "encoding/base64"

// Result codes of a signing request.
const (
	ResultCodeSuccess = "200"
	ResultCodeFailure = "500"
)

// Result is the outcome of one signing request. Body is the base64 encoded
// signed file on success and the error message otherwise.
type Result struct {
	ResultCode string `json:"ResultCode"`
	Body       string `json:"Body"`
}

// Succeeded returns the Result for signed content.
func Succeeded(signed []byte) *Result {
	return &Result{ResultCode: ResultCodeSuccess, Body: base64.StdEncoding.EncodeToString(signed)}
}

// Failed returns the Result for err.
func Failed(err error) *Result {
	return &Result{ResultCode: ResultCodeFailure, Body: err.Error()}
}

// OK reports whether the request succeeded.
func (r *Result) OK() bool {
	return r.ResultCode == ResultCodeSuccess
}

// Decode returns the signed bytes of a successful Result.
func (r *Result) Decode() ([]byte, error) {
	return base64.StdEncoding.DecodeString(r.Body)
}
