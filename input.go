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
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/offsign/offsign-go/log"
)

func noRelease() {}

// resolveInput returns the path of the file to sign. For a FileStream the
// payload is decoded into a request scoped scratch directory which release
// removes; for a LocalFilePath release does nothing.
func (d *Dispatcher) resolveInput(ctx context.Context, req *SigningRequest) (path string, release func(), err error) {
	logger := log.GetLogger(ctx)
	if req.FileStream == "" {
		path = filepath.Join(req.LocalFilePath, req.FileName)
		fi, err := os.Stat(path)
		if err != nil {
			return "", noRelease, InvalidRequestError{Msg: fmt.Sprintf("file to sign is not accessible: %v", err)}
		}
		if !fi.Mode().IsRegular() {
			return "", noRelease, InvalidRequestError{Msg: fmt.Sprintf("file to sign %s is not a regular file", path)}
		}
		return path, noRelease, nil
	}

	data, err := base64.StdEncoding.Strict().DecodeString(req.FileStream)
	if err != nil {
		return "", noRelease, InvalidRequestError{Msg: fmt.Sprintf("file stream is not valid base64: %v", err)}
	}
	if err := os.MkdirAll(d.scratchDir, 0700); err != nil {
		return "", noRelease, ArtifactWriteError{Msg: fmt.Sprintf("failed to create scratch directory: %v", err), Err: err}
	}
	requestDir := filepath.Join(d.scratchDir, uuid.NewString())
	if err := os.Mkdir(requestDir, 0700); err != nil {
		return "", noRelease, ArtifactWriteError{Msg: fmt.Sprintf("failed to create request directory: %v", err), Err: err}
	}
	release = func() {
		if err := os.RemoveAll(requestDir); err != nil {
			logger.Warnf("failed to remove %s: %v", requestDir, err)
			return
		}
		logger.Debugf("removed %s", requestDir)
	}

	path = filepath.Join(requestDir, req.FileName)
	if err := os.WriteFile(path, data, 0600); err != nil {
		release()
		return "", noRelease, ArtifactWriteError{Msg: fmt.Sprintf("failed to write %s: %v", req.FileName, err), Err: err}
	}
	logger.Debugf("decoded %d bytes to %s", len(data), path)
	return path, release, nil
}
