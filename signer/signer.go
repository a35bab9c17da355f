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

// Package signer invokes the Office sign-then-verify wrapper (offsign.bat)
// and interprets its output.
package signer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/offsign/offsign-go/credential"
	iox "github.com/offsign/offsign-go/internal/io"
	"github.com/offsign/offsign-go/log"
)

// WrapperFileName is the file name of the wrapper inside a tool directory.
const WrapperFileName = "offsign.bat"

// DefaultFailureMarker is the text the wrapper prints when signing or
// verification needs remediation. Its presence fails the request even when
// the wrapper exits with status zero.
const DefaultFailureMarker = "Please fix the issue"

// maxOutputBytes is the amount of wrapper output kept.
const maxOutputBytes = 1 << 20

// DefaultTimeout bounds a single wrapper run.
const DefaultTimeout = 10 * time.Minute

// ErrRemediationRequired is set on a ToolError whose output carried the
// failure marker.
var ErrRemediationRequired = errors.New("signer wrapper reported a failure")

var executor commander = execCommander{} // for unit test

// Signer signs and verifies a file in place.
type Signer interface {
	// SignAndVerify runs the sign and verify sub-commands of inv once and
	// returns the captured output.
	SignAndVerify(ctx context.Context, inv *Invocation) ([]byte, error)
}

// Invocation is one run of the wrapper.
type Invocation struct {
	// WrapperPath is the offsign.bat to execute.
	WrapperPath string

	// ToolRoot is the directory holding signtool.exe.
	ToolRoot string

	// SignArgs is the sign sub-command, see SignArgs.
	SignArgs string

	// VerifyArgs is the verify sub-command, always VerifyArgs.
	VerifyArgs string

	// FilePath is the file signed in place.
	FilePath string

	redactedSignArgs string
}

// NewInvocation builds the Invocation signing filePath with cred.
func NewInvocation(wrapperPath, toolRoot, filePath string, cred credential.Credential, alg DigestAlgorithm) (*Invocation, error) {
	args, err := signArgs(cred, alg, false)
	if err != nil {
		return nil, err
	}
	redacted, err := signArgs(cred, alg, true)
	if err != nil {
		return nil, err
	}
	return &Invocation{
		WrapperPath:      wrapperPath,
		ToolRoot:         toolRoot,
		SignArgs:         args,
		VerifyArgs:       VerifyArgs,
		FilePath:         filePath,
		redactedSignArgs: redacted,
	}, nil
}

// Args returns the wrapper arguments in order.
func (inv *Invocation) Args() []string {
	return []string{inv.ToolRoot, inv.SignArgs, inv.VerifyArgs, inv.FilePath}
}

// Redacted returns the command line with the certificate password masked.
func (inv *Invocation) Redacted() string {
	signArgs := inv.redactedSignArgs
	if signArgs == "" {
		signArgs = "sign <hidden>"
	}
	return fmt.Sprintf("%s %q %q %q %q", inv.WrapperPath, inv.ToolRoot, signArgs, inv.VerifyArgs, inv.FilePath)
}

// ToolError is returned when the wrapper could not be run, exited with a
// failure status, timed out or printed the failure marker.
type ToolError struct {
	// Output is the captured wrapper output, verbatim.
	Output []byte
	Err    error
}

func (e *ToolError) Error() string {
	if len(e.Output) > 0 {
		return string(e.Output)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "signer wrapper failed"
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// Wrapper is the Signer executing offsign.bat.
type Wrapper struct {
	// FailureMarker overrides DefaultFailureMarker when set.
	FailureMarker string

	// Timeout bounds one run. Zero disables the bound; the caller context
	// still applies.
	Timeout time.Duration
}

// NewWrapper returns a Wrapper with the default marker and timeout.
func NewWrapper() *Wrapper {
	return &Wrapper{FailureMarker: DefaultFailureMarker, Timeout: DefaultTimeout}
}

// SignAndVerify runs the wrapper once. There is no retry.
func (w *Wrapper) SignAndVerify(ctx context.Context, inv *Invocation) ([]byte, error) {
	logger := log.GetLogger(ctx)
	if w.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.Timeout)
		defer cancel()
	}
	logger.Debugf("running %s", inv.Redacted())

	marker := w.FailureMarker
	if marker == "" {
		marker = DefaultFailureMarker
	}
	// the head of the output is kept for the caller while the marker is
	// searched for in the whole stream
	var buf bytes.Buffer
	head := iox.LimitWriter(&buf, maxOutputBytes)
	match := iox.NewMatchWriter(marker)

	start := time.Now()
	err := executor.Run(ctx, inv.WrapperPath, inv.Args(), io.MultiWriter(head, match))
	logger.Debugf("signer wrapper finished in %s", time.Since(start))
	if head.Truncated() {
		logger.Warnf("signer wrapper output exceeded %d bytes and was truncated", maxOutputBytes)
	}
	out := buf.Bytes()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return out, &ToolError{Output: out, Err: fmt.Errorf("signer wrapper did not finish: %w", ctxErr)}
	}
	if err != nil {
		return out, &ToolError{Output: out, Err: fmt.Errorf("failed to run signer wrapper: %w", err)}
	}
	if match.Matched() {
		return out, &ToolError{Output: out, Err: ErrRemediationRequired}
	}
	return out, nil
}

// ResolveWrapper returns the wrapper path for signToolPath, which is either
// the wrapper itself or a directory containing WrapperFileName.
func ResolveWrapper(signToolPath string) (string, error) {
	if signToolPath == "" {
		return "", errors.New("sign tool path not specified")
	}
	fi, err := os.Stat(signToolPath)
	if err != nil {
		return "", fmt.Errorf("sign tool path: %w", err)
	}
	if !fi.IsDir() {
		return signToolPath, nil
	}
	path := filepath.Join(signToolPath, WrapperFileName)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("sign tool path: %w", err)
	}
	return path, nil
}

// commander is defined for mocking purposes.
type commander interface {
	// Run runs name with args and writes its combined stdout and stderr to
	// out, also when the command fails.
	Run(ctx context.Context, name string, args []string, out io.Writer) error
}

// execCommander implements the commander interface using exec.CommandContext().
type execCommander struct{}

func (execCommander) Run(ctx context.Context, name string, args []string, out io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	setCommandLine(cmd, name, args)
	cmd.Stdout = out
	cmd.Stderr = out
	return cmd.Run()
}

// commandLine returns the command line running name with args, each
// enclosed in double quotes and passed through verbatim. Batch files do not
// undo the backslash escaping applied to embedded quotes by the default
// Windows argument encoding, so the wrapper is started with this line.
func commandLine(name string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	for _, a := range append([]string{name}, args...) {
		parts = append(parts, `"`+a+`"`)
	}
	return strings.Join(parts, " ")
}
