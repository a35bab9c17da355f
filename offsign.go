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

// Package offsign signs Office macro-enabled documents by dispatching them
// to the Office sign-then-verify wrapper (offsign.bat).
//
// A request names the file either as a base64 payload or as an existing
// local file. The dispatcher validates the extension against the Office
// SIP table, resolves the signing credential, runs the wrapper once and
// returns a Result that carries the signed file or the error message.
package offsign

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/offsign/offsign-go/credential"
	"github.com/offsign/offsign-go/dir"
	"github.com/offsign/offsign-go/extension"
	"github.com/offsign/offsign-go/log"
	"github.com/offsign/offsign-go/secret"
	"github.com/offsign/offsign-go/signer"
	"github.com/offsign/offsign-go/signer/kit"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// Archiver keeps a copy of every signed document.
type Archiver interface {
	Archive(ctx context.Context, fileName string, signed []byte) (ocispec.Descriptor, error)
}

// Observer is told about every finished request.
type Observer interface {
	Observe(family, resultCode string, elapsed time.Duration)
}

// Options configures a Dispatcher.
type Options struct {
	// ScratchDir receives decoded payloads. Defaults to dir.ScratchDir().
	ScratchDir string

	// SignToolPath and WindowsKitsPath are used when a request leaves them
	// empty.
	SignToolPath    string
	WindowsKitsPath string

	// Architecture selects signtool.exe inside a Windows Kits root.
	Architecture string

	// DigestAlgorithm is used when a request names none.
	DigestAlgorithm signer.DigestAlgorithm

	// Secrets is consulted for the certificate file password.
	Secrets secret.Provider

	// VerifyCertificate opens certificate files before the wrapper runs.
	VerifyCertificate bool

	// Archiver, when set, receives every signed document. Archive failures
	// are logged and do not fail the request.
	Archiver Archiver

	// Observer, when set, is told about every finished request.
	Observer Observer
}

// Dispatcher signs documents. It is safe for concurrent use.
type Dispatcher struct {
	signer   signer.Signer
	resolver *credential.Resolver
	opts     Options

	scratchDir string
}

// New returns a Dispatcher running s for every request.
func New(s signer.Signer, opts Options) *Dispatcher {
	scratch := opts.ScratchDir
	if scratch == "" {
		scratch = dir.ScratchDir()
	}
	return &Dispatcher{
		signer:     s,
		resolver:   &credential.Resolver{Secrets: opts.Secrets},
		opts:       opts,
		scratchDir: scratch,
	}
}

// Sign signs the file of req and always returns a Result; failures are
// logged and reported as a ResultCodeFailure Result. A payload decoded for
// the request is removed before Sign returns, whatever the outcome.
func (d *Dispatcher) Sign(ctx context.Context, req *SigningRequest) (result *Result) {
	logger := log.GetLogger(ctx)
	start := time.Now()
	family := "unknown"
	defer func() {
		if r := recover(); r != nil {
			err := UnexpectedError{Msg: fmt.Sprintf("unexpected failure while signing: %v", r)}
			logger.Error(err)
			result = Failed(err)
		}
		if d.opts.Observer != nil {
			d.opts.Observer.Observe(family, result.ResultCode, time.Since(start))
		}
	}()

	signed, entry, err := d.sign(ctx, req)
	if entry.Family != "" {
		family = string(entry.Family)
	}
	if err != nil {
		logger.Errorf("failed to sign %s: %v", fileName(req), summary(err))
		return Failed(err)
	}
	logger.Infof("signed %s (%s %s) in %s", req.FileName, entry.Family, entry.Application, time.Since(start))
	return Succeeded(signed)
}

func (d *Dispatcher) sign(ctx context.Context, req *SigningRequest) ([]byte, extension.Entry, error) {
	logger := log.GetLogger(ctx)
	if req == nil {
		return nil, extension.Entry{}, InvalidRequestError{Msg: "no signing request"}
	}
	if err := req.validate(); err != nil {
		return nil, extension.Entry{}, err
	}
	alg, err := d.digestAlgorithm(req)
	if err != nil {
		return nil, extension.Entry{}, err
	}
	entry, ok := extension.Lookup(req.FileName)
	if !ok {
		return nil, extension.Entry{}, UnsupportedExtensionError{FileName: req.FileName}
	}
	logger.Debugf("%s accepted as %s %s document", req.FileName, entry.Family, entry.Application)

	path, release, err := d.resolveInput(ctx, req)
	if err != nil {
		return nil, entry, err
	}
	defer release()

	cred, err := d.resolver.Resolve(ctx, req.Credential)
	if err != nil {
		return nil, entry, NoValidCredentialError{Msg: err.Error(), Err: err}
	}
	if f, ok := cred.(credential.File); ok && d.opts.VerifyCertificate {
		if _, err := credential.VerifyFile(ctx, f); err != nil {
			return nil, entry, NoValidCredentialError{Msg: err.Error(), Err: err}
		}
	}

	inv, err := d.invocation(req, path, cred, alg)
	if err != nil {
		return nil, entry, err
	}
	if _, err := d.signer.SignAndVerify(ctx, inv); err != nil {
		var toolErr *signer.ToolError
		if errors.As(err, &toolErr) {
			return nil, entry, SigningToolError{Output: string(toolErr.Output), Err: toolErr.Err}
		}
		return nil, entry, SigningToolError{Err: err}
	}

	signed, err := os.ReadFile(path)
	if err != nil {
		return nil, entry, UnexpectedError{Msg: fmt.Sprintf("failed to read signed file: %v", err), Err: err}
	}
	logger.Debugf("read %d signed bytes of %s", len(signed), req.FileName)

	if d.opts.Archiver != nil {
		if archived, err := d.opts.Archiver.Archive(ctx, req.FileName, signed); err != nil {
			logger.Warnf("failed to archive signed %s: %v", req.FileName, err)
		} else {
			logger.Infof("archived signed %s as %s", req.FileName, archived.Digest)
		}
	}
	return signed, entry, nil
}

func (d *Dispatcher) digestAlgorithm(req *SigningRequest) (signer.DigestAlgorithm, error) {
	raw := req.DigestAlgorithm
	if raw == "" {
		raw = d.opts.DigestAlgorithm
	}
	alg, err := signer.ParseDigestAlgorithm(string(raw))
	if err != nil {
		return "", InvalidRequestError{Msg: err.Error()}
	}
	return alg, nil
}

func (d *Dispatcher) invocation(req *SigningRequest, path string, cred credential.Credential, alg signer.DigestAlgorithm) (*signer.Invocation, error) {
	signToolPath := firstNonEmpty(req.SignToolPath, d.opts.SignToolPath)
	wrapper, err := signer.ResolveWrapper(signToolPath)
	if err != nil {
		return nil, SigningToolError{Err: err}
	}
	toolRoot, err := kit.Resolve(firstNonEmpty(req.WindowsKitsPath, d.opts.WindowsKitsPath), d.opts.Architecture)
	if err != nil {
		return nil, SigningToolError{Err: err}
	}
	inv, err := signer.NewInvocation(wrapper, toolRoot, path, cred, alg)
	if err != nil {
		if errors.Is(err, signer.ErrUnquotableArgument) {
			return nil, InvalidRequestError{Msg: "credential parameters must not contain double quotes"}
		}
		return nil, UnexpectedError{Msg: err.Error(), Err: err}
	}
	return inv, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func fileName(req *SigningRequest) string {
	if req == nil || req.FileName == "" {
		return "request"
	}
	return req.FileName
}

// summary keeps multi-line wrapper output out of the one-line error log;
// the full output is returned in the Result body.
func summary(err error) string {
	var toolErr SigningToolError
	if errors.As(err, &toolErr) && toolErr.Err != nil {
		return toolErr.Err.Error()
	}
	return err.Error()
}
