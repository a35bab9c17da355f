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

// Package mock provides test doubles for the signer wrapper, the secret
// store, the archive and a logger that records messages.
package mock

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/offsign/offsign-go/secret"
	"github.com/offsign/offsign-go/signer"
	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
)

// SignatureSuffix is appended to the file by Signer to simulate signing.
var SignatureSuffix = []byte("\n<signed>")

// Signer is a signer.Signer recording every invocation.
type Signer struct {
	// Output is returned by SignAndVerify.
	Output []byte

	// Err is returned by SignAndVerify. No signature is appended when set.
	Err error

	// Hook, when set, is called with the invocation before anything else.
	Hook func(inv *signer.Invocation)

	mu          sync.Mutex
	invocations []signer.Invocation
	existed     []bool
}

func (s *Signer) SignAndVerify(ctx context.Context, inv *signer.Invocation) ([]byte, error) {
	if s.Hook != nil {
		s.Hook(inv)
	}
	_, statErr := os.Stat(inv.FilePath)

	s.mu.Lock()
	s.invocations = append(s.invocations, *inv)
	s.existed = append(s.existed, statErr == nil)
	s.mu.Unlock()

	if s.Err != nil {
		return s.Output, s.Err
	}
	f, err := os.OpenFile(inv.FilePath, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if _, err := f.Write(SignatureSuffix); err != nil {
		return nil, err
	}
	return s.Output, nil
}

// Invocations returns the recorded invocations.
func (s *Signer) Invocations() []signer.Invocation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]signer.Invocation(nil), s.invocations...)
}

// FileExisted reports whether the file of invocation i existed when the
// signer ran.
func (s *Signer) FileExisted(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.existed[i]
}

// SecretProvider is a secret.Provider counting lookups.
type SecretProvider struct {
	Values map[string]string
	Err    error

	mu    sync.Mutex
	calls int
}

func (p *SecretProvider) GetByName(ctx context.Context, name string) (secret.Secret, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.Err != nil {
		return secret.Secret{}, p.Err
	}
	return secret.Map(p.Values).GetByName(ctx, name)
}

// Calls returns the number of lookups.
func (p *SecretProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// Archiver records archived documents.
type Archiver struct {
	Err error

	mu    sync.Mutex
	Files map[string][]byte
}

func (a *Archiver) Archive(ctx context.Context, fileName string, signed []byte) (ocispec.Descriptor, error) {
	if a.Err != nil {
		return ocispec.Descriptor{}, a.Err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Files == nil {
		a.Files = make(map[string][]byte)
	}
	a.Files[fileName] = append([]byte(nil), signed...)
	return ocispec.Descriptor{Digest: digest.FromBytes(signed), Size: int64(len(signed))}, nil
}

// Logger is a log.Logger keeping every message.
type Logger struct {
	mu       sync.Mutex
	Messages []string
}

func (l *Logger) add(level string, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Messages = append(l.Messages, level+": "+msg)
}

func (l *Logger) Debug(args ...interface{}) { l.add("debug", fmt.Sprint(args...)) }
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.add("debug", fmt.Sprintf(format, args...))
}
func (l *Logger) Info(args ...interface{}) { l.add("info", fmt.Sprint(args...)) }
func (l *Logger) Infof(format string, args ...interface{}) {
	l.add("info", fmt.Sprintf(format, args...))
}
func (l *Logger) Warn(args ...interface{}) { l.add("warn", fmt.Sprint(args...)) }
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.add("warn", fmt.Sprintf(format, args...))
}
func (l *Logger) Error(args ...interface{}) { l.add("error", fmt.Sprint(args...)) }
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.add("error", fmt.Sprintf(format, args...))
}

// All returns every message joined by newlines.
func (l *Logger) All() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := ""
	for _, m := range l.Messages {
		out += m + "\n"
	}
	return out
}
