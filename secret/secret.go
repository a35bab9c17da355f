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

// Package secret provides the protected Secret value and the Provider
// lookups used to fetch certificate passwords by name.
package secret

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/offsign/offsign-go/internal/file"
)

const redacted = "[REDACTED]"

// ErrNotFound is returned by a Provider that has no value for a name.
var ErrNotFound = errors.New("secret not found")

// Secret is a value that is never rendered by fmt, encoding/json or loggers.
// Use Reveal to obtain the plain text at the point of use.
type Secret struct {
	value string
}

// New wraps value.
func New(value string) Secret {
	return Secret{value: value}
}

// Reveal returns the plain text value.
func (s Secret) Reveal() string {
	return s.value
}

// IsEmpty reports whether the secret holds no value.
func (s Secret) IsEmpty() bool {
	return s.value == ""
}

func (s Secret) String() string {
	return redacted
}

func (s Secret) GoString() string {
	return "secret.Secret{" + redacted + "}"
}

// Format makes every fmt verb print the redacted marker.
func (s Secret) Format(f fmt.State, verb rune) {
	if verb == 'v' && f.Flag('#') {
		fmt.Fprint(f, s.GoString())
		return
	}
	fmt.Fprint(f, redacted)
}

func (s Secret) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}

// Provider looks secrets up by name.
type Provider interface {
	// GetByName returns the secret stored under name, or ErrNotFound.
	GetByName(ctx context.Context, name string) (Secret, error)
}

// Map is a Provider backed by a static map.
type Map map[string]string

func (m Map) GetByName(_ context.Context, name string) (Secret, error) {
	v, ok := m[name]
	if !ok || v == "" {
		return Secret{}, ErrNotFound
	}
	return New(v), nil
}

// EnvPrefix is the default prefix of environment variables read by Env.
const EnvPrefix = "OFFSIGN_SECRET_"

// Env is a Provider reading environment variables named Prefix followed by
// the upper-cased secret name, e.g. OFFSIGN_SECRET_LOCALCERTPASSWORD.
type Env struct {
	Prefix string

	lookupEnv func(string) (string, bool)
}

// VariableName returns the environment variable consulted for name.
func (e Env) VariableName(name string) string {
	prefix := e.Prefix
	if prefix == "" {
		prefix = EnvPrefix
	}
	return prefix + strings.ToUpper(name)
}

func (e Env) GetByName(_ context.Context, name string) (Secret, error) {
	lookup := e.lookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	v, ok := lookup(e.VariableName(name))
	if !ok || v == "" {
		return Secret{}, ErrNotFound
	}
	return New(v), nil
}

// File is a Provider reading a JSON object of name to value from Path on
// every lookup, so rotated values are picked up without a restart.
type File struct {
	Path string
}

func (f File) GetByName(ctx context.Context, name string) (Secret, error) {
	var values map[string]string
	if err := file.LoadJSON(f.Path, &values); err != nil {
		return Secret{}, fmt.Errorf("failed to read secrets file: %w", err)
	}
	return Map(values).GetByName(ctx, name)
}

// Chain asks each Provider in order and returns the first value found.
type Chain []Provider

func (c Chain) GetByName(ctx context.Context, name string) (Secret, error) {
	for _, p := range c {
		s, err := p.GetByName(ctx, name)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Secret{}, err
		}
	}
	return Secret{}, ErrNotFound
}
