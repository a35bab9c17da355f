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

package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/offsign/offsign-go"
	"github.com/offsign/offsign-go/archive"
	"github.com/offsign/offsign-go/config"
	"github.com/offsign/offsign-go/dir"
	"github.com/offsign/offsign-go/extension"
	"github.com/offsign/offsign-go/internal/mock"
	"github.com/offsign/offsign-go/signer"
	"github.com/offsign/offsign-go/signer/kit"
	"github.com/opencontainers/go-digest"
)

var document = []byte("PK\x03\x04 presentation")

// setup points the user directories and the signer at test doubles and
// returns the path of a configuration file.
func setup(t *testing.T, modify func(*config.Config)) (string, *mock.Signer) {
	t.Helper()
	dir.UserConfigDir = t.TempDir()
	dir.UserCacheDir = t.TempDir()
	t.Cleanup(func() {
		dir.UserConfigDir = ""
		dir.UserCacheDir = ""
	})

	fake := &mock.Signer{}
	saved := newSigner
	newSigner = func(*config.Config) signer.Signer { return fake }
	t.Cleanup(func() { newSigner = saved })

	tools := t.TempDir()
	for _, name := range []string{signer.WrapperFileName, kit.SignTool} {
		if err := os.WriteFile(filepath.Join(tools, name), nil, 0600); err != nil {
			t.Fatal(err)
		}
	}
	cfg := config.NewConfig()
	cfg.SignToolPath = tools
	cfg.WindowsKitsPath = tools
	cfg.ScratchDir = t.TempDir()
	if modify != nil {
		modify(cfg)
	}
	b, err := json.Marshal(cfg)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "offsign.json")
	if err := os.WriteFile(path, b, 0600); err != nil {
		t.Fatal(err)
	}
	return path, fake
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func decodeResult(t *testing.T, out string) offsign.Result {
	t.Helper()
	var result offsign.Result
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("stdout is not a result: %q", out)
	}
	return result
}

func TestSignCommandStoreCredential(t *testing.T) {
	cfgPath, fake := setup(t, nil)
	out, err := execute(t, "", "sign", "--config", cfgPath,
		"--file-name", "Report.pptm",
		"--file-stream", base64.StdEncoding.EncodeToString(document),
		"--cert-issuer", "Sign", "--cert-name", "Sign")
	if err != nil {
		t.Fatalf("sign error = %v", err)
	}
	if result := decodeResult(t, out); result.ResultCode != offsign.ResultCodeSuccess {
		t.Fatalf("result = %+v", result)
	}
	invs := fake.Invocations()
	if len(invs) != 1 || invs[0].SignArgs != `sign /i "Sign" /n "Sign" /sm /fd "SHA256"` {
		t.Fatalf("invocations = %+v", invs)
	}
}

func TestSignCommandFailureExitStatus(t *testing.T) {
	cfgPath, fake := setup(t, nil)
	out, err := execute(t, "", "sign", "--config", cfgPath,
		"--file-name", "notes.txt",
		"--file-stream", base64.StdEncoding.EncodeToString(document),
		"--cert-issuer", "Sign", "--cert-name", "Sign")
	var ee exitError
	if !errors.As(err, &ee) || ee.code != 1 {
		t.Fatalf("sign error = %v, want exit status 1", err)
	}
	if result := decodeResult(t, out); result.ResultCode != offsign.ResultCodeFailure || result.Body != "unsupported file extension: notes.txt" {
		t.Fatalf("result = %+v", result)
	}
	if len(fake.Invocations()) != 0 {
		t.Fatal("signer ran for an unsupported file")
	}
}

func TestSignCommandPasswordSources(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		stdin   string
		args    []string
		wantArg string
	}{
		{
			name:    "plain flag",
			args:    []string{"--local-cert-password", "plain"},
			wantArg: `/p "plain"`,
		},
		{
			name:    "environment over plain flag",
			env:     "from-env",
			args:    []string{"--local-cert-password", "plain"},
			wantArg: `/p "from-env"`,
		},
		{
			name:    "stdin over environment",
			env:     "from-env",
			stdin:   "from-stdin\r\n",
			args:    []string{"--local-cert-password-stdin"},
			wantArg: `/p "from-stdin"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OFFSIGN_SECRET_LOCALCERTPASSWORD", tt.env)
			cfgPath, fake := setup(t, nil)
			args := append([]string{"sign", "--config", cfgPath,
				"--file-name", "Legacy.ppt",
				"--file-stream", base64.StdEncoding.EncodeToString(document),
				"--local-cert-path", "sign.pfx"}, tt.args...)
			if _, err := execute(t, tt.stdin, args...); err != nil {
				t.Fatalf("sign error = %v", err)
			}
			if got := fake.Invocations()[0].SignArgs; !strings.Contains(got, tt.wantArg) {
				t.Fatalf("SignArgs = %s, want %s", got, tt.wantArg)
			}
		})
	}
}

func TestSignCommandSecretsFile(t *testing.T) {
	cfgPath, fake := setup(t, nil)
	secretsPath, err := dir.ConfigFS().SysPath(dir.PathSecretsFile)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Dir(secretsPath), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(secretsPath, []byte(`{"LocalCertPassword":"from-file"}`), 0600); err != nil {
		t.Fatal(err)
	}
	_, err = execute(t, "", "sign", "--config", cfgPath,
		"--file-name", "Legacy.doc",
		"--file-stream", base64.StdEncoding.EncodeToString(document),
		"--local-cert-path", "sign.pfx")
	if err != nil {
		t.Fatalf("sign error = %v", err)
	}
	if got := fake.Invocations()[0].SignArgs; !strings.Contains(got, `/p "from-file"`) {
		t.Fatalf("SignArgs = %s", got)
	}
}

func TestSignCommandFlagConflicts(t *testing.T) {
	cfgPath, _ := setup(t, nil)
	_, err := execute(t, "", "sign", "--config", cfgPath,
		"--file-name", "a.docm", "--file-stream", "YQ==", "--local-file-path", "/tmp")
	var ee exitError
	if err == nil || errors.As(err, &ee) {
		t.Fatalf("sign error = %v, want a flag error", err)
	}

	_, err = execute(t, "", "sign", "--config", cfgPath, "--file-stream", "YQ==")
	if err == nil {
		t.Fatal("sign without --file-name succeeded")
	}
}

func TestSignCommandArchive(t *testing.T) {
	archiveDir := filepath.Join(t.TempDir(), "archive")
	cfgPath, _ := setup(t, func(cfg *config.Config) { cfg.ArchiveDir = archiveDir })
	out, err := execute(t, "", "sign", "--config", cfgPath,
		"--file-name", "Report.pptm",
		"--file-stream", base64.StdEncoding.EncodeToString(document),
		"--cert-issuer", "Sign", "--cert-name", "Sign")
	if err != nil {
		t.Fatal(err)
	}
	result := decodeResult(t, out)
	signed, err := result.Decode()
	if err != nil {
		t.Fatal(err)
	}
	store, err := archive.New(archiveDir)
	if err != nil {
		t.Fatal(err)
	}
	got, name, err := store.Fetch(context.Background(), digest.FromBytes(signed))
	if err != nil {
		t.Fatalf("signed document not archived: %v", err)
	}
	if !bytes.Equal(got, signed) || name != "Report.pptm" {
		t.Fatalf("archived %q as %s", got, name)
	}
}

func TestSignCommandInvalidConfig(t *testing.T) {
	cfgPath, _ := setup(t, func(cfg *config.Config) { cfg.DigestAlgorithm = "MD5" })
	_, err := execute(t, "", "sign", "--config", cfgPath,
		"--file-name", "a.docm", "--file-stream", "YQ==", "--cert-issuer", "a", "--cert-name", "b")
	if err == nil {
		t.Fatal("expected an error for an invalid configured digest algorithm")
	}
}

func TestExtensionsCommand(t *testing.T) {
	cfgPath, _ := setup(t, nil)
	out, err := execute(t, "", "extensions", "--config", cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"EXTENSION", ".pptm", "MSOSIPX", ".doc", "MSOSIP"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, err = execute(t, "", "extensions", "--json", "--config", cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	var entries []extension.Entry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != len(extension.All()) {
		t.Fatalf("got %d entries, want %d", len(entries), len(extension.All()))
	}
}

func TestRunServerShutdown(t *testing.T) {
	cfgPath, _ := setup(t, nil)
	root := &rootOptions{configPath: cfgPath}
	if err := root.load(); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(root.context(context.Background()))
	done := make(chan error, 1)
	go func() { done <- runServer(ctx, root, &serveOptions{address: "127.0.0.1:0"}) }()
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("runServer() error = %v", err)
	}
	if got := gin.Mode(); got != gin.ReleaseMode {
		t.Fatalf("gin mode = %q, want %q", got, gin.ReleaseMode)
	}
}

func TestConfigInitCommand(t *testing.T) {
	setup(t, nil)
	out, err := execute(t, "", "config", "init", "--log-level", "debug")
	if err != nil {
		t.Fatalf("config init error = %v", err)
	}
	want, err := dir.ConfigFS().SysPath(dir.PathConfigFile)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(out); got != want {
		t.Fatalf("config init printed %q, want %q", got, want)
	}
	cfg, err := config.LoadConfigFile(want)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Level != "debug" || cfg.Server.Address != config.DefaultServerAddress {
		t.Fatalf("saved config = %+v", cfg)
	}

	if _, err := execute(t, "", "config", "init"); err == nil || !strings.Contains(err.Error(), "--force") {
		t.Fatalf("config init over an existing file error = %v, want a --force hint", err)
	}
	if _, err := execute(t, "", "config", "init", "--force", "--log-level", "warn"); err != nil {
		t.Fatalf("config init --force error = %v", err)
	}
	cfg, err = config.LoadConfigFile(want)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Level != "warn" {
		t.Fatalf("log level = %q, want warn", cfg.Log.Level)
	}
}

func TestConfigInitCommandExplicitPath(t *testing.T) {
	cfgPath, _ := setup(t, nil)
	target := filepath.Join(t.TempDir(), "nested", "offsign.json")
	if _, err := execute(t, "", "config", "init", "--config", target); err != nil {
		t.Fatalf("config init error = %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	if _, err := execute(t, "", "config", "init", "--config", cfgPath, "--force", "--log-level", "error"); err != nil {
		t.Fatalf("config init --force error = %v", err)
	}
	cfg, err := config.LoadConfigFile(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Level != "error" || cfg.SignToolPath == "" {
		t.Fatalf("rewritten config = %+v, want the loaded values kept", cfg)
	}
}
