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
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/offsign/offsign-go/credential"
)

type testCommander struct {
	output []byte
	chunks []string
	err    error

	name string
	args []string
}

func (c *testCommander) Run(ctx context.Context, name string, args []string, out io.Writer) error {
	c.name, c.args = name, args
	if _, err := out.Write(c.output); err != nil {
		return err
	}
	for _, chunk := range c.chunks {
		if _, err := out.Write([]byte(chunk)); err != nil {
			return err
		}
	}
	return c.err
}

func withExecutor(t *testing.T, c commander) {
	t.Helper()
	old := executor
	executor = c
	t.Cleanup(func() { executor = old })
}

func storeInvocation(t *testing.T, file string) *Invocation {
	t.Helper()
	inv, err := NewInvocation("offsign.bat", "C:/kit", file, credential.Store{Issuer: "Sign", Subject: "Sign"}, SHA256)
	if err != nil {
		t.Fatal(err)
	}
	return inv
}

func TestWrapperSignAndVerify(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		cmd := &testCommander{output: []byte("Successfully signed: Report.pptm\nSuccessfully verified: Report.pptm\n")}
		withExecutor(t, cmd)
		out, err := NewWrapper().SignAndVerify(context.Background(), storeInvocation(t, "Report.pptm"))
		if err != nil {
			t.Fatalf("SignAndVerify() error = %v", err)
		}
		if !strings.Contains(string(out), "Successfully verified") {
			t.Fatalf("SignAndVerify() output = %q", out)
		}
		wantArgs := []string{"C:/kit", `sign /i "Sign" /n "Sign" /sm /fd "SHA256"`, "verify /pa", "Report.pptm"}
		if cmd.name != "offsign.bat" || strings.Join(cmd.args, "|") != strings.Join(wantArgs, "|") {
			t.Fatalf("wrapper called as %s %q, want %q", cmd.name, cmd.args, wantArgs)
		}
	})

	t.Run("failure marker with zero exit status", func(t *testing.T) {
		output := "SignTool Error: No certificates were found.\n" + DefaultFailureMarker + " and retry.\n"
		withExecutor(t, &testCommander{output: []byte(output)})
		_, err := NewWrapper().SignAndVerify(context.Background(), storeInvocation(t, "Report.pptm"))
		var toolErr *ToolError
		if !errors.As(err, &toolErr) || !errors.Is(err, ErrRemediationRequired) {
			t.Fatalf("SignAndVerify() error = %v, want ToolError with ErrRemediationRequired", err)
		}
		if string(toolErr.Output) != output || toolErr.Error() != output {
			t.Fatalf("ToolError output = %q, want %q", toolErr.Output, output)
		}
	})

	t.Run("custom failure marker", func(t *testing.T) {
		withExecutor(t, &testCommander{output: []byte("SIP not registered")})
		w := &Wrapper{FailureMarker: "SIP not registered"}
		if _, err := w.SignAndVerify(context.Background(), storeInvocation(t, "a.doc")); !errors.Is(err, ErrRemediationRequired) {
			t.Fatalf("SignAndVerify() error = %v, want ErrRemediationRequired", err)
		}
	})

	t.Run("failure marker split across writes", func(t *testing.T) {
		withExecutor(t, &testCommander{chunks: []string{"SignTool Error. Please fi", "x the is", "sue\n"}})
		if _, err := NewWrapper().SignAndVerify(context.Background(), storeInvocation(t, "a.doc")); !errors.Is(err, ErrRemediationRequired) {
			t.Fatalf("SignAndVerify() error = %v, want ErrRemediationRequired", err)
		}
	})

	t.Run("failure marker beyond the kept output", func(t *testing.T) {
		cmd := &testCommander{
			output: bytes.Repeat([]byte("x"), 2*maxOutputBytes),
			chunks: []string{"SignTool Error: " + DefaultFailureMarker + "\n"},
		}
		withExecutor(t, cmd)
		out, err := NewWrapper().SignAndVerify(context.Background(), storeInvocation(t, "a.doc"))
		if !errors.Is(err, ErrRemediationRequired) {
			t.Fatalf("SignAndVerify() error = %v, want ErrRemediationRequired", err)
		}
		if len(out) != maxOutputBytes {
			t.Fatalf("output length = %d, want %d", len(out), maxOutputBytes)
		}
	})

	t.Run("exit failure", func(t *testing.T) {
		withExecutor(t, &testCommander{output: []byte("boom"), err: errors.New("exit status 1")})
		_, err := NewWrapper().SignAndVerify(context.Background(), storeInvocation(t, "a.doc"))
		var toolErr *ToolError
		if !errors.As(err, &toolErr) || toolErr.Error() != "boom" {
			t.Fatalf("SignAndVerify() error = %v, want ToolError(boom)", err)
		}
	})

	t.Run("exit failure without output", func(t *testing.T) {
		withExecutor(t, &testCommander{err: errors.New("executable file not found")})
		_, err := NewWrapper().SignAndVerify(context.Background(), storeInvocation(t, "a.doc"))
		if err == nil || !strings.Contains(err.Error(), "executable file not found") {
			t.Fatalf("SignAndVerify() error = %v", err)
		}
	})
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script wrapper requires a unix shell")
	}
	path := filepath.Join(t.TempDir(), "offsign.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0700); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExecCommander(t *testing.T) {
	t.Run("arguments reach the wrapper unchanged", func(t *testing.T) {
		script := writeScript(t, `printf '%s\n' "$1" "$2" "$3" "$4"`)
		inv := storeInvocation(t, "/tmp/My Report.pptm")
		inv.WrapperPath = script
		out, err := NewWrapper().SignAndVerify(context.Background(), inv)
		if err != nil {
			t.Fatalf("SignAndVerify() error = %v", err)
		}
		want := strings.Join(inv.Args(), "\n") + "\n"
		if string(out) != want {
			t.Fatalf("output = %q, want %q", out, want)
		}
	})

	t.Run("stderr is captured", func(t *testing.T) {
		script := writeScript(t, "echo '"+DefaultFailureMarker+"' >&2\n")
		inv := storeInvocation(t, "a.doc")
		inv.WrapperPath = script
		if _, err := NewWrapper().SignAndVerify(context.Background(), inv); !errors.Is(err, ErrRemediationRequired) {
			t.Fatalf("SignAndVerify() error = %v, want ErrRemediationRequired", err)
		}
	})

	t.Run("large output is capped", func(t *testing.T) {
		script := writeScript(t, "head -c 3000000 /dev/zero\necho done >&2\n")
		inv := storeInvocation(t, "a.doc")
		inv.WrapperPath = script
		out, err := NewWrapper().SignAndVerify(context.Background(), inv)
		if err != nil {
			t.Fatalf("SignAndVerify() error = %v", err)
		}
		if len(out) != maxOutputBytes {
			t.Fatalf("output length = %d, want %d", len(out), maxOutputBytes)
		}
	})

	t.Run("marker after more output than is kept", func(t *testing.T) {
		script := writeScript(t, "head -c 2000000 /dev/zero | tr '\\0' x\necho 'SignTool Error: "+DefaultFailureMarker+"'\nexit 0\n")
		inv := storeInvocation(t, "a.doc")
		inv.WrapperPath = script
		out, err := NewWrapper().SignAndVerify(context.Background(), inv)
		if !errors.Is(err, ErrRemediationRequired) {
			t.Fatalf("SignAndVerify() error = %v, want ErrRemediationRequired", err)
		}
		if len(out) != maxOutputBytes {
			t.Fatalf("output length = %d, want %d", len(out), maxOutputBytes)
		}
	})

	t.Run("timeout kills a hung wrapper", func(t *testing.T) {
		script := writeScript(t, "exec sleep 30\n")
		inv := storeInvocation(t, "a.doc")
		inv.WrapperPath = script
		start := time.Now()
		_, err := (&Wrapper{Timeout: 200 * time.Millisecond}).SignAndVerify(context.Background(), inv)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("SignAndVerify() error = %v, want DeadlineExceeded", err)
		}
		if time.Since(start) > 10*time.Second {
			t.Fatal("wrapper was not stopped at the deadline")
		}
	})
}

func TestResolveWrapper(t *testing.T) {
	dir := t.TempDir()
	bat := filepath.Join(dir, WrapperFileName)
	if err := os.WriteFile(bat, nil, 0600); err != nil {
		t.Fatal(err)
	}
	for _, in := range []string{dir, bat} {
		got, err := ResolveWrapper(in)
		if err != nil || got != bat {
			t.Errorf("ResolveWrapper(%q) = %q, %v, want %q", in, got, err, bat)
		}
	}
	if _, err := ResolveWrapper(t.TempDir()); err == nil {
		t.Error("ResolveWrapper() expected error for a directory without the wrapper")
	}
	if _, err := ResolveWrapper(""); err == nil {
		t.Error("ResolveWrapper() expected error for an empty path")
	}
}

func TestCommandLine(t *testing.T) {
	inv := storeInvocation(t, `C:\docs\My Report.pptm`)
	inv.WrapperPath = `C:\tools\offsign.bat`
	got := commandLine(inv.WrapperPath, inv.Args())
	want := `"C:\tools\offsign.bat" "C:/kit" "sign /i "Sign" /n "Sign" /sm /fd "SHA256"" "verify /pa" "C:\docs\My Report.pptm"`
	if got != want {
		t.Fatalf("commandLine() = %s, want %s", got, want)
	}
	if strings.Contains(got, `\"`) {
		t.Fatalf("commandLine() escaped embedded quotes: %s", got)
	}
}
