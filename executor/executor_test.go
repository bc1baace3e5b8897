package executor

import (
	"context"
	"io"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func requireBinary(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not on PATH", name)
	}
}

func TestExecuteCapturesStdout(t *testing.T) {
	requireBinary(t, "echo")
	out, err := New().Execute(context.Background(), nil, "echo", "hello")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if strings.TrimSpace(out) != "hello" {
		t.Fatalf("stdout = %q", out)
	}
}

func TestExecutePipesStdin(t *testing.T) {
	requireBinary(t, "cat")
	out, err := New().Execute(context.Background(), strings.NewReader("prompt text"), "cat")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != "prompt text" {
		t.Fatalf("stdout = %q", out)
	}
}

func TestExecuteIncludesStderrOnFailure(t *testing.T) {
	requireBinary(t, "sh")
	_, err := New().Execute(context.Background(), nil, "sh", "-c", "echo boom >&2; exit 3")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("error %q does not include stderr", err)
	}
}

func TestExecuteTimeout(t *testing.T) {
	requireBinary(t, "sleep")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := New().Execute(ctx, nil, "sleep", "5")
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("err = %v, want timeout", err)
	}
}

func TestExecuteMissingBinary(t *testing.T) {
	if _, err := New().Execute(context.Background(), nil, "definitely-not-a-real-binary-xyz"); err == nil {
		t.Fatal("expected spawn error")
	}
}

func TestFuncAdapter(t *testing.T) {
	var gotName string
	f := Func(func(_ context.Context, stdin io.Reader, name string, args ...string) (string, error) {
		gotName = name
		return "ok", nil
	})
	out, err := f.Execute(context.Background(), nil, "tool")
	if err != nil || out != "ok" || gotName != "tool" {
		t.Fatalf("Func adapter = %q, %v, name %q", out, err, gotName)
	}
}
