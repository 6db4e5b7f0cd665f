//go:build integration

package main

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestCLI_Integration_FindsDuplicates(t *testing.T) {
	root := t.TempDir()

	a := filepath.Join(root, "a.txt")
	b := filepath.Join(root, "b.txt")
	if err := os.WriteFile(a, []byte("hello\n"), 0o600); err != nil {
		t.Fatalf("write a: %v", err)
	}
	if err := os.WriteFile(b, []byte("hello\n"), 0o600); err != nil {
		t.Fatalf("write b: %v", err)
	}

	cmd := exec.Command("go", "run", ".", "--workers", "2", root)
	cmd.Dir = getRepoRoot(t)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		t.Fatalf("go run failed: %v\nstderr:\n%s", err, stderr.String())
	}

	if got, want := stdout.String(), a+"\n"+b+"\n\n"; got != want {
		t.Fatalf("unexpected listing:\ngot  %q\nwant %q\nstderr:\n%s", got, want, stderr.String())
	}
}

func TestCLI_Integration_Summarize(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("a\n"), 0o600); err != nil {
		t.Fatalf("write a: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "b.txt"), []byte("b\n"), 0o600); err != nil {
		t.Fatalf("write b: %v", err)
	}

	cmd := exec.Command("go", "run", ".", "--summarize", root)
	cmd.Dir = getRepoRoot(t)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		t.Fatalf("go run failed: %v\nstderr:\n%s", err, stderr.String())
	}

	out := stdout.String()
	if !strings.Contains(out, "0 duplicate files (in 0 sets)") {
		t.Fatalf("expected an empty summary, got:\n%s\nstderr:\n%s", out, stderr.String())
	}
	if !strings.Contains(out, "checked 2 files in 1 size classes") {
		t.Fatalf("expected the census line, got:\n%s", out)
	}
}

func getRepoRoot(t *testing.T) string {
	t.Helper()

	// The tests in this repo live at the module root, so the working directory
	// for `go test` is already the repo root.
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	return wd
}
