package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestScanTreesGroupsBySize(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "a.txt"), []byte("abc"))
	mustWrite(t, filepath.Join(root, "b.txt"), []byte("xyz"))
	mustWrite(t, filepath.Join(root, "c.txt"), []byte("hello"))

	sizes, err := scanTrees([]string{root}, false)
	if err != nil {
		t.Fatalf("scanTrees: %v", err)
	}
	if len(sizes) != 2 {
		t.Fatalf("expected 2 size classes, got %d", len(sizes))
	}
	if got := len(sizes[3]); got != 2 {
		t.Fatalf("expected 2 files of size 3, got %d", got)
	}
	if got := len(sizes[5]); got != 1 {
		t.Fatalf("expected 1 file of size 5, got %d", got)
	}
}

func TestScanTreesExcludesEmptyByDefault(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "empty1"), nil)
	mustWrite(t, filepath.Join(root, "empty2"), nil)

	sizes, err := scanTrees([]string{root}, false)
	if err != nil {
		t.Fatalf("scanTrees: %v", err)
	}
	if len(sizes) != 0 {
		t.Fatalf("expected empty files to be excluded, got %d size classes", len(sizes))
	}

	sizes, err = scanTrees([]string{root}, true)
	if err != nil {
		t.Fatalf("scanTrees with empty: %v", err)
	}
	if got := len(sizes[0]); got != 2 {
		t.Fatalf("expected 2 empty files when enabled, got %d", got)
	}
}

func TestScanTreesFatalOnMissingRoot(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "does-not-exist")
	if _, err := scanTrees([]string{root}, false); err == nil {
		t.Fatalf("expected an error for a missing root")
	}
}

func TestScanTreesMergesRoots(t *testing.T) {
	t.Parallel()

	rootA := t.TempDir()
	rootB := t.TempDir()
	mustWrite(t, filepath.Join(rootA, "a"), []byte("same"))
	mustWrite(t, filepath.Join(rootB, "b"), []byte("same"))

	sizes, err := scanTrees([]string{rootA, rootB}, false)
	if err != nil {
		t.Fatalf("scanTrees: %v", err)
	}
	if got := len(sizes[4]); got != 2 {
		t.Fatalf("expected files from both roots in one size class, got %d", got)
	}
}

func TestScanTreesSkipsSymlinks(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	target := filepath.Join(root, "real")
	mustWrite(t, target, []byte("content"))
	if err := os.Symlink(target, filepath.Join(root, "link")); err != nil {
		t.Skipf("symlinks not supported here: %v", err)
	}

	sizes, err := scanTrees([]string{root}, false)
	if err != nil {
		t.Fatalf("scanTrees: %v", err)
	}
	if got := len(sizes[7]); got != 1 {
		t.Fatalf("expected the symlink to be skipped, got %d entries", got)
	}
}
