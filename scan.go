package main

import (
	"fmt"
	"io/fs"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// scanTrees walks every root and collates regular files by size. Getting a
// file's size is much cheaper than reading its contents, and sizes are
// relatively unique in practice, so any size held by a single file removes
// that file from consideration before a single content byte is read.
//
// Roots are independent, so each is walked on its own goroutine into its own
// map and the per-root maps are merged in root order afterwards. Any dirent
// or metadata error is fatal: later passes tolerate unreadable files, but a
// hole in the initial census would silently shrink the universe of
// candidates.
func scanTrees(roots []string, includeEmpty bool) (map[uint64][]string, error) {
	perRoot := make([]map[uint64][]string, len(roots))
	var g errgroup.Group
	for i, root := range roots {
		i, root := i, root
		g.Go(func() error {
			m, err := scanRoot(root, includeEmpty)
			perRoot[i] = m
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sizes := make(map[uint64][]string, 1024)
	for _, m := range perRoot {
		for size, paths := range m {
			sizes[size] = append(sizes[size], paths...)
		}
	}
	return sizes, nil
}

func scanRoot(root string, includeEmpty bool) (map[uint64][]string, error) {
	log.Infof("starting walk of %s", root)

	sizes := make(map[uint64][]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("reading dirent at %s: %w", path, err)
		}

		// Skip symlinks to avoid loops / surprising behavior.
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("getting metadata for %s: %w", path, err)
		}

		size := uint64(info.Size())
		if size == 0 && !includeEmpty {
			return nil
		}
		sizes[size] = append(sizes[size], path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return sizes, nil
}
