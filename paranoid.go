package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/sourcegraph/conc/pool"
)

const compareChunkSize = 256 * 1024

// verifyDuplicates byte-compares every member of every duplicate set against
// the set's first member, streaming both files. This is an assertion over
// the hash-based grouping, not a recoverable operation: a mismatch is either
// a hash collision or a file changing underneath the run, and either way
// continuing would be unsafe, so the first mismatch aborts everything.
//
// Sets are verified concurrently; within a set the comparison is sequential.
func verifyDuplicates(groups map[digest][]string, workers int) error {
	p := pool.New().WithErrors().WithMaxGoroutines(workers)
	for _, files := range groups {
		if len(files) < 2 {
			continue
		}
		p.Go(func() error {
			return verifySet(files)
		})
	}
	return p.Wait()
}

// verifySet compares each member of one duplicate set against the first
// member, chunk by chunk.
func verifySet(files []string) error {
	first, err := os.Open(files[0])
	if err != nil {
		return err
	}
	defer first.Close()

	firstInfo, err := first.Stat()
	if err != nil {
		return err
	}

	firstBuf := make([]byte, compareChunkSize)
	otherBuf := make([]byte, compareChunkSize)
	for _, other := range files[1:] {
		if _, err := first.Seek(0, io.SeekStart); err != nil {
			return err
		}
		if err := compareToFirst(first, firstInfo.Size(), files[0], other, firstBuf, otherBuf); err != nil {
			return err
		}
	}
	return nil
}

func compareToFirst(first *os.File, firstLen int64, firstPath, otherPath string, firstBuf, otherBuf []byte) error {
	other, err := os.Open(otherPath)
	if err != nil {
		return err
	}
	defer other.Close()

	otherInfo, err := other.Stat()
	if err != nil {
		return err
	}
	// A length divergence at this point means something modified the files
	// after they were grouped.
	if otherInfo.Size() != firstLen {
		return fmt.Errorf("files no longer have the same length:\n%s\n%s", firstPath, otherPath)
	}

	remaining := firstLen
	for remaining > 0 {
		n := compareChunkSize
		if remaining < int64(n) {
			n = int(remaining)
		}
		if _, err := io.ReadFull(first, firstBuf[:n]); err != nil {
			return fmt.Errorf("reading %s: %w", firstPath, err)
		}
		if _, err := io.ReadFull(other, otherBuf[:n]); err != nil {
			return fmt.Errorf("reading %s: %w", otherPath, err)
		}
		if !bytes.Equal(firstBuf[:n], otherBuf[:n]) {
			return fmt.Errorf("files differ (hash collision found?):\n%s\n%s", firstPath, otherPath)
		}
		remaining -= int64(n)
	}
	return nil
}
