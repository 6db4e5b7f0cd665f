package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/zeebo/blake3"
)

// prehashSize is the number of leading bytes hashed by the candidate-filter
// pass. Most non-duplicates diverge within the first few kilobytes, so
// hashing this much is enough to eliminate the bulk of same-size candidates
// without reading whole files.
const prehashSize = 4096

// digest is a BLAKE3-256 output. It is comparable, so it serves directly as
// a grouping key.
type digest [32]byte

// tailJob pairs a path with its prefix hash so the tail hash can be keyed by
// it.
type tailJob struct {
	prehash digest
	path    string
}

// prehashCandidates hashes the first prehashSize bytes of every file whose
// size matches at least one other file, and groups paths by that hash.
//
// Files are hashed independently across a worker pool. Each worker owns one
// read buffer and one local grouping map; the local maps are folded together
// by union-with-append, which is associative and commutative, so the final
// grouping does not depend on which worker hashed which file. Order of paths
// within a group is scheduling-dependent and consumers must sort.
//
// A file that cannot be opened or read is logged and dropped; the rest of
// its group is unaffected.
func prehashCandidates(sizes map[uint64][]string, workers int) map[digest][]string {
	jobs := make(chan string, 4096)
	go func() {
		for _, paths := range sizes {
			if len(paths) < 2 {
				continue
			}
			for _, path := range paths {
				jobs <- path
			}
		}
		close(jobs)
	}()

	partials := make(chan map[digest][]string)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			buf := make([]byte, prehashSize)
			local := make(map[digest][]string)
			for path := range jobs {
				sum, err := prehashFile(path, buf)
				if err != nil {
					log.Warnf("skipping %s: %v", path, err)
					continue
				}
				local[sum] = append(local[sum], path)
			}
			partials <- local
		}()
	}
	go func() {
		wg.Wait()
		close(partials)
	}()

	return mergeGroups(partials)
}

// fullHashCandidates hashes the remainder of every file whose prefix hash
// matches at least one other file, and groups paths by the result. The tail
// hash is keyed by the file's own prefix hash, so a group here means both
// halves matched; groups of two or more are the final duplicate sets.
//
// Pool shape and failure policy are the same as in prehashCandidates.
func fullHashCandidates(prehashed map[digest][]string, workers int) map[digest][]string {
	jobs := make(chan tailJob, 4096)
	go func() {
		for prehash, paths := range prehashed {
			if len(paths) < 2 {
				continue
			}
			for _, path := range paths {
				jobs <- tailJob{prehash: prehash, path: path}
			}
		}
		close(jobs)
	}()

	partials := make(chan map[digest][]string)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			buf := make([]byte, 1024*1024)
			local := make(map[digest][]string)
			for job := range jobs {
				sum, err := fullHashFile(job, buf)
				if err != nil {
					log.Warnf("skipping %s: %v", job.path, err)
					continue
				}
				local[sum] = append(local[sum], job.path)
			}
			partials <- local
		}()
	}
	go func() {
		wg.Wait()
		close(partials)
	}()

	return mergeGroups(partials)
}

// mergeGroups folds per-worker grouping maps into one.
func mergeGroups(partials <-chan map[digest][]string) map[digest][]string {
	merged := make(map[digest][]string)
	for local := range partials {
		for sum, paths := range local {
			merged[sum] = append(merged[sum], paths...)
		}
	}
	return merged
}

func prehashFile(path string, buf []byte) (digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return digest{}, err
	}
	defer f.Close()

	n, err := readPrefix(f, buf)
	if err != nil {
		return digest{}, fmt.Errorf("reading prefix of %s: %w", path, err)
	}
	return digest(blake3.Sum256(buf[:n])), nil
}

// readPrefix fills buf from the start of f, looping over short reads, and
// reports how many bytes it read. A file shorter than buf yields fewer bytes
// without error. Interrupted reads are retried by the runtime.
func readPrefix(f *os.File, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := f.Read(buf[total:])
		total += n
		if err == io.EOF {
			break
		}
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// fullHashFile hashes everything beyond the first prehashSize bytes of the
// file with a BLAKE3 instance keyed by the file's own prefix hash. Keying
// chains the two hashes: a coinciding tail hash can never place two files in
// the same group unless their prefixes already matched. A file no longer
// than the prefix has already been hashed in full, so the keyed hash is
// finalized over empty input without reading anything.
func fullHashFile(job tailJob, buf []byte) (digest, error) {
	f, err := os.Open(job.path)
	if err != nil {
		return digest{}, err
	}
	defer f.Close()

	h, err := blake3.NewKeyed(job.prehash[:])
	if err != nil {
		return digest{}, err
	}

	info, err := f.Stat()
	if err != nil {
		return digest{}, err
	}
	if info.Size() > prehashSize {
		if _, err := f.Seek(prehashSize, io.SeekStart); err != nil {
			return digest{}, err
		}
		if _, err := io.CopyBuffer(h, f, buf); err != nil {
			return digest{}, fmt.Errorf("reading tail of %s: %w", job.path, err)
		}
	}

	var sum digest
	copy(sum[:], h.Sum(nil))
	return sum, nil
}
