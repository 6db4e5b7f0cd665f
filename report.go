package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
)

// scanStats carries the pass-one census numbers that the summary reports.
type scanStats struct {
	totalFiles  int
	sizeClasses int
}

// sortedSets returns every duplicate set with its members in lexicographic
// order, and the sets themselves ordered by their first member. The hashing
// passes leave member order scheduling-dependent, so every consumer imposes
// this order before producing observable output. The first member of each
// sorted set is its representative: the path preserved by delete.
func sortedSets(groups map[digest][]string) [][]string {
	var sets [][]string
	for _, files := range groups {
		if len(files) < 2 {
			continue
		}
		set := append([]string(nil), files...)
		sort.Strings(set)
		sets = append(sets, set)
	}
	sort.Slice(sets, func(i, j int) bool { return sets[i][0] < sets[j][0] })
	return sets
}

// printDuplicateGroups lists each duplicate set one path per line. Sets are
// separated by a blank line unless omitFirst is set, in which case the
// representative is suppressed and every printed path is a removal
// candidate. Returns the number of sets printed.
func printDuplicateGroups(w io.Writer, groups map[digest][]string, omitFirst bool) int {
	sets := sortedSets(groups)
	for _, set := range sets {
		if omitFirst {
			set = set[1:]
		}
		for _, path := range set {
			fmt.Fprintln(w, path)
		}
		if !omitFirst {
			fmt.Fprintln(w)
		}
	}
	return len(sets)
}

// summarize prints aggregate statistics instead of a listing. Duplicate
// sizes are re-queried from disk at report time rather than reusing the
// scan-time sizes.
func summarize(w io.Writer, stats scanStats, prehashGroups int, groups map[digest][]string) error {
	var setCount, dupeCount int
	var dupeBytes uint64
	for _, files := range groups {
		if len(files) < 2 {
			continue
		}
		info, err := os.Stat(files[0])
		if err != nil {
			return fmt.Errorf("sizing duplicate set: %w", err)
		}
		setCount++
		dupeCount += len(files) - 1
		dupeBytes += uint64(info.Size()) * uint64(len(files)-1)
	}

	fmt.Fprintf(w, "%d duplicate files (in %d sets), occupying %s\n",
		dupeCount, setCount, humanize.Bytes(dupeBytes))
	fmt.Fprintf(w, "checked %d files in %d size classes\n",
		stats.totalFiles, stats.sizeClasses)
	fmt.Fprintf(w, "prehashing identified %d groups\n", prehashGroups)
	return nil
}

// deleteDuplicates removes every member of each duplicate set except the
// representative. Removals are independent: a failed removal is logged and
// the remaining ones still run. Nothing here is transactional or reversible.
func deleteDuplicates(w io.Writer, groups map[digest][]string) {
	for _, set := range sortedSets(groups) {
		for _, path := range set[1:] {
			fmt.Fprintf(w, "deleting: %s\n", path)
			if err := os.Remove(path); err != nil {
				log.Warnf("error deleting %s: %v", path, err)
			}
		}
	}
}
