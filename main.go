// Command drupes finds files with byte-identical content across one or more
// directory trees and optionally deletes all but one member of each group.
//
// Detection is progressive: files are classified by size, then by a BLAKE3
// hash of their first 4 KiB, then by a BLAKE3 hash of the remainder keyed by
// that prefix hash. Only files that still share a class after each pass are
// read any further, so most of the tree is never read in full.
package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

type options struct {
	empty     bool
	omitFirst bool
	summarize bool
	paranoid  bool
	del       bool
	verbose   bool
	workers   int
	roots     []string
}

func main() {
	var opts options
	pflag.BoolVarP(&opts.empty, "empty", "e", false,
		"also consider empty files, which are otherwise ignored")
	pflag.BoolVarP(&opts.omitFirst, "omit-first", "f", false,
		"don't print the first filename in each set of duplicates")
	pflag.BoolVarP(&opts.summarize, "summarize", "m", false,
		"print a summary of what was found instead of listing duplicates")
	pflag.BoolVarP(&opts.paranoid, "paranoid", "p", false,
		"byte-compare the files in each duplicate set before reporting")
	pflag.BoolVar(&opts.del, "delete", false,
		"delete all duplicates but one, skipping files that cannot be deleted")
	pflag.BoolVarP(&opts.verbose, "verbose", "v", false,
		"report progress and timing on the error stream")
	pflag.IntVarP(&opts.workers, "workers", "j", runtime.GOMAXPROCS(0),
		"number of hashing workers")
	pflag.Parse()

	// Search the current directory by default.
	opts.roots = pflag.Args()
	if len(opts.roots) == 0 {
		opts.roots = []string{"."}
	}

	log.SetOutput(os.Stderr)
	if opts.verbose {
		log.SetLevel(log.InfoLevel)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	if err := run(opts, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run drives the pipeline: scan, prehash, full hash, optional verification,
// then reporting and optional deletion. A returned error is fatal; per-file
// problems in the hashing passes are logged inside them and never surface
// here.
func run(opts options, stdout io.Writer) error {
	if opts.workers < 1 {
		opts.workers = 1
	}
	start := time.Now()

	sizes, err := scanTrees(opts.roots, opts.empty)
	if err != nil {
		return err
	}

	stats := scanStats{sizeClasses: len(sizes)}
	for _, paths := range sizes {
		stats.totalFiles += len(paths)
	}
	log.Infof("%v pass one complete, found %d size-groups", time.Since(start), len(sizes))

	// Size classes with a single member cannot contain duplicates.
	for size, paths := range sizes {
		if len(paths) < 2 {
			delete(sizes, size)
		}
	}
	log.Infof("...of which %d had more than one member", len(sizes))

	prehashed := prehashCandidates(sizes, opts.workers)
	prehashGroups := len(prehashed)
	log.Infof("%v pass two complete, found %d unique first blocks", time.Since(start), prehashGroups)

	hashed := fullHashCandidates(prehashed, opts.workers)
	log.Infof("%v pass three complete, generating results", time.Since(start))

	if opts.paranoid {
		log.Info("paranoid mode: verifying file contents")
		if err := verifyDuplicates(hashed, opts.workers); err != nil {
			return err
		}
		log.Info("files really are duplicates")
	}

	if opts.summarize {
		if err := summarize(stdout, stats, prehashGroups, hashed); err != nil {
			return err
		}
	} else {
		printDuplicateGroups(stdout, hashed, opts.omitFirst)
	}

	if opts.del {
		deleteDuplicates(stdout, hashed)
	}
	return nil
}
