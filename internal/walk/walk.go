// Package walk provides the directory traversal used by the orphan scanner
// and the export sorter. It differs from filepath.WalkDir in two ways:
// unreadable subdirectories are reported and skipped instead of aborting the
// walk, and excluded directory names are pruned without visiting them.
package walk

import (
	"io/fs"
	"os"
	"path/filepath"
)

// FileFunc is invoked for every regular file visited, with the file's
// absolute path and directory entry. Returning an error stops the walk.
type FileFunc func(path string, entry fs.DirEntry) error

// SkipFunc is invoked when a subdirectory cannot be read. The walk continues
// with the directory's siblings.
type SkipFunc func(dir string, err error)

// Options control a walk.
type Options struct {
	// ExcludeDirs lists directory base names pruned from the walk.
	ExcludeDirs []string
	// OnSkip receives unreadable subdirectories. Nil skips them silently.
	OnSkip SkipFunc
}

func (o Options) excluded(name string) bool {
	for _, dir := range o.ExcludeDirs {
		if name == dir {
			return true
		}
	}
	return false
}

// Files walks root depth-first in lexical order and calls fn for every
// regular file. It returns the number of directories visited, root included.
// An unreadable root fails the walk; unreadable subdirectories are handed to
// OnSkip and pruned.
func Files(root string, opts Options, fn FileFunc) (int, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return 0, err
	}
	visited := 1
	subdirs, err := walkEntries(root, entries, opts, fn)
	visited += subdirs
	return visited, err
}

func walkEntries(dir string, entries []fs.DirEntry, opts Options, fn FileFunc) (int, error) {
	visited := 0
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			if opts.excluded(entry.Name()) {
				continue
			}
			children, err := os.ReadDir(path)
			if err != nil {
				if opts.OnSkip != nil {
					opts.OnSkip(path, err)
				}
				continue
			}
			visited++
			subdirs, err := walkEntries(path, children, opts, fn)
			visited += subdirs
			if err != nil {
				return visited, err
			}
			continue
		}
		if !entry.Type().IsRegular() {
			continue
		}
		if err := fn(path, entry); err != nil {
			return visited, err
		}
	}
	return visited, nil
}
