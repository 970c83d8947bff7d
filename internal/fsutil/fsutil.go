// Package fsutil creates and removes job working directories.
package fsutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

var ErrFilesystem = errors.New("filesystem error")

// CreateDir creates path and any missing parents.
func CreateDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrFilesystem, path, err)
	}
	return nil
}

// Remove deletes path. Directories are emptied depth first using an explicit
// stack, so tree depth never grows the call stack. A missing path is not an
// error.
func Remove(path string) error {
	info, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: stat %s: %v", ErrFilesystem, path, err)
	}
	if !info.IsDir() {
		return removeOne(path)
	}

	type frame struct {
		dir      string
		expanded bool
	}
	stack := []frame{{dir: path}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.expanded {
			if err := removeOne(top.dir); err != nil {
				return err
			}
			stack = stack[:len(stack)-1]
			continue
		}
		top.expanded = true
		dir := top.dir

		entries, err := os.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("%w: read %s: %v", ErrFilesystem, dir, err)
		}
		for _, e := range entries {
			child := filepath.Join(dir, e.Name())
			if e.IsDir() {
				stack = append(stack, frame{dir: child})
				continue
			}
			if err := removeOne(child); err != nil {
				return err
			}
		}
	}
	return nil
}

func removeOne(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: remove %s: %v", ErrFilesystem, path, err)
	}
	return nil
}
