// =============================================================================
// Country Normalizer - File Manager Utility
// =============================================================================
//
// This module provides the file operations shared by the file adapters:
//   - File discovery (a directory expanded with a glob pattern)
//   - Atomic in-place replacement of a file's contents
//
// REPLACEMENT STRATEGY:
//   - New contents are written to a temp file in the same directory
//   - The temp file is flushed, synced and closed before anything else
//   - The original is replaced by a single rename
//   - On any failure the temp file is removed and the original is untouched
//
// All operations go through an afero.Fs so tests can run against an
// in-memory or fault-injecting filesystem.
//
// =============================================================================

package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// ErrNoChange is returned by a ReplaceAtomic write callback to signal that
// the new contents equal the old ones. The temp file is discarded and the
// original is left in place.
var ErrNoChange = errors.New("no change")

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the adapters.
type FileManager struct {
	// Fs is the filesystem all operations go through.
	Fs afero.Fs

	// DryRun makes ReplaceAtomic run the write callback against a discarding
	// writer, so the whole pipeline runs but nothing is modified.
	DryRun bool
}

// NewFileManager creates a FileManager over fs. A nil fs means the real OS
// filesystem.
func NewFileManager(fs afero.Fs) *FileManager {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &FileManager{Fs: fs}
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// IsDir reports whether path is an existing directory.
func (fm *FileManager) IsDir(path string) (bool, error) {
	info, err := fm.Fs.Stat(path)
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return info.IsDir(), nil
}

// Discover lists the regular files directly inside dir whose names match
// pattern. Subdirectories are not descended into.
//
// PARAMETERS:
//   - dir: The directory to scan.
//   - pattern: A doublestar pattern matched against the base name
//              (e.g., "*.xml" or "*.{csv,tsv}").
//
// RETURNS:
//   - The matching paths, sorted.
//   - An error if the directory cannot be read or the pattern is invalid.
func (fm *FileManager) Discover(dir, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid file pattern %q", pattern)
	}

	entries, err := afero.ReadDir(fm.Fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ok, err := doublestar.Match(pattern, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("invalid file pattern %q: %w", pattern, err)
		}
		if ok {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)

	return files, nil
}

// =============================================================================
// READING
// =============================================================================

// ReadFile returns the whole contents of path.
func (fm *FileManager) ReadFile(path string) ([]byte, error) {
	data, err := afero.ReadFile(fm.Fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// =============================================================================
// ATOMIC REPLACEMENT
// =============================================================================

// ReplaceAtomic replaces the contents of path with whatever write produces.
//
// PARAMETERS:
//   - path: The existing file to replace.
//   - write: Streams the new contents. Returning ErrNoChange abandons the
//            replacement without error.
//
// RETURNS:
//   - true if path was replaced.
//   - An error if writing, syncing or renaming fails. The original file is
//     unmodified in that case and no temp file is left behind.
func (fm *FileManager) ReplaceAtomic(path string, write func(w io.Writer) error) (bool, error) {
	info, err := fm.Fs.Stat(path)
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if fm.DryRun {
		if err := write(io.Discard); err != nil && !errors.Is(err, ErrNoChange) {
			return false, err
		}
		return false, nil
	}

	tmpPath := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	tmp, err := fm.Fs.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return false, fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}

	closed := false
	committed := false
	defer func() {
		if !closed {
			_ = tmp.Close()
		}
		if !committed {
			_ = fm.Fs.Remove(tmpPath)
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err := write(bw); err != nil {
		if errors.Is(err, ErrNoChange) {
			return false, nil
		}
		return false, err
	}
	if err := bw.Flush(); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		return false, fmt.Errorf("failed to sync %s: %w", tmpPath, err)
	}
	closed = true
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("failed to close %s: %w", tmpPath, err)
	}
	if err := fm.Fs.Rename(tmpPath, path); err != nil {
		return false, fmt.Errorf("failed to replace %s: %w", path, err)
	}
	committed = true

	return true, nil
}
