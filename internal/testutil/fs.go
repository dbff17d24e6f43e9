// Package testutil holds helpers shared by the package tests.
package testutil

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// ErrInjected is the error returned by FaultyFs writes.
var ErrInjected = errors.New("injected write failure")

// FaultyFs wraps an afero.Fs so that files created under it fail once more
// than Budget bytes have been written to them. Files opened read-only are
// unaffected.
type FaultyFs struct {
	afero.Fs
	Budget int
}

// OpenFile opens name on the wrapped filesystem. Writable handles get the
// failure budget.
func (f *FaultyFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	file, err := f.Fs.OpenFile(name, flag, perm)
	if err != nil || flag&(os.O_WRONLY|os.O_RDWR) == 0 {
		return file, err
	}
	return &faultyFile{File: file, budget: f.Budget}, nil
}

// Create creates name with the failure budget applied.
func (f *FaultyFs) Create(name string) (afero.File, error) {
	return f.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o666)
}

type faultyFile struct {
	afero.File
	budget int
}

func (f *faultyFile) Write(p []byte) (int, error) {
	if len(p) > f.budget {
		n, _ := f.File.Write(p[:f.budget])
		f.budget = 0
		return n, ErrInjected
	}
	f.budget -= len(p)
	return f.File.Write(p)
}

// WriteFile writes content to dir/name on the OS filesystem and returns the
// path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// ReadFile returns the contents of path on fs.
func ReadFile(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return string(data)
}

// Checksum returns the hex SHA-256 of the file at path on fs.
func Checksum(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// TempFiles lists leftover temp files in dir on fs.
func TempFiles(t *testing.T, fs afero.Fs, dir string) []string {
	t.Helper()
	entries, err := afero.ReadDir(fs, dir)
	require.NoError(t, err)
	var out []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			out = append(out, e.Name())
		}
	}
	return out
}
