package utils

import (
	"errors"
	"io"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/country-normalizer/internal/testutil"
)

func TestDiscover(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, name := range []string{"/data/b.csv", "/data/a.tsv", "/data/c.xml", "/data/nested/d.csv", "/data/README"} {
		require.NoError(t, afero.WriteFile(fs, name, []byte("x"), 0o644))
	}
	fm := NewFileManager(fs)

	t.Run("Should list matching files sorted and non-recursively", func(t *testing.T) {
		files, err := fm.Discover("/data", "*.{csv,tsv}")
		require.NoError(t, err)
		assert.Equal(t, []string{"/data/a.tsv", "/data/b.csv"}, files)
	})

	t.Run("Should return nothing when no file matches", func(t *testing.T) {
		files, err := fm.Discover("/data", "*.xlsx")
		require.NoError(t, err)
		assert.Empty(t, files)
	})

	t.Run("Should reject an invalid pattern", func(t *testing.T) {
		_, err := fm.Discover("/data", "[")
		require.Error(t, err)
	})

	t.Run("Should fail on a missing directory", func(t *testing.T) {
		_, err := fm.Discover("/missing", "*.csv")
		require.Error(t, err)
	})

	t.Run("Should tell directories from files", func(t *testing.T) {
		dir, err := fm.IsDir("/data")
		require.NoError(t, err)
		assert.True(t, dir)
		dir, err = fm.IsDir("/data/b.csv")
		require.NoError(t, err)
		assert.False(t, dir)
	})
}

func TestReplaceAtomic(t *testing.T) {
	t.Run("Should replace the file contents", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/d/f.txt", []byte("old"), 0o640))
		fm := NewFileManager(fs)

		written, err := fm.ReplaceAtomic("/d/f.txt", func(w io.Writer) error {
			_, err := io.WriteString(w, "new")
			return err
		})
		require.NoError(t, err)
		assert.True(t, written)
		assert.Equal(t, "new", testutil.ReadFile(t, fs, "/d/f.txt"))
		assert.Empty(t, testutil.TempFiles(t, fs, "/d"))

		info, err := fs.Stat("/d/f.txt")
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
	})

	t.Run("Should leave the original untouched when the callback fails", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/d/f.txt", []byte("old"), 0o644))
		fm := NewFileManager(fs)
		boom := errors.New("boom")

		written, err := fm.ReplaceAtomic("/d/f.txt", func(w io.Writer) error {
			_, _ = io.WriteString(w, "partial")
			return boom
		})
		require.ErrorIs(t, err, boom)
		assert.False(t, written)
		assert.Equal(t, "old", testutil.ReadFile(t, fs, "/d/f.txt"))
		assert.Empty(t, testutil.TempFiles(t, fs, "/d"))
	})

	t.Run("Should leave the original untouched when the disk write fails", func(t *testing.T) {
		base := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(base, "/d/f.txt", []byte("old contents"), 0o644))
		before := testutil.Checksum(t, base, "/d/f.txt")
		fm := NewFileManager(&testutil.FaultyFs{Fs: base, Budget: 4})

		_, err := fm.ReplaceAtomic("/d/f.txt", func(w io.Writer) error {
			_, err := io.WriteString(w, "new contents that exceed the budget")
			return err
		})
		require.ErrorIs(t, err, testutil.ErrInjected)
		assert.Equal(t, before, testutil.Checksum(t, base, "/d/f.txt"))
		assert.Empty(t, testutil.TempFiles(t, base, "/d"))
	})

	t.Run("Should keep the original when the callback reports no change", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/d/f.txt", []byte("old"), 0o644))
		fm := NewFileManager(fs)

		written, err := fm.ReplaceAtomic("/d/f.txt", func(io.Writer) error { return ErrNoChange })
		require.NoError(t, err)
		assert.False(t, written)
		assert.Equal(t, "old", testutil.ReadFile(t, fs, "/d/f.txt"))
		assert.Empty(t, testutil.TempFiles(t, fs, "/d"))
	})

	t.Run("Should not write anything during a dry run", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/d/f.txt", []byte("old"), 0o644))
		fm := NewFileManager(fs)
		fm.DryRun = true

		called := false
		written, err := fm.ReplaceAtomic("/d/f.txt", func(w io.Writer) error {
			called = true
			_, err := io.WriteString(w, "new")
			return err
		})
		require.NoError(t, err)
		assert.True(t, called)
		assert.False(t, written)
		assert.Equal(t, "old", testutil.ReadFile(t, fs, "/d/f.txt"))
	})

	t.Run("Should fail on a missing file", func(t *testing.T) {
		fm := NewFileManager(afero.NewMemMapFs())
		_, err := fm.ReplaceAtomic("/nope.txt", func(io.Writer) error { return nil })
		require.Error(t, err)
	})
}
