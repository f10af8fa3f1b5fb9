package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestValidateFile(t *testing.T) {
	v := NewFileValidator(nil)
	dir := t.TempDir()

	t.Run("valid file", func(t *testing.T) {
		path := writeFile(t, dir, "data.xlsx", "content")
		assert.NoError(t, v.ValidateFile(path))
	})

	t.Run("missing file", func(t *testing.T) {
		err := v.ValidateFile(filepath.Join(dir, "missing.xlsx"))
		assert.ErrorContains(t, err, "does not exist")
	})

	t.Run("directory", func(t *testing.T) {
		err := v.ValidateFile(dir)
		assert.ErrorContains(t, err, "is a directory")
	})

	t.Run("empty file", func(t *testing.T) {
		path := writeFile(t, dir, "empty.xlsx", "")
		err := v.ValidateFile(path)
		assert.ErrorContains(t, err, "is empty")
	})
}

func TestValidateSpreadsheetFile(t *testing.T) {
	v := NewFileValidator(nil)
	dir := t.TempDir()

	t.Run("xlsx accepted", func(t *testing.T) {
		path := writeFile(t, dir, "data.xlsx", "content")
		assert.NoError(t, v.ValidateSpreadsheetFile(path))
	})

	t.Run("wrong extension", func(t *testing.T) {
		path := writeFile(t, dir, "data.csv", "content")
		err := v.ValidateSpreadsheetFile(path)
		assert.ErrorContains(t, err, "not a spreadsheet")
	})

	t.Run("lock file rejected", func(t *testing.T) {
		path := writeFile(t, dir, "~$data.xlsx", "content")
		err := v.ValidateSpreadsheetFile(path)
		assert.ErrorContains(t, err, "lock file")
	})
}

func TestValidateCSVFile(t *testing.T) {
	v := NewFileValidator(nil)
	dir := t.TempDir()

	path := writeFile(t, dir, "out.csv", "region\nLos Ríos\n")
	assert.NoError(t, v.ValidateCSVFile(path))

	bad := writeFile(t, dir, "out.txt", "content")
	assert.ErrorContains(t, v.ValidateCSVFile(bad), "not a CSV")
}

func TestValidateOutputDirectory(t *testing.T) {
	v := NewFileValidator(nil)

	dir := filepath.Join(t.TempDir(), "nested", "out")
	require.NoError(t, v.ValidateOutputDirectory(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// The write probe must not leave anything behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
