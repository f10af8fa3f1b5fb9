// Package files locates input data files on disk.
package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FindSpreadsheets lists the spreadsheet files in dir, newest first.
// Office lock files ("~$...") are ignored.
func FindSpreadsheets(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	type candidate struct {
		path    string
		modTime int64
	}
	var found []candidate
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, "~$") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".xlsx" && ext != ".xls" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		found = append(found, candidate{
			path:    filepath.Join(dir, name),
			modTime: info.ModTime().UnixNano(),
		})
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].modTime > found[j].modTime
	})

	paths := make([]string, len(found))
	for i, c := range found {
		paths[i] = c.path
	}
	return paths, nil
}

// FindLatestSpreadsheet returns the most recently modified spreadsheet
// in dir.
func FindLatestSpreadsheet(dir string) (string, error) {
	paths, err := FindSpreadsheets(dir)
	if err != nil {
		return "", err
	}
	if len(paths) == 0 {
		return "", fmt.Errorf("no spreadsheet files found in %s", dir)
	}
	return paths[0], nil
}
