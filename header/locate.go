package header

import (
	"os"
	"path/filepath"
	"strings"
)

// SplitIncludePath splits an include path list (INCLUDE-style, separated by
// the OS list separator) into directories, dropping empty entries.
func SplitIncludePath(s string) []string {
	var dirs []string
	for _, dir := range filepath.SplitList(s) {
		if dir = strings.TrimSpace(dir); dir != "" {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// Locate returns the path of name in the first directory containing it.
func Locate(dirs []string, name string) (string, bool) {
	for _, dir := range dirs {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}
