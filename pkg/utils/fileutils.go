package utils

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"

	"github.com/nodewee/img-to-doc/pkg/constants"
)

var (
	windowsUnsafeChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	unixUnsafeChars    = regexp.MustCompile(`[/\x00]`)
)

// NormalizePath standardizes file paths
func NormalizePath(path string) string {
	return filepath.Clean(path)
}

// EnsureDir creates directory if it doesn't exist
func EnsureDir(dirPath string) error {
	if dirPath == "" {
		return fmt.Errorf("directory path cannot be empty")
	}
	return os.MkdirAll(dirPath, constants.DefaultDirPermission)
}

// IsCommandAvailable checks if a command is available in PATH or at an absolute path
func IsCommandAvailable(command string) bool {
	if command == "" {
		return false
	}
	_, err := exec.LookPath(command)
	return err == nil
}

// FirstAvailableCommand returns the first candidate that resolves to an executable
func FirstAvailableCommand(candidates []string) string {
	for _, c := range candidates {
		if IsCommandAvailable(c) {
			return c
		}
	}
	return ""
}

// FirstExistingDir returns the first candidate that is an existing directory
func FirstExistingDir(candidates []string) string {
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			return c
		}
	}
	return ""
}

// SanitizeFileName cleans filename for cross-platform compatibility
func SanitizeFileName(filename string) string {
	if runtime.GOOS == "windows" {
		filename = windowsUnsafeChars.ReplaceAllString(filename, "_")
	} else {
		filename = unixUnsafeChars.ReplaceAllString(filename, "_")
	}
	filename = strings.TrimSpace(filename)
	if len(filename) > 250 {
		filename = filename[:250]
	}
	return filename
}

// IsImageFile checks if the extension (with or without dot) is a supported image format
func IsImageFile(extension string) bool {
	ext := strings.TrimPrefix(strings.ToLower(extension), ".")
	for _, imageExt := range constants.ImageExtensions {
		if ext == imageExt {
			return true
		}
	}
	return false
}

// FindImages lists supported images directly inside dir, sorted by name
func FindImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, NewIOError("failed to read input directory", err).WithContext("dir", dir)
	}

	var images []string
	for _, e := range entries {
		if e.IsDir() || !IsImageFile(filepath.Ext(e.Name())) {
			continue
		}
		images = append(images, filepath.Join(dir, e.Name()))
	}
	sort.Strings(images)
	return images, nil
}

// ReplaceExt returns the base name of path with its extension replaced by ext
func ReplaceExt(path, ext string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ext
}
