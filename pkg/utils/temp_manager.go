package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/nodewee/img-to-doc/pkg/constants"
	"github.com/nodewee/img-to-doc/pkg/logger"
)

// TempManager owns a private scratch directory for one engine call and
// removes everything it created on Cleanup.
type TempManager struct {
	baseDir string
	mu      sync.Mutex
	created []string
	logger  *logger.Logger
}

// NewTempManager creates a scratch directory below parent (os.TempDir when empty)
func NewTempManager(parent string, log *logger.Logger) (*TempManager, error) {
	if log == nil {
		log = logger.Discard()
	}
	if parent == "" {
		parent = os.TempDir()
	}
	dir, err := os.MkdirTemp(parent, constants.GetPlatformConfig().TempDirPrefix)
	if err != nil {
		return nil, NewIOError("failed to create temp directory", err)
	}
	log.Debug("Created temp directory: %s", dir)
	return &TempManager{baseDir: dir, logger: log}, nil
}

// BaseDir returns the scratch directory
func (tm *TempManager) BaseDir() string {
	return tm.baseDir
}

// NewFilePath reserves a unique file name with the given extension
func (tm *TempManager) NewFilePath(ext string) string {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	p := filepath.Join(tm.baseDir, uuid.NewString()+ext)
	tm.created = append(tm.created, p)
	return p
}

// WriteFile writes data to a new unique file and returns its path
func (tm *TempManager) WriteFile(ext string, data []byte) (string, error) {
	p := tm.NewFilePath(ext)
	if err := os.WriteFile(p, data, constants.DefaultFilePermission); err != nil {
		return "", NewIOError("failed to write temp file", err).WithContext("path", p)
	}
	return p, nil
}

// Cleanup removes the scratch directory and its contents
func (tm *TempManager) Cleanup() error {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.created = nil
	if err := os.RemoveAll(tm.baseDir); err != nil && !os.IsNotExist(err) {
		tm.logger.Warn("Failed to remove temporary directory: %s, error: %v", tm.baseDir, err)
		return fmt.Errorf("failed to remove temp dir %s: %w", tm.baseDir, err)
	}
	tm.logger.Debug("Removed temporary directory: %s", tm.baseDir)
	return nil
}
