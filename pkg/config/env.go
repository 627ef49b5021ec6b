package config

import (
	"errors"
	"io/fs"
	"os"
	"sync"

	"github.com/joho/godotenv"
)

var processEnvOnce sync.Once

// LoadDotEnv loads variables from .env files without overriding variables
// already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// ApplyProcessEnvironment sets the process-wide variables the native OCR
// libraries read at load time. It runs once per process; later calls are no-ops.
func ApplyProcessEnvironment(c *Config) {
	processEnvOnce.Do(func() {
		for k, v := range processEnvironment(c, os.Getenv) {
			_ = os.Setenv(k, v)
		}
	})
}

// processEnvironment returns the variables ApplyProcessEnvironment would set
func processEnvironment(c *Config, getenv func(string) string) map[string]string {
	env := make(map[string]string)
	// torch and tesseract can each bring their own OpenMP runtime
	if getenv("KMP_DUPLICATE_LIB_OK") == "" {
		env["KMP_DUPLICATE_LIB_OK"] = "TRUE"
	}
	// tesseract's own threading fights with parallel batch workers
	if c.MaxConcurrency > 1 && getenv("OMP_THREAD_LIMIT") == "" {
		env["OMP_THREAD_LIMIT"] = "1"
	}
	if c.TessdataPrefix != "" {
		env["TESSDATA_PREFIX"] = c.TessdataPrefix
	}
	return env
}
