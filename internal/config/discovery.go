package config

import (
	"os"
	"path/filepath"
)

// workerDirCandidates are searched relative to the working directory.
var workerDirCandidates = []string{"python", filepath.Join("..", "python"), filepath.Join("..", "..", "python")}

// DetectWorkerDir returns the first candidate directory holding a Python
// project (pyproject.toml). Falls back to ./python.
func DetectWorkerDir() string {
	return detectWorkerDirFrom(".")
}

func detectWorkerDirFrom(base string) string {
	for _, candidate := range workerDirCandidates {
		dir := filepath.Join(base, candidate)
		if fileExists(filepath.Join(dir, "pyproject.toml")) {
			if abs, err := filepath.Abs(dir); err == nil {
				return abs
			}
			return dir
		}
	}
	return filepath.Join(base, "python")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
