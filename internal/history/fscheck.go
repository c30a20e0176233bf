package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var networkFilesystems = map[string]bool{
	"afpfs":  true,
	"cifs":   true,
	"nfs":    true,
	"smbfs":  true,
	"smb2":   true,
	"webdav": true,
}

// CheckLocalFilesystem rejects journal paths on network filesystems, where
// SQLite locking is unreliable. Platforms without detection pass.
func CheckLocalFilesystem(path string) error {
	return checkFilesystem(path, filesystemType)
}

func checkFilesystem(path string, detect func(string) (string, error)) error {
	if path == "" {
		return fmt.Errorf("history path is empty")
	}

	existing, err := nearestExistingPath(path)
	if err != nil {
		return fmt.Errorf("resolve history path %q: %w", path, err)
	}

	fsType, err := detect(existing)
	if errors.Is(err, errUnsupported) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("detect filesystem for %q: %w", existing, err)
	}

	if isNetworkFilesystem(fsType) {
		return fmt.Errorf("history path %q is on network filesystem %q; set history.path to a file on local disk", path, fsType)
	}
	return nil
}

var errUnsupported = errors.New("filesystem detection unsupported on this platform")

// nearestExistingPath walks up from path until it finds something that exists.
func nearestExistingPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	for candidate := absPath; ; {
		_, err := os.Stat(candidate)
		if err == nil {
			return candidate, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(candidate)
		if parent == candidate {
			return "", fmt.Errorf("no existing parent for %q", absPath)
		}
		candidate = parent
	}
}

func isNetworkFilesystem(fsType string) bool {
	return networkFilesystems[strings.ToLower(strings.TrimSpace(fsType))]
}
