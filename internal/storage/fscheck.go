package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SQLite locking is unreliable on these.
var remoteFilesystems = map[string]bool{
	"afpfs":  true,
	"cifs":   true,
	"nfs":    true,
	"smbfs":  true,
	"smb2":   true,
	"webdav": true,
}

func checkLocalFilesystem(path string) error {
	return checkLocalFilesystemWith(path, filesystemType)
}

func checkLocalFilesystemWith(path string, fsType func(string) (string, error)) error {
	dir, err := existingAncestor(path)
	if err != nil {
		return fmt.Errorf("resolve sqlite path %q: %w", path, err)
	}

	kind, err := fsType(dir)
	if err != nil {
		// Unknown platforms are not blocked.
		return nil
	}
	if isRemoteFilesystem(kind) {
		return fmt.Errorf("sqlite database %q is on network filesystem %q; set store.dsn to a path on local disk or use the postgres driver", path, kind)
	}
	return nil
}

// existingAncestor returns path, or the closest parent directory of it that
// exists on disk.
func existingAncestor(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	for candidate := abs; ; {
		_, err := os.Stat(candidate)
		switch {
		case err == nil:
			return candidate, nil
		case !errors.Is(err, os.ErrNotExist):
			return "", err
		}
		parent := filepath.Dir(candidate)
		if parent == candidate {
			return "", fmt.Errorf("no existing parent for %q", abs)
		}
		candidate = parent
	}
}

func isRemoteFilesystem(kind string) bool {
	return remoteFilesystems[strings.ToLower(strings.TrimSpace(kind))]
}
