package osmanager

import (
	"fmt"
	"os"
)

// EnsurePermissions enforces the on-disk permission bits for the
// OS-manager work directory: the allowlist and authorized_keys file are
// 0600 (private) and the client identity PEM is 0600; the work directory's
// own mode is not changed. Missing files are left alone — this only
// tightens files that already exist.
func (m *Manager) EnsurePermissions() error {
	for _, entry := range []struct {
		path string
		mode os.FileMode
	}{
		{m.Allowlist.path, 0o600},
		{m.Keypair.path, 0o600},
		{m.AuthorizedKeysPath, 0o600},
	} {
		if err := ensureMode(entry.path, entry.mode); err != nil {
			return err
		}
	}
	return nil
}

func ensureMode(path string, mode os.FileMode) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Mode().Perm() == mode {
		return nil
	}
	if err := os.Chmod(path, mode); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	return nil
}
