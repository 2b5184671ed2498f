package config

import (
	"fmt"
	"os"
	"runtime"
)

// CheckFilePermissions reports a configuration file that other users can
// modify. The profile decides which host the console connects to, so a
// writable file lets another user redirect keystrokes.
func CheckFilePermissions(path string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if mode := info.Mode().Perm(); mode&0022 != 0 {
		return fmt.Errorf("%s is writable by group or others (mode %04o)", path, mode)
	}
	return nil
}

// FixFilePermissions restricts path to owner read/write
func FixFilePermissions(path string) error {
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to restrict permissions on %s: %w", path, err)
	}
	return nil
}
