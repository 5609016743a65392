// Package runtimepath locates the per-user directory that holds the daemon's
// control socket.
package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
)

// SocketName is the control socket file name inside Dir.
const SocketName = "nirimap.sock"

// Dir picks the socket directory. $XDG_RUNTIME_DIR wins when set, then an
// existing /run/user/<uid>. Otherwise a private directory under /tmp is
// created.
func Dir() (string, error) {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir, nil
	}

	uid := os.Getuid()
	if dir := fmt.Sprintf("/run/user/%d", uid); isDir(dir) {
		return dir, nil
	}

	fallback := filepath.Join(os.TempDir(), fmt.Sprintf("nirimap-%d", uid))
	if err := os.MkdirAll(fallback, 0700); err != nil {
		return "", fmt.Errorf("runtime dir %s: %w", fallback, err)
	}
	return fallback, nil
}

// SocketPath joins Dir and SocketName.
func SocketPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, SocketName), nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
