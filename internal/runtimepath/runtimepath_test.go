package runtimepath

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestDir(t *testing.T) {
	td := t.TempDir()
	uid := os.Getuid()

	tests := []struct {
		name string
		xdg  string
		tmp  string
		want []string
	}{
		{"xdg runtime dir", td, "", []string{td}},
		{"fallback", "", td, []string{
			fmt.Sprintf("/run/user/%d", uid),
			filepath.Join(td, fmt.Sprintf("nirimap-%d", uid)),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("XDG_RUNTIME_DIR", tt.xdg)
			if tt.tmp != "" {
				t.Setenv("TMPDIR", tt.tmp)
			}

			got, err := Dir()
			if err != nil {
				t.Fatalf("Dir() error: %v", err)
			}
			for _, w := range tt.want {
				if got == w {
					return
				}
			}
			t.Fatalf("Dir() = %q, want one of %q", got, tt.want)
		})
	}
}

func TestDir_FallbackIsPrivate(t *testing.T) {
	if isDir(fmt.Sprintf("/run/user/%d", os.Getuid())) {
		t.Skip("/run/user/<uid> exists; fallback not reached")
	}
	t.Setenv("XDG_RUNTIME_DIR", "")
	t.Setenv("TMPDIR", t.TempDir())

	got, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error: %v", err)
	}
	info, err := os.Stat(got)
	if err != nil {
		t.Fatalf("stat %s: %v", got, err)
	}
	if perm := info.Mode().Perm(); perm != 0700 {
		t.Fatalf("fallback mode = %o, want 700", perm)
	}
}

func TestSocketPath(t *testing.T) {
	td := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", td)

	socket, err := SocketPath()
	if err != nil {
		t.Fatalf("SocketPath() error: %v", err)
	}
	if want := filepath.Join(td, SocketName); socket != want {
		t.Fatalf("SocketPath() = %q, want %q", socket, want)
	}
}
