package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultFileContents is the commented config written on first run.
const DefaultFileContents = `# nirimap configuration

display:
  height: 100              # minimap height in pixels (width follows content)
  max_width_percent: 0.5   # maximum width as a fraction of the screen (0-1]
  anchor: top-right        # top-left, top-center, top-right,
                           # bottom-left, bottom-center, bottom-right, center
  margin_x: 10             # horizontal distance from the anchored edge
  margin_y: 10             # vertical distance from the anchored edge

appearance:
  background: "#1e1e2e"
  window_color: "#45475a"
  focused_color: "#89b4fa"
  border_color: "#6c7086"
  border_width: 1
  border_radius: 2
  gap: 2                   # space between windows, in minimap pixels
  background_opacity: 0.9  # 0 = transparent, 1 = opaque

behavior:
  always_visible: true     # false: show on activity, hide after the timeout
  hide_timeout_ms: 2000

log_level: info            # debug, info, warning, error
`

// EnsureDefaultFile writes DefaultFileContents to path when nothing exists
// there. It reports whether a file was created.
func EnsureDefaultFile(path string) (bool, error) {
	exists, err := pathExists(path)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := WriteDefaultFile(path); err != nil {
		return false, err
	}
	return true, nil
}

// WriteDefaultFile writes DefaultFileContents to path, replacing any file.
func WriteDefaultFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(DefaultFileContents), 0644); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}
	return nil
}
