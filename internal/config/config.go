package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/nirimap/internal/tiling"
)

// MinHeight is the smallest display height that leaves room for content
// inside the minimap padding.
const MinHeight = int(2*tiling.DefaultPadding) + 1

// Anchor is the screen position the minimap is attached to.
type Anchor string

const (
	AnchorTopLeft      Anchor = "top-left"
	AnchorTopCenter    Anchor = "top-center"
	AnchorTopRight     Anchor = "top-right"
	AnchorBottomLeft   Anchor = "bottom-left"
	AnchorBottomCenter Anchor = "bottom-center"
	AnchorBottomRight  Anchor = "bottom-right"
	AnchorCenter       Anchor = "center"
)

// Anchors lists every valid anchor.
func Anchors() []Anchor {
	return []Anchor{
		AnchorTopLeft, AnchorTopCenter, AnchorTopRight,
		AnchorBottomLeft, AnchorBottomCenter, AnchorBottomRight,
		AnchorCenter,
	}
}

func (a Anchor) Valid() bool {
	for _, v := range Anchors() {
		if a == v {
			return true
		}
	}
	return false
}

// Top reports whether the anchor is on the top edge.
func (a Anchor) Top() bool {
	return a == AnchorTopLeft || a == AnchorTopCenter || a == AnchorTopRight
}

// Bottom reports whether the anchor is on the bottom edge.
func (a Anchor) Bottom() bool {
	return a == AnchorBottomLeft || a == AnchorBottomCenter || a == AnchorBottomRight
}

// Left reports whether the anchor is on the left edge.
func (a Anchor) Left() bool {
	return a == AnchorTopLeft || a == AnchorBottomLeft
}

// Right reports whether the anchor is on the right edge.
func (a Anchor) Right() bool {
	return a == AnchorTopRight || a == AnchorBottomRight
}

// Color is an opaque RGB colour.
type Color struct {
	R, G, B uint8
}

// ParseColor parses "#rrggbb" (the leading # is optional).
func ParseColor(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("invalid color %q: expected #rrggbb", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// Hex formats the colour as "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Display controls minimap size and placement.
type Display struct {
	// Height in pixels. Width follows the workspace content.
	Height          int     `yaml:"height"`
	MaxWidthPercent float64 `yaml:"max_width_percent"`
	Anchor          Anchor  `yaml:"anchor"`
	MarginX         int     `yaml:"margin_x"`
	MarginY         int     `yaml:"margin_y"`
}

// Appearance controls colours and window rectangle styling.
type Appearance struct {
	Background        string  `yaml:"background"`
	WindowColor       string  `yaml:"window_color"`
	FocusedColor      string  `yaml:"focused_color"`
	BorderColor       string  `yaml:"border_color"`
	BorderWidth       float64 `yaml:"border_width"`
	BorderRadius      float64 `yaml:"border_radius"`
	Gap               float64 `yaml:"gap"`
	BackgroundOpacity float64 `yaml:"background_opacity"`
}

// Behavior controls visibility.
type Behavior struct {
	AlwaysVisible bool `yaml:"always_visible"`
	HideTimeoutMs int  `yaml:"hide_timeout_ms"`
}

// Config is the effective nirimap configuration.
type Config struct {
	Display    Display    `yaml:"display"`
	Appearance Appearance `yaml:"appearance"`
	Behavior   Behavior   `yaml:"behavior"`
	LogLevel   string     `yaml:"log_level"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Display: Display{
			Height:          100,
			MaxWidthPercent: 0.5,
			Anchor:          AnchorTopRight,
			MarginX:         10,
			MarginY:         10,
		},
		Appearance: Appearance{
			Background:        "#1e1e2e",
			WindowColor:       "#45475a",
			FocusedColor:      "#89b4fa",
			BorderColor:       "#6c7086",
			BorderWidth:       1,
			BorderRadius:      2,
			Gap:               2,
			BackgroundOpacity: 0.9,
		},
		Behavior: Behavior{
			AlwaysVisible: true,
			HideTimeoutMs: 2000,
		},
		LogLevel: "info",
	}
}

// HideTimeout returns the auto-hide delay.
func (c *Config) HideTimeout() time.Duration {
	return time.Duration(c.Behavior.HideTimeoutMs) * time.Millisecond
}

// Colors parses the four appearance colours. Validate guarantees they parse.
func (a Appearance) Colors() (background, window, focused, border Color) {
	background, _ = ParseColor(a.Background)
	window, _ = ParseColor(a.WindowColor)
	focused, _ = ParseColor(a.FocusedColor)
	border, _ = ParseColor(a.BorderColor)
	return
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	if c.Display.Height < MinHeight {
		return &ValidationError{Path: "display.height", Err: fmt.Errorf("height must be >= %d", MinHeight)}
	}
	if c.Display.MaxWidthPercent <= 0 || c.Display.MaxWidthPercent > 1 {
		return &ValidationError{Path: "display.max_width_percent", Err: fmt.Errorf("max_width_percent must be in (0, 1]")}
	}
	if !c.Display.Anchor.Valid() {
		return &ValidationError{Path: "display.anchor", Err: fmt.Errorf("anchor must be one of: %s", anchorList())}
	}
	if c.Display.MarginX < 0 || c.Display.MarginY < 0 {
		return &ValidationError{Path: "display", Err: fmt.Errorf("margins must be >= 0")}
	}

	colors := []struct {
		path  string
		value string
	}{
		{"appearance.background", c.Appearance.Background},
		{"appearance.window_color", c.Appearance.WindowColor},
		{"appearance.focused_color", c.Appearance.FocusedColor},
		{"appearance.border_color", c.Appearance.BorderColor},
	}
	for _, col := range colors {
		if _, err := ParseColor(col.value); err != nil {
			return &ValidationError{Path: col.path, Err: err}
		}
	}
	if c.Appearance.BorderWidth < 0 {
		return &ValidationError{Path: "appearance.border_width", Err: fmt.Errorf("border_width must be >= 0")}
	}
	if c.Appearance.BorderRadius < 0 {
		return &ValidationError{Path: "appearance.border_radius", Err: fmt.Errorf("border_radius must be >= 0")}
	}
	if c.Appearance.Gap < 0 {
		return &ValidationError{Path: "appearance.gap", Err: fmt.Errorf("gap must be >= 0")}
	}
	if c.Appearance.BackgroundOpacity < 0 || c.Appearance.BackgroundOpacity > 1 {
		return &ValidationError{Path: "appearance.background_opacity", Err: fmt.Errorf("background_opacity must be in [0, 1]")}
	}

	if c.Behavior.HideTimeoutMs <= 0 {
		return &ValidationError{Path: "behavior.hide_timeout_ms", Err: fmt.Errorf("hide_timeout_ms must be > 0")}
	}

	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	return nil
}

func anchorList() string {
	names := make([]string, 0, len(Anchors()))
	for _, a := range Anchors() {
		names = append(names, string(a))
	}
	return strings.Join(names, ", ")
}

// SaveTo writes the configuration to path.
//
// Note: this marshals the effective config and will not preserve comments
// from an existing file.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
