package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/adrg/xdg"

	"github.com/1broseidon/nirimap/internal/state"
	"github.com/1broseidon/nirimap/internal/tiling"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.Display.Height != 100 || cfg.Display.Anchor != AnchorTopRight {
		t.Fatalf("unexpected display defaults: %+v", cfg.Display)
	}
	if !cfg.Behavior.AlwaysVisible || cfg.HideTimeout() != 2*time.Second {
		t.Fatalf("unexpected behavior defaults: %+v", cfg.Behavior)
	}
}

func TestDefaultFileContents_MatchesDefaults(t *testing.T) {
	path := writeConfig(t, DefaultFileContents)
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *res.Config != *DefaultConfig() {
		t.Fatalf("default file differs from DefaultConfig:\n%+v\n%+v", *res.Config, *DefaultConfig())
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(writeConfig(t, "# empty\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *res.Config != *DefaultConfig() {
		t.Fatalf("expected defaults, got %+v", *res.Config)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.File != "" {
		t.Fatalf("File = %q, want empty", res.File)
	}
}

func TestLoadFromPath_PartialOverride(t *testing.T) {
	path := writeConfig(t, strings.Join([]string{
		"display:",
		"  height: 150",
		"  anchor: bottom-center",
		"behavior:",
		"  always_visible: false",
		"  hide_timeout_ms: 750",
		"log_level: warn",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.Display.Height != 150 || cfg.Display.Anchor != AnchorBottomCenter {
		t.Fatalf("display = %+v", cfg.Display)
	}
	if cfg.Display.MarginX != 10 {
		t.Fatalf("unset margin_x should keep default, got %d", cfg.Display.MarginX)
	}
	if cfg.Behavior.AlwaysVisible || cfg.HideTimeout() != 750*time.Millisecond {
		t.Fatalf("behavior = %+v", cfg.Behavior)
	}
	if cfg.LogLevel != "warning" {
		t.Fatalf("log_level = %q, want warning", cfg.LogLevel)
	}
}

func TestLoadFromPath_UnknownKeyFails(t *testing.T) {
	path := writeConfig(t, "display:\n  heigth: 10\n")
	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "heigth") {
		t.Fatalf("error should name the key, got %v", err)
	}
}

func TestLoadFromPath_ValidationErrorHasSource(t *testing.T) {
	path := writeConfig(t, "appearance:\n  focused_color: \"#zzzzzz\"\n")
	_, err := LoadFromPath(path)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Path != "appearance.focused_color" {
		t.Fatalf("path = %q", verr.Path)
	}
	if verr.Source.Kind != SourceFile || verr.Source.Line != 2 {
		t.Fatalf("source = %+v, want file line 2", verr.Source)
	}
}

func TestAnchors_AllSevenParse(t *testing.T) {
	for _, a := range Anchors() {
		path := writeConfig(t, "display:\n  anchor: "+string(a)+"\n")
		res, err := LoadFromPath(path)
		if err != nil {
			t.Fatalf("anchor %q: %v", a, err)
		}
		if res.Config.Display.Anchor != a {
			t.Fatalf("anchor = %q, want %q", res.Config.Display.Anchor, a)
		}
	}
	if len(Anchors()) != 7 {
		t.Fatalf("got %d anchors, want 7", len(Anchors()))
	}

	if _, err := LoadFromPath(writeConfig(t, "display:\n  anchor: middle\n")); err == nil {
		t.Fatal("expected error for unknown anchor")
	}
}

func TestAnchorEdges(t *testing.T) {
	if !AnchorTopRight.Top() || !AnchorTopRight.Right() || AnchorTopRight.Left() {
		t.Fatal("top-right edges wrong")
	}
	if !AnchorBottomCenter.Bottom() || AnchorBottomCenter.Left() || AnchorBottomCenter.Right() {
		t.Fatal("bottom-center edges wrong")
	}
	if AnchorCenter.Top() || AnchorCenter.Bottom() || AnchorCenter.Left() || AnchorCenter.Right() {
		t.Fatal("center touches no edge")
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		wantErr bool
	}{
		{in: "#1e1e2e", want: Color{R: 0x1e, G: 0x1e, B: 0x2e}},
		{in: "89B4FA", want: Color{R: 0x89, G: 0xb4, B: 0xfa}},
		{in: "#fff", wantErr: true},
		{in: "#gg0000", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseColor(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseColor(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseColor(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
		if strings.TrimPrefix(strings.ToLower(tt.in), "#") != strings.TrimPrefix(got.Hex(), "#") {
			t.Fatalf("Hex() = %q for %q", got.Hex(), tt.in)
		}
	}
}

func TestValidate_Ranges(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"zero height", func(c *Config) { c.Display.Height = 0 }, "display.height"},
		{"height within padding", func(c *Config) { c.Display.Height = 8 }, "display.height"},
		{"width percent above one", func(c *Config) { c.Display.MaxWidthPercent = 1.5 }, "display.max_width_percent"},
		{"negative gap", func(c *Config) { c.Appearance.Gap = -1 }, "appearance.gap"},
		{"opacity above one", func(c *Config) { c.Appearance.BackgroundOpacity = 2 }, "appearance.background_opacity"},
		{"zero timeout", func(c *Config) { c.Behavior.HideTimeoutMs = 0 }, "behavior.hide_timeout_ms"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			var verr *ValidationError
			if err := cfg.Validate(); !errors.As(err, &verr) || verr.Path != tt.path {
				t.Fatalf("Validate() = %v, want ValidationError at %s", err, tt.path)
			}
		})
	}
}

func TestValidate_MinHeightProjects(t *testing.T) {
	ws := &state.Workspace{ID: 1, Windows: map[uint64]*state.Window{
		1: {ID: 1, Size: state.Size{Width: 800, Height: 600}},
	}}
	tests := []struct {
		height    int
		wantValid bool
	}{
		{height: 2 * int(tiling.DefaultPadding), wantValid: false},
		{height: MinHeight, wantValid: true},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.Display.Height = tt.height
		err := cfg.Validate()
		if (err == nil) != tt.wantValid {
			t.Fatalf("Validate(height=%d) = %v, want valid=%v", tt.height, err, tt.wantValid)
		}
		if err != nil {
			continue
		}
		box := tiling.Box{Width: float64(tt.height), Height: float64(tt.height)}
		if p := tiling.Project(ws, box, tiling.Style{Padding: tiling.DefaultPadding}); p.Empty {
			t.Fatalf("valid height %d projects a tiled window as empty", tt.height)
		}
	}
}

func TestExplain(t *testing.T) {
	path := writeConfig(t, "display:\n  margin_y: 42\n")
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	value, src, err := Explain(res, "display.margin_y")
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if value != 42 {
		t.Fatalf("value = %v, want 42", value)
	}
	if src.Kind != SourceFile || src.Line != 2 {
		t.Fatalf("source = %+v", src)
	}

	_, src, err = Explain(res, "appearance.gap")
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if FormatSource(src) != "default" {
		t.Fatalf("source = %q, want default", FormatSource(src))
	}

	if _, _, err := Explain(res, "display.nope"); err == nil {
		t.Fatal("expected error for unknown path")
	}
}

func TestLoadWithSources_WritesDefaultFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	xdg.Reload()
	t.Cleanup(xdg.Reload)

	res, err := LoadWithSources()
	if err != nil {
		t.Fatalf("LoadWithSources: %v", err)
	}
	path, _ := DefaultConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("default file not written: %v", err)
	}
	if string(data) != DefaultFileContents {
		t.Fatal("default file contents differ")
	}
	if res.File == "" {
		t.Fatal("expected File to be set after writing defaults")
	}
}

func TestSaveTo_RoundTrips(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Display.Anchor = AnchorCenter
	cfg.Appearance.Gap = 5
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *res.Config != *cfg {
		t.Fatalf("round trip mismatch:\n%+v\n%+v", *res.Config, *cfg)
	}
}
