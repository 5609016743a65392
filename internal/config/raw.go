package config

// Raw* types mirror the YAML file. Pointer fields distinguish "unset" from a
// zero value so only keys present in the file override defaults.

type RawDisplay struct {
	Height          *int     `yaml:"height"`
	MaxWidthPercent *float64 `yaml:"max_width_percent"`
	Anchor          *Anchor  `yaml:"anchor"`
	MarginX         *int     `yaml:"margin_x"`
	MarginY         *int     `yaml:"margin_y"`
}

type RawAppearance struct {
	Background        *string  `yaml:"background"`
	WindowColor       *string  `yaml:"window_color"`
	FocusedColor      *string  `yaml:"focused_color"`
	BorderColor       *string  `yaml:"border_color"`
	BorderWidth       *float64 `yaml:"border_width"`
	BorderRadius      *float64 `yaml:"border_radius"`
	Gap               *float64 `yaml:"gap"`
	BackgroundOpacity *float64 `yaml:"background_opacity"`
}

type RawBehavior struct {
	AlwaysVisible *bool `yaml:"always_visible"`
	HideTimeoutMs *int  `yaml:"hide_timeout_ms"`
}

type RawConfig struct {
	Display    *RawDisplay    `yaml:"display"`
	Appearance *RawAppearance `yaml:"appearance"`
	Behavior   *RawBehavior   `yaml:"behavior"`
	LogLevel   *string        `yaml:"log_level"`
}
