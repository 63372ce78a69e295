package config

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations and enums to make
// TOML friendly.
type FileConfig struct {
	Output string `toml:"output"`
	Type   string `toml:"type"`
	Method string `toml:"method"`

	Width  int      `toml:"width"`
	Height int      `toml:"height"`
	Ticks  uint64   `toml:"ticks"`
	Rate   string   `toml:"rate"`
	Speed  *float64 `toml:"speed"`

	Texture      string `toml:"texture"`
	TextureSize  int    `toml:"texture_size"`
	WatchTexture *bool  `toml:"watch_texture"`
	Overlay      *bool  `toml:"overlay"`

	Loop      string `toml:"loop"`
	Delay     string `toml:"delay"`
	MinDelay  *int   `toml:"min_delay"`
	Quantizer string `toml:"quantizer"`
	Dither    *bool  `toml:"dither"`

	RenderTimeout string `toml:"render_timeout"`
	KeepPartial   *bool  `toml:"keep_partial"`

	Source     string `toml:"source"`
	ScreenRect string `toml:"screen_rect"`

	Preview  *bool  `toml:"preview"`
	LogLevel string `toml:"log_level"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.spincap/config.toml if the user home
// directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".spincap", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("output", fc.Output, &cfg.Output)
	s.setValue("type", fc.Type, &cfg.Format)
	s.setValue("method", fc.Method, &cfg.Method)

	s.setInt("width", fc.Width, &cfg.Width)
	s.setInt("height", fc.Height, &cfg.Height)
	s.setUint64("ticks", fc.Ticks, &cfg.Ticks)
	s.setValue("rate", fc.Rate, &cfg.Rate)
	s.setFloat("speed", fc.Speed, &cfg.Speed)

	s.setString("texture", fc.Texture, &cfg.Texture)
	s.setInt("texture-size", fc.TextureSize, &cfg.TextureSize)
	s.setBool("watch-texture", fc.WatchTexture, &cfg.WatchTexture)
	s.setBool("overlay", fc.Overlay, &cfg.Overlay)

	s.setValue("loop", fc.Loop, &cfg.Loop)
	s.setValue("delay", fc.Delay, &cfg.Delay)
	s.setIntPtr("min-delay", fc.MinDelay, &cfg.MinDelay)
	s.setValue("quantizer", fc.Quantizer, &cfg.Quantizer)
	s.setBool("dither", fc.Dither, &cfg.Dither)

	s.setDuration("render-timeout", fc.RenderTimeout, &cfg.RenderTimeout)
	s.setBool("keep-partial", fc.KeepPartial, &cfg.KeepPartial)

	if fc.Source != "" && !s.skip("source") {
		cfg.Source = Source(fc.Source)
	}
	s.setValue("screen-rect", fc.ScreenRect, &cfg.ScreenRect)

	s.setBool("preview", fc.Preview, &cfg.Preview)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	return s.err
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
