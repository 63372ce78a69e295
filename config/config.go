// Package config holds the command line configuration of spincap.
package config

import (
	"fmt"
	"image"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/nvlled/spincap/capture"
	"github.com/nvlled/spincap/driver"
	"github.com/nvlled/spincap/encoder"
	"github.com/nvlled/spincap/framerate"
)

const (
	DefaultOutputGif = "simple.gif"
	DefaultOutputPng = "capture.png"
)

type Source string

const (
	SourceScene  Source = "scene"
	SourceScreen Source = "screen"
)

// Rect is a desktop rectangle, written "x,y,w,h".
type Rect struct {
	X int
	Y int
	W int
	H int
}

func ParseRect(s string) (Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Rect{}, fmt.Errorf("invalid rectangle %q, expected x,y,w,h", s)
	}
	var values [4]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Rect{}, fmt.Errorf("invalid rectangle %q: %w", s, err)
		}
		values[i] = v
	}
	if values[2] < 0 || values[3] < 0 {
		return Rect{}, fmt.Errorf("invalid rectangle %q: negative size", s)
	}
	return Rect{X: values[0], Y: values[1], W: values[2], H: values[3]}, nil
}

func (r *Rect) String() string {
	if r.Empty() {
		return ""
	}
	return fmt.Sprintf("%v,%v,%v,%v", r.X, r.Y, r.W, r.H)
}

func (r *Rect) Set(s string) error {
	v, err := ParseRect(s)
	if err != nil {
		return err
	}
	*r = v
	return nil
}

func (r *Rect) Type() string { return "rect" }

func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

func (r Rect) Rectangle() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
}

// Config holds CLI configuration for spincap.
type Config struct {
	Output string
	Format encoder.Format
	Method encoder.OutputMethod

	Width  int
	Height int
	Ticks  uint64
	Rate   framerate.T
	Speed  float64 // turns per second

	Texture      string
	TextureSize  int
	WatchTexture bool
	Overlay      bool

	Loop      encoder.Loop
	Delay     encoder.DelayPolicy
	MinDelay  int // centiseconds
	Quantizer encoder.Quantizer
	Dither    bool

	RenderTimeout time.Duration
	KeepPartial   bool

	Source     Source
	ScreenRect Rect

	Preview   bool
	AskOutput bool

	LogLevel string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Output:      DefaultOutputGif,
		Format:      encoder.FormatGif,
		Method:      encoder.OutputMethodOverwrite,
		Width:       512,
		Height:      512,
		Ticks:       100,
		Rate:        framerate.T{Value: 60, Unit: framerate.UnitSecond},
		Speed:       0.4,
		TextureSize: 256,
		Loop:        encoder.LoopInfinite,
		Delay:       encoder.DelayFromRate,
		MinDelay:    2,
		Quantizer:   encoder.QuantizerMedianCut,
		Source:      SourceScene,
		LogLevel:    "info",
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.Output == "" {
		switch c.Format {
		case encoder.FormatPng:
			c.Output = DefaultOutputPng
		default:
			c.Output = DefaultOutputGif
		}
	}
	if filepath.Ext(c.Output) == "" {
		c.Output = encoder.WithFormatExt(c.Output, c.Format)
	}

	if c.Format < 0 || c.Format >= encoder.Format_Size {
		return fmt.Errorf("invalid output type %v", c.Format)
	}
	if c.Method < 0 || c.Method >= encoder.OutputMethod_Size {
		return fmt.Errorf("invalid output method %v", c.Method)
	}
	if c.Rate.Seconds() <= 0 {
		return fmt.Errorf("rate must be positive")
	}
	if c.Ticks == 0 && !c.Preview {
		return fmt.Errorf("ticks must be positive without --preview")
	}
	if math.IsNaN(c.Speed) || math.IsInf(c.Speed, 0) {
		return fmt.Errorf("speed must be a finite number")
	}
	if c.MinDelay < 0 {
		return fmt.Errorf("min-delay must not be negative")
	}
	if c.RenderTimeout < 0 {
		return fmt.Errorf("render-timeout must not be negative")
	}
	if c.TextureSize <= 0 {
		return fmt.Errorf("texture-size must be positive")
	}
	if c.WatchTexture && c.Texture == "" {
		return fmt.Errorf("watch-texture needs --texture")
	}

	switch c.Source {
	case SourceScene:
		if c.Width <= 0 || c.Height <= 0 {
			return fmt.Errorf("frame size must be positive, got %vx%v", c.Width, c.Height)
		}
	case SourceScreen:
	default:
		return fmt.Errorf("unknown source %q", c.Source)
	}

	if _, err := encoder.ParseQuantizer(string(c.Quantizer)); err != nil {
		return err
	}
	return nil
}

func (c *Config) EncoderOptions() encoder.Options {
	return encoder.Options{
		Loop:        c.Loop,
		Delay:       c.Delay,
		Rate:        c.Rate,
		MinDelay:    c.MinDelay,
		Quantizer:   c.Quantizer,
		Dither:      c.Dither,
		KeepPartial: c.KeepPartial,
	}
}

func (c *Config) SessionConfig(output string) capture.SessionConfig {
	return capture.SessionConfig{
		MaxFrames:     c.Ticks,
		RenderTimeout: c.RenderTimeout,
		Output:        output,
	}
}

func (c *Config) DriverConfig() driver.Config {
	return driver.Config{Rate: c.Rate, Ticks: c.Ticks}
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
	err     error
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

func (s *configSetter) skip(flag string) bool {
	return s.err != nil || s.changed[flag]
}

func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.skip(flag) {
		return
	}
	*dst = value
}

func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.skip(flag) {
		return
	}
	*dst = value
}

func (s *configSetter) setIntPtr(flag string, value *int, dst *int) {
	if value == nil || s.skip(flag) {
		return
	}
	*dst = *value
}

func (s *configSetter) setUint64(flag string, value uint64, dst *uint64) {
	if value == 0 || s.skip(flag) {
		return
	}
	*dst = value
}

func (s *configSetter) setFloat(flag string, value *float64, dst *float64) {
	if value == nil || s.skip(flag) {
		return
	}
	*dst = *value
}

func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.skip(flag) {
		return
	}
	*dst = *value
}

func (s *configSetter) setDuration(flag, value string, dst *time.Duration) {
	if value == "" || s.skip(flag) {
		return
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		s.err = fmt.Errorf("parse %s: %w", flag, err)
		return
	}
	*dst = d
}

// setValue parses value with the flag's own parser.
func (s *configSetter) setValue(flag, value string, dst interface{ Set(string) error }) {
	if value == "" || s.skip(flag) {
		return
	}
	if err := dst.Set(value); err != nil {
		s.err = fmt.Errorf("parse %s: %w", flag, err)
	}
}
