package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/nvlled/spincap/config"
	"github.com/nvlled/spincap/frame"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"
)

var longHelp = strings.TrimSpace(`
Render a spinning textured cube off-screen and record it as an animated GIF
(or a numbered PNG sequence).

Simulated time advances by a fixed step per tick, so the output is identical
no matter how fast the machine renders. The run stops after --ticks frames.
`)

var exampleUsage = strings.TrimSpace(`
  spincap
  spincap --output spin.gif --ticks 120 --rate 30 --speed 0.5 --texture crate.png
  spincap --type png --method new-file --preview
  spincap --source screen --screen-rect 0,0,640,480 --ticks 50
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := config.DefaultConfig()
	var cfgPath string

	log, _ := config.Logger(cfg.LogLevel)

	root := &cobra.Command{
		Use:           "spincap",
		Short:         "Record a spinning cube into an animated GIF",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = config.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && config.FileExists(cfgFile) {
				fc, err := config.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := config.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			} else if cfgPath != "" {
				return fmt.Errorf("config file %v not found", cfgPath)
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			var err error
			if log, err = config.Logger(cfg.LogLevel); err != nil {
				return err
			}
			log.Debug().Interface("config", cfg).Msg("configuration")

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg, log)
		},
	}

	flags := root.Flags()
	flags.StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.spincap/config.toml)")

	flags.StringVarP(&cfg.Output, "output", "o", cfg.Output, "output file")
	flags.Var(&cfg.Format, "type", "output type: gif or png")
	flags.Var(&cfg.Method, "method", "output method: overwrite or new-file")

	flags.IntVar(&cfg.Width, "width", cfg.Width, "frame width in pixels")
	flags.IntVar(&cfg.Height, "height", cfg.Height, "frame height in pixels")
	flags.Uint64Var(&cfg.Ticks, "ticks", cfg.Ticks, "number of ticks (frames) to record")
	flags.Var(&cfg.Rate, "rate", "tick rate, e.g. 60, 30/s, 20/m")
	flags.Float64Var(&cfg.Speed, "speed", cfg.Speed, "rotation speed in turns per second")

	flags.StringVar(&cfg.Texture, "texture", cfg.Texture, "texture image (png, jpeg, gif, bmp, webp); a checker pattern when empty")
	flags.IntVar(&cfg.TextureSize, "texture-size", cfg.TextureSize, "texture resolution, rounded up to a power of two")
	flags.BoolVar(&cfg.WatchTexture, "watch-texture", cfg.WatchTexture, "reload the texture when the file changes")
	flags.BoolVar(&cfg.Overlay, "overlay", cfg.Overlay, "draw the tick number into each frame")

	flags.Var(&cfg.Loop, "loop", "gif loop policy: infinite, once or a repeat count")
	flags.Var(&cfg.Delay, "delay", "gif frame delay: tick (from the tick rate) or default")
	flags.IntVar(&cfg.MinDelay, "min-delay", cfg.MinDelay, "smallest gif frame delay in centiseconds")
	flags.Var(&cfg.Quantizer, "quantizer", "palette quantizer: median-cut or palgen")
	flags.BoolVar(&cfg.Dither, "dither", cfg.Dither, "Floyd-Steinberg dithering")

	flags.DurationVar(&cfg.RenderTimeout, "render-timeout", cfg.RenderTimeout, "fail when a frame takes longer than this to render (0 waits forever)")
	flags.BoolVar(&cfg.KeepPartial, "keep-partial", cfg.KeepPartial, "keep the unfinished output of a failed run")

	flags.StringVar((*string)(&cfg.Source), "source", string(cfg.Source), "frame source: scene or screen")
	flags.Var(&cfg.ScreenRect, "screen-rect", "desktop rectangle x,y,w,h for --source screen (default: primary display)")

	flags.BoolVar(&cfg.Preview, "preview", cfg.Preview, "show the capture in a window, paced at the tick rate")
	flags.BoolVar(&cfg.AskOutput, "ask-output", cfg.AskOutput, "choose the output file with a save dialog")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Str("kind", frame.Kind(err)).Msg("spincap")
		os.Exit(1)
	}
}
