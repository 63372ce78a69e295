package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/nvlled/spincap/capture"
	"github.com/nvlled/spincap/config"
	"github.com/nvlled/spincap/driver"
	"github.com/nvlled/spincap/encoder"
	"github.com/nvlled/spincap/preview"
	"github.com/nvlled/spincap/render"
	"github.com/nvlled/spincap/scene"
	"github.com/rs/zerolog"
)

// run builds the pipeline described by cfg and drives it to the end.
func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	if cfg.AskOutput {
		output, err := preview.AskOutput(cfg.Format, cfg.Output)
		if err != nil {
			return err
		}
		cfg.Output = output
	}

	output, err := encoder.ResolveOutputPath(cfg.Output, cfg.Method)
	if err != nil {
		return fmt.Errorf("resolve output: %w", err)
	}

	source, reg, err := newSource(ctx, cfg, log)
	if err != nil {
		return err
	}

	controller := capture.NewController(source, log)
	pipeline := &driver.Pipeline{
		Scene:      reg,
		Controller: controller,
		Session:    cfg.SessionConfig(output),
		OpenEncoder: func() (encoder.Encoder, error) {
			enc, err := encoder.Open(cfg.Format, output, cfg.EncoderOptions())
			if err != nil {
				return nil, err
			}
			return enc, nil
		},
	}
	d, err := driver.New(pipeline, cfg.DriverConfig(), log)
	if err != nil {
		return err
	}

	log.Info().
		Str("output", output).
		Str("type", cfg.Format.String()).
		Uint64("ticks", cfg.Ticks).
		Str("rate", cfg.Rate.String()).
		Str("source", string(cfg.Source)).
		Msg("recording")

	if !cfg.Preview {
		return settle(d.Run(ctx), controller, log)
	}

	game, err := preview.New(ctx, d, controller, preview.Options{
		Rate:   cfg.Rate,
		Budget: cfg.Ticks,
		Output: output,
		Size:   source.Size(),
	}, log)
	if err != nil {
		return err
	}
	return settle(game.Run(), controller, log)
}

// settle turns an interrupted run into success only when the session was
// finalized.
func settle(err error, controller *capture.Controller, log zerolog.Logger) error {
	if !errors.Is(err, context.Canceled) {
		return err
	}
	s, ok := controller.Snapshot()
	switch {
	case ok && s.State == capture.StateFinished:
		log.Info().Uint64("frames", s.Frames).Str("output", s.Config.Output).Msg("interrupted, output finalized")
		return nil
	case ok && s.Err != nil:
		return s.Err
	}
	return fmt.Errorf("interrupted before capture started: %w", err)
}

func newSource(ctx context.Context, cfg config.Config, log zerolog.Logger) (capture.FrameSource, *scene.Registry, error) {
	if cfg.Source == config.SourceScreen {
		source, err := render.NewScreenSource(cfg.ScreenRect.Rectangle())
		return source, nil, err
	}

	reg, _ := scene.NewSpinningCube(float32(cfg.Speed))

	tex := render.CheckerTexture(cfg.TextureSize, 8)
	if cfg.Texture != "" {
		var err error
		if tex, err = render.LoadTexture(cfg.Texture, cfg.TextureSize); err != nil {
			return nil, nil, err
		}
	}

	renderer := render.NewRenderer(tex)
	if cfg.Overlay {
		size := float64(cfg.Height) / 20
		if size < 10 {
			size = 10
		}
		overlay, err := render.NewOverlay(size)
		if err != nil {
			return nil, nil, err
		}
		renderer.Overlay = overlay
	}

	source := render.NewSceneSource(reg, renderer, cfg.Width, cfg.Height)
	if cfg.WatchTexture {
		if err := render.WatchTexture(ctx, cfg.Texture, cfg.TextureSize, log, source.QueueTexture); err != nil {
			return nil, nil, fmt.Errorf("watch texture: %w", err)
		}
	}
	return source, reg, nil
}
