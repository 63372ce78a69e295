// Package driver advances simulated time in fixed steps, independent of how
// long each step takes on the wall clock.
package driver

import (
	"context"
	"errors"

	"github.com/nvlled/carrot"
	"github.com/nvlled/spincap/framerate"
	"github.com/rs/zerolog"
)

// Clock is the simulated time of one tick. Elapsed is always Tick·Delta.
type Clock struct {
	Tick    uint64
	Delta   float64 // seconds
	Elapsed float64 // seconds
}

// Stepper is the work done on every tick.
type Stepper interface {
	Step(ctx context.Context, clock Clock) error

	// Finish is called once when the driver terminates. cause is nil when
	// the tick budget ran out or Stop was requested.
	Finish(ctx context.Context, clock Clock, cause error) error
}

type Config struct {
	Rate framerate.T

	// Ticks is the tick budget. Zero runs until Stop or cancellation.
	Ticks uint64
}

func DefaultConfig() Config {
	return Config{
		Rate:  framerate.T{Value: 60, Unit: framerate.UnitSecond},
		Ticks: 100,
	}
}

// Driver runs the stepper inside a coroutine that yields once per tick, so a
// host loop calling Update advances exactly one tick per call.
type Driver struct {
	stepper Stepper
	budget  uint64
	log     zerolog.Logger

	script *carrot.Script
	ctx    context.Context
	clock  Clock

	pending       bool
	stopRequested bool
	done          bool
	err           error
}

func New(stepper Stepper, cfg Config, log zerolog.Logger) (*Driver, error) {
	delta := cfg.Rate.Seconds()
	if delta <= 0 {
		return nil, errors.New("driver: tick rate must be positive")
	}
	d := &Driver{
		stepper: stepper,
		budget:  cfg.Ticks,
		log:     log.With().Str("component", "driver").Logger(),
		ctx:     context.Background(),
		clock:   Clock{Delta: delta},
	}
	d.script = carrot.Start(d.coroutine)
	return d, nil
}

// Update advances one tick. It returns the error that terminated the driver,
// if any.
func (d *Driver) Update(ctx context.Context) error {
	if d.done {
		return d.err
	}
	d.ctx = ctx
	d.pending = true
	d.script.Update()
	return d.err
}

// Run drives every tick back to back, without sleeping, until the driver
// terminates.
func (d *Driver) Run(ctx context.Context) error {
	for !d.done {
		d.Update(ctx)
	}
	return d.err
}

// Stop requests termination at the next tick boundary.
func (d *Driver) Stop() { d.stopRequested = true }

func (d *Driver) Done() bool   { return d.done }
func (d *Driver) Err() error   { return d.err }
func (d *Driver) Clock() Clock { return d.clock }

func (d *Driver) coroutine(in *carrot.Invoker) {
	for {
		// pending is set by Update and consumed here, one tick per call
		for !d.pending && !d.stopRequested {
			in.Yield()
		}
		d.pending = false

		if err := d.ctx.Err(); err != nil {
			d.log.Info().Uint64("tick", d.clock.Tick).Msg("canceled")
			d.finish(err)
			return
		}
		if d.stopRequested {
			d.log.Info().Uint64("tick", d.clock.Tick).Msg("stop requested")
			d.finish(nil)
			return
		}

		if err := d.stepper.Step(d.ctx, d.clock); err != nil {
			d.finish(err)
			return
		}
		d.clock.Tick++
		d.clock.Elapsed = float64(d.clock.Tick) * d.clock.Delta

		if d.budget > 0 && d.clock.Tick >= d.budget {
			d.log.Debug().Uint64("ticks", d.clock.Tick).Msg("tick budget reached")
			d.finish(nil)
			return
		}
	}
}

func (d *Driver) finish(cause error) {
	err := d.stepper.Finish(d.ctx, d.clock, cause)
	if cause != nil {
		err = cause
	}
	d.err = err
	d.done = true
}
