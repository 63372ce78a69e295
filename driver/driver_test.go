package driver

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/nvlled/spincap/framerate"
	"github.com/rs/zerolog"
)

type recorder struct {
	clocks   []Clock
	failAt   int // step index that fails, -1 never
	delay    time.Duration
	finished int
	cause    error
}

func newRecorder() *recorder { return &recorder{failAt: -1} }

func (r *recorder) Step(ctx context.Context, clock Clock) error {
	if len(r.clocks) == r.failAt {
		return errors.New("step failed")
	}
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	r.clocks = append(r.clocks, clock)
	return nil
}

func (r *recorder) Finish(ctx context.Context, clock Clock, cause error) error {
	r.finished++
	r.cause = cause
	return nil
}

func newDriver(t *testing.T, stepper Stepper, ticks uint64) *Driver {
	t.Helper()
	d, err := New(stepper, Config{Rate: framerate.T{Value: 60, Unit: framerate.UnitSecond}, Ticks: ticks}, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestRunBudget(t *testing.T) {
	rec := newRecorder()
	d := newDriver(t, rec, 100)
	if err := d.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(rec.clocks) != 100 {
		t.Fatalf("expected: %v | got %v", 100, len(rec.clocks))
	}
	for i, clock := range rec.clocks {
		if clock.Tick != uint64(i) {
			t.Errorf("expected: %v | got %v", i, clock.Tick)
		}
		if math.Abs(clock.Elapsed-float64(i)/60) > 1e-9 {
			t.Errorf("tick %v: expected: %v | got %v", i, float64(i)/60, clock.Elapsed)
		}
	}
	if rec.finished != 1 || rec.cause != nil {
		t.Errorf("finished=%v cause=%v", rec.finished, rec.cause)
	}
	if !d.Done() || d.Clock().Tick != 100 {
		t.Errorf("done=%v tick=%v", d.Done(), d.Clock().Tick)
	}
}

func TestUpdateStepsOncePerCall(t *testing.T) {
	rec := newRecorder()
	d := newDriver(t, rec, 10)
	for i := 1; i <= 12; i++ {
		before := len(rec.clocks)
		d.Update(context.Background())
		if len(rec.clocks)-before > 1 {
			t.Fatalf("update %v ran %v ticks", i, len(rec.clocks)-before)
		}
		if i <= 10 && len(rec.clocks) != i {
			t.Errorf("after update %v: expected: %v | got %v", i, i, len(rec.clocks))
		}
	}
	if len(rec.clocks) != 10 || !d.Done() {
		t.Errorf("steps=%v done=%v", len(rec.clocks), d.Done())
	}
}

func TestTicksIgnoreWallClock(t *testing.T) {
	rec := newRecorder()
	rec.delay = 5 * time.Millisecond
	d := newDriver(t, rec, 20)
	if err := d.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(rec.clocks) != 20 {
		t.Fatalf("expected: %v | got %v", 20, len(rec.clocks))
	}
	last := rec.clocks[19]
	if math.Abs(last.Elapsed-19.0/60) > 1e-9 {
		t.Errorf("expected: %v | got %v", 19.0/60, last.Elapsed)
	}
}

func TestStepErrorStops(t *testing.T) {
	rec := newRecorder()
	rec.failAt = 5
	d := newDriver(t, rec, 100)
	err := d.Run(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	if len(rec.clocks) != 5 {
		t.Errorf("expected: %v | got %v", 5, len(rec.clocks))
	}
	if rec.finished != 1 || rec.cause != err {
		t.Errorf("finished=%v cause=%v", rec.finished, rec.cause)
	}
}

func TestCancel(t *testing.T) {
	rec := newRecorder()
	d := newDriver(t, rec, 100)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(rec.clocks) != 0 || rec.finished != 1 {
		t.Errorf("steps=%v finished=%v", len(rec.clocks), rec.finished)
	}
}

func TestStop(t *testing.T) {
	rec := newRecorder()
	d := newDriver(t, rec, 0)
	for i := 0; i < 3; i++ {
		d.Update(context.Background())
	}
	steps := len(rec.clocks)
	d.Stop()
	if err := d.Update(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !d.Done() {
		t.Fatal("driver still running after Stop")
	}
	if len(rec.clocks) != steps {
		t.Errorf("ticked after Stop: %v -> %v", steps, len(rec.clocks))
	}
	if rec.finished != 1 || rec.cause != nil {
		t.Errorf("finished=%v cause=%v", rec.finished, rec.cause)
	}
}

func TestNewRejectsZeroRate(t *testing.T) {
	if _, err := New(newRecorder(), Config{}, zerolog.Nop()); err == nil {
		t.Error("zero rate accepted")
	}
}
