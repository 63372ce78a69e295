package framerate

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

type Unit uint8

const (
	UnitSecond = iota
	UnitMinute
	UnitHour

	Unit_End
)

// T is a tick rate: Value ticks per Unit.
type T struct {
	Value int  `json:"value" toml:"value"`
	Unit  Unit `json:"unit" toml:"unit"`
}

func (rate *T) String() string {
	unitStr := "seconds"
	switch rate.Unit {
	case UnitSecond:
		unitStr = "seconds"
	case UnitMinute:
		unitStr = "minutes"
	case UnitHour:
		unitStr = "hours"
	}

	return fmt.Sprintf("%v frames per %v", rate.Value, unitStr)
}

func (rate *T) Increment()           { rate.Value++ }
func (rate *T) Decrement()           { rate.Value-- }
func (rate *T) IncrementBy(step int) { rate.Value += step }
func (rate *T) DecrementBy(step int) { rate.Value -= step }

// Seconds is the exact length of one tick in seconds.
func (rate *T) Seconds() float64 {
	if rate.Value <= 0 {
		return 0
	}
	value := float64(rate.Value)
	switch rate.Unit {
	case UnitSecond:
		return 1 / value
	case UnitMinute:
		return 60 / value
	case UnitHour:
		return 60 * 60 / value
	}
	return 0
}

func (rate *T) Duration() time.Duration {
	return time.Duration(rate.Seconds()*1000*1000) * time.Microsecond
}

// TicksPerSecond is used by hosts that pace updates in real time.
func (rate *T) TicksPerSecond() int {
	s := rate.Seconds()
	if s <= 0 {
		return 0
	}
	tps := int(math.Round(1 / s))
	if tps < 1 {
		tps = 1
	}
	return tps
}

// CsDelay is the GIF delay, in centiseconds, of the frame at index i.
//
// Delays carry their rounding error forward, so the first n frames always
// add up to round(n * Seconds() * 100).
func (rate *T) CsDelay(i int) int {
	cs := rate.Seconds() * 100
	end := math.Round(float64(i+1) * cs)
	start := math.Round(float64(i) * cs)
	return int(end - start)
}

func (rate *T) Clamp(min, max int) {
	if rate.Value < min {
		rate.Value = min
	} else if rate.Value > max {
		rate.Value = max
	}
}

// Parse reads "60", "60/s", "30/m" or "2/h".
func Parse(s string) (T, error) {
	s = strings.TrimSpace(s)
	valueStr, unitStr, hasUnit := strings.Cut(s, "/")
	value, err := strconv.Atoi(strings.TrimSpace(valueStr))
	if err != nil {
		return T{}, fmt.Errorf("invalid rate %q: %w", s, err)
	}
	if value <= 0 {
		return T{}, fmt.Errorf("invalid rate %q: must be positive", s)
	}
	rate := T{Value: value, Unit: UnitSecond}
	if hasUnit {
		switch strings.TrimSpace(unitStr) {
		case "s", "sec", "second":
			rate.Unit = UnitSecond
		case "m", "min", "minute":
			rate.Unit = UnitMinute
		case "h", "hour":
			rate.Unit = UnitHour
		default:
			return T{}, fmt.Errorf("invalid rate unit %q", unitStr)
		}
	}
	return rate, nil
}

// Set implements pflag.Value.
func (rate *T) Set(s string) error {
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*rate = parsed
	return nil
}

// Type implements pflag.Value.
func (rate *T) Type() string { return "rate" }
