package analog

import (
	"context"
	"fmt"
	"time"

	"github.com/zaburoh/pointing"
)

// Startup calibration takes a fixed number of paired samples with a fixed
// spacing; the per-axis mean becomes the at-rest baseline.
const (
	calibrationSamples = 8
	calibrationSpacing = 2 * time.Millisecond
)

type JoystickOpts struct {
	XChannel     uint8
	YChannel     uint8
	Deadzone     int32
	ScaleDivisor int32
	InvertX      bool
	InvertY      bool
	Delay        pointing.DelayFunc
}

type JoystickOpt func(*JoystickOpts)

func WithChannels(x, y uint8) JoystickOpt {
	return func(o *JoystickOpts) {
		o.XChannel = x
		o.YChannel = y
	}
}

func WithDeadzone(deadzone int32) JoystickOpt {
	return func(o *JoystickOpts) {
		o.Deadzone = deadzone
	}
}

func WithScaleDivisor(divisor int32) JoystickOpt {
	return func(o *JoystickOpts) {
		o.ScaleDivisor = divisor
	}
}

func WithInvert(x, y bool) JoystickOpt {
	return func(o *JoystickOpts) {
		o.InvertX = x
		o.InvertY = y
	}
}

// WithDelay replaces the inter-sample calibration wait, which defaults to
// time.Sleep.
func WithDelay(delay pointing.DelayFunc) JoystickOpt {
	return func(o *JoystickOpts) {
		o.Delay = delay
	}
}

// Joystick produces conditioned relative deltas from two analog channels.
// Typical usage:
//
//	j := analog.NewJoystick(adc, analog.WithDeadzone(50))
//	if err := j.Init(ctx); err != nil { ... }
//	delta, err := j.SampleTick(ctx)
//
// The calibration baseline and configuration never change after Init.
type Joystick struct {
	transport pointing.AnalogReader
	config    JoystickOpts

	centerX    int32
	centerY    int32
	calibrated bool
}

func NewJoystick(transport pointing.AnalogReader, opts ...JoystickOpt) *Joystick {
	config := JoystickOpts{
		XChannel:     0,
		YChannel:     1,
		Deadzone:     100,
		ScaleDivisor: 128,
		Delay:        time.Sleep,
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &Joystick{
		transport: transport,
		config:    config,
	}
}

// Init checks transport readiness and runs startup calibration. Any failure
// is fatal to bring-up and not retried.
func (j *Joystick) Init(ctx context.Context) error {
	if !j.transport.Ready() {
		return fmt.Errorf("joystick: %w", pointing.ErrBusNotReady)
	}
	return j.Calibrate(ctx)
}

// Ready reports whether bring-up completed successfully.
func (j *Joystick) Ready() bool {
	return j.calibrated
}

// Center returns the per-axis baselines measured by Calibrate.
func (j *Joystick) Center() (x, y int32) {
	return j.centerX, j.centerY
}

// ReadAxis triggers one conversion on the given channel.
func (j *Joystick) ReadAxis(ctx context.Context, channel uint8) (int16, error) {
	sample, err := j.transport.SampleChannel(ctx, channel)
	if err != nil {
		return 0, &pointing.BusError{Op: "sample", Err: err}
	}
	return sample, nil
}

// Calibrate measures the at-rest baseline of both axes. Calibration is
// all-or-nothing: the first read failure aborts and partial sums are
// discarded.
func (j *Joystick) Calibrate(ctx context.Context) error {
	var sumX, sumY int64
	for i := 0; i < calibrationSamples; i++ {
		rawX, err := j.ReadAxis(ctx, j.config.XChannel)
		if err != nil {
			return fmt.Errorf("joystick: calibration sample %d (x): %w", i, err)
		}
		rawY, err := j.ReadAxis(ctx, j.config.YChannel)
		if err != nil {
			return fmt.Errorf("joystick: calibration sample %d (y): %w", i, err)
		}
		sumX += int64(rawX)
		sumY += int64(rawY)
		j.config.Delay(calibrationSpacing)
	}
	j.centerX = int32(sumX / calibrationSamples)
	j.centerY = int32(sumY / calibrationSamples)
	j.calibrated = true
	return nil
}

// SampleTick reads both channels, X before Y, and applies the conditioning
// pipeline to each axis. A read failure yields a zero delta without touching
// the baseline or configuration.
func (j *Joystick) SampleTick(ctx context.Context) (pointing.Delta, error) {
	rawX, err := j.ReadAxis(ctx, j.config.XChannel)
	if err != nil {
		return pointing.Delta{}, fmt.Errorf("joystick: x axis: %w", err)
	}
	rawY, err := j.ReadAxis(ctx, j.config.YChannel)
	if err != nil {
		return pointing.Delta{}, fmt.Errorf("joystick: y axis: %w", err)
	}
	return pointing.Delta{
		DX: j.condition(int32(rawX)-j.centerX, j.config.InvertX),
		DY: j.condition(int32(rawY)-j.centerY, j.config.InvertY),
	}, nil
}

func (j *Joystick) condition(centered int32, invert bool) int16 {
	v := scaleValue(applyDeadzone(centered, j.config.Deadzone), j.config.ScaleDivisor)
	if invert {
		v = -v
	}
	return pointing.ClampInt16(v)
}

// applyDeadzone suppresses excursions within the dead band while keeping the
// output continuous at the boundary: values just above the threshold map to
// just above zero.
func applyDeadzone(value, deadzone int32) int32 {
	if value > 0 {
		if value <= deadzone {
			return 0
		}
		return value - deadzone
	}
	if value < 0 {
		if -value <= deadzone {
			return 0
		}
		return value + deadzone
	}
	return 0
}

// scaleValue divides by the configured divisor; a configured zero behaves
// like one.
func scaleValue(value, divisor int32) int32 {
	if divisor == 0 {
		divisor = 1
	}
	return value / divisor
}
