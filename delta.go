package pointing

import (
	"math"
	"time"
)

// Axis identifies a relative motion axis.
type Axis int

const (
	AxisX Axis = iota
	AxisY
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	default:
		return "?"
	}
}

// Delta is the relative motion produced by one tick, clamped to the signed
// 16-bit range expected by event consumers.
type Delta struct {
	DX int16
	DY int16
}

func (d Delta) Zero() bool {
	return d.DX == 0 && d.DY == 0
}

// ClampInt16 saturates v to the int16 range.
func ClampInt16(v int32) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

// EventSink accepts relative-axis motion reports. The more flag marks an
// event whose batch is closed by a following event from the same tick.
type EventSink interface {
	ReportRel(axis Axis, value int16, more bool)
}

// SinkFunc adapts a function to the EventSink interface.
type SinkFunc func(axis Axis, value int16, more bool)

func (f SinkFunc) ReportRel(axis Axis, value int16, more bool) {
	f(axis, value, more)
}

// DelayFunc blocks for a hardware-mandated guard or settle interval. These
// waits encode device timing requirements, not scheduling slack, and are not
// cancellable.
type DelayFunc func(d time.Duration)
