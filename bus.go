package pointing

import (
	"context"
	"fmt"
)

var ErrBusNotReady = fmt.Errorf("bus transport is not initialized")

// RegisterBus is one session on a shared bidirectional serial bus. WriteHold
// and ReadHold keep the session asserted after the transfer so a multi-step
// register transaction is observed as one atomic exchange; Release ends the
// hold. No other transaction may interleave while the hold is active.
type RegisterBus interface {
	WriteHold(ctx context.Context, buffer []byte) error
	ReadHold(ctx context.Context, buffer []byte) error
	Release(ctx context.Context) error
	// Ready reports whether the underlying transport is initialized and usable.
	Ready() bool
}

// AnalogReader triggers single conversions on independent analog channels.
type AnalogReader interface {
	SampleChannel(ctx context.Context, channel uint8) (int16, error)
	Ready() bool
}
