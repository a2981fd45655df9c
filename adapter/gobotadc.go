package adapter

import (
	"context"
	"fmt"

	"gobot.io/x/gobot/v2/drivers/aio"

	"github.com/zaburoh/pointing"
)

var _ pointing.AnalogReader = &GobotADC{}

// GobotADC adapts a gobot analog connection to the pointing analog-reader
// interface, mapping numeric channels onto the platform's pin names.
type GobotADC struct {
	reader aio.AnalogReader
	pins   map[uint8]string
}

func NewGobotADC(reader aio.AnalogReader, pins map[uint8]string) *GobotADC {
	return &GobotADC{
		reader: reader,
		pins:   pins,
	}
}

func (a *GobotADC) SampleChannel(ctx context.Context, channel uint8) (int16, error) {
	pin, ok := a.pins[channel]
	if !ok {
		return 0, fmt.Errorf("gobot adc: no pin mapped to channel %d", channel)
	}
	val, err := a.reader.AnalogRead(pin)
	if err != nil {
		return 0, fmt.Errorf("gobot adc: read pin %s: %w", pin, err)
	}
	return pointing.ClampInt16(int32(val)), nil
}

func (a *GobotADC) Ready() bool {
	return a.reader != nil && len(a.pins) > 0
}
