package adapter

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/karalabe/hid"

	"github.com/zaburoh/pointing"
)

const VendorID = 0x04D8
const ProductID = 0x00DD

// MCP2221 ADC channel count and resolution (10-bit).
const (
	adcChannels  = 3
	adcMaxSample = 0x03FF
)

var _ pointing.AnalogReader = &MCP2221{}

// MCP2221 exposes the ADC channels of a Microchip MCP2221 USB bridge as
// analog axes. The chip is driven over USB HID with 64-byte command/response
// reports; the Status/Set Parameters command returns the current conversion
// of all three channels.
type MCP2221 struct {
	mx           sync.Mutex
	request      []byte
	response     []byte
	responseWait time.Duration
}

func NewMCP2221() *MCP2221 {
	return &MCP2221{
		request:      make([]byte, 64),
		response:     make([]byte, 64),
		responseWait: 50 * time.Millisecond,
	}
}

// SampleChannel reads one ADC channel (0-2). The 10-bit conversion is
// returned as-is; it never exceeds the int16 range.
func (d *MCP2221) SampleChannel(ctx context.Context, channel uint8) (int16, error) {
	if channel >= adcChannels {
		return 0, fmt.Errorf("mcp2221: no such adc channel: %d", channel)
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = 0x10
	if err := d.send(ctx); err != nil {
		return 0, fmt.Errorf("mcp2221: status request failed: %w", err)
	}
	// ADC conversions live at response bytes 50..55, one 16-bit little-endian
	// word per channel.
	raw := binary.LittleEndian.Uint16(d.response[50+2*int(channel) : 52+2*int(channel)])
	if raw > adcMaxSample {
		return 0, fmt.Errorf("mcp2221: adc value out of range: %#04x", raw)
	}
	return int16(raw), nil
}

func (d *MCP2221) Ready() bool {
	return len(hid.Enumerate(VendorID, ProductID)) > 0
}

func (d *MCP2221) send(ctx context.Context) error {
	devs := hid.Enumerate(VendorID, ProductID)
	if len(devs) == 0 {
		return fmt.Errorf("MCP2221 device not found")
	}
	if len(devs) > 1 {
		return fmt.Errorf("ambiguous device identification")
	}
	dev, err := devs[0].Open()
	if err != nil {
		return fmt.Errorf("error opening device: %w", err)
	}
	defer func() {
		_ = dev.Close()
	}()
	n, err := dev.Write(d.request)
	if err != nil {
		return fmt.Errorf("could not write request: %w", err)
	}
	if n != 64 {
		return fmt.Errorf("short write: %d", n)
	}
	time.Sleep(d.responseWait)
	n, err = dev.Read(d.response)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}
	if n != 64 {
		return fmt.Errorf("short read: %d", n)
	}
	return nil
}

func (d *MCP2221) resetBuffers() {
	resetBuffer(d.request)
	resetBuffer(d.response)
}

func resetBuffer(buf []byte) {
	for i := 0; i < len(buf)-1; i++ {
		buf[i] = 0x00
	}
}
