package adapter

import (
	"context"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/zaburoh/pointing"
)

var _ pointing.RegisterBus = &SPISession{}

// SPISession provides a held bus session over a periph.io SPI port. The port
// is opened with automatic chip-select disabled and the chip-select line is
// driven manually, so a hold (CS asserted across a write-then-read pair) maps
// onto the device's transaction framing.
type SPISession struct {
	mx    sync.Mutex
	port  spi.PortCloser
	conn  spi.Conn
	cs    gpio.PinOut
	held  bool
	ready bool
}

func NewSPISession(dev, csPin string) (*SPISession, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	port, err := spireg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("could not open spi port %s: %w", dev, err)
	}
	// Mode 3 (CPOL|CPHA) per the sensor's datasheet.
	conn, err := port.Connect(2*physic.MegaHertz, spi.Mode3|spi.NoCS, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("could not configure spi port %s: %w", dev, err)
	}
	cs := gpioreg.ByName(csPin)
	if cs == nil {
		_ = port.Close()
		return nil, fmt.Errorf("chip-select pin %q not found", csPin)
	}
	if err := cs.Out(gpio.High); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("could not deassert chip select: %w", err)
	}
	return &SPISession{
		port:  port,
		conn:  conn,
		cs:    cs,
		ready: true,
	}, nil
}

func (s *SPISession) WriteHold(ctx context.Context, buffer []byte) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if err := s.assert(); err != nil {
		return err
	}
	return s.conn.Tx(buffer, nil)
}

func (s *SPISession) ReadHold(ctx context.Context, buffer []byte) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if err := s.assert(); err != nil {
		return err
	}
	return s.conn.Tx(nil, buffer)
}

func (s *SPISession) Release(ctx context.Context) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if !s.held {
		return nil
	}
	s.held = false
	return s.cs.Out(gpio.High)
}

func (s *SPISession) Ready() bool {
	return s.ready
}

func (s *SPISession) Close() error {
	s.ready = false
	return s.port.Close()
}

// assert pulls chip select low if this is the first operation of a hold.
func (s *SPISession) assert() error {
	if s.held {
		return nil
	}
	if err := s.cs.Out(gpio.Low); err != nil {
		return fmt.Errorf("could not assert chip select: %w", err)
	}
	s.held = true
	return nil
}
