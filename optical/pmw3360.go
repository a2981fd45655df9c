package optical

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/zaburoh/pointing"
)

// Expected identification bytes (datasheet section 5).
const (
	productID  byte = 0x42
	revisionID byte = 0x01
)

const (
	powerUpResetValue byte = 0x5A
	motionValidBit    byte = 0x80
)

// Resolution limits. The device encodes CPI in steps of 100 starting at 100.
const (
	minCPI = 100
	maxCPI = 12000
)

// Guard intervals mandated between transaction phases. The pairs belong
// together: desynchronizing them violates the device's SPI timing (tSRAD,
// tSRR/tSRW, tSWW). The reset settle is a full power-on wait, not a bus guard.
var timing = struct {
	readAddressGuard  time.Duration // between address frame and data read
	readReleaseGuard  time.Duration // after releasing a read transaction
	writeHoldGuard    time.Duration // after the write frame, before release
	writeReleaseGuard time.Duration // after releasing a write transaction
	resetSettle       time.Duration // after power-up reset
}{
	readAddressGuard:  160 * time.Microsecond,
	readReleaseGuard:  19 * time.Microsecond,
	writeHoldGuard:    35 * time.Microsecond,
	writeReleaseGuard: 145 * time.Microsecond,
	resetSettle:       50 * time.Millisecond,
}

// Identity is the (product id, revision id) pair read at bring-up.
type Identity struct {
	Product  byte
	Revision byte
}

type PMW3360Opts struct {
	CPI   uint16
	Delay pointing.DelayFunc
}

type PMW3360Opt func(*PMW3360Opts)

func WithCPI(cpi uint16) PMW3360Opt {
	return func(o *PMW3360Opts) {
		o.CPI = cpi
	}
}

// WithDelay replaces the guard-interval wait, which defaults to time.Sleep.
func WithDelay(delay pointing.DelayFunc) PMW3360Opt {
	return func(o *PMW3360Opts) {
		o.Delay = delay
	}
}

// PMW3360 talks to a PixArt PMW3360 motion sensor over a held bus session.
// Typical usage:
//
//	dev := optical.NewPMW3360(bus, optical.WithCPI(800))
//	if err := dev.Init(ctx); err != nil { ... }
//	delta, err := dev.SampleMotion(ctx)
//
// Init must succeed before SampleMotion is called; a failed bring-up leaves
// the instance permanently unusable.
type PMW3360 struct {
	transport pointing.RegisterBus
	config    PMW3360Opts
	ready     bool
}

func NewPMW3360(transport pointing.RegisterBus, opts ...PMW3360Opt) *PMW3360 {
	config := PMW3360Opts{
		CPI:   500,
		Delay: time.Sleep,
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &PMW3360{
		transport: transport,
		config:    config,
	}
}

// Init performs the power-on handshake: readiness check, reset, identity
// validation, then best-effort configuration. Any failure before the identity
// check passes is fatal and not retried; configuration write failures are
// logged and bring-up continues.
func (s *PMW3360) Init(ctx context.Context) error {
	if !s.transport.Ready() {
		return fmt.Errorf("pmw3360: %w", pointing.ErrBusNotReady)
	}
	id, err := s.ResetAndIdentify(ctx)
	if err != nil {
		return fmt.Errorf("pmw3360: identification failed: %w", err)
	}
	if id.Product != productID || id.Revision != revisionID {
		return &pointing.IdentityError{
			Product:      id.Product,
			Revision:     id.Revision,
			WantProduct:  productID,
			WantRevision: revisionID,
		}
	}
	if err := s.writeRegister(ctx, regConfig2, 0x00); err != nil {
		slog.Warn("pmw3360: config2 write failed", "error", err)
	}
	if err := s.setResolution(ctx, s.config.CPI); err != nil {
		slog.Warn("pmw3360: resolution write failed", "error", err, "cpi", s.config.CPI)
	}
	s.ready = true
	return nil
}

// Ready reports whether bring-up completed successfully.
func (s *PMW3360) Ready() bool {
	return s.ready
}

// ResetAndIdentify writes the power-up reset value, waits for the device to
// settle and reads back the identification registers. The caller validates
// the returned bytes.
func (s *PMW3360) ResetAndIdentify(ctx context.Context) (Identity, error) {
	if err := s.writeRegister(ctx, regPowerUpReset, powerUpResetValue); err != nil {
		return Identity{}, fmt.Errorf("reset: %w", err)
	}
	s.config.Delay(timing.resetSettle)
	pid, err := s.readRegister(ctx, regProductID)
	if err != nil {
		return Identity{}, fmt.Errorf("product id: %w", err)
	}
	rev, err := s.readRegister(ctx, regRevisionID)
	if err != nil {
		return Identity{}, fmt.Errorf("revision id: %w", err)
	}
	return Identity{Product: pid, Revision: rev}, nil
}

// SampleMotion decodes one motion status+delta packet. A clear validity bit
// yields a zero delta without touching the delta registers. Any read failure
// aborts the sample; the caller treats it as no motion for this tick.
func (s *PMW3360) SampleMotion(ctx context.Context) (pointing.Delta, error) {
	motion, err := s.readRegister(ctx, regMotion)
	if err != nil {
		return pointing.Delta{}, fmt.Errorf("pmw3360: motion status: %w", err)
	}
	if motion&motionValidBit == 0 {
		return pointing.Delta{}, nil
	}
	xl, err := s.readRegister(ctx, regDeltaXL)
	if err != nil {
		return pointing.Delta{}, fmt.Errorf("pmw3360: delta x low: %w", err)
	}
	xh, err := s.readRegister(ctx, regDeltaXH)
	if err != nil {
		return pointing.Delta{}, fmt.Errorf("pmw3360: delta x high: %w", err)
	}
	yl, err := s.readRegister(ctx, regDeltaYL)
	if err != nil {
		return pointing.Delta{}, fmt.Errorf("pmw3360: delta y low: %w", err)
	}
	yh, err := s.readRegister(ctx, regDeltaYH)
	if err != nil {
		return pointing.Delta{}, fmt.Errorf("pmw3360: delta y high: %w", err)
	}
	return pointing.Delta{
		DX: int16(uint16(xh)<<8 | uint16(xl)),
		DY: int16(uint16(yh)<<8 | uint16(yl)),
	}, nil
}

// setResolution clamps the requested CPI to the supported range and writes
// the device encoding. The caller treats failures as non-fatal.
func (s *PMW3360) setResolution(ctx context.Context, cpi uint16) error {
	return s.writeRegister(ctx, regConfig1, cpiRegisterValue(cpi))
}

func cpiRegisterValue(cpi uint16) byte {
	if cpi < minCPI {
		cpi = minCPI
	} else if cpi > maxCPI {
		cpi = maxCPI
	}
	return byte(cpi/100 - 1)
}

// readRegister issues the address frame, waits the address guard, reads one
// byte and releases the hold. Both guard waits execute even when the address
// write fails, keeping hold/release timing symmetric.
func (s *PMW3360) readRegister(ctx context.Context, reg register) (byte, error) {
	addr := [1]byte{readFrame(reg)}
	werr := s.transport.WriteHold(ctx, addr[:])
	s.config.Delay(timing.readAddressGuard)

	var data [1]byte
	var rerr error
	if werr == nil {
		rerr = s.transport.ReadHold(ctx, data[:])
	}
	_ = s.transport.Release(ctx)
	s.config.Delay(timing.readReleaseGuard)

	if werr != nil {
		return 0, &pointing.BusError{Op: "write", Err: werr}
	}
	if rerr != nil {
		return 0, &pointing.BusError{Op: "read", Err: rerr}
	}
	return data[0], nil
}

func (s *PMW3360) writeRegister(ctx context.Context, reg register, value byte) error {
	frame := [2]byte{writeFrame(reg), value}
	err := s.transport.WriteHold(ctx, frame[:])
	s.config.Delay(timing.writeHoldGuard)
	_ = s.transport.Release(ctx)
	s.config.Delay(timing.writeReleaseGuard)
	if err != nil {
		return &pointing.BusError{Op: "write", Err: err}
	}
	return nil
}
