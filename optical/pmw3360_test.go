package optical

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/zaburoh/pointing"
)

// MockRegisterBus is a mock implementation of pointing.RegisterBus using testify/mock.
type MockRegisterBus struct {
	mock.Mock
}

func (m *MockRegisterBus) WriteHold(ctx context.Context, buffer []byte) error {
	args := m.Called(ctx, buffer)
	return args.Error(0)
}

func (m *MockRegisterBus) ReadHold(ctx context.Context, buffer []byte) error {
	args := m.Called(ctx, buffer)
	if args.Get(0) != nil {
		if data, ok := args.Get(0).([]byte); ok && len(data) <= len(buffer) {
			copy(buffer, data)
		}
	}
	return args.Error(1)
}

func (m *MockRegisterBus) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRegisterBus) Ready() bool {
	args := m.Called()
	return args.Bool(0)
}

// noDelay skips guard intervals so tests run instantly.
func noDelay(time.Duration) {}

// expectRegisterRead queues the write-then-read exchange for one register.
func expectRegisterRead(bus *MockRegisterBus, reg byte, value byte) {
	bus.On("WriteHold", mock.Anything, []byte{reg}).Return(nil).Once()
	bus.On("ReadHold", mock.Anything, mock.Anything).Return([]byte{value}, nil).Once()
	bus.On("Release", mock.Anything).Return(nil).Once()
}

func TestFrameEncoding(t *testing.T) {
	tests := []struct {
		reg       register
		readWire  byte
		writeWire byte
	}{
		{regProductID, 0x00, 0x80},
		{regMotion, 0x02, 0x82},
		{regConfig1, 0x0F, 0x8F},
		{regPowerUpReset, 0x3A, 0xBA},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%#02x", byte(test.reg)), func(t *testing.T) {
			assert.Equal(t, test.readWire, readFrame(test.reg))
			assert.Equal(t, test.writeWire, writeFrame(test.reg))
		})
	}
}

func TestCPIRegisterValue(t *testing.T) {
	tests := []struct {
		cpi      uint16
		expected byte
	}{
		{50, 0},    // below range, clamps to 100
		{100, 0},
		{500, 4},
		{12000, 119},
		{20000, 119}, // above range, clamps to 12000
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%d", test.cpi), func(t *testing.T) {
			assert.Equal(t, test.expected, cpiRegisterValue(test.cpi))
		})
	}
}

func TestPMW3360_SampleMotion(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(*MockRegisterBus)
		expected  pointing.Delta
		wantErr   bool
	}{
		{
			name: "validity bit clear yields no motion without burst reads",
			setupMock: func(bus *MockRegisterBus) {
				expectRegisterRead(bus, 0x02, 0x00)
			},
			expected: pointing.Delta{},
		},
		{
			name: "valid packet combines high and low bytes",
			setupMock: func(bus *MockRegisterBus) {
				expectRegisterRead(bus, 0x02, 0x80)
				expectRegisterRead(bus, 0x03, 0x10) // x low
				expectRegisterRead(bus, 0x04, 0x00) // x high
				expectRegisterRead(bus, 0x05, 0xF0) // y low
				expectRegisterRead(bus, 0x06, 0xFF) // y high
			},
			expected: pointing.Delta{DX: 16, DY: -16},
		},
		{
			name: "status read failure aborts the sample",
			setupMock: func(bus *MockRegisterBus) {
				bus.On("WriteHold", mock.Anything, []byte{0x02}).Return(errors.New("spi write failed")).Once()
				bus.On("Release", mock.Anything).Return(nil).Once()
			},
			expected: pointing.Delta{},
			wantErr:  true,
		},
		{
			name: "mid-burst failure aborts the whole sample",
			setupMock: func(bus *MockRegisterBus) {
				expectRegisterRead(bus, 0x02, 0x80)
				expectRegisterRead(bus, 0x03, 0x10)
				bus.On("WriteHold", mock.Anything, []byte{0x04}).Return(nil).Once()
				bus.On("ReadHold", mock.Anything, mock.Anything).Return(nil, errors.New("spi read failed")).Once()
				bus.On("Release", mock.Anything).Return(nil).Once()
			},
			expected: pointing.Delta{},
			wantErr:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := new(MockRegisterBus)
			tt.setupMock(bus)
			dev := NewPMW3360(bus, WithDelay(noDelay))

			delta, err := dev.SampleMotion(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				var busErr *pointing.BusError
				assert.ErrorAs(t, err, &busErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expected, delta)
			bus.AssertExpectations(t)
		})
	}
}

func TestPMW3360_Init(t *testing.T) {
	expectBringUp := func(bus *MockRegisterBus, pid, rev byte) {
		bus.On("Ready").Return(true).Once()
		// power-up reset
		bus.On("WriteHold", mock.Anything, []byte{0xBA, 0x5A}).Return(nil).Once()
		bus.On("Release", mock.Anything).Return(nil).Once()
		expectRegisterRead(bus, 0x00, pid)
		expectRegisterRead(bus, 0x01, rev)
	}

	t.Run("successful bring-up configures the device", func(t *testing.T) {
		bus := new(MockRegisterBus)
		expectBringUp(bus, 0x42, 0x01)
		// config2 then resolution (500 cpi encodes as 4)
		bus.On("WriteHold", mock.Anything, []byte{0x90, 0x00}).Return(nil).Once()
		bus.On("Release", mock.Anything).Return(nil).Once()
		bus.On("WriteHold", mock.Anything, []byte{0x8F, 0x04}).Return(nil).Once()
		bus.On("Release", mock.Anything).Return(nil).Once()

		dev := NewPMW3360(bus, WithDelay(noDelay))
		assert.NoError(t, dev.Init(context.Background()))
		assert.True(t, dev.Ready())
		bus.AssertExpectations(t)
	})

	t.Run("identity mismatch fails bring-up", func(t *testing.T) {
		bus := new(MockRegisterBus)
		expectBringUp(bus, 0x42, 0x02)

		dev := NewPMW3360(bus, WithDelay(noDelay))
		err := dev.Init(context.Background())
		assert.Error(t, err)
		var idErr *pointing.IdentityError
		assert.ErrorAs(t, err, &idErr)
		assert.Equal(t, byte(0x42), idErr.Product)
		assert.Equal(t, byte(0x02), idErr.Revision)
		assert.False(t, dev.Ready())
		bus.AssertExpectations(t)
	})

	t.Run("bus not ready fails bring-up", func(t *testing.T) {
		bus := new(MockRegisterBus)
		bus.On("Ready").Return(false).Once()

		dev := NewPMW3360(bus, WithDelay(noDelay))
		err := dev.Init(context.Background())
		assert.ErrorIs(t, err, pointing.ErrBusNotReady)
		assert.False(t, dev.Ready())
		bus.AssertExpectations(t)
	})

	t.Run("reset write failure fails bring-up", func(t *testing.T) {
		bus := new(MockRegisterBus)
		bus.On("Ready").Return(true).Once()
		bus.On("WriteHold", mock.Anything, []byte{0xBA, 0x5A}).Return(errors.New("spi write failed")).Once()
		bus.On("Release", mock.Anything).Return(nil).Once()

		dev := NewPMW3360(bus, WithDelay(noDelay))
		err := dev.Init(context.Background())
		assert.Error(t, err)
		var busErr *pointing.BusError
		assert.ErrorAs(t, err, &busErr)
		assert.False(t, dev.Ready())
		bus.AssertExpectations(t)
	})

	t.Run("resolution write failure is not fatal", func(t *testing.T) {
		bus := new(MockRegisterBus)
		expectBringUp(bus, 0x42, 0x01)
		bus.On("WriteHold", mock.Anything, []byte{0x90, 0x00}).Return(nil).Once()
		bus.On("Release", mock.Anything).Return(nil).Once()
		bus.On("WriteHold", mock.Anything, []byte{0x8F, 0x04}).Return(errors.New("spi write failed")).Once()
		bus.On("Release", mock.Anything).Return(nil).Once()

		dev := NewPMW3360(bus, WithDelay(noDelay))
		assert.NoError(t, dev.Init(context.Background()))
		assert.True(t, dev.Ready())
		bus.AssertExpectations(t)
	})
}

func TestPMW3360_ReadRegisterGuardSymmetry(t *testing.T) {
	// Both guard waits run even when the address write fails, and the hold is
	// still released between them.
	bus := new(MockRegisterBus)
	bus.On("WriteHold", mock.Anything, []byte{0x02}).Return(errors.New("spi write failed")).Once()
	bus.On("Release", mock.Anything).Return(nil).Once()

	var delays []time.Duration
	dev := NewPMW3360(bus, WithDelay(func(d time.Duration) {
		delays = append(delays, d)
	}))

	_, err := dev.SampleMotion(context.Background())
	assert.Error(t, err)
	assert.Equal(t, []time.Duration{160 * time.Microsecond, 19 * time.Microsecond}, delays)
	bus.AssertExpectations(t)
	bus.AssertNotCalled(t, "ReadHold", mock.Anything, mock.Anything)
}
