package analog

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

// MockAnalogReader is a mock implementation of pointing.AnalogReader using testify/mock.
type MockAnalogReader struct {
	mock.Mock
}

func (m *MockAnalogReader) SampleChannel(ctx context.Context, channel uint8) (int16, error) {
	args := m.Called(ctx, channel)
	return args.Get(0).(int16), args.Error(1)
}

func (m *MockAnalogReader) Ready() bool {
	args := m.Called()
	return args.Bool(0)
}

// noDelay skips the calibration spacing so tests run instantly.
func noDelay(time.Duration) {}

func TestApplyDeadzone(t *testing.T) {
	tests := []struct {
		value    int32
		deadzone int32
		expected int32
	}{
		{0, 50, 0},
		{50, 50, 0},
		{51, 50, 1},
		{100, 50, 50},
		{-50, 50, 0},
		{-51, 50, -1},
		{-100, 50, -50},
		{7, 0, 7},
		{-7, 0, -7},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("v=%d,d=%d", test.value, test.deadzone), func(t *testing.T) {
			result := applyDeadzone(test.value, test.deadzone)
			assert.Equal(t, test.expected, result)
			// sign is preserved and magnitude is max(0, |v|-d)
			if result != 0 {
				assert.Equal(t, test.value > 0, result > 0)
			}
		})
	}
}

func TestScaleValue(t *testing.T) {
	tests := []struct {
		value    int32
		divisor  int32
		expected int32
	}{
		{100, 10, 10},
		{-100, 10, -10},
		{100, 0, 100}, // zero divisor behaves like one
		{100, 1, 100},
		{5, 10, 0},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("v=%d,div=%d", test.value, test.divisor), func(t *testing.T) {
			assert.Equal(t, test.expected, scaleValue(test.value, test.divisor))
		})
	}
}

func expectCalibration(adc *MockAnalogReader, xSamples, ySamples [8]int16) {
	for i := 0; i < 8; i++ {
		adc.On("SampleChannel", mock.Anything, uint8(0)).Return(xSamples[i], nil).Once()
		adc.On("SampleChannel", mock.Anything, uint8(1)).Return(ySamples[i], nil).Once()
	}
}

func TestJoystick_Calibrate(t *testing.T) {
	t.Run("center is the truncated mean of 8 samples", func(t *testing.T) {
		adc := new(MockAnalogReader)
		expectCalibration(adc,
			[8]int16{10, 12, 8, 14, 9, 11, 13, 7}, // sum 84, mean 10
			[8]int16{500, 500, 500, 500, 500, 500, 500, 500},
		)

		j := NewJoystick(adc, WithDelay(noDelay))
		assert.NoError(t, j.Calibrate(context.Background()))
		x, y := j.Center()
		assert.Equal(t, int32(10), x)
		assert.Equal(t, int32(500), y)
		assert.True(t, j.Ready())
		adc.AssertExpectations(t)
	})

	t.Run("first read failure aborts calibration", func(t *testing.T) {
		adc := new(MockAnalogReader)
		adc.On("SampleChannel", mock.Anything, uint8(0)).Return(int16(500), nil).Once()
		adc.On("SampleChannel", mock.Anything, uint8(1)).Return(int16(500), nil).Once()
		adc.On("SampleChannel", mock.Anything, uint8(0)).Return(int16(0), errors.New("adc busy")).Once()

		j := NewJoystick(adc, WithDelay(noDelay))
		err := j.Calibrate(context.Background())
		assert.Error(t, err)
		var busErr *pointing.BusError
		assert.ErrorAs(t, err, &busErr)
		assert.False(t, j.Ready())
		x, y := j.Center()
		assert.Zero(t, x)
		assert.Zero(t, y)
		adc.AssertExpectations(t)
	})

	t.Run("transport not ready fails bring-up", func(t *testing.T) {
		adc := new(MockAnalogReader)
		adc.On("Ready").Return(false).Once()

		j := NewJoystick(adc, WithDelay(noDelay))
		assert.ErrorIs(t, j.Init(context.Background()), pointing.ErrBusNotReady)
		adc.AssertExpectations(t)
	})
}

func TestJoystick_SampleTick(t *testing.T) {
	// center (500, 500), deadzone 50, divisor 10, no inversion
	calibrated := func(opts ...JoystickOpt) (*Joystick, *MockAnalogReader) {
		adc := new(MockAnalogReader)
		expectCalibration(adc,
			[8]int16{500, 500, 500, 500, 500, 500, 500, 500},
			[8]int16{500, 500, 500, 500, 500, 500, 500, 500},
		)
		opts = append([]JoystickOpt{
			WithDeadzone(50),
			WithScaleDivisor(10),
			WithDelay(noDelay),
		}, opts...)
		j := NewJoystick(adc, opts...)
		if err := j.Calibrate(context.Background()); err != nil {
			t.Fatalf("calibration failed: %v", err)
		}
		return j, adc
	}

	t.Run("conditioning pipeline end to end", func(t *testing.T) {
		j, adc := calibrated()
		adc.On("SampleChannel", mock.Anything, uint8(0)).Return(int16(600), nil).Once()
		adc.On("SampleChannel", mock.Anything, uint8(1)).Return(int16(500), nil).Once()

		delta, err := j.SampleTick(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, pointing.Delta{DX: 5, DY: 0}, delta)
		adc.AssertExpectations(t)
	})

	t.Run("inversion negates after scaling", func(t *testing.T) {
		j, adc := calibrated(WithInvert(true, false))
		adc.On("SampleChannel", mock.Anything, uint8(0)).Return(int16(600), nil).Once()
		adc.On("SampleChannel", mock.Anything, uint8(1)).Return(int16(400), nil).Once()

		delta, err := j.SampleTick(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, pointing.Delta{DX: -5, DY: -5}, delta)
		adc.AssertExpectations(t)
	})

	t.Run("read failure yields zero delta and keeps calibration", func(t *testing.T) {
		j, adc := calibrated()
		adc.On("SampleChannel", mock.Anything, uint8(0)).Return(int16(0), errors.New("adc busy")).Once()

		delta, err := j.SampleTick(context.Background())
		assert.Error(t, err)
		assert.True(t, delta.Zero())
		x, y := j.Center()
		assert.Equal(t, int32(500), x)
		assert.Equal(t, int32(500), y)
		adc.AssertExpectations(t)
	})

	t.Run("repeated ticks with unchanged input are idempotent", func(t *testing.T) {
		j, adc := calibrated()
		adc.On("SampleChannel", mock.Anything, uint8(0)).Return(int16(620), nil).Times(3)
		adc.On("SampleChannel", mock.Anything, uint8(1)).Return(int16(430), nil).Times(3)

		var deltas []pointing.Delta
		for i := 0; i < 3; i++ {
			delta, err := j.SampleTick(context.Background())
			assert.NoError(t, err)
			deltas = append(deltas, delta)
		}
		assert.Equal(t, deltas[0], deltas[1])
		assert.Equal(t, deltas[1], deltas[2])
		adc.AssertExpectations(t)
	})
}
