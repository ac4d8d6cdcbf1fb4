package sharpir

import (
	"github.com/pkg/errors"

	"github.com/tigerbot-team/tigerbot/go-sensors/pkg/adc"
)

// DefaultSamples is the number of readings per measurement when the config
// does not say otherwise. 25 readings take roughly 50ms on a 10-bit ADC.
const DefaultSamples = 25

var (
	ErrInvalidSampleCount = errors.New("invalid sample count")
	ErrResolution         = errors.New("unsupported ADC resolution")
)

// MedianSensor estimates distance from the median of a burst of raw
// readings, which rejects the sensor's occasional spikes without averaging
// them in.
//
// A MedianSensor must not be used from more than one goroutine at a time.
type MedianSensor struct {
	adc     adc.Reader
	channel int
	model   Model
	curve   Curve
	samples int
}

// NewMedian returns a sensor reading samples raw codes per measurement from
// the given ADC channel. The model must be one of the median calibrations.
func NewMedian(r adc.Reader, channel int, model Model, samples int) (*MedianSensor, error) {
	if samples <= 0 {
		return nil, errors.Wrapf(ErrInvalidSampleCount, "%d", samples)
	}
	curve, err := MedianCurve(model)
	if err != nil {
		return nil, err
	}
	return &MedianSensor{
		adc:     r,
		channel: channel,
		model:   model,
		curve:   curve,
		samples: samples,
	}, nil
}

func (s *MedianSensor) Model() Model {
	return s.model
}

// Distance takes a burst of readings and returns the calibrated distance of
// the median one in centimetres. The value is not clamped: near the edges
// of the sensor's range it can be negative, huge or infinite.
func (s *MedianSensor) Distance() (float64, error) {
	readings := make([]float64, s.samples)
	for i := range readings {
		raw, err := s.adc.Read(s.channel)
		if err != nil {
			return 0, errors.Wrapf(err, "%v sample %d", s.model, i)
		}
		readings[i] = float64(raw)
	}

	m := median(readings)
	volts := toVolts(int64(m), s.adc.Resolution().Max())
	return s.curve(volts), nil
}
