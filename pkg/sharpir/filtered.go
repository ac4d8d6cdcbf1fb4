package sharpir

import (
	"math"

	"github.com/pkg/errors"

	"github.com/tigerbot-team/tigerbot/go-sensors/pkg/adc"
)

// OutOfRange is the distance reported when a filtered measurement has no
// usable samples.
const OutOfRange = 1000.0

var (
	ErrNoSamplesAccepted = errors.New("no samples accepted")
	ErrOutOfRange        = errors.New("distance out of range")
	ErrInvalidTolerance  = errors.New("invalid tolerance")
)

// FilteredSensor averages per-sample distance estimates, discarding any
// sample that falls below a fraction of the last accepted one. This guards
// against the sensor's habit of briefly reporting a much shorter distance.
//
// A FilteredSensor must not be used from more than one goroutine at a time.
type FilteredSensor struct {
	adc       adc.Reader
	channel   int
	model     Model
	curve     Curve
	samples   int
	tolerance float64 // Fraction of the previous sample, 0..1
	truncate  bool
}

// Option adjusts a FilteredSensor at construction.
type Option func(*FilteredSensor)

// TruncateTolerance makes the tolerance percentage go through integer
// division, so anything under 100% accepts every non-negative sample and
// 100% demands a non-decreasing sequence.
func TruncateTolerance() Option {
	return func(s *FilteredSensor) {
		s.truncate = true
	}
}

// Measurement is the detail behind a filtered distance.
type Measurement struct {
	Distance float64
	Accepted int
	Samples  int
}

// NewFiltered returns a sensor averaging up to samples readings per
// measurement. tolerancePercent is how close, in percent, a sample has to
// be to the previous accepted one. The reader must be 10-bit.
func NewFiltered(r adc.Reader, channel, samples, tolerancePercent int, model Model, opts ...Option) (*FilteredSensor, error) {
	if samples < 0 {
		return nil, errors.Wrapf(ErrInvalidSampleCount, "%d", samples)
	}
	if tolerancePercent < 0 {
		return nil, errors.Wrapf(ErrInvalidTolerance, "%d%%", tolerancePercent)
	}
	if r.Resolution() != adc.Bits10 {
		return nil, errors.Wrapf(ErrResolution, "filtered sensor needs %v, got %v", adc.Bits10, r.Resolution())
	}
	curve, err := FilteredCurve(model)
	if err != nil {
		return nil, err
	}
	s := &FilteredSensor{
		adc:     r,
		channel: channel,
		model:   model,
		curve:   curve,
		samples: samples,
	}
	for _, o := range opts {
		o(s)
	}
	if s.truncate {
		s.tolerance = float64(tolerancePercent / 100)
	} else {
		s.tolerance = float64(tolerancePercent) / 100
	}
	return s, nil
}

func (s *FilteredSensor) Model() Model {
	return s.model
}

// Sample takes a single reading and converts it to centimetres.
func (s *FilteredSensor) Sample() (float64, error) {
	raw, err := s.adc.Read(s.channel)
	if err != nil {
		return 0, errors.Wrapf(err, "%v", s.model)
	}
	// The calibration tables were built from single precision voltages.
	volts := float64(float32(toVolts(int64(raw), adc.Bits10.Max())))
	return s.curve(volts), nil
}

// Measure runs the filter over a full set of samples. When nothing usable
// was collected the returned Distance is OutOfRange alongside
// ErrNoSamplesAccepted or ErrOutOfRange.
func (s *FilteredSensor) Measure() (Measurement, error) {
	m := Measurement{Samples: s.samples}
	var sum, reference float64
	for i := 0; i < s.samples; i++ {
		d, err := s.Sample()
		if err != nil {
			return m, errors.Wrapf(err, "sample %d", i)
		}
		if d >= s.tolerance*reference {
			reference = d
			sum += d
			m.Accepted++
		}
	}

	if m.Accepted == 0 {
		m.Distance = OutOfRange
		return m, ErrNoSamplesAccepted
	}
	avg := sum / float64(m.Accepted)
	if math.IsInf(avg, 0) || math.IsNaN(avg) {
		m.Distance = OutOfRange
		return m, ErrOutOfRange
	}
	m.Distance = avg
	return m, nil
}

// Distance returns the filtered mean distance in centimetres.
func (s *FilteredSensor) Distance() (float64, error) {
	m, err := s.Measure()
	return m.Distance, err
}
