package hardware

import (
	"context"
	"math"
	"time"

	"github.com/tigerbot-team/tigerbot/go-sensors/pkg/sharpir"
)

type Interface interface {
	Start(ctx context.Context)

	// Read the current state of the hardware. Returns the latest readings
	// from cache, blocking only until the first poll has completed.
	CurrentDistanceReadings() DistanceReadings
	CurrentMotorSpeeds() MotorReadings

	Shutdown()
}

type DistanceReadings struct {
	CaptureTime time.Time

	// In config order.
	Readings []Reading
}

type Reading struct {
	Name       string
	DistanceCM float64
	Error      error
}

// InRange is true if the sensor produced a usable distance. The median
// estimator does not clamp, so negative, non-finite and sentinel-sized
// values count as out of range even without an error.
func (r Reading) InRange() bool {
	if r.Error != nil {
		return false
	}
	d := r.DistanceCM
	return !math.IsNaN(d) && !math.IsInf(d, 0) && d >= 0 && d < sharpir.OutOfRange
}

type MotorReadings struct {
	CaptureTime time.Time

	Motors []MotorReading
}

type MotorReading struct {
	Name  string
	Count int64
	RPM   float64
	Error error
}
