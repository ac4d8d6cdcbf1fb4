package sharpir

// Sensor is a calibrated distance sensor on one ADC channel.
type Sensor interface {
	Model() Model
	// Distance returns the estimated distance in centimetres.
	Distance() (float64, error)
}

var (
	_ Sensor = (*MedianSensor)(nil)
	_ Sensor = (*FilteredSensor)(nil)
)
