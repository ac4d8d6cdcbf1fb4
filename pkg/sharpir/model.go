package sharpir

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// Model identifies a calibration. The median family is keyed by the
// sensor's range code with the unit number appended (1080 = GP2Y0A21YK,
// 20150 = GP2Y0A02YK); the filtered family is keyed by mounting position.
type Model int

const (
	GP2Y0A21Unit1 Model = 10801
	GP2Y0A21Unit2 Model = 10802
	GP2Y0A21Unit3 Model = 10803
	GP2Y0A21Unit4 Model = 10804
	GP2Y0A21Unit6 Model = 10806
	GP2Y0A02Unit5 Model = 201505
)

const (
	TopLeft           Model = iota // TL, GP2Y0A21YK
	BottomRightTop                 // BRT, GP2Y0A21YK
	TopMiddle                      // TM, GP2Y0A21YK
	BottomRightBottom              // BRB, GP2Y0A02YK
	TopRight                       // TR, GP2Y0A21YK
	BottomLeftTop                  // BLT, GP2Y0A21YK
)

var ErrUnknownModel = errors.New("unknown sensor model")

func (m Model) String() string {
	switch m {
	case TopLeft:
		return "TL"
	case BottomRightTop:
		return "BRT"
	case TopMiddle:
		return "TM"
	case BottomRightBottom:
		return "BRB"
	case TopRight:
		return "TR"
	case BottomLeftTop:
		return "BLT"
	case GP2Y0A21Unit1, GP2Y0A21Unit2, GP2Y0A21Unit3, GP2Y0A21Unit4, GP2Y0A21Unit6:
		return fmt.Sprintf("GP2Y0A21YK#%d", int(m)%10)
	case GP2Y0A02Unit5:
		return "GP2Y0A02YK#5"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// Curve converts a sensor voltage into centimetres.
type Curve func(volts float64) float64

// Products are converted explicitly so they are never fused into FMA
// instructions.

func rational(a, b float64) Curve {
	return func(v float64) float64 {
		return 1/(float64(a*v)+b) - 0.42
	}
}

func gp2y0a02Unit5(v float64) float64 {
	d := float64(-0.001502*math.Pow(v, 6)) +
		float64(0.017811*math.Pow(v, 5)) -
		float64(0.075565*math.Pow(v, 4)) +
		float64(0.151922*math.Pow(v, 3)) -
		float64(0.155959*math.Pow(v, 2)) +
		float64(0.093823*math.Pow(v, 1)) -
		0.007963
	return 1/d - 0.42
}

var medianCurves = map[Model]Curve{
	GP2Y0A21Unit1: rational(0.035584, 0.000645),
	GP2Y0A21Unit2: rational(0.037573, -0.001921),
	GP2Y0A21Unit3: rational(0.039143, -0.002895),
	GP2Y0A21Unit4: rational(0.033861, 0.001142),
	GP2Y0A21Unit6: rational(0.034789, -0.002085),
	GP2Y0A02Unit5: gp2y0a02Unit5,
}

func power(k, exp, offset float64) Curve {
	return func(v float64) float64 {
		return float64(k*math.Pow(v, exp)) - offset
	}
}

var filteredCurves = map[Model]Curve{
	TopLeft:           power(27.728, -1.2045, 2.5),
	BottomRightTop:    power(27.728, -1.2045, 7.5),
	TopMiddle:         power(27.728, -1.2045, 9),
	BottomRightBottom: power(60.374, -1.16, 5),
	TopRight:          power(27.728, -1.2045, 0),
	BottomLeftTop:     power(27.728, -1.2045, 0),
}

// MedianCurve returns the calibration used by MedianSensor for a model.
func MedianCurve(m Model) (Curve, error) {
	c, ok := medianCurves[m]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownModel, "median sensor model %d", int(m))
	}
	return c, nil
}

// FilteredCurve returns the calibration used by FilteredSensor for a model.
func FilteredCurve(m Model) (Curve, error) {
	c, ok := filteredCurves[m]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownModel, "filtered sensor model %d", int(m))
	}
	return c, nil
}
