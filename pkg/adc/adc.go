package adc

import (
	"fmt"

	"github.com/pkg/errors"
)

// Resolution is the width of a converter's output in bits.
type Resolution uint8

const (
	Bits10 Resolution = 10 // 0-1023
	Bits12 Resolution = 12 // 0-4095
)

// Max returns the largest code the converter can produce.
func (r Resolution) Max() int {
	return 1<<uint(r) - 1
}

func (r Resolution) String() string {
	return fmt.Sprintf("%d-bit", uint8(r))
}

var ErrInvalidChannel = errors.New("invalid ADC channel")

// Reader samples one analog input at the device's native resolution.
type Reader interface {
	Read(channel int) (int, error)
	Resolution() Resolution
}
