package hardware

import (
	"context"
	"fmt"
	"time"
)

type Dummy struct{}

func NewDummy() *Dummy {
	return &Dummy{}
}

func (d *Dummy) Start(ctx context.Context) {
	fmt.Println("DHW: Start")
}

func (d *Dummy) CurrentDistanceReadings() DistanceReadings {
	fmt.Println("DHW: CurrentDistanceReadings")
	return DistanceReadings{CaptureTime: time.Now()}
}

func (d *Dummy) CurrentMotorSpeeds() MotorReadings {
	fmt.Println("DHW: CurrentMotorSpeeds")
	return MotorReadings{CaptureTime: time.Now()}
}

func (d *Dummy) Shutdown() {
	fmt.Println("DHW: Shutdown")
}

var _ Interface = (*Dummy)(nil)
