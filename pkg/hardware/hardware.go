package hardware

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tigerbot-team/tigerbot/go-sensors/pkg/encoder"
	"github.com/tigerbot-team/tigerbot/go-sensors/pkg/ina219"
	"github.com/tigerbot-team/tigerbot/go-sensors/pkg/mux"
	"github.com/tigerbot-team/tigerbot/go-sensors/pkg/screen"

	"periph.io/x/periph/conn/gpio"
)

const railCheckInterval = 10 * time.Second

type DistanceSensor interface {
	Distance() (float64, error)
}

type NamedSensor struct {
	Name   string
	Sensor DistanceSensor
}

// Motor is an encoder channel and the pin whose edges drive it. Pin may be
// nil if something else calls OnEdge.
type Motor struct {
	Channel *encoder.Channel
	Pin     encoder.EdgeSource
}

type Alarm interface {
	Play(path string) bool
	Close()
}

// Parts is everything the hardware loop drives. Optional parts are nil.
type Parts struct {
	Period  time.Duration
	Sensors []NamedSensor
	Motors  []Motor
	Edge    gpio.Edge

	Rail    ina219.Interface
	Mux     mux.Interface
	MuxPort int

	ScreenPath string

	Alarm     Alarm
	AlarmPath string

	// Closed on shutdown.
	Closers []io.Closer
}

type Hardware struct {
	parts Parts
	board screen.Board

	cancel context.CancelFunc
	done   sync.WaitGroup

	start         time.Time
	inRange       map[string]bool
	lastRailCheck time.Time
	railVolts     float64
	railOK        bool

	lock             sync.Mutex
	distanceReadings DistanceReadings
	motorReadings    MotorReadings
}

func NewFromParts(p Parts) *Hardware {
	return &Hardware{
		parts:   p,
		inRange: map[string]bool{},
		railOK:  true,
	}
}

var _ Interface = (*Hardware)(nil)

func (h *Hardware) Start(ctx context.Context) {
	ctx, h.cancel = context.WithCancel(ctx)
	h.start = time.Now()

	for _, m := range h.parts.Motors {
		// Counts and RPM are measured from start.
		m.Channel.Reset()
		if m.Pin == nil {
			continue
		}
		h.done.Add(1)
		go m.Channel.Watch(ctx, &h.done, m.Pin, h.parts.Edge)
	}
	if h.parts.ScreenPath != "" {
		h.done.Add(1)
		go func() {
			defer h.done.Done()
			h.board.Loop(ctx, h.parts.ScreenPath)
		}()
	}

	var initDone sync.WaitGroup
	initDone.Add(1)
	h.done.Add(1)
	go h.loop(ctx, &initDone)
	initDone.Wait()
}

func (h *Hardware) CurrentDistanceReadings() DistanceReadings {
	h.lock.Lock()
	defer h.lock.Unlock()

	// Avoid returning anything until the first reading has completed.
	for h.distanceReadings.CaptureTime.IsZero() {
		h.lock.Unlock()
		time.Sleep(10 * time.Millisecond)
		h.lock.Lock()
	}

	return h.distanceReadings
}

func (h *Hardware) CurrentMotorSpeeds() MotorReadings {
	h.lock.Lock()
	defer h.lock.Unlock()

	for h.motorReadings.CaptureTime.IsZero() {
		h.lock.Unlock()
		time.Sleep(10 * time.Millisecond)
		h.lock.Lock()
	}

	return h.motorReadings
}

func (h *Hardware) Shutdown() {
	fmt.Println("HW: Shutting down")
	if h.cancel != nil {
		h.cancel()
		h.done.Wait()
	}
	if h.parts.Alarm != nil {
		h.parts.Alarm.Close()
	}
	for _, c := range h.parts.Closers {
		if err := c.Close(); err != nil {
			fmt.Println("HW: Close failed", err)
		}
	}
	fmt.Println("HW: Shut down")
}
