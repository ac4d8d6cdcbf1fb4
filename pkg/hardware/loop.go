package hardware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tigerbot-team/tigerbot/go-sensors/pkg/ina219"
	"github.com/tigerbot-team/tigerbot/go-sensors/pkg/screen"
)

func (h *Hardware) loop(ctx context.Context, initDone *sync.WaitGroup) {
	defer h.done.Done()
	fmt.Println("HW: Sensor loop started")

	ticker := time.NewTicker(h.parts.Period)
	defer ticker.Stop()

	h.poll(time.Now())
	initDone.Done()

	for {
		select {
		case <-ctx.Done():
			fmt.Println("HW: Sensor loop stopped")
			return
		case now := <-ticker.C:
			h.poll(now)
		}
	}
}

// poll reads every sensor and motor once and publishes the results.
func (h *Hardware) poll(now time.Time) {
	distances := DistanceReadings{
		CaptureTime: now,
		Readings:    make([]Reading, len(h.parts.Sensors)),
	}
	for i, s := range h.parts.Sensors {
		d, err := s.Sensor.Distance()
		distances.Readings[i] = Reading{
			Name:       s.Name,
			DistanceCM: d,
			Error:      err,
		}
	}

	millis := uint64(now.Sub(h.start) / time.Millisecond)
	motors := MotorReadings{
		CaptureTime: now,
		Motors:      make([]MotorReading, len(h.parts.Motors)),
	}
	for i, m := range h.parts.Motors {
		motors.Motors[i] = MotorReading{
			Name:  m.Channel.Name,
			Count: m.Channel.Count(),
		}
		// Start is the RPM baseline; a poll at the same instant has no
		// interval to measure.
		if millis == 0 {
			continue
		}
		motors.Motors[i].RPM, motors.Motors[i].Error = m.Channel.RPM(millis)
	}

	h.lock.Lock()
	h.distanceReadings = distances
	h.motorReadings = motors
	h.lock.Unlock()

	h.checkRanges(distances)
	if now.Sub(h.lastRailCheck) >= railCheckInterval {
		h.checkRail()
		h.lastRailCheck = now
	}
	h.board.Update(h.status(distances, motors))
}

// checkRanges sounds the alarm when a sensor that was reading a distance
// stops doing so.
func (h *Hardware) checkRanges(distances DistanceReadings) {
	lost := false
	for _, r := range distances.Readings {
		was, seen := h.inRange[r.Name]
		if seen && was && !r.InRange() {
			fmt.Println("HW: Sensor", r.Name, "out of range:", r.Error)
			lost = true
		}
		h.inRange[r.Name] = r.InRange()
	}
	if lost && h.parts.Alarm != nil && h.parts.AlarmPath != "" {
		h.parts.Alarm.Play(h.parts.AlarmPath)
	}
}

func (h *Hardware) checkRail() {
	if h.parts.Rail == nil {
		return
	}
	if h.parts.Mux != nil && h.parts.MuxPort >= 0 {
		if err := h.parts.Mux.SelectSinglePort(h.parts.MuxPort); err != nil {
			fmt.Println("HW: Failed to select mux port", err)
			return
		}
	}
	v, err := h.parts.Rail.ReadBusVoltage()
	if err != nil {
		fmt.Println("HW: Failed to read sensor rail", err)
		return
	}
	h.railVolts = v
	h.railOK = ina219.RailOK(v)
	if !h.railOK {
		fmt.Printf("HW: WARNING sensor rail at %.2fV, distances will be off\n", v)
	} else {
		fmt.Printf("HW: Sensor rail %.2fV\n", v)
	}
}

func (h *Hardware) status(distances DistanceReadings, motors MotorReadings) screen.Status {
	s := screen.Status{
		RailVolts: h.railVolts,
		RailOK:    h.railOK,
	}
	for _, r := range distances.Readings {
		s.Distances = append(s.Distances, screen.Distance{
			Name:       r.Name,
			DistanceCM: r.DistanceCM,
			OK:         r.InRange(),
		})
	}
	for _, m := range motors.Motors {
		s.RPMs = append(s.RPMs, m.RPM)
	}
	return s
}
