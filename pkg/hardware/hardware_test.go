package hardware

import (
	"context"
	"io"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/tigerbot-team/tigerbot/go-sensors/pkg/adc"
	"github.com/tigerbot-team/tigerbot/go-sensors/pkg/config"
	"github.com/tigerbot-team/tigerbot/go-sensors/pkg/encoder"
	"github.com/tigerbot-team/tigerbot/go-sensors/pkg/mux"
	"github.com/tigerbot-team/tigerbot/go-sensors/pkg/sharpir"

	"periph.io/x/periph/conn/gpio"
)

var errNoEcho = errors.New("no echo")

type scriptedSensor struct {
	distances []float64
	errs      []error
	calls     int
}

func (s *scriptedSensor) Distance() (float64, error) {
	i := s.calls
	if i >= len(s.distances) {
		i = len(s.distances) - 1
	}
	s.calls++
	return s.distances[i], s.errs[i]
}

type recordingAlarm struct {
	lock   sync.Mutex
	played []string
	closed bool
}

func (a *recordingAlarm) Play(path string) bool {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.played = append(a.played, path)
	return true
}

func (a *recordingAlarm) Close() {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.closed = true
}

type fixedRail struct {
	volts  float64
	reads  int
	closed bool
}

func (r *fixedRail) Close() error {
	r.closed = true
	return nil
}

func (r *fixedRail) Configure(shuntOhms float64, maxCurrent float64) error { return nil }
func (r *fixedRail) ReadCurrent() (float64, error) { return 0, nil }
func (r *fixedRail) ReadBusVoltage() (float64, error) {
	r.reads++
	return r.volts, nil
}

func TestBuildSensors(t *testing.T) {
	a := adc.NewDummy(adc.Bits10).Queue(0, 409).Queue(1, 409)
	sensors, err := BuildSensors(a, []config.SensorConfig{
		{Name: "left", Variant: config.VariantMedian, Model: 10801, Channel: 0, Samples: 5},
		{Name: "front", Variant: config.VariantFiltered, Model: int(sharpir.TopLeft), Channel: 1, Samples: 4, Tolerance: 90},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(sensors) != 2 || sensors[0].Name != "left" || sensors[1].Name != "front" {
		t.Fatalf("Unexpected sensors %+v", sensors)
	}
	if _, ok := sensors[0].Sensor.(*sharpir.MedianSensor); !ok {
		t.Errorf("left is a %T", sensors[0].Sensor)
	}
	if _, ok := sensors[1].Sensor.(*sharpir.FilteredSensor); !ok {
		t.Errorf("front is a %T", sensors[1].Sensor)
	}
	for _, s := range sensors {
		if _, err := s.Sensor.Distance(); err != nil {
			t.Errorf("%s: %v", s.Name, err)
		}
	}
}

func TestBuildSensorErrors(t *testing.T) {
	a := adc.NewDummy(adc.Bits12)
	_, err := BuildSensors(a, []config.SensorConfig{
		{Name: "bad", Variant: config.VariantMedian, Model: 42, Samples: 5},
	})
	if errors.Cause(err) != sharpir.ErrUnknownModel {
		t.Errorf("Expected ErrUnknownModel, got %v", err)
	}
	_, err = BuildSensor(a, config.SensorConfig{Variant: config.VariantFiltered, Model: 0, Samples: 5})
	if errors.Cause(err) != sharpir.ErrResolution {
		t.Errorf("Expected ErrResolution, got %v", err)
	}
	_, err = BuildSensor(a, config.SensorConfig{Variant: "mode"})
	if errors.Cause(err) != config.ErrInvalid {
		t.Errorf("Expected ErrInvalid, got %v", err)
	}
}

func TestPollPublishesReadings(t *testing.T) {
	m1 := encoder.NewChannel("left", nil, encoder.Reversed, 100)
	m2 := encoder.NewChannel("right", nil, encoder.Forward, 100)
	h := NewFromParts(Parts{
		Sensors: []NamedSensor{
			{Name: "near", Sensor: &scriptedSensor{distances: []float64{12.5}, errs: []error{nil}}},
			{Name: "far", Sensor: &scriptedSensor{distances: []float64{sharpir.OutOfRange}, errs: []error{sharpir.ErrNoSamplesAccepted}}},
		},
		Motors: []Motor{{Channel: m1}, {Channel: m2}},
	})
	h.start = time.Unix(1000, 0)

	for i := 0; i < 50; i++ {
		m1.Step(gpio.High)
		m2.Step(gpio.High)
	}
	now := h.start.Add(30 * time.Second)
	h.poll(now)

	d := h.CurrentDistanceReadings()
	if !d.CaptureTime.Equal(now) || len(d.Readings) != 2 {
		t.Fatalf("Unexpected readings %+v", d)
	}
	if r := d.Readings[0]; r.Name != "near" || r.DistanceCM != 12.5 || !r.InRange() {
		t.Errorf("Unexpected near reading %+v", r)
	}
	if r := d.Readings[1]; r.InRange() || r.DistanceCM != sharpir.OutOfRange {
		t.Errorf("Unexpected far reading %+v", r)
	}

	m := h.CurrentMotorSpeeds()
	if len(m.Motors) != 2 {
		t.Fatalf("Unexpected motors %+v", m)
	}
	// Half a revolution in half a minute.
	if r := m.Motors[0]; r.Name != "left" || r.RPM != -1 || r.Count != 50 || r.Error != nil {
		t.Errorf("Unexpected left motor %+v", r)
	}
	if r := m.Motors[1]; r.RPM != 1 || r.Error != nil {
		t.Errorf("Unexpected right motor %+v", r)
	}

	s := h.board.Status()
	if len(s.Distances) != 2 || !s.Distances[0].OK || s.Distances[1].OK || len(s.RPMs) != 2 {
		t.Errorf("Unexpected screen status %+v", s)
	}
}

func TestAlarmOnLosingRange(t *testing.T) {
	alarm := &recordingAlarm{}
	sensor := &scriptedSensor{
		distances: []float64{30, 31, sharpir.OutOfRange, sharpir.OutOfRange, 29, sharpir.OutOfRange},
		errs:      []error{nil, nil, errNoEcho, errNoEcho, nil, errNoEcho},
	}
	h := NewFromParts(Parts{
		Sensors:   []NamedSensor{{Name: "front", Sensor: sensor}},
		Alarm:     alarm,
		AlarmPath: "/sounds/alarm.wav",
	})
	start := time.Unix(0, 0)
	for i := 0; i < 6; i++ {
		h.poll(start.Add(time.Duration(i) * time.Second))
	}
	// In range, in range, lost, still lost, back, lost.
	if len(alarm.played) != 2 {
		t.Errorf("Alarm played %d times, expected 2", len(alarm.played))
	}
	for _, p := range alarm.played {
		if p != "/sounds/alarm.wav" {
			t.Errorf("Played %q", p)
		}
	}
}

func TestNoAlarmWhenNeverInRange(t *testing.T) {
	alarm := &recordingAlarm{}
	sensor := &scriptedSensor{distances: []float64{sharpir.OutOfRange}, errs: []error{errNoEcho}}
	h := NewFromParts(Parts{
		Sensors:   []NamedSensor{{Name: "front", Sensor: sensor}},
		Alarm:     alarm,
		AlarmPath: "/sounds/alarm.wav",
	})
	for i := 0; i < 3; i++ {
		h.poll(time.Unix(int64(i), 0))
	}
	if len(alarm.played) != 0 {
		t.Errorf("Alarm played %d times", len(alarm.played))
	}
}

func TestRailCheckedEveryTenSeconds(t *testing.T) {
	rail := &fixedRail{volts: 4.6}
	h := NewFromParts(Parts{
		Rail:    rail,
		Mux:     mux.Dummy(),
		MuxPort: 3,
	})
	start := time.Unix(100, 0)
	for i := 0; i <= 25; i++ {
		h.poll(start.Add(time.Duration(i) * time.Second))
	}
	// At 0s, 10s and 20s.
	if rail.reads != 3 {
		t.Errorf("Rail read %d times, expected 3", rail.reads)
	}
	if h.railOK || h.railVolts != 4.6 {
		t.Errorf("Rail should be flagged, got %v %v", h.railOK, h.railVolts)
	}
	if s := h.board.Status(); s.RailOK || s.RailVolts != 4.6 {
		t.Errorf("Screen not warned: %+v", s)
	}
}

func TestStartAndShutdown(t *testing.T) {
	a := adc.NewDummy(adc.Bits10).Queue(0, 409)
	sensors, err := BuildSensors(a, []config.SensorConfig{
		{Name: "left", Variant: config.VariantMedian, Model: 10801, Channel: 0, Samples: 3},
	})
	if err != nil {
		t.Fatal(err)
	}
	alarm := &recordingAlarm{}
	motor := encoder.NewChannel("m", nil, encoder.Forward, 100)
	// Edges from before Start are not counted.
	for i := 0; i < 10; i++ {
		motor.Step(gpio.High)
	}
	h := NewFromParts(Parts{
		Period:  5 * time.Millisecond,
		Sensors: sensors,
		Motors:  []Motor{{Channel: motor}},
		Alarm:   alarm,
	})
	h.Start(context.Background())

	// Start returns after the first poll.
	d := h.CurrentDistanceReadings()
	if len(d.Readings) != 1 || d.Readings[0].Error != nil {
		t.Errorf("Unexpected readings %+v", d)
	}
	m := h.CurrentMotorSpeeds()
	if len(m.Motors) != 1 || m.Motors[0].Count != 0 || m.Motors[0].Error != nil {
		t.Errorf("Unexpected motor readings %+v", m)
	}
	time.Sleep(50 * time.Millisecond)
	h.Shutdown()

	if !alarm.closed {
		t.Error("Shutdown did not close the alarm")
	}
	if a.Reads < 6 {
		t.Errorf("Only %d ADC reads, expected several polls", a.Reads)
	}
}

func TestDummy(t *testing.T) {
	var hw Interface = NewDummy()
	hw.Start(context.Background())
	if d := hw.CurrentDistanceReadings(); d.CaptureTime.IsZero() {
		t.Error("Dummy readings would block callers")
	}
	if m := hw.CurrentMotorSpeeds(); m.CaptureTime.IsZero() {
		t.Error("Dummy motor readings would block callers")
	}
	hw.Shutdown()
}

func TestReadingInRange(t *testing.T) {
	for _, c := range []struct {
		distance float64
		err      error
		expected bool
	}{
		{12.5, nil, true},
		{0, nil, true},
		{-520.98, nil, false},
		{math.Inf(1), nil, false},
		{math.Inf(-1), nil, false},
		{math.NaN(), nil, false},
		{sharpir.OutOfRange, nil, false},
		{12.5, errNoEcho, false},
	} {
		r := Reading{Name: "s", DistanceCM: c.distance, Error: c.err}
		if r.InRange() != c.expected {
			t.Errorf("%v/%v: InRange = %v, expected %v", c.distance, c.err, !c.expected, c.expected)
		}
	}
}

func TestAlarmWhenMedianReadsNonsense(t *testing.T) {
	// 0V puts this unit's curve at about -521cm, with no error.
	a := adc.NewDummy(adc.Bits10).Queue(0, 409, 0)
	s, err := sharpir.NewMedian(a, 0, sharpir.GP2Y0A21Unit2, 1)
	if err != nil {
		t.Fatal(err)
	}
	alarm := &recordingAlarm{}
	h := NewFromParts(Parts{
		Sensors:   []NamedSensor{{Name: "front", Sensor: s}},
		Alarm:     alarm,
		AlarmPath: "/sounds/alarm.wav",
	})

	h.poll(time.Unix(0, 0))
	if r := h.CurrentDistanceReadings().Readings[0]; !r.InRange() {
		t.Fatalf("First reading should be in range: %+v", r)
	}
	h.poll(time.Unix(1, 0))
	r := h.CurrentDistanceReadings().Readings[0]
	if r.InRange() || r.Error != nil || r.DistanceCM >= 0 {
		t.Errorf("Expected a negative out of range distance, got %+v", r)
	}
	if len(alarm.played) != 1 {
		t.Errorf("Alarm played %d times, expected 1", len(alarm.played))
	}
	if st := h.board.Status(); st.Distances[0].OK {
		t.Errorf("Screen shows the bad distance as good: %+v", st)
	}
}

func TestFirstPollIsRPMBaseline(t *testing.T) {
	m := encoder.NewChannel("left", nil, encoder.Forward, 100)
	h := NewFromParts(Parts{Motors: []Motor{{Channel: m}}})
	h.start = time.Unix(500, 0)

	h.poll(h.start)
	if r := h.CurrentMotorSpeeds().Motors[0]; r.Error != nil || r.RPM != 0 {
		t.Errorf("Poll at start gave %+v", r)
	}

	for i := 0; i < 100; i++ {
		m.Step(gpio.High)
	}
	h.poll(h.start.Add(time.Minute))
	if r := h.CurrentMotorSpeeds().Motors[0]; r.Error != nil || r.RPM != 1 || r.Count != 100 {
		t.Errorf("Poll after a minute gave %+v", r)
	}
}

func TestShutdownClosesParts(t *testing.T) {
	rail := &fixedRail{volts: 5}
	h := NewFromParts(Parts{
		Rail:    rail,
		Closers: []io.Closer{rail},
	})
	h.Shutdown()
	if !rail.closed {
		t.Error("Shutdown did not close the rail monitor")
	}
}
