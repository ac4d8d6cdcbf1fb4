package hardware

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/tigerbot-team/tigerbot/go-sensors/pkg/adc"
	"github.com/tigerbot-team/tigerbot/go-sensors/pkg/config"
	"github.com/tigerbot-team/tigerbot/go-sensors/pkg/encoder"
	"github.com/tigerbot-team/tigerbot/go-sensors/pkg/ina219"
	"github.com/tigerbot-team/tigerbot/go-sensors/pkg/mux"
	"github.com/tigerbot-team/tigerbot/go-sensors/pkg/sharpir"
	"github.com/tigerbot-team/tigerbot/go-sensors/pkg/sound"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/host"
)

var ErrUnknownPin = errors.New("unknown GPIO pin")

// BuildSensor creates the estimator described by sc on r.
func BuildSensor(r adc.Reader, sc config.SensorConfig) (sharpir.Sensor, error) {
	switch sc.Variant {
	case config.VariantMedian:
		return sharpir.NewMedian(r, sc.Channel, sharpir.Model(sc.Model), sc.Samples)
	case config.VariantFiltered:
		var opts []sharpir.Option
		if sc.TruncateTolerance {
			opts = append(opts, sharpir.TruncateTolerance())
		}
		return sharpir.NewFiltered(r, sc.Channel, sc.Samples, sc.Tolerance, sharpir.Model(sc.Model), opts...)
	}
	return nil, errors.Wrapf(config.ErrInvalid, "unknown variant %q", sc.Variant)
}

// BuildSensors creates every configured sensor on r.
func BuildSensors(r adc.Reader, cfg []config.SensorConfig) ([]NamedSensor, error) {
	var sensors []NamedSensor
	for _, sc := range cfg {
		s, err := BuildSensor(r, sc)
		if err != nil {
			return nil, errors.Wrapf(err, "sensor %q", sc.Name)
		}
		fmt.Printf("HW: Sensor %s is a %v (%s) on channel %d\n", sc.Name, s.Model(), sc.Variant, sc.Channel)
		sensors = append(sensors, NamedSensor{Name: sc.Name, Sensor: s})
	}
	return sensors, nil
}

func direction(ch config.ChannelConfig) encoder.Direction {
	if ch.Reversed {
		return encoder.Reversed
	}
	return encoder.Forward
}

func pinByName(name string) (gpio.PinIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, errors.Wrapf(ErrUnknownPin, "%q", name)
	}
	return p, nil
}

// New opens all of the hardware described by cfg.
func New(cfg config.Config) (*Hardware, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "failed to initialise periph")
	}

	parts := Parts{
		Period:     cfg.Period,
		MuxPort:    cfg.Power.MuxPort,
		ScreenPath: cfg.Screen,
		AlarmPath:  cfg.Alarm,
	}
	ok := false
	defer func() {
		if ok {
			return
		}
		for _, c := range parts.Closers {
			_ = c.Close()
		}
	}()

	if len(cfg.Sensors) > 0 {
		chip, err := adc.ParseChip(cfg.ADC)
		if err != nil {
			return nil, err
		}
		a, err := adc.NewSPI(cfg.SPI, chip)
		if err != nil {
			return nil, err
		}
		parts.Closers = append(parts.Closers, a)
		parts.Sensors, err = BuildSensors(a, cfg.Sensors)
		if err != nil {
			return nil, err
		}
	}

	edge, err := encoder.ParseEdge(cfg.Encoder.Edge)
	if err != nil {
		return nil, err
	}
	parts.Edge = edge
	for _, ch := range cfg.Encoder.Channels {
		interrupt, err := pinByName(ch.Interrupt)
		if err != nil {
			return nil, errors.Wrapf(err, "encoder %q", ch.Name)
		}
		phase, err := pinByName(ch.Phase)
		if err != nil {
			return nil, errors.Wrapf(err, "encoder %q", ch.Name)
		}
		if err := phase.In(gpio.PullUp, gpio.NoEdge); err != nil {
			return nil, errors.Wrapf(err, "encoder %q phase pin", ch.Name)
		}
		parts.Motors = append(parts.Motors, Motor{
			Channel: encoder.NewChannel(ch.Name, phase, direction(ch), cfg.Encoder.CountsPerRev),
			Pin:     interrupt,
		})
	}

	if cfg.Power.Bus != "" {
		parts.Rail, parts.Mux = openRail(cfg.Power)
		if parts.Rail != nil {
			parts.Closers = append(parts.Closers, parts.Rail)
		}
		if parts.Mux != nil {
			parts.Closers = append(parts.Closers, parts.Mux)
		}
	}

	if cfg.Alarm != "" {
		parts.Alarm = sound.NewPlayer()
	}

	ok = true
	return NewFromParts(parts), nil
}

// openRail opens the power monitor. Failures are not fatal, the rail just
// goes unmonitored.
func openRail(cfg config.PowerConfig) (ina219.Interface, mux.Interface) {
	var mx mux.Interface
	if cfg.MuxPort >= 0 {
		var err error
		mx, err = mux.New(cfg.Bus)
		if err != nil {
			fmt.Println("Failed to open mux; ignoring! ", err)
			return nil, nil
		}
		if err := mx.SelectSinglePort(cfg.MuxPort); err != nil {
			fmt.Println("Failed to select mux port; ignoring! ", err)
			_ = mx.Close()
			return nil, nil
		}
	}
	rail, err := ina219.NewI2C(cfg.Bus, cfg.Addr)
	if err == nil {
		err = rail.Configure(cfg.ShuntOhms, cfg.MaxCurrent)
		if err != nil {
			_ = rail.Close()
		}
	}
	if err != nil {
		fmt.Println("Failed to open power sensor; ignoring! ", err)
		if mx != nil {
			_ = mx.Close()
		}
		return nil, nil
	}
	return rail, mx
}
