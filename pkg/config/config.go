package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const DefaultPath = "/cfg/sensors.yaml"

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Period  time.Duration  `yaml:"period"`
	SPI     string         `yaml:"spi"`
	ADC     string         `yaml:"adc"`
	Sensors []SensorConfig `yaml:"sensors"`
	Encoder EncoderConfig  `yaml:"encoder"`
	Power   PowerConfig    `yaml:"power"`
	Screen  string         `yaml:"screen"`
	Alarm   string         `yaml:"alarm"`
}

type SensorConfig struct {
	Name              string `yaml:"name"`
	Variant           string `yaml:"variant"`
	Model             int    `yaml:"model"`
	Channel           int    `yaml:"channel"`
	Samples           int    `yaml:"samples"`
	Tolerance         int    `yaml:"tolerance"`
	TruncateTolerance bool   `yaml:"truncateTolerance"`
}

const (
	VariantMedian   = "median"
	VariantFiltered = "filtered"
)

type EncoderConfig struct {
	CountsPerRev float64         `yaml:"countsPerRev"`
	Edge         string          `yaml:"edge"`
	Channels     []ChannelConfig `yaml:"channels"`
}

type ChannelConfig struct {
	Name      string `yaml:"name"`
	Interrupt string `yaml:"interrupt"`
	Phase     string `yaml:"phase"`
	Reversed  bool   `yaml:"reversed"`
}

// PowerConfig describes the INA219 on the sensor supply rail. An empty Bus
// disables rail monitoring; MuxPort -1 means the chip is not behind the
// multiplexer.
type PowerConfig struct {
	Bus        string  `yaml:"bus"`
	Addr       int     `yaml:"addr"`
	MuxPort    int     `yaml:"muxPort"`
	ShuntOhms  float64 `yaml:"shuntOhms"`
	MaxCurrent float64 `yaml:"maxCurrent"`
}

// Default returns the robot's usual wiring: two median sensors on an
// MCP3008 and both drive motor encoders.
func Default() Config {
	return Config{
		Period: 100 * time.Millisecond,
		SPI:    "/dev/spidev0.0",
		ADC:    "mcp3008",
		Sensors: []SensorConfig{
			{Name: "left", Variant: VariantMedian, Model: 10801, Channel: 0, Samples: 25},
			{Name: "right", Variant: VariantMedian, Model: 10802, Channel: 1, Samples: 25},
		},
		Encoder: EncoderConfig{
			CountsPerRev: 562.215,
			Edge:         "rising",
			Channels: []ChannelConfig{
				{Name: "left", Interrupt: "GPIO17", Phase: "GPIO27", Reversed: true},
				{Name: "right", Interrupt: "GPIO22", Phase: "GPIO23"},
			},
		},
		Power: PowerConfig{
			Bus:        "/dev/i2c-1",
			Addr:       0x41,
			MuxPort:    -1,
			ShuntOhms:  0.1,
			MaxCurrent: 2,
		},
		Screen: "/dev/fb1",
	}
}

// Load reads the YAML file at path over the defaults. A missing file is not
// an error; the defaults are used as they are.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) {
		fmt.Println("No config at", path, "using defaults")
		return cfg, cfg.Validate()
	} else if err != nil {
		return cfg, errors.Wrap(err, "failed to read config")
	}
	if err := Parse(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Parse unmarshals data over whatever cfg already holds. Lists in data
// replace the existing ones, maps and structs are merged field by field.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return errors.Wrap(err, "failed to parse config")
	}
	return nil
}

// WriteInUse records the config actually being used next to the input.
func (c Config) WriteInUse(path string) error {
	data, err := yaml.Marshal(&c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	return errors.Wrap(ioutil.WriteFile(path, data, 0666), "failed to write config")
}

func (c Config) Validate() error {
	if c.Period <= 0 {
		return errors.Wrapf(ErrInvalid, "period %v", c.Period)
	}
	names := map[string]bool{}
	for i, s := range c.Sensors {
		if s.Name == "" {
			return errors.Wrapf(ErrInvalid, "sensor %d has no name", i)
		}
		if names[s.Name] {
			return errors.Wrapf(ErrInvalid, "duplicate sensor %q", s.Name)
		}
		names[s.Name] = true
		switch s.Variant {
		case VariantMedian:
			if s.Samples <= 0 {
				return errors.Wrapf(ErrInvalid, "sensor %q: samples %d", s.Name, s.Samples)
			}
		case VariantFiltered:
			if s.Samples < 0 || s.Tolerance < 0 {
				return errors.Wrapf(ErrInvalid, "sensor %q: samples %d tolerance %d", s.Name, s.Samples, s.Tolerance)
			}
		default:
			return errors.Wrapf(ErrInvalid, "sensor %q: unknown variant %q", s.Name, s.Variant)
		}
		if s.Channel < 0 || s.Channel > 7 {
			return errors.Wrapf(ErrInvalid, "sensor %q: channel %d", s.Name, s.Channel)
		}
	}
	if len(c.Encoder.Channels) > 0 && c.Encoder.CountsPerRev <= 0 {
		return errors.Wrapf(ErrInvalid, "countsPerRev %v", c.Encoder.CountsPerRev)
	}
	for i, ch := range c.Encoder.Channels {
		if ch.Interrupt == "" || ch.Phase == "" {
			return errors.Wrapf(ErrInvalid, "encoder channel %d needs interrupt and phase pins", i)
		}
	}
	if c.Power.Bus != "" && c.Power.ShuntOhms <= 0 {
		return errors.Wrapf(ErrInvalid, "shunt %v ohms", c.Power.ShuntOhms)
	}
	return nil
}
