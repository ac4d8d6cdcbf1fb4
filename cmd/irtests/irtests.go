package main

import (
	"fmt"
	"time"

	"github.com/alecthomas/kong"

	"github.com/tigerbot-team/tigerbot/go-sensors/pkg/adc"
	"github.com/tigerbot-team/tigerbot/go-sensors/pkg/config"
	"github.com/tigerbot-team/tigerbot/go-sensors/pkg/hardware"
	"github.com/tigerbot-team/tigerbot/go-sensors/pkg/sharpir"
)

var CLI struct {
	SPI       string `name:"spi" help:"SPI device." default:"/dev/spidev0.0"`
	ADC       string `name:"adc" help:"ADC chip, mcp3008 or mcp3208." default:"mcp3008"`
	Channel   int    `help:"ADC channel." default:"0"`
	Variant   string `help:"median or filtered." default:"median" enum:"median,filtered"`
	Model     int    `help:"Calibration model code." default:"10801"`
	Samples   int    `help:"Samples per measurement." default:"25"`
	Tolerance int    `help:"Filtered tolerance in percent." default:"93"`
	Truncate  bool   `help:"Truncate the tolerance to whole multiples of 100%."`
	Raw       bool   `help:"Also print a raw ADC reading."`
}

func main() {
	kong.Parse(&CLI)

	chip, err := adc.ParseChip(CLI.ADC)
	if err != nil {
		fmt.Println(err)
		return
	}
	a, err := adc.NewSPI(CLI.SPI, chip)
	if err != nil {
		fmt.Println("Failed to open ADC", err)
		return
	}
	defer a.Close()

	s, err := hardware.BuildSensor(a, config.SensorConfig{
		Variant:           CLI.Variant,
		Model:             CLI.Model,
		Channel:           CLI.Channel,
		Samples:           CLI.Samples,
		Tolerance:         CLI.Tolerance,
		TruncateTolerance: CLI.Truncate,
	})
	if err != nil {
		fmt.Println("Failed to create sensor", err)
		return
	}
	fmt.Printf("%v on %v channel %d\n", s.Model(), chip, CLI.Channel)

	for range time.NewTicker(200 * time.Millisecond).C {
		if CLI.Raw {
			raw, err := a.Read(CLI.Channel)
			fmt.Printf("raw=%d %v ", raw, err)
		}
		if f, ok := s.(*sharpir.FilteredSensor); ok {
			m, err := f.Measure()
			fmt.Printf("%.1fcm (%d/%d accepted) %v\n", m.Distance, m.Accepted, m.Samples, err)
			continue
		}
		d, err := s.Distance()
		fmt.Printf("%.1fcm %v\n", d, err)
	}
}
