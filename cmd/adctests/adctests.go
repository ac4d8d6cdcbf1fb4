package main

import (
	"fmt"
	"log"
	"time"

	"github.com/alecthomas/kong"

	"github.com/tigerbot-team/tigerbot/go-sensors/pkg/adc"

	"periph.io/x/periph/conn/spi/spireg"
	"periph.io/x/periph/host"
)

var CLI struct {
	SPI string `name:"spi" help:"SPI device." default:"/dev/spidev0.0"`
	ADC string `name:"adc" help:"ADC chip, mcp3008 or mcp3208." default:"mcp3008"`
}

func main() {
	kong.Parse(&CLI)

	// Make sure periph is initialized.
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}
	for _, r := range spireg.All() {
		log.Printf("Port ref: %v", r)
	}

	chip, err := adc.ParseChip(CLI.ADC)
	if err != nil {
		log.Fatal(err)
	}
	a, err := adc.NewSPI(CLI.SPI, chip)
	if err != nil {
		log.Fatal(err)
	}
	defer a.Close()

	full := a.Resolution().Max()
	for range time.NewTicker(250 * time.Millisecond).C {
		for ch := 0; ch < adc.NumChannels; ch++ {
			raw, err := a.Read(ch)
			if err != nil {
				fmt.Printf("%d: %v ", ch, err)
				continue
			}
			fmt.Printf("%d: %4d (%.2fV) ", ch, raw, 5*float64(raw)/float64(full))
		}
		fmt.Println()
	}
}
