package main

import (
	"fmt"
	"time"

	"github.com/alecthomas/kong"

	"github.com/tigerbot-team/tigerbot/go-sensors/pkg/ina219"
	"github.com/tigerbot-team/tigerbot/go-sensors/pkg/mux"
)

var CLI struct {
	Bus     string `help:"I2C bus." default:"/dev/i2c-1"`
	Addr    int    `help:"INA219 address." default:"65"`
	MuxPort int    `help:"Mux port, or -1 for none." default:"-1"`
}

func main() {
	kong.Parse(&CLI)

	if CLI.MuxPort >= 0 {
		mx, err := mux.New(CLI.Bus)
		if err != nil {
			fmt.Println("Failed to open mux", err)
			return
		}
		defer mx.Close()
		err = mx.SelectSinglePort(CLI.MuxPort)
		if err != nil {
			fmt.Println("Failed to select mux port", err)
			return
		}
	}

	rail, err := ina219.NewI2C(CLI.Bus, CLI.Addr)
	if err != nil {
		fmt.Println("Failed to open ina219", err)
		return
	}
	defer rail.Close()
	err = rail.Configure(0.1, 2.0)
	if err != nil {
		fmt.Println("Failed to configure ina219", err)
		return
	}

	for range time.NewTicker(500 * time.Millisecond).C {
		voltage, err := rail.ReadBusVoltage()
		fmt.Printf("%.2fV %v ", voltage, err)
		current, err := rail.ReadCurrent()
		fmt.Printf("%.3fA %v ", current, err)
		if !ina219.RailOK(voltage) {
			fmt.Print("OUT OF TOLERANCE")
		}
		fmt.Println()
	}
}
