package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alecthomas/kong"
	"github.com/pkg/errors"

	"github.com/tigerbot-team/tigerbot/go-sensors/pkg/encoder"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/host"
)

var CLI struct {
	M1Interrupt  string  `name:"m1-interrupt" help:"Motor 1 interrupt pin." default:"GPIO17"`
	M1Phase      string  `name:"m1-phase" help:"Motor 1 phase pin." default:"GPIO27"`
	M2Interrupt  string  `name:"m2-interrupt" help:"Motor 2 interrupt pin." default:"GPIO22"`
	M2Phase      string  `name:"m2-phase" help:"Motor 2 phase pin." default:"GPIO23"`
	Edge         string  `help:"rising, falling or both." default:"rising"`
	CountsPerRev float64 `help:"Edges per revolution." default:"562.215"`
}

func openPins(interrupt, phase string) (gpio.PinIO, gpio.PinIO, error) {
	i := gpioreg.ByName(interrupt)
	p := gpioreg.ByName(phase)
	if i == nil || p == nil {
		return nil, nil, errors.Errorf("unknown pin %q or %q", interrupt, phase)
	}
	return i, p, p.In(gpio.PullUp, gpio.NoEdge)
}

func main() {
	kong.Parse(&CLI)

	if _, err := host.Init(); err != nil {
		fmt.Println("Failed to init periph", err)
		return
	}
	edge, err := encoder.ParseEdge(CLI.Edge)
	if err != nil {
		fmt.Println(err)
		return
	}
	i1, p1, err := openPins(CLI.M1Interrupt, CLI.M1Phase)
	if err != nil {
		fmt.Println("Failed to open motor 1 pins", err)
		return
	}
	i2, p2, err := openPins(CLI.M2Interrupt, CLI.M2Phase)
	if err != nil {
		fmt.Println("Failed to open motor 2 pins", err)
		return
	}

	enc := encoder.New(p1, p2, CLI.CountsPerRev)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup
	wg.Add(2)
	go enc.M1.Watch(ctx, &wg, i1, edge)
	go enc.M2.Watch(ctx, &wg, i2, edge)

	start := time.Now()
	for range time.NewTicker(time.Second).C {
		now := uint64(time.Since(start) / time.Millisecond)
		for _, ch := range enc.Channels() {
			count := ch.Count()
			rpm, err := ch.RPM(now)
			fmt.Printf("%s: count=%d rpm=%.1f %v  ", ch.Name, count, rpm, err)
		}
		fmt.Println()
	}
}
