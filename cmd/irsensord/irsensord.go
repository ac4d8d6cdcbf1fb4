package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/tigerbot-team/tigerbot/go-sensors/pkg/config"
	"github.com/tigerbot-team/tigerbot/go-sensors/pkg/hardware"
)

var CLI struct {
	Config   string        `help:"Sensor config file." default:"/cfg/sensors.yaml" type:"path"`
	InUse    string        `help:"Where to record the config in use." default:"/cfg/sensors-in-use.yaml"`
	Interval time.Duration `help:"How often to print readings." default:"1s"`
	Dummy    bool          `help:"Run without hardware."`
}

func main() {
	kong.Parse(&CLI, kong.Description("Polls the IR distance sensors and motor encoders."))

	fmt.Println("---- irsensord ----")
	fmt.Println("GOMAXPROCS", runtime.GOMAXPROCS(0))

	// Our global context, we cancel it to trigger shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	registerSignalHandlers(cancel)

	var hw hardware.Interface
	if CLI.Dummy {
		hw = hardware.NewDummy()
	} else {
		cfg, err := config.Load(CLI.Config)
		if err != nil {
			log.Fatal("Failed to load config: ", err)
		}
		fmt.Printf("Using config: %#v\n", cfg)
		if err := cfg.WriteInUse(CLI.InUse); err != nil {
			fmt.Println(err)
		}
		h, err := hardware.New(cfg)
		if err != nil {
			log.Fatal("Failed to open hardware: ", err)
		}
		hw = h
	}
	defer hw.Shutdown()
	hw.Start(ctx)

	ticker := time.NewTicker(CLI.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		printReadings(hw.CurrentDistanceReadings(), hw.CurrentMotorSpeeds())
	}
}

func printReadings(d hardware.DistanceReadings, m hardware.MotorReadings) {
	fmt.Printf("%s:", d.CaptureTime.Format("15:04:05.000"))
	for _, r := range d.Readings {
		switch {
		case r.InRange():
			fmt.Printf(" %s=%.1fcm", r.Name, r.DistanceCM)
		case r.Error != nil:
			fmt.Printf(" %s=(%v)", r.Name, r.Error)
		default:
			fmt.Printf(" %s=(out of range %.1fcm)", r.Name, r.DistanceCM)
		}
	}
	for _, r := range m.Motors {
		if r.Error != nil {
			fmt.Printf(" %s=(%v)", r.Name, r.Error)
			continue
		}
		fmt.Printf(" %s=%.1frpm", r.Name, r.RPM)
	}
	fmt.Println()
}

func registerSignalHandlers(cancelFunc context.CancelFunc) {
	// Hook Ctrl-C to cause shut down.
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		s := <-signals
		log.Println("Signal: ", s)
		cancelFunc()
		time.Sleep(2 * time.Second)
		os.Exit(0)
	}()
}
