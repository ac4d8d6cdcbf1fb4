package encoder

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"periph.io/x/periph/conn/gpio"
)

// How long to wait for an edge before checking for cancellation.
const edgeTimeout = 100 * time.Millisecond

// EdgeSource is the part of gpio.PinIn used to wait for interrupts.
type EdgeSource interface {
	In(pull gpio.Pull, edge gpio.Edge) error
	WaitForEdge(timeout time.Duration) bool
}

var ErrUnknownEdge = errors.New("unknown edge")

// ParseEdge maps a config name onto a gpio.Edge.
func ParseEdge(name string) (gpio.Edge, error) {
	switch strings.ToLower(name) {
	case "rising", "":
		return gpio.RisingEdge, nil
	case "falling":
		return gpio.FallingEdge, nil
	case "both":
		return gpio.BothEdges, nil
	}
	return gpio.NoEdge, errors.Wrapf(ErrUnknownEdge, "%q", name)
}

// Watch enables edge detection on pin and calls OnEdge for every edge until
// ctx is done. done.Done is called on exit.
func (c *Channel) Watch(ctx context.Context, done *sync.WaitGroup, pin EdgeSource, edge gpio.Edge) {
	defer done.Done()

	if err := pin.In(gpio.PullUp, edge); err != nil {
		fmt.Println("Failed to enable edge detection for", c.Name, err)
		return
	}
	fmt.Println("Encoder", c.Name, "watching for", edge)
	for ctx.Err() == nil {
		if pin.WaitForEdge(edgeTimeout) {
			c.OnEdge()
		}
	}
	fmt.Println("Encoder", c.Name, "stopped")
}
