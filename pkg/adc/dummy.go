package adc

import (
	"sync"

	"github.com/pkg/errors"
)

// Dummy is a scripted Reader. Each channel returns its queued values in
// order and then keeps repeating the last one.
type Dummy struct {
	lock       sync.Mutex
	resolution Resolution
	queued     map[int][]int
	last       map[int]int
	Reads      int
}

func NewDummy(res Resolution) *Dummy {
	return &Dummy{
		resolution: res,
		queued:     map[int][]int{},
		last:       map[int]int{},
	}
}

// Queue appends raw codes to a channel's script.
func (d *Dummy) Queue(channel int, values ...int) *Dummy {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.queued[channel] = append(d.queued[channel], values...)
	return d
}

func (d *Dummy) Read(channel int) (int, error) {
	if channel < 0 || channel >= NumChannels {
		return 0, errors.Wrapf(ErrInvalidChannel, "dummy channel %d", channel)
	}
	d.lock.Lock()
	defer d.lock.Unlock()
	d.Reads++
	if q := d.queued[channel]; len(q) > 0 {
		d.last[channel] = q[0]
		d.queued[channel] = q[1:]
	}
	return d.last[channel], nil
}

func (d *Dummy) Resolution() Resolution {
	return d.resolution
}

var _ Reader = (*Dummy)(nil)
var _ Reader = (*MCP3x08)(nil)
