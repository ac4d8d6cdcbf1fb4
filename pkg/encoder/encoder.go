package encoder

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"periph.io/x/periph/conn/gpio"
)

// DefaultCountsPerRev is the number of edges per output shaft revolution on
// the drive motors.
const DefaultCountsPerRev = 562.215

var ErrNonPositiveInterval = errors.New("RPM interval is not positive")

// Direction sets the sign of the deltas a channel reports. The two motors
// are mounted facing each other, so by default they count opposite ways.
type Direction int

const (
	Forward  Direction = 1  // current - snapshot
	Reversed Direction = -1 // snapshot - current
)

// Phase is the quadrature phase input sampled on each edge of the other
// phase.
type Phase interface {
	Read() gpio.Level
}

// Channel counts edges for one motor. The count is updated from the edge
// goroutine with atomics; the snapshot used to compute deltas, and the time
// of the last RPM query, are guarded by lock.
type Channel struct {
	Name string

	phase        Phase
	direction    Direction
	countsPerRev float64

	count int64

	lock       sync.Mutex
	snapshot   int64
	lastMillis uint64
}

func NewChannel(name string, phase Phase, direction Direction, countsPerRev float64) *Channel {
	return &Channel{
		Name:         name,
		phase:        phase,
		direction:    direction,
		countsPerRev: countsPerRev,
	}
}

// OnEdge is called for every edge on the interrupt phase. It never blocks.
func (c *Channel) OnEdge() {
	c.Step(c.phase.Read())
}

// Step counts one edge given the level of the phase input.
func (c *Channel) Step(phase gpio.Level) {
	if phase == gpio.High {
		atomic.AddInt64(&c.count, 1)
	} else {
		atomic.AddInt64(&c.count, -1)
	}
}

// Count returns the raw signed edge count.
func (c *Channel) Count() int64 {
	return atomic.LoadInt64(&c.count)
}

// Revolutions returns the revolutions turned since the previous call (or
// since the last RPM query, which shares the snapshot).
func (c *Channel) Revolutions() float64 {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.revolutions()
}

func (c *Channel) revolutions() float64 {
	current := atomic.LoadInt64(&c.count)
	delta := (current - c.snapshot) * int64(c.direction)
	c.snapshot = current
	return float64(delta) / c.countsPerRev
}

// RPM returns the speed since the previous query. nowMillis must come from
// a monotonic millisecond clock and be later than the previous value; if it
// is not, nothing is consumed and ErrNonPositiveInterval is returned.
func (c *Channel) RPM(nowMillis uint64) (float64, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if nowMillis <= c.lastMillis {
		return 0, errors.Wrapf(ErrNonPositiveInterval, "%s: %dms after %dms", c.Name, nowMillis, c.lastMillis)
	}
	revs := c.revolutions()
	minutes := float64(nowMillis-c.lastMillis) / 60000.0
	c.lastMillis = nowMillis
	return revs / minutes, nil
}

// Reset zeroes the count, the snapshot and the RPM timestamp.
func (c *Channel) Reset() {
	c.lock.Lock()
	defer c.lock.Unlock()
	atomic.StoreInt64(&c.count, 0)
	c.snapshot = 0
	c.lastMillis = 0
}

// Encoder is the pair of drive motor encoders.
type Encoder struct {
	M1 *Channel
	M2 *Channel
}

// New returns an encoder pair with motor 1 reversed and motor 2 forward.
func New(phase1, phase2 Phase, countsPerRev float64) *Encoder {
	return &Encoder{
		M1: NewChannel("motor1", phase1, Reversed, countsPerRev),
		M2: NewChannel("motor2", phase2, Forward, countsPerRev),
	}
}

func (e *Encoder) Channels() []*Channel {
	return []*Channel{e.M1, e.M2}
}
