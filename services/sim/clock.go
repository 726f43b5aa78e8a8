package sim

import (
	"math"
	"sync"
	"time"

	"usrphost-go/types"
	"usrphost-go/x/timex"
)

// counter is the time register block of one motherboard. Device time is
// wall time since epoch plus offset; PPS edges fall on whole wall seconds.
type counter struct {
	mu    sync.Mutex
	clock timex.Clock
	epoch time.Time

	offset float64
	noPPS  bool
	stuck  types.TimeSpec

	armed     bool
	armValue  types.TimeSpec
	armEdge   float64
	ppsWrites int
}

func newCounter(clock timex.Clock, epoch time.Time, offset float64, noPPS bool) *counter {
	return &counter{
		clock:  clock,
		epoch:  epoch,
		offset: offset,
		noPPS:  noPPS,
		stuck:  types.TimeFromReal(offset),
	}
}

func (c *counter) wall() float64 { return c.clock.Now().Sub(c.epoch).Seconds() }

func lastEdge(wall float64) float64 { return math.Floor(wall) }

// latch applies an armed time once its edge has passed. Caller holds mu.
func (c *counter) latch(wall float64) {
	if c.armed && !c.noPPS && wall >= c.armEdge {
		c.offset = c.armValue.Real() - c.armEdge
		c.armed = false
	}
}

func (c *counter) now() types.TimeSpec {
	c.mu.Lock()
	defer c.mu.Unlock()
	w := c.wall()
	c.latch(w)
	return types.TimeFromReal(w + c.offset)
}

func (c *counter) setNow(t types.TimeSpec) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset = t.Real() - c.wall()
	c.armed = false
}

func (c *counter) lastPPS() types.TimeSpec {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.noPPS {
		return c.stuck
	}
	w := c.wall()
	c.latch(w)
	return types.TimeFromReal(lastEdge(w) + c.offset)
}

// setNextPPS arms t for the next edge.
func (c *counter) setNextPPS(t types.TimeSpec) {
	c.mu.Lock()
	defer c.mu.Unlock()
	w := c.wall()
	c.latch(w)
	c.armed = true
	c.armValue = t
	c.armEdge = lastEdge(w) + 1
	c.ppsWrites++
}

// drift moves the counter by d, after any pending latch.
func (c *counter) drift(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latch(c.wall())
	c.offset += d.Seconds()
}

func (c *counter) writes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ppsWrites
}
