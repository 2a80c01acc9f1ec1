// Package clock implements the single master-clock counter shared by every
// component of the console: Bus, PPU and APU all advance it, and derive
// their own local timing from the same monotonically increasing value.
// https://wiki.superfamicom.org/timing
package clock

// Dot and frame geometry for NTSC timing (PAL is out of scope).
const (
	DotsPerLine   = 340
	LinesPerFrame = 262
	MasterPerDot  = 4
)

// Clock is a 64-bit monotonic counter in master clocks and nothing more: it
// holds no (frame, x, y) dot coordinates; the PPU derives those from the
// counter in its own Tick. It is mutated only by Elapse; the PPU and APU
// keep their own watermark and catch up lazily.
type Clock struct {
	counter uint64
}

// New returns a Clock starting at zero.
func New() *Clock {
	return &Clock{}
}

// Elapse advances the master-clock counter by n. n is never negative; the
// counter is monotonically non-decreasing for the life of the console.
func (c *Clock) Elapse(n uint64) {
	c.counter += n
}

// Now returns the current master-clock value.
func (c *Clock) Now() uint64 {
	return c.counter
}
