// Package console is the composition root: it wires the CPU, Bus, PPU,
// APU and Cartridge together and drives them one instruction at a time.
// https://wiki.superfamicom.org/timing
package console

import (
	"context"
	"fmt"

	"github.com/bdwalton/gosnes/apu"
	"github.com/bdwalton/gosnes/bus"
	"github.com/bdwalton/gosnes/cartridge"
	"github.com/bdwalton/gosnes/clock"
	"github.com/bdwalton/gosnes/controller"
	"github.com/bdwalton/gosnes/cpu"
	"github.com/bdwalton/gosnes/dsp"
	"github.com/bdwalton/gosnes/interrupt"
	"github.com/bdwalton/gosnes/ppu"
)

// Console owns every capability and drives a frame at a time. It is the
// only type cmd/gosnes talks to.
type Console struct {
	cpu  *cpu.CPU
	bus  *bus.Bus
	ppu  *ppu.PPU
	apu  *apu.APU
	cart *cartridge.Cartridge
	irq  *interrupt.State
	clk  *clock.Clock
}

// New loads rom and wires a fresh Console in its power-on state. logf, if
// non-nil, receives recoverable-anomaly messages (GDMA 0-count transfers,
// SPC700 STOP/SLEEP) from the Bus and APU; pass nil to disable logging.
func New(rom []byte, logf func(format string, args ...any)) (*Console, error) {
	cart, err := cartridge.New(rom)
	if err != nil {
		return nil, fmt.Errorf("console: loading cartridge: %w", err)
	}

	clk := clock.New()
	p := ppu.New()
	a := apu.New()
	irq := interrupt.New()
	b := bus.New(clk, p, a, cart, irq)
	b.SetLogf(logf)
	a.SetLogf(logf)
	c := cpu.New(b)
	c.Reset()

	return &Console{cpu: c, bus: b, ppu: p, apu: a, cart: cart, irq: irq, clk: clk}, nil
}

// Reset re-initializes the CPU to its power-on vector, matching a press of
// the console's own reset button: the PPU, APU and cartridge all keep
// their current state.
func (con *Console) Reset() {
	con.cpu.Reset()
}

// Pad returns the controller port (0 or 1) the host sets button state on.
func (con *Console) Pad(port int) *controller.Pad {
	return con.bus.Pad(port)
}

// ExecFrame runs the console until the PPU has completed exactly one more
// frame, interleaving a CPU instruction, a PPU tick up to the new clock
// value, an APU advance over the same span, and a Bus service pass for any
// HDMA/auto-joypad/refresh-stall events the PPU raised.
func (con *Console) ExecFrame() {
	target := con.ppu.FrameNumber + 1
	for con.ppu.FrameNumber < target {
		before := con.clk.Now()
		con.cpu.Step()
		after := con.clk.Now()

		con.ppu.Tick(after, con.irq)
		con.apu.Advance(after - before)
		con.bus.Service()
	}
}

// Run drives ExecFrame until ctx is cancelled, matching the way
// cmd/gosnes' host loop would call it once per display refresh but
// letting it run standalone (e.g. for a headless benchmark).
func (con *Console) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			con.ExecFrame()
		}
	}
}

// Frame returns the most recently completed frame's pixel buffer, BGR555
// packed, 256x224.
func (con *Console) Frame() *[ppu.FrameWidth * ppu.FrameHeight]uint16 {
	return &con.ppu.Frame
}

// Samples drains the APU's accumulated output since the last call.
func (con *Console) Samples() []dsp.Sample {
	return con.apu.Samples()
}

// SRAM returns the cartridge's battery-backed save RAM, or an empty slice
// if the cartridge has none.
func (con *Console) SRAM() []byte {
	return con.cart.SRAM()
}

// LoadSRAM restores previously saved battery-backed RAM.
func (con *Console) LoadSRAM(data []byte) error {
	return con.cart.LoadSRAM(data)
}
