// Package bus implements the 65C816 address decoder, the CPU/PPU MMIO
// registers, the GDMA/HDMA engines and the open-bus byte that every
// unmapped or write-only read falls back to.
// https://wiki.superfamicom.org/memory-mapping
package bus

import (
	"github.com/bdwalton/gosnes/apu"
	"github.com/bdwalton/gosnes/cartridge"
	"github.com/bdwalton/gosnes/clock"
	"github.com/bdwalton/gosnes/controller"
	"github.com/bdwalton/gosnes/interrupt"
	"github.com/bdwalton/gosnes/ppu"
)

// Per-region cycle costs in master clocks.
const (
	cycleFast   = 6
	cycleSlow   = 8
	cycleJoypad = 12
)

// Multiply/divide latch delay, in master clocks, between the strobe write
// ($4203/$4206) and the result registers updating.
const (
	mulLatency = 8
	divLatency = 16
)

// Bus owns every capability a component downstream of the CPU needs: the
// PPU, the APU's mailbox ports, the cartridge, the shared interrupt state
// and the master clock. It is the only thing the CPU ever talks to.
type Bus struct {
	clock *clock.Clock
	ppu   *ppu.PPU
	apu   *apu.APU
	cart  *cartridge.Cartridge
	irq   *interrupt.State
	pads  [2]*controller.Pad

	wram    [0x20000]byte // banks $7E-$7F, and mirrored at $00-$3F/$80-$BF $0000-$1FFF
	wramPtr uint32         // $2181-$2183 rolling pointer

	openBus uint8

	fastBankCycles uint64 // $420D: 6 or 8 master clocks for banks $80-$BF hi offsets

	autoJoypadEnable bool
	wrio             uint8

	// $4202-$4206 multiply/divide. The result registers only update
	// mulLatency/divLatency master clocks after the strobe write; until
	// then a read sees the previous result, matching real hardware.
	multiplicand uint8
	multiplier   uint8
	dividend     uint16
	divisor      uint8
	mulResult    uint16
	divQuotient  uint16
	divRemainder uint16

	mulPending, divPending   bool
	mulDeadline, divDeadline uint64
	pendingMulResult         uint16
	pendingDivQuotient       uint16
	pendingDivRemainder      uint16

	autoJoypadBusy     bool
	autoJoypadDeadline uint64
	joy3, joy4         uint16 // captured auto-read words for ports 1/2 ($4218-$421B)

	dma            [8]dmaChannel
	hdmaEnableMask uint8

	dmaActive bool

	logf func(format string, args ...any)
}

// SetLogf installs an optional sink for recoverable-anomaly messages (for
// example a GDMA channel's 0-count byte counter, which hardware treats as
// a 65536-byte transfer rather than a no-op). A nil logf disables logging.
func (b *Bus) SetLogf(logf func(format string, args ...any)) {
	b.logf = logf
}

func (b *Bus) logAnomaly(format string, args ...any) {
	if b.logf != nil {
		b.logf(format, args...)
	}
}

// New wires a Bus to its capabilities. cart may be nil only in tests that
// never touch cartridge-mapped addresses.
func New(clk *clock.Clock, p *ppu.PPU, a *apu.APU, cart *cartridge.Cartridge, irq *interrupt.State) *Bus {
	return &Bus{
		clock:          clk,
		ppu:            p,
		apu:            a,
		cart:           cart,
		irq:            irq,
		pads:           [2]*controller.Pad{controller.NewPad(), controller.NewPad()},
		fastBankCycles: cycleSlow,
	}
}

// Pad returns the controller port (0 or 1) the host sets button state on
// once per frame.
func (b *Bus) Pad(port int) *controller.Pad { return b.pads[port] }

func bank(addr uint32) uint8    { return uint8(addr >> 16) }
func offset(addr uint32) uint16 { return uint16(addr) }

// regionCost classifies addr for cycle billing.
func (b *Bus) regionCost(addr uint32) uint64 {
	bk := bank(addr)
	off := offset(addr)
	switch {
	case (bk <= 0x3F || (bk >= 0x80 && bk <= 0xBF)) && off <= 0x1FFF:
		return cycleSlow // WRAM mirror
	case (bk <= 0x3F || (bk >= 0x80 && bk <= 0xBF)) && off >= 0x2100 && off <= 0x21FF:
		return cycleFast
	case (bk <= 0x3F || (bk >= 0x80 && bk <= 0xBF)) && (off == 0x4016 || off == 0x4017):
		return cycleJoypad
	case (bk <= 0x3F || (bk >= 0x80 && bk <= 0xBF)) && off >= 0x4200 && off <= 0x437F:
		return cycleFast
	case bk >= 0x40 && bk <= 0x7D:
		return cycleSlow
	case bk == 0x7E || bk == 0x7F:
		return cycleSlow
	case bk >= 0xC0:
		return b.fastBankCycles
	case bk >= 0x80 && bk <= 0xBF:
		return b.fastBankCycles
	default:
		return cycleSlow
	}
}

// Read8 dispatches addr to WRAM, PPU/APU/joypad/control registers or the
// cartridge, billing the region's cycle cost unless a DMA transfer is in
// flight. Unmapped regions return the open-bus byte.
func (b *Bus) Read8(addr uint32) uint8 {
	if !b.dmaActive {
		b.clock.Elapse(b.regionCost(addr))
	}
	v, ok := b.read(addr)
	if ok {
		b.openBus = v
	}
	return b.openBus
}

// Write8 mirrors Read8: it always updates open-bus with the written value
// first, matching real hardware's write-then-decode order.
func (b *Bus) Write8(addr uint32, v uint8) {
	if !b.dmaActive {
		b.clock.Elapse(b.regionCost(addr))
	}
	b.openBus = v
	b.write(addr, v)
}

func (b *Bus) read(addr uint32) (uint8, bool) {
	bk := bank(addr)
	off := offset(addr)

	if bk == 0x7E || bk == 0x7F {
		return b.wram[uint32(bk-0x7E)<<16|uint32(off)], true
	}
	if bk <= 0x3F || (bk >= 0x80 && bk <= 0xBF) {
		switch {
		case off <= 0x1FFF:
			return b.wram[off], true
		case off >= 0x2100 && off <= 0x2133:
			return 0, false // write-only PPU registers: open bus
		case off >= 0x2134 && off <= 0x213F:
			return b.ppu.Read(off), true
		case off >= 0x2140 && off <= 0x217F:
			return b.apu.ReadPort(uint8(off & 0x3)), true
		case off == 0x2180:
			return b.readWRAMPort(), true
		case off == 0x4016:
			return b.pads[0].ReadSerial() | b.openBus&0xFC, true
		case off == 0x4017:
			return b.pads[1].ReadSerial() | b.openBus&0xFC, true
		case off >= 0x4200 && off <= 0x421F:
			return b.readControlRegister(off)
		case off >= 0x4300 && off <= 0x437F:
			if (off-0x4300)%0x10 > 0xA {
				b.logAnomaly("bus: read of unused DMA register $%04x", off)
				return 0, false
			}
			return b.readDMARegister(off), true
		}
	}
	if b.cart != nil {
		return b.cart.Read(addr)
	}
	return 0, false
}

func (b *Bus) write(addr uint32, v uint8) {
	bk := bank(addr)
	off := offset(addr)

	if bk == 0x7E || bk == 0x7F {
		b.wram[uint32(bk-0x7E)<<16|uint32(off)] = v
		return
	}
	if bk <= 0x3F || (bk >= 0x80 && bk <= 0xBF) {
		switch {
		case off <= 0x1FFF:
			b.wram[off] = v
			return
		case off >= 0x2100 && off <= 0x213F:
			b.ppu.Write(off, v)
			return
		case off >= 0x2140 && off <= 0x217F:
			b.apu.WritePort(uint8(off&0x3), v)
			return
		case off >= 0x2180 && off <= 0x2183:
			b.writeWRAMPort(off, v)
			return
		case off == 0x4016:
			if v&1 != 0 {
				b.pads[0].ResetSerial()
				b.pads[1].ResetSerial()
			}
			return
		case off >= 0x4200 && off <= 0x421F:
			b.writeControlRegister(off, v)
			return
		case off >= 0x4300 && off <= 0x437F:
			b.writeDMARegister(off, v)
			return
		}
	}
	if b.cart != nil {
		b.cart.Write(addr, v)
	}
}

func (b *Bus) readWRAMPort() uint8 {
	v := b.wram[b.wramPtr&0x1FFFF]
	b.wramPtr = (b.wramPtr + 1) & 0x1FFFF
	return v
}

func (b *Bus) writeWRAMPort(off uint16, v uint8) {
	switch off {
	case 0x2180:
		b.wram[b.wramPtr&0x1FFFF] = v
		b.wramPtr = (b.wramPtr + 1) & 0x1FFFF
	case 0x2181:
		b.wramPtr = b.wramPtr&0x1FF00 | uint32(v)
	case 0x2182:
		b.wramPtr = b.wramPtr&0x100FF | uint32(v)<<8
	case 0x2183:
		b.wramPtr = b.wramPtr&0x0FFFF | uint32(v&1)<<16
	}
}

// PollNMI implements cpu.Bus: delegates to the shared interrupt edge latch.
func (b *Bus) PollNMI() bool { return b.irq.Pending() }

// IRQLine implements cpu.Bus.
func (b *Bus) IRQLine() bool { return b.irq.IRQLine() }

// Elapse implements cpu.Bus for the CPU's own fixed-cost penalties
// (direct-page low-byte, emulation-mode branch page-cross).
func (b *Bus) Elapse(n uint64) { b.clock.Elapse(n) }

// Service is called by the Orchestrator once per CPU instruction, after
// the PPU and APU have been advanced to the current clock: it runs the
// HDMA reload/transfer events the PPU raised, the auto-joypad-read latch,
// and drains the DRAM-refresh stall the PPU billed at dot 134.
func (b *Bus) Service() {
	if b.ppu.ConsumeHDMAReload() {
		b.hdmaReload()
	}
	if b.ppu.ConsumeHDMATransfer() {
		b.hdmaTransfer()
	}
	if b.ppu.ConsumeAutoJoypadRead() && b.autoJoypadEnable {
		b.runAutoJoypadRead()
	}
	if stall := b.ppu.ConsumeRefreshStall(); stall > 0 {
		b.clock.Elapse(stall)
	}
	if b.autoJoypadBusy && b.clock.Now() >= b.autoJoypadDeadline {
		b.autoJoypadBusy = false
	}
	if b.mulPending && b.clock.Now() >= b.mulDeadline {
		b.mulResult = b.pendingMulResult
		b.divRemainder = b.pendingMulResult // RDMPY doubles as the multiply result
		b.mulPending = false
	}
	if b.divPending && b.clock.Now() >= b.divDeadline {
		b.divQuotient = b.pendingDivQuotient
		b.divRemainder = b.pendingDivRemainder
		b.divPending = false
	}
}

func (b *Bus) runAutoJoypadRead() {
	b.pads[0].ResetSerial()
	b.pads[1].ResetSerial()
	b.joy3 = b.pads[0].Shift16()
	b.joy4 = b.pads[1].Shift16()
	b.autoJoypadBusy = true
	b.autoJoypadDeadline = b.clock.Now() + 4224
}
