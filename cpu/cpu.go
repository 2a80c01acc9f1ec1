// Package cpu implements the 65C816 core: the full register file, the
// emulation/native mode state machine, every addressing mode and the
// width-polymorphic ALU, load/store, shift and stack instruction families.
// https://wiki.superfamicom.org/65c816-reference
package cpu

// Bus is the narrow capability the CPU needs: memory access and the two
// interrupt lines. Everything else (PPU, APU, DMA) is the Bus's problem.
type Bus interface {
	Read8(addr uint32) uint8
	Write8(addr uint32, v uint8)
	// PollNMI reports and clears the edge-triggered NMI request.
	PollNMI() bool
	// IRQLine reports the current level of the IRQ line without clearing it.
	IRQLine() bool
	// Elapse bills master clocks not already attached to a Read8/Write8
	// call (direct-page low-byte and branch page-cross penalties).
	Elapse(n uint64)
}

// flags is the 65C816 processor status register, kept as named bits rather
// than a raw byte so the rest of the core never has to mask/shift by hand.
type flags struct {
	c, z, i, d, v, n bool
	m, x             bool // native-mode accumulator/index width; forced true in emulation mode
}

func (f flags) toByte(e bool) uint8 {
	var b uint8
	if f.n {
		b |= 0x80
	}
	if f.v {
		b |= 0x40
	}
	if e || f.m {
		b |= 0x20
	}
	if e || f.x {
		b |= 0x10
	}
	if f.d {
		b |= 0x08
	}
	if f.i {
		b |= 0x04
	}
	if f.z {
		b |= 0x02
	}
	if f.c {
		b |= 0x01
	}
	return b
}

func flagsFromByte(b uint8, e bool) flags {
	f := flags{
		n: b&0x80 != 0,
		v: b&0x40 != 0,
		d: b&0x08 != 0,
		i: b&0x04 != 0,
		z: b&0x02 != 0,
		c: b&0x01 != 0,
	}
	if e {
		f.m, f.x = true, true
	} else {
		f.m = b&0x20 != 0
		f.x = b&0x10 != 0
	}
	return f
}

// CPU is the 65C816 register file and execution state. It never allocates
// or owns memory; every access goes through Bus.
type CPU struct {
	a, x, y uint16
	s       uint16
	pc      uint16
	d       uint16 // direct page register
	dbr     uint8  // data bank register
	pbr     uint8  // program bank register (PC's bank)
	p       flags
	e       bool // emulation mode

	halted  bool // set by STP; cleared only by Reset
	waiting bool // set by WAI; cleared by any pending NMI or asserted IRQ

	bus Bus
}

// New returns a CPU wired to bus, already reset to its power-on state.
func New(bus Bus) *CPU {
	c := &CPU{bus: bus}
	c.Reset()
	return c
}

// Reset loads the CPU into emulation mode with the reset vector, matching
// the documented power-on/reset state: E=1, M=1, X=1, S&0xFF00=0x0100, I=1,
// D=0, PC=mem16($FFFC).
func (c *CPU) Reset() {
	c.e = true
	c.p = flags{i: true, m: true, x: true}
	c.d = 0
	c.dbr = 0
	c.pbr = 0
	c.s = 0x01FF
	c.x &= 0xFF
	c.y &= 0xFF
	c.halted = false
	c.waiting = false
	c.pc = c.read16(0x00FFFC)
}

// Halted reports whether STP has parked the CPU; the Orchestrator still
// calls Step every instruction slot. Until Reset, Step fetches no
// instruction and only bills an idle bus access, except that a pending
// NMI or IRQ is still pushed and vectored; its handler is not executed
// while the CPU stays halted.
func (c *CPU) Halted() bool { return c.halted }

// PC, S and P are exposed read-only for tests and for a host debugger.
func (c *CPU) PC() uint16   { return c.pc }
func (c *CPU) S() uint16    { return c.s }
func (c *CPU) PFlags() uint8 { return c.p.toByte(c.e) }
func (c *CPU) E() bool      { return c.e }

// Step either services one pending interrupt and returns, or executes
// exactly one instruction (or, if halted or waiting with nothing to
// service, bills idle clocks).
func (c *CPU) Step() {
	if c.bus.PollNMI() {
		c.waiting = false
		c.serviceInterrupt(vectorNMI, vectorNMIEmu, false)
		return
	}
	if c.bus.IRQLine() {
		c.waiting = false
		if !c.p.i {
			c.serviceInterrupt(vectorIRQ, vectorIRQEmu, false)
			return
		}
	}
	if c.halted || c.waiting {
		c.bus.Read8(c.longPC()) // idle bus access, bills clock without advancing PC
		return
	}
	op := c.fetch8()
	c.dispatch(op)
}

const (
	vectorNMI     = 0x00FFEA
	vectorNMIEmu  = 0x00FFFA
	vectorIRQ     = 0x00FFEE
	vectorIRQEmu  = 0x00FFFE
	vectorReset   = 0x00FFFC
	vectorBRK     = 0x00FFE6
	vectorBRKEmu  = 0x00FFFE
	vectorCOP     = 0x00FFE4
	vectorCOPEmu  = 0x00FFF4
)

// serviceInterrupt pushes PB (native mode only), PC and P, sets I, clears
// D, and loads PC from the appropriate vector. isSoftware distinguishes
// BRK/COP from NMI/IRQ: only a software interrupt taken in emulation mode
// also zeroes DBR, matching real hardware's emulation-mode BRK/COP behavior.
func (c *CPU) serviceInterrupt(nativeVector, emuVector uint32, isSoftware bool) {
	if !c.e {
		c.push8(c.pbr)
	}
	c.push16(c.pc)
	c.push8(c.p.toByte(c.e))
	c.p.i = true
	c.p.d = false
	if isSoftware && c.e {
		c.dbr = 0
	}
	c.pbr = 0
	if c.e {
		c.pc = c.read16(uint32(emuVector))
	} else {
		c.pc = c.read16(uint32(nativeVector))
	}
}

func (c *CPU) longPC() uint32 { return uint32(c.pbr)<<16 | uint32(c.pc) }

func (c *CPU) fetch8() uint8 {
	v := c.bus.Read8(c.longPC())
	c.pc++
	return v
}

func (c *CPU) fetch16() uint16 {
	lo := c.fetch8()
	hi := c.fetch8()
	return uint16(lo) | uint16(hi)<<8
}

func (c *CPU) fetch24() uint32 {
	lo := uint32(c.fetch8())
	mid := uint32(c.fetch8())
	hi := uint32(c.fetch8())
	return hi<<16 | mid<<8 | lo
}

func (c *CPU) read16(addr uint32) uint16 {
	lo := c.bus.Read8(addr)
	hi := c.bus.Read8(addr + 1)
	return uint16(lo) | uint16(hi)<<8
}

func (c *CPU) write16(addr uint32, v uint16) {
	c.bus.Write8(addr, uint8(v))
	c.bus.Write8(addr+1, uint8(v>>8))
}

// push8/push16 respect the emulation-mode clamp: the stack pointer's high
// byte is pinned to $01 so pushes that would cross out of page $01 wrap
// within it instead.
func (c *CPU) push8(v uint8) {
	c.bus.Write8(uint32(c.s), v)
	c.s--
	if c.e {
		c.s = 0x0100 | (c.s & 0xFF)
	}
}

func (c *CPU) push16(v uint16) {
	c.push8(uint8(v >> 8))
	c.push8(uint8(v))
}

func (c *CPU) pop8() uint8 {
	c.s++
	if c.e {
		c.s = 0x0100 | (c.s & 0xFF)
	}
	return c.bus.Read8(uint32(c.s))
}

func (c *CPU) pop16() uint16 {
	lo := c.pop8()
	hi := c.pop8()
	return uint16(lo) | uint16(hi)<<8
}

func (c *CPU) setNZ8(v uint8) {
	c.p.n = v&0x80 != 0
	c.p.z = v == 0
}

func (c *CPU) setNZ16(v uint16) {
	c.p.n = v&0x8000 != 0
	c.p.z = v == 0
}
