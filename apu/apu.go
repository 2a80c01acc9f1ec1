// Package apu implements the SNES audio subsystem: a full SPC700 CPU core
// running out of a private 64KiB address space (RAM plus the 64-byte IPL
// boot ROM overlay), its three hardware timers and four-port mailbox to
// the main CPU, and the dsp package's 8-voice sample mixer wired to its
// shared RAM.
// https://wiki.superfamicom.org/spc700-reference
package apu

import "github.com/bdwalton/gosnes/dsp"

// apuClockNumerator/apuClockDenominator convert master-clock cycles into
// SPC700 clock cycles: the APU runs on its own crystal, not a clean
// divisor of the main clock.
const (
	apuClockNumerator   = 102400
	apuClockDenominator = 2147727
)

// APU is the SPC700 CPU, its I/O register page, and the DSP it drives. The
// main Bus talks to it only through WritePort/ReadPort (mirroring
// $2140-$2143) and Samples; everything else is internal.
type APU struct {
	ram   [0x10000]byte
	regs  registers
	io    ioPage
	dsp   *dsp.DSP

	cycles      uint64
	prevCycles  uint64
	dspCycles   uint64
	masterCycles uint64

	halted bool // set by STOP/SLEEP; real hardware requires a reset to recover

	logf func(format string, args ...any)
}

// SetLogf installs an optional sink for recoverable-anomaly messages (for
// example STOP/SLEEP halting the SPC700 until the next reset). A nil logf
// disables logging.
func (a *APU) SetLogf(logf func(format string, args ...any)) {
	a.logf = logf
}

func (a *APU) logAnomaly(format string, args ...any) {
	if a.logf != nil {
		a.logf(format, args...)
	}
}

// New returns an APU reset to its power-on state: PC loaded from the boot
// ROM's reset vector, stack pointer at $FF, DSP freshly constructed.
func New() *APU {
	d := dsp.New()
	a := &APU{dsp: d, io: newIOPage(d)}
	a.regs.sp = 0xFF
	a.regs.pc = uint16(bootROM[0x3E]) | uint16(bootROM[0x3F])<<8
	return a
}

// WritePort delivers a byte the main CPU wrote to $2140-$2143; the SPC700
// sees it show up at $F4-$F7.
func (a *APU) WritePort(port uint8, data uint8) { a.io.WritePort(port, data) }

// ReadPort returns the byte most recently written by the SPC700 to
// $F4-$F7, as the main CPU reads it back at $2140-$2143.
func (a *APU) ReadPort(port uint8) uint8 { return a.io.ReadPort(port) }

// Samples drains and returns every stereo frame the DSP has mixed since
// the last call.
func (a *APU) Samples() []dsp.Sample { return a.dsp.DrainSamples() }

// Advance runs the APU forward by masterCycles master-clock cycles:
// enough SPC700 instructions to keep its own clock in lockstep (per the
// apuClockNumerator/apuClockDenominator ratio), then the timers and the
// DSP's 32-cycle sample period.
func (a *APU) Advance(masterCycles uint64) {
	a.masterCycles += masterCycles
	target := a.masterCycles * apuClockNumerator / apuClockDenominator

	for !a.halted && a.cycles < target {
		a.step()
	}

	elapsed := a.cycles - a.prevCycles
	a.prevCycles = a.cycles
	a.io.tickTimers(elapsed)

	a.dspCycles += elapsed
	for a.dspCycles >= 32 {
		a.dspCycles -= 32
		a.dsp.Tick(a.ram[:])
	}
}

func (a *APU) read8(w wrapAddr) uint8 {
	addr := w.addr
	switch {
	case addr <= 0x00EF || (addr >= 0x0100 && addr <= 0xFFBF):
		a.cycles += a.io.waitRAM
		return a.ram[addr]
	case addr >= 0x00F0 && addr <= 0x00FF:
		a.cycles += a.io.waitIOROM
		return a.io.read(uint8(addr - 0xF0))
	default: // 0xFFC0-0xFFFF
		if a.io.romReadEnable {
			a.cycles += a.io.waitIOROM
			return bootROM[addr-0xFFC0]
		}
		a.cycles += a.io.waitRAM
		return a.ram[addr]
	}
}

func (a *APU) write8(w wrapAddr, data uint8) {
	addr := w.addr
	if a.io.ramWriteEnable {
		a.ram[addr] = data
	}
	if addr&0xFFF0 == 0x00F0 {
		a.io.write(uint8(addr&0xF), data)
		a.cycles += a.io.waitIOROM
	} else {
		a.cycles += a.io.waitRAM
	}
}

func (a *APU) read16(w wrapAddr) uint16 {
	lo := a.read8(w)
	hi := a.read8(w.offset(1))
	return uint16(lo) | uint16(hi)<<8
}

func (a *APU) write16(w wrapAddr, data uint16) {
	a.write8(w, uint8(data))
	a.write8(w.offset(1), uint8(data>>8))
}

func (a *APU) fetch8() uint8 {
	v := a.read8(wrapAddr{addr: a.regs.pc, kind: wrapNone})
	a.regs.pc++
	return v
}

func (a *APU) fetch16() uint16 {
	lo := a.fetch8()
	hi := a.fetch8()
	return uint16(lo) | uint16(hi)<<8
}

func (a *APU) push8(data uint8) {
	a.write8(wrapAddr{addr: 0x100 | uint16(a.regs.sp), kind: wrap8}, data)
	a.regs.sp--
}

func (a *APU) push16(data uint16) {
	a.push8(uint8(data >> 8))
	a.push8(uint8(data))
}

func (a *APU) pop8() uint8 {
	a.regs.sp++
	return a.read8(wrapAddr{addr: 0x100 | uint16(a.regs.sp), kind: wrap8})
}

func (a *APU) pop16() uint16 {
	lo := a.pop8()
	hi := a.pop8()
	return uint16(lo) | uint16(hi)<<8
}

func (a *APU) setN(v uint8)  { a.regs.psw.n = v&0x80 != 0 }
func (a *APU) setZ(v uint8)  { a.regs.psw.z = v == 0 }
func (a *APU) setNZ(v uint8) { a.setN(v); a.setZ(v) }

func (a *APU) setN16(v uint16)  { a.regs.psw.n = v&0x8000 != 0 }
func (a *APU) setZ16(v uint16)  { a.regs.psw.z = v == 0 }
func (a *APU) setNZ16(v uint16) { a.setN16(v); a.setZ16(v) }
