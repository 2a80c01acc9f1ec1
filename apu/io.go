package apu

import "github.com/bdwalton/gosnes/dsp"

// timer is one of the SPC700's three hardware timers: an internal counter
// clocked at a fixed rate (8kHz for timers 0/1, 64kHz for timer 2) that
// increments a 4-bit read-and-clear output counter every time it reaches
// the programmed divider.
type timer struct {
	enabled bool
	counter uint8
	divider uint8
	output  uint8
}

func newTimer() timer {
	return timer{counter: 0xFF}
}

func (t *timer) setEnabled(e bool) { t.enabled = e }
func (t *timer) setDivider(d uint8) { t.divider = d }

func (t *timer) readOutput() uint8 {
	v := t.output
	t.output = 0
	return v
}

func (t *timer) tick() {
	if !t.enabled {
		return
	}
	t.counter++
	if t.counter == t.divider {
		t.counter = 0
		t.output = (t.output + 1) & 0xF
	}
}

// ioPage implements the SPC700's memory-mapped register page at $F0-$FF:
// the DSP address/data port, the four CPU<->APU mailbox ports, two unused
// external I/O ports, and the three timers' divider/output registers.
// https://wiki.superfamicom.org/spc700-reference
type ioPage struct {
	ramWriteEnable bool
	romReadEnable  bool
	waitRAM        uint64
	waitIOROM      uint64

	dspAddr uint8
	dsp     *dsp.DSP

	cpuIn  [4]uint8 // written by the main CPU at $2140-$2143, read here at $F4-$F7
	cpuOut [4]uint8 // written here at $F4-$F7, read by the main CPU at $2140-$2143

	external [2]uint8
	timers   [3]timer

	timerCounter01 uint64
	timerCounter2  uint64
}

var waitCycles = [4]uint64{1, 2, 5, 10}

func newIOPage(d *dsp.DSP) ioPage {
	return ioPage{
		ramWriteEnable: true,
		romReadEnable:  true,
		waitRAM:        1,
		waitIOROM:      1,
		dsp:            d,
		timers:         [3]timer{newTimer(), newTimer(), newTimer()},
	}
}

func (io *ioPage) read(index uint8) uint8 {
	switch {
	case index == 2:
		return io.dspAddr
	case index == 3:
		return io.dsp.Read(io.dspAddr)
	case index >= 4 && index <= 7:
		return io.cpuIn[index-4]
	case index == 8 || index == 9:
		return io.external[index-8]
	case index >= 0xD && index <= 0xF:
		return io.timers[index-0xD].readOutput()
	default:
		return 0
	}
}

func (io *ioPage) write(index, data uint8) {
	switch {
	case index == 0:
		io.ramWriteEnable = data&2 != 0
		io.waitRAM = waitCycles[(data>>4)&3]
		io.waitIOROM = waitCycles[(data>>6)&3]
	case index == 1:
		for i := 0; i < 3; i++ {
			io.timers[i].setEnabled(data&(1<<i) != 0)
		}
		for i := 0; i < 2; i++ {
			if data&(1<<(i+4)) != 0 {
				io.cpuIn[i] = 0
				io.cpuIn[i+1] = 0
			}
		}
		io.romReadEnable = data&0x80 != 0
	case index == 2:
		io.dspAddr = data
	case index == 3:
		io.dsp.Write(io.dspAddr, data)
	case index >= 4 && index <= 7:
		io.cpuOut[index-4] = data
	case index == 8 || index == 9:
		io.external[index-8] = data
	case index >= 0xA && index <= 0xC:
		io.timers[index-0xA].setDivider(data)
	case index >= 0xD && index <= 0xF:
		// Timer output registers are read-only on real hardware.
	}
}

func (io *ioPage) tickTimers(elapsed uint64) {
	io.timerCounter01 += elapsed
	io.timerCounter2 += elapsed

	for io.timerCounter01 >= 128 {
		io.timerCounter01 -= 128
		io.timers[0].tick()
		io.timers[1].tick()
	}
	for io.timerCounter2 >= 16 {
		io.timerCounter2 -= 16
		io.timers[2].tick()
	}
}

// WritePort latches a byte the main CPU sent over $2140-$2143; the SPC700
// sees it at $F4-$F7.
func (io *ioPage) WritePort(port uint8, data uint8) {
	io.cpuIn[port] = data
}

// ReadPort returns the byte most recently written by the SPC700 to
// $F4-$F7, as seen by the main CPU at $2140-$2143.
func (io *ioPage) ReadPort(port uint8) uint8 {
	return io.cpuOut[port]
}
