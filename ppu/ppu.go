// Package ppu implements the SNES picture processing unit: VRAM/CGRAM/OAM
// storage, the $2100-$213F register block, the per-dot timing state
// machine that drives HBlank/VBlank/NMI/HDMA/auto-joypad-read events, and
// the BG+sprite+color-math rendering pipeline that fills a 256x224 BGR555
// framebuffer one scanline at a time.
// https://wiki.superfamicom.org/ppu-registers
package ppu

import (
	"github.com/bdwalton/gosnes/clock"
	"github.com/bdwalton/gosnes/interrupt"
)

const (
	FrameWidth  = 256
	FrameHeight = 224
)

// PPU owns VRAM, CGRAM, OAM, every PPU register, and the rendered frame.
// It advances lazily: Tick is handed the shared master-clock value and
// catches this PPU's own dot/line counters up to it, exactly as the Bus
// and APU do with their own local watermarks.
type PPU struct {
	Frame       [FrameWidth * FrameHeight]uint16
	FrameNumber uint64

	counter uint64
	x, y    uint16

	mainScreen [FrameWidth]pixelInfo
	subScreen  [FrameWidth]pixelInfo

	isHBlank, isVBlank             bool
	isHDMAReload, isHDMATransfer   bool
	autoJoypadRead                 bool
	refreshStall                   uint64

	vram  [0x10000]byte
	cgram [0x100]uint16
	oam   [0x220]byte

	display       displayControl
	objSizeBase   objSizeAndBase
	screenMain    screenDesignation
	screenSub     screenDesignation
	windowMain    screenDesignation
	windowSub     screenDesignation

	bgCtrl         bgControl
	mosaicEnable   uint8
	mosaicSize     uint8
	bgScreenBase   [4]bgScreenBaseSize
	bgTileBase     [4]uint8
	bgHOfs, bgVOfs [4]uint16
	bgOld          uint8
	m7HOfs, m7VOfs uint16
	m7Old          uint8

	oamAddrReg      uint16 // $2102/$2103 raw, pre-shift
	oamAddr         uint16
	oamLSB          uint8
	oamPriorityRotation bool

	vramMode     vramAddrIncMode
	vramAddr     uint16
	vramPrefetch [2]uint8

	cgramAddr uint16
	cgramLSB  uint8

	m7A, m7B, m7C, m7D, m7X, m7Y uint16
	mpy                          int32

	colorMath              colorMathCtrl
	subBackdropR, subBackdropG, subBackdropB uint8

	hCounterLatch, vCounterLatch uint16
	hvLatched                    bool
	hFlip, vFlip                 bool
	objRangeOverflow             bool
	objTimeOverflow              bool
}

// New returns a PPU in its power-on state: blanked display, zeroed
// memories, frame counter at zero.
func New() *PPU {
	p := &PPU{mpy: 1}
	return p
}

func (p *PPU) IsHBlank() bool { return p.isHBlank }
func (p *PPU) IsVBlank() bool { return p.isVBlank }

// ConsumeHDMAReload reports (and clears) whether this tick crossed the
// per-frame HDMA-channel-reload point (dot 6 of line 0).
func (p *PPU) ConsumeHDMAReload() bool {
	v := p.isHDMAReload
	p.isHDMAReload = false
	return v
}

// ConsumeHDMATransfer reports (and clears) whether this tick crossed a
// per-scanline HDMA transfer point (dot 278 of a visible line).
func (p *PPU) ConsumeHDMATransfer() bool {
	v := p.isHDMATransfer
	p.isHDMATransfer = false
	return v
}

// ConsumeAutoJoypadRead reports (and clears) whether this tick crossed the
// VBlank auto-joypad-latch point (dot 33 of line 225).
func (p *PPU) ConsumeAutoJoypadRead() bool {
	v := p.autoJoypadRead
	p.autoJoypadRead = false
	return v
}

// ConsumeRefreshStall drains the DRAM-refresh wait cycles accumulated
// since the last call, for the Bus to bill against the CPU.
func (p *PPU) ConsumeRefreshStall() uint64 {
	v := p.refreshStall
	p.refreshStall = 0
	return v
}

// Tick advances the PPU's local dot/line state up to the shared
// master-clock value target, raising NMI/IRQ on irq as the real hardware
// would at each relevant dot.
func (p *PPU) Tick(target uint64, irq *interrupt.State) {
	for p.counter+clock.MasterPerDot <= target {
		p.counter += clock.MasterPerDot
		p.x++

		if p.x == clock.DotsPerLine {
			p.x = 0
			p.y++

			if p.y == clock.LinesPerFrame {
				p.y = 0
				p.FrameNumber++
			}
			if p.y == 225 {
				p.isVBlank = true
			}
		}

		if p.x == 0 && p.y == 225 {
			irq.RaiseNMI()
		}
		if p.x == 1 {
			p.isHBlank = false
		}
		if p.x == 1 && p.y == 0 {
			p.isVBlank = false
			irq.ClearNMIFlag()
		}
		if p.x == 6 && p.y == 0 {
			p.isHDMAReload = true
		}
		if p.x == 10 && p.y == 225 && !p.display.forceBlank {
			p.oamAddr = p.oamAddrReg << 1
		}
		if p.x == 33 && p.y == 225 {
			p.autoJoypadRead = true
		}
		if p.x == 134 {
			p.refreshStall += 40
		}
		if p.x == 278 && p.y <= 224 {
			p.isHDMATransfer = true
		}
		if p.x == 274 {
			p.isHBlank = true
		}
		if p.x == 22 && p.y >= 1 && p.y < 225 {
			p.renderLine(p.y - 1)
		}

		switch irq.HVIRQMode() {
		case interrupt.HVIRQHMatch:
			if p.x == irq.HTarget() {
				irq.RaiseIRQ()
			}
		case interrupt.HVIRQVMatch:
			if p.x == 0 && p.y == irq.VTarget() {
				irq.RaiseIRQ()
			}
		case interrupt.HVIRQHVMatch:
			if p.x == irq.HTarget() && p.y == irq.VTarget() {
				irq.RaiseIRQ()
			}
		}
	}
}
