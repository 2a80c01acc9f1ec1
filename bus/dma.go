package bus

// transferPatterns maps a DMA parameter byte's 3-bit pattern index to the
// B-bus byte-offset sequence it cycles through.
var transferPatterns = [8][]uint8{
	{0},
	{0, 1},
	{0, 0},
	{0, 0, 1, 1},
	{0, 1, 2, 3},
	{0, 1, 0, 1},
	{0, 0},
	{0, 0, 1, 1},
}

// aBusStep maps the parameter byte's 2-bit A-bus step field to the signed
// per-byte address increment.
var aBusStep = [4]int32{1, 0, -1, 0}

// dmaChannel mirrors one $43n0-$43nA register block.
type dmaChannel struct {
	params      uint8  // $43n0
	bBusReg     uint8  // $43n1
	aAddr       uint16 // $43n2/$43n3
	aBank       uint8  // $43n4
	count       uint16 // $43n5/$43n6 (GDMA byte count / HDMA indirect address)
	indBank     uint8  // $43n7
	tableAddr   uint16 // $43n8/$43n9, HDMA's own A-bus table cursor
	lineCounter uint8  // $43nA

	hdmaActive      bool // cleared for the frame once the reload byte is 0
	transferPending bool // set on every line an entry is (re)loaded; that line always transfers even if the repeat bit is clear
}

func (b *Bus) readDMARegister(off uint16) uint8 {
	ch := &b.dma[(off-0x4300)/0x10]
	switch (off - 0x4300) % 0x10 {
	case 0:
		return ch.params
	case 1:
		return ch.bBusReg
	case 2:
		return uint8(ch.aAddr)
	case 3:
		return uint8(ch.aAddr >> 8)
	case 4:
		return ch.aBank
	case 5:
		return uint8(ch.count)
	case 6:
		return uint8(ch.count >> 8)
	case 7:
		return ch.indBank
	case 8:
		return uint8(ch.tableAddr)
	case 9:
		return uint8(ch.tableAddr >> 8)
	case 0xA:
		return ch.lineCounter
	default:
		return 0
	}
}

func (b *Bus) writeDMARegister(off uint16, v uint8) {
	ch := &b.dma[(off-0x4300)/0x10]
	switch (off - 0x4300) % 0x10 {
	case 0:
		ch.params = v
	case 1:
		ch.bBusReg = v
	case 2:
		ch.aAddr = ch.aAddr&0xFF00 | uint16(v)
	case 3:
		ch.aAddr = ch.aAddr&0x00FF | uint16(v)<<8
	case 4:
		ch.aBank = v
	case 5:
		ch.count = ch.count&0xFF00 | uint16(v)
	case 6:
		ch.count = ch.count&0x00FF | uint16(v)<<8
	case 7:
		ch.indBank = v
	case 8:
		ch.tableAddr = ch.tableAddr&0xFF00 | uint16(v)
	case 9:
		ch.tableAddr = ch.tableAddr&0x00FF | uint16(v)<<8
	case 0xA:
		ch.lineCounter = v
	}
}

// bBusAccess reaches the B-bus port (always bank $00, offset
// $2100+reg) through the normal register dispatch so DMA sees the exact
// same PPU/APU/WRAM-port side effects a CPU access would.
func (b *Bus) bBusAccess(ch *dmaChannel, patternOffset uint8, toB bool, aAddr uint32) {
	bAddr := uint32(0x2100) + uint32(ch.bBusReg) + uint32(patternOffset)
	if toB {
		v, _ := b.read(aAddr)
		b.openBus = v
		b.write(bAddr, v)
	} else {
		v, _ := b.read(bAddr)
		b.openBus = v
		b.write(aAddr, v)
	}
}

// triggerGDMA runs every channel set in mask to completion, lowest channel
// number first.
func (b *Bus) triggerGDMA(mask uint8) {
	if mask == 0 {
		return
	}
	b.dmaActive = true
	for i := 0; i < 8; i++ {
		bit := uint8(1) << i
		if mask&bit == 0 {
			continue
		}
		ch := &b.dma[i]
		if ch.count == 0 {
			b.logAnomaly("bus: GDMA channel %d count register is 0, treating as a 65536-byte transfer", i)
		}
		b.clock.Elapse(8)
		pattern := transferPatterns[ch.params&7]
		toB := ch.params&0x80 == 0
		step := aBusStep[(ch.params>>3)&3]
		n := 0
		for {
			aAddr := uint32(ch.aBank)<<16 | uint32(ch.aAddr)
			b.clock.Elapse(8)
			b.bBusAccess(ch, pattern[n%len(pattern)], toB, aAddr)
			if step != 0 {
				ch.aAddr = uint16(int32(ch.aAddr) + step)
			}
			ch.count--
			n++
			if ch.count == 0 {
				break
			}
		}
		b.clock.Elapse(16)
		mask &^= bit
	}
	b.dmaActive = false
}

// hdmaReload runs at the first scanline of every frame (x=6, y=0): for
// every enabled channel, load the line counter (and, in indirect mode, the
// indirect address) from the A-bus table.
func (b *Bus) hdmaReload() {
	for i := 0; i < 8; i++ {
		if b.hdmaEnableMask&(1<<i) == 0 {
			continue
		}
		ch := &b.dma[i]
		ch.tableAddr = ch.aAddr
		b.clock.Elapse(18)
		lineByte := b.tableRead(uint32(ch.aBank)<<16 | uint32(ch.tableAddr))
		ch.tableAddr++
		ch.lineCounter = lineByte
		ch.hdmaActive = lineByte != 0
		ch.transferPending = ch.hdmaActive
		if ch.params&0x40 != 0 && ch.hdmaActive { // indirect addressing mode
			lo := b.tableRead(uint32(ch.aBank)<<16 | uint32(ch.tableAddr))
			ch.tableAddr++
			hi := b.tableRead(uint32(ch.aBank)<<16 | uint32(ch.tableAddr))
			ch.tableAddr++
			ch.count = uint16(lo) | uint16(hi)<<8
			b.clock.Elapse(16)
		}
	}
}

// hdmaTransfer runs once per visible scanline (x=278, y<=224). Every
// enabled, still-active channel decrements its line counter and checks for
// a table reload regardless of whether this particular line transfers;
// only the transfer itself is gated on the repeat bit (or a just-loaded
// entry, which always transfers once on the line it's loaded).
func (b *Bus) hdmaTransfer() {
	for i := 0; i < 8; i++ {
		if b.hdmaEnableMask&(1<<i) == 0 {
			continue
		}
		ch := &b.dma[i]
		if !ch.hdmaActive {
			continue
		}

		if ch.transferPending || ch.lineCounter&0x80 != 0 {
			ch.transferPending = false
			b.dmaActive = true
			pattern := transferPatterns[ch.params&7]
			toB := ch.params&0x80 == 0
			indirect := ch.params&0x40 != 0
			for n, patternOffset := range pattern {
				var aAddr uint32
				if indirect {
					aAddr = uint32(ch.indBank)<<16 | uint32(ch.count+uint16(n))
				} else {
					aAddr = uint32(ch.aBank)<<16 | uint32(ch.tableAddr+uint16(n))
				}
				b.clock.Elapse(8)
				b.bBusAccess(ch, patternOffset, toB, aAddr)
			}
			if indirect {
				ch.count += uint16(len(pattern))
			} else {
				ch.tableAddr += uint16(len(pattern))
			}
			b.dmaActive = false
		}

		ch.lineCounter--
		if ch.lineCounter&0x7F == 0 {
			b.clock.Elapse(18)
			lineByte := b.tableRead(uint32(ch.aBank)<<16 | uint32(ch.tableAddr))
			ch.tableAddr++
			ch.lineCounter = lineByte
			ch.hdmaActive = lineByte != 0
			ch.transferPending = ch.hdmaActive
			if ch.params&0x40 != 0 && ch.hdmaActive { // indirect addressing mode
				lo := b.tableRead(uint32(ch.aBank)<<16 | uint32(ch.tableAddr))
				ch.tableAddr++
				hi := b.tableRead(uint32(ch.aBank)<<16 | uint32(ch.tableAddr))
				ch.tableAddr++
				ch.count = uint16(lo) | uint16(hi)<<8
				b.clock.Elapse(16)
			}
		}
	}
}

// tableRead fetches an HDMA line-counter/indirect-address byte from the
// A-bus. The table can live in WRAM as well as cartridge space, so this
// goes through the same full address decode a CPU read would.
func (b *Bus) tableRead(addr uint32) uint8 {
	v, ok := b.read(addr)
	if !ok {
		return b.openBus
	}
	return v
}
