package bus

import (
	"testing"

	"github.com/bdwalton/gosnes/apu"
	"github.com/bdwalton/gosnes/cartridge"
	"github.com/bdwalton/gosnes/clock"
	"github.com/bdwalton/gosnes/interrupt"
	"github.com/bdwalton/gosnes/ppu"
)

// buildLoROM returns a minimal 32KB LoROM image with a valid header and
// 1<<sramExp KB of SRAM declared.
func buildLoROM(t *testing.T, sramExp uint8) []byte {
	t.Helper()
	const base = 0x7FC0
	rom := make([]byte, 0x8000)
	rom[base+0x15] = 0x00 // slow, LoROM
	rom[base+0x18] = sramExp
	checksum := uint16(0x1234)
	rom[base+0x1E] = byte(checksum)
	rom[base+0x1F] = byte(checksum >> 8)
	complement := checksum ^ 0xFFFF
	rom[base+0x1C] = byte(complement)
	rom[base+0x1D] = byte(complement >> 8)
	return rom
}

func newTestBus(t *testing.T) *Bus {
	t.Helper()
	cart, err := cartridge.New(buildLoROM(t, 1))
	if err != nil {
		t.Fatalf("cartridge.New() error = %v", err)
	}
	return New(clock.New(), ppu.New(), apu.New(), cart, interrupt.New())
}

func TestWRAMMirrorReadWrite(t *testing.T) {
	b := newTestBus(t)
	b.Write8(0x000042, 0xAB)
	if got := b.Read8(0x000042); got != 0xAB {
		t.Errorf("Read8(0x42) = %#02x, want 0xAB", got)
	}
	if got := b.Read8(0x7E0042); got != 0xAB {
		t.Errorf("Read8(0x7E0042) = %#02x, want 0xAB (same backing array)", got)
	}
}

func TestOpenBusPersistsAcrossUnmappedReads(t *testing.T) {
	b := newTestBus(t)
	b.Write8(0x002140, 0x77) // mailbox write sets open-bus to 0x77
	got := b.Read8(0x002123) // write-only PPU window register: falls back to open-bus
	if got != 0x77 {
		t.Errorf("Read8(unmapped) = %#02x, want open-bus 0x77", got)
	}
}

func TestMultiplyLatchesProductAfterLatency(t *testing.T) {
	b := newTestBus(t)
	b.Write8(0x004202, 5)
	b.Write8(0x004203, 6)

	if lo, hi := b.Read8(0x004216), b.Read8(0x004217); lo != 0 || hi != 0 {
		t.Errorf("product before latency elapses = %d, want 0", uint16(lo)|uint16(hi)<<8)
	}

	b.clock.Elapse(mulLatency)
	b.Service()

	lo := b.Read8(0x004216)
	hi := b.Read8(0x004217)
	got := uint16(lo) | uint16(hi)<<8
	if got != 30 {
		t.Errorf("product = %d, want 30", got)
	}
}

func TestDivideByZeroProducesFFFFQuotientAfterLatency(t *testing.T) {
	b := newTestBus(t)
	b.Write8(0x004204, 0x34)
	b.Write8(0x004205, 0x12) // dividend = 0x1234
	b.Write8(0x004206, 0)    // divide by zero

	b.clock.Elapse(divLatency)
	b.Service()

	lo := b.Read8(0x004214)
	hi := b.Read8(0x004215)
	quotient := uint16(lo) | uint16(hi)<<8
	if quotient != 0xFFFF {
		t.Errorf("quotient = %#04x, want 0xFFFF", quotient)
	}
}

func TestGDMAFillTransfersWRAMToVRAMPort(t *testing.T) {
	b := newTestBus(t)
	for i := 0; i < 0x100; i++ {
		b.wram[i] = uint8(i)
	}
	// VRAM write port address, low-byte increment, word access.
	b.Write8(0x002115, 0x80)
	b.Write8(0x002116, 0x00)
	b.Write8(0x002117, 0x00)

	// Channel 0: WRAM ($7E0000) -> B-bus port $18/$19 (VRAM data), pattern [0,1].
	b.Write8(0x004300, 0x01) // pattern index 1: [0,1]
	b.Write8(0x004301, 0x18)
	b.Write8(0x004302, 0x00)
	b.Write8(0x004303, 0x00)
	b.Write8(0x004304, 0x7E)
	b.Write8(0x004305, 0x00)
	b.Write8(0x004306, 0x01) // count = 0x0100

	b.Write8(0x00420B, 0x01)

	if got := b.dma[0].count; got != 0 {
		t.Errorf("channel 0 count after GDMA = %d, want 0", got)
	}
	if b.dma[0].aAddr != 0x0100 {
		t.Errorf("channel 0 A-bus address after GDMA = %#04x, want 0x0100", b.dma[0].aAddr)
	}
}

func TestHDMAReloadMarksZeroCounterComplete(t *testing.T) {
	b := newTestBus(t)
	// Channel 0's A-bus table starts with a zero line-counter byte.
	b.wram[0x0000] = 0x00
	b.Write8(0x004302, 0x00)
	b.Write8(0x004303, 0x00)
	b.Write8(0x004304, 0x7E)
	b.hdmaEnableMask = 0x01

	b.hdmaReload()

	if b.dma[0].hdmaActive {
		t.Error("expected channel with zero line-counter byte to be inactive after reload")
	}
}

func TestHDMANonContinuousMultiLineEntryReloadsAfterCounting(t *testing.T) {
	b := newTestBus(t)
	// Channel 0's A-bus table: one non-continuous entry spanning 3 lines
	// (repeat bit clear, count=3), followed by a terminating zero byte.
	b.wram[0x0000] = 0x03
	b.wram[0x0001] = 0x00
	b.Write8(0x004300, 0x00) // pattern index 0: [0]
	b.Write8(0x004301, 0x18)
	b.Write8(0x004302, 0x00)
	b.Write8(0x004303, 0x00)
	b.Write8(0x004304, 0x7E)
	b.hdmaEnableMask = 0x01

	b.hdmaReload()
	if !b.dma[0].hdmaActive {
		t.Fatal("expected channel to be active after reload")
	}

	b.hdmaTransfer() // line counter 3 -> 2, transfers (just reloaded)
	if b.dma[0].lineCounter != 2 {
		t.Errorf("lineCounter after line 1 = %d, want 2", b.dma[0].lineCounter)
	}
	if !b.dma[0].hdmaActive {
		t.Error("channel went inactive after its first non-continuous line, want still active")
	}

	b.hdmaTransfer() // line counter 2 -> 1, no transfer, still must decrement
	if b.dma[0].lineCounter != 1 {
		t.Errorf("lineCounter after line 2 = %d, want 1", b.dma[0].lineCounter)
	}
	if !b.dma[0].hdmaActive {
		t.Error("channel went inactive before its entry's count was exhausted")
	}

	b.hdmaTransfer() // line counter 1 -> 0, reload: next byte is 0, so channel ends
	if b.dma[0].hdmaActive {
		t.Error("expected channel to end after the table's terminating zero byte")
	}
}

func TestAutoJoypadBusyClearsAfter4224Clocks(t *testing.T) {
	b := newTestBus(t)
	b.autoJoypadEnable = true
	b.runAutoJoypadRead()
	if !b.autoJoypadBusy {
		t.Fatal("expected auto-joypad-busy to be set immediately after trigger")
	}
	b.clock.Elapse(4223)
	if _, ok := b.readControlRegister(0x4212); !ok {
		t.Fatal("readControlRegister(0x4212) returned ok=false")
	}
	b.Service()
	if !b.autoJoypadBusy {
		t.Error("expected busy to still be set 1 clock before the deadline")
	}
	b.clock.Elapse(1)
	b.Service()
	if b.autoJoypadBusy {
		t.Error("expected busy to clear exactly 4224 clocks after trigger")
	}
}
