package console

import "testing"

// buildLoROM returns a minimal 32KB LoROM image with a valid header, SRAM
// size exponent sramExp, and an infinite BRA loop at $8000 that the reset
// vector points to.
func buildLoROM(t *testing.T, sramExp uint8) []byte {
	t.Helper()
	const base = 0x7FC0
	rom := make([]byte, 0x8000)
	rom[0x0000] = 0x80 // BRA
	rom[0x0001] = 0xFE // -2: branch back to itself
	rom[base+0x15] = 0x00
	rom[base+0x18] = sramExp
	checksum := uint16(0x1234)
	rom[base+0x1E] = byte(checksum)
	rom[base+0x1F] = byte(checksum >> 8)
	complement := checksum ^ 0xFFFF
	rom[base+0x1C] = byte(complement)
	rom[base+0x1D] = byte(complement >> 8)
	rom[base+0x3C] = 0x00 // reset vector low
	rom[base+0x3D] = 0x80 // reset vector high: $8000
	return rom
}

func TestNewWiresResetVector(t *testing.T) {
	con, err := New(buildLoROM(t, 0), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := con.cpu.PC(); got != 0x8000 {
		t.Errorf("PC() = %#04x, want 0x8000", got)
	}
}

func TestExecFrameAdvancesFrameNumber(t *testing.T) {
	con, err := New(buildLoROM(t, 0), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	before := con.ppu.FrameNumber
	con.ExecFrame()
	if con.ppu.FrameNumber != before+1 {
		t.Errorf("FrameNumber after ExecFrame() = %d, want %d", con.ppu.FrameNumber, before+1)
	}
}

func TestFrameReturnsLivePPUBuffer(t *testing.T) {
	con, err := New(buildLoROM(t, 0), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	f := con.Frame()
	if f != &con.ppu.Frame {
		t.Error("Frame() did not return the PPU's own buffer")
	}
}

func TestSRAMRoundTrip(t *testing.T) {
	con, err := New(buildLoROM(t, 1), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	saved := con.SRAM()
	saved[0] = 0x42
	blob := make([]byte, len(saved))
	copy(blob, saved)

	con2, err := New(buildLoROM(t, 1), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := con2.LoadSRAM(blob); err != nil {
		t.Fatalf("LoadSRAM() error = %v", err)
	}
	if con2.SRAM()[0] != 0x42 {
		t.Errorf("SRAM()[0] after LoadSRAM = %#02x, want 0x42", con2.SRAM()[0])
	}
}

func TestResetReloadsPC(t *testing.T) {
	con, err := New(buildLoROM(t, 0), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	con.cpu.Reset()
	if got := con.cpu.PC(); got != 0x8000 {
		t.Errorf("PC() after Reset() = %#04x, want 0x8000", got)
	}
}

func TestPadReturnsDistinctPortsByIndex(t *testing.T) {
	con, err := New(buildLoROM(t, 0), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if con.Pad(0) == con.Pad(1) {
		t.Error("Pad(0) and Pad(1) returned the same controller")
	}
}
