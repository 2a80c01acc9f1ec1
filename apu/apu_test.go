package apu

import "testing"

func TestNewBootsFromResetVector(t *testing.T) {
	a := New()
	want := uint16(bootROM[0x3E]) | uint16(bootROM[0x3F])<<8
	if a.regs.pc != want {
		t.Errorf("pc = %#04x, want %#04x", a.regs.pc, want)
	}
	if a.regs.sp != 0xFF {
		t.Errorf("sp = %#02x, want 0xFF", a.regs.sp)
	}
}

func TestMailboxRoundTrip(t *testing.T) {
	a := New()
	a.WritePort(0, 0xAA)
	a.WritePort(3, 0x55)

	if got := a.read8(wrapAddr{addr: 0x00F4, kind: wrapNone}); got != 0xAA {
		t.Errorf("CPU->APU port 0 = %#02x, want 0xAA", got)
	}
	if got := a.read8(wrapAddr{addr: 0x00F7, kind: wrapNone}); got != 0x55 {
		t.Errorf("CPU->APU port 3 = %#02x, want 0x55", got)
	}

	a.write8(wrapAddr{addr: 0x00F4, kind: wrapNone}, 0x12)
	if got := a.ReadPort(0); got != 0x12 {
		t.Errorf("APU->CPU port 0 = %#02x, want 0x12", got)
	}
}

func TestPSWRoundTrip(t *testing.T) {
	for _, b := range []uint8{0x00, 0xFF, 0x81, 0x3C} {
		if got := pswFromByte(b).toByte(); got != b {
			t.Errorf("pswFromByte(%#02x).toByte() = %#02x, want %#02x", b, got, b)
		}
	}
}

func TestMOVImmediateSetsFlags(t *testing.T) {
	a := New()
	a.regs.pc = 0x0200
	a.ram[0x0200] = 0xE8 // MOV A,#imm
	a.ram[0x0201] = 0x00
	a.step()

	if a.regs.a != 0 {
		t.Errorf("a = %#02x, want 0", a.regs.a)
	}
	if !a.regs.psw.z {
		t.Error("z flag not set after loading 0")
	}
}

func TestADCSetsCarryOnOverflow(t *testing.T) {
	a := New()
	a.regs.a = 0xFF
	a.regs.psw.c = false
	result := a.adc(0xFF, 0x02)
	if result != 0x01 {
		t.Errorf("adc result = %#02x, want 0x01", result)
	}
	if !a.regs.psw.c {
		t.Error("expected carry set on 0xFF+0x02 overflow")
	}
}

func TestDivByZeroSetsOverflowAndFF(t *testing.T) {
	a := New()
	a.regs.y, a.regs.a = 0x00, 0x05
	a.regs.x = 0x00
	a.div()

	if a.regs.a != 0xFF || a.regs.y != 0xFF {
		t.Errorf("a,y = %#02x,%#02x, want 0xFF,0xFF", a.regs.a, a.regs.y)
	}
	if !a.regs.psw.v || !a.regs.psw.n || a.regs.psw.z {
		t.Errorf("flags after div-by-zero: v=%v n=%v z=%v, want true true false",
			a.regs.psw.v, a.regs.psw.n, a.regs.psw.z)
	}
}

func TestBranchNotTakenFallsThrough(t *testing.T) {
	a := New()
	a.regs.pc = 0x0300
	a.regs.psw.z = false
	a.ram[0x0300] = 0xF0 // BEQ, not taken since z is clear
	a.ram[0x0301] = 0x10
	start := a.regs.pc
	a.step()
	if a.regs.pc != start+2 {
		t.Errorf("pc = %#04x, want %#04x", a.regs.pc, start+2)
	}
}

func TestBranchTakenAddsOffset(t *testing.T) {
	a := New()
	a.regs.pc = 0x0300
	a.regs.psw.z = true
	a.ram[0x0300] = 0xF0 // BEQ, taken
	a.ram[0x0301] = 0x05
	a.step()
	if want := uint16(0x0302 + 5); a.regs.pc != want {
		t.Errorf("pc = %#04x, want %#04x", a.regs.pc, want)
	}
}

func TestPushPopPreservesValue(t *testing.T) {
	a := New()
	a.regs.sp = 0xFF
	a.push16(0xBEEF)
	if got := a.pop16(); got != 0xBEEF {
		t.Errorf("pop16() = %#04x, want 0xBEEF", got)
	}
	if a.regs.sp != 0xFF {
		t.Errorf("sp = %#02x after balanced push/pop, want 0xFF", a.regs.sp)
	}
}

func TestDirectPageFollowsPFlag(t *testing.T) {
	a := New()
	a.regs.psw.p = false
	if got := a.directPageBase(); got != 0 {
		t.Errorf("directPageBase() = %#04x, want 0", got)
	}
	a.regs.psw.p = true
	if got := a.directPageBase(); got != 0x100 {
		t.Errorf("directPageBase() = %#04x, want 0x100", got)
	}
}

func TestStopHaltsAndLogsAnomaly(t *testing.T) {
	a := New()
	a.regs.pc = 0x0400
	a.ram[0x0400] = 0xFF // STOP

	var logged string
	a.SetLogf(func(format string, args ...any) { logged = format })

	a.step()

	if !a.halted {
		t.Error("expected STOP to halt the SPC700")
	}
	if logged == "" {
		t.Error("expected STOP to report an anomaly via logf")
	}
}

func TestAdvanceTicksTimersAndDrainsSamples(t *testing.T) {
	a := New()
	a.regs.pc = 0x0400 // rest of RAM defaults to 0x00 (NOP), so this just spins

	a.io.write(1, 0x01) // enable timer 0
	a.io.write(0xA, 1)  // divider 1: fires every tick

	a.Advance(1_000_000)

	if a.io.timers[0].output == 0 {
		t.Error("expected timer 0 output to have advanced")
	}
}
