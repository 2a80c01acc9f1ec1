package bus

// readControlRegister answers the $4200-$421F CPU/PPU control and status
// block. ok is false only for addresses this block leaves unmapped (the
// caller then falls back to open-bus).
func (b *Bus) readControlRegister(off uint16) (uint8, bool) {
	switch off {
	case 0x4210: // RDNMI: nmi flag (edge, read-to-clear) | open-bus bits | cpu version
		v := b.openBus & 0x70
		v |= 0x02 // CPU version nibble, arbitrary but stable
		if b.irq.AckNMI() {
			v |= 0x80
		}
		return v, true
	case 0x4211: // TIMEUP
		v := b.openBus & 0x7F
		if b.irq.AckIRQ() {
			v |= 0x80
		}
		return v, true
	case 0x4212: // HVBJOY
		var v uint8
		if b.autoJoypadBusy {
			v |= 0x01
		}
		if b.ppu.IsHBlank() {
			v |= 0x40
		}
		if b.ppu.IsVBlank() {
			v |= 0x80
		}
		return v, true
	case 0x4213: // RDIO
		return b.wrio, true
	case 0x4214:
		return uint8(b.divQuotient), true
	case 0x4215:
		return uint8(b.divQuotient >> 8), true
	case 0x4216:
		return uint8(b.divRemainder), true
	case 0x4217:
		return uint8(b.divRemainder >> 8), true
	case 0x4218:
		return uint8(b.joy3), true
	case 0x4219:
		return uint8(b.joy3 >> 8), true
	case 0x421A:
		return uint8(b.joy4), true
	case 0x421B:
		return uint8(b.joy4 >> 8), true
	case 0x421C, 0x421D, 0x421E, 0x421F:
		return 0, true // second multitap pair, no second physical port wired
	default:
		return 0, false
	}
}

func (b *Bus) writeControlRegister(off uint16, v uint8) {
	switch off {
	case 0x4200:
		b.autoJoypadEnable = v&0x01 != 0
		switch (v >> 4) & 3 {
		case 0:
			b.irq.SetHVIRQMode(0)
		case 1:
			b.irq.SetHVIRQMode(1)
		case 2:
			b.irq.SetHVIRQMode(2)
		case 3:
			b.irq.SetHVIRQMode(3)
		}
		b.irq.SetAutoJoypadEnable(b.autoJoypadEnable)
		b.irq.SetNMIEnable(v&0x80 != 0)
	case 0x4201:
		b.wrio = v
	case 0x4202:
		b.multiplicand = v
	case 0x4203:
		b.multiplier = v
		b.pendingMulResult = uint16(b.multiplicand) * uint16(v)
		b.mulPending = true
		b.mulDeadline = b.clock.Now() + mulLatency
	case 0x4204:
		b.dividend = b.dividend&0xFF00 | uint16(v)
	case 0x4205:
		b.dividend = b.dividend&0x00FF | uint16(v)<<8
	case 0x4206:
		b.divisor = v
		if v == 0 {
			b.pendingDivQuotient = 0xFFFF
			b.pendingDivRemainder = b.dividend
		} else {
			b.pendingDivQuotient = b.dividend / uint16(v)
			b.pendingDivRemainder = b.dividend % uint16(v)
		}
		b.divPending = true
		b.divDeadline = b.clock.Now() + divLatency
	case 0x4207:
		b.irq.SetHTarget(b.irq.HTarget()&0xFF00 | uint16(v))
	case 0x4208:
		b.irq.SetHTarget(b.irq.HTarget()&0x00FF | uint16(v&1)<<8)
	case 0x4209:
		b.irq.SetVTarget(b.irq.VTarget()&0xFF00 | uint16(v))
	case 0x420A:
		b.irq.SetVTarget(b.irq.VTarget()&0x00FF | uint16(v&1)<<8)
	case 0x420B:
		b.triggerGDMA(v)
	case 0x420C:
		b.hdmaEnableMask = v
	case 0x420D:
		if v&1 != 0 {
			b.fastBankCycles = cycleFast
		} else {
			b.fastBankCycles = cycleSlow
		}
	}
}
