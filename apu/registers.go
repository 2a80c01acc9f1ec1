package apu

// psw is the SPC700 processor status word: N V P B H I Z C from bit 7 down
// to bit 0, matching real hardware.
type psw struct {
	c, z, i, h, b, p, v, n bool
}

func pswFromByte(b uint8) psw {
	return psw{
		c: b&0x01 != 0,
		z: b&0x02 != 0,
		i: b&0x04 != 0,
		h: b&0x08 != 0,
		b: b&0x10 != 0,
		p: b&0x20 != 0,
		v: b&0x40 != 0,
		n: b&0x80 != 0,
	}
}

func (p psw) toByte() uint8 {
	var b uint8
	if p.c {
		b |= 0x01
	}
	if p.z {
		b |= 0x02
	}
	if p.i {
		b |= 0x04
	}
	if p.h {
		b |= 0x08
	}
	if p.b {
		b |= 0x10
	}
	if p.p {
		b |= 0x20
	}
	if p.v {
		b |= 0x40
	}
	if p.n {
		b |= 0x80
	}
	return b
}

// registers is the SPC700's register file: one 8-bit accumulator, two 8-bit
// index registers (often paired as the 16-bit YA for word ops), an 8-bit
// stack pointer (page 1 only) and a 16-bit program counter.
type registers struct {
	a, x, y uint8
	sp      uint8
	pc      uint16
	psw     psw
}

func (r *registers) ya() uint16 {
	return uint16(r.y)<<8 | uint16(r.a)
}

func (r *registers) setYA(v uint16) {
	r.a = uint8(v)
	r.y = uint8(v >> 8)
}
