package apu

// addrMode enumerates the SPC700's operand-addressing forms. A handful of
// two-operand modes (dp-to-dp, immediate-to-dp, indirect-to-indirect) are
// resolved specially by the instructions that use them rather than through
// resolve, since each side needs a different wrap rule.
type addrMode int

const (
	modeImmediate addrMode = iota
	modeDirectPage
	modeXIndexedDirectPage
	modeYIndexedDirectPage
	modeIndirectX
	modeIndirectY
	modeIndirectAutoIncrement
	modeAbsolute
	modeXIndexedAbsolute
	modeYIndexedAbsolute
	modeXIndexedIndirect
	modeIndirectYIndexedIndirect
)

// wrapKind controls how address arithmetic wraps: direct-page-relative
// addressing wraps within its 256-byte page (preserving the page-select
// bit set by the P flag), everything else wraps across the full 64KiB
// address space.
type wrapKind int

const (
	wrapNone wrapKind = iota
	wrap8
)

type wrapAddr struct {
	addr uint16
	kind wrapKind
}

func (w wrapAddr) offset(n uint16) wrapAddr {
	if w.kind == wrap8 {
		return wrapAddr{addr: (w.addr & 0xFF00) | ((w.addr + n) & 0xFF), kind: wrap8}
	}
	return wrapAddr{addr: w.addr + n, kind: wrapNone}
}

func (c *APU) directPageBase() uint16 {
	if c.regs.psw.p {
		return 0x100
	}
	return 0
}

// resolve computes the effective address for mode, consuming operand bytes
// from the instruction stream and billing wait-state cycles for each
// access along the way.
func (c *APU) resolve(mode addrMode) wrapAddr {
	switch mode {
	case modeImmediate:
		addr := c.regs.pc
		c.regs.pc++
		return wrapAddr{addr: addr, kind: wrap8}
	case modeDirectPage:
		addr := c.directPageBase() | uint16(c.fetch8())
		return wrapAddr{addr: addr, kind: wrap8}
	case modeXIndexedDirectPage:
		addr := c.directPageBase() | uint16(c.fetch8()+c.regs.x)
		c.cycles += c.io.waitIOROM
		return wrapAddr{addr: addr, kind: wrap8}
	case modeYIndexedDirectPage:
		addr := c.directPageBase() | uint16(c.fetch8()+c.regs.y)
		return wrapAddr{addr: addr, kind: wrap8}
	case modeIndirectX:
		addr := c.directPageBase() | uint16(c.regs.x)
		c.cycles += c.io.waitRAM
		return wrapAddr{addr: addr, kind: wrap8}
	case modeIndirectY:
		addr := c.directPageBase() | uint16(c.regs.y)
		c.cycles += c.io.waitIOROM
		return wrapAddr{addr: addr, kind: wrap8}
	case modeIndirectAutoIncrement:
		addr := c.directPageBase() | uint16(c.regs.x)
		c.cycles += c.io.waitRAM
		c.regs.x++
		return wrapAddr{addr: addr, kind: wrap8}
	case modeAbsolute:
		return wrapAddr{addr: c.fetch16(), kind: wrapNone}
	case modeXIndexedAbsolute:
		addr := c.fetch16() + uint16(c.regs.x)
		c.cycles += c.io.waitIOROM
		return wrapAddr{addr: addr, kind: wrapNone}
	case modeYIndexedAbsolute:
		addr := c.fetch16() + uint16(c.regs.y)
		c.cycles += c.io.waitIOROM
		return wrapAddr{addr: addr, kind: wrapNone}
	case modeXIndexedIndirect:
		ptr := wrapAddr{addr: c.directPageBase() | uint16(c.fetch8()+c.regs.x), kind: wrapNone}
		addr := c.read16(ptr)
		c.cycles += c.io.waitIOROM
		return wrapAddr{addr: addr, kind: wrapNone}
	case modeIndirectYIndexedIndirect:
		ptr := wrapAddr{addr: c.directPageBase() | uint16(c.fetch8()), kind: wrapNone}
		c.cycles += c.io.waitIOROM
		addr := c.read16(ptr) + uint16(c.regs.y)
		return wrapAddr{addr: addr, kind: wrapNone}
	default:
		panic("apu: unhandled addressing mode")
	}
}
