// Package interrupt holds the NMI and H/V-IRQ enable bits, latched flags and
// pending flags shared between the PPU (which raises them) and the CPU
// (which services them at instruction boundaries only).
// https://wiki.superfamicom.org/grog's-guide-to-irqs,-nmi-and-interrupts-in-general
package interrupt

// HVIRQMode selects how $4200 bits 4-5 gate the H/V IRQ.
type HVIRQMode uint8

const (
	HVIRQNone HVIRQMode = iota
	HVIRQHMatch
	HVIRQVMatch
	HVIRQHVMatch
)

// State is the NMI/IRQ latch and enable block shared by the PPU and CPU.
// NMI is edge-triggered: the PPU sets the flag at VBlank entry, and a CPU
// read of $4210 (Ack) clears it and surfaces the edge exactly once via
// Pending. IRQ is level-sensitive but latched until read.
type State struct {
	nmiEnable bool
	nmiFlag   bool
	nmiRaise  bool

	hvMode  HVIRQMode
	hTarget uint16
	vTarget uint16
	irqLine bool

	autoJoypadEnable bool
}

// New returns interrupt state with everything disabled, matching reset.
func New() *State {
	return &State{}
}

// SetNMIEnable updates $4200 bit 7. Toggling enable while the flag is
// already set re-arms the pending edge, so that enabling NMI with VBlank
// already latched fires immediately.
func (s *State) SetNMIEnable(on bool) {
	prev := s.nmiFlag && s.nmiEnable
	s.nmiEnable = on
	if !prev && s.nmiEnable && s.nmiFlag {
		s.nmiRaise = true
	}
}

func (s *State) NMIEnable() bool { return s.nmiEnable }

// RaiseNMI is called by the PPU at VBlank entry (x=0, y=225).
func (s *State) RaiseNMI() {
	prev := s.nmiFlag && s.nmiEnable
	s.nmiFlag = true
	if !prev && s.nmiEnable {
		s.nmiRaise = true
	}
}

// ClearNMIFlag is called by the PPU when VBlank ends (x=1, y=0).
func (s *State) ClearNMIFlag() {
	s.nmiFlag = false
}

// AckNMI implements the read-to-clear semantics of $4210: the first read
// after the edge returns the latched flag and clears it; a second read with
// no intervening NMI returns false.
func (s *State) AckNMI() bool {
	flag := s.nmiFlag
	s.nmiFlag = false
	return flag
}

// Pending reports (and clears) the edge-triggered NMI request the CPU
// samples at instruction boundaries.
func (s *State) Pending() bool {
	ret := s.nmiRaise
	s.nmiRaise = false
	return ret
}

// SetHVIRQMode updates $4200 bits 4-5. Disabling the mode immediately drops
// any latched IRQ line.
func (s *State) SetHVIRQMode(m HVIRQMode) {
	s.hvMode = m
	if m == HVIRQNone {
		s.irqLine = false
	}
}

func (s *State) HVIRQMode() HVIRQMode { return s.hvMode }

func (s *State) SetHTarget(v uint16) { s.hTarget = v }
func (s *State) SetVTarget(v uint16) { s.vTarget = v }
func (s *State) HTarget() uint16     { return s.hTarget }
func (s *State) VTarget() uint16     { return s.vTarget }

// RaiseIRQ latches the IRQ line; it stays set until AckIRQ is called.
func (s *State) RaiseIRQ() { s.irqLine = true }

// IRQLine reports the current level without clearing it (used by the CPU to
// decide whether to service IRQ on this instruction boundary).
func (s *State) IRQLine() bool { return s.irqLine }

// AckIRQ implements $4211's read-to-clear semantics.
func (s *State) AckIRQ() bool {
	v := s.irqLine
	s.irqLine = false
	return v
}

func (s *State) SetAutoJoypadEnable(on bool) { s.autoJoypadEnable = on }
func (s *State) AutoJoypadEnable() bool      { return s.autoJoypadEnable }
