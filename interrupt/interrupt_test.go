package interrupt

import "testing"

func TestNMIEdgeAndAck(t *testing.T) {
	s := New()
	s.SetNMIEnable(true)
	s.RaiseNMI()

	if !s.Pending() {
		t.Fatal("expected NMI pending after RaiseNMI with enable set")
	}
	if s.Pending() {
		t.Fatal("expected NMI pending to clear after first observation")
	}

	// $4210 reads: first returns the flag, second does not.
	if !s.AckNMI() {
		t.Error("first AckNMI() = false, want true")
	}
	if s.AckNMI() {
		t.Error("second AckNMI() = true, want false")
	}
}

func TestHVIRQDisableClearsLine(t *testing.T) {
	s := New()
	s.SetHVIRQMode(HVIRQHVMatch)
	s.RaiseIRQ()
	if !s.IRQLine() {
		t.Fatal("expected IRQ line set")
	}
	s.SetHVIRQMode(HVIRQNone)
	if s.IRQLine() {
		t.Error("expected IRQ line cleared when mode disabled")
	}
}

func TestAckIRQClearsLatch(t *testing.T) {
	s := New()
	s.RaiseIRQ()
	if !s.AckIRQ() {
		t.Fatal("expected AckIRQ to report the latched line")
	}
	if s.AckIRQ() {
		t.Error("expected AckIRQ to clear the latch")
	}
}
