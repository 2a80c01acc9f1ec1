package controller

import "testing"

func TestShift16Order(t *testing.T) {
	p := NewPad()
	p.SetButtons(map[Button]bool{B: true, R: true})

	got := p.Shift16()
	want := uint16(1<<15) | uint16(1<<(15-11))
	if got != want {
		t.Errorf("Shift16() = %016b, want %016b", got, want)
	}
}

func TestReadSerialTerminatesHigh(t *testing.T) {
	p := NewPad()
	p.SetButtons(map[Button]bool{B: true})
	p.ResetSerial()

	if got := p.ReadSerial(); got != 1 {
		t.Errorf("first bit (B pressed) = %d, want 1", got)
	}
	for i := 0; i < 15; i++ {
		p.ReadSerial()
	}
	for i := 0; i < 3; i++ {
		if got := p.ReadSerial(); got != 1 {
			t.Errorf("past end of shift register = %d, want 1", got)
		}
	}
}
