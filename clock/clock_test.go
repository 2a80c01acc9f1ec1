package clock

import "testing"

func TestElapseIsMonotonic(t *testing.T) {
	c := New()
	if c.Now() != 0 {
		t.Fatalf("Now() = %d, want 0", c.Now())
	}

	c.Elapse(6)
	c.Elapse(8)

	if got := c.Now(); got != 14 {
		t.Errorf("Now() = %d, want 14", got)
	}
}

func TestFrameDuration(t *testing.T) {
	// A full NTSC frame is 4 * 340 * 262 master clocks.
	want := uint64(MasterPerDot * DotsPerLine * LinesPerFrame)
	if want != 356320 {
		t.Fatalf("frame duration constant drifted: %d", want)
	}
}
