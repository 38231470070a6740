package input

import "testing"

func TestStrobeHighRepeatsButtonA(t *testing.T) {
	c := New()
	c.SetButton(ButtonA, true)
	c.Write(1)
	for i := 0; i < 3; i++ {
		if got := c.Read(); got != 1 {
			t.Fatalf("read %d: expected 1 with strobe high, got %d", i, got)
		}
	}
}

func TestStrobeToggleReadsEightBitsLSBFirst(t *testing.T) {
	c := New()
	// A, Start pressed: bits 0 and 3 set -> 0b0000_1001.
	c.SetButton(ButtonA, true)
	c.SetButton(ButtonStart, true)
	c.Write(1)
	c.Write(0)

	want := []uint8{1, 0, 0, 1, 0, 0, 0, 0}
	for i, w := range want {
		if got := c.Read(); got != w {
			t.Fatalf("bit %d: want %d got %d", i, w, got)
		}
	}
}

func TestReset(t *testing.T) {
	c := New()
	c.SetButton(ButtonB, true)
	c.Write(1)
	c.Reset()
	if c.IsPressed(ButtonB) {
		t.Fatalf("expected buttons cleared after reset")
	}
}
