package ppu

import (
	"testing"

	"gones/internal/cartridge"
)

// stubCart is a minimal Cartridge for PPU unit tests: flat 8KiB CHR RAM,
// fixed mirroring.
type stubCart struct {
	chr    [0x2000]uint8
	mirror cartridge.Mirror
}

func (s *stubCart) PPURead(addr uint16) (uint8, bool)  { return s.chr[addr&0x1FFF], true }
func (s *stubCart) PPUWrite(addr uint16, v uint8) bool { s.chr[addr&0x1FFF] = v; return true }
func (s *stubCart) Mirroring() cartridge.Mirror        { return s.mirror }

func newTestPPU() (*PPU, *stubCart) {
	cart := &stubCart{mirror: cartridge.MirrorVertical}
	p := New()
	p.ConnectCartridge(cart)
	return p, cart
}

func tickFrame(p *PPU) {
	for !p.FrameComplete() {
		p.Tick()
	}
	p.frameComplete = false
}

func TestStatusReadClearsVBlankAndLatch(t *testing.T) {
	p, _ := newTestPPU()
	p.status = 0x80
	p.addressLatch = true
	got := p.CPURead(0x2002)
	if got&0x80 == 0 {
		t.Fatalf("expected VBlank bit in returned status")
	}
	if p.status&0x80 != 0 {
		t.Fatalf("expected VBlank bit cleared after read")
	}
	if p.addressLatch {
		t.Fatalf("expected address latch cleared after $2002 read")
	}
}

func TestVramAddrWriteTwoStepLatch(t *testing.T) {
	p, _ := newTestPPU()
	p.CPUWrite(0x2006, 0x21)
	p.CPUWrite(0x2006, 0x05)
	if p.vramAddr != 0x2105 {
		t.Fatalf("expected vramAddr 0x2105, got %#x", p.vramAddr)
	}
}

func TestDataWriteIncrementsByOneOrThirtyTwo(t *testing.T) {
	p, cart := newTestPPU()
	p.CPUWrite(0x2006, 0x00)
	p.CPUWrite(0x2006, 0x10) // vramAddr = 0x0010 (CHR range)
	p.CPUWrite(0x2007, 0xAB)
	if cart.chr[0x0010] != 0xAB {
		t.Fatalf("expected CHR write to land at 0x0010")
	}
	if p.vramAddr != 0x0011 {
		t.Fatalf("expected vramAddr to increment by 1, got %#x", p.vramAddr)
	}

	p.ctrl |= 0x04
	p.CPUWrite(0x2007, 0xCD)
	if p.vramAddr != 0x0011+32 {
		t.Fatalf("expected vramAddr to increment by 32, got %#x", p.vramAddr)
	}
}

func TestReadBufferSurvivesInterveningRegisterWrites(t *testing.T) {
	p, cart := newTestPPU()
	cart.chr[0x0010] = 0xAB

	p.CPUWrite(0x2006, 0x00)
	p.CPUWrite(0x2006, 0x10) // vramAddr = 0x0010
	p.CPURead(0x2007)        // primes the buffered read (returns stale value)

	// Writes to other registers must not disturb the primed read buffer.
	p.CPUWrite(0x2000, 0xFF)
	p.CPUWrite(0x2001, 0xFF)
	p.CPUWrite(0x2005, 0x00)

	if got := p.CPURead(0x2007); got != 0xAB {
		t.Fatalf("expected buffered $2007 read to still return 0xAB, got %#x", got)
	}
}

func TestDataBusTracksLastRegisterAccessNotReadBuffer(t *testing.T) {
	p, _ := newTestPPU()
	p.CPUWrite(0x2000, 0x7E) // drives dataBus but must not touch readBuffer
	if got := p.CPURead(0x2001); got != 0x7E {
		t.Fatalf("expected default-case read to return last dataBus value 0x7E, got %#x", got)
	}
}

func TestNametableMirroringVertical(t *testing.T) {
	p, _ := newTestPPU()
	p.writeVRAM(0x2000, 0x11)
	if p.readVRAM(0x2800) != 0x11 {
		t.Fatalf("expected vertical mirroring to alias $2000 and $2800")
	}
	if p.readVRAM(0x2400) == 0x11 {
		t.Fatalf("expected $2400 to be a distinct physical table under vertical mirroring")
	}
}

func TestPaletteMirrorAliases(t *testing.T) {
	p, _ := newTestPPU()
	p.writeVRAM(0x3F00, 0x20)
	if p.readVRAM(0x3F10) != 0x20 {
		t.Fatalf("expected $3F10 to alias the universal background color")
	}
}

func TestVBlankSetAndNMIRequested(t *testing.T) {
	p, _ := newTestPPU()
	p.ctrl = 0x80 // NMI enable
	p.scanline = vblankScanline
	p.cycle = 1
	p.Tick()
	if p.status&0x80 == 0 {
		t.Fatalf("expected VBlank flag set at scanline 241 cycle 1")
	}
	if !p.NMIRequested() {
		t.Fatalf("expected NMI requested when ctrl bit 7 set")
	}
}

func TestFrameWraps(t *testing.T) {
	p, _ := newTestPPU()
	tickFrame(p)
	if p.scanline != 0 || p.cycle != 0 {
		t.Fatalf("expected wraparound to scanline 0 cycle 0, got scanline=%d cycle=%d", p.scanline, p.cycle)
	}
}

func TestSprite0HitDetection(t *testing.T) {
	p, cart := newTestPPU()
	p.mask = 0x1E // show background + sprites, leftmost 8 pixels included

	// Background tile 1 at nametable origin, pattern with a solid low-plane row.
	p.writeVRAM(0x2000, 0x01)
	cart.chr[0x11] = 0xFF // tile 1, row 1 low plane (scanline 1), all bits set

	// Sprite 0 at (0,0), tile 0, same pattern table.
	p.oam[0] = 0   // Y
	p.oam[1] = 0   // tile
	p.oam[2] = 0   // attrs
	p.oam[3] = 0   // X
	cart.chr[0x00] = 0xFF

	p.renderScanline(1) // sprite Y=0 means it's drawn starting scanline 1
	if p.status&0x40 == 0 {
		t.Fatalf("expected sprite-0 hit to be set")
	}
}
