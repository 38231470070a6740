package cartridge

import "testing"

func buildINES(mapperID uint8, prgBanks, chrBanks uint8, mirrorVertical bool) []byte {
	flags6 := (mapperID & 0x0F) << 4
	if mirrorVertical {
		flags6 |= 0x01
	}
	flags7 := mapperID & 0xF0
	header := []byte{'N', 'E', 'S', 0x1A, prgBanks, chrBanks, flags6, flags7, 0, 0, 0, 0, 0, 0, 0, 0}
	buf := append([]byte(nil), header...)
	buf = append(buf, make([]byte, int(prgBanks)*prgBankSize)...)
	buf = append(buf, make([]byte, int(chrBanks)*chrBankSize)...)
	return buf
}

func TestLoadRejectsBadMagic(t *testing.T) {
	data := buildINES(0, 1, 1, false)
	data[0] = 'X'
	if _, err := Load(data); err == nil {
		t.Fatalf("expected error for bad magic")
	}
}

func TestLoadRejectsTruncated(t *testing.T) {
	data := buildINES(0, 2, 1, false)
	data = data[:len(data)-10]
	if _, err := Load(data); err == nil {
		t.Fatalf("expected error for truncated image")
	}
}

func TestLoadRejectsUnsupportedMapper(t *testing.T) {
	data := buildINES(4, 1, 1, false)
	if _, err := Load(data); err == nil {
		t.Fatalf("expected error for unsupported mapper")
	}
}

func TestLoadZeroCHRBanksAllocatesRAM(t *testing.T) {
	data := buildINES(0, 1, 0, false)
	cart, err := Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cart.hasChrRAM {
		t.Fatalf("expected hasChrRAM true for zero CHR banks")
	}
	if len(cart.chrROM) != chrBankSize {
		t.Fatalf("expected %d bytes of CHR RAM, got %d", chrBankSize, len(cart.chrROM))
	}
}

func TestPRGRAMRoundTrip(t *testing.T) {
	cart, err := Load(buildINES(0, 1, 1, false))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for addr := uint16(0x6000); addr < 0x8000; addr += 0x123 {
		cart.CPUWrite(addr, uint8(addr))
		got, ok := cart.CPURead(addr)
		if !ok || got != uint8(addr) {
			t.Fatalf("PRG-RAM round trip failed at %#x: got %#x ok=%v", addr, got, ok)
		}
	}
}

func TestNROMMirrorsSixteenKB(t *testing.T) {
	data := buildINES(0, 1, 1, false)
	data[16] = 0x42 // first byte of PRG bank
	cart, err := Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	low, _ := cart.CPURead(0x8000)
	high, _ := cart.CPURead(0xC000)
	if low != 0x42 || high != 0x42 {
		t.Fatalf("expected mirrored 16KB bank, got low=%#x high=%#x", low, high)
	}
}

func TestMirroringFlag(t *testing.T) {
	cart, err := Load(buildINES(0, 1, 1, true))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cart.Mirroring() != MirrorVertical {
		t.Fatalf("expected vertical mirroring")
	}
}
