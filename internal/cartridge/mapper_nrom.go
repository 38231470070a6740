package cartridge

// nrom implements mapper 0: no bank switching. 16 KiB PRG images mirror
// across the full 32 KiB CPU window; CHR is either a fixed 8 KiB ROM bank
// or CHR-RAM.
type nrom struct {
	cart     *Cartridge
	prgBanks int
}

func newNROM(cart *Cartridge) *nrom {
	return &nrom{
		cart:     cart,
		prgBanks: len(cart.prgROM) / prgBankSize,
	}
}

func (m *nrom) CPURead(addr uint16) (uint8, bool) {
	if addr < 0x8000 {
		return 0, false
	}
	offset := addr - 0x8000
	if m.prgBanks == 1 {
		offset &= 0x3FFF
	}
	return m.cart.prgROM[offset], true
}

func (m *nrom) CPUWrite(addr uint16, _ uint8) bool {
	return addr >= 0x8000
}

func (m *nrom) PPURead(addr uint16) (uint8, bool) {
	if addr >= 0x2000 {
		return 0, false
	}
	return m.cart.chrROM[addr], true
}

func (m *nrom) PPUWrite(addr uint16, data uint8) bool {
	if addr >= 0x2000 || !m.cart.hasChrRAM {
		return false
	}
	m.cart.chrROM[addr] = data
	return true
}
