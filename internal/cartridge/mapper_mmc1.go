package cartridge

// mmc1 implements mapper 1: a 5-bit serial shift register loads one of
// four internal registers (control, chrBank0, chrBank1, prgBank) on its
// fifth write. See SPEC_FULL.md §4.1 and the MMC1 entries in §8.
type mmc1 struct {
	cart *Cartridge

	shift      uint8
	shiftCount uint8

	control  uint8
	chrBank0 uint8
	chrBank1 uint8
	prgBank  uint8

	prgBanks int
}

func newMMC1(cart *Cartridge) *mmc1 {
	return &mmc1{
		cart:     cart,
		shift:    0x10,
		control:  0x0C,
		prgBanks: len(cart.prgROM) / prgBankSize,
	}
}

func (m *mmc1) applyControl(value uint8) {
	m.control = value
	if value&0x03 == 3 {
		m.cart.mirroring = MirrorHorizontal
	} else {
		// Single-screen A/B (mirror bits 0/1) collapse to vertical here;
		// a known limitation carried from the distillation source.
		m.cart.mirroring = MirrorVertical
	}
}

func (m *mmc1) CPURead(addr uint16) (uint8, bool) {
	if addr < 0x8000 {
		return 0, false
	}
	prgMode := (m.control >> 2) & 0x03
	bank := int(m.prgBank & 0x0F)
	var mapped int

	switch prgMode {
	case 0, 1:
		bank32 := bank &^ 1
		if addr < 0xC000 {
			mapped = bank32*prgBankSize + int(addr-0x8000)
		} else {
			mapped = (bank32+1)*prgBankSize + int(addr-0xC000)
		}
	case 2:
		if addr < 0xC000 {
			mapped = int(addr - 0x8000)
		} else {
			mapped = (bank%m.prgBanks)*prgBankSize + int(addr-0xC000)
		}
	default: // 3
		if addr < 0xC000 {
			mapped = (bank%m.prgBanks)*prgBankSize + int(addr-0x8000)
		} else {
			mapped = (m.prgBanks-1)*prgBankSize + int(addr-0xC000)
		}
	}

	if mapped < 0 || mapped >= len(m.cart.prgROM) {
		return 0, false
	}
	return m.cart.prgROM[mapped], true
}

func (m *mmc1) CPUWrite(addr uint16, data uint8) bool {
	if addr < 0x8000 {
		return false
	}
	if data&0x80 != 0 {
		m.shift = 0x10
		m.shiftCount = 0
		m.control |= 0x0C
		return true
	}

	m.shift = (m.shift >> 1) | ((data & 0x01) << 4)
	m.shiftCount++
	if m.shiftCount == 5 {
		value := m.shift
		switch (addr >> 13) & 0x03 {
		case 0:
			m.applyControl(value)
		case 1:
			m.chrBank0 = value
		case 2:
			m.chrBank1 = value
		case 3:
			m.prgBank = value
		}
		m.shift = 0x10
		m.shiftCount = 0
	}
	return true
}

func (m *mmc1) chrOffset(addr uint16) int {
	if (m.control>>4)&1 == 0 {
		bank := int(m.chrBank0 & 0x1E)
		return bank*4096 + int(addr)
	}
	if addr < 0x1000 {
		return int(m.chrBank0)*4096 + int(addr)
	}
	return int(m.chrBank1)*4096 + int(addr-0x1000)
}

func (m *mmc1) PPURead(addr uint16) (uint8, bool) {
	if addr >= 0x2000 {
		return 0, false
	}
	mapped := m.chrOffset(addr)
	if mapped < 0 || mapped >= len(m.cart.chrROM) {
		return 0, false
	}
	return m.cart.chrROM[mapped], true
}

func (m *mmc1) PPUWrite(addr uint16, data uint8) bool {
	if !m.cart.hasChrRAM || addr >= 0x2000 {
		return false
	}
	mapped := m.chrOffset(addr)
	if mapped < 0 || mapped >= len(m.cart.chrROM) {
		return false
	}
	m.cart.chrROM[mapped] = data
	return true
}
