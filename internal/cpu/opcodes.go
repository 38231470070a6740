package cpu

// buildInstructionTable populates all 256 opcode slots: the official
// instruction set plus the documented illegal opcodes. Unassigned slots
// default to a two-cycle NOP-like jam stand-in (real silicon jams; no NES
// game relies on executing one, so treating it as a cheap no-op is safe).

type entry struct {
	opcode uint8
	name   string
	mode   AddressingMode
	access AccessKind
	cycles uint8
	fn     func(c *CPU, addr uint16)
}

func (c *CPU) buildInstructionTable() {
	for i := range c.instructions {
		c.instructions[i] = Instruction{Name: "KIL", Mode: Implied, Access: AccessImplied, Cycles: 2, Operate: opNOP}
	}
	for _, e := range opcodeTable {
		c.instructions[e.opcode] = Instruction{Name: e.name, Mode: e.mode, Access: e.access, Cycles: e.cycles, Operate: e.fn}
	}
}

const (
	imp = Implied
	acc = Accumulator
	imm = Immediate
	zp  = ZeroPage
	zpx = ZeroPageX
	zpy = ZeroPageY
	rel = Relative
	abs = Absolute
	abx = AbsoluteX
	aby = AbsoluteY
	ind = Indirect
	izx = IndexedIndirect
	izy = IndirectIndexed

	rd = AccessRead
	wr = AccessWrite
	rw = AccessRMW
	im = AccessImplied
)

var opcodeTable = []entry{
	// Load/store
	{0xA9, "LDA", imm, rd, 2, opLDA}, {0xA5, "LDA", zp, rd, 3, opLDA}, {0xB5, "LDA", zpx, rd, 4, opLDA},
	{0xAD, "LDA", abs, rd, 4, opLDA}, {0xBD, "LDA", abx, rd, 4, opLDA}, {0xB9, "LDA", aby, rd, 4, opLDA},
	{0xA1, "LDA", izx, rd, 6, opLDA}, {0xB1, "LDA", izy, rd, 5, opLDA},

	{0xA2, "LDX", imm, rd, 2, opLDX}, {0xA6, "LDX", zp, rd, 3, opLDX}, {0xB6, "LDX", zpy, rd, 4, opLDX},
	{0xAE, "LDX", abs, rd, 4, opLDX}, {0xBE, "LDX", aby, rd, 4, opLDX},

	{0xA0, "LDY", imm, rd, 2, opLDY}, {0xA4, "LDY", zp, rd, 3, opLDY}, {0xB4, "LDY", zpx, rd, 4, opLDY},
	{0xAC, "LDY", abs, rd, 4, opLDY}, {0xBC, "LDY", abx, rd, 4, opLDY},

	{0x85, "STA", zp, wr, 3, opSTA}, {0x95, "STA", zpx, wr, 4, opSTA}, {0x8D, "STA", abs, wr, 4, opSTA},
	{0x9D, "STA", abx, wr, 5, opSTA}, {0x99, "STA", aby, wr, 5, opSTA}, {0x81, "STA", izx, wr, 6, opSTA},
	{0x91, "STA", izy, wr, 6, opSTA},

	{0x86, "STX", zp, wr, 3, opSTX}, {0x96, "STX", zpy, wr, 4, opSTX}, {0x8E, "STX", abs, wr, 4, opSTX},
	{0x84, "STY", zp, wr, 3, opSTY}, {0x94, "STY", zpx, wr, 4, opSTY}, {0x8C, "STY", abs, wr, 4, opSTY},

	// Transfers
	{0xAA, "TAX", imp, im, 2, opTAX}, {0x8A, "TXA", imp, im, 2, opTXA},
	{0xA8, "TAY", imp, im, 2, opTAY}, {0x98, "TYA", imp, im, 2, opTYA},
	{0xBA, "TSX", imp, im, 2, opTSX}, {0x9A, "TXS", imp, im, 2, opTXS},

	// Stack
	{0x48, "PHA", imp, im, 3, opPHA}, {0x68, "PLA", imp, im, 4, opPLA},
	{0x08, "PHP", imp, im, 3, opPHP}, {0x28, "PLP", imp, im, 4, opPLP},

	// Arithmetic
	{0x69, "ADC", imm, rd, 2, opADC}, {0x65, "ADC", zp, rd, 3, opADC}, {0x75, "ADC", zpx, rd, 4, opADC},
	{0x6D, "ADC", abs, rd, 4, opADC}, {0x7D, "ADC", abx, rd, 4, opADC}, {0x79, "ADC", aby, rd, 4, opADC},
	{0x61, "ADC", izx, rd, 6, opADC}, {0x71, "ADC", izy, rd, 5, opADC},

	{0xE9, "SBC", imm, rd, 2, opSBC}, {0xE5, "SBC", zp, rd, 3, opSBC}, {0xF5, "SBC", zpx, rd, 4, opSBC},
	{0xED, "SBC", abs, rd, 4, opSBC}, {0xFD, "SBC", abx, rd, 4, opSBC}, {0xF9, "SBC", aby, rd, 4, opSBC},
	{0xE1, "SBC", izx, rd, 6, opSBC}, {0xF1, "SBC", izy, rd, 5, opSBC}, {0xEB, "SBC", imm, rd, 2, opSBC},

	// Logic
	{0x29, "AND", imm, rd, 2, opAND}, {0x25, "AND", zp, rd, 3, opAND}, {0x35, "AND", zpx, rd, 4, opAND},
	{0x2D, "AND", abs, rd, 4, opAND}, {0x3D, "AND", abx, rd, 4, opAND}, {0x39, "AND", aby, rd, 4, opAND},
	{0x21, "AND", izx, rd, 6, opAND}, {0x31, "AND", izy, rd, 5, opAND},

	{0x09, "ORA", imm, rd, 2, opORA}, {0x05, "ORA", zp, rd, 3, opORA}, {0x15, "ORA", zpx, rd, 4, opORA},
	{0x0D, "ORA", abs, rd, 4, opORA}, {0x1D, "ORA", abx, rd, 4, opORA}, {0x19, "ORA", aby, rd, 4, opORA},
	{0x01, "ORA", izx, rd, 6, opORA}, {0x11, "ORA", izy, rd, 5, opORA},

	{0x49, "EOR", imm, rd, 2, opEOR}, {0x45, "EOR", zp, rd, 3, opEOR}, {0x55, "EOR", zpx, rd, 4, opEOR},
	{0x4D, "EOR", abs, rd, 4, opEOR}, {0x5D, "EOR", abx, rd, 4, opEOR}, {0x59, "EOR", aby, rd, 4, opEOR},
	{0x41, "EOR", izx, rd, 6, opEOR}, {0x51, "EOR", izy, rd, 5, opEOR},

	{0x24, "BIT", zp, rd, 3, opBIT}, {0x2C, "BIT", abs, rd, 4, opBIT},

	// Shifts/rotates (accumulator + memory RMW)
	{0x0A, "ASL", acc, im, 2, opASLAcc}, {0x06, "ASL", zp, rw, 5, opASL}, {0x16, "ASL", zpx, rw, 6, opASL},
	{0x0E, "ASL", abs, rw, 6, opASL}, {0x1E, "ASL", abx, rw, 7, opASL},

	{0x4A, "LSR", acc, im, 2, opLSRAcc}, {0x46, "LSR", zp, rw, 5, opLSR}, {0x56, "LSR", zpx, rw, 6, opLSR},
	{0x4E, "LSR", abs, rw, 6, opLSR}, {0x5E, "LSR", abx, rw, 7, opLSR},

	{0x2A, "ROL", acc, im, 2, opROLAcc}, {0x26, "ROL", zp, rw, 5, opROL}, {0x36, "ROL", zpx, rw, 6, opROL},
	{0x2E, "ROL", abs, rw, 6, opROL}, {0x3E, "ROL", abx, rw, 7, opROL},

	{0x6A, "ROR", acc, im, 2, opRORAcc}, {0x66, "ROR", zp, rw, 5, opROR}, {0x76, "ROR", zpx, rw, 6, opROR},
	{0x6E, "ROR", abs, rw, 6, opROR}, {0x7E, "ROR", abx, rw, 7, opROR},

	// Increment/decrement
	{0xE6, "INC", zp, rw, 5, opINC}, {0xF6, "INC", zpx, rw, 6, opINC}, {0xEE, "INC", abs, rw, 6, opINC},
	{0xFE, "INC", abx, rw, 7, opINC},
	{0xC6, "DEC", zp, rw, 5, opDEC}, {0xD6, "DEC", zpx, rw, 6, opDEC}, {0xCE, "DEC", abs, rw, 6, opDEC},
	{0xDE, "DEC", abx, rw, 7, opDEC},
	{0xE8, "INX", imp, im, 2, opINX}, {0xCA, "DEX", imp, im, 2, opDEX},
	{0xC8, "INY", imp, im, 2, opINY}, {0x88, "DEY", imp, im, 2, opDEY},

	// Compare
	{0xC9, "CMP", imm, rd, 2, opCMP}, {0xC5, "CMP", zp, rd, 3, opCMP}, {0xD5, "CMP", zpx, rd, 4, opCMP},
	{0xCD, "CMP", abs, rd, 4, opCMP}, {0xDD, "CMP", abx, rd, 4, opCMP}, {0xD9, "CMP", aby, rd, 4, opCMP},
	{0xC1, "CMP", izx, rd, 6, opCMP}, {0xD1, "CMP", izy, rd, 5, opCMP},
	{0xE0, "CPX", imm, rd, 2, opCPX}, {0xE4, "CPX", zp, rd, 3, opCPX}, {0xEC, "CPX", abs, rd, 4, opCPX},
	{0xC0, "CPY", imm, rd, 2, opCPY}, {0xC4, "CPY", zp, rd, 3, opCPY}, {0xCC, "CPY", abs, rd, 4, opCPY},

	// Branches
	{0x90, "BCC", rel, im, 2, opBCC}, {0xB0, "BCS", rel, im, 2, opBCS},
	{0xD0, "BNE", rel, im, 2, opBNE}, {0xF0, "BEQ", rel, im, 2, opBEQ},
	{0x10, "BPL", rel, im, 2, opBPL}, {0x30, "BMI", rel, im, 2, opBMI},
	{0x50, "BVC", rel, im, 2, opBVC}, {0x70, "BVS", rel, im, 2, opBVS},

	// Jumps/subroutines
	{0x4C, "JMP", abs, im, 3, opJMP}, {0x6C, "JMP", ind, im, 5, opJMP},
	{0x20, "JSR", abs, im, 6, opJSR}, {0x60, "RTS", imp, im, 6, opRTS}, {0x40, "RTI", imp, im, 6, opRTI},

	// Flags
	{0x18, "CLC", imp, im, 2, opCLC}, {0x38, "SEC", imp, im, 2, opSEC},
	{0x58, "CLI", imp, im, 2, opCLI}, {0x78, "SEI", imp, im, 2, opSEI},
	{0xB8, "CLV", imp, im, 2, opCLV}, {0xD8, "CLD", imp, im, 2, opCLD}, {0xF8, "SED", imp, im, 2, opSED},

	{0xEA, "NOP", imp, im, 2, opNOP}, {0x00, "BRK", imp, im, 7, opBRK},

	// Illegal: combined load
	{0xA7, "LAX", zp, rd, 3, opLAX}, {0xB7, "LAX", zpy, rd, 4, opLAX}, {0xAF, "LAX", abs, rd, 4, opLAX},
	{0xBF, "LAX", aby, rd, 4, opLAX}, {0xA3, "LAX", izx, rd, 6, opLAX}, {0xB3, "LAX", izy, rd, 5, opLAX},
	{0xAB, "LXA", imm, rd, 2, opLXA},

	{0x87, "SAX", zp, wr, 3, opSAX}, {0x97, "SAX", zpy, wr, 4, opSAX}, {0x8F, "SAX", abs, wr, 4, opSAX},
	{0x83, "SAX", izx, wr, 6, opSAX},

	// Illegal RMW combos
	{0xC7, "DCP", zp, rw, 5, opDCP}, {0xD7, "DCP", zpx, rw, 6, opDCP}, {0xCF, "DCP", abs, rw, 6, opDCP},
	{0xDF, "DCP", abx, rw, 7, opDCP}, {0xDB, "DCP", aby, rw, 7, opDCP}, {0xC3, "DCP", izx, rw, 8, opDCP},
	{0xD3, "DCP", izy, rw, 8, opDCP},

	{0xE7, "ISC", zp, rw, 5, opISC}, {0xF7, "ISC", zpx, rw, 6, opISC}, {0xEF, "ISC", abs, rw, 6, opISC},
	{0xFF, "ISC", abx, rw, 7, opISC}, {0xFB, "ISC", aby, rw, 7, opISC}, {0xE3, "ISC", izx, rw, 8, opISC},
	{0xF3, "ISC", izy, rw, 8, opISC},

	{0x07, "SLO", zp, rw, 5, opSLO}, {0x17, "SLO", zpx, rw, 6, opSLO}, {0x0F, "SLO", abs, rw, 6, opSLO},
	{0x1F, "SLO", abx, rw, 7, opSLO}, {0x1B, "SLO", aby, rw, 7, opSLO}, {0x03, "SLO", izx, rw, 8, opSLO},
	{0x13, "SLO", izy, rw, 8, opSLO},

	{0x27, "RLA", zp, rw, 5, opRLA}, {0x37, "RLA", zpx, rw, 6, opRLA}, {0x2F, "RLA", abs, rw, 6, opRLA},
	{0x3F, "RLA", abx, rw, 7, opRLA}, {0x3B, "RLA", aby, rw, 7, opRLA}, {0x23, "RLA", izx, rw, 8, opRLA},
	{0x33, "RLA", izy, rw, 8, opRLA},

	{0x47, "SRE", zp, rw, 5, opSRE}, {0x57, "SRE", zpx, rw, 6, opSRE}, {0x4F, "SRE", abs, rw, 6, opSRE},
	{0x5F, "SRE", abx, rw, 7, opSRE}, {0x5B, "SRE", aby, rw, 7, opSRE}, {0x43, "SRE", izx, rw, 8, opSRE},
	{0x53, "SRE", izy, rw, 8, opSRE},

	{0x67, "RRA", zp, rw, 5, opRRA}, {0x77, "RRA", zpx, rw, 6, opRRA}, {0x6F, "RRA", abs, rw, 6, opRRA},
	{0x7F, "RRA", abx, rw, 7, opRRA}, {0x7B, "RRA", aby, rw, 7, opRRA}, {0x63, "RRA", izx, rw, 8, opRRA},
	{0x73, "RRA", izy, rw, 8, opRRA},

	// Illegal: immediate accumulator combos
	{0x0B, "ANC", imm, rd, 2, opANC}, {0x2B, "ANC", imm, rd, 2, opANC},
	{0x4B, "ALR", imm, rd, 2, opALR}, {0x6B, "ARR", imm, rd, 2, opARR},
	{0x8B, "ANE", imm, rd, 2, opANE}, {0xCB, "AXS", imm, rd, 2, opAXS},

	// Illegal: unstable high-byte stores
	{0x9F, "SHA", aby, wr, 5, opSHA}, {0x93, "SHA", izy, wr, 6, opSHA},
	{0x9E, "SHX", abx, wr, 5, opSHX}, {0x9C, "SHY", abx, wr, 5, opSHY},
	{0x9B, "TAS", aby, wr, 5, opTAS}, {0xBB, "LAS", aby, rd, 4, opLAS},

	// Illegal NOPs (documented cycle counts, no side effects beyond the
	// addressing mode's own dummy reads)
	{0x1A, "NOP", imp, im, 2, opNOP}, {0x3A, "NOP", imp, im, 2, opNOP}, {0x5A, "NOP", imp, im, 2, opNOP},
	{0x7A, "NOP", imp, im, 2, opNOP}, {0xDA, "NOP", imp, im, 2, opNOP}, {0xFA, "NOP", imp, im, 2, opNOP},
	{0x80, "NOP", imm, rd, 2, opNOP}, {0x82, "NOP", imm, rd, 2, opNOP}, {0x89, "NOP", imm, rd, 2, opNOP},
	{0xC2, "NOP", imm, rd, 2, opNOP}, {0xE2, "NOP", imm, rd, 2, opNOP},
	{0x04, "NOP", zp, rd, 3, opNOP}, {0x44, "NOP", zp, rd, 3, opNOP}, {0x64, "NOP", zp, rd, 3, opNOP},
	{0x14, "NOP", zpx, rd, 4, opNOP}, {0x34, "NOP", zpx, rd, 4, opNOP}, {0x54, "NOP", zpx, rd, 4, opNOP},
	{0x74, "NOP", zpx, rd, 4, opNOP}, {0xD4, "NOP", zpx, rd, 4, opNOP}, {0xF4, "NOP", zpx, rd, 4, opNOP},
	{0x0C, "NOP", abs, rd, 4, opNOP},
	{0x1C, "NOP", abx, rd, 4, opNOP}, {0x3C, "NOP", abx, rd, 4, opNOP}, {0x5C, "NOP", abx, rd, 4, opNOP},
	{0x7C, "NOP", abx, rd, 4, opNOP}, {0xDC, "NOP", abx, rd, 4, opNOP}, {0xFC, "NOP", abx, rd, 4, opNOP},
}

// --- Load/store ---

func opLDA(c *CPU, addr uint16) { c.A = c.mem.Read(addr); c.setZN(c.A) }
func opLDX(c *CPU, addr uint16) { c.X = c.mem.Read(addr); c.setZN(c.X) }
func opLDY(c *CPU, addr uint16) { c.Y = c.mem.Read(addr); c.setZN(c.Y) }
func opSTA(c *CPU, addr uint16) { c.mem.Write(addr, c.A) }
func opSTX(c *CPU, addr uint16) { c.mem.Write(addr, c.X) }
func opSTY(c *CPU, addr uint16) { c.mem.Write(addr, c.Y) }

// --- Transfers ---

func opTAX(c *CPU, _ uint16) { c.X = c.A; c.setZN(c.X) }
func opTXA(c *CPU, _ uint16) { c.A = c.X; c.setZN(c.A) }
func opTAY(c *CPU, _ uint16) { c.Y = c.A; c.setZN(c.Y) }
func opTYA(c *CPU, _ uint16) { c.A = c.Y; c.setZN(c.A) }
func opTSX(c *CPU, _ uint16) { c.X = c.SP; c.setZN(c.X) }
func opTXS(c *CPU, _ uint16) { c.SP = c.X }

// --- Stack ---

func opPHA(c *CPU, _ uint16) { c.push(c.A) }
func opPLA(c *CPU, _ uint16) { c.A = c.pop(); c.setZN(c.A) }
func opPHP(c *CPU, _ uint16) { c.push(c.StatusByte(true)) }
func opPLP(c *CPU, _ uint16) { c.SetStatusByte(c.pop()) }

// --- Arithmetic ---

func (c *CPU) addWithCarry(v uint8) {
	carryIn := uint16(0)
	if c.C {
		carryIn = 1
	}
	sum := uint16(c.A) + uint16(v) + carryIn
	c.V = (^(uint16(c.A) ^ uint16(v)) & (uint16(c.A) ^ sum) & 0x80) != 0
	c.C = sum > 0xFF
	c.A = uint8(sum)
	c.setZN(c.A)
}

func opADC(c *CPU, addr uint16) { c.addWithCarry(c.mem.Read(addr)) }
func opSBC(c *CPU, addr uint16) { c.addWithCarry(^c.mem.Read(addr)) }

// --- Logic ---

func opAND(c *CPU, addr uint16) { c.A &= c.mem.Read(addr); c.setZN(c.A) }
func opORA(c *CPU, addr uint16) { c.A |= c.mem.Read(addr); c.setZN(c.A) }
func opEOR(c *CPU, addr uint16) { c.A ^= c.mem.Read(addr); c.setZN(c.A) }

func opBIT(c *CPU, addr uint16) {
	v := c.mem.Read(addr)
	c.Z = c.A&v == 0
	c.V = v&flagV != 0
	c.N = v&flagN != 0
}

// --- Shifts/rotates ---

func opASLAcc(c *CPU, _ uint16) { c.C = c.A&0x80 != 0; c.A <<= 1; c.setZN(c.A) }
func opLSRAcc(c *CPU, _ uint16) { c.C = c.A&0x01 != 0; c.A >>= 1; c.setZN(c.A) }

func opROLAcc(c *CPU, _ uint16) {
	carryIn := boolBit(c.C, 1)
	c.C = c.A&0x80 != 0
	c.A = c.A<<1 | carryIn
	c.setZN(c.A)
}

func opRORAcc(c *CPU, _ uint16) {
	carryIn := boolBit(c.C, 0x80)
	c.C = c.A&0x01 != 0
	c.A = c.A>>1 | carryIn
	c.setZN(c.A)
}

// rmw performs the read-dummyWrite-write sequence real 6502 silicon does
// for every memory read-modify-write instruction, then applies op to the
// read value and returns the result for the caller to finish with.
func (c *CPU) rmw(addr uint16, op func(uint8) uint8) uint8 {
	v := c.mem.Read(addr)
	c.mem.Write(addr, v) // dummy write of the unmodified value
	nv := op(v)
	c.mem.Write(addr, nv)
	return nv
}

func opASL(c *CPU, addr uint16) {
	c.rmw(addr, func(v uint8) uint8 {
		c.C = v&0x80 != 0
		r := v << 1
		c.setZN(r)
		return r
	})
}

func opLSR(c *CPU, addr uint16) {
	c.rmw(addr, func(v uint8) uint8 {
		c.C = v&0x01 != 0
		r := v >> 1
		c.setZN(r)
		return r
	})
}

func opROL(c *CPU, addr uint16) {
	c.rmw(addr, func(v uint8) uint8 {
		carryIn := boolBit(c.C, 1)
		c.C = v&0x80 != 0
		r := v<<1 | carryIn
		c.setZN(r)
		return r
	})
}

func opROR(c *CPU, addr uint16) {
	c.rmw(addr, func(v uint8) uint8 {
		carryIn := boolBit(c.C, 0x80)
		c.C = v&0x01 != 0
		r := v>>1 | carryIn
		c.setZN(r)
		return r
	})
}

func opINC(c *CPU, addr uint16) {
	c.rmw(addr, func(v uint8) uint8 { r := v + 1; c.setZN(r); return r })
}

func opDEC(c *CPU, addr uint16) {
	c.rmw(addr, func(v uint8) uint8 { r := v - 1; c.setZN(r); return r })
}

func opINX(c *CPU, _ uint16) { c.X++; c.setZN(c.X) }
func opDEX(c *CPU, _ uint16) { c.X--; c.setZN(c.X) }
func opINY(c *CPU, _ uint16) { c.Y++; c.setZN(c.Y) }
func opDEY(c *CPU, _ uint16) { c.Y--; c.setZN(c.Y) }

// --- Compare ---

func (c *CPU) compare(reg, v uint8) {
	r := reg - v
	c.C = reg >= v
	c.setZN(r)
}

func opCMP(c *CPU, addr uint16) { c.compare(c.A, c.mem.Read(addr)) }
func opCPX(c *CPU, addr uint16) { c.compare(c.X, c.mem.Read(addr)) }
func opCPY(c *CPU, addr uint16) { c.compare(c.Y, c.mem.Read(addr)) }

// --- Branches ---

// branch applies the page-cross/taken cycle penalties described in
// SPEC_FULL.md §4.2: +1 cycle if taken, +1 more if the branch crosses a
// page boundary.
func (c *CPU) branch(cond bool, target uint16) {
	if !cond {
		return
	}
	oldPC := c.PC
	c.PC = target
	c.cycleCounter++
	if oldPC&0xFF00 != target&0xFF00 {
		c.cycleCounter++
	}
}

func opBCC(c *CPU, addr uint16) { c.branch(!c.C, addr) }
func opBCS(c *CPU, addr uint16) { c.branch(c.C, addr) }
func opBNE(c *CPU, addr uint16) { c.branch(!c.Z, addr) }
func opBEQ(c *CPU, addr uint16) { c.branch(c.Z, addr) }
func opBPL(c *CPU, addr uint16) { c.branch(!c.N, addr) }
func opBMI(c *CPU, addr uint16) { c.branch(c.N, addr) }
func opBVC(c *CPU, addr uint16) { c.branch(!c.V, addr) }
func opBVS(c *CPU, addr uint16) { c.branch(c.V, addr) }

// --- Jumps/subroutines ---

func opJMP(c *CPU, addr uint16) { c.PC = addr }

func opJSR(c *CPU, addr uint16) {
	c.pushWord(c.PC - 1)
	c.PC = addr
}

func opRTS(c *CPU, _ uint16) { c.PC = c.popWord() + 1 }

func opRTI(c *CPU, _ uint16) {
	c.SetStatusByte(c.pop())
	c.PC = c.popWord()
}

// --- Flags ---

func opCLC(c *CPU, _ uint16) { c.C = false }
func opSEC(c *CPU, _ uint16) { c.C = true }
func opCLI(c *CPU, _ uint16) { c.I = false }
func opSEI(c *CPU, _ uint16) { c.I = true }
func opCLV(c *CPU, _ uint16) { c.V = false }
func opCLD(c *CPU, _ uint16) { c.D = false }
func opSED(c *CPU, _ uint16) { c.D = true }

func opNOP(c *CPU, addr uint16) {
	if c.instructions[c.opcode].Access == AccessRead {
		c.mem.Read(addr) // illegal NOPs with an operand still read it
	}
}

func opBRK(c *CPU, _ uint16) {
	c.PC++ // BRK's operand byte is skipped, per the padding byte convention
	c.pushWord(c.PC)
	c.push(c.StatusByte(true))
	c.I = true
	low := uint16(c.mem.Read(irqVector))
	high := uint16(c.mem.Read(irqVector + 1))
	c.PC = high<<8 | low
}

// --- Illegal opcodes ---

func opLAX(c *CPU, addr uint16) {
	v := c.mem.Read(addr)
	c.A, c.X = v, v
	c.setZN(v)
}

func opSAX(c *CPU, addr uint16) { c.mem.Write(addr, c.A&c.X) }

func opDCP(c *CPU, addr uint16) {
	r := c.rmw(addr, func(v uint8) uint8 { return v - 1 })
	c.compare(c.A, r)
}

func opISC(c *CPU, addr uint16) {
	r := c.rmw(addr, func(v uint8) uint8 { return v + 1 })
	c.addWithCarry(^r)
}

func opSLO(c *CPU, addr uint16) {
	r := c.rmw(addr, func(v uint8) uint8 { c.C = v&0x80 != 0; return v << 1 })
	c.A |= r
	c.setZN(c.A)
}

func opRLA(c *CPU, addr uint16) {
	r := c.rmw(addr, func(v uint8) uint8 {
		carryIn := boolBit(c.C, 1)
		c.C = v&0x80 != 0
		return v<<1 | carryIn
	})
	c.A &= r
	c.setZN(c.A)
}

func opSRE(c *CPU, addr uint16) {
	r := c.rmw(addr, func(v uint8) uint8 { c.C = v&0x01 != 0; return v >> 1 })
	c.A ^= r
	c.setZN(c.A)
}

func opRRA(c *CPU, addr uint16) {
	r := c.rmw(addr, func(v uint8) uint8 {
		carryIn := boolBit(c.C, 0x80)
		c.C = v&0x01 != 0
		return v>>1 | carryIn
	})
	c.addWithCarry(r)
}

// ANC: AND with immediate, then copy N into C (as if the result had been
// rotated into the carry on original hardware).
func opANC(c *CPU, addr uint16) {
	c.A &= c.mem.Read(addr)
	c.setZN(c.A)
	c.C = c.N
}

// ALR (a.k.a. ASR): AND with immediate, then logical shift right.
func opALR(c *CPU, addr uint16) {
	c.A &= c.mem.Read(addr)
	c.C = c.A&0x01 != 0
	c.A >>= 1
	c.setZN(c.A)
}

// ARR: AND with immediate, then rotate right; C and V end up set from
// bits 6 and 5 of the rotated result rather than the shifted-out bit.
func opARR(c *CPU, addr uint16) {
	c.A &= c.mem.Read(addr)
	carryIn := boolBit(c.C, 0x80)
	c.A = c.A>>1 | carryIn
	c.setZN(c.A)
	c.C = c.A&0x40 != 0
	c.V = ((c.A>>6)^(c.A>>5))&1 != 0
}

// ANE (a.k.a. XAA): highly unstable on real hardware; modeled with the
// commonly observed magic constant 0xEE.
func opANE(c *CPU, addr uint16) {
	c.A = (c.A | 0xEE) & c.X & c.mem.Read(addr)
	c.setZN(c.A)
}

// LXA: unstable LDA+LDX combination, modeled with the same magic constant.
func opLXA(c *CPU, addr uint16) {
	v := (c.A | 0xEE) & c.mem.Read(addr)
	c.A, c.X = v, v
	c.setZN(v)
}

// AXS (a.k.a. SBX): X = (A & X) - immediate, without borrow-in; C is set
// when no borrow occurred.
func opAXS(c *CPU, addr uint16) {
	v := c.mem.Read(addr)
	base := c.A & c.X
	c.C = base >= v
	c.X = base - v
	c.setZN(c.X)
}

// SHA/SHX/SHY/TAS: unstable stores whose written value ANDs the register
// with (effective address high byte + 1). The address arithmetic that
// drops the indexing carry is handled in indexFrom.
func (c *CPU) unstableHighByte() uint8 { return c.baseHigh + 1 }

func opSHA(c *CPU, addr uint16) { c.mem.Write(addr, c.A&c.X&c.unstableHighByte()) }
func opSHX(c *CPU, addr uint16) { c.mem.Write(addr, c.X&c.unstableHighByte()) }
func opSHY(c *CPU, addr uint16) { c.mem.Write(addr, c.Y&c.unstableHighByte()) }

func opTAS(c *CPU, addr uint16) {
	c.SP = c.A & c.X
	c.mem.Write(addr, c.SP&c.unstableHighByte())
}

// LAS: AND memory with SP, loading the result into A, X, and SP.
func opLAS(c *CPU, addr uint16) {
	v := c.mem.Read(addr) & c.SP
	c.A, c.X, c.SP = v, v, v
	c.setZN(v)
}
