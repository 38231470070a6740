// Package cpu implements a cycle-accurate 6502 interpreter: the full
// official instruction set, the documented illegal/undocumented opcodes,
// hardware addressing-mode quirks (page-wrap indirect JMP, dummy reads and
// writes on indexed/read-modify-write accesses), and interrupt sequencing.
package cpu

// AddressingMode tags how an instruction's operand address is formed.
type AddressingMode uint8

const (
	Implied AddressingMode = iota
	Accumulator
	Immediate
	ZeroPage
	ZeroPageX
	ZeroPageY
	Relative
	Absolute
	AbsoluteX
	AbsoluteY
	Indirect
	IndexedIndirect // (zp,X)
	IndirectIndexed // (zp),Y
)

// AccessKind tags how an instruction touches its operand, which in turn
// governs dummy-read/dummy-write bus traffic and the page-cross cycle
// penalty (SPEC_FULL.md §4.2).
type AccessKind uint8

const (
	AccessImplied AccessKind = iota
	AccessRead
	AccessWrite
	AccessRMW
)

// Status register bit masks, matching SPEC_FULL.md §3 exactly.
const (
	flagC uint8 = 0x01
	flagZ uint8 = 0x02
	flagI uint8 = 0x04
	flagD uint8 = 0x08
	flagB uint8 = 0x10
	flagU uint8 = 0x20
	flagV uint8 = 0x40
	flagN uint8 = 0x80
)

const (
	stackBase   = 0x0100
	nmiVector   = 0xFFFA
	resetVector = 0xFFFC
	irqVector   = 0xFFFE
)

// Memory is the bus-facing interface the CPU reads and writes through.
type Memory interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// Instruction is one entry of the 256-slot opcode table.
type Instruction struct {
	Name    string
	Mode    AddressingMode
	Access  AccessKind
	Cycles  uint8
	Operate func(c *CPU, addr uint16)
}

// CPU holds the 6502 register file plus decode scratch state.
type CPU struct {
	A, X, Y, SP uint8
	PC          uint16

	C, Z, I, D, V, N bool // status bits (B and U are synthesized on push/pull)

	mem Memory

	cycleCounter uint64 // total cycles executed; low bit feeds DMA parity
	instructions [256]Instruction

	nmiPending bool
	irqLine    bool

	// decode scratch, named to match SPEC_FULL.md §3
	opcode   uint8
	baseHigh uint8 // high byte of the pre-index base address

	stallCycles int
}

// New creates a CPU wired to the given bus-facing memory.
func New(mem Memory) *CPU {
	c := &CPU{mem: mem}
	c.buildInstructionTable()
	return c
}

// RequestStall adds cycles the CPU must spend idle servicing OAM DMA,
// per SPEC_FULL.md §4.2/§4.5.
func (c *CPU) RequestStall(cycles int) {
	c.stallCycles += cycles
}

// Cycles reports the running total of cycles executed.
func (c *CPU) Cycles() uint64 { return c.cycleCounter }

// StallCycles reports the number of cycles still owed to OAM DMA, for
// tests and debug tooling.
func (c *CPU) StallCycles() int { return c.stallCycles }

// Registers is a point-in-time snapshot of the programmer-visible CPU
// state, used by debug tooling.
type Registers struct {
	A, X, Y, SP uint8
	PC          uint16
	N, V, D, I, Z, C bool
}

// GetRegisters snapshots the current register file and status flags.
func (c *CPU) GetRegisters() Registers {
	return Registers{
		A: c.A, X: c.X, Y: c.Y, SP: c.SP, PC: c.PC,
		N: c.N, V: c.V, D: c.D, I: c.I, Z: c.Z, C: c.C,
	}
}

// SetRegisters restores a previously captured register snapshot.
func (c *CPU) SetRegisters(r Registers) {
	c.A, c.X, c.Y, c.SP, c.PC = r.A, r.X, r.Y, r.SP, r.PC
	c.N, c.V, c.D, c.I, c.Z, c.C = r.N, r.V, r.D, r.I, r.Z, r.C
}

// Reset loads PC from the reset vector and sets the documented power-up
// register state (SPEC_FULL.md §3): P == 0x24, i.e. only I and the
// always-set U bit are active, B is clear.
func (c *CPU) Reset() {
	c.A, c.X, c.Y = 0, 0, 0
	c.SP = 0xFD
	c.C, c.Z, c.D, c.V, c.N = false, false, false, false, false
	c.I = true
	low := uint16(c.mem.Read(resetVector))
	high := uint16(c.mem.Read(resetVector + 1))
	c.PC = high<<8 | low
}

// NMI latches a pending non-maskable interrupt, serviced at the next
// instruction boundary.
func (c *CPU) NMI() { c.nmiPending = true }

// IRQ sets the level-sensitive IRQ line state.
func (c *CPU) IRQ(asserted bool) { c.irqLine = asserted }

func boolBit(b bool, mask uint8) uint8 {
	if b {
		return mask
	}
	return 0
}

// StatusByte packs the flags into P, per SPEC_FULL.md §3's bit layout.
// breakBit lets the push site choose B: PHP/BRK push B=1, a hardware
// interrupt entry pushes B=0. U is always 1.
func (c *CPU) StatusByte(breakBit bool) uint8 {
	s := boolBit(c.N, flagN) | boolBit(c.V, flagV) | flagU | boolBit(c.D, flagD) |
		boolBit(c.I, flagI) | boolBit(c.Z, flagZ) | boolBit(c.C, flagC)
	if breakBit {
		s |= flagB
	}
	return s
}

// SetStatusByte unpacks P into the flags. B and U are not stored as
// register state; PLP behaves as if U were always 1.
func (c *CPU) SetStatusByte(s uint8) {
	c.N = s&flagN != 0
	c.V = s&flagV != 0
	c.D = s&flagD != 0
	c.I = s&flagI != 0
	c.Z = s&flagZ != 0
	c.C = s&flagC != 0
}

func (c *CPU) setZN(v uint8) {
	c.Z = v == 0
	c.N = v&0x80 != 0
}

func (c *CPU) push(v uint8) {
	c.mem.Write(stackBase+uint16(c.SP), v)
	c.SP--
}

func (c *CPU) pop() uint8 {
	c.SP++
	return c.mem.Read(stackBase + uint16(c.SP))
}

func (c *CPU) pushWord(v uint16) {
	c.push(uint8(v >> 8))
	c.push(uint8(v))
}

func (c *CPU) popWord() uint16 {
	lo := uint16(c.pop())
	hi := uint16(c.pop())
	return hi<<8 | lo
}

// Step consumes one DMA stall cycle if one is pending; otherwise it
// fetches, decodes, and executes one instruction, samples the IRQ line,
// and returns the number of CPU cycles consumed.
func (c *CPU) Step() uint64 {
	if c.stallCycles > 0 {
		c.stallCycles--
		c.cycleCounter++
		return 1
	}

	c.opcode = c.mem.Read(c.PC)
	inst := &c.instructions[c.opcode]

	addr, extra := c.resolveAddress(inst)
	before := c.cycleCounter
	inst.Operate(c, addr)
	c.cycleCounter += uint64(inst.Cycles + extra)
	total := c.cycleCounter - before

	c.pollInterrupts()
	return total
}

func (c *CPU) pollInterrupts() {
	if c.nmiPending {
		c.nmiPending = false
		c.serviceInterrupt(nmiVector)
		return
	}
	if c.irqLine && !c.I {
		c.serviceInterrupt(irqVector)
	}
}

func (c *CPU) serviceInterrupt(vector uint16) {
	c.pushWord(c.PC)
	c.push(c.StatusByte(false))
	c.I = true
	low := uint16(c.mem.Read(vector))
	high := uint16(c.mem.Read(vector + 1))
	c.PC = high<<8 | low
}

// isUnstableStore reports whether opcode is one of the five store
// opcodes whose effective address never propagates an indexing carry
// into the high byte (SPEC_FULL.md §4.2): SHA (zp),Y / abs,Y, SHX abs,X,
// SHY abs,X, and TAS abs,Y.
func isUnstableStore(opcode uint8) bool {
	switch opcode {
	case 0x93, 0x9F, 0x9B, 0x9C, 0x9E:
		return true
	}
	return false
}

// resolveAddress decodes the operand address for inst, advances PC past
// the instruction, performs any hardware dummy reads the access kind
// requires, and returns the page-cross cycle penalty (read accesses only).
func (c *CPU) resolveAddress(inst *Instruction) (uint16, uint8) {
	switch inst.Mode {
	case Implied, Accumulator:
		c.PC++
		return 0, 0

	case Immediate:
		addr := c.PC + 1
		c.PC += 2
		return addr, 0

	case ZeroPage:
		addr := uint16(c.mem.Read(c.PC + 1))
		c.PC += 2
		return addr, 0

	case ZeroPageX:
		base := c.mem.Read(c.PC + 1)
		c.PC += 2
		c.mem.Read(uint16(base)) // dummy read of unindexed zero page address
		return uint16(base + c.X), 0

	case ZeroPageY:
		base := c.mem.Read(c.PC + 1)
		c.PC += 2
		c.mem.Read(uint16(base))
		return uint16(base + c.Y), 0

	case Relative:
		offset := int8(c.mem.Read(c.PC + 1))
		c.PC += 2
		return uint16(int32(c.PC) + int32(offset)), 0

	case Absolute:
		lo := uint16(c.mem.Read(c.PC + 1))
		hi := uint16(c.mem.Read(c.PC + 2))
		c.PC += 3
		return hi<<8 | lo, 0

	case AbsoluteX:
		return c.resolveIndexed(c.X, inst.Access, 3)

	case AbsoluteY:
		return c.resolveIndexed(c.Y, inst.Access, 3)

	case Indirect:
		lo := uint16(c.mem.Read(c.PC + 1))
		hi := uint16(c.mem.Read(c.PC + 2))
		ptr := hi<<8 | lo
		c.PC += 3
		addrLo := uint16(c.mem.Read(ptr))
		var addrHi uint16
		if ptr&0xFF == 0xFF {
			addrHi = uint16(c.mem.Read(ptr & 0xFF00)) // page-wrap bug
		} else {
			addrHi = uint16(c.mem.Read(ptr + 1))
		}
		return addrHi<<8 | addrLo, 0

	case IndexedIndirect:
		zp := c.mem.Read(c.PC + 1)
		c.PC += 2
		c.mem.Read(uint16(zp)) // dummy read before X is added
		zp += c.X
		lo := uint16(c.mem.Read(uint16(zp)))
		hi := uint16(c.mem.Read(uint16(zp + 1)))
		return hi<<8 | lo, 0

	case IndirectIndexed:
		zp := c.mem.Read(c.PC + 1)
		c.PC += 2
		lo := uint16(c.mem.Read(uint16(zp)))
		hi := uint16(c.mem.Read(uint16(zp + 1)))
		base := hi<<8 | lo
		return c.indexFrom(base, c.Y, inst.Access)

	default:
		return 0, 0
	}
}

func (c *CPU) resolveIndexed(idx uint8, access AccessKind, instrBytes uint16) (uint16, uint8) {
	lo := uint16(c.mem.Read(c.PC + 1))
	hi := uint16(c.mem.Read(c.PC + 2))
	base := hi<<8 | lo
	c.PC += instrBytes
	return c.indexFrom(base, idx, access)
}

// indexFrom applies index register idx to base, performing the dummy
// read at the un-carried address when the access kind requires it, and
// returning the page-cross penalty for read accesses only.
func (c *CPU) indexFrom(base uint16, idx uint8, access AccessKind) (uint16, uint8) {
	c.baseHigh = uint8(base >> 8)
	addr := base + uint16(idx)
	pageCrossed := base&0xFF00 != addr&0xFF00

	if isUnstableStore(c.opcode) {
		addr = base&0xFF00 | (addr & 0xFF)
	}

	if access == AccessWrite || access == AccessRMW || (access == AccessRead && pageCrossed) {
		dummy := base&0xFF00 | (addr & 0xFF)
		c.mem.Read(dummy)
	}
	if access == AccessRead && pageCrossed {
		return addr, 1
	}
	return addr, 0
}
