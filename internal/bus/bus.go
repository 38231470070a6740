// Package bus wires the CPU, PPU, APU, cartridge, and controller together
// into the NES memory-mapped address space, including open-bus semantics
// and the OAM DMA sequencer.
package bus

import (
	"gones/internal/apu"
	"gones/internal/cartridge"
	"gones/internal/cpu"
	"gones/internal/input"
	"gones/internal/ppu"
)

const ramSize = 0x800

// Bus ties the four subsystems together and implements cpu.Memory.
type Bus struct {
	CPU *cpu.CPU
	PPU *ppu.PPU
	APU *apu.APU

	cart       *cartridge.Cartridge
	controller *input.Controller

	ram [ramSize]uint8

	openBus uint8

	dmaActive bool
	dmaPage   uint8
	dmaIndex  int
	dmaData   uint8

	// irqPending is the bus-level IRQ line driven by 0x4017 writes: every
	// write sets it to (data&0x40)==0, independent of the APU frame-counter
	// phase (SPEC_FULL.md §4.5/§9).
	irqPending bool

	frameCount uint64
}

// CPUState is a point-in-time CPU register/flag snapshot, used by debug
// tooling.
type CPUState struct {
	PC     uint16
	A, X, Y, SP uint8
	Cycles uint64
	Flags  CPUFlags
}

// CPUFlags mirrors the 6502 status register's individual bits.
type CPUFlags struct {
	N, V, B, D, I, Z, C bool
}

// PPUState is a point-in-time PPU timing/status snapshot.
type PPUState struct {
	Scanline    int
	Cycle       int
	FrameCount  uint64
	VBlankFlag  bool
	RenderingOn bool
	NMIEnabled  bool
}

// New creates a bus with a fresh CPU/PPU/APU and no cartridge loaded.
func New() *Bus {
	b := &Bus{
		PPU:        ppu.New(),
		APU:        apu.New(),
		controller: input.New(),
	}
	b.CPU = cpu.New(b)
	b.APU.SetReadCallback(b.dmcRead)
	return b
}

// LoadCartridge connects a cartridge to the PPU (CHR/mirroring) and bus
// (PRG/PRG-RAM).
func (b *Bus) LoadCartridge(cart *cartridge.Cartridge) {
	b.cart = cart
	b.PPU.ConnectCartridge(cart)
}

// Controller returns the single wired controller at $4016.
func (b *Bus) Controller() *input.Controller { return b.controller }

// Reset reinitializes CPU/PPU/APU state and the PPU's frame-complete flag.
func (b *Bus) Reset() {
	b.PPU.ResetFrame()
	b.APU.Reset()
	b.controller.Reset()
	b.CPU.Reset()
	b.dmaActive = false
	b.dmaIndex = 0
	b.irqPending = false
	b.frameCount = 0
}

func (b *Bus) dmcRead(addr uint16) uint8 { return b.Read(addr) }

// Read implements cpu.Memory: CPU-side address decode, updating the
// open-bus latch with every returned value (SPEC_FULL.md §4.5).
func (b *Bus) Read(addr uint16) uint8 {
	var v uint8
	switch {
	case addr < 0x2000:
		v = b.ram[addr%ramSize]
	case addr < 0x4000:
		v = b.PPU.CPURead(0x2000 + addr&7)
	case addr == 0x4015:
		v = b.APU.ReadStatus()
	case addr == 0x4016:
		v = b.openBus&0xE0 | b.controller.Read()&0x01
	case addr == 0x4017:
		v = b.openBus
	case addr < 0x4018:
		v = b.openBus
	case addr >= 0x6000 && addr < 0x8000:
		if b.cart != nil {
			if rv, ok := b.cart.CPURead(addr); ok {
				v = rv
			} else {
				v = b.openBus
			}
		} else {
			v = b.openBus
		}
	case addr >= 0x8000:
		if b.cart != nil {
			if rv, ok := b.cart.CPURead(addr); ok {
				v = rv
			} else {
				v = b.openBus
			}
		} else {
			v = b.openBus
		}
	default:
		v = b.openBus
	}
	b.openBus = v
	return v
}

// Write implements cpu.Memory.
func (b *Bus) Write(addr uint16, v uint8) {
	b.openBus = v
	switch {
	case addr < 0x2000:
		b.ram[addr%ramSize] = v
	case addr < 0x4000:
		b.PPU.CPUWrite(0x2000+addr&7, v)
	case addr == 0x4014:
		b.startOAMDMA(v)
	case addr == 0x4015:
		b.APU.CPUWrite(addr, v)
	case addr == 0x4016:
		b.controller.Write(v)
	case addr == 0x4017:
		b.APU.CPUWrite(addr, v)
		b.irqPending = v&0x40 == 0
	case addr < 0x4018:
		b.APU.CPUWrite(addr, v)
	case addr >= 0x6000 && addr < 0x8000:
		if b.cart != nil {
			b.cart.CPUWrite(addr, v)
		}
	case addr >= 0x8000:
		if b.cart != nil {
			b.cart.CPUWrite(addr, v)
		}
	}
}

func (b *Bus) startOAMDMA(page uint8) {
	b.dmaPage = page
	b.dmaActive = true
	b.dmaIndex = 0
	// 512 transfer cycles + 1 alignment cycle, plus one more if the CPU is
	// on an odd cycle when the transfer starts (SPEC_FULL.md §4.5/§8).
	b.CPU.RequestStall(513 + int(b.CPU.Cycles()&1))
}

// serviceDMACycle performs one DMA sub-cycle: even cycles read a byte
// from dmaPage:dmaIndex, odd cycles write it into OAM and advance the
// index (SPEC_FULL.md §4.5).
func (b *Bus) serviceDMACycle() {
	if !b.dmaActive {
		return
	}
	if b.dmaIndex%2 == 0 {
		addr := uint16(b.dmaPage)<<8 | uint16(b.dmaIndex/2)
		b.dmaData = b.Read(addr)
	} else {
		b.PPU.DMAWriteOAM(uint8(b.dmaIndex/2), b.dmaData)
	}
	b.dmaIndex++
	if b.dmaIndex >= 512 {
		b.dmaActive = false
	}
}

// Step runs exactly one CPU instruction (or one stalled cycle), ticking
// the PPU three dots per CPU cycle and the APU one cycle per CPU cycle,
// then services NMI/IRQ at the instruction boundary (SPEC_FULL.md §5).
func (b *Bus) Step() {
	cycles := b.CPU.Step()
	for i := uint64(0); i < cycles; i++ {
		if b.dmaActive {
			b.serviceDMACycle()
		}
		b.PPU.Tick()
		b.PPU.Tick()
		b.PPU.Tick()
		if b.PPU.NMIRequested() {
			b.CPU.NMI()
		}
	}
	b.APU.Step(int(cycles))
	b.CPU.IRQ(b.APU.IRQAsserted() || b.irqPending)
}

// StepFrame runs CPU instructions until the PPU reports a completed
// frame, then clears the flag for the next call without disturbing
// ongoing VBlank/sprite-hit/overflow status.
func (b *Bus) StepFrame() {
	b.PPU.AcknowledgeFrame()
	for !b.PPU.FrameComplete() {
		b.Step()
	}
	b.frameCount++
}

// GetFrameCount returns the number of frames completed via StepFrame.
func (b *Bus) GetFrameCount() uint64 { return b.frameCount }

// GetCycleCount returns the CPU's running cycle counter.
func (b *Bus) GetCycleCount() uint64 { return b.CPU.Cycles() }

// GetCPUState snapshots CPU registers and flags for debugging.
func (b *Bus) GetCPUState() CPUState {
	r := b.CPU.GetRegisters()
	return CPUState{
		PC: r.PC, A: r.A, X: r.X, Y: r.Y, SP: r.SP,
		Cycles: b.CPU.Cycles(),
		Flags:  CPUFlags{N: r.N, V: r.V, D: r.D, I: r.I, Z: r.Z, C: r.C},
	}
}

// GetPPUState snapshots PPU timing and status for debugging.
func (b *Bus) GetPPUState() PPUState {
	return PPUState{
		Scanline:    b.PPU.Scanline(),
		Cycle:       b.PPU.Cycle(),
		FrameCount:  b.frameCount,
		VBlankFlag:  b.PPU.VBlankActive(),
		RenderingOn: b.PPU.RenderingEnabled(),
		NMIEnabled:  b.PPU.NMIEnabled(),
	}
}

// Framebuffer returns the last completed frame's pixel buffer.
func (b *Bus) Framebuffer() *[256 * 240]uint32 { return b.PPU.Framebuffer() }

// APUFillBuffer fills an audio buffer at the given sample rate.
func (b *Bus) APUFillBuffer(sampleRate int, out []float32, count int) {
	b.APU.FillBuffer(sampleRate, out, count)
}

// SetButton sets one controller button's pressed state.
func (b *Bus) SetButton(button input.Button, pressed bool) {
	b.controller.SetButton(button, pressed)
}
