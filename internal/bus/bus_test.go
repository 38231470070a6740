package bus

import (
	"testing"

	"gones/internal/cartridge"
	"gones/internal/input"
)

// buildNROM constructs a minimal one-bank NROM iNES image with a reset
// vector pointing at 0x8000 and CHR RAM (zero CHR banks declared).
func buildNROM() []byte {
	data := make([]byte, 16+16*1024)
	copy(data[0:4], []byte("NES\x1a"))
	data[4] = 1 // 1x16KB PRG bank
	data[5] = 0 // CHR RAM
	prg := data[16:]
	prg[0x3FFC] = 0x00 // reset vector low, mirrored from 0xFFFC
	prg[0x3FFD] = 0x80 // reset vector high -> 0x8000
	return data
}

func newTestBus(t *testing.T) *Bus {
	t.Helper()
	b := New()
	cart, err := cartridge.Load(buildNROM())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	b.LoadCartridge(cart)
	b.Reset()
	return b
}

func TestRAMMirroring(t *testing.T) {
	b := newTestBus(t)
	b.Write(0x0000, 0x42)
	if v := b.Read(0x0800); v != 0x42 {
		t.Fatalf("expected RAM mirror at 0x0800 to read 0x42, got %#x", v)
	}
	if v := b.Read(0x1800); v != 0x42 {
		t.Fatalf("expected RAM mirror at 0x1800 to read 0x42, got %#x", v)
	}
}

func TestPPURegisterMirroring(t *testing.T) {
	b := newTestBus(t)
	b.Write(0x2000, 0x80) // NMI enable via $2000 mirror
	b.Write(0x2008, 0x00) // mirrors back to $2000
	// No direct getter for ctrl; verify indirectly through a status read
	// not panicking and the bus routing reaching the PPU at all mirrors.
	_ = b.Read(0x3FFF)
}

func TestOpenBusRetainsLastValue(t *testing.T) {
	b := newTestBus(t)
	b.Write(0x00FF, 0x37)
	b.Read(0x00FF)
	if v := b.Read(0x4017); v != 0x37 {
		t.Fatalf("expected unmapped read to return open-bus latch, got %#x want %#x", v, 0x37)
	}
}

func TestControllerStrobeAndShift(t *testing.T) {
	b := newTestBus(t)
	b.SetButton(input.ButtonA, true)
	b.Write(0x4016, 0x01) // strobe high latches state
	b.Write(0x4016, 0x00) // strobe low freezes the shift register
	if v := b.Read(0x4016) & 0x01; v != 1 {
		t.Fatalf("expected first controller read to report A pressed, got %d", v)
	}
	if v := b.Read(0x4016) & 0x01; v != 0 {
		t.Fatalf("expected second controller read to report B (not pressed), got %d", v)
	}
}

func TestOAMDMATransfersAllBytesAndStalls(t *testing.T) {
	b := newTestBus(t)
	for i := 0; i < 256; i++ {
		b.ram[i] = uint8(i)
	}
	b.Write(0x4014, 0x00) // DMA from page 0x00
	if !b.dmaActive {
		t.Fatalf("expected DMA to be active immediately after $4014 write")
	}
	for b.dmaActive {
		b.serviceDMACycle()
	}
	if b.dmaIndex != 512 {
		t.Fatalf("expected DMA to consume 512 sub-cycles, got %d", b.dmaIndex)
	}
}

func TestOAMDMAStallIncludesOddCycleParity(t *testing.T) {
	// Even parity: fresh reset, CPU.Cycles() == 0.
	bEven := newTestBus(t)
	bEven.startOAMDMA(0x00)
	if got, want := bEven.CPU.StallCycles(), 513; got != want {
		t.Fatalf("expected %d stall cycles at even parity, got %d", want, got)
	}

	// Odd parity: the ROM's first byte at the reset vector is 0x00 (BRK,
	// 7 cycles), so one Step lands CPU.Cycles() on 7 (odd).
	bOdd := newTestBus(t)
	bOdd.CPU.Step()
	if parity := bOdd.CPU.Cycles() & 1; parity != 1 {
		t.Fatalf("expected odd cycle count after one BRK step, got %d cycles", bOdd.CPU.Cycles())
	}
	bOdd.startOAMDMA(0x00)
	if got, want := bOdd.CPU.StallCycles(), 514; got != want {
		t.Fatalf("expected %d stall cycles at odd parity, got %d", want, got)
	}
}

func TestStepFrameCompletesAndAcknowledgeFrameClearsFlag(t *testing.T) {
	b := newTestBus(t)
	b.StepFrame()
	if !b.PPU.FrameComplete() {
		t.Fatalf("expected StepFrame to leave a completed frame")
	}
	b.PPU.AcknowledgeFrame()
	if b.PPU.FrameComplete() {
		t.Fatalf("expected AcknowledgeFrame to clear the flag")
	}
}

func TestWriteTo4017SetsBusLevelIRQPending(t *testing.T) {
	b := newTestBus(t)
	b.Write(0x4017, 0x00) // bit 6 clear -> IRQ enabled, asserts the line
	if !b.irqPending {
		t.Fatalf("expected $4017 write with bit 6 clear to set irqPending")
	}
	b.Write(0x4017, 0x40) // bit 6 set -> IRQ inhibited, deasserts the line
	if b.irqPending {
		t.Fatalf("expected $4017 write with bit 6 set to clear irqPending")
	}
}

func TestCartridgeReadsThroughToProgramROM(t *testing.T) {
	b := newTestBus(t)
	if v := b.Read(0xFFFC); v != 0x00 {
		t.Fatalf("expected reset vector low byte 0x00, got %#x", v)
	}
	if v := b.Read(0xFFFD); v != 0x80 {
		t.Fatalf("expected reset vector high byte 0x80, got %#x", v)
	}
}
