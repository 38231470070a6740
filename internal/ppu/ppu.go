// Package ppu implements the NES picture-processing unit: CPU-visible
// registers, VRAM/OAM/palette memory, and a scanline-granularity renderer
// that composites background and sprites once per visible scanline rather
// than dot-by-dot.
package ppu

import "gones/internal/cartridge"

const (
	dotsPerScanline    = 341
	scanlinesPerFrame  = 262
	visibleScanlines   = 240
	visibleDots        = 256
	postRenderScanline = 240
	vblankScanline     = 241
	preRenderScanline  = 261
)

// Cartridge is the PPU's view of the loaded cartridge: CHR access and
// nametable mirroring mode.
type Cartridge interface {
	PPURead(addr uint16) (uint8, bool)
	PPUWrite(addr uint16, data uint8) bool
	Mirroring() cartridge.Mirror
}

// PPU is a 2C02-style picture-processing unit.
type PPU struct {
	ctrl    uint8
	mask    uint8
	status  uint8
	oamAddr uint8

	scrollX, scrollY uint8
	addressLatch     bool
	vramAddr         uint16
	readBuffer       uint8
	dataBus          uint8 // last value driven onto the CPU data bus by any register access

	nametables [0x800]uint8
	palette    [32]uint8
	oam        [256]uint8

	cart Cartridge

	cycle    int
	scanline int

	frameComplete bool
	nmiRequested  bool

	bgColorIndex [visibleDots * visibleScanlines]uint8
	frameBuffer  [visibleDots * visibleScanlines]uint32
}

// New creates a PPU with no cartridge connected.
func New() *PPU {
	p := &PPU{scanline: preRenderScanline}
	return p
}

// ConnectCartridge wires the PPU to the loaded cartridge's CHR/mirroring.
func (p *PPU) ConnectCartridge(cart Cartridge) {
	p.cart = cart
}

// ResetFrame returns the PPU to the pre-render scanline with VBlank and
// hit/overflow flags clear, as at power-on.
func (p *PPU) ResetFrame() {
	p.cycle = 0
	p.scanline = preRenderScanline
	p.frameComplete = false
	p.nmiRequested = false
	p.status = 0
}

// FrameComplete reports whether a full frame has finished rendering since
// the last call to ResetFrame/AcknowledgeFrame.
func (p *PPU) FrameComplete() bool { return p.frameComplete }

// AcknowledgeFrame clears the frame-complete flag without disturbing any
// other PPU state, for the main loop to call once per drained frame.
func (p *PPU) AcknowledgeFrame() { p.frameComplete = false }

// NMIRequested reports whether this tick raised NMI; it is transient and
// the caller must act on it within the same tick (SPEC_FULL.md §4.3).
func (p *PPU) NMIRequested() bool { return p.nmiRequested }

// Scanline reports the current scanline index, for debug tooling.
func (p *PPU) Scanline() int { return p.scanline }

// Cycle reports the current dot index within the scanline.
func (p *PPU) Cycle() int { return p.cycle }

// VBlankActive reports whether the VBlank status bit is currently set.
func (p *PPU) VBlankActive() bool { return p.status&0x80 != 0 }

// RenderingEnabled reports whether background or sprite rendering is on.
func (p *PPU) RenderingEnabled() bool { return p.showBackground() || p.showSprites() }

// NMIEnabled reports whether $2000 bit 7 (NMI-on-VBlank) is set.
func (p *PPU) NMIEnabled() bool { return p.ctrl&0x80 != 0 }

// Framebuffer returns the 256x240 ARGB pixel buffer for the last
// completed frame.
func (p *PPU) Framebuffer() *[visibleDots * visibleScanlines]uint32 { return &p.frameBuffer }

// CPURead handles a CPU read of $2000-$2007 (already demapped from
// mirrors by the bus).
func (p *PPU) CPURead(reg uint16) uint8 {
	switch reg {
	case 0x2002:
		v := p.status&0xE0 | p.dataBus&0x1F
		p.status &^= 0x80
		p.addressLatch = false
		p.dataBus = v
		return v
	case 0x2004:
		p.dataBus = p.oam[p.oamAddr]
		return p.dataBus
	case 0x2007:
		p.dataBus = p.readData()
		return p.dataBus
	default:
		return p.dataBus
	}
}

// CPUWrite handles a CPU write of $2000-$2007.
func (p *PPU) CPUWrite(reg uint16, v uint8) {
	p.dataBus = v
	switch reg {
	case 0x2000:
		p.ctrl = v
	case 0x2001:
		p.mask = v
	case 0x2003:
		p.oamAddr = v
	case 0x2004:
		p.oam[p.oamAddr] = v
		p.oamAddr++
	case 0x2005:
		if !p.addressLatch {
			p.scrollX = v
		} else {
			p.scrollY = v
		}
		p.addressLatch = !p.addressLatch
	case 0x2006:
		if !p.addressLatch {
			p.vramAddr = p.vramAddr&0x00FF | uint16(v)&0x3F<<8
		} else {
			p.vramAddr = p.vramAddr&0xFF00 | uint16(v)
		}
		p.addressLatch = !p.addressLatch
	case 0x2007:
		p.writeData(v)
	}
}

// DMAWriteOAM writes one byte into OAM during an OAM DMA transfer,
// bypassing oamAddr auto-increment semantics tied to $2004.
func (p *PPU) DMAWriteOAM(index uint8, v uint8) {
	p.oam[index] = v
}

func (p *PPU) vramIncrement() uint16 {
	if p.ctrl&0x04 != 0 {
		return 32
	}
	return 1
}

func (p *PPU) readData() uint8 {
	addr := p.vramAddr & 0x3FFF
	var result uint8
	if addr >= 0x3F00 {
		result = p.readVRAM(addr)
		p.readBuffer = p.readVRAM(addr - 0x1000)
	} else {
		result = p.readBuffer
		p.readBuffer = p.readVRAM(addr)
	}
	p.vramAddr += p.vramIncrement()
	return result
}

func (p *PPU) writeData(v uint8) {
	p.writeVRAM(p.vramAddr&0x3FFF, v)
	p.vramAddr += p.vramIncrement()
}

func (p *PPU) readVRAM(addr uint16) uint8 {
	switch {
	case addr < 0x2000:
		if p.cart != nil {
			if v, ok := p.cart.PPURead(addr); ok {
				return v
			}
		}
		return 0
	case addr < 0x3F00:
		return p.nametables[p.mirrorIndex(addr)]
	default:
		return p.palette[paletteIndex(addr)]
	}
}

func (p *PPU) writeVRAM(addr uint16, v uint8) {
	switch {
	case addr < 0x2000:
		if p.cart != nil {
			p.cart.PPUWrite(addr, v)
		}
	case addr < 0x3F00:
		p.nametables[p.mirrorIndex(addr)] = v
	default:
		p.palette[paletteIndex(addr)] = v
	}
}

// mirrorIndex maps a $2000-$3EFF nametable address down to one of the two
// physical 1 KiB tables per the cartridge's mirroring mode.
func (p *PPU) mirrorIndex(addr uint16) uint16 {
	offset := (addr - 0x2000) % 0x1000
	table := offset / 0x400
	within := offset % 0x400

	mirror := cartridge.MirrorHorizontal
	if p.cart != nil {
		mirror = p.cart.Mirroring()
	}

	var physical uint16
	if mirror == cartridge.MirrorVertical {
		physical = table % 2
	} else {
		physical = table / 2
	}
	return physical*0x400 + within
}

// paletteIndex folds the 32-byte palette address space, applying the
// sprite/background aliasing of the four universal-background-color slots.
func paletteIndex(addr uint16) uint16 {
	idx := addr & 0x1F
	switch idx {
	case 0x10, 0x14, 0x18, 0x1C:
		idx &^= 0x10
	}
	return idx
}

// Tick advances the PPU by one dot, rendering a scanline in one shot at
// its first dot, handling VBlank/NMI timing, and flagging frame
// completion on wraparound (SPEC_FULL.md §4.3).
func (p *PPU) Tick() {
	p.nmiRequested = false

	if p.scanline < visibleScanlines && p.cycle == 0 {
		p.renderScanline(p.scanline)
	}
	if p.scanline == vblankScanline && p.cycle == 1 {
		p.status |= 0x80
		if p.ctrl&0x80 != 0 {
			p.nmiRequested = true
		}
	}
	if p.scanline == preRenderScanline && p.cycle == 1 {
		p.status &^= 0xE0 // clear VBlank, sprite-0-hit, sprite-overflow
	}

	p.cycle++
	if p.cycle >= dotsPerScanline {
		p.cycle = 0
		p.scanline++
		if p.scanline > preRenderScanline {
			p.scanline = 0
			p.frameComplete = true
		}
	}
}

func (p *PPU) showBackground() bool { return p.mask&0x08 != 0 }
func (p *PPU) showSprites() bool    { return p.mask&0x10 != 0 }

func (p *PPU) renderScanline(y int) {
	if p.showBackground() {
		p.renderBackgroundRow(y)
	} else {
		for x := 0; x < visibleDots; x++ {
			p.bgColorIndex[y*visibleDots+x] = 0
			p.frameBuffer[y*visibleDots+x] = NESColorToRGB(p.palette[0] & 0x3F)
		}
	}
	if p.showSprites() {
		p.renderSpriteRow(y)
	}
}

func (p *PPU) renderBackgroundRow(y int) {
	bgPatternBase := uint16(0)
	if p.ctrl&0x10 != 0 {
		bgPatternBase = 0x1000
	}
	baseNT := uint16(p.ctrl&0x03) * 0x400

	for x := 0; x < visibleDots; x++ {
		sx := (x + int(p.scrollX)) & 0x1FF
		sy := (y + int(p.scrollY)) & 0x1FF

		ntOffsetX := uint16(0)
		if sx >= 256 {
			ntOffsetX = 0x400
		}
		ntOffsetY := uint16(0)
		if sy >= 240 {
			ntOffsetY = 0x800
		}
		tileCol := (sx % 256) / 8
		tileRow := (sy % 240) / 8
		fineX := uint8(sx % 8)
		fineY := uint16(sy % 8)

		ntBase := 0x2000 + (baseNT+ntOffsetX+ntOffsetY)&0x0C00
		tileAddr := ntBase + uint16(tileRow)*32 + uint16(tileCol)
		tileIndex := p.readVRAM(tileAddr)

		attrAddr := ntBase + 0x3C0 + uint16(tileRow/4)*8 + uint16(tileCol/4)
		attrByte := p.readVRAM(attrAddr)
		quadShift := uint(0)
		if tileCol%4 >= 2 {
			quadShift += 2
		}
		if tileRow%4 >= 2 {
			quadShift += 4
		}
		paletteSel := (attrByte >> quadShift) & 0x03

		patternAddr := bgPatternBase + uint16(tileIndex)*16 + fineY
		lowPlane := p.readVRAM(patternAddr)
		highPlane := p.readVRAM(patternAddr + 8)
		bit := 7 - fineX
		colorBit := (lowPlane>>bit)&1 | (highPlane>>bit)&1<<1

		idx := y*visibleDots + x
		p.bgColorIndex[idx] = colorBit

		var paletteAddr uint16
		if colorBit == 0 {
			paletteAddr = 0x3F00
		} else {
			paletteAddr = 0x3F00 + uint16(paletteSel)*4 + uint16(colorBit)
		}
		p.frameBuffer[idx] = NESColorToRGB(p.readVRAM(paletteAddr) & 0x3F)
	}
}

func (p *PPU) renderSpriteRow(y int) {
	tall := p.ctrl&0x20 != 0
	height := 8
	if tall {
		height = 16
	}
	leftClip := p.mask&0x04 == 0
	spritePatternBase := uint16(0)
	if p.ctrl&0x08 != 0 {
		spritePatternBase = 0x1000
	}

	for i := 63; i >= 0; i-- {
		base := i * 4
		spriteY := int(p.oam[base])
		if y < spriteY+1 || y >= spriteY+1+height {
			continue
		}
		tileID := p.oam[base+1]
		attrs := p.oam[base+2]
		spriteX := int(p.oam[base+3])
		flipV := attrs&0x80 != 0
		flipH := attrs&0x40 != 0
		behind := attrs&0x20 != 0
		paletteSel := attrs & 0x03

		row := y - (spriteY + 1)
		if flipV {
			row = height - 1 - row
		}

		var patternAddr uint16
		if tall {
			table := uint16(tileID&0x01) * 0x1000
			tile := uint16(tileID &^ 0x01)
			if row >= 8 {
				tile++
				row -= 8
			}
			patternAddr = table + tile*16 + uint16(row)
		} else {
			patternAddr = spritePatternBase + uint16(tileID)*16 + uint16(row)
		}
		lowPlane := p.readVRAM(patternAddr)
		highPlane := p.readVRAM(patternAddr + 8)

		for col := 0; col < 8; col++ {
			px := spriteX + col
			if px < 0 || px >= visibleDots {
				continue
			}
			if leftClip && px < 8 {
				continue
			}
			bit := col
			if !flipH {
				bit = 7 - col
			}
			colorBit := (lowPlane>>uint(bit))&1 | (highPlane>>uint(bit))&1<<1
			if colorBit == 0 {
				continue
			}

			idx := y*visibleDots + px
			if i == 0 && p.showBackground() && p.bgColorIndex[idx] != 0 {
				p.status |= 0x40
			}
			if behind && p.bgColorIndex[idx] != 0 {
				continue
			}
			paletteAddr := 0x3F10 + uint16(paletteSel)*4 + uint16(colorBit)
			p.frameBuffer[idx] = NESColorToRGB(p.readVRAM(paletteAddr) & 0x3F)
		}
	}
}
