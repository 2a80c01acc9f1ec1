package ppu

// layer identifies which screen source produced a pixel, for color-math's
// per-layer enable mask and BG priority resolution.
type layer uint8

const (
	layerBG1 layer = iota
	layerBG2
	layerBG3
	layerBG4
	layerObjPalette4_7
	layerBackdrop
	_
	layerObjPalette0_3
)

func bgLayer(index int) layer { return layer(index) }

type pixelInfo struct {
	r, g, b  uint8
	priority uint8
	layer    layer
}

func newPixelInfo(color uint16, priority uint8, l layer) pixelInfo {
	return pixelInfo{
		r:        uint8(color & 0x1F),
		g:        uint8((color >> 5) & 0x1F),
		b:        uint8((color >> 10) & 0x1F),
		priority: priority,
		layer:    l,
	}
}

func (p *PPU) renderLine(y uint16) {
	p.renderBG(y)
	p.renderObj(y)
	p.colorMathLine(y)
}

func (p *PPU) renderBG(y uint16) {
	bpp := bgModeBPP[p.bgCtrl.mode]
	backdrop := p.cgram[0]
	subBackdrop := uint16(p.subBackdropB)<<10 | uint16(p.subBackdropG)<<5 | uint16(p.subBackdropR)
	for i := 0; i < FrameWidth; i++ {
		p.mainScreen[i] = newPixelInfo(backdrop, 13, layerBackdrop)
		p.subScreen[i] = newPixelInfo(subBackdrop, 13, layerBackdrop)
	}

	for bgIndex, depth := range bpp {
		tileWNum, tileHNum := p.bgScreenBase[bgIndex].tileCount()
		tileSize := p.bgCtrl.layerTileSize(bgIndex)
		tileBaseAddr := int(p.bgTileBase[bgIndex]) * 8 * 1024
		screenWidth := tileWNum * tileSize
		screenHeight := tileHNum * tileSize

		for x := 0; x < FrameWidth; x++ {
			screenX := (x + int(p.bgHOfs[bgIndex])) % screenWidth
			screenY := (int(y) + int(p.bgVOfs[bgIndex])) % screenHeight

			mapBaseAddr := p.bgScreenBase[bgIndex].mapBaseAddr()
			tileXIndex := screenX / tileSize
			tileYIndex := screenY / tileSize
			if tileXIndex >= 32 {
				tileXIndex %= 32
				mapBaseAddr += 2 * 1024
			}
			if tileYIndex >= 32 {
				tileYIndex %= 32
				mapBaseAddr += 2 * 2 * 1024
			}

			mapEntryAddr := (mapBaseAddr + 2*(tileYIndex*32+tileXIndex)) & 0xFFFE
			entry := decodeBGMapEntry(p.vram[mapEntryAddr], p.vram[mapEntryAddr+1])

			tileIndex := int(entry.characterNumber)
			pixelX := screenX % tileSize
			if entry.flipX {
				pixelX ^= tileSize - 1
			}
			pixelY := screenY % tileSize
			if entry.flipY {
				pixelY ^= tileSize - 1
			}
			if pixelX >= 8 {
				tileIndex += 0x01
				pixelX %= 8
			}
			if pixelY >= 8 {
				tileIndex += 0x10
				pixelY %= 8
			}

			tileAddr := tileBaseAddr + tileIndex*depth*8
			var colorIndex int
			for i := 0; i < depth/2; i++ {
				bitAddr := (tileAddr + i*16 + pixelY*2) & 0xFFFE
				low := (p.vram[bitAddr] >> (7 - pixelX)) & 1
				high := (p.vram[bitAddr+1] >> (7 - pixelX)) & 1
				colorIndex |= int(low) << (i * 2)
				colorIndex |= int(high) << (i*2 + 1)
			}

			if colorIndex == 0 {
				continue
			}

			cgramBase := 0
			if p.bgCtrl.mode == 0 {
				cgramBase = bgIndex * 0x20
			}
			cgramAddr := (cgramBase + int(entry.palette)*(1<<depth) + colorIndex) & 0xFF
			color := p.cgram[cgramAddr]
			priority := p.bgLayerPriority(bgIndex, entry.priority)

			if p.screenMain.bg[bgIndex] && priority < p.mainScreen[x].priority {
				p.mainScreen[x] = newPixelInfo(color, priority, bgLayer(bgIndex))
			}
			if p.screenSub.bg[bgIndex] && priority < p.subScreen[x].priority {
				p.subScreen[x] = newPixelInfo(color, priority, bgLayer(bgIndex))
			}
		}
	}
}

func (p *PPU) renderObj(y uint16) {
	sizes := p.objSizeBase.sizes()
	for i := 0; i < 128; i++ {
		attr := decodeOAMAttribute(p.oam[i*4+3])
		additionAddr := 0x200 + i/4
		additionOffset := uint(i % 4)
		upperX := (p.oam[additionAddr] >> (additionOffset * 2)) & 1
		sizeIndex := (p.oam[additionAddr] >> (additionOffset*2 + 1)) & 1

		objPosX := int(upperX)<<8 | int(p.oam[i*4])
		objPosY := int(p.oam[i*4+1])
		objSize := sizes[sizeIndex]

		for offY := 0; offY < objSize; offY++ {
			pixelY := (objPosY + offY) % 256
			if pixelY != int(y) {
				continue
			}
			for offX := 0; offX < objSize; offX++ {
				pixelX := (objPosX + offX) % 512
				if pixelX >= 256 {
					continue
				}

				tileX := offX
				if attr.xFlip {
					tileX = (objSize - 1) ^ offX
				}
				tileY := offY
				if attr.yFlip {
					tileY = (objSize - 1) ^ offY
				}

				tileIndex := int(attr.tilePage)<<8 | int(p.oam[i*4+2])
				tileIndex = (tileIndex & 0x1F0) | (((tileIndex & 0xF) + tileX/8) & 0xF)
				tileIndex = (((tileIndex & 0x1F0) + tileY/8*0x10) & 0x1F0) | (tileIndex & 0xF)

				tileX %= 8
				tileY %= 8

				tileBaseAddr := int(p.objSizeBase.baseAddr) * 16 * 1024
				if attr.tilePage == 1 {
					tileBaseAddr += int(p.objSizeBase.gap) * 8 * 1024
				}
				tileBaseAddr &= 0xFFFF

				tileAddr := tileBaseAddr + tileIndex*32
				var colorIndex int
				for k := 0; k < 2; k++ {
					bitAddr := (tileAddr + k*16 + tileY*2) & 0xFFFE
					low := (p.vram[bitAddr] >> (7 - tileX)) & 1
					high := (p.vram[bitAddr+1] >> (7 - tileX)) & 1
					colorIndex |= int(low) << (k * 2)
					colorIndex |= int(high) << (k*2 + 1)
				}
				if colorIndex == 0 {
					continue
				}

				priority := objPriority[attr.priority]
				cgramAddr := 128 + int(attr.palette)*16 + colorIndex
				color := p.cgram[cgramAddr]
				objLayer := layerObjPalette4_7
				if attr.palette <= 3 {
					objLayer = layerObjPalette0_3
				}
				if priority < p.mainScreen[pixelX].priority {
					p.mainScreen[pixelX] = newPixelInfo(color, priority, objLayer)
				}
				if priority < p.subScreen[pixelX].priority {
					p.subScreen[pixelX] = newPixelInfo(color, priority, objLayer)
				}
			}
		}
	}
}

func (p *PPU) colorMathLine(y uint16) {
	brightness := uint16(p.display.brightness)
	for i := 0; i < FrameWidth; i++ {
		main := p.mainScreen[i]
		sub := p.subScreen[i]

		if brightness == 0 {
			main.r, main.g, main.b = 0, 0, 0
			sub.r, sub.g, sub.b = 0, 0, 0
		} else {
			main.r = uint8(uint16(main.r) * (brightness + 1) / 16)
			main.g = uint8(uint16(main.g) * (brightness + 1) / 16)
			main.b = uint8(uint16(main.b) * (brightness + 1) / 16)
			sub.r = uint8(uint16(sub.r) * (brightness + 1) / 16)
			sub.g = uint8(uint16(sub.g) * (brightness + 1) / 16)
			sub.b = uint8(uint16(sub.b) * (brightness + 1) / 16)
		}

		var outR, outG, outB uint16
		if p.colorMath.layerMask>>main.layer&1 == 1 {
			if p.colorMath.subtract {
				outR = satSub(main.r, sub.r)
				outG = satSub(main.g, sub.g)
				outB = satSub(main.b, sub.b)
			} else {
				outR = uint16(main.r) + uint16(sub.r)
				outG = uint16(main.g) + uint16(sub.g)
				outB = uint16(main.b) + uint16(sub.b)
			}
			if p.colorMath.halfColor {
				outR >>= 1
				outG >>= 1
				outB >>= 1
			}
			outR = min16(outR, 31)
			outG = min16(outG, 31)
			outB = min16(outB, 31)
		} else {
			outR, outG, outB = uint16(main.r), uint16(main.g), uint16(main.b)
		}

		p.Frame[int(y)*FrameWidth+i] = outB<<10 | outG<<5 | outR
	}
}

func satSub(a, b uint8) uint16 {
	if a < b {
		return 0
	}
	return uint16(a - b)
}

func min16(a, b uint16) uint16 {
	if a < b {
		return a
	}
	return b
}

// bgLayerPriority maps a BG layer + its tile's priority bit to the
// fixed main/sub-screen priority ladder for the active BG mode. Lower
// numbers draw on top.
func (p *PPU) bgLayerPriority(layerIndex int, isHigh bool) uint8 {
	switch p.bgCtrl.mode {
	case 0:
		switch layerIndex {
		case 0:
			return ifu8(isHigh, 2, 5)
		case 1:
			return ifu8(isHigh, 3, 6)
		case 2:
			return ifu8(isHigh, 8, 11)
		default:
			return ifu8(isHigh, 9, 12)
		}
	case 1:
		switch layerIndex {
		case 0:
			return ifu8(isHigh, 2, 5)
		case 1:
			return ifu8(isHigh, 3, 6)
		default: // BG3, priority depends on the BG3-priority-high control bit
			switch {
			case p.bgCtrl.bg3PriorityHigh && isHigh:
				return 0
			case p.bgCtrl.bg3PriorityHigh:
				return 11
			case isHigh:
				return 8
			default:
				return 12
			}
		}
	case 2, 3, 4, 5:
		if layerIndex == 0 {
			return ifu8(isHigh, 2, 8)
		}
		return ifu8(isHigh, 5, 11)
	case 6:
		return ifu8(isHigh, 2, 8)
	default: // mode 7
		if layerIndex == 0 {
			return 7
		}
		return 11
	}
}

func ifu8(cond bool, t, f uint8) uint8 {
	if cond {
		return t
	}
	return f
}
