package ppu

// bgModeBPP gives, for each of the eight BG modes, the bit depth of each
// background layer it uses (mode 7's single 8bpp layer is approximated as
// an ordinary tilemap layer rather than the affine-transformed plane real
// hardware renders — see render.go).
var bgModeBPP = [8][]int{
	{2, 2, 2, 2},
	{4, 4, 2},
	{4, 4},
	{8, 4},
	{8, 2},
	{4, 2},
	{4},
	{8},
}

var objPriority = [4]uint8{10, 7, 4, 1}

// displayControl packs $2100 (brightness, force-blank) and $2133 (extra
// screen modes) into one register pair.
type displayControl struct {
	brightness uint8
	forceBlank bool
	extbgMode  bool
}

func (d *displayControl) writeLow(v uint8) {
	d.brightness = v & 0xF
	d.forceBlank = v&0x80 != 0
}

func (d *displayControl) writeHigh(v uint8) {
	d.extbgMode = v&0x40 != 0
}

// screenDesignation is $212C/$212D (main/sub screen layer enable) and
// $212E/$212F (window main/sub designation, parsed but not applied to
// rendering — see render.go).
type screenDesignation struct {
	bg    [4]bool
	obj   bool
}

func (s *screenDesignation) write(v uint8) {
	s.bg[0] = v&1 != 0
	s.bg[1] = v&2 != 0
	s.bg[2] = v&4 != 0
	s.bg[3] = v&8 != 0
	s.obj = v&0x10 != 0
}

// bgControl is $2105: BG mode, BG3-priority bit, and the four tile-size
// bits (one per layer).
type bgControl struct {
	mode         uint8
	bg3PriorityHigh bool
	tileSize     uint8
}

func (b *bgControl) write(v uint8) {
	b.mode = v & 0x7
	b.bg3PriorityHigh = v&0x8 != 0
	b.tileSize = v >> 4
}

func (b *bgControl) layerTileSize(layer int) int {
	if b.tileSize>>layer&1 == 1 {
		return 16
	}
	return 8
}

// bgScreenBaseSize is $2107-$210A: tilemap size and VRAM base per layer.
type bgScreenBaseSize struct {
	size uint8
	base uint8
}

func (b *bgScreenBaseSize) write(v uint8) {
	b.size = v & 0x3
	b.base = v >> 2
}

func (b *bgScreenBaseSize) tileCount() (w, h int) {
	switch b.size {
	case 0:
		return 32, 32
	case 1:
		return 64, 32
	case 2:
		return 32, 64
	default:
		return 64, 64
	}
}

func (b *bgScreenBaseSize) mapBaseAddr() int { return int(b.base) * 0x800 }

// bgMapEntry decodes one 16-bit background tilemap word.
type bgMapEntry struct {
	characterNumber uint16
	palette         uint8
	priority        bool
	flipX, flipY    bool
}

func decodeBGMapEntry(lo, hi uint8) bgMapEntry {
	word := uint16(lo) | uint16(hi)<<8
	return bgMapEntry{
		characterNumber: word & 0x3FF,
		palette:         uint8(word>>10) & 0x7,
		priority:        word&0x2000 != 0,
		flipX:           word&0x4000 != 0,
		flipY:           word&0x8000 != 0,
	}
}

// oamAttribute is the fourth byte of each 4-byte OAM sprite entry.
type oamAttribute struct {
	tilePage uint8
	palette  uint8
	priority uint8
	xFlip    bool
	yFlip    bool
}

func decodeOAMAttribute(v uint8) oamAttribute {
	return oamAttribute{
		tilePage: v & 1,
		palette:  (v >> 1) & 0x7,
		priority: (v >> 4) & 0x3,
		xFlip:    v&0x40 != 0,
		yFlip:    v&0x80 != 0,
	}
}

// objSizeAndBase is $2101: sprite tile base address, the gap between the
// two tile pages, and which pair of sprite sizes this mode uses.
type objSizeAndBase struct {
	baseAddr   uint8
	gap        uint8
	sizeSelect uint8
}

func (o *objSizeAndBase) write(v uint8) {
	o.baseAddr = v & 0x7
	o.gap = (v >> 3) & 0x3
	o.sizeSelect = v >> 5
}

var objSizePairs = [8][2]int{
	{8, 16}, {8, 32}, {8, 64}, {16, 32}, {16, 64}, {32, 64}, {16, 32}, {16, 32},
}

func (o *objSizeAndBase) sizes() [2]int { return objSizePairs[o.sizeSelect] }

// vramAddrIncMode is $2115: how much $2116/$2117 auto-increment by and
// whether VRAM addresses go through the rotated tilemap-remap translation
// used by some games' scroll tricks.
type vramAddrIncMode struct {
	incStep       uint8
	translation   uint8
	incAfterHigh  bool
}

func (v *vramAddrIncMode) write(b uint8) {
	v.incStep = b & 0x3
	v.translation = (b >> 2) & 0x3
	v.incAfterHigh = b&0x80 != 0
}

func (v *vramAddrIncMode) increment() uint16 {
	switch v.incStep {
	case 0:
		return 1
	case 1:
		return 32
	default:
		return 128
	}
}

func (v *vramAddrIncMode) translate(addr uint16) uint16 {
	switch v.translation {
	case 0:
		return addr
	case 1:
		return addr&0xFF00 | (addr&0x001F)<<3 | (addr&0x00E0)>>5
	case 2:
		return addr&0xFE00 | (addr&0x003F)<<3 | (addr&0x01C0)>>6
	default:
		return addr&0xFC00 | (addr&0x007F)<<3 | (addr&0x0380)>>7
	}
}

// colorMathCtrl is $2130/$2131: which layers participate in add/subtract
// color math against the sub screen, and whether the result is halved.
type colorMathCtrl struct {
	directColor bool
	subScreenEnable bool
	layerMask   uint8 // bit i = layer i participates (bit5=backdrop)
	halfColor   bool
	subtract    bool
}

func (c *colorMathCtrl) writeLow(v uint8) {
	c.directColor = v&1 != 0
	c.subScreenEnable = v&2 != 0
}

func (c *colorMathCtrl) writeHigh(v uint8) {
	c.layerMask = v & 0x3F
	c.halfColor = v&0x40 != 0
	c.subtract = v&0x80 != 0
}
