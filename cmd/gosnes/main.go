package main

import (
	"context"
	"flag"
	"image/color"
	"log"
	"os"

	"github.com/bdwalton/gosnes/console"
	"github.com/bdwalton/gosnes/controller"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
)

const sampleRate = 32000

var (
	romFile   = flag.String("rom", "", "Path to SNES ROM to run.")
	sramFile  = flag.String("sram", "", "Path to a battery save file to load on boot and write back on exit.")
	headless  = flag.Bool("headless", false, "Run without opening a window, for N frames, then exit.")
	numFrames = flag.Int("frames", 60, "Frame count to run under -headless.")
)

func main() {
	flag.Parse()

	rom, err := os.ReadFile(*romFile)
	if err != nil {
		log.Fatalf("reading ROM: %v", err)
	}

	con, err := console.New(rom, log.Printf)
	if err != nil {
		log.Fatalf("loading cartridge: %v", err)
	}

	if *sramFile != "" {
		if data, err := os.ReadFile(*sramFile); err == nil {
			if err := con.LoadSRAM(data); err != nil {
				log.Fatalf("loading save file: %v", err)
			}
		}
	}

	if *headless {
		runHeadless(con)
		return
	}

	game := newApp(con)

	ebiten.SetWindowSize(ppuWidth*2, ppuHeight*2)
	ebiten.SetWindowTitle("gosnes")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	ctx, cancel := context.WithCancel(context.Background())
	go con.Run(ctx)

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
	cancel()

	saveSRAM(con)
}

func runHeadless(con *console.Console) {
	for i := 0; i < *numFrames; i++ {
		con.ExecFrame()
	}
	saveSRAM(con)
}

func saveSRAM(con *console.Console) {
	if *sramFile == "" {
		return
	}
	if data := con.SRAM(); len(data) > 0 {
		if err := os.WriteFile(*sramFile, data, 0644); err != nil {
			log.Printf("writing save file: %v", err)
		}
	}
}

var keymap = map[ebiten.Key]controller.Button{
	ebiten.KeyZ:         controller.B,
	ebiten.KeyX:         controller.A,
	ebiten.KeyA:         controller.Y,
	ebiten.KeyS:         controller.X,
	ebiten.KeyQ:         controller.L,
	ebiten.KeyW:         controller.R,
	ebiten.KeyEnter:     controller.Start,
	ebiten.KeyShiftLeft: controller.Select,
	ebiten.KeyUp:        controller.Up,
	ebiten.KeyDown:      controller.Down,
	ebiten.KeyLeft:      controller.Left,
	ebiten.KeyRight:     controller.Right,
}

// app wraps a Console in the ebiten.Game interface. Console itself stays
// free of any UI framework dependency; this is the only place that talks
// to ebiten directly.
type app struct {
	con     *console.Console
	audioCh *audio.Player
}

func newApp(con *console.Console) *app {
	a := &app{con: con}

	ctx := audio.NewContext(sampleRate)
	player, err := ctx.NewPlayer(newSampleStream(con))
	if err != nil {
		log.Fatalf("starting audio player: %v", err)
	}
	player.Play()
	a.audioCh = player

	return a
}

func (a *app) Update() error {
	pressed := make(map[controller.Button]bool, len(keymap))
	for key, btn := range keymap {
		pressed[btn] = ebiten.IsKeyPressed(key)
	}
	a.con.Pad(0).SetButtons(pressed)
	return nil
}

const (
	ppuWidth  = 256
	ppuHeight = 224
)

func (a *app) Layout(outsideWidth, outsideHeight int) (int, int) {
	return ppuWidth, ppuHeight
}

func (a *app) Draw(screen *ebiten.Image) {
	frame := a.con.Frame()
	for y := 0; y < ppuHeight; y++ {
		for x := 0; x < ppuWidth; x++ {
			screen.Set(x, y, bgr555ToRGBA(frame[y*ppuWidth+x]))
		}
	}
}

// bgr555ToRGBA expands the PPU's 5-bit-per-channel BGR555 pixel to 8 bits
// per channel by replicating the top 3 bits into the low bits.
func bgr555ToRGBA(p uint16) color.RGBA {
	r5 := uint8(p & 0x1F)
	g5 := uint8((p >> 5) & 0x1F)
	b5 := uint8((p >> 10) & 0x1F)
	expand := func(c5 uint8) uint8 { return c5<<3 | c5>>2 }
	return color.RGBA{R: expand(r5), G: expand(g5), B: expand(b5), A: 0xFF}
}

// sampleStream adapts the APU's drained stereo samples to the io.Reader
// ebiten/v2/audio expects: signed 16-bit little-endian, interleaved L/R.
type sampleStream struct {
	con *console.Console
	pos int
	buf []byte
}

func newSampleStream(con *console.Console) *sampleStream {
	return &sampleStream{con: con}
}

func (s *sampleStream) Read(p []byte) (int, error) {
	if s.pos >= len(s.buf) {
		samples := s.con.Samples()
		if len(samples) == 0 {
			return 0, nil
		}
		s.buf = make([]byte, 0, len(samples)*4)
		for _, smp := range samples {
			s.buf = append(s.buf,
				byte(smp.Left), byte(smp.Left>>8),
				byte(smp.Right), byte(smp.Right>>8))
		}
		s.pos = 0
	}
	n := copy(p, s.buf[s.pos:])
	s.pos += n
	return n, nil
}
