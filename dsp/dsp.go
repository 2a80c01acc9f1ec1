// Package dsp implements the SNES sound chip's 8-voice BRR sample mixer:
// per-voice ADSR/GAIN envelopes, Gaussian-interpolated resampling, a shared
// noise generator, and the global mixer/master-volume registers exposed to
// the SPC700 at $00-$7F of its internal register page.
// https://wiki.superfamicom.org/dsp
package dsp

// flags is the $6C global control register: the shared noise frequency plus
// echo-write-disable, mute and soft-reset bits.
type flags struct {
	noiseFreq       uint8
	echoWriteOff    bool
	mute            bool
	reset           bool
}

func flagsFromByte(b uint8) flags {
	return flags{
		noiseFreq:    b & 0x1F,
		echoWriteOff: b&0x20 != 0,
		mute:         b&0x40 != 0,
		reset:        b&0x80 != 0,
	}
}

func (f flags) toByte() uint8 {
	var b uint8
	b |= f.noiseFreq & 0x1F
	if f.echoWriteOff {
		b |= 0x20
	}
	if f.mute {
		b |= 0x40
	}
	if f.reset {
		b |= 0x80
	}
	return b
}

// noiseGen is the DSP's single shared pseudo-random LFSR, clocked at the
// rate selected by flags.noiseFreq and sampled by any voice with noiseOn set.
type noiseGen struct {
	value     int16
	frequency uint8
	counter   uint16
}

func newNoiseGen() noiseGen {
	return noiseGen{value: 1}
}

func (n *noiseGen) generate() int16 {
	if n.frequency == 0 {
		n.counter = 0
		return n.value
	}
	n.counter++
	if n.counter >= rateTable[n.frequency] {
		n.counter = 0
		b0 := n.value & 1
		b1 := (n.value >> 1) & 1
		n.value = (b0^b1)<<14 | ((n.value >> 1) & 0x3FFF)
	}
	return n.value
}

// Sample is one stereo output frame, 16-bit signed per channel.
type Sample struct {
	Left, Right int16
}

// DSP is the S-DSP: eight voices sharing 64KiB of APU RAM (owned by the apu
// package and passed in on every Tick), a master mixer and a noise
// generator. It has no notion of clock rate of its own; the apu package
// calls Tick once per output sample period.
type DSP struct {
	voices [8]*voice

	masterVolume [2]int8
	echoVolume   [2]int8
	flag         flags
	echoFeedback int8
	unused       uint8 // $1D
	sampleTableAddr uint8
	echoBufferAddr  uint8
	echoBufferSize  uint8

	noise noiseGen

	buffer []Sample
}

// New returns a freshly reset DSP. Callers must call Tick with the same RAM
// slice the owning APU exposes to the SPC700 core.
func New() *DSP {
	d := &DSP{
		flag:  flags{mute: true, reset: true, echoWriteOff: true},
		noise: newNoiseGen(),
	}
	for i := range d.voices {
		d.voices[i] = newVoice()
	}
	return d
}

// Tick mixes one output sample: every voice advances, the results are
// volume-scaled and summed per channel, master volume is applied, and
// (per real hardware behavior) the final samples are bitwise inverted
// before being appended to the output buffer.
func (d *DSP) Tick(ram []byte) {
	noise := d.noise.generate()
	for ch := 0; ch < 8; ch++ {
		var prev int16
		havePrev := ch > 0
		if havePrev {
			prev = d.voices[ch-1].sample
		}
		d.voices[ch].tick(ram, d.sampleTableAddr, prev, havePrev, noise)
	}

	var out [2]int16
	for i := 0; i < 2; i++ {
		var mix int32
		for ch := 0; ch < 8; ch++ {
			sample := int32(int16(d.voices[ch].sample<<1) >> 1)
			contribution := (sample * int32(d.voices[ch].volume[i])) >> 6
			mix = clampI32(mix+contribution, -0x8000, 0x7FFF)
		}
		mix = clampI32((mix*int32(d.masterVolume[i]))>>7, -0x8000, 0x7FFF)

		v := int16(mix)
		if d.flag.mute {
			v = 0
		}
		out[i] = ^v
	}

	d.buffer = append(d.buffer, Sample{Left: out[0], Right: out[1]})
}

// DrainSamples returns and clears every sample mixed since the last call,
// for the host audio player to consume.
func (d *DSP) DrainSamples() []Sample {
	s := d.buffer
	d.buffer = nil
	return s
}

// Read implements the DSP register page; addr is masked to 0-0x7F here
// (bit 7 of the SPC700's $F3 address latch is ignored by hardware).
func (d *DSP) Read(addr uint8) uint8 {
	switch addr & 0x7F {
	case 0x0C:
		return uint8(d.masterVolume[0])
	case 0x1C:
		return uint8(d.masterVolume[1])
	case 0x2C:
		return uint8(d.echoVolume[0])
	case 0x3C:
		return uint8(d.echoVolume[1])
	case 0x4C:
		return d.voiceBits(func(v *voice) bool { return v.keyOn })
	case 0x5C:
		return d.voiceBits(func(v *voice) bool { return v.keyOff })
	case 0x6C:
		return d.flag.toByte()
	case 0x7C:
		return d.voiceBits(func(v *voice) bool { return v.voiceEnd })
	case 0x0D:
		return uint8(d.echoFeedback)
	case 0x1D:
		return d.unused
	case 0x2D:
		return d.voiceBits(func(v *voice) bool { return v.pitchModOn })
	case 0x3D:
		return d.voiceBits(func(v *voice) bool { return v.noiseOn })
	case 0x4D:
		return d.voiceBits(func(v *voice) bool { return v.echoOn })
	case 0x5D:
		return d.sampleTableAddr
	case 0x6D:
		return d.echoBufferAddr
	case 0x7D:
		return d.echoBufferSize
	default:
		ch := (addr >> 4) & 0x7
		return d.voices[ch].read(addr & 0xF)
	}
}

// Write implements the DSP register page, with the same addr masking as Read.
func (d *DSP) Write(addr, data uint8) {
	switch addr & 0x7F {
	case 0x0C:
		d.masterVolume[0] = int8(data)
	case 0x1C:
		d.masterVolume[1] = int8(data)
	case 0x2C:
		d.echoVolume[0] = int8(data)
	case 0x3C:
		d.echoVolume[1] = int8(data)
	case 0x4C:
		d.setVoiceBits(data, func(v *voice, b bool) { v.keyOn = b })
	case 0x5C:
		d.setVoiceBits(data, func(v *voice, b bool) { v.keyOff = b })
	case 0x6C:
		d.flag = flagsFromByte(data)
		d.noise.frequency = d.flag.noiseFreq
		if d.flag.reset {
			for _, v := range d.voices {
				v.keyOff = true
				v.env.value = 0
			}
			d.flag.reset = false
		}
	case 0x7C:
		for _, v := range d.voices {
			v.voiceEnd = false
		}
	case 0x0D:
		d.echoFeedback = int8(data)
	case 0x1D:
		d.unused = data
	case 0x2D:
		d.setVoiceBits(data, func(v *voice, b bool) { v.pitchModOn = b })
	case 0x3D:
		d.setVoiceBits(data, func(v *voice, b bool) { v.noiseOn = b })
	case 0x4D:
		d.setVoiceBits(data, func(v *voice, b bool) { v.echoOn = b })
	case 0x5D:
		d.sampleTableAddr = data
	case 0x6D:
		d.echoBufferAddr = data
	case 0x7D:
		d.echoBufferSize = data
	default:
		ch := (addr >> 4) & 0x7
		d.voices[ch].write(addr&0xF, data)
	}
}

func (d *DSP) voiceBits(pred func(*voice) bool) uint8 {
	var ret uint8
	for ch, v := range d.voices {
		if pred(v) {
			ret |= 1 << ch
		}
	}
	return ret
}

func (d *DSP) setVoiceBits(data uint8, set func(*voice, bool)) {
	for ch, v := range d.voices {
		set(v, data&(1<<ch) != 0)
	}
}
