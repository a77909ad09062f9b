package audiocodec

import (
	"fmt"
	"strings"
	"time"
)

// BytesPerSample is the size of one 16 bit linear PCM sample.
const BytesPerSample = 2

// Framing describes how a codec splits its input into frames.
type Framing int

const (
	// FramingFixed codecs accept exactly one frame per call in one of
	// their frame modes.
	FramingFixed Framing = iota
	// FramingMultiple codecs accept any non-empty whole number of frames.
	FramingMultiple
	// FramingStream codecs accept any amount of whole samples and encode
	// as many whole frames as fit; a trailing partial frame is dropped.
	FramingStream
	// FramingVariable codecs produce a bit packed frame of variable size.
	FramingVariable
)

func (f Framing) String() string {
	switch f {
	case FramingFixed:
		return "fixed"
	case FramingMultiple:
		return "multiple"
	case FramingStream:
		return "stream"
	case FramingVariable:
		return "variable"
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (f Framing) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// FrameMode is a pair of PCM samples and the encoded bytes of one frame.
// For variable framings EncodedBytes is the upper bound.
type FrameMode struct {
	Samples      int `json:"samples"`
	EncodedBytes int `json:"encoded_bytes"`
}

// PCMBytes returns the size of the frame in linear PCM.
func (m FrameMode) PCMBytes() int {
	return m.Samples * BytesPerSample
}

// Duration returns the play time of the frame at the given samplerate.
func (m FrameMode) Duration(samplerate int) time.Duration {
	if samplerate <= 0 {
		return 0
	}
	return time.Duration(m.Samples) * time.Second / time.Duration(samplerate)
}

// Descriptor contains the static framing contract of a codec kind.
type Descriptor struct {
	Kind          Kind        `json:"-"`
	Name          string      `json:"name"`
	Description   string      `json:"description"`
	Samplerate    int         `json:"samplerate"`
	Framing       Framing     `json:"framing"`
	Modes         []FrameMode `json:"modes"`
	Bitrates      []int       `json:"bitrates,omitempty"`
	RequiresSetup bool        `json:"requires_setup"`

	// MaxDecodeInput bounds the decoder input of variable framings.
	MaxDecodeInput int `json:"max_decode_input,omitempty"`
	// MaxDecodeOutput bounds the decoder output of variable framings.
	MaxDecodeOutput int `json:"max_decode_output,omitempty"`
	// FixedDecodeOutput is set when a variable framing codec always decodes
	// into exactly one frame of Modes[0].
	FixedDecodeOutput bool `json:"-"`
}

var descriptors = map[Kind]*Descriptor{
	G726: {
		Kind:          G726,
		Name:          "g726",
		Description:   "ITU-T G.726 ADPCM, one unpacked code word per sample",
		Samplerate:    8000,
		Framing:       FramingStream,
		Modes:         []FrameMode{{Samples: 1, EncodedBytes: 1}},
		Bitrates:      []int{16000, 24000, 32000, 40000},
		RequiresSetup: true,
	},
	G729: {
		Kind:        G729,
		Name:        "g729",
		Description: "ITU-T G.729 CS-ACELP, 10 ms frames",
		Samplerate:  8000,
		Framing:     FramingMultiple,
		Modes:       []FrameMode{{Samples: 80, EncodedBytes: 10}},
	},
	GSM0610: {
		Kind:        GSM0610,
		Name:        "gsm",
		Description: "ETSI GSM 06.10 full rate RPE-LTP, VoIP packing",
		Samplerate:  8000,
		Framing:     FramingFixed,
		Modes:       []FrameMode{{Samples: 160, EncodedBytes: 33}},
	},
	ILBC: {
		Kind:        ILBC,
		Name:        "ilbc",
		Description: "iLBC, 20 ms and 30 ms frames",
		Samplerate:  8000,
		Framing:     FramingFixed,
		Modes: []FrameMode{
			{Samples: 160, EncodedBytes: 38},
			{Samples: 240, EncodedBytes: 50},
		},
	},
	LPC10: {
		Kind:        LPC10,
		Name:        "lpc10",
		Description: "LPC-10 2400 bit/s vocoder, 22.5 ms frames",
		Samplerate:  8000,
		Framing:     FramingStream,
		Modes:       []FrameMode{{Samples: 180, EncodedBytes: 7}},
	},
	Speex: {
		Kind:              Speex,
		Name:              "speex",
		Description:       "Speex narrowband CELP, 20 ms frames",
		Samplerate:        8000,
		Framing:           FramingVariable,
		Modes:             []FrameMode{{Samples: 160, EncodedBytes: 200}},
		MaxDecodeInput:    200,
		MaxDecodeOutput:   320,
		FixedDecodeOutput: true,
	},
	Opus: {
		Kind:        Opus,
		Name:        "opus",
		Description: "Opus VoIP mode, 8 kHz mono, 10 to 60 ms frames",
		Samplerate:  8000,
		Framing:     FramingVariable,
		Modes: []FrameMode{
			{Samples: 80, EncodedBytes: 1275},
			{Samples: 160, EncodedBytes: 1275},
			{Samples: 320, EncodedBytes: 1275},
			{Samples: 480, EncodedBytes: 1275},
		},
		MaxDecodeInput:  1275,
		MaxDecodeOutput: 1920,
	},
}

// Lookup returns the descriptor of a codec kind.
func Lookup(k Kind) (*Descriptor, error) {
	d, ok := descriptors[k]
	if !ok {
		return nil, NewError(CodeUnknownKind, "lookup", "no descriptor for %v", k)
	}
	return d, nil
}

// Descriptors returns the descriptors of all codec kinds in ascending
// order of their kind.
func Descriptors() []*Descriptor {
	ds := make([]*Descriptor, 0, len(descriptors))
	for _, k := range Kinds() {
		ds = append(ds, descriptors[k])
	}
	return ds
}

// SupportsBitrate reports if b is one of the configurable bitrates.
func (d *Descriptor) SupportsBitrate(b int) bool {
	for _, br := range d.Bitrates {
		if br == b {
			return true
		}
	}
	return false
}

func (d *Descriptor) modeByPCM(n int) (FrameMode, bool) {
	for _, m := range d.Modes {
		if m.PCMBytes() == n {
			return m, true
		}
	}
	return FrameMode{}, false
}

func (d *Descriptor) modeByEncoded(n int) (FrameMode, bool) {
	for _, m := range d.Modes {
		if m.EncodedBytes == n {
			return m, true
		}
	}
	return FrameMode{}, false
}

func (d *Descriptor) pcmSizes() string {
	s := make([]string, 0, len(d.Modes))
	for _, m := range d.Modes {
		s = append(s, fmt.Sprint(m.PCMBytes()))
	}
	return strings.Join(s, " or ")
}

func (d *Descriptor) encodedSizes() string {
	s := make([]string, 0, len(d.Modes))
	for _, m := range d.Modes {
		s = append(s, fmt.Sprint(m.EncodedBytes))
	}
	return strings.Join(s, " or ")
}

// ValidateEncode checks the length of a PCM payload for ENCODE.
func (d *Descriptor) ValidateEncode(n int) error {
	if n <= 0 {
		return NewError(CodeInvalidLength, "encode", "%s: empty payload", d.Name)
	}

	switch d.Framing {
	case FramingFixed, FramingVariable:
		if _, ok := d.modeByPCM(n); ok {
			return nil
		}
		return NewError(CodeInvalidLength, "encode",
			"%s expects %s bytes of PCM, got %d", d.Name, d.pcmSizes(), n)

	case FramingMultiple:
		fs := d.Modes[0].PCMBytes()
		if n%fs == 0 {
			return nil
		}
		return NewError(CodeInvalidLength, "encode",
			"%s expects a multiple of %d bytes of PCM, got %d", d.Name, fs, n)

	case FramingStream:
		fs := d.Modes[0].PCMBytes()
		if n%BytesPerSample == 0 && n >= fs {
			return nil
		}
		return NewError(CodeInvalidLength, "encode",
			"%s expects an even number of at least %d bytes of PCM, got %d", d.Name, fs, n)
	}

	return NewError(CodeInvalidLength, "encode", "%s: unknown framing", d.Name)
}

// ValidateDecode checks the length of a coded payload for DECODE.
func (d *Descriptor) ValidateDecode(n int) error {
	if n <= 0 {
		return NewError(CodeInvalidLength, "decode", "%s: empty payload", d.Name)
	}

	switch d.Framing {
	case FramingFixed:
		if _, ok := d.modeByEncoded(n); ok {
			return nil
		}
		return NewError(CodeInvalidLength, "decode",
			"%s expects %s coded bytes, got %d", d.Name, d.encodedSizes(), n)

	case FramingMultiple:
		fs := d.Modes[0].EncodedBytes
		if n%fs == 0 {
			return nil
		}
		return NewError(CodeInvalidLength, "decode",
			"%s expects a multiple of %d coded bytes, got %d", d.Name, fs, n)

	case FramingStream:
		fs := d.Modes[0].EncodedBytes
		if n >= fs {
			return nil
		}
		return NewError(CodeInvalidLength, "decode",
			"%s expects at least %d coded bytes, got %d", d.Name, fs, n)

	case FramingVariable:
		if n <= d.MaxDecodeInput {
			return nil
		}
		return NewError(CodeInvalidLength, "decode",
			"%s expects at most %d coded bytes, got %d", d.Name, d.MaxDecodeInput, n)
	}

	return NewError(CodeInvalidLength, "decode", "%s: unknown framing", d.Name)
}

// EncodedLen returns the exact size of the ENCODE result for a valid PCM
// payload of n bytes. The boolean is false if the size is only known
// after encoding.
func (d *Descriptor) EncodedLen(n int) (int, bool) {
	switch d.Framing {
	case FramingFixed:
		m, ok := d.modeByPCM(n)
		if !ok {
			return 0, false
		}
		return m.EncodedBytes, true
	case FramingMultiple, FramingStream:
		m := d.Modes[0]
		return (n / m.PCMBytes()) * m.EncodedBytes, true
	}
	return 0, false
}

// DecodedLen returns the exact size of the DECODE result for a valid coded
// payload of n bytes. The boolean is false if the size is only known
// after decoding.
func (d *Descriptor) DecodedLen(n int) (int, bool) {
	switch d.Framing {
	case FramingFixed:
		m, ok := d.modeByEncoded(n)
		if !ok {
			return 0, false
		}
		return m.PCMBytes(), true
	case FramingMultiple, FramingStream:
		m := d.Modes[0]
		return (n / m.EncodedBytes) * m.PCMBytes(), true
	case FramingVariable:
		if d.FixedDecodeOutput {
			return d.Modes[0].PCMBytes(), true
		}
	}
	return 0, false
}

// MaxEncodedLen returns the buffer size needed to encode n bytes of PCM.
func (d *Descriptor) MaxEncodedLen(n int) int {
	if l, ok := d.EncodedLen(n); ok {
		return l
	}
	if m, ok := d.modeByPCM(n); ok {
		return m.EncodedBytes
	}
	return 0
}

// MaxDecodedLen returns the buffer size needed to decode n coded bytes.
func (d *Descriptor) MaxDecodedLen(n int) int {
	if l, ok := d.DecodedLen(n); ok {
		return l
	}
	return d.MaxDecodeOutput
}
