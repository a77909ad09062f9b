package native

// Constants from speex.h.
const (
	SpeexModeNB = 0

	SpeexSetEnh        = 0
	SpeexGetFrameSize  = 3
	SpeexSetQuality    = 4
	SpeexSetVBR        = 12
	SpeexSetComplexity = 16
	SpeexSetVAD        = 30
)

// SpeexBitsSize is large enough to hold a SpeexBits struct on all
// supported platforms.
const SpeexBitsSize = 64

// Speex contains the narrowband encoder, decoder and bit packing functions
// of libspeex.
type Speex struct {
	Lib *Library

	LibGetMode func(mode int32) uintptr

	EncoderInit    func(mode uintptr) uintptr
	EncoderCtl     func(state uintptr, request int32, ptr *int32) int32
	EncodeInt      func(state uintptr, in *int16, bits *byte) int32
	EncoderDestroy func(state uintptr)

	DecoderInit    func(mode uintptr) uintptr
	DecoderCtl     func(state uintptr, request int32, ptr *int32) int32
	DecodeInt      func(state uintptr, bits *byte, out *int16) int32
	DecoderDestroy func(state uintptr)

	BitsInit     func(bits *byte)
	BitsReset    func(bits *byte)
	BitsWrite    func(bits *byte, out *byte, maxLen int32) int32
	BitsReadFrom func(bits *byte, in *byte, length int32)
	BitsDestroy  func(bits *byte)
}

var (
	speex       Speex
	speexLoader loader
)

// LoadSpeex opens libspeex and returns its function table.
func LoadSpeex() (*Speex, error) {
	err := speexLoader.load(func() error {
		lib, err := Open("speex", "libspeex")
		if err != nil {
			return err
		}
		speex.Lib = lib
		return lib.bindAll([]binding{
			{&speex.LibGetMode, "speex_lib_get_mode"},
			{&speex.EncoderInit, "speex_encoder_init"},
			{&speex.EncoderCtl, "speex_encoder_ctl"},
			{&speex.EncodeInt, "speex_encode_int"},
			{&speex.EncoderDestroy, "speex_encoder_destroy"},
			{&speex.DecoderInit, "speex_decoder_init"},
			{&speex.DecoderCtl, "speex_decoder_ctl"},
			{&speex.DecodeInt, "speex_decode_int"},
			{&speex.DecoderDestroy, "speex_decoder_destroy"},
			{&speex.BitsInit, "speex_bits_init"},
			{&speex.BitsReset, "speex_bits_reset"},
			{&speex.BitsWrite, "speex_bits_write"},
			{&speex.BitsReadFrom, "speex_bits_read_from"},
			{&speex.BitsDestroy, "speex_bits_destroy"},
		})
	})
	if err != nil {
		return nil, err
	}
	return &speex, nil
}
