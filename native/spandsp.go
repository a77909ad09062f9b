package native

// Constants from the spandsp headers.
const (
	G726EncodingLinear = 0
	G726PackingNone    = 0

	GSM0610PackingNone  = 0
	GSM0610PackingWAV49 = 1
	GSM0610PackingVoIP  = 2
)

// SpanDSP contains the G.726, GSM 06.10 and LPC-10 functions of libspandsp.
// All state pointers are allocated by the library when NULL is passed to
// the init functions and must be released with the matching free function.
type SpanDSP struct {
	Lib *Library

	G726Init   func(s uintptr, bitRate, extCoding, packing int32) uintptr
	G726Encode func(s uintptr, code *byte, amp *int16, samples int32) int32
	G726Decode func(s uintptr, amp *int16, code *byte, codeBytes int32) int32
	G726Free   func(s uintptr) int32

	GSM0610Init   func(s uintptr, packing int32) uintptr
	GSM0610Encode func(s uintptr, code *byte, amp *int16, samples int32) int32
	GSM0610Decode func(s uintptr, amp *int16, code *byte, codeBytes int32) int32
	GSM0610Free   func(s uintptr) int32

	LPC10EncodeInit func(s uintptr, errorCorrection bool) uintptr
	LPC10Encode     func(s uintptr, code *byte, amp *int16, samples int32) int32
	LPC10EncodeFree func(s uintptr) int32
	LPC10DecodeInit func(s uintptr, errorCorrection bool) uintptr
	LPC10Decode     func(s uintptr, amp *int16, code *byte, codeBytes int32) int32
	LPC10DecodeFree func(s uintptr) int32
}

var (
	spandsp       SpanDSP
	spandspLoader loader
)

// LoadSpanDSP opens libspandsp and returns its function table.
func LoadSpanDSP() (*SpanDSP, error) {
	err := spandspLoader.load(func() error {
		lib, err := Open("spandsp", "libspandsp")
		if err != nil {
			return err
		}
		spandsp.Lib = lib
		return lib.bindAll([]binding{
			{&spandsp.G726Init, "g726_init"},
			{&spandsp.G726Encode, "g726_encode"},
			{&spandsp.G726Decode, "g726_decode"},
			{&spandsp.G726Free, "g726_free"},
			{&spandsp.GSM0610Init, "gsm0610_init"},
			{&spandsp.GSM0610Encode, "gsm0610_encode"},
			{&spandsp.GSM0610Decode, "gsm0610_decode"},
			{&spandsp.GSM0610Free, "gsm0610_free"},
			{&spandsp.LPC10EncodeInit, "lpc10_encode_init"},
			{&spandsp.LPC10Encode, "lpc10_encode"},
			{&spandsp.LPC10EncodeFree, "lpc10_encode_free"},
			{&spandsp.LPC10DecodeInit, "lpc10_decode_init"},
			{&spandsp.LPC10Decode, "lpc10_decode"},
			{&spandsp.LPC10DecodeFree, "lpc10_decode_free"},
		})
	})
	if err != nil {
		return nil, err
	}
	return &spandsp, nil
}
