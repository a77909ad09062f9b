package native

// ILBC contains the functions of the WebRTC derived libilbc.
type ILBC struct {
	Lib *Library

	EncoderCreate func(enc *uintptr) int16
	EncoderInit   func(enc uintptr, frameLenMs int16) int16
	Encode        func(enc uintptr, speech *int16, samples uintptr, encoded *byte) int32
	EncoderFree   func(enc uintptr) int16

	DecoderCreate func(dec *uintptr) int16
	DecoderInit   func(dec uintptr, frameLenMs int16) int16
	Decode        func(dec uintptr, encoded *byte, encodedBytes uintptr, decoded *int16, speechType *int16) int32
	DecoderFree   func(dec uintptr) int16
}

var (
	ilbc       ILBC
	ilbcLoader loader
)

// LoadILBC opens libilbc and returns its function table.
func LoadILBC() (*ILBC, error) {
	err := ilbcLoader.load(func() error {
		lib, err := Open("ilbc", "libilbc")
		if err != nil {
			return err
		}
		ilbc.Lib = lib
		return lib.bindAll([]binding{
			{&ilbc.EncoderCreate, "WebRtcIlbcfix_EncoderCreate"},
			{&ilbc.EncoderInit, "WebRtcIlbcfix_EncoderInit"},
			{&ilbc.Encode, "WebRtcIlbcfix_Encode"},
			{&ilbc.EncoderFree, "WebRtcIlbcfix_EncoderFree"},
			{&ilbc.DecoderCreate, "WebRtcIlbcfix_DecoderCreate"},
			{&ilbc.DecoderInit, "WebRtcIlbcfix_DecoderInit"},
			{&ilbc.Decode, "WebRtcIlbcfix_Decode"},
			{&ilbc.DecoderFree, "WebRtcIlbcfix_DecoderFree"},
		})
	})
	if err != nil {
		return nil, err
	}
	return &ilbc, nil
}
