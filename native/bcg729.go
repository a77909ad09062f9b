package native

// BCG729 contains the encoder and decoder channel functions of libbcg729.
type BCG729 struct {
	Lib *Library

	InitEncoder  func(enableVAD uint8) uintptr
	Encode       func(ctx uintptr, in *int16, bitStream *byte, bitStreamLength *uint8)
	CloseEncoder func(ctx uintptr)

	InitDecoder  func() uintptr
	Decode       func(ctx uintptr, bitStream *byte, bitStreamLength, frameErasure, sidFrame, rfc3389Payload uint8, out *int16)
	CloseDecoder func(ctx uintptr)
}

var (
	bcg729       BCG729
	bcg729Loader loader
)

// LoadBCG729 opens libbcg729 and returns its function table.
func LoadBCG729() (*BCG729, error) {
	err := bcg729Loader.load(func() error {
		lib, err := Open("bcg729", "libbcg729")
		if err != nil {
			return err
		}
		bcg729.Lib = lib
		return lib.bindAll([]binding{
			{&bcg729.InitEncoder, "initBcg729EncoderChannel"},
			{&bcg729.Encode, "bcg729Encoder"},
			{&bcg729.CloseEncoder, "closeBcg729EncoderChannel"},
			{&bcg729.InitDecoder, "initBcg729DecoderChannel"},
			{&bcg729.Decode, "bcg729Decoder"},
			{&bcg729.CloseDecoder, "closeBcg729DecoderChannel"},
		})
	})
	if err != nil {
		return nil, err
	}
	return &bcg729, nil
}
