package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	ac "github.com/dh1tw/remoteCodec/audiocodec"
	"github.com/dh1tw/remoteCodec/audio"
	"github.com/dh1tw/remoteCodec/resampler"
	"github.com/dh1tw/remoteCodec/session"
)

var roundtripCmd = &cobra.Command{
	Use:   "roundtrip <codec> <input.wav> <output.wav>",
	Short: "Encode and decode a wav file with a codec",
	Long: `Encode and decode a 16 bit wav file with a codec and write the result.

The input is mixed down to mono and resampled to the rate of the codec.
The sessions are opened locally unless --server-name selects a remote
codec server.
`,
	Args: cobra.ExactArgs(3),
	Run:  runRoundtrip,
}

func init() {
	RootCmd.AddCommand(roundtripCmd)
	addNatsFlags(roundtripCmd)
	roundtripCmd.Flags().StringP("server-name", "Y", "", "use the remote codec server with this name")
	roundtripCmd.Flags().IntP("bitrate", "B", 32000, "bitrate in bit/s for codecs which require a setup (g726)")
}

func runRoundtrip(cmd *cobra.Command, args []string) {

	readConfig()
	bindNatsFlags(cmd)

	if err := checkParameterValues(); err != nil {
		exit(err)
	}
	if f := setupLogger(); f != nil {
		defer f.Close()
	}

	kind, inPath, outPath := args[0], args[1], args[2]
	bitrate, _ := cmd.Flags().GetInt("bitrate")

	k, err := ac.ParseKind(kind)
	if err != nil {
		exit(err)
	}
	desc, err := ac.Lookup(k)
	if err != nil {
		exit(err)
	}

	in, err := audio.ReadWav(inPath)
	if err != nil {
		exit(err)
	}

	var open func(kind string) (session.Dispatcher, error)

	if name, _ := cmd.Flags().GetString("server-name"); name != "" {
		if err := checkServerName(name); err != nil {
			exit(err)
		}
		remote, closeFn, err := connectCodecServer(name)
		if err != nil {
			exit(err)
		}
		defer closeFn()
		open = func(kind string) (session.Dispatcher, error) {
			return remote.Open(context.Background(), kind)
		}
	} else {
		manager, err := newManager(slog.Default(), nil, nil)
		if err != nil {
			exit(err)
		}
		defer manager.CloseAll()
		open = func(kind string) (session.Dispatcher, error) {
			return manager.Open(kind)
		}
	}

	codec, err := open(desc.Name)
	if err != nil {
		exit(err)
	}
	defer codec.Close()

	var rs session.Dispatcher
	if in.Samplerate != desc.Samplerate {
		if rs, err = open(session.ResamplerKind); err != nil {
			exit(err)
		}
		defer rs.Close()
	}

	res, err := roundtrip(codec, rs, desc, in, bitrate)
	if err != nil {
		exit(err)
	}

	if err := audio.WriteWav(outPath, res.Output); err != nil {
		exit(err)
	}

	fmt.Printf("%s: %d frames, %v of audio, %d coded bytes (%.0f bit/s), SNR %.1f dB, took %v\n",
		desc.Name, res.Frames, res.Duration, res.EncodedBytes, res.Bitrate(), res.SNR,
		res.Elapsed.Round(time.Millisecond))
}

type roundtripResult struct {
	Output       audio.PCM
	Frames       int
	EncodedBytes int
	Duration     time.Duration
	Elapsed      time.Duration
	SNR          float32
}

// Bitrate returns the average bitrate of the coded stream.
func (r roundtripResult) Bitrate() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.EncodedBytes*8) / r.Duration.Seconds()
}

// frameSamples returns the amount of samples per ENCODE call. 20 ms
// frames are preferred.
func frameSamples(d *ac.Descriptor) int {
	const target = 160
	switch d.Framing {
	case ac.FramingMultiple, ac.FramingStream:
		n := d.Modes[0].Samples
		return ((target + n - 1) / n) * n
	}
	for _, m := range d.Modes {
		if m.Samples == target {
			return target
		}
	}
	return d.Modes[0].Samples
}

// toCodecRate mixes the input down to mono and resamples it to the rate
// of the codec with rs.
func toCodecRate(rs session.Dispatcher, desc *ac.Descriptor, in audio.PCM) ([]byte, error) {
	pcm := in.Data
	if in.Channels != 1 {
		pcm = audio.Bytes(audio.AdjustChannels(in.Channels, 1, audio.Int16s(pcm)))
	}
	if in.Samplerate == desc.Samplerate {
		return pcm, nil
	}
	if rs == nil {
		return nil, fmt.Errorf("no resampler for %d Hz -> %d Hz", in.Samplerate, desc.Samplerate)
	}

	from, ok := resampler.RateCode(in.Samplerate)
	if !ok {
		return nil, ac.NewError(ac.CodeUnsupportedRate, "roundtrip", "unsupported sample rate %d Hz", in.Samplerate)
	}
	to, ok := resampler.RateCode(desc.Samplerate)
	if !ok {
		return nil, ac.NewError(ac.CodeUnsupportedRate, "roundtrip", "unsupported sample rate %d Hz", desc.Samplerate)
	}

	cmd := resampler.Command{From: from, Channels: 1, To: to}
	return rs.Dispatch(cmd.ID(), pcm)
}

// roundtrip encodes and decodes the input frame by frame. The last frame
// is padded with silence.
func roundtrip(codec, rs session.Dispatcher, desc *ac.Descriptor, in audio.PCM, bitrate int) (roundtripResult, error) {
	res := roundtripResult{}
	start := time.Now()

	pcm, err := toCodecRate(rs, desc, in)
	if err != nil {
		return res, err
	}

	if desc.RequiresSetup {
		if _, err := codec.Dispatch(uint32(session.Setup), []byte{byte(bitrate / 1000)}); err != nil {
			return res, err
		}
	}

	frameBytes := frameSamples(desc) * ac.BytesPerSample
	out := make([]byte, 0, len(pcm))

	for offset := 0; offset < len(pcm); offset += frameBytes {
		frame := make([]byte, frameBytes)
		copy(frame, pcm[offset:])

		coded, err := codec.Dispatch(uint32(session.Encode), frame)
		if err != nil {
			return res, fmt.Errorf("frame %d: %w", res.Frames, err)
		}
		decoded, err := codec.Dispatch(uint32(session.Decode), coded)
		if err != nil {
			return res, fmt.Errorf("frame %d: %w", res.Frames, err)
		}

		res.Frames++
		res.EncodedBytes += len(coded)
		out = append(out, decoded...)
	}

	res.Output = audio.PCM{
		Data:       out,
		Samplerate: desc.Samplerate,
		Channels:   1,
	}
	res.Duration = time.Duration(res.Output.Frames()) * time.Second / time.Duration(desc.Samplerate)
	res.Elapsed = time.Since(start)

	if len(pcm) > 0 && len(out) > 0 {
		if snr, err := audio.SNR(audio.Int16s(pcm), audio.Int16s(out), 0); err == nil {
			res.SNR = snr
		}
	}

	return res, nil
}
