package audio

import (
	"fmt"
	"io"
	"os"

	ga "github.com/go-audio/audio"
	wav "github.com/go-audio/wav"
)

// ReadWav reads a 16 bit PCM wav file.
func ReadWav(path string) (PCM, error) {
	f, err := os.Open(path)
	if err != nil {
		return PCM{}, err
	}
	defer f.Close()

	return DecodeWav(f)
}

// DecodeWav decodes a 16 bit PCM wav stream.
func DecodeWav(r io.ReadSeeker) (PCM, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return PCM{}, fmt.Errorf("invalid wav file")
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return PCM{}, fmt.Errorf("read wav: %v", err)
	}
	if d.BitDepth != 16 {
		return PCM{}, fmt.Errorf("unsupported bit depth %d (only 16 bit)", d.BitDepth)
	}

	samples := make([]int16, len(buf.Data))
	for i, s := range buf.Data {
		samples[i] = int16(s)
	}

	return PCM{
		Data:       Bytes(samples),
		Samplerate: int(d.SampleRate),
		Channels:   int(d.NumChans),
	}, nil
}

// WriteWav writes the PCM buffer as a 16 bit wav file.
func WriteWav(path string, p PCM) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := EncodeWav(f, p); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// EncodeWav encodes the PCM buffer as a 16 bit wav stream.
func EncodeWav(w io.WriteSeeker, p PCM) error {
	if p.Channels <= 0 || p.Samplerate <= 0 {
		return fmt.Errorf("invalid wav format: %d Hz, %d channels", p.Samplerate, p.Channels)
	}

	enc := wav.NewEncoder(w, p.Samplerate, 16, p.Channels, 1)

	samples := Int16s(p.Data)
	buf := ga.IntBuffer{
		Format: &ga.Format{
			SampleRate:  p.Samplerate,
			NumChannels: p.Channels,
		},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		buf.Data[i] = int(s)
	}

	if err := enc.Write(&buf); err != nil {
		return err
	}
	return enc.Close()
}
