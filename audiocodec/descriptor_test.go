package audiocodec

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLookup(t *testing.T, k Kind) *Descriptor {
	t.Helper()
	d, err := Lookup(k)
	require.NoError(t, err)
	return d
}

func TestValidateEncode(t *testing.T) {
	tests := []struct {
		kind  Kind
		n     int
		valid bool
	}{
		{G726, 2, true},
		{G726, 1000, true},
		{G726, 3, false},
		{G729, 160, true},
		{G729, 480, true},
		{G729, 170, false},
		{GSM0610, 320, true},
		{GSM0610, 318, false},
		{GSM0610, 640, false},
		{ILBC, 320, true},
		{ILBC, 480, true},
		{ILBC, 400, false},
		{LPC10, 360, true},
		{LPC10, 722, true},
		{LPC10, 358, false},
		{LPC10, 361, false},
		{Speex, 320, true},
		{Speex, 640, false},
		{Opus, 160, true},
		{Opus, 960, true},
		{Opus, 200, false},
	}

	for _, tc := range tests {
		d := mustLookup(t, tc.kind)
		err := d.ValidateEncode(tc.n)
		if tc.valid {
			assert.NoError(t, err, "%v %d", tc.kind, tc.n)
			continue
		}
		assert.ErrorIs(t, err, ErrInvalidLength, "%v %d", tc.kind, tc.n)
	}
}

func TestValidateDecode(t *testing.T) {
	tests := []struct {
		kind  Kind
		n     int
		valid bool
	}{
		{G726, 1, true},
		{G726, 333, true},
		{G729, 10, true},
		{G729, 30, true},
		{G729, 15, false},
		{G729, 2, false}, // SID frame
		{GSM0610, 33, true},
		{GSM0610, 32, false},
		{ILBC, 38, true},
		{ILBC, 50, true},
		{ILBC, 44, false},
		{LPC10, 7, true},
		{LPC10, 15, true},
		{LPC10, 6, false},
		{Speex, 1, true},
		{Speex, 200, true},
		{Speex, 201, false},
		{Opus, 1275, true},
		{Opus, 1276, false},
	}

	for _, tc := range tests {
		d := mustLookup(t, tc.kind)
		err := d.ValidateDecode(tc.n)
		if tc.valid {
			assert.NoError(t, err, "%v %d", tc.kind, tc.n)
			continue
		}
		assert.ErrorIs(t, err, ErrInvalidLength, "%v %d", tc.kind, tc.n)
	}
}

func TestEmptyPayloadIsInvalid(t *testing.T) {
	for _, d := range Descriptors() {
		assert.ErrorIs(t, d.ValidateEncode(0), ErrInvalidLength, d.Name)
		assert.ErrorIs(t, d.ValidateDecode(0), ErrInvalidLength, d.Name)
	}
}

func TestEncodedLen(t *testing.T) {
	tests := []struct {
		kind Kind
		in   int
		out  int
	}{
		{G726, 320, 160},
		{G729, 160, 10},
		{G729, 160 * 7, 70},
		{GSM0610, 320, 33},
		{ILBC, 320, 38},
		{ILBC, 480, 50},
		{LPC10, 360, 7},
		{LPC10, 360*3 + 100, 21},
	}

	for _, tc := range tests {
		d := mustLookup(t, tc.kind)
		l, ok := d.EncodedLen(tc.in)
		require.True(t, ok, d.Name)
		assert.Equal(t, tc.out, l, "%s %d", d.Name, tc.in)
	}

	for _, k := range []Kind{Speex, Opus} {
		_, ok := mustLookup(t, k).EncodedLen(320)
		assert.False(t, ok, k.String())
	}
}

func TestDecodedLen(t *testing.T) {
	tests := []struct {
		kind Kind
		in   int
		out  int
	}{
		{G726, 160, 320},
		{G729, 10, 160},
		{G729, 40, 640},
		{GSM0610, 33, 320},
		{ILBC, 38, 320},
		{ILBC, 50, 480},
		{LPC10, 7, 360},
		{LPC10, 20, 720},
		{Speex, 17, 320},
	}

	for _, tc := range tests {
		d := mustLookup(t, tc.kind)
		l, ok := d.DecodedLen(tc.in)
		require.True(t, ok, d.Name)
		assert.Equal(t, tc.out, l, "%s %d", d.Name, tc.in)
	}

	opus := mustLookup(t, Opus)
	_, ok := opus.DecodedLen(100)
	assert.False(t, ok)
	assert.Equal(t, 1920, opus.MaxDecodedLen(100))
}

func TestMaxEncodedLen(t *testing.T) {
	assert.Equal(t, 200, mustLookup(t, Speex).MaxEncodedLen(320))
	assert.Equal(t, 1275, mustLookup(t, Opus).MaxEncodedLen(640))
	assert.Equal(t, 33, mustLookup(t, GSM0610).MaxEncodedLen(320))
	assert.Equal(t, 0, mustLookup(t, Speex).MaxEncodedLen(100))
}

func TestSupportsBitrate(t *testing.T) {
	g726 := mustLookup(t, G726)
	assert.True(t, g726.RequiresSetup)
	for _, b := range []int{16000, 24000, 32000, 40000} {
		assert.True(t, g726.SupportsBitrate(b), b)
	}
	assert.False(t, g726.SupportsBitrate(33000))
	assert.False(t, mustLookup(t, GSM0610).SupportsBitrate(13200))
}

func TestOnlyG726RequiresSetup(t *testing.T) {
	for _, d := range Descriptors() {
		assert.Equal(t, d.Kind == G726, d.RequiresSetup, d.Name)
	}
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup(KindUnknown)
	assert.True(t, errors.Is(err, ErrUnknownKind))
}

func TestFrameModeDuration(t *testing.T) {
	ilbc := mustLookup(t, ILBC)
	assert.Equal(t, "20ms", ilbc.Modes[0].Duration(8000).String())
	assert.Equal(t, "30ms", ilbc.Modes[1].Duration(8000).String())
	assert.Equal(t, "22.5ms", mustLookup(t, LPC10).Modes[0].Duration(8000).String())
}

func TestDescriptorJSON(t *testing.T) {
	b, err := json.Marshal(mustLookup(t, GSM0610))
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "gsm", m["name"])
	assert.Equal(t, "fixed", m["framing"])
	assert.Equal(t, float64(8000), m["samplerate"])
}
