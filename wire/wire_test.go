package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	ac "github.com/dh1tw/remoteCodec/audiocodec"
)

func TestRequest(t *testing.T) {
	in := Request{Command: 0x08011000, Payload: []byte{1, 2, 3, 4}}

	out, err := UnmarshalRequest(in.Marshal())
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestRequestWithoutPayload(t *testing.T) {
	b := Request{Command: 2}.Marshal()
	assert.Equal(t, []byte{0x08, 0x02}, b)

	out, err := UnmarshalRequest(b)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), out.Command)
	assert.Empty(t, out.Payload)
}

func TestReply(t *testing.T) {
	ok := NewReply([]byte{9, 8, 7}, nil)
	out, err := UnmarshalReply(ok.Marshal())
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 8, 7}, out.Payload)
	assert.NoError(t, out.Err())

	cause := ac.NewError(ac.CodeInvalidLength, "encode", "gsm expects 320 bytes of PCM, got 10")
	failed := NewReply(nil, cause)
	out, err = UnmarshalReply(failed.Marshal())
	require.NoError(t, err)
	assert.Empty(t, out.Payload)
	assert.Equal(t, ac.CodeInvalidLength, out.Code)
	assert.ErrorIs(t, out.Err(), ac.ErrInvalidLength)
	assert.Equal(t, cause.Error(), out.Err().Error())
}

func TestUnknownFieldsAreSkipped(t *testing.T) {
	var b []byte
	b = protowire.AppendTag(b, 15, protowire.BytesType)
	b = protowire.AppendString(b, "ignored")
	b = protowire.AppendTag(b, requestCommand, protowire.VarintType)
	b = protowire.AppendVarint(b, 1)
	b = protowire.AppendTag(b, 16, protowire.Fixed32Type)
	b = protowire.AppendFixed32(b, 42)
	b = protowire.AppendTag(b, requestPayload, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte{5, 6})
	b = protowire.AppendTag(b, 17, protowire.VarintType)
	b = protowire.AppendVarint(b, 300)

	r, err := UnmarshalRequest(b)
	require.NoError(t, err)
	assert.Equal(t, Request{Command: 1, Payload: []byte{5, 6}}, r)
}

func TestTruncated(t *testing.T) {
	b := Request{Command: 1, Payload: make([]byte, 20)}.Marshal()

	_, err := UnmarshalRequest(b[:len(b)-5])
	assert.ErrorIs(t, err, ac.ErrInvalidParameter)

	_, err = UnmarshalReply([]byte{0x0a})
	assert.ErrorIs(t, err, ac.ErrInvalidParameter)
}

func TestOutOfRange(t *testing.T) {
	var b []byte
	b = protowire.AppendTag(b, requestCommand, protowire.VarintType)
	b = protowire.AppendVarint(b, 1<<40)
	_, err := UnmarshalRequest(b)
	assert.ErrorIs(t, err, ac.ErrInvalidParameter)
}
