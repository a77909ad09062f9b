// Package wire contains the binary envelope of the control protocol which
// is exchanged over WebSocket connections. Requests and replies are
// encoded in the protobuf wire format:
//
//	Request { 1: command (varint), 2: payload (bytes) }
//	Reply   { 1: payload (bytes), 2: error code (varint), 3: message (string) }
//
// Unknown fields are skipped.
package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	ac "github.com/dh1tw/remoteCodec/audiocodec"
)

// Field numbers of the envelopes.
const (
	requestCommand protowire.Number = 1
	requestPayload protowire.Number = 2

	replyPayload protowire.Number = 1
	replyCode    protowire.Number = 2
	replyMessage protowire.Number = 3
)

// Request carries a single command and its payload.
type Request struct {
	Command uint32
	Payload []byte
}

// Reply carries the result of a command. Code is CodeOK on success.
type Reply struct {
	Payload []byte
	Code    ac.Code
	Message string
}

// NewReply builds the reply for the result of Dispatch.
func NewReply(payload []byte, err error) Reply {
	if err != nil {
		return Reply{Code: ac.CodeOf(err), Message: err.Error()}
	}
	return Reply{Payload: payload}
}

// Err returns the error carried by the reply.
func (r Reply) Err() error {
	return ac.FromCode(r.Code, r.Message)
}

// Marshal encodes the request.
func (r Request) Marshal() []byte {
	b := make([]byte, 0, len(r.Payload)+16)
	b = protowire.AppendTag(b, requestCommand, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(r.Command))
	if len(r.Payload) > 0 {
		b = protowire.AppendTag(b, requestPayload, protowire.BytesType)
		b = protowire.AppendBytes(b, r.Payload)
	}
	return b
}

// UnmarshalRequest decodes a request.
func UnmarshalRequest(b []byte) (Request, error) {
	var r Request
	err := walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == requestCommand && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return n, nil
			}
			if v > 0xffffffff {
				return 0, fmt.Errorf("command %d out of range", v)
			}
			r.Command = uint32(v)
			return n, nil
		case num == requestPayload && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n >= 0 {
				r.Payload = append([]byte{}, v...)
			}
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	return r, err
}

// Marshal encodes the reply.
func (r Reply) Marshal() []byte {
	b := make([]byte, 0, len(r.Payload)+len(r.Message)+16)
	if len(r.Payload) > 0 {
		b = protowire.AppendTag(b, replyPayload, protowire.BytesType)
		b = protowire.AppendBytes(b, r.Payload)
	}
	if r.Code != ac.CodeOK {
		b = protowire.AppendTag(b, replyCode, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(r.Code))
	}
	if r.Message != "" {
		b = protowire.AppendTag(b, replyMessage, protowire.BytesType)
		b = protowire.AppendString(b, r.Message)
	}
	return b
}

// UnmarshalReply decodes a reply.
func UnmarshalReply(b []byte) (Reply, error) {
	var r Reply
	err := walk(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == replyPayload && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n >= 0 {
				r.Payload = append([]byte{}, v...)
			}
			return n, nil
		case num == replyCode && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return n, nil
			}
			if v > 0xff {
				return 0, fmt.Errorf("error code %d out of range", v)
			}
			r.Code = ac.Code(v)
			return n, nil
		case num == replyMessage && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n >= 0 {
				r.Message = v
			}
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	return r, err
}

// walk calls field for every field in b. field returns the number of
// bytes of the field value it consumed, or a negative protowire error.
func walk(b []byte, field func(protowire.Number, protowire.Type, []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return ac.NewError(ac.CodeInvalidParameter, "unmarshal", "%v", protowire.ParseError(n))
		}
		b = b[n:]

		n, err := field(num, typ, b)
		if err != nil {
			return ac.NewError(ac.CodeInvalidParameter, "unmarshal", "field %d: %v", num, err)
		}
		if n < 0 {
			return ac.NewError(ac.CodeInvalidParameter, "unmarshal", "field %d: %v", num, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return nil
}
