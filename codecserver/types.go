package codecserver

import (
	ac "github.com/dh1tw/remoteCodec/audiocodec"
	"github.com/dh1tw/remoteCodec/session"
)

// Request and response messages of the CodecServer RPC endpoints. They are
// exchanged with the application/json content type. Errors of the codec
// layer are returned in the response body (Code, Message); transport
// errors are returned as RPC errors.

// None is the empty message.
type None struct{}

// OpenRequest opens a session of Kind (codec name or "resampler").
type OpenRequest struct {
	Kind string `json:"kind"`
}

// OpenResponse returns the new session.
type OpenResponse struct {
	Session session.Info `json:"session"`
	Code    ac.Code      `json:"code"`
	Message string       `json:"message,omitempty"`
}

// ControlRequest executes Command on a session.
type ControlRequest struct {
	Session string `json:"session"`
	Command uint32 `json:"command"`
	Payload []byte `json:"payload,omitempty"`
}

// ControlResponse carries the result of a command.
type ControlResponse struct {
	Payload []byte  `json:"payload,omitempty"`
	Code    ac.Code `json:"code"`
	Message string  `json:"message,omitempty"`
}

// CloseRequest closes a session.
type CloseRequest struct {
	Session string `json:"session"`
}

// CloseResponse reports the result of Close.
type CloseResponse struct {
	Code    ac.Code `json:"code"`
	Message string  `json:"message,omitempty"`
}

// CodecsResponse lists the available codecs and the resampler.
type CodecsResponse struct {
	Codecs      []*ac.Descriptor `json:"codecs"`
	Engine      string           `json:"engine"`
	Rates       []int            `json:"rates"`
	Sessions    int              `json:"sessions"`
	MaxSessions int              `json:"max_sessions"`
}

// PingPong is used to measure the round trip time.
type PingPong struct {
	Ping int64 `json:"ping"`
}

// errorFields splits err into the code and message of a response.
func errorFields(err error) (ac.Code, string) {
	if err == nil {
		return ac.CodeOK, ""
	}
	return ac.CodeOf(err), err.Error()
}
