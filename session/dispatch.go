package session

import (
	"fmt"
	"strconv"
	"strings"

	ac "github.com/dh1tw/remoteCodec/audiocodec"
	"github.com/dh1tw/remoteCodec/events"
)

// Command identifies an operation on a codec session.
type Command uint32

// Codec session commands.
const (
	Setup Command = iota
	Encode
	Decode
)

var commandNames = map[Command]string{
	Setup:  "setup",
	Encode: "encode",
	Decode: "decode",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("cmd-%d", uint32(c))
}

// ParseCommand returns the command id for a command name ("setup",
// "encode", "decode") or a numeric id in decimal or 0x prefixed hex
// notation.
func ParseCommand(s string) (uint32, error) {
	n := strings.ToLower(strings.TrimSpace(s))
	for c, name := range commandNames {
		if name == n {
			return uint32(c), nil
		}
	}
	id, err := strconv.ParseUint(n, 0, 32)
	if err != nil {
		return 0, ac.NewError(ac.CodeUnknownCommand, "parse", "invalid command %q", s)
	}
	return uint32(id), nil
}

// dispatch must be called with s.mu held.
func (s *Session) dispatch(cmd uint32, payload []byte) ([]byte, error) {
	if s.resampler != nil {
		return s.resampler.Dispatch(cmd, payload)
	}

	switch Command(cmd) {
	case Setup:
		if err := s.setup(payload); err != nil {
			return nil, err
		}
		return []byte{}, nil
	case Encode:
		return s.encode(payload)
	case Decode:
		return s.decode(payload)
	}
	return nil, ac.NewError(ac.CodeUnknownCommand, "dispatch", "command id %d", cmd)
}

// setup (re)creates the codec state with the bitrate class in the single
// payload byte. The previous state is destroyed first; if the new state
// can not be created the session is left without codec state.
func (s *Session) setup(payload []byte) error {
	if !s.desc.RequiresSetup {
		return ac.NewError(ac.CodeUnsupportedCommand, "setup", "%s has no configurable parameters", s.desc.Name)
	}
	if len(payload) != 1 {
		return ac.NewError(ac.CodeInvalidLength, "setup", "expected 1 byte, got %d", len(payload))
	}
	bitrate := int(payload[0]) * 1000
	if !s.desc.SupportsBitrate(bitrate) {
		return ac.NewError(ac.CodeInvalidParameter, "setup", "%s does not support %d bit/s", s.desc.Name, bitrate)
	}

	if s.codec != nil {
		if err := s.codec.Close(); err != nil {
			s.logger.Warn("closing previous codec state failed", "error", err)
		}
		s.codec = nil
		s.bitrate.Store(0)
	}

	c, err := s.newCodec(ac.Bitrate(bitrate))
	if err != nil {
		s.transition("fail")
		s.emit(events.Failed, err.Error())
		s.logger.Error("setup failed", "bitrate", bitrate, "error", err)
		return err
	}

	s.codec = c
	s.bitrate.Store(int64(bitrate))
	s.transition("ready")
	s.emit(events.Setup, fmt.Sprintf("%d bit/s", bitrate))
	s.logger.Info("session configured", "bitrate", bitrate)
	return nil
}

func (s *Session) encode(pcm []byte) ([]byte, error) {
	if s.codec == nil {
		return nil, ac.NewError(ac.CodeUninitializedSession, "encode", "%s session needs setup", s.desc.Name)
	}
	if err := s.desc.ValidateEncode(len(pcm)); err != nil {
		return nil, err
	}

	out, err := s.codec.Encode(pcm)
	if err != nil {
		return nil, asBackendError("encode", err)
	}
	if n, ok := s.desc.EncodedLen(len(pcm)); ok && !s.variableOutput() && len(out) != n {
		return nil, ac.NewError(ac.CodeBackendFailure, "encode",
			"%s returned %d bytes, expected %d", s.desc.Name, len(out), n)
	}
	if limit := s.desc.MaxEncodedLen(len(pcm)); len(out) > limit {
		return nil, ac.NewError(ac.CodeBackendFailure, "encode",
			"%s returned %d bytes, limit is %d", s.desc.Name, len(out), limit)
	}
	return out, nil
}

func (s *Session) decode(data []byte) ([]byte, error) {
	if s.codec == nil {
		return nil, ac.NewError(ac.CodeUninitializedSession, "decode", "%s session needs setup", s.desc.Name)
	}
	if err := s.desc.ValidateDecode(len(data)); err != nil {
		return nil, err
	}

	out, err := s.codec.Decode(data)
	if err != nil {
		return nil, asBackendError("decode", err)
	}
	if n, ok := s.desc.DecodedLen(len(data)); ok && !s.variableOutput() && len(out) != n {
		return nil, ac.NewError(ac.CodeBackendFailure, "decode",
			"%s returned %d bytes, expected %d", s.desc.Name, len(out), n)
	}
	if limit := s.desc.MaxDecodedLen(len(data)); len(out) > limit {
		return nil, ac.NewError(ac.CodeBackendFailure, "decode",
			"%s returned %d bytes, limit is %d", s.desc.Name, len(out), limit)
	}
	return out, nil
}

func (s *Session) variableOutput() bool {
	v, ok := s.codec.(ac.VariableOutput)
	return ok && v.VariableOutput()
}

// asBackendError keeps the typed errors of a backend and wraps all others.
func asBackendError(op string, err error) error {
	if _, ok := err.(*ac.Error); ok {
		return err
	}
	return ac.BackendError(op, err)
}
