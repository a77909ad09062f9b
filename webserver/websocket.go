package webserver

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	ac "github.com/dh1tw/remoteCodec/audiocodec"
	"github.com/dh1tw/remoteCodec/events"
	"github.com/dh1tw/remoteCodec/wire"
)

const writeWait = 5 * time.Second

// webSocketHdlr opens a session of the requested kind which lives as long
// as the WebSocket connection. The first message sent to the client is a
// text message with the session info (JSON); afterwards every binary
// message is a wire.Request which is answered with a wire.Reply.
func (web *WebServer) webSocketHdlr(w http.ResponseWriter, req *http.Request) {

	kind := mux.Vars(req)["kind"]

	s, err := web.manager.Open(kind)
	if err != nil {
		web.writeError(w, err)
		return
	}
	defer web.manager.Close(s.ID())

	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		web.logger.Warn("unable to open websocket", "remote", req.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(MaxBodySize + 64)

	logger := web.logger.With("session", s.ID(), "remote", req.RemoteAddr)
	logger.Info("websocket connected", "kind", s.Kind())

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(s.Info()); err != nil {
		logger.Warn("unable to send session info", "error", err)
		return
	}

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("websocket closed", "error", err)
			} else {
				logger.Info("websocket disconnected")
			}
			return
		}

		var reply wire.Reply
		if msgType != websocket.BinaryMessage {
			reply = wire.NewReply(nil, ac.NewError(ac.CodeInvalidParameter, "read", "binary message expected"))
		} else if r, err := wire.UnmarshalRequest(data); err != nil {
			reply = wire.NewReply(nil, err)
		} else {
			reply = wire.NewReply(s.Dispatch(r.Command, r.Payload))
		}

		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.BinaryMessage, reply.Marshal()); err != nil {
			logger.Warn("unable to write reply", "error", err)
			return
		}
	}
}

// eventStreamHdlr forwards the session lifecycle events as JSON text
// messages until the client disconnects.
func (web *WebServer) eventStreamHdlr(w http.ResponseWriter, req *http.Request) {
	if web.events == nil {
		http.NotFound(w, req)
		return
	}

	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		web.logger.Warn("unable to open websocket", "remote", req.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()

	evCh := web.events.Sub(events.Session)

	// the subscriber channel must be consumed until pubsub closes it
	unsub := func() {
		go func() {
			for range evCh {
			}
		}()
		web.events.Unsub(evCh, events.Session)
	}

	// the client is not expected to send anything; reading detects
	// the closed connection
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			unsub()
			return
		case ev, ok := <-evCh:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				unsub()
				return
			}
		}
	}
}
