package webserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	ac "github.com/dh1tw/remoteCodec/audiocodec"
	"github.com/dh1tw/remoteCodec/resampler"
	"github.com/dh1tw/remoteCodec/session"
)

// ErrorCodeHeader carries the name of the error code of failed requests.
const ErrorCodeHeader = "X-Error-Code"

// Codecs is the response of GET /codecs.
type Codecs struct {
	Codecs    []*ac.Descriptor `json:"codecs"`
	Resampler Resampler        `json:"resampler"`
}

// Resampler describes the resampler sessions.
type Resampler struct {
	Engine   string `json:"engine"`
	Rates    []int  `json:"rates"`
	MaxRatio int    `json:"max_ratio"`
}

// OpenRequest is the body of POST /sessions.
type OpenRequest struct {
	Kind string `json:"kind"`
}

var statusCodes = map[ac.Code]int{
	ac.CodeInvalidLength:        http.StatusBadRequest,
	ac.CodeInvalidParameter:     http.StatusBadRequest,
	ac.CodeUnsupportedRate:      http.StatusBadRequest,
	ac.CodeUnknownCommand:       http.StatusBadRequest,
	ac.CodeUnsupportedCommand:   http.StatusBadRequest,
	ac.CodeUnknownKind:          http.StatusBadRequest,
	ac.CodeUninitializedSession: http.StatusConflict,
	ac.CodeSessionBusy:          http.StatusConflict,
	ac.CodeSessionNotFound:      http.StatusNotFound,
	ac.CodeSessionClosed:        http.StatusGone,
	ac.CodeBackendFailure:       http.StatusInternalServerError,
	ac.CodeTooManySessions:      http.StatusServiceUnavailable,
}

// StatusCode returns the HTTP status code for an error code.
func StatusCode(code ac.Code) int {
	if s, ok := statusCodes[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func (web *WebServer) writeError(w http.ResponseWriter, err error) {
	code := ac.CodeOf(err)
	status := StatusCode(code)
	if status >= http.StatusInternalServerError {
		web.logger.Error("request failed", "error", err)
	}
	w.Header().Set("Content-Type", "text/plain; charset=UTF-8")
	w.Header().Set(ErrorCodeHeader, code.String())
	w.WriteHeader(status)
	w.Write([]byte(fmt.Sprintf("%d - %v", status, err)))
}

func (web *WebServer) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		web.logger.Warn("unable to encode response", "error", err)
	}
}

func (web *WebServer) codecsHdlr(w http.ResponseWriter, req *http.Request) {
	defer req.Body.Close()

	msg := Codecs{
		Codecs: []*ac.Descriptor{},
		Resampler: Resampler{
			Engine:   web.manager.Engine(),
			Rates:    resampler.Rates(),
			MaxRatio: resampler.MaxRatio,
		},
	}

	for _, name := range web.manager.Kinds() {
		k, err := ac.ParseKind(name)
		if err != nil {
			continue
		}
		d, err := ac.Lookup(k)
		if err != nil {
			continue
		}
		msg.Codecs = append(msg.Codecs, d)
	}

	web.writeJSON(w, http.StatusOK, msg)
}

func (web *WebServer) sessionsHdlr(w http.ResponseWriter, req *http.Request) {
	defer req.Body.Close()

	switch req.Method {
	case "GET":
		web.writeJSON(w, http.StatusOK, web.manager.List())

	case "POST":
		var msg OpenRequest
		dec := json.NewDecoder(io.LimitReader(req.Body, 4096))
		if err := dec.Decode(&msg); err != nil || msg.Kind == "" {
			web.writeError(w, ac.NewError(ac.CodeInvalidParameter, "open", "invalid request body"))
			return
		}
		s, err := web.manager.Open(msg.Kind)
		if err != nil {
			web.writeError(w, err)
			return
		}
		w.Header().Set("Location", fmt.Sprintf("/api/v%s/sessions/%s", web.apiVersion, s.ID()))
		web.writeJSON(w, http.StatusCreated, s.Info())
	}
}

func (web *WebServer) sessionHdlr(w http.ResponseWriter, req *http.Request) {
	defer req.Body.Close()

	id := mux.Vars(req)["id"]

	switch req.Method {
	case "GET":
		s, err := web.manager.Get(id)
		if err != nil {
			web.writeError(w, err)
			return
		}
		web.writeJSON(w, http.StatusOK, s.Info())

	case "DELETE":
		if err := web.manager.Close(id); err != nil {
			web.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (web *WebServer) commandHdlr(w http.ResponseWriter, req *http.Request) {
	defer req.Body.Close()

	vars := mux.Vars(req)

	cmd, err := session.ParseCommand(vars["command"])
	if err != nil {
		web.writeError(w, err)
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, req.Body, MaxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			web.writeError(w, ac.NewError(ac.CodeInvalidLength, "read", "payload exceeds %d bytes", MaxBodySize))
			return
		}
		web.writeError(w, ac.NewError(ac.CodeInvalidParameter, "read", "%v", err))
		return
	}

	res, err := web.manager.Dispatch(vars["id"], cmd, payload)
	if err != nil {
		web.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	w.Write(res)
}

func (web *WebServer) eventsHdlr(w http.ResponseWriter, req *http.Request) {
	defer req.Body.Close()
	web.writeJSON(w, http.StatusOK, web.manager.History())
}
