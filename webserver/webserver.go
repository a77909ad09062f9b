// Package webserver exposes the session manager through a REST API and
// WebSocket endpoints.
package webserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/cskr/pubsub"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dh1tw/remoteCodec/session"
)

// APIVersion is the version prefix of all REST endpoints.
const APIVersion = "1.0"

// MaxBodySize limits the payload of a single command.
const MaxBodySize = 1 << 20

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// WebServer serves the REST API, the WebSocket endpoints and the
// Prometheus metrics.
type WebServer struct {
	sync.RWMutex
	url        string
	router     *mux.Router
	apiVersion string
	apiMatch   *regexp.Regexp
	manager    *session.Manager
	events     *pubsub.PubSub
	gatherer   prometheus.Gatherer
	logger     *slog.Logger
	server     *http.Server
}

// Option is the type for a function option
type Option func(*Options)

// Options contains the optional collaborators of the WebServer.
type Options struct {
	Events   *pubsub.PubSub
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// Events sets the PubSub on which session lifecycle events are published
// (topic events.Session). They are streamed to WebSocket clients of
// /api/v1.0/events/stream.
func Events(ps *pubsub.PubSub) Option {
	return func(args *Options) {
		args.Events = ps
	}
}

// Gatherer sets the source of the /metrics endpoint. Without a Gatherer
// the endpoint is not available.
func Gatherer(g prometheus.Gatherer) Option {
	return func(args *Options) {
		args.Gatherer = g
	}
}

// Logger sets the logger.
func Logger(l *slog.Logger) Option {
	return func(args *Options) {
		args.Logger = l
	}
}

// NewWebServer creates a WebServer which will listen on url (host:port).
func NewWebServer(url string, manager *session.Manager, opts ...Option) (*WebServer, error) {

	if manager == nil {
		return nil, fmt.Errorf("webserver: session manager missing")
	}

	options := Options{
		Logger: slog.Default(),
	}
	for _, option := range opts {
		option(&options)
	}

	web := &WebServer{
		url:        url,
		router:     mux.NewRouter().StrictSlash(true),
		apiVersion: APIVersion,
		apiMatch:   regexp.MustCompile(`api/v\d+\.\d+`),
		manager:    manager,
		events:     options.Events,
		gatherer:   options.Gatherer,
		logger:     options.Logger.With("component", "webserver"),
	}

	web.routes()

	return web, nil
}

// Handler returns the root http.Handler of the WebServer.
func (web *WebServer) Handler() http.Handler {
	return web.apiRedirectRouter(web.router)
}

// Start listens on the configured url and blocks until the server is
// shut down.
func (web *WebServer) Start() error {
	web.Lock()
	web.server = &http.Server{
		Addr:              web.url,
		Handler:           web.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := web.server
	web.Unlock()

	web.logger.Info("listening", "url", web.url)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("webserver: %w", err)
	}
	return nil
}

// Shutdown stops the server gracefully.
func (web *WebServer) Shutdown(ctx context.Context) error {
	web.RLock()
	srv := web.server
	web.RUnlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
