package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cskr/pubsub"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dh1tw/remoteCodec/events"
	"github.com/dh1tw/remoteCodec/metrics"
	"github.com/dh1tw/remoteCodec/webserver"
)

var httpServeCmd = &cobra.Command{
	Use:   "http",
	Short: "HTTP / WebSocket Server",
	Long: `HTTP / WebSocket Server for transcoding sessions

The REST API is available under /api/v1.0; a WebSocket on /ws/{kind}
opens a session which lives as long as the connection. Prometheus
metrics are exposed on /metrics.
`,
	Run: httpCodecServer,
}

func init() {
	serveCmd.AddCommand(httpServeCmd)
	httpServeCmd.Flags().StringP("http-host", "w", "127.0.0.1", "Host (use '0.0.0.0' to listen on all network adapters)")
	httpServeCmd.Flags().IntP("http-port", "k", 9090, "Port of the HTTP API")
}

func httpCodecServer(cmd *cobra.Command, args []string) {

	readConfig()

	viper.BindPFlag("http.host", cmd.Flags().Lookup("http-host"))
	viper.BindPFlag("http.port", cmd.Flags().Lookup("http-port"))

	if err := checkParameterValues(); err != nil {
		exit(err)
	}

	if f := setupLogger(); f != nil {
		defer f.Close()
	}
	logger := slog.Default()

	evPS := pubsub.New(100)
	defer evPS.Shutdown()

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	manager, err := newManager(logger, metrics.New(promReg), func(ev events.Event) {
		evPS.Pub(ev, events.Session)
	})
	if err != nil {
		exit(err)
	}

	url := fmt.Sprintf("%s:%d", viper.GetString("http.host"), viper.GetInt("http.port"))

	web, err := webserver.NewWebServer(url, manager,
		webserver.Events(evPS),
		webserver.Gatherer(promReg),
		webserver.Logger(logger),
	)
	if err != nil {
		exit(err)
	}

	osExit := evPS.Sub(events.OsExit)
	go events.WatchSystemEvents(evPS)

	webErr := make(chan error, 1)
	go func() {
		webErr <- web.Start()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	reaperDone := make(chan struct{})
	go func() {
		manager.RunReaper(ctx, reapInterval())
		close(reaperDone)
	}()

	select {
	case <-osExit:
		logger.Info("shutting down")
	case err := <-webErr:
		if err != nil {
			logger.Error("webserver stopped", "error", err)
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := web.Shutdown(shutdownCtx); err != nil {
		logger.Warn("webserver shutdown", "error", err)
	}

	cancel()
	<-reaperDone
}
