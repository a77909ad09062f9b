package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	micro "github.com/asim/go-micro/v3"
	"github.com/asim/go-micro/v3/server"
	"github.com/cskr/pubsub"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dh1tw/remoteCodec/codecserver"
	"github.com/dh1tw/remoteCodec/events"
)

var natsServeCmd = &cobra.Command{
	Use:   "nats",
	Short: "NATS Server",
	Long: `NATS Server for transcoding sessions

The codec server registers itself as a micro service with the endpoints
CodecServer.Open, .Control, .Close, .Codecs and .Ping. Session lifecycle
events are published on <service>.events. You need a NATS broker up and
running to which the server can connect to.
`,
	Run: natsCodecServer,
}

func init() {
	serveCmd.AddCommand(natsServeCmd)
	addNatsFlags(natsServeCmd)
	natsServeCmd.Flags().StringP("server-name", "Y", "", "server name (e.g. 'mystation')")
}

func natsCodecServer(cmd *cobra.Command, args []string) {

	readConfig()

	// bind the pflags to viper settings
	bindNatsFlags(cmd)
	viper.BindPFlag("server.name", cmd.Flags().Lookup("server-name"))

	// check if values from config file / pflags are valid
	if err := checkParameterValues(); err != nil {
		exit(err)
	}

	serverName := viper.GetString("server.name")
	if err := checkServerName(serverName); err != nil {
		exit(err)
	}

	if f := setupLogger(); f != nil {
		defer f.Close()
	}

	svcName := serviceName(serverName)
	logger := slog.Default().With("service", svcName)

	reg, br, tr := natsComponents(svcName)

	// this is a workaround since we must set server.Address with the
	// sanitized version of our service name. The server.Address will be
	// used in nats as the topic on which the server (transport) will be
	// listening on.
	svr := server.NewServer(
		server.Name(svcName),
		server.Address(validateSubject(svcName)),
		server.RegisterInterval(time.Second*10),
		server.Transport(tr),
		server.Registry(reg),
		server.Broker(br),
	)

	// version is typically defined through a git tag and injected during
	// compilation; if not, just set it to "dev"
	if version == "" {
		version = "dev"
	}

	rs := micro.NewService(
		micro.Name(svcName),
		micro.Broker(br),
		micro.Transport(tr),
		micro.Registry(reg),
		micro.Version(version),
		micro.Server(svr),
	)

	// the session lifecycle events are distributed through the pubsub
	evPS := pubsub.New(100)
	defer evPS.Shutdown()

	manager, err := newManager(logger, nil, func(ev events.Event) {
		evPS.Pub(ev, events.Session)
	})
	if err != nil {
		exit(err)
	}

	cs, err := codecserver.NewCodecServer(
		codecserver.ServiceName(svcName),
		codecserver.Manager(manager),
		codecserver.Broker(br),
		codecserver.Events(evPS.Sub(events.Session)),
		codecserver.Logger(logger),
	)
	if err != nil {
		exit(err)
	}

	// initialize our micro service
	rs.Init()

	// before we annouce this service, we have to ensure that no other
	// service with the same name exists. Therefore we query the
	// registry for all other existing services.
	services, err := reg.ListServices()
	if err != nil {
		exit(fmt.Errorf("registry: %w", err))
	}

	// if a service with this name already exists, then exit
	for _, service := range services {
		if service.Name == svcName {
			exit(fmt.Errorf("service %s already exists", service.Name))
		}
	}

	// connect the broker
	if err := br.Connect(); err != nil {
		exit(fmt.Errorf("broker: %v", err))
	}

	// register our CodecServer RPC handler
	if err := micro.RegisterHandler(rs.Server(), cs); err != nil {
		exit(err)
	}

	// close idle sessions; all sessions are closed once the service stops
	ctx, cancel := context.WithCancel(context.Background())
	reaperDone := make(chan struct{})
	go func() {
		manager.RunReaper(ctx, reapInterval())
		close(reaperDone)
	}()

	logger.Info("codec server started", "kinds", manager.Kinds(), "engine", manager.Engine())

	// run the micro service
	if err := rs.Run(); err != nil {
		logger.Error("service stopped", "error", err)
	}

	cancel()
	<-reaperDone
}
