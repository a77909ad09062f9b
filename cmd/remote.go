package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/asim/go-micro/v3/client"
	"github.com/google/uuid"

	"github.com/dh1tw/remoteCodec/events"
	"github.com/dh1tw/remoteCodec/proxy"
)

// connectCodecServer connects through NATS to the codec server with the
// given name. The returned function closes the proxy and the broker.
func connectCodecServer(serverName string) (*proxy.CodecServer, func(), error) {

	host, _ := os.Hostname()
	name := fmt.Sprintf("remoteCodec.client.%s.%s", validateSubject(host), uuid.NewString()[:8])

	reg, br, tr := natsComponents(name)

	cl := client.NewClient(
		client.Broker(br),
		client.Registry(reg),
		client.Transport(tr),
	)

	if err := br.Connect(); err != nil {
		return nil, nil, fmt.Errorf("broker: %w", err)
	}

	logger := slog.Default().With("server", serverName)

	cs, err := proxy.NewCodecServer(serviceName(serverName), cl, make(chan struct{}),
		proxy.Logger(logger),
		proxy.PingInterval(0),
		proxy.NotifyCb(func(ev events.Event) {
			logger.Debug("session event", "type", ev.Type, "session", ev.SessionID, "kind", ev.Kind)
		}),
	)
	if err != nil {
		br.Disconnect()
		return nil, nil, err
	}

	closeFn := func() {
		cs.Close()
		br.Disconnect()
	}
	return cs, closeFn, nil
}
