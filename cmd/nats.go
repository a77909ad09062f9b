package cmd

import (
	"fmt"
	"time"

	natsBroker "github.com/asim/go-micro/plugins/broker/nats/v3"
	natsReg "github.com/asim/go-micro/plugins/registry/nats/v3"
	natsTr "github.com/asim/go-micro/plugins/transport/nats/v3"
	"github.com/asim/go-micro/v3/broker"
	"github.com/asim/go-micro/v3/registry"
	"github.com/asim/go-micro/v3/transport"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serviceName returns the fully qualified name of a codec server.
func serviceName(serverName string) string {
	return fmt.Sprintf("shackbus.radio.%s.codec", serverName)
}

// addNatsFlags adds the flags of the NATS connection to cmd.
func addNatsFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("broker-url", "u", "localhost", "Broker URL")
	cmd.Flags().IntP("broker-port", "p", 4222, "Broker Port")
	cmd.Flags().StringP("password", "P", "", "NATS Password")
	cmd.Flags().StringP("username", "U", "", "NATS Username")
}

// bindNatsFlags binds the NATS flags of cmd to viper.
func bindNatsFlags(cmd *cobra.Command) {
	viper.BindPFlag("nats.broker-url", cmd.Flags().Lookup("broker-url"))
	viper.BindPFlag("nats.broker-port", cmd.Flags().Lookup("broker-port"))
	viper.BindPFlag("nats.password", cmd.Flags().Lookup("password"))
	viper.BindPFlag("nats.username", cmd.Flags().Lookup("username"))
}

// natsComponents returns the nats based registry, broker and transport.
// name is used as the nats.Options.Name so that the connections can be
// distinguished when monitoring the nats server with nats-top.
func natsComponents(name string) (registry.Registry, broker.Broker, transport.Transport) {

	natsAddr := fmt.Sprintf("nats://%s:%v",
		viper.GetString("nats.broker-url"),
		viper.GetInt("nats.broker-port"))

	// start from default nats config and add the common options
	nopts := nats.GetDefaultOptions()
	nopts.Servers = []string{natsAddr}
	nopts.User = viper.GetString("nats.username")
	nopts.Password = viper.GetString("nats.password")

	regNatsOpts := nopts
	brNatsOpts := nopts
	trNatsOpts := nopts

	regNatsOpts.Name = name + ":registry"
	brNatsOpts.Name = name + ":broker"
	trNatsOpts.Name = name + ":transport"

	regTimeout := registry.Timeout(time.Second * 2)

	reg := natsReg.NewRegistry(natsReg.Options(regNatsOpts), regTimeout)
	br := natsBroker.NewBroker(natsBroker.Options(brNatsOpts))
	tr := natsTr.NewTransport(natsTr.Options(trNatsOpts))

	return reg, br, tr
}
