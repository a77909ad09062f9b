package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "remoteCodec",
	Short: "Audio transcoding sessions over the network",
	Long: `remoteCodec runs transcoding sessions for telephony voice codecs.

Clients open a session for a codec (G.726, G.729, GSM 06.10, iLBC, LPC-10,
Speex, Opus) or for the resampler and send ENCODE / DECODE / resample
commands to it. The sessions are exposed through HTTP / WebSocket or as
a micro service over NATS.
`,
}

// Execute adds all child commands to the root command sets flags
// appropriately. This is called by main.main(). It only needs to happen
// once to the rootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.remoteCodec.[yaml|toml|json])")
	RootCmd.PersistentFlags().String("log-level", "info", "log level (none, error, warn, info, debug)")
	RootCmd.PersistentFlags().String("log-file", "", "write JSON logs to this file instead of stdout")

	viper.BindPFlag("log.level", RootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.file", RootCmd.PersistentFlags().Lookup("log-file"))
}

// initConfig sets the config file location; it is read by readConfig.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".remoteCodec")
	}

	viper.SetEnvPrefix("REMOTECODEC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
}

// readConfig tries to read the config file. A missing file is not an
// error.
func readConfig() {
	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	} else {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok || strings.Contains(err.Error(), "Not Found in") {
			fmt.Println("no config file found")
		} else {
			fmt.Fprintf(os.Stderr, "Error parsing config file %v: %v\n",
				viper.ConfigFileUsed(), err)
			os.Exit(1)
		}
	}
}

// exit prints the error to stderr and returns with exit code 1
func exit(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
