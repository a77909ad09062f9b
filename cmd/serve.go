package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dh1tw/remoteCodec/audiocodec/opus"
	"github.com/dh1tw/remoteCodec/audiocodec/speex"
	"github.com/dh1tw/remoteCodec/events"
	"github.com/dh1tw/remoteCodec/metrics"
	"github.com/dh1tw/remoteCodec/resampler"
	"github.com/dh1tw/remoteCodec/resampler/samplerate"
	"github.com/dh1tw/remoteCodec/session"
	"github.com/dh1tw/remoteCodec/utils"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve transcoding sessions through a specific transportation protocol",
	Long:  `Serve transcoding sessions through a specific transportation protocol`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Please select a transportation protocol (--help for available options)")
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)
	serveCmd.PersistentFlags().Int("max-sessions", session.DefaultMaxSessions, "maximum amount of concurrent sessions (0 = unlimited)")
	serveCmd.PersistentFlags().Duration("idle-timeout", session.DefaultIdleTimeout, "close sessions which have not been used for this duration (0 = never)")
	serveCmd.PersistentFlags().String("resampler-engine", samplerate.DefaultConverter, "resampler engine (speex or a libsamplerate converter)")
	serveCmd.PersistentFlags().Int("resampler-quality", resampler.DefaultSpeexQuality, "quality of the speex resampler engine [0...10]")
	serveCmd.PersistentFlags().Int("speex-quality", speex.DefaultQuality, "speex encoder quality [0...10]")
	serveCmd.PersistentFlags().Int("speex-complexity", speex.DefaultComplexity, "speex encoder complexity [1...10]")
	serveCmd.PersistentFlags().Bool("speex-enhancement", speex.DefaultEnhancement, "speex perceptual enhancement")
	serveCmd.PersistentFlags().Bool("g729-vad", false, "g729 voice activity detection (encode only)")
	serveCmd.PersistentFlags().Bool("lpc10-error-correction", false, "lpc10 error correction")
	serveCmd.PersistentFlags().Int("opus-bitrate", opus.DefaultBitrate, "opus bitrate in bit/s")
	serveCmd.PersistentFlags().Int("opus-complexity", opus.DefaultComplexity, "opus complexity [0...10]")
	serveCmd.PersistentFlags().String("library-path", "", "additional directories with the shared codec libraries")

	bindCodecFlags(serveCmd)
}

// bindCodecFlags binds the session and codec flags of cmd to viper.
func bindCodecFlags(cmd *cobra.Command) {
	viper.BindPFlag("sessions.max", cmd.PersistentFlags().Lookup("max-sessions"))
	viper.BindPFlag("sessions.idle-timeout", cmd.PersistentFlags().Lookup("idle-timeout"))
	viper.BindPFlag("resampler.engine", cmd.PersistentFlags().Lookup("resampler-engine"))
	viper.BindPFlag("resampler.quality", cmd.PersistentFlags().Lookup("resampler-quality"))
	viper.BindPFlag("speex.quality", cmd.PersistentFlags().Lookup("speex-quality"))
	viper.BindPFlag("speex.complexity", cmd.PersistentFlags().Lookup("speex-complexity"))
	viper.BindPFlag("speex.enhancement", cmd.PersistentFlags().Lookup("speex-enhancement"))
	viper.BindPFlag("g729.vad", cmd.PersistentFlags().Lookup("g729-vad"))
	viper.BindPFlag("lpc10.error-correction", cmd.PersistentFlags().Lookup("lpc10-error-correction"))
	viper.BindPFlag("opus.bitrate", cmd.PersistentFlags().Lookup("opus-bitrate"))
	viper.BindPFlag("opus.complexity", cmd.PersistentFlags().Lookup("opus-complexity"))
	viper.BindPFlag("native.library-path", cmd.PersistentFlags().Lookup("library-path"))
}

// setupLogger configures the default logger from log.level and log.file.
// The returned file (if any) has to be closed on exit.
func setupLogger() *os.File {
	f, err := utils.ConfigureDefaultLogger(viper.GetString("log.level"), viper.GetString("log.file"))
	if err != nil {
		exit(fmt.Errorf("logger: %w", err))
	}
	return f
}

// newManager creates the session manager with the native codec backends
// and the configured parameters.
func newManager(logger *slog.Logger, m *metrics.Metrics, onEvent func(events.Event)) (*session.Manager, error) {
	engine, err := newEngine()
	if err != nil {
		return nil, err
	}

	opts := []session.Option{
		session.MaxSessions(viper.GetInt("sessions.max")),
		session.IdleTimeout(viper.GetDuration("sessions.idle-timeout")),
		session.Engine(engine),
		session.Metrics(m),
		session.Logger(logger),
		session.OnEvent(onEvent),
	}
	opts = append(opts, codecOptions()...)

	return session.NewManager(newRegistry(), opts...), nil
}

// reapInterval returns how often idle sessions are checked.
func reapInterval() time.Duration {
	d := viper.GetDuration("sessions.idle-timeout") / 4
	if d < time.Second {
		d = time.Second
	}
	return d
}
