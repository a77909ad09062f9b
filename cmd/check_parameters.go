package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/dh1tw/remoteCodec/utils"
)

// checkParameterValues validates the values from the config file and
// the pflags before anything is started.
func checkParameterValues() error {

	if lvl := viper.GetString("log.level"); !utils.StringInSlice(lvl, utils.LogLevels) {
		return &parmError{
			parm: "log.level",
			msg:  utils.OneOf(utils.LogLevels),
		}
	}

	if viper.GetInt("sessions.max") < 0 {
		return &parmError{
			parm: "sessions.max",
			msg:  "value must be >= 0",
		}
	}

	if viper.GetDuration("sessions.idle-timeout") < 0 {
		return &parmError{
			parm: "sessions.idle-timeout",
			msg:  "value must be >= 0",
		}
	}

	if engine := viper.GetString("resampler.engine"); !utils.StringInSlice(engine, engineNames()) {
		return &parmError{
			parm: "resampler.engine",
			msg:  utils.OneOf(engineNames()),
		}
	}

	if q := viper.GetInt("resampler.quality"); q < 0 || q > 10 {
		return &parmError{
			parm: "resampler.quality",
			msg:  "allowed values are [0...10]",
		}
	}

	if q := viper.GetInt("speex.quality"); q < 0 || q > 10 {
		return &parmError{
			parm: "speex.quality",
			msg:  "allowed values are [0...10]",
		}
	}

	if c := viper.GetInt("speex.complexity"); c < 1 || c > 10 {
		return &parmError{
			parm: "speex.complexity",
			msg:  "allowed values are [1...10]",
		}
	}

	if viper.GetInt("opus.bitrate") < 6000 || viper.GetInt("opus.bitrate") > 510000 {
		return &parmError{
			parm: "opus.bitrate",
			msg:  "allowed values are [6000...510000]",
		}
	}

	if viper.GetInt("opus.complexity") < 0 || viper.GetInt("opus.complexity") > 10 {
		return &parmError{
			parm: "opus.complexity",
			msg:  "allowed values are [0...10]",
		}
	}

	return nil
}

// checkServerName validates a server name which becomes part of the
// NATS subjects.
func checkServerName(name string) error {
	if len(name) == 0 {
		return &parmError{
			parm: "server.name",
			msg:  "server name missing",
		}
	}
	if strings.ContainsAny(name, " _.*>\n\r") {
		return &parmError{
			parm: "server.name",
			msg:  fmt.Sprintf("forbidden character in server name '%s'", name),
		}
	}
	return nil
}

type parmError struct {
	parm string
	msg  string
}

func (p *parmError) Error() string {
	return fmt.Sprintf("%v: %v", p.parm, p.msg)
}
