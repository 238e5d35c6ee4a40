package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

var (
	// Log is the global logger instance
	Log zerolog.Logger
)

func init() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano

	Log = zerolog.New(newWriter()).
		Level(zerolog.InfoLevel).
		With().
		Timestamp().
		Caller().
		Logger()
}

// newWriter picks the output format: plain JSON when LOG_FORMAT=json
// (for log collectors), colored console output otherwise.
func newWriter() zerolog.LevelWriter {
	if os.Getenv("LOG_FORMAT") == "json" {
		return zerolog.MultiLevelWriter(os.Stdout)
	}
	return zerolog.MultiLevelWriter(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "2006-01-02 15:04:05",
	})
}

// SetLevel sets the log level. Accepts zerolog level names as well as
// the server mode strings "debug" and "release".
func SetLevel(levelStr string) {
	var level zerolog.Level
	switch levelStr {
	case "release":
		level = zerolog.InfoLevel
	default:
		var err error
		level, err = zerolog.ParseLevel(levelStr)
		if err != nil {
			Log.Warn().Str("level", levelStr).Msg("invalid log level, defaulting to info")
			level = zerolog.InfoLevel
		}
	}
	zerolog.SetGlobalLevel(level)
	Log = Log.Level(level)
}
