package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configure le logger global zerolog. Les logs partent sur stderr : stdout reste
// réservé aux résultats.
func Init(level string, console bool) {
	InitWithWriter(os.Stderr, level, console)
}

// InitWithWriter est Init avec une sortie explicite.
func InitWithWriter(out io.Writer, level string, console bool) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	log.Debug().Str("level", lvl.String()).Msg("logger initialised")
}
