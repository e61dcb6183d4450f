// file: logger/logger.go

package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger. It is usable before Init, which only
// adjusts its format and level.
var Log = logrus.New()

// Init configures Log for JSON output on stdout. The level is taken from
// LOG_LEVEL when set and defaults to info.
func Init() {
	Log.SetOutput(os.Stdout)
	Log.SetFormatter(&logrus.JSONFormatter{})
	SetLevel(os.Getenv("LOG_LEVEL"))
}

// SetLevel parses level and applies it. Unknown or empty levels fall back to info.
func SetLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)
}
