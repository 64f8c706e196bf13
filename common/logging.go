// Package common provides the shared logging infrastructure of the OLDAP
// library. It routes error-level output to stderr while everything else goes
// to stdout, so containerized and scripted deployments can treat the two
// streams differently.
//
// The logging system is built on logrus for structured logging. The package
// exposes a global Logger instance used across the library; library callers
// can reconfigure format and level through InitLogging.
package common

import (
	"bytes"
	"os"

	"github.com/sirupsen/logrus"
)

// OutputSplitter routes formatted log lines to stdout or stderr based on
// their severity marker. It works on the final formatted output, so it is
// compatible with both the text and the JSON formatter.
type OutputSplitter struct{}

// Write routes lines containing an error-level marker to stderr and
// everything else to stdout.
func (splitter *OutputSplitter) Write(p []byte) (n int, err error) {
	if bytes.Contains(p, []byte(`level=error`)) || bytes.Contains(p, []byte(`"level":"error"`)) {
		return os.Stderr.Write(p)
	}
	return os.Stdout.Write(p)
}

// Logger is the global logger instance of the library.
var Logger = newLogger()

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(&OutputSplitter{})
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(logrus.InfoLevel)
	return logger
}

// InitLogging reconfigures the global logger. Level accepts the logrus
// level names; format is "text" or "json".
func InitLogging(level, format string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	Logger.SetLevel(lvl)
	switch format {
	case "json":
		Logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}
