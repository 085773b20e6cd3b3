package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var Logger *logrus.Logger

func init() {
	Logger = logrus.New()
	Logger.SetOutput(os.Stdout)
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	Logger.SetLevel(logrus.InfoLevel)
}

// SetLevel applies a level name from configuration; unknown names keep the
// current level.
func SetLevel(level string) {
	if level == "" {
		return
	}
	if parsed, err := logrus.ParseLevel(strings.ToLower(level)); err == nil {
		Logger.SetLevel(parsed)
	}
}

// WithComponent adds a component field to the logger
func WithComponent(component string) *logrus.Entry {
	return Logger.WithField("component", component)
}
