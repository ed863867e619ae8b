package logger

import (
	"github.com/sirupsen/logrus"
)

// Logger is a global variable that represents the logger instance.
var Logger *logrus.Logger

// Init initializes the logger by creating a new instance of logrus.Logger.
// Unknown level strings fall back to the logrus default (info).
func Init(level string) {
	Logger = logrus.New()
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	if lvl, err := logrus.ParseLevel(level); err == nil {
		Logger.SetLevel(lvl)
	}
}
