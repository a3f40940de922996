package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the application logger. Output is JSON so the mobile API's
// logs can be shipped as-is; level comes from LOG_LEVEL (default info).
func New() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	return log
}
