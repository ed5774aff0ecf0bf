package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

var logger = logrus.New()

// Init configures the process-wide logger. JSON output in production so log
// aggregation can index fields, colored text everywhere else.
func Init(env string) {
	logger.SetOutput(os.Stdout)
	logger.SetLevel(logrus.InfoLevel)

	if env == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			ForceColors:      true,
			FullTimestamp:    false,
			QuoteEmptyFields: true,
		})
		logger.SetLevel(logrus.DebugLevel)
	}
}

func L() *logrus.Logger {
	return logger
}
