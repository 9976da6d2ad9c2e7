// Package logger provides a wrapper around logrus for structured logging.
package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger creates a new configured logger instance
func NewLogger(logLevel string) *logrus.Logger {
	return NewLoggerForEnvironment(logLevel, os.Getenv("ENVIRONMENT"))
}

// NewLoggerForEnvironment creates a logger whose format follows the deployment environment.
// Production logs are JSON; everything else is colored text.
func NewLoggerForEnvironment(logLevel, environment string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logger.Warnf("Invalid log level '%s', defaulting to info", logLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if environment == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
	}

	return logger
}

func orDefault(baseLogger *logrus.Logger) *logrus.Logger {
	if baseLogger == nil {
		return logrus.New()
	}
	return baseLogger
}
