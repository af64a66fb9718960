package logging

import (
	"go.uber.org/zap"
)

// Log is the shared application logger. Init must run before use;
// until then it is a no-op logger so tests need no setup.
var Log = zap.NewNop()

// Init builds the zap logger for the given environment and installs it
// as the package logger.
func Init(environment string) error {
	var logger *zap.Logger
	var err error

	if environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return err
	}

	Log = logger
	return nil
}

// Sync flushes buffered log entries. Called on shutdown.
func Sync() {
	_ = Log.Sync()
}
