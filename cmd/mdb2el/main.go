package main

import (
	"github.com/timmy/mdb2el/internal/logger"
)

func main() {
	appLogger := logger.NewDefault()
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	if err := NewRootCommand(appLogger).Execute(); err != nil {
		appLogger.WithError(err).Error("mdb2el failed")
	}
	// Failures are reported in the log only; the exit status is always 0.
}
