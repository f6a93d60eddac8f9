package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// Init builds a logger for environment and installs it as zap's global logger
func Init(environment string) error {
	l, err := New(environment)
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(l)
	return nil
}

// New returns a development logger for "development" or "test", and a
// production logger otherwise.
func New(environment string) (*zap.Logger, error) {
	var (
		l   *zap.Logger
		err error
	)
	switch environment {
	case "development", "dev", "test":
		l, err = zap.NewDevelopment()
	default:
		l, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build %s logger -> %w", environment, err)
	}
	return l, nil
}
