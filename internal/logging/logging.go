package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New returns a JSON production logger, or a development logger with
// caller and debug output when verbose is set.
func New(verbose bool) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}
