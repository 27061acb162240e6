package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New builds the process logger: JSON production output, or the
// human-readable development encoder when debug is set.
func New(debug bool) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}
