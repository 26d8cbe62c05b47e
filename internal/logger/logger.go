package logger

import (
	"go.uber.org/zap"
)

var logger *zap.Logger

// New picks the zap preset for the given environment: production JSON
// logs for "prod", the example logger for "test", development otherwise.
func New(environment string) (*zap.Logger, error) {
	var (
		l   *zap.Logger
		err error
	)
	switch environment {
	case "prod", "production":
		l, err = zap.NewProduction()
	case "test":
		l = zap.NewExample()
	default:
		l, err = zap.NewDevelopment()
	}

	return l, err
}

func MustNew(environment string) *zap.Logger {
	return zap.Must(New(environment))
}

func Init(environment string) (*zap.Logger, error) {
	l, err := New(environment)
	if err != nil {
		return nil, err
	}

	logger = l
	return logger, nil
}

func Get() *zap.Logger {
	if logger == nil {
		panic("logger not initialized")
	}

	return logger
}
