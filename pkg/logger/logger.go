// Package logger constructs the structured logger handed to every
// subsystem at context construction.
package logger

import "go.uber.org/zap"

// New builds a production-configured, sugared logger tagged with the
// given service name. Callers that don't want logging at all (tests,
// throwaway contexts) can pass the result of Noop instead.
func New(service string) *zap.SugaredLogger {
	base, err := zap.NewProduction()
	if err != nil {
		base = zap.NewNop()
	}
	return base.Sugar().With("service", service)
}

// Noop returns a logger that discards everything, for tests and
// embedders that don't want the store's diagnostic output.
func Noop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
