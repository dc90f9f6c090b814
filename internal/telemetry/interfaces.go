package telemetry

// Logger is the printf surface rooms, handlers and config loading report
// through. *logrus.Logger satisfies it.
type Logger interface {
	Printf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

// Nop discards everything.
func Nop() Logger {
	return nopLogger{}
}

// Metrics is the counter and gauge surface the simulation records into.
// *logging.Metrics satisfies it.
type Metrics interface {
	Add(key string, delta uint64)
	Store(key string, value uint64)
}
