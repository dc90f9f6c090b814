package telemetry

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// NewLogrus builds the process logger from LOG_LEVEL / LOG_FORMAT style
// settings. An unknown level falls back to info and is reported in the error.
func NewLogrus(level, format string, out io.Writer) (*logrus.Logger, error) {
	logger := logrus.New()
	if out == nil {
		out = os.Stdout
	}
	logger.SetOutput(out)

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	var err error
	parsed := logrus.InfoLevel
	if strings.TrimSpace(level) != "" {
		parsed, err = logrus.ParseLevel(level)
		if err != nil {
			parsed = logrus.InfoLevel
			err = fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}
	logger.SetLevel(parsed)
	return logger, err
}
