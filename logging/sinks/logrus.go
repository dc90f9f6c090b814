package sinks

import (
	"context"

	"github.com/sirupsen/logrus"

	"motion-arena/server/logging"
)

// Logrus forwards events to a logrus logger as structured entries.
type Logrus struct {
	logger *logrus.Logger
}

func NewLogrus(logger *logrus.Logger) *Logrus {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Logrus{logger: logger}
}

func (s *Logrus) Write(event logging.Event) error {
	fields := logrus.Fields{
		"tick":  event.Tick,
		"actor": formatEntity(event.Actor),
	}
	if event.Category != "" {
		fields["category"] = event.Category
	}
	if len(event.Targets) > 0 {
		targets := make([]string, 0, len(event.Targets))
		for _, target := range event.Targets {
			targets = append(targets, formatEntity(target))
		}
		fields["targets"] = targets
	}
	if event.Payload != nil {
		fields["payload"] = event.Payload
	}
	for k, v := range event.Extra {
		if _, taken := fields[k]; !taken {
			fields[k] = v
		}
	}
	if event.CommandID != "" {
		fields["commandId"] = event.CommandID
	}
	entry := s.logger.WithFields(fields).WithTime(event.Time)
	entry.Log(logrusLevel(event.Severity), string(event.Type))
	return nil
}

func (s *Logrus) Close(context.Context) error {
	return nil
}

func logrusLevel(sev logging.Severity) logrus.Level {
	switch sev {
	case logging.SeverityDebug:
		return logrus.DebugLevel
	case logging.SeverityWarn:
		return logrus.WarnLevel
	case logging.SeverityError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
