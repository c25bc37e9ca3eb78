package audit

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Logger writes records to the structured log.
type Logger struct {
	logger *log.Logger
}

var _ Emitter = (*Logger)(nil)

func NewLogger(logger *log.Logger) *Logger {
	return &Logger{logger: logger}
}

func (l *Logger) Emit(_ context.Context, r Record) {
	l.logger.WithFields(log.Fields{
		"record_id": r.ID.String(),
		"by":        r.By.String(),
		"value":     r.Value,
		"at":        r.At,
	}).Info("secret written")
}
