package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogDispatcher só registra; usado em dev e quando não há fila.
type LogDispatcher struct {
	log *zap.Logger
}

func NewLogDispatcher(log *zap.Logger) *LogDispatcher {
	return &LogDispatcher{log: log}
}

func (d *LogDispatcher) Send(_ context.Context, msg SlotOpened) error {
	d.log.Info("waitlist notification",
		zap.Uint("entry_id", msg.EntryID),
		zap.String("to", msg.Email),
		zap.String("date", msg.Date),
		zap.String("start_time", msg.StartTime),
		zap.String("subject", Subject(msg)),
	)
	return nil
}
