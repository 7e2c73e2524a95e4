package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"rtshell/internal/repository"
)

// JournalSink stores journal entries
type JournalSink interface {
	RecordEvent(ctx context.Context, rec repository.EventRecord) error
}

// RunJournal copies every event published on bus into sink until ctx is
// cancelled. Write failures are logged and the event is dropped.
func RunJournal(ctx context.Context, bus *EventBus, sink JournalSink, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	events := make(chan Event, 64)
	bus.Subscribe(events)
	defer bus.Unsubscribe(events)

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			rec := repository.EventRecord{
				Type:      string(ev.Type),
				Ref:       ev.Ref,
				Payload:   ev.Payload,
				CreatedAt: time.Now().UTC(),
			}
			if err := sink.RecordEvent(ctx, rec); err != nil {
				logger.Warn("failed to journal event",
					zap.String("type", rec.Type),
					zap.String("ref", rec.Ref),
					zap.Error(err))
			}
		}
	}
}
