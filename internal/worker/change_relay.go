package worker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/events"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/repository"
)

// StartChangeRelay forwards every ticket event to the change notifier so stores
// without native change streams still wake the live views.
func StartChangeRelay(dispatcher events.Dispatcher, notifier repository.ChangeNotifier, logger *zap.Logger) {
	if dispatcher == nil || notifier == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	relay := func(ctx context.Context, event events.Event) error {
		// The write is committed; the notification must outlive a finished request.
		if err := notifier.NotifyChanged(context.WithoutCancel(ctx), event.TicketID); err != nil {
			return fmt.Errorf("relay %s: %w", event.Type, err)
		}
		logger.Debug("ticket change relayed", zap.String("ticket_id", event.TicketID), zap.String("event_type", string(event.Type)))
		return nil
	}
	for _, eventType := range events.TicketEventTypes {
		dispatcher.Subscribe(eventType, relay)
	}
}
