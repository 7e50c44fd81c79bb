package notification

import (
	"context"

	"go.uber.org/zap"

	"mindsprout/utils"
)

// NotificationService delivers messages to parents, therapists and operators.
// Actual delivery (push, email) is handled by an external system; the booking
// core only emits events through this interface.
type NotificationService interface {
	Notify(ctx context.Context, recipientID, title, body string) error
}

// LogNotificationService is the default sink used until a delivery backend is
// wired in: it records every notification through the structured logger.
type LogNotificationService struct{}

func (n *LogNotificationService) Notify(_ context.Context, recipientID, title, body string) error {
	utils.GetLogger().Info("notification",
		zap.String("recipient", recipientID),
		zap.String("title", title),
		zap.String("body", body))
	return nil
}
