package usecase

import (
	"context"
	"time"

	"camgrocer/model"
	"camgrocer/pkg/notify"

	"go.uber.org/zap"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   string
	Role string
}

func (a Actor) IsAdmin() bool {
	return a.Role == model.RoleAdmin
}

// publish sends a notification. Failures are logged and never surface to
// the caller.
func publish(ctx context.Context, n notify.Notifier, logger *zap.Logger, e notify.Event) {
	if n == nil {
		return
	}
	e.Timestamp = time.Now().UTC()
	if err := n.Notify(ctx, e); err != nil {
		logger.Warn("notification failed", zap.String("type", e.Type), zap.String("subject_id", e.SubjectID), zap.Error(err))
	}
}
