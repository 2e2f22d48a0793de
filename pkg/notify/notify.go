// Package notify fans marketplace events out to downstream workers (the
// mailer subscribes on NATS). Delivery is best effort.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	OrderPlaced        = "order.placed"
	OrderStatusChanged = "order.status_changed"
	StoreApproved      = "store.approved"
	StoreRejected      = "store.rejected"
	ProductApproved    = "product.approved"
	ProductRejected    = "product.rejected"
	UserRegistered     = "user.registered"
)

// SubjectPrefix is prepended to the event type to form the NATS subject.
const SubjectPrefix = "camgrocer."

type Event struct {
	Type      string         `json:"type"`
	SubjectID string         `json:"subject_id"`
	Recipient string         `json:"recipient,omitempty"` // email of the person to notify
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// PublishFunc sends one message on a subject.
type PublishFunc func(subject string, data []byte) error

type NATSNotifier struct {
	nc      *nats.Conn
	publish PublishFunc
	logger  *zap.Logger
}

// ConnectNATS dials the server and keeps reconnecting in the background.
func ConnectNATS(url string, logger *zap.Logger) (*NATSNotifier, error) {
	logger = logger.Named("notify")
	nc, err := nats.Connect(url,
		nats.Name("camgrocer"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	n := NewPublisher(nc.Publish, logger)
	n.nc = nc
	return n, nil
}

// NewPublisher builds a notifier on top of an arbitrary publish function.
func NewPublisher(publish PublishFunc, logger *zap.Logger) *NATSNotifier {
	return &NATSNotifier{publish: publish, logger: logger}
}

func (n *NATSNotifier) Notify(_ context.Context, e Event) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := n.publish(SubjectPrefix+e.Type, data); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	n.logger.Debug("event published", zap.String("type", e.Type), zap.String("subject_id", e.SubjectID))
	return nil
}

// Close drains pending messages before closing the connection.
func (n *NATSNotifier) Close() {
	if n.nc != nil {
		if err := n.nc.Drain(); err != nil {
			n.nc.Close()
		}
	}
}

// LogNotifier only logs events. It is used when no NATS server is configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("notify")}
}

func (n *LogNotifier) Notify(_ context.Context, e Event) error {
	n.logger.Info("notification",
		zap.String("type", e.Type),
		zap.String("subject_id", e.SubjectID),
		zap.String("recipient", e.Recipient),
		zap.Any("data", e.Data),
	)
	return nil
}
