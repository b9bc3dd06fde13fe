package services

import (
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const fileEventsStream = "file-events"

// NATSPublisher publishes durable events through JetStream.
type NATSPublisher struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	logger *slog.Logger
}

// ConnectNATS connects to url, enables JetStream and makes sure the
// file-events stream exists.
func ConnectNATS(url string, logger *slog.Logger) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name("coupon-file-service"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("[NATS] disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("[NATS] reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			logger.Info("[NATS] connection closed")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, err
	}

	p := &NATSPublisher{nc: nc, js: js, logger: logger}
	if err := p.ensureStream(); err != nil {
		logger.Warn("[NATS] failed to ensure stream", "stream", fileEventsStream, "error", err)
	}

	logger.Info("[NATS] connected and JetStream initialized", "url", url)
	return p, nil
}

func (p *NATSPublisher) ensureStream() error {
	if _, err := p.js.StreamInfo(fileEventsStream); err == nil {
		return nil
	}

	_, err := p.js.AddStream(&nats.StreamConfig{
		Name:     fileEventsStream,
		Subjects: []string{"files.*"},
		Storage:  nats.FileStorage,
		MaxAge:   30 * 24 * time.Hour,
	})
	return err
}

// PublishEvent publishes payload as JSON with a unique message id for
// JetStream de-duplication.
func (p *NATSPublisher) PublishEvent(subject string, payload interface{}) error {
	if p == nil || p.js == nil {
		return errors.New("jetstream not initialized")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	if _, err := p.js.Publish(subject, data, nats.MsgId(uuid.New().String())); err != nil {
		p.logger.Error("[NATS] publish failed", "subject", subject, "error", err)
		return err
	}
	return nil
}

func (p *NATSPublisher) Close() {
	if p != nil && p.nc != nil && !p.nc.IsClosed() {
		p.nc.Close()
	}
}
