package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/docshelf/internal/core/domain"
	"github.com/kirillkom/docshelf/internal/infrastructure/resilience"
)

const DefaultSubjectPrefix = "docshelf"

// EventBus fans file lifecycle events out to every watching client.
// Events go to "<prefix>.<event type>", e.g. "docshelf.file.uploaded".
type EventBus struct {
	conn     *nats.Conn
	prefix   string
	executor *resilience.Executor
	logger   *slog.Logger
}

type Options struct {
	ConnectTimeout     time.Duration
	ReconnectWait      time.Duration
	MaxReconnects      int
	ResilienceExecutor *resilience.Executor
	Logger             *slog.Logger
}

func New(url, prefix string, options Options) (*EventBus, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 10
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}

	conn, err := nats.Connect(
		url,
		nats.Name("docshelf"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &EventBus{
		conn:     conn,
		prefix:   prefix,
		executor: options.ResilienceExecutor,
		logger:   logger,
	}, nil
}

func (b *EventBus) Close() {
	if b.conn != nil {
		b.conn.Close()
	}
}

func (b *EventBus) PublishFileEvent(ctx context.Context, event domain.FileEvent) error {
	payload, err := encodeEvent(event)
	if err != nil {
		return err
	}
	subject := subjectFor(b.prefix, event.Type)

	call := func(_ context.Context) error {
		if err := b.conn.Publish(subject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	if b.executor != nil {
		err = b.executor.Execute(ctx, "nats.publish", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wrapEventError(opPublishEvent, err)
	}
	return nil
}

// SubscribeFileEvents delivers every event until ctx is done, then drains.
func (b *EventBus) SubscribeFileEvents(ctx context.Context, handler func(context.Context, domain.FileEvent) error) error {
	sub, err := b.conn.Subscribe(b.prefix+".>", func(msg *nats.Msg) {
		if ctx.Err() != nil {
			return
		}
		event, err := decodeEvent(msg.Data)
		if err != nil {
			b.logger.Warn("file_event_decode_failed", "subject", msg.Subject, "error", err)
			return
		}
		if err := handler(ctx, event); err != nil {
			b.logger.Warn("file_event_handler_failed", "type", event.Type, "file_id", event.FileID, "error", err)
		}
	})
	if err != nil {
		return wrapEventError(opSubscribeEvents, fmt.Errorf("nats subscribe: %w", err))
	}

	if err := b.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return wrapEventError(opSubscribeEvents, fmt.Errorf("nats flush: %w", err))
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	return nil
}

func subjectFor(prefix string, kind domain.FileEventType) string {
	return prefix + "." + string(kind)
}

func encodeEvent(event domain.FileEvent) ([]byte, error) {
	if event.Type == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "encode file event", fmt.Errorf("event type is required"))
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal file event: %w", err)
	}
	return payload, nil
}

func decodeEvent(data []byte) (domain.FileEvent, error) {
	var event domain.FileEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return domain.FileEvent{}, fmt.Errorf("unmarshal file event: %w", err)
	}
	if event.Type == "" || event.FileID == "" {
		return domain.FileEvent{}, fmt.Errorf("file event missing type or file id")
	}
	return event, nil
}
