package nats

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/docshelf/internal/core/domain"
	"github.com/kirillkom/docshelf/internal/infrastructure/resilience"
)

const (
	opPublishEvent    = "publish file event"
	opSubscribeEvents = "subscribe file events"
)

// connectionErrors clear up once the client reconnects.
var connectionErrors = []error{
	nats.ErrNoServers,
	nats.ErrTimeout,
	nats.ErrConnectionClosed,
	nats.ErrDisconnected,
	nats.ErrReconnectBufExceeded,
}

var (
	notCounted = resilience.ErrorClassification{
		Retryable:     false,
		RecordFailure: false,
	}
	transient = resilience.ErrorClassification{
		Retryable:     true,
		RecordFailure: true,
	}
	// Payload or subject errors will not get better on retry.
	permanent = resilience.ErrorClassification{
		Retryable:     false,
		RecordFailure: true,
	}
)

func classifyNATSError(err error) resilience.ErrorClassification {
	switch {
	case err == nil:
		return resilience.ErrorClassification{}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return notCounted
	case resilience.IsCircuitOpen(err), isConnectionError(err):
		return transient
	default:
		return permanent
	}
}

func isConnectionError(err error) bool {
	for _, target := range connectionErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// wrapEventError marks failures that a reconnect may fix as ErrTemporary.
func wrapEventError(operation string, err error) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if classifyNATSError(err).Retryable {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}
