// Package events is the ledger's outbound event bus. Publishing is fire and
// forget: a failed publish is logged and never fails the ledger write that
// produced the event.
package events

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"
	"github.com/unionhall/ledgerhub/common"
	"github.com/unionhall/ledgerhub/lib/service"
)

// Emitter publishes one event.
type Emitter interface {
	Emit(ctx context.Context, eventType string, payload interface{}) error
}

type Nop struct{}

func (Nop) Emit(ctx context.Context, eventType string, payload interface{}) error { return nil }

// Async publishes in the background so callers never wait on the broker.
type Async struct {
	Emitter Emitter
	Logger  echo.Logger
	Timeout time.Duration
}

func (a *Async) Emit(ctx context.Context, eventType string, payload interface{}) error {
	timeout := a.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	go func() {
		// the request context is usually gone by the time the publish runs
		publishCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := a.Emitter.Emit(publishCtx, eventType, payload); err != nil {
			a.Logger.Errorf("Failed to publish %s event: %v", eventType, err)
			sentry.CaptureException(err)
		}
	}()
	return nil
}

// LedgerChangeHook publishes every committed ledger change as ledger.entry.changed.
func LedgerChangeHook(emitter Emitter, logger echo.Logger) service.PostCommitHook {
	return func(ctx context.Context, change service.LedgerChange) {
		if err := emitter.Emit(ctx, common.EventLedgerEntryChanged, change); err != nil {
			logger.Errorf("Failed to emit %s for %s: %v", common.EventLedgerEntryChanged, change.ReferenceID, err)
		}
	}
}

// Multi publishes to every emitter and returns the first error.
type Multi []Emitter

func (m Multi) Emit(ctx context.Context, eventType string, payload interface{}) error {
	var first error
	for _, e := range m {
		if err := e.Emit(ctx, eventType, payload); err != nil && first == nil {
			first = err
		}
	}
	return first
}
