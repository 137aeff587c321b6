package service

import (
	"context"
	"fmt"

	"github.com/getsentry/sentry-go"
	"github.com/unionhall/ledgerhub/lib/money"
)

const (
	ChangeAllocated   = "allocated"
	ChangeDeallocated = "deallocated"
	ChangeCharged     = "charged"
	ChangeWithdrawn   = "withdrawn"
)

// LedgerChange describes one committed mutation of the entries table.
type LedgerChange struct {
	Kind            string      `json:"kind"`
	EaID            string      `json:"eaId,omitempty"`
	EntryID         string      `json:"entryId,omitempty"`
	Amount          money.Cents `json:"amount"`
	ReferenceType   string      `json:"referenceType,omitempty"`
	ReferenceID     string      `json:"referenceId,omitempty"`
	ChargePlugin    string      `json:"chargePlugin,omitempty"`
	ChargePluginKey string      `json:"chargePluginKey,omitempty"`
}

type PostCommitHook func(ctx context.Context, change LedgerChange)

// runPostCommitHooks is called after commit only. A failing hook never
// affects the ledger write or the other hooks.
func (svc *LedgerService) runPostCommitHooks(ctx context.Context, changes []LedgerChange) {
	for _, change := range changes {
		for _, hook := range svc.PostCommitHooks {
			svc.runHook(ctx, hook, change)
		}
	}
}

func (svc *LedgerService) runHook(ctx context.Context, hook PostCommitHook, change LedgerChange) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("post commit hook panicked on %s change: %v", change.Kind, r)
			svc.Logger.Error(err)
			sentry.CaptureException(err)
		}
	}()
	hook(ctx, change)
}
