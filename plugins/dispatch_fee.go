package plugins

import (
	"context"
	"fmt"

	"github.com/unionhall/ledgerhub/common"
	"github.com/unionhall/ledgerhub/lib/money"
)

const DispatchFeePluginID = "dispatch-fee"

// DispatchFee bills a worker a flat fee for the month in which they sign up
// as available for dispatch.
type DispatchFee struct{}

type DispatchFeeSettings struct {
	Amount money.Cents `json:"amount"`
	// RefundOnWithdraw removes the month's fee when availability is withdrawn.
	RefundOnWithdraw bool   `json:"refundOnWithdraw"`
	Memo             string `json:"memo" validate:"max=255"`
}

func (p *DispatchFee) ID() string { return DispatchFeePluginID }

func (p *DispatchFee) Name() string { return "Dispatch sign-up fee" }

func (p *DispatchFee) Triggers() []string {
	return []string{common.TriggerDispatchAvailabilitySynced}
}

func (p *DispatchFee) Execute(ctx context.Context, run *Run) ([]Notification, error) {
	availability, ok := run.Trigger.Payload.(*DispatchAvailabilitySynced)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected payload %T", p.ID(), run.Trigger.Payload)
	}
	settings := DispatchFeeSettings{}
	if err := DecodeSettings(run.Config, &settings); err != nil {
		return nil, err
	}
	if settings.Amount <= 0 {
		return nil, fmt.Errorf("%s config %s: amount must be positive", p.ID(), run.Config.ID)
	}

	key := fmt.Sprintf("%s:%s:%s", run.Config.ID, availability.WorkerID, monthKey(availability.Date))

	if !availability.Available {
		if !settings.RefundOnWithdraw {
			return nil, nil
		}
		removed, err := run.Ledger.Withdraw(ctx, key)
		if err != nil {
			return nil, err
		}
		if removed {
			return []Notification{run.notify(NotificationLevelInfo, 0, "This action will remove the dispatch fee for %s.", monthKey(availability.Date))}, nil
		}
		return nil, nil
	}

	previous, err := run.Ledger.Lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	memo := settings.Memo
	if memo == "" {
		memo = "Dispatch sign-up fee " + monthKey(availability.Date)
	}
	_, err = run.Ledger.Charge(ctx, Charge{
		Key:           key,
		EntityType:    common.EntityTypeWorker,
		EntityID:      availability.WorkerID,
		Amount:        settings.Amount,
		Date:          day(availability.Date),
		ReferenceType: common.ReferenceTypeDispatch,
		ReferenceID:   availability.WorkerID,
		Memo:          memo,
	})
	if err != nil {
		return nil, err
	}
	return chargeNotification(run, previous, settings.Amount, "charge"), nil
}
