package plugins

import (
	"context"
	"fmt"

	"github.com/unionhall/ledgerhub/common"
	"github.com/unionhall/ledgerhub/lib/money"
)

const WorkStatusDuesPluginID = "work-status-dues"

// WorkStatusDues bills monthly dues for the month a worker enters one of the
// configured work statuses, and drops them when the worker leaves that set.
type WorkStatusDues struct{}

type WorkStatusDuesSettings struct {
	Amount        money.Cents `json:"amount"`
	WorkStatusIDs []string    `json:"workStatusIds" validate:"required,min=1"`
	Memo          string      `json:"memo" validate:"max=255"`
}

func (p *WorkStatusDues) ID() string { return WorkStatusDuesPluginID }

func (p *WorkStatusDues) Name() string { return "Monthly dues by work status" }

func (p *WorkStatusDues) Triggers() []string { return []string{common.TriggerWorkStatusChanged} }

func (p *WorkStatusDues) Execute(ctx context.Context, run *Run) ([]Notification, error) {
	change, ok := run.Trigger.Payload.(*WorkStatusChanged)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected payload %T", p.ID(), run.Trigger.Payload)
	}
	settings := WorkStatusDuesSettings{}
	if err := DecodeSettings(run.Config, &settings); err != nil {
		return nil, err
	}
	if settings.Amount <= 0 {
		return nil, fmt.Errorf("%s config %s: amount must be positive", p.ID(), run.Config.ID)
	}

	month := monthKey(change.EffectiveDate)
	key := fmt.Sprintf("%s:%s:%s", run.Config.ID, change.WorkerID, month)

	if !contains(settings.WorkStatusIDs, change.WorkStatusID) {
		removed, err := run.Ledger.Withdraw(ctx, key)
		if err != nil {
			return nil, err
		}
		if removed {
			return []Notification{run.notify(NotificationLevelInfo, 0, "This action will remove the dues charge for %s.", month)}, nil
		}
		return nil, nil
	}

	previous, err := run.Ledger.Lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	memo := settings.Memo
	if memo == "" {
		memo = "Monthly dues " + month
	}
	_, err = run.Ledger.Charge(ctx, Charge{
		Key:           key,
		EntityType:    common.EntityTypeWorker,
		EntityID:      change.WorkerID,
		Amount:        settings.Amount,
		Date:          day(change.EffectiveDate),
		ReferenceType: common.ReferenceTypeWorkStatus,
		ReferenceID:   change.WorkStatusID,
		Memo:          memo,
		Data: map[string]interface{}{
			"previousWorkStatusId": change.PreviousWorkStatusID,
		},
	})
	if err != nil {
		return nil, err
	}
	return chargeNotification(run, previous, settings.Amount, "dues charge"), nil
}
