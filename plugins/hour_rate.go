package plugins

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/unionhall/ledgerhub/common"
	"github.com/unionhall/ledgerhub/lib/money"
)

const HourRatePluginID = "hour-rate"

// HourRate bills the employer a fixed rate per hour worked, one entry per
// hours row. Rows without an id fall back to one entry per employer, worker
// and day.
type HourRate struct{}

type HourRateSettings struct {
	Rate decimal.Decimal `json:"rate"`
	// EmploymentStatusIDs limits the charge to these statuses; empty means all.
	EmploymentStatusIDs []string `json:"employmentStatusIds"`
	Memo                string   `json:"memo" validate:"max=255"`
}

func (p *HourRate) ID() string { return HourRatePluginID }

func (p *HourRate) Name() string { return "Hourly contribution" }

func (p *HourRate) Triggers() []string { return []string{common.TriggerHoursSaved} }

func (p *HourRate) Execute(ctx context.Context, run *Run) ([]Notification, error) {
	hours, ok := run.Trigger.Payload.(*HoursSaved)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected payload %T", p.ID(), run.Trigger.Payload)
	}
	settings := HourRateSettings{}
	if err := DecodeSettings(run.Config, &settings); err != nil {
		return nil, err
	}
	if !settings.Rate.IsPositive() {
		return nil, fmt.Errorf("%s config %s: rate must be positive", p.ID(), run.Config.ID)
	}
	date, err := hours.Date()
	if err != nil {
		return nil, err
	}

	key := hourRateKey(run.Config.ID, hours, date)

	eligible := len(settings.EmploymentStatusIDs) == 0 || contains(settings.EmploymentStatusIDs, hours.EmploymentStatusID)
	amount, err := money.FromDecimal(hours.Hours.Mul(settings.Rate))
	if err != nil {
		return nil, fmt.Errorf("%s config %s: %w", p.ID(), run.Config.ID, err)
	}
	if !eligible || amount <= 0 {
		removed, err := run.Ledger.Withdraw(ctx, key)
		if err != nil {
			return nil, err
		}
		if removed {
			return []Notification{run.notify(NotificationLevelInfo, 0, "This action will remove the hourly charge for %s.", date.Format("2006-01-02"))}, nil
		}
		return nil, nil
	}

	previous, err := run.Ledger.Lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	memo := settings.Memo
	if memo == "" {
		memo = fmt.Sprintf("%s hours at $%s", hours.Hours.String(), settings.Rate.StringFixed(2))
	}
	referenceID := hours.HoursID
	if referenceID == "" {
		referenceID = key
	}
	_, err = run.Ledger.Charge(ctx, Charge{
		Key:           key,
		EntityType:    common.EntityTypeEmployer,
		EntityID:      hours.EmployerID,
		Amount:        amount,
		Date:          date,
		ReferenceType: common.ReferenceTypeHour,
		ReferenceID:   referenceID,
		Memo:          memo,
		Data: map[string]interface{}{
			"workerId": hours.WorkerID,
			"hours":    hours.Hours.String(),
			"rate":     settings.Rate.String(),
		},
	})
	if err != nil {
		return nil, err
	}
	return chargeNotification(run, previous, amount, "hourly charge"), nil
}

// hourRateKey follows the hours row, so moving a row to another day replaces
// its charge instead of leaving the old one behind.
func hourRateKey(configID string, hours *HoursSaved, date time.Time) string {
	if hours.HoursID != "" {
		return configID + ":" + hours.HoursID
	}
	return fmt.Sprintf("%s:%s:%s:%s", configID, hours.EmployerID, hours.WorkerID, date.Format("2006-01-02"))
}
