package plugins

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unionhall/ledgerhub/common"
	"github.com/unionhall/ledgerhub/db/models"
	"github.com/unionhall/ledgerhub/lib/money"
)

// memoryLedger keeps charges in a map keyed like the entry store.
type memoryLedger struct {
	entries map[string]*models.LedgerEntry
	charges []Charge
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{entries: map[string]*models.LedgerEntry{}}
}

func (l *memoryLedger) Lookup(ctx context.Context, key string) (*models.LedgerEntry, error) {
	return l.entries[key], nil
}

func (l *memoryLedger) Charge(ctx context.Context, charge Charge) (*models.LedgerEntry, error) {
	l.charges = append(l.charges, charge)
	entry := &models.LedgerEntry{ChargePluginKey: charge.Key, Amount: charge.Amount, Memo: charge.Memo}
	l.entries[charge.Key] = entry
	return entry, nil
}

func (l *memoryLedger) Withdraw(ctx context.Context, key string) (bool, error) {
	_, ok := l.entries[key]
	delete(l.entries, key)
	return ok, nil
}

func hourRun(ledger Ledger, settings map[string]interface{}, hours HoursSaved) *Run {
	return &Run{
		Config:  &models.ChargePluginConfig{ID: "cfg1", PluginID: HourRatePluginID, AccountID: "acc", Settings: settings},
		Trigger: NewHoursSavedTrigger(hours),
		Ledger:  ledger,
	}
}

func TestHourRateChargesEmployer(t *testing.T) {
	ledger := newMemoryLedger()
	hours := HoursSaved{WorkerID: "w1", EmployerID: "e1", Year: 2024, Month: 3, Day: 4, Hours: decimal.RequireFromString("7.5")}
	notifications, err := (&HourRate{}).Execute(context.Background(), hourRun(ledger, map[string]interface{}{"rate": "2.10"}, hours))
	require.NoError(t, err)

	require.Len(t, ledger.charges, 1)
	charge := ledger.charges[0]
	assert.Equal(t, "cfg1:e1:w1:2024-03-04", charge.Key)
	assert.Equal(t, common.EntityTypeEmployer, charge.EntityType)
	assert.Equal(t, "e1", charge.EntityID)
	assert.Equal(t, money.Cents(1575), charge.Amount)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), charge.Date)
	assert.Equal(t, common.ReferenceTypeHour, charge.ReferenceType)

	require.Len(t, notifications, 1)
	assert.Equal(t, "This action will generate a $15.75 hourly charge.", notifications[0].Message)
	assert.Equal(t, "cfg1", notifications[0].ConfigID)
}

func TestHourRateKeysByHoursRow(t *testing.T) {
	ledger := newMemoryLedger()
	hours := HoursSaved{HoursID: "h-9", WorkerID: "w1", EmployerID: "e1", Year: 2024, Month: 3, Day: 4, Hours: decimal.NewFromInt(1)}
	_, err := (&HourRate{}).Execute(context.Background(), hourRun(ledger, map[string]interface{}{"rate": "3"}, hours))
	require.NoError(t, err)

	hours.Day = 5
	_, err = (&HourRate{}).Execute(context.Background(), hourRun(ledger, map[string]interface{}{"rate": "3"}, hours))
	require.NoError(t, err)

	require.Len(t, ledger.charges, 2)
	assert.Equal(t, "cfg1:h-9", ledger.charges[0].Key)
	assert.Equal(t, "cfg1:h-9", ledger.charges[1].Key)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), ledger.charges[1].Date)
	assert.Len(t, ledger.entries, 1)
}

func TestHourRateRejectsOverflowingAmount(t *testing.T) {
	ledger := newMemoryLedger()
	hours := HoursSaved{HoursID: "h-1", WorkerID: "w1", EmployerID: "e1", Year: 2024, Month: 3, Day: 4, Hours: decimal.RequireFromString("1000000000")}
	_, err := (&HourRate{}).Execute(context.Background(), hourRun(ledger, map[string]interface{}{"rate": "1000000000000"}, hours))
	assert.Error(t, err)
	assert.Empty(t, ledger.charges)
}

func TestHourRateReplacesAndWithdraws(t *testing.T) {
	ledger := newMemoryLedger()
	plugin := &HourRate{}
	settings := map[string]interface{}{"rate": 10, "employmentStatusIds": []string{"fulltime"}}
	hours := HoursSaved{WorkerID: "w1", EmployerID: "e1", Year: 2024, Month: 3, Day: 4, Hours: decimal.NewFromInt(4), EmploymentStatusID: "fulltime"}

	_, err := plugin.Execute(context.Background(), hourRun(ledger, settings, hours))
	require.NoError(t, err)

	hours.Hours = decimal.NewFromInt(6)
	notifications, err := plugin.Execute(context.Background(), hourRun(ledger, settings, hours))
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, "This action will change the hourly charge from $40.00 to $60.00.", notifications[0].Message)
	assert.Len(t, ledger.entries, 1)

	// same amount again: nothing to tell
	notifications, err = plugin.Execute(context.Background(), hourRun(ledger, settings, hours))
	require.NoError(t, err)
	assert.Empty(t, notifications)

	hours.EmploymentStatusID = "retired"
	notifications, err = plugin.Execute(context.Background(), hourRun(ledger, settings, hours))
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Empty(t, ledger.entries)
}

func TestHourRateRejectsBadInput(t *testing.T) {
	ledger := newMemoryLedger()
	hours := HoursSaved{WorkerID: "w1", EmployerID: "e1", Year: 2024, Month: 2, Day: 30, Hours: decimal.NewFromInt(1)}
	_, err := (&HourRate{}).Execute(context.Background(), hourRun(ledger, map[string]interface{}{"rate": "1"}, hours))
	assert.Error(t, err)

	hours.Day = 1
	_, err = (&HourRate{}).Execute(context.Background(), hourRun(ledger, map[string]interface{}{"rate": "0"}, hours))
	assert.Error(t, err)
	assert.Empty(t, ledger.charges)
}

func TestDispatchFee(t *testing.T) {
	ledger := newMemoryLedger()
	plugin := &DispatchFee{}
	config := &models.ChargePluginConfig{ID: "cfg2", PluginID: DispatchFeePluginID, Settings: map[string]interface{}{"amount": "40.00", "refundOnWithdraw": true}}
	date := time.Date(2024, 5, 17, 15, 4, 0, 0, time.UTC)

	run := &Run{Config: config, Ledger: ledger, Trigger: NewDispatchAvailabilityTrigger(DispatchAvailabilitySynced{WorkerID: "w9", Available: true, Date: date})}
	notifications, err := plugin.Execute(context.Background(), run)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, "This action will generate a $40.00 charge.", notifications[0].Message)
	assert.Equal(t, "cfg2:w9:2024-05", ledger.charges[0].Key)
	assert.Equal(t, time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC), ledger.charges[0].Date)

	run.Trigger = NewDispatchAvailabilityTrigger(DispatchAvailabilitySynced{WorkerID: "w9", Available: false, Date: date})
	_, err = plugin.Execute(context.Background(), run)
	require.NoError(t, err)
	assert.Empty(t, ledger.entries)
}

func TestWorkStatusDues(t *testing.T) {
	ledger := newMemoryLedger()
	plugin := &WorkStatusDues{}
	config := &models.ChargePluginConfig{ID: "cfg3", PluginID: WorkStatusDuesPluginID, Settings: map[string]interface{}{"amount": "25.00", "workStatusIds": []string{"active"}}}
	effective := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	run := &Run{Config: config, Ledger: ledger, Trigger: NewWorkStatusTrigger(WorkStatusChanged{WorkerID: "w1", WorkStatusID: "active", EffectiveDate: effective})}
	_, err := plugin.Execute(context.Background(), run)
	require.NoError(t, err)
	require.Contains(t, ledger.entries, "cfg3:w1:2024-06")
	assert.Equal(t, money.Cents(2500), ledger.entries["cfg3:w1:2024-06"].Amount)

	run.Trigger = NewWorkStatusTrigger(WorkStatusChanged{WorkerID: "w1", WorkStatusID: "suspended", PreviousWorkStatusID: "active", EffectiveDate: effective})
	notifications, err := plugin.Execute(context.Background(), run)
	require.NoError(t, err)
	assert.Len(t, notifications, 1)
	assert.Empty(t, ledger.entries)
}

func TestWorkStatusDuesRequiresStatuses(t *testing.T) {
	config := &models.ChargePluginConfig{ID: "cfg3", PluginID: WorkStatusDuesPluginID, Settings: map[string]interface{}{"amount": "25.00"}}
	run := &Run{Config: config, Ledger: newMemoryLedger(), Trigger: NewWorkStatusTrigger(WorkStatusChanged{WorkerID: "w1", WorkStatusID: "active", EffectiveDate: time.Now()})}
	_, err := (&WorkStatusDues{}).Execute(context.Background(), run)
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	ids := []string{}
	for _, p := range r.List() {
		ids = append(ids, p.ID())
	}
	assert.Equal(t, []string{DispatchFeePluginID, HourRatePluginID, WorkStatusDuesPluginID}, ids)

	assert.Error(t, r.Register(&HourRate{}))

	p, ok := r.Get(HourRatePluginID)
	require.True(t, ok)
	assert.True(t, Handles(p, common.TriggerHoursSaved))
	assert.False(t, Handles(p, common.TriggerWorkStatusChanged))
}

func TestTriggerEmployerID(t *testing.T) {
	assert.Equal(t, "e1", NewHoursSavedTrigger(HoursSaved{EmployerID: "e1"}).EmployerID())
	assert.Equal(t, "", NewWorkStatusTrigger(WorkStatusChanged{}).EmployerID())
	_, err := NewPayload("nope")
	assert.Error(t, err)
}
