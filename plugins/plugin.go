// Package plugins defines the charge plugin contract. A charge plugin looks at
// a domain trigger (hours saved, dispatch availability, work status) and
// decides, through the Ledger it is handed, which billable entries should exist
// for that trigger. Entries are addressed by a stable key, so running the same
// trigger again replaces the entry instead of adding another one.
package plugins

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/unionhall/ledgerhub/db/models"
	"github.com/unionhall/ledgerhub/lib/money"
)

const (
	NotificationLevelInfo    = "info"
	NotificationLevelWarning = "warning"
)

type Plugin interface {
	ID() string
	Name() string
	// Triggers lists the trigger types the plugin reacts to.
	Triggers() []string
	Execute(ctx context.Context, run *Run) ([]Notification, error)
}

// Run is one plugin execution for one configured instance.
type Run struct {
	Config  *models.ChargePluginConfig
	Trigger Trigger
	Ledger  Ledger
	DryRun  bool
}

// Ledger is the entry store as seen by a plugin run. Keys are scoped to the
// running plugin; the account comes from the run's config.
type Ledger interface {
	// Lookup returns the entry currently stored under key, or nil.
	Lookup(ctx context.Context, key string) (*models.LedgerEntry, error)
	// Charge creates or replaces the entry stored under charge.Key.
	Charge(ctx context.Context, charge Charge) (*models.LedgerEntry, error)
	// Withdraw deletes the entry stored under key and reports whether one existed.
	Withdraw(ctx context.Context, key string) (bool, error)
}

type Charge struct {
	Key           string
	EntityType    string
	EntityID      string
	Amount        money.Cents
	Date          time.Time
	ReferenceType string
	ReferenceID   string
	Memo          string
	Data          map[string]interface{}
}

type Notification struct {
	PluginID string      `json:"pluginId"`
	ConfigID string      `json:"configId"`
	Level    string      `json:"level"`
	Message  string      `json:"message"`
	Amount   money.Cents `json:"amount"`
}

func (run *Run) notify(level string, amount money.Cents, format string, args ...interface{}) Notification {
	return Notification{
		PluginID: run.Config.PluginID,
		ConfigID: run.Config.ID,
		Level:    level,
		Message:  fmt.Sprintf(format, args...),
		Amount:   amount,
	}
}

var settingsValidator = validator.New()

// DecodeSettings copies a config's free-form settings into a typed struct and validates it.
func DecodeSettings(config *models.ChargePluginConfig, dst interface{}) error {
	raw, err := json.Marshal(config.Settings)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("plugin %s config %s: invalid settings: %w", config.PluginID, config.ID, err)
	}
	if err := settingsValidator.Struct(dst); err != nil {
		return fmt.Errorf("plugin %s config %s: invalid settings: %w", config.PluginID, config.ID, err)
	}
	return nil
}

func monthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// chargeNotification describes what a charge did relative to the entry it replaced.
func chargeNotification(run *Run, previous *models.LedgerEntry, amount money.Cents, what string) []Notification {
	switch {
	case previous == nil:
		return []Notification{run.notify(NotificationLevelInfo, amount, "This action will generate a %s %s.", amount.Display(), what)}
	case previous.Amount != amount:
		return []Notification{run.notify(NotificationLevelInfo, amount, "This action will change the %s from %s to %s.", what, previous.Amount.Display(), amount.Display())}
	}
	return nil
}
