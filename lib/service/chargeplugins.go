package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/getsentry/sentry-go"
	"github.com/unionhall/ledgerhub/db/models"
	"github.com/unionhall/ledgerhub/plugins"
	"github.com/uptrace/bun"
)

// ExecuteChargePlugins runs every enabled plugin config that handles the
// trigger. Each config runs in its own transaction. Failures are logged and
// reported, never returned: the write that fired the trigger has already
// committed and must not be affected by charge computation.
func (svc *LedgerService) ExecuteChargePlugins(ctx context.Context, trigger plugins.Trigger) []plugins.Notification {
	return svc.executeChargePlugins(ctx, trigger, false)
}

// PreviewChargePlugins runs the same plugins without writing and returns what
// they would do.
func (svc *LedgerService) PreviewChargePlugins(ctx context.Context, trigger plugins.Trigger) []plugins.Notification {
	return svc.executeChargePlugins(ctx, trigger, true)
}

func (svc *LedgerService) executeChargePlugins(ctx context.Context, trigger plugins.Trigger, dryRun bool) []plugins.Notification {
	notifications := []plugins.Notification{}
	if !svc.pluginsEnabled() || svc.Plugins == nil {
		return notifications
	}
	if err := validate.Struct(trigger.Payload); err != nil {
		svc.capturePluginErr(fmt.Errorf("charge plugins: invalid %s payload: %w", trigger.Type, err))
		return notifications
	}
	configs, err := svc.chargePluginConfigsFor(ctx, trigger)
	if err != nil {
		svc.capturePluginErr(fmt.Errorf("charge plugins: loading configs for %s: %w", trigger.Type, err))
		return notifications
	}
	for i := range configs {
		config := &configs[i]
		plugin, ok := svc.Plugins.Get(config.PluginID)
		if !ok {
			svc.Logger.Warnf("Charge plugin config %s references unknown plugin %s", config.ID, config.PluginID)
			continue
		}
		if !plugins.Handles(plugin, trigger.Type) {
			continue
		}
		result, err := svc.runChargePlugin(ctx, plugin, config, trigger, dryRun)
		if err != nil {
			svc.capturePluginErr(fmt.Errorf("charge plugin %s config %s on %s: %w", config.PluginID, config.ID, trigger.Type, err))
			continue
		}
		notifications = append(notifications, result...)
	}
	return notifications
}

func (svc *LedgerService) runChargePlugin(ctx context.Context, plugin plugins.Plugin, config *models.ChargePluginConfig, trigger plugins.Trigger, dryRun bool) (result []plugins.Notification, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	ledger := &pluginLedger{config: config, dryRun: dryRun}
	run := func(ctx context.Context, db bun.IDB) error {
		ledger.db = db
		var err error
		result, err = plugin.Execute(ctx, &plugins.Run{Config: config, Trigger: trigger, Ledger: ledger, DryRun: dryRun})
		return err
	}
	if dryRun {
		err = run(ctx, svc.DB)
	} else {
		err = svc.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
			return run(ctx, tx)
		})
	}
	if err != nil {
		return nil, err
	}
	svc.runPostCommitHooks(ctx, ledger.changes)
	return result, nil
}

func (svc *LedgerService) capturePluginErr(err error) {
	svc.Logger.Error(err)
	sentry.CaptureException(err)
}

// chargePluginConfigsFor loads enabled configs that are global or scoped to the
// trigger's employer.
func (svc *LedgerService) chargePluginConfigsFor(ctx context.Context, trigger plugins.Trigger) ([]models.ChargePluginConfig, error) {
	configs := []models.ChargePluginConfig{}
	query := svc.DB.NewSelect().Model(&configs).Where("enabled = ?", true)
	if employerID := trigger.EmployerID(); employerID != "" {
		query = query.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("employer_id IS NULL").WhereOr("employer_id = ?", employerID)
		})
	} else {
		query = query.Where("employer_id IS NULL")
	}
	err := query.OrderExpr("id ASC").Scan(ctx)
	return configs, err
}

// pluginLedger scopes entry store access to one plugin config run.
type pluginLedger struct {
	db      bun.IDB
	config  *models.ChargePluginConfig
	dryRun  bool
	changes []LedgerChange
}

func (l *pluginLedger) Lookup(ctx context.Context, key string) (*models.LedgerEntry, error) {
	return entryByChargePluginKey(ctx, l.db, l.config.PluginID, key)
}

func (l *pluginLedger) Charge(ctx context.Context, charge plugins.Charge) (*models.LedgerEntry, error) {
	if charge.Key == "" {
		return nil, newValidationError("key", "charge key is required")
	}
	if err := validateEntityRef(charge.EntityType, charge.EntityID, l.config.AccountID); err != nil {
		return nil, err
	}
	entry := &models.LedgerEntry{
		Amount:               charge.Amount,
		Date:                 bun.NullTime{Time: charge.Date},
		ReferenceType:        charge.ReferenceType,
		ReferenceID:          charge.ReferenceID,
		ChargePlugin:         l.config.PluginID,
		ChargePluginKey:      charge.Key,
		ChargePluginConfigID: l.config.ID,
		Data:                 charge.Data,
		Memo:                 charge.Memo,
	}
	if l.dryRun {
		return entry, nil
	}
	ea, err := getOrCreateEntityAccount(ctx, l.db, charge.EntityType, charge.EntityID, l.config.AccountID)
	if err != nil {
		return nil, err
	}
	entry.EaID = ea.ID
	stored, err := upsertChargeEntry(ctx, l.db, entry)
	if err != nil {
		return nil, err
	}
	l.changes = append(l.changes, LedgerChange{
		Kind:            ChangeCharged,
		EaID:            stored.EaID,
		EntryID:         stored.ID,
		Amount:          stored.Amount,
		ReferenceType:   stored.ReferenceType,
		ReferenceID:     stored.ReferenceID,
		ChargePlugin:    stored.ChargePlugin,
		ChargePluginKey: stored.ChargePluginKey,
	})
	return stored, nil
}

func (l *pluginLedger) Withdraw(ctx context.Context, key string) (bool, error) {
	existing, err := l.Lookup(ctx, key)
	if err != nil || existing == nil {
		return false, err
	}
	if l.dryRun {
		return true, nil
	}
	removed, err := deleteEntryByChargePluginKey(ctx, l.db, l.config.PluginID, key)
	if err != nil {
		return false, err
	}
	if removed {
		l.changes = append(l.changes, LedgerChange{
			Kind:            ChangeWithdrawn,
			EaID:            existing.EaID,
			EntryID:         existing.ID,
			Amount:          existing.Amount,
			ReferenceType:   existing.ReferenceType,
			ReferenceID:     existing.ReferenceID,
			ChargePlugin:    existing.ChargePlugin,
			ChargePluginKey: key,
		})
	}
	return removed, nil
}

func (svc *LedgerService) CreateChargePluginConfig(ctx context.Context, config *models.ChargePluginConfig) (*models.ChargePluginConfig, error) {
	if err := validate.Struct(config); err != nil {
		return nil, validationErrorFrom(err)
	}
	if svc.Plugins != nil {
		if _, ok := svc.Plugins.Get(config.PluginID); !ok {
			return nil, newValidationError("pluginId", "unknown charge plugin %s", config.PluginID)
		}
	}
	if config.ID == "" {
		config.ID = newID()
	}
	config.CreatedAt = now()
	if _, err := svc.DB.NewInsert().Model(config).Exec(ctx); err != nil {
		return nil, err
	}
	return config, nil
}

func (svc *LedgerService) ListChargePluginConfigs(ctx context.Context) ([]models.ChargePluginConfig, error) {
	configs := []models.ChargePluginConfig{}
	err := svc.DB.NewSelect().Model(&configs).OrderExpr("id ASC").Scan(ctx)
	return configs, err
}

// SetChargePluginConfigEnabled returns false for an unknown id.
func (svc *LedgerService) SetChargePluginConfigEnabled(ctx context.Context, id string, enabled bool) (bool, error) {
	config := &models.ChargePluginConfig{ID: id, Enabled: enabled}
	res, err := svc.DB.NewUpdate().Model(config).Column("enabled", "updated_at").WherePK().Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
