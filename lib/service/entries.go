package service

import (
	"context"
	"database/sql"

	"github.com/unionhall/ledgerhub/db/models"
	"github.com/uptrace/bun"
)

// This file is the only place that writes to ledger_entries. Payment
// allocation and the charge plugin pipeline go through the helpers below.

func (svc *LedgerService) CreateEntry(ctx context.Context, entry *models.LedgerEntry) (*models.LedgerEntry, error) {
	return insertEntry(ctx, svc.DB, entry)
}

func (svc *LedgerService) UpdateEntry(ctx context.Context, entry *models.LedgerEntry) (*models.LedgerEntry, error) {
	return updateEntry(ctx, svc.DB, entry)
}

func (svc *LedgerService) DeleteEntry(ctx context.Context, id string) (bool, error) {
	res, err := svc.DB.NewDelete().Model((*models.LedgerEntry)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (svc *LedgerService) GetEntry(ctx context.Context, id string) (*models.LedgerEntry, error) {
	entry := models.LedgerEntry{}
	err := svc.DB.NewSelect().Model(&entry).Where("id = ?", id).Limit(1).Scan(ctx)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (svc *LedgerService) GetEntriesByEntityAccount(ctx context.Context, eaID string) ([]models.LedgerEntry, error) {
	return entriesByEntityAccount(ctx, svc.DB, eaID)
}

func (svc *LedgerService) GetEntriesByReference(ctx context.Context, referenceType, referenceID string) ([]models.LedgerEntry, error) {
	return entriesByReference(ctx, svc.DB, referenceType, referenceID)
}

func (svc *LedgerService) GetEntryByChargePluginKey(ctx context.Context, chargePlugin, key string) (*models.LedgerEntry, error) {
	return entryByChargePluginKey(ctx, svc.DB, chargePlugin, key)
}

func (svc *LedgerService) DeleteEntriesByReference(ctx context.Context, referenceType, referenceID string) (int, error) {
	return deleteEntriesByReference(ctx, svc.DB, referenceType, referenceID)
}

func (svc *LedgerService) DeleteEntryByChargePluginKey(ctx context.Context, chargePlugin, key string) (bool, error) {
	return deleteEntryByChargePluginKey(ctx, svc.DB, chargePlugin, key)
}

// UpsertChargeEntry stores entry under its (charge plugin, key), replacing any
// entry already stored there. The returned entry carries the stored id.
func (svc *LedgerService) UpsertChargeEntry(ctx context.Context, entry *models.LedgerEntry) (*models.LedgerEntry, error) {
	var stored *models.LedgerEntry
	err := svc.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var err error
		stored, err = upsertChargeEntry(ctx, tx, entry)
		return err
	})
	return stored, err
}

func insertEntry(ctx context.Context, db bun.IDB, entry *models.LedgerEntry) (*models.LedgerEntry, error) {
	if entry.EaID == "" {
		return nil, newValidationError("eaId", "is required")
	}
	if (entry.ChargePlugin == "") != (entry.ChargePluginKey == "") {
		return nil, newValidationError("chargePluginKey", "charge plugin and key are set together")
	}
	if entry.ID == "" {
		entry.ID = newID()
	}
	entry.CreatedAt = now()
	if _, err := db.NewInsert().Model(entry).Exec(ctx); err != nil {
		return nil, err
	}
	return entry, nil
}

func updateEntry(ctx context.Context, db bun.IDB, entry *models.LedgerEntry) (*models.LedgerEntry, error) {
	res, err := db.NewUpdate().
		Model(entry).
		Column("ea_id", "amount", "date", "reference_type", "reference_id", "data", "memo").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return nil, err
	}
	return entry, nil
}

func entriesByEntityAccount(ctx context.Context, db bun.IDB, eaID string) ([]models.LedgerEntry, error) {
	entries := []models.LedgerEntry{}
	err := db.NewSelect().Model(&entries).Where("ea_id = ?", eaID).OrderExpr("id ASC").Scan(ctx)
	return entries, err
}

func entriesByReference(ctx context.Context, db bun.IDB, referenceType, referenceID string) ([]models.LedgerEntry, error) {
	entries := []models.LedgerEntry{}
	err := db.NewSelect().
		Model(&entries).
		Where("reference_type = ?", referenceType).
		Where("reference_id = ?", referenceID).
		OrderExpr("id ASC").
		Scan(ctx)
	return entries, err
}

func entryByChargePluginKey(ctx context.Context, db bun.IDB, chargePlugin, key string) (*models.LedgerEntry, error) {
	entry := models.LedgerEntry{}
	err := db.NewSelect().
		Model(&entry).
		Where("charge_plugin = ?", chargePlugin).
		Where("charge_plugin_key = ?", key).
		Limit(1).
		Scan(ctx)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func deleteEntriesByReference(ctx context.Context, db bun.IDB, referenceType, referenceID string) (int, error) {
	res, err := db.NewDelete().
		Model((*models.LedgerEntry)(nil)).
		Where("reference_type = ?", referenceType).
		Where("reference_id = ?", referenceID).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func deleteEntryByChargePluginKey(ctx context.Context, db bun.IDB, chargePlugin, key string) (bool, error) {
	res, err := db.NewDelete().
		Model((*models.LedgerEntry)(nil)).
		Where("charge_plugin = ?", chargePlugin).
		Where("charge_plugin_key = ?", key).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// upsertChargeEntry must run inside a transaction.
func upsertChargeEntry(ctx context.Context, db bun.IDB, entry *models.LedgerEntry) (*models.LedgerEntry, error) {
	if entry.ChargePlugin == "" || entry.ChargePluginKey == "" {
		return nil, newValidationError("chargePluginKey", "charge plugin and key are required")
	}
	if entry.EaID == "" {
		return nil, newValidationError("eaId", "is required")
	}
	if entry.ID == "" {
		entry.ID = newID()
	}
	entry.CreatedAt = now()
	_, err := db.NewInsert().
		Model(entry).
		On("CONFLICT (charge_plugin, charge_plugin_key) DO UPDATE").
		Set("ea_id = EXCLUDED.ea_id").
		Set("amount = EXCLUDED.amount").
		Set("date = EXCLUDED.date").
		Set("reference_type = EXCLUDED.reference_type").
		Set("reference_id = EXCLUDED.reference_id").
		Set("charge_plugin_config_id = EXCLUDED.charge_plugin_config_id").
		Set("data = EXCLUDED.data").
		Set("memo = EXCLUDED.memo").
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	stored, err := entryByChargePluginKey(ctx, db, entry.ChargePlugin, entry.ChargePluginKey)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, invariantViolation("charge entry %s/%s missing after upsert", entry.ChargePlugin, entry.ChargePluginKey)
	}
	return stored, nil
}
