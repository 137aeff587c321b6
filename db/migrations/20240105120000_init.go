package migrations

import (
	"context"

	"github.com/unionhall/ledgerhub/db/models"
	"github.com/uptrace/bun"
)

/* The init migration reflects the current model fields when run on a fresh db.
Columns added or removed later need their own migration using IfNotExists/IfExists.
*/
func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		tables := []interface{}{
			(*models.LedgerAccount)(nil),
			(*models.EntityAccount)(nil),
			(*models.LedgerEntry)(nil),
			(*models.LedgerPaymentType)(nil),
			(*models.LedgerPayment)(nil),
			(*models.ChargePluginConfig)(nil),
			(*models.Employer)(nil),
			(*models.Contact)(nil),
			(*models.Worker)(nil),
			(*models.TrustProvider)(nil),
		}
		for _, model := range tables {
			if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
				return err
			}
		}

		// one link per (account, entity); getOrCreate relies on this to resolve races
		if _, err := db.NewCreateIndex().
			Model((*models.EntityAccount)(nil)).
			Index("entity_accounts_account_entity_uniq").
			Unique().
			IfNotExists().
			Column("account_id", "entity_type", "entity_id").
			Exec(ctx); err != nil {
			return err
		}
		// re-running a plugin for the same trigger replaces its entry
		if _, err := db.NewCreateIndex().
			Model((*models.LedgerEntry)(nil)).
			Index("ledger_entries_charge_plugin_key_uniq").
			Unique().
			IfNotExists().
			Column("charge_plugin", "charge_plugin_key").
			Exec(ctx); err != nil {
			return err
		}
		indexes := []struct {
			model   interface{}
			name    string
			columns []string
		}{
			{(*models.LedgerEntry)(nil), "ledger_entries_ea_id_idx", []string{"ea_id"}},
			{(*models.LedgerEntry)(nil), "ledger_entries_reference_idx", []string{"reference_type", "reference_id"}},
			{(*models.EntityAccount)(nil), "entity_accounts_account_id_idx", []string{"account_id"}},
			{(*models.LedgerPayment)(nil), "ledger_payments_ledger_ea_id_idx", []string{"ledger_ea_id"}},
		}
		for _, idx := range indexes {
			if _, err := db.NewCreateIndex().
				Model(idx.model).
				Index(idx.name).
				IfNotExists().
				Column(idx.columns...).
				Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	}, nil)
}
