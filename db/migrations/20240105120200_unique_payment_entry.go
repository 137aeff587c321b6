package migrations

import (
	"context"

	"github.com/unionhall/ledgerhub/db/models"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		// a payment owns at most one entry, even when two allocations race
		_, err := db.NewCreateIndex().
			Model((*models.LedgerEntry)(nil)).
			Index("ledger_entries_payment_reference_uniq").
			Unique().
			IfNotExists().
			Column("reference_id").
			Where("reference_type = 'payment'").
			Exec(ctx)
		return err
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewDropIndex().
			Model((*models.LedgerEntry)(nil)).
			Index("ledger_entries_payment_reference_uniq").
			IfExists().
			Exec(ctx)
		return err
	})
}
