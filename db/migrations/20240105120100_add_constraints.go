package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {

		if db.Dialect().Name().String() != "pg" {
			fmt.Printf("\033[1;31m%s\033[0m", "You are not using PostgreSQL. DB level checks can not be enabled!\n")
			return nil
		}
		sql := `
			-- entity accounts only bind known entity types
				ALTER TABLE entity_accounts
				ADD CONSTRAINT check_entity_type
				CHECK (entity_type IN ('employer', 'worker', 'trustProvider'));

				ALTER TABLE entity_accounts
				ADD CONSTRAINT fk_entity_accounts_account
				FOREIGN KEY (account_id) REFERENCES ledger_accounts (id);

				ALTER TABLE ledger_entries
				ADD CONSTRAINT fk_ledger_entries_ea
				FOREIGN KEY (ea_id) REFERENCES entity_accounts (id);

			-- a plugin key is meaningless without the plugin that owns it
				ALTER TABLE ledger_entries
				ADD CONSTRAINT check_charge_plugin_key
				CHECK ((charge_plugin IS NULL) = (charge_plugin_key IS NULL));

				ALTER TABLE ledger_payments
				ADD CONSTRAINT check_payment_status
				CHECK (status IN ('cleared', 'pending', 'void'));

				ALTER TABLE ledger_payments
				ADD CONSTRAINT fk_ledger_payments_ea
				FOREIGN KEY (ledger_ea_id) REFERENCES entity_accounts (id);

				ALTER TABLE ledger_payments
				ADD CONSTRAINT fk_ledger_payments_type
				FOREIGN KEY (payment_type_id) REFERENCES ledger_payment_types (id);
		`
		if _, err := db.ExecContext(ctx, sql); err != nil {
			return err
		}
		return nil
	}, nil)
}
