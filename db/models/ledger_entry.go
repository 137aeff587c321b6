package models

import (
	"time"

	"github.com/unionhall/ledgerhub/lib/money"
	"github.com/uptrace/bun"
)

// LedgerEntry : one balance change on an EntityAccount.
// Entries sharing (charge_plugin, charge_plugin_key) are unique.
type LedgerEntry struct {
	bun.BaseModel `bun:"table:ledger_entries,alias:entry"`

	ID                   string                 `json:"id" bun:",pk"`
	EaID                 string                 `json:"eaId" bun:",notnull"`
	EntityAccount        *EntityAccount         `json:"-" bun:"rel:belongs-to,join:ea_id=id"`
	Amount               money.Cents            `json:"amount" bun:"type:bigint,notnull"`
	Date                 bun.NullTime           `json:"date"`
	ReferenceType        string                 `json:"referenceType,omitempty" bun:",nullzero"`
	ReferenceID          string                 `json:"referenceId,omitempty" bun:",nullzero"`
	ChargePlugin         string                 `json:"chargePlugin,omitempty" bun:",nullzero"`
	ChargePluginKey      string                 `json:"chargePluginKey,omitempty" bun:",nullzero"`
	ChargePluginConfigID string                 `json:"chargePluginConfigId,omitempty" bun:",nullzero"`
	Data                 map[string]interface{} `json:"data,omitempty" bun:",nullzero"`
	Memo                 string                 `json:"memo,omitempty" bun:",nullzero"`
	CreatedAt            time.Time              `json:"createdAt" bun:",nullzero,notnull,default:current_timestamp"`
}

// Dated reports whether the entry can be placed in an invoice period.
func (e *LedgerEntry) Dated() bool {
	return !e.Date.IsZero()
}
