package models

import (
	"time"

	"github.com/uptrace/bun"
)

// EntityAccount : binds one employer, worker or trust provider to one LedgerAccount.
// (account_id, entity_type, entity_id) is unique.
type EntityAccount struct {
	bun.BaseModel `bun:"table:entity_accounts,alias:ea"`

	ID         string                 `json:"id" bun:",pk"`
	AccountID  string                 `json:"accountId" bun:",notnull"`
	Account    *LedgerAccount         `json:"-" bun:"rel:belongs-to,join:account_id=id"`
	EntityType string                 `json:"entityType" bun:",notnull"`
	EntityID   string                 `json:"entityId" bun:",notnull"`
	Data       map[string]interface{} `json:"data,omitempty" bun:",nullzero"`
	CreatedAt  time.Time              `json:"createdAt" bun:",nullzero,notnull,default:current_timestamp"`
}
