package models

import (
	"context"
	"time"

	"github.com/unionhall/ledgerhub/lib/money"
	"github.com/uptrace/bun"
)

// LedgerPayment : a payment recorded against one EntityAccount.
// Allocated mirrors whether a ledger entry currently exists for it.
type LedgerPayment struct {
	bun.BaseModel `bun:"table:ledger_payments,alias:payment"`

	ID            string                 `json:"id" bun:",pk"`
	LedgerEaID    string                 `json:"ledgerEaId" bun:",notnull" validate:"required"`
	EntityAccount *EntityAccount         `json:"-" bun:"rel:belongs-to,join:ledger_ea_id=id"`
	PaymentTypeID string                 `json:"paymentTypeId" bun:",notnull" validate:"required"`
	PaymentType   *LedgerPaymentType     `json:"-" bun:"rel:belongs-to,join:payment_type_id=id"`
	Amount        money.Cents            `json:"amount" bun:"type:bigint,notnull"`
	Status        string                 `json:"status" bun:",notnull" validate:"required,oneof=cleared pending void"`
	DateCleared   bun.NullTime           `json:"dateCleared"`
	Memo          string                 `json:"memo,omitempty" bun:",nullzero" validate:"max=1024"`
	Allocated     bool                   `json:"allocated" bun:",notnull"`
	Data          map[string]interface{} `json:"data,omitempty" bun:",nullzero"`
	CreatedAt     time.Time              `json:"createdAt" bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt     bun.NullTime           `json:"updatedAt"`
}

func (p *LedgerPayment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.UpdateQuery:
		p.UpdatedAt = bun.NullTime{Time: time.Now()}
	}
	return nil
}

var _ bun.BeforeAppendModelHook = (*LedgerPayment)(nil)

// LedgerPaymentType : how a payment was made; its currency must match the owning account.
type LedgerPaymentType struct {
	bun.BaseModel `bun:"table:ledger_payment_types,alias:payment_type"`

	ID           string    `json:"id" bun:",pk"`
	Name         string    `json:"name" bun:",notnull" validate:"required,max=255"`
	CurrencyCode string    `json:"currencyCode" bun:",notnull" validate:"required,len=3,alpha"`
	CreatedAt    time.Time `json:"createdAt" bun:",nullzero,notnull,default:current_timestamp"`
}
