package models

import (
	"context"
	"time"

	"github.com/unionhall/ledgerhub/common"
	"github.com/uptrace/bun"
)

// LedgerAccount : a named ledger namespace in one currency
type LedgerAccount struct {
	bun.BaseModel `bun:"table:ledger_accounts,alias:account"`

	ID           string                 `json:"id" bun:",pk"`
	Name         string                 `json:"name" bun:",notnull" validate:"required,max=255"`
	CurrencyCode string                 `json:"currencyCode" bun:",notnull" validate:"required,len=3,alpha"`
	Data         map[string]interface{} `json:"data,omitempty" bun:",nullzero"`
	CreatedAt    time.Time              `json:"createdAt" bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt    bun.NullTime           `json:"updatedAt"`
}

func (a *LedgerAccount) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.UpdateQuery:
		a.UpdatedAt = bun.NullTime{Time: time.Now()}
	}
	return nil
}

func (a *LedgerAccount) InvoiceHeader() string {
	return a.dataString(common.AccountDataInvoiceHeader)
}

func (a *LedgerAccount) InvoiceFooter() string {
	return a.dataString(common.AccountDataInvoiceFooter)
}

func (a *LedgerAccount) dataString(key string) string {
	if a.Data == nil {
		return ""
	}
	s, _ := a.Data[key].(string)
	return s
}

var _ bun.BeforeAppendModelHook = (*LedgerAccount)(nil)
