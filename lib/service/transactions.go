package service

import (
	"context"
	"fmt"

	"github.com/unionhall/ledgerhub/db/models"
)

// TransactionFilter selects entries by exactly one of: account, entity account
// or reference.
type TransactionFilter struct {
	AccountID     string
	EaID          string
	ReferenceType string
	ReferenceID   string
}

func (f TransactionFilter) validate() error {
	set := 0
	if f.AccountID != "" {
		set++
	}
	if f.EaID != "" {
		set++
	}
	if f.ReferenceType != "" || f.ReferenceID != "" {
		if f.ReferenceType == "" || f.ReferenceID == "" {
			return newValidationError("reference", "referenceType and referenceId are set together")
		}
		set++
	}
	if set != 1 {
		return newValidationError("filter", "exactly one of accountId, eaId or reference is required")
	}
	return nil
}

// GetTransactions lists entries newest first: by date descending with undated
// entries last, then by id descending.
func (svc *LedgerService) GetTransactions(ctx context.Context, filter TransactionFilter) ([]LedgerEntryWithDetails, error) {
	if err := filter.validate(); err != nil {
		return nil, err
	}
	entries := []models.LedgerEntry{}
	query := svc.DB.NewSelect().Model(&entries).Relation("EntityAccount")
	switch {
	case filter.AccountID != "":
		query = query.Where("entity_account.account_id = ?", filter.AccountID)
	case filter.EaID != "":
		query = query.Where("entry.ea_id = ?", filter.EaID)
	default:
		query = query.
			Where("entry.reference_type = ?", filter.ReferenceType).
			Where("entry.reference_id = ?", filter.ReferenceID)
	}
	err := query.
		OrderExpr("entry.date DESC NULLS LAST").
		OrderExpr("entry.id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return svc.newDescriber().describe(ctx, entries)
}
