package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/unionhall/ledgerhub/common"
	"github.com/unionhall/ledgerhub/db/models"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// CreatePayment stores the payment and allocates it in the same transaction.
func (svc *LedgerService) CreatePayment(ctx context.Context, payment *models.LedgerPayment) (*models.LedgerPayment, error) {
	if err := validatePayment(payment); err != nil {
		return nil, err
	}
	var changes []LedgerChange
	err := svc.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := checkPaymentCurrency(ctx, tx, payment); err != nil {
			return err
		}
		if payment.ID == "" {
			payment.ID = newID()
		}
		payment.CreatedAt = now()
		payment.Allocated = false
		if _, err := tx.NewInsert().Model(payment).Exec(ctx); err != nil {
			return err
		}
		result, err := allocatePayment(ctx, tx, payment.ID)
		if err != nil {
			return err
		}
		// the insert above guarantees the row
		payment.Allocated = result.payment.Allocated
		changes = result.changes
		return nil
	})
	if err != nil {
		return nil, err
	}
	svc.runPostCommitHooks(ctx, changes)
	return payment, nil
}

// UpdatePayment stores the payment and reallocates it in the same transaction.
// It returns nil for an unknown id.
func (svc *LedgerService) UpdatePayment(ctx context.Context, payment *models.LedgerPayment) (*models.LedgerPayment, error) {
	if err := validatePayment(payment); err != nil {
		return nil, err
	}
	found := false
	var changes []LedgerChange
	err := svc.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := checkPaymentCurrency(ctx, tx, payment); err != nil {
			return err
		}
		res, err := tx.NewUpdate().
			Model(payment).
			Column("ledger_ea_id", "payment_type_id", "amount", "status", "date_cleared", "memo", "data", "updated_at").
			WherePK().
			Exec(ctx)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil || n == 0 {
			return err
		}
		found = true
		result, err := allocatePayment(ctx, tx, payment.ID)
		if err != nil {
			return err
		}
		changes = result.changes
		return nil
	})
	if err != nil || !found {
		return nil, err
	}
	svc.runPostCommitHooks(ctx, changes)
	return svc.GetPayment(ctx, payment.ID)
}

// DeletePayment removes the payment together with its entry.
func (svc *LedgerService) DeletePayment(ctx context.Context, id string) (bool, error) {
	found := false
	var removed int
	err := svc.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var err error
		removed, err = deleteEntriesByReference(ctx, tx, common.ReferenceTypePayment, id)
		if err != nil {
			return err
		}
		res, err := tx.NewDelete().Model((*models.LedgerPayment)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		found = n > 0
		return err
	})
	if err != nil {
		return false, err
	}
	if removed > 0 {
		svc.runPostCommitHooks(ctx, []LedgerChange{{Kind: ChangeDeallocated, ReferenceType: common.ReferenceTypePayment, ReferenceID: id}})
	}
	return found, nil
}

func (svc *LedgerService) GetPayment(ctx context.Context, id string) (*models.LedgerPayment, error) {
	payment := models.LedgerPayment{}
	err := svc.DB.NewSelect().Model(&payment).Where("id = ?", id).Limit(1).Scan(ctx)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (svc *LedgerService) ListPaymentsForEa(ctx context.Context, eaID string) ([]models.LedgerPayment, error) {
	payments := []models.LedgerPayment{}
	err := svc.DB.NewSelect().Model(&payments).Where("ledger_ea_id = ?", eaID).OrderExpr("id DESC").Scan(ctx)
	return payments, err
}

// AllocatePayment derives the payment's ledger entry from its stored status.
// Every code path that saves a payment must call it; running it twice is a no-op.
// Only payment.ID is trusted: the row is reloaded and locked, and payment is
// refreshed from it. It returns false for an unknown id.
func (svc *LedgerService) AllocatePayment(ctx context.Context, payment *models.LedgerPayment) (bool, error) {
	var result *allocation
	err := svc.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var err error
		result, err = allocatePayment(ctx, tx, payment.ID)
		return err
	})
	if err != nil {
		return false, err
	}
	if result == nil {
		return false, nil
	}
	*payment = *result.payment
	svc.runPostCommitHooks(ctx, result.changes)
	return true, nil
}

type allocation struct {
	payment      *models.LedgerPayment
	wasAllocated bool
	changes      []LedgerChange
}

// lockPayment loads the payment row, locking it on postgres so concurrent
// allocations of one payment run one after the other.
func lockPayment(ctx context.Context, tx bun.IDB, id string) (*models.LedgerPayment, error) {
	payment := models.LedgerPayment{}
	q := tx.NewSelect().Model(&payment).Where("id = ?", id).Limit(1)
	if tx.Dialect().Name() == dialect.PG {
		q = q.For("UPDATE")
	}
	err := q.Scan(ctx)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// allocatePayment deletes whatever entry the stored payment had and, when it
// is cleared, inserts one entry of the negated amount. It must run inside a
// transaction and returns nil for an unknown id.
func allocatePayment(ctx context.Context, tx bun.IDB, id string) (*allocation, error) {
	if id == "" {
		return nil, newValidationError("id", "payment must be saved before allocation")
	}
	payment, err := lockPayment(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("allocate payment %s: %w", id, err)
	}
	if payment == nil {
		return nil, nil
	}
	result := &allocation{payment: payment, wasAllocated: payment.Allocated, changes: []LedgerChange{}}

	removed, err := deleteEntriesByReference(ctx, tx, common.ReferenceTypePayment, payment.ID)
	if err != nil {
		return nil, fmt.Errorf("allocate payment %s: %w", payment.ID, err)
	}
	if removed > 0 {
		result.changes = append(result.changes, LedgerChange{
			Kind:          ChangeDeallocated,
			EaID:          payment.LedgerEaID,
			ReferenceType: common.ReferenceTypePayment,
			ReferenceID:   payment.ID,
		})
	}

	payment.Allocated = false
	if payment.Status == common.PaymentStatusCleared {
		entry, err := insertEntry(ctx, tx, &models.LedgerEntry{
			EaID:          payment.LedgerEaID,
			Amount:        payment.Amount.Negate(),
			Date:          payment.DateCleared,
			ReferenceType: common.ReferenceTypePayment,
			ReferenceID:   payment.ID,
			Memo:          payment.Memo,
		})
		if err != nil {
			return nil, fmt.Errorf("allocate payment %s: %w", payment.ID, err)
		}
		payment.Allocated = true
		result.changes = append(result.changes, LedgerChange{
			Kind:          ChangeAllocated,
			EaID:          entry.EaID,
			EntryID:       entry.ID,
			Amount:        entry.Amount,
			ReferenceType: common.ReferenceTypePayment,
			ReferenceID:   payment.ID,
		})
	}

	_, err = tx.NewUpdate().Model(payment).Column("allocated", "updated_at").WherePK().Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("allocate payment %s: %w", payment.ID, err)
	}
	return result, nil
}

// ReallocateAllPayments re-runs allocation for every payment and returns how
// many payments changed allocation state. Each payment is reloaded under lock,
// so a payment updated after the id scan is allocated from its new state.
func (svc *LedgerService) ReallocateAllPayments(ctx context.Context) (int, error) {
	ids := []string{}
	err := svc.DB.NewSelect().Model((*models.LedgerPayment)(nil)).Column("id").OrderExpr("id ASC").Scan(ctx, &ids)
	if err != nil {
		return 0, err
	}
	changed := 0
	for _, id := range ids {
		var result *allocation
		err := svc.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
			var err error
			result, err = allocatePayment(ctx, tx, id)
			return err
		})
		if err != nil {
			return changed, err
		}
		if result == nil {
			// deleted since the scan
			continue
		}
		svc.runPostCommitHooks(ctx, result.changes)
		if result.payment.Allocated != result.wasAllocated {
			changed++
			svc.Logger.Infof("Reallocated payment %s: allocated %t -> %t", id, result.wasAllocated, result.payment.Allocated)
		}
	}
	return changed, nil
}

func validatePayment(payment *models.LedgerPayment) error {
	if err := validate.Struct(payment); err != nil {
		return validationErrorFrom(err)
	}
	if payment.Amount <= 0 {
		return newValidationError("amount", "must be positive")
	}
	if payment.Status == common.PaymentStatusCleared && payment.DateCleared.IsZero() {
		return newValidationError("dateCleared", "is required when status is cleared")
	}
	return nil
}

// checkPaymentCurrency rejects a payment whose type's currency differs from its account's.
func checkPaymentCurrency(ctx context.Context, db bun.IDB, payment *models.LedgerPayment) error {
	ea, err := getEntityAccount(ctx, db, payment.LedgerEaID)
	if err != nil {
		return err
	}
	if ea == nil || ea.Account == nil {
		return newValidationError("ledgerEaId", "unknown entity account %s", payment.LedgerEaID)
	}
	paymentType := models.LedgerPaymentType{}
	err = db.NewSelect().Model(&paymentType).Where("id = ?", payment.PaymentTypeID).Limit(1).Scan(ctx)
	if isNotFound(err) {
		return newValidationError("paymentTypeId", "unknown payment type %s", payment.PaymentTypeID)
	}
	if err != nil {
		return err
	}
	if !strings.EqualFold(paymentType.CurrencyCode, ea.Account.CurrencyCode) {
		return &ValidationError{
			Field:   "paymentTypeId",
			Message: fmt.Sprintf("payment type currency %s does not match account currency %s", paymentType.CurrencyCode, ea.Account.CurrencyCode),
			Err:     ErrCurrencyMismatch,
		}
	}
	return nil
}
