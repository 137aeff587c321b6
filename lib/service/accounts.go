package service

import (
	"context"
	"strings"

	"github.com/unionhall/ledgerhub/db/models"
)

func (svc *LedgerService) CreateAccount(ctx context.Context, account *models.LedgerAccount) (*models.LedgerAccount, error) {
	account.CurrencyCode = strings.ToUpper(strings.TrimSpace(account.CurrencyCode))
	if err := validate.Struct(account); err != nil {
		return nil, validationErrorFrom(err)
	}
	if account.ID == "" {
		account.ID = newID()
	}
	account.CreatedAt = now()
	if _, err := svc.DB.NewInsert().Model(account).Exec(ctx); err != nil {
		return nil, err
	}
	return account, nil
}

func (svc *LedgerService) GetAccount(ctx context.Context, id string) (*models.LedgerAccount, error) {
	account := models.LedgerAccount{}
	err := svc.DB.NewSelect().Model(&account).Where("id = ?", id).Limit(1).Scan(ctx)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (svc *LedgerService) ListAccounts(ctx context.Context) ([]models.LedgerAccount, error) {
	accounts := []models.LedgerAccount{}
	err := svc.DB.NewSelect().Model(&accounts).OrderExpr("name ASC").OrderExpr("id ASC").Scan(ctx)
	return accounts, err
}

// UpdateAccount writes name, currency and data. It returns nil for an unknown id.
func (svc *LedgerService) UpdateAccount(ctx context.Context, account *models.LedgerAccount) (*models.LedgerAccount, error) {
	account.CurrencyCode = strings.ToUpper(strings.TrimSpace(account.CurrencyCode))
	if err := validate.Struct(account); err != nil {
		return nil, validationErrorFrom(err)
	}
	res, err := svc.DB.NewUpdate().
		Model(account).
		Column("name", "currency_code", "data", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return nil, err
	}
	return svc.GetAccount(ctx, account.ID)
}

// DeleteAccount does not check for referencing entries; callers delete empty accounts only.
func (svc *LedgerService) DeleteAccount(ctx context.Context, id string) (bool, error) {
	res, err := svc.DB.NewDelete().Model((*models.LedgerAccount)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (svc *LedgerService) CreatePaymentType(ctx context.Context, paymentType *models.LedgerPaymentType) (*models.LedgerPaymentType, error) {
	paymentType.CurrencyCode = strings.ToUpper(strings.TrimSpace(paymentType.CurrencyCode))
	if err := validate.Struct(paymentType); err != nil {
		return nil, validationErrorFrom(err)
	}
	if paymentType.ID == "" {
		paymentType.ID = newID()
	}
	paymentType.CreatedAt = now()
	if _, err := svc.DB.NewInsert().Model(paymentType).Exec(ctx); err != nil {
		return nil, err
	}
	return paymentType, nil
}

func (svc *LedgerService) GetPaymentType(ctx context.Context, id string) (*models.LedgerPaymentType, error) {
	paymentType := models.LedgerPaymentType{}
	err := svc.DB.NewSelect().Model(&paymentType).Where("id = ?", id).Limit(1).Scan(ctx)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &paymentType, nil
}

func (svc *LedgerService) ListPaymentTypes(ctx context.Context) ([]models.LedgerPaymentType, error) {
	paymentTypes := []models.LedgerPaymentType{}
	err := svc.DB.NewSelect().Model(&paymentTypes).OrderExpr("name ASC").Scan(ctx)
	return paymentTypes, err
}
