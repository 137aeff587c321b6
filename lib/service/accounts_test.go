package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unionhall/ledgerhub/common"
	"github.com/unionhall/ledgerhub/db/models"
)

func TestAccountCrud(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	account := createAccount(t, svc, "Health & Welfare", "usd")
	account.Data = map[string]interface{}{common.AccountDataInvoiceHeader: "Local 12"}
	account.Name = "H&W"
	updated, err := svc.UpdateAccount(ctx, account)
	require.NoError(t, err)
	assert.Equal(t, "H&W", updated.Name)
	assert.Equal(t, "Local 12", updated.InvoiceHeader())
	assert.Equal(t, "", updated.InvoiceFooter())
	assert.False(t, updated.UpdatedAt.IsZero())

	missing, err := svc.UpdateAccount(ctx, &models.LedgerAccount{ID: "nope", Name: "x", CurrencyCode: "USD"})
	assert.NoError(t, err)
	assert.Nil(t, missing)

	accounts, err := svc.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Len(t, accounts, 1)

	deleted, err := svc.DeleteAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = svc.DeleteAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	got, err := svc.GetAccount(ctx, account.ID)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestCreateAccountValidation(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.CreateAccount(context.Background(), &models.LedgerAccount{Name: "Dues", CurrencyCode: "US"})
	assert.True(t, IsValidationError(err))
	_, err = svc.CreateAccount(context.Background(), &models.LedgerAccount{CurrencyCode: "USD"})
	assert.True(t, IsValidationError(err))
}

func TestPaymentTypes(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	paymentType := createPaymentType(t, svc, "cad")
	assert.Equal(t, "CAD", paymentType.CurrencyCode)

	got, err := svc.GetPaymentType(ctx, paymentType.ID)
	require.NoError(t, err)
	assert.Equal(t, "Check", got.Name)

	list, err := svc.ListPaymentTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	missing, err := svc.GetPaymentType(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}
