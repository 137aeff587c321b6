package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/unionhall/ledgerhub/common"
	"github.com/unionhall/ledgerhub/db/dbtest"
	"github.com/unionhall/ledgerhub/db/models"
	"github.com/unionhall/ledgerhub/lib/money"
	"github.com/unionhall/ledgerhub/plugins"
	"github.com/uptrace/bun"
	"github.com/ziflex/lecho/v3"
)

func newTestService(t *testing.T) *LedgerService {
	t.Helper()
	return &LedgerService{
		Config: &Config{
			EnableChargePlugins:      true,
			DefaultParticipantsLimit: 50,
			MaxParticipantsLimit:     500,
		},
		DB:      dbtest.Open(t),
		Logger:  lecho.New(io.Discard),
		Plugins: plugins.DefaultRegistry(),
	}
}

func createAccount(t *testing.T, svc *LedgerService, name, currency string) *models.LedgerAccount {
	t.Helper()
	account, err := svc.CreateAccount(context.Background(), &models.LedgerAccount{Name: name, CurrencyCode: currency})
	require.NoError(t, err)
	return account
}

func createEa(t *testing.T, svc *LedgerService, account *models.LedgerAccount, entityType, entityID string) *models.EntityAccount {
	t.Helper()
	ea, err := svc.GetOrCreateEntityAccount(context.Background(), entityType, entityID, account.ID)
	require.NoError(t, err)
	return ea
}

func createPaymentType(t *testing.T, svc *LedgerService, currency string) *models.LedgerPaymentType {
	t.Helper()
	paymentType, err := svc.CreatePaymentType(context.Background(), &models.LedgerPaymentType{Name: "Check", CurrencyCode: currency})
	require.NoError(t, err)
	return paymentType
}

func createEntry(t *testing.T, svc *LedgerService, ea *models.EntityAccount, amount string, date bun.NullTime) *models.LedgerEntry {
	t.Helper()
	entry, err := svc.CreateEntry(context.Background(), &models.LedgerEntry{
		EaID:          ea.ID,
		Amount:        money.MustParseCents(amount),
		Date:          date,
		ReferenceType: common.ReferenceTypeHour,
		ReferenceID:   "hours-" + amount,
	})
	require.NoError(t, err)
	return entry
}

func on(year int, month time.Month, d int) bun.NullTime {
	return bun.NullTime{Time: time.Date(year, month, d, 0, 0, 0, 0, time.UTC)}
}

func countRows(t *testing.T, svc *LedgerService, model interface{}) int {
	t.Helper()
	n, err := svc.DB.NewSelect().Model(model).Count(context.Background())
	require.NoError(t, err)
	return n
}
