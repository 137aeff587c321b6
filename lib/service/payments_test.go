package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/unionhall/ledgerhub/common"
	"github.com/unionhall/ledgerhub/db/models"
	"github.com/unionhall/ledgerhub/lib/money"
)

type PaymentAllocationTestSuite struct {
	suite.Suite
	svc         *LedgerService
	ea          *models.EntityAccount
	paymentType *models.LedgerPaymentType
	changes     []LedgerChange
}

func (suite *PaymentAllocationTestSuite) SetupTest() {
	t := suite.T()
	suite.svc = newTestService(t)
	account := createAccount(t, suite.svc, "Dues", "USD")
	suite.ea = createEa(t, suite.svc, account, common.EntityTypeWorker, "w-1")
	suite.paymentType = createPaymentType(t, suite.svc, "USD")
	suite.changes = nil
	suite.svc.PostCommitHooks = []PostCommitHook{func(ctx context.Context, change LedgerChange) {
		suite.changes = append(suite.changes, change)
	}}
}

func (suite *PaymentAllocationTestSuite) newPayment(amount, status string) *models.LedgerPayment {
	return &models.LedgerPayment{
		LedgerEaID:    suite.ea.ID,
		PaymentTypeID: suite.paymentType.ID,
		Amount:        money.MustParseCents(amount),
		Status:        status,
		Memo:          "check 1001",
	}
}

func (suite *PaymentAllocationTestSuite) paymentEntries(payment *models.LedgerPayment) []models.LedgerEntry {
	entries, err := suite.svc.GetEntriesByReference(context.Background(), common.ReferenceTypePayment, payment.ID)
	suite.Require().NoError(err)
	return entries
}

func (suite *PaymentAllocationTestSuite) TestPaymentLifecycle() {
	ctx := context.Background()
	payment, err := suite.svc.CreatePayment(ctx, suite.newPayment("40.00", common.PaymentStatusPending))
	suite.Require().NoError(err)
	suite.False(payment.Allocated)
	suite.Empty(suite.paymentEntries(payment))

	payment.Status = common.PaymentStatusCleared
	payment.DateCleared = on(2024, 3, 1)
	payment, err = suite.svc.UpdatePayment(ctx, payment)
	suite.Require().NoError(err)
	suite.True(payment.Allocated)
	entries := suite.paymentEntries(payment)
	suite.Require().Len(entries, 1)
	suite.Equal("-40.00", entries[0].Amount.String())
	suite.True(on(2024, 3, 1).Time.Equal(entries[0].Date.Time))
	suite.Equal("check 1001", entries[0].Memo)
	suite.Equal(suite.ea.ID, entries[0].EaID)

	payment.Status = common.PaymentStatusVoid
	payment, err = suite.svc.UpdatePayment(ctx, payment)
	suite.Require().NoError(err)
	suite.False(payment.Allocated)
	suite.Empty(suite.paymentEntries(payment))

	kinds := []string{}
	for _, c := range suite.changes {
		kinds = append(kinds, c.Kind)
	}
	suite.Equal([]string{ChangeAllocated, ChangeDeallocated}, kinds)
}

func (suite *PaymentAllocationTestSuite) TestAllocationIsIdempotent() {
	ctx := context.Background()
	payment := suite.newPayment("15.25", common.PaymentStatusCleared)
	payment.DateCleared = on(2024, 5, 2)
	payment, err := suite.svc.CreatePayment(ctx, payment)
	suite.Require().NoError(err)

	for i := 0; i < 2; i++ {
		found, err := suite.svc.AllocatePayment(ctx, payment)
		suite.Require().NoError(err)
		suite.True(found)
	}
	entries := suite.paymentEntries(payment)
	suite.Require().Len(entries, 1)
	suite.Equal(money.Cents(-1525), entries[0].Amount)

	stored, err := suite.svc.GetPayment(ctx, payment.ID)
	suite.Require().NoError(err)
	suite.True(stored.Allocated)

	balance, err := suite.svc.GetBalance(ctx, suite.ea.ID)
	suite.Require().NoError(err)
	suite.Equal(money.Cents(-1525), balance)
}

func (suite *PaymentAllocationTestSuite) TestCurrencyMismatchWritesNothing() {
	ctx := context.Background()
	cad := createPaymentType(suite.T(), suite.svc, "CAD")
	payment := suite.newPayment("10.00", common.PaymentStatusCleared)
	payment.DateCleared = on(2024, 3, 1)
	payment.PaymentTypeID = cad.ID

	_, err := suite.svc.CreatePayment(ctx, payment)
	suite.True(errors.Is(err, ErrCurrencyMismatch))
	suite.True(IsValidationError(err))
	suite.Equal(0, countRows(suite.T(), suite.svc, (*models.LedgerPayment)(nil)))
	suite.Equal(0, countRows(suite.T(), suite.svc, (*models.LedgerEntry)(nil)))
}

func (suite *PaymentAllocationTestSuite) TestInvalidPayments() {
	ctx := context.Background()
	zero := suite.newPayment("0", common.PaymentStatusCleared)
	_, err := suite.svc.CreatePayment(ctx, zero)
	suite.True(IsValidationError(err))

	badStatus := suite.newPayment("1.00", "bounced")
	_, err = suite.svc.CreatePayment(ctx, badStatus)
	suite.True(IsValidationError(err))

	unknownEa := suite.newPayment("1.00", common.PaymentStatusPending)
	unknownEa.LedgerEaID = "nope"
	_, err = suite.svc.CreatePayment(ctx, unknownEa)
	suite.True(IsValidationError(err))
}

func (suite *PaymentAllocationTestSuite) TestUpdateAndDeleteMissingPayment() {
	ctx := context.Background()
	ghost := suite.newPayment("1.00", common.PaymentStatusCleared)
	ghost.DateCleared = on(2024, 3, 1)
	ghost.ID = "ghost"
	updated, err := suite.svc.UpdatePayment(ctx, ghost)
	suite.NoError(err)
	suite.Nil(updated)
	suite.Empty(suite.paymentEntries(ghost))

	deleted, err := suite.svc.DeletePayment(ctx, "ghost")
	suite.NoError(err)
	suite.False(deleted)
}

func (suite *PaymentAllocationTestSuite) TestAllocateUnknownPaymentWritesNothing() {
	ghost := suite.newPayment("40.00", common.PaymentStatusCleared)
	ghost.DateCleared = on(2024, 3, 1)
	ghost.ID = "does-not-exist"

	found, err := suite.svc.AllocatePayment(context.Background(), ghost)
	suite.NoError(err)
	suite.False(found)
	suite.Empty(suite.paymentEntries(ghost))
	suite.Equal(0, countRows(suite.T(), suite.svc, (*models.LedgerEntry)(nil)))
	suite.Empty(suite.changes)
}

func (suite *PaymentAllocationTestSuite) TestAllocateStaleCopyUsesStoredPayment() {
	ctx := context.Background()
	payment := suite.newPayment("40.00", common.PaymentStatusCleared)
	payment.DateCleared = on(2024, 3, 1)
	payment, err := suite.svc.CreatePayment(ctx, payment)
	suite.Require().NoError(err)
	stale := *payment

	payment.Status = common.PaymentStatusVoid
	_, err = suite.svc.UpdatePayment(ctx, payment)
	suite.Require().NoError(err)

	found, err := suite.svc.AllocatePayment(ctx, &stale)
	suite.Require().NoError(err)
	suite.True(found)
	suite.Equal(common.PaymentStatusVoid, stale.Status)
	suite.False(stale.Allocated)
	suite.Empty(suite.paymentEntries(payment))

	stored, err := suite.svc.GetPayment(ctx, payment.ID)
	suite.Require().NoError(err)
	suite.Equal(common.PaymentStatusVoid, stored.Status)
	suite.False(stored.Allocated)
}

func (suite *PaymentAllocationTestSuite) TestAllocateIgnoresCallerAmount() {
	ctx := context.Background()
	payment := suite.newPayment("40.00", common.PaymentStatusCleared)
	payment.DateCleared = on(2024, 3, 1)
	payment, err := suite.svc.CreatePayment(ctx, payment)
	suite.Require().NoError(err)

	tampered := *payment
	tampered.Amount = money.MustParseCents("9999.00")
	tampered.LedgerEaID = "someone-else"
	_, err = suite.svc.AllocatePayment(ctx, &tampered)
	suite.Require().NoError(err)

	entries := suite.paymentEntries(payment)
	suite.Require().Len(entries, 1)
	suite.Equal("-40.00", entries[0].Amount.String())
	suite.Equal(suite.ea.ID, entries[0].EaID)
}

func (suite *PaymentAllocationTestSuite) TestSecondPaymentEntryIsRejected() {
	ctx := context.Background()
	payment := suite.newPayment("40.00", common.PaymentStatusCleared)
	payment.DateCleared = on(2024, 3, 1)
	payment, err := suite.svc.CreatePayment(ctx, payment)
	suite.Require().NoError(err)

	_, err = suite.svc.CreateEntry(ctx, &models.LedgerEntry{
		EaID:          suite.ea.ID,
		Amount:        money.MustParseCents("-40.00"),
		Date:          on(2024, 3, 1),
		ReferenceType: common.ReferenceTypePayment,
		ReferenceID:   payment.ID,
	})
	suite.Error(err)
	suite.Len(suite.paymentEntries(payment), 1)
}

func (suite *PaymentAllocationTestSuite) TestClearedPaymentRequiresDate() {
	ctx := context.Background()
	undated := suite.newPayment("7.00", common.PaymentStatusCleared)
	_, err := suite.svc.CreatePayment(ctx, undated)
	suite.Require().Error(err)
	var validationErr *ValidationError
	suite.Require().True(errors.As(err, &validationErr))
	suite.Equal("dateCleared", validationErr.Field)
	suite.Equal(0, countRows(suite.T(), suite.svc, (*models.LedgerPayment)(nil)))

	pending, err := suite.svc.CreatePayment(ctx, suite.newPayment("7.00", common.PaymentStatusPending))
	suite.Require().NoError(err)
	pending.Status = common.PaymentStatusCleared
	_, err = suite.svc.UpdatePayment(ctx, pending)
	suite.True(IsValidationError(err))
	suite.Empty(suite.paymentEntries(pending))
}

func (suite *PaymentAllocationTestSuite) TestDeletePaymentRemovesEntry() {
	ctx := context.Background()
	payment := suite.newPayment("40.00", common.PaymentStatusCleared)
	payment.DateCleared = on(2024, 3, 1)
	payment, err := suite.svc.CreatePayment(ctx, payment)
	suite.Require().NoError(err)

	deleted, err := suite.svc.DeletePayment(ctx, payment.ID)
	suite.Require().NoError(err)
	suite.True(deleted)
	suite.Empty(suite.paymentEntries(payment))

	payments, err := suite.svc.ListPaymentsForEa(ctx, suite.ea.ID)
	suite.Require().NoError(err)
	suite.Empty(payments)
}

func (suite *PaymentAllocationTestSuite) TestReallocateAllPaymentsRepairsDrift() {
	ctx := context.Background()
	payment := suite.newPayment("40.00", common.PaymentStatusCleared)
	payment.DateCleared = on(2024, 3, 1)
	payment, err := suite.svc.CreatePayment(ctx, payment)
	suite.Require().NoError(err)
	_, err = suite.svc.CreatePayment(ctx, suite.newPayment("5.00", common.PaymentStatusPending))
	suite.Require().NoError(err)

	_, err = suite.svc.DeleteEntriesByReference(ctx, common.ReferenceTypePayment, payment.ID)
	suite.Require().NoError(err)
	payment.Allocated = false
	_, err = suite.svc.DB.NewUpdate().Model(payment).Column("allocated").WherePK().Exec(ctx)
	suite.Require().NoError(err)

	changed, err := suite.svc.ReallocateAllPayments(ctx)
	suite.Require().NoError(err)
	suite.Equal(1, changed)
	suite.Len(suite.paymentEntries(payment), 1)

	changed, err = suite.svc.ReallocateAllPayments(ctx)
	suite.Require().NoError(err)
	suite.Equal(0, changed)
}

func (suite *PaymentAllocationTestSuite) TestPanickingHookDoesNotFailAllocation() {
	suite.svc.PostCommitHooks = append([]PostCommitHook{func(ctx context.Context, change LedgerChange) {
		panic("subscriber down")
	}}, suite.svc.PostCommitHooks...)

	payment := suite.newPayment("40.00", common.PaymentStatusCleared)
	payment.DateCleared = on(2024, 3, 1)
	_, err := suite.svc.CreatePayment(context.Background(), payment)
	suite.Require().NoError(err)
	suite.Len(suite.changes, 1)
}

func TestPaymentAllocationTestSuite(t *testing.T) {
	suite.Run(t, new(PaymentAllocationTestSuite))
}
