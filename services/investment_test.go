package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Tebogokaulela455/psa/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "ipn-secret"

func newInvestmentService(t *testing.T) (*InvestmentService, *fakeGateway, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	gw := &fakeGateway{}
	svc := NewInvestmentService(db, gw, GatewayConfig{IPNSecret: testSecret, CallbackURL: "https://example.com/api/invest/ipn"})
	return svc, gw, db
}

func balanceOf(t *testing.T, db *gorm.DB, userID uint) decimal.Decimal {
	t.Helper()
	var u models.User
	require.NoError(t, db.First(&u, userID).Error)
	return u.Balance
}

func TestGetPlanInfo(t *testing.T) {
	svc, _, _ := newInvestmentService(t)

	plan, err := svc.GetPlanInfo(decimal.NewFromInt(15))
	require.NoError(t, err)
	assert.Equal(t, "0.9", plan.Daily.String())
	assert.Equal(t, "25.2", plan.Total.String())

	_, err = svc.GetPlanInfo(decimal.NewFromInt(9))
	assert.ErrorIs(t, err, ErrInvalidPlan)
}

func TestRequestInvoiceCreatesPendingInvestment(t *testing.T) {
	svc, gw, db := newInvestmentService(t)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	user := createUser(t, db, "a@example.com")

	inv, err := svc.RequestInvoice(context.Background(), user.ID, decimal.NewFromInt(8), PaymentMethodCrypto)
	require.NoError(t, err)

	require.Len(t, gw.requests, 1)
	req := gw.requests[0]
	assert.Equal(t, "8", req.PriceAmount.String())
	assert.Equal(t, "usd", req.PriceCurrency)
	assert.Equal(t, "btc", req.PayCurrency)
	assert.Equal(t, "https://example.com/api/invest/ipn", req.IPNCallbackURL)
	assert.Equal(t, req.OrderID, inv.OrderID)

	var stored models.Investment
	require.NoError(t, db.First(&stored, inv.ID).Error)
	assert.Equal(t, models.InvestmentPending, stored.Status)
	assert.Equal(t, "0.4", stored.Daily.String())
	assert.Equal(t, "11.2", stored.Total.String())
	assert.Equal(t, "1001", stored.InvoiceID)
	assert.Equal(t, "https://nowpayments.io/payment/?iid=1001", inv.InvoiceURL)
	assert.True(t, stored.ExpiresAt.Equal(fixed.AddDate(0, 0, 28)))
}

func TestRequestInvoicePayCurrencyDefaultsToUSD(t *testing.T) {
	svc, gw, db := newInvestmentService(t)
	user := createUser(t, db, "a@example.com")

	_, err := svc.RequestInvoice(context.Background(), user.ID, decimal.NewFromInt(5), "Card")
	require.NoError(t, err)
	assert.Equal(t, "usd", gw.requests[0].PayCurrency)
}

func TestRequestInvoicePersistsAfterClientCancels(t *testing.T) {
	svc, gw, db := newInvestmentService(t)
	user := createUser(t, db, "a@example.com")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	gw.onCreate = cancel

	inv, err := svc.RequestInvoice(ctx, user.ID, decimal.NewFromInt(8), PaymentMethodCrypto)
	require.NoError(t, err)
	require.Error(t, ctx.Err())

	var stored models.Investment
	require.NoError(t, db.Where("invoice_id = ?", inv.InvoiceID).First(&stored).Error)
	assert.Equal(t, models.InvestmentPending, stored.Status)
}

func TestVerifySignature(t *testing.T) {
	svc, _, _ := newInvestmentService(t)

	assert.NoError(t, svc.VerifySignature(testSecret))
	assert.ErrorIs(t, svc.VerifySignature(""), ErrForbidden)
	assert.ErrorIs(t, svc.VerifySignature("wrong"), ErrForbidden)
}

func TestRequestInvoiceRejectsUnknownAmount(t *testing.T) {
	svc, gw, db := newInvestmentService(t)
	user := createUser(t, db, "a@example.com")

	_, err := svc.RequestInvoice(context.Background(), user.ID, decimal.NewFromInt(7), PaymentMethodCrypto)
	assert.ErrorIs(t, err, ErrInvalidPlan)
	assert.Empty(t, gw.requests)
}

func TestRequestInvoiceGatewayFailurePersistsNothing(t *testing.T) {
	svc, gw, db := newInvestmentService(t)
	gw.err = errGatewayDown
	user := createUser(t, db, "a@example.com")

	_, err := svc.RequestInvoice(context.Background(), user.ID, decimal.NewFromInt(8), PaymentMethodCrypto)
	require.ErrorIs(t, err, ErrGateway)
	assert.ErrorIs(t, err, errGatewayDown)

	var count int64
	require.NoError(t, db.Model(&models.Investment{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRequestInvoiceGatewayFailureIssuesNoSQL(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(gormmysql.New(gormmysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	svc := NewInvestmentService(db, &fakeGateway{err: errGatewayDown}, GatewayConfig{IPNSecret: testSecret})
	_, err = svc.RequestInvoice(context.Background(), 1, decimal.NewFromInt(12), "")
	require.ErrorIs(t, err, ErrGateway)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleCallbackActivatesAndCreditsOnce(t *testing.T) {
	svc, _, db := newInvestmentService(t)
	user := createUser(t, db, "a@example.com")
	ctx := context.Background()

	inv, err := svc.RequestInvoice(ctx, user.ID, decimal.NewFromInt(8), PaymentMethodCrypto)
	require.NoError(t, err)

	res, err := svc.HandleCallback(ctx, testSecret, inv.InvoiceID, PaymentStatusFinished)
	require.NoError(t, err)
	assert.Equal(t, CallbackCredited, res)
	assert.Equal(t, "0.4", balanceOf(t, db, user.ID).String())

	res, err = svc.HandleCallback(ctx, testSecret, inv.InvoiceID, PaymentStatusFinished)
	require.NoError(t, err)
	assert.Equal(t, CallbackDuplicate, res)
	assert.Equal(t, "0.4", balanceOf(t, db, user.ID).String())

	var stored models.Investment
	require.NoError(t, db.First(&stored, inv.ID).Error)
	assert.Equal(t, models.InvestmentActive, stored.Status)

	var ledger []models.Transaction
	require.NoError(t, db.Where("user_id = ?", user.ID).Find(&ledger).Error)
	require.Len(t, ledger, 1)
	assert.Equal(t, models.TransactionTypeReturn, ledger[0].TransactionType)
	assert.Equal(t, models.FlowDebit, ledger[0].TransactionFlow)

	var audit []models.Payment
	require.NoError(t, db.Where("invoice_id = ?", inv.InvoiceID).Order("id").Find(&audit).Error)
	require.Len(t, audit, 2)
	assert.Equal(t, string(CallbackCredited), audit[0].Result)
	assert.Equal(t, string(CallbackDuplicate), audit[1].Result)
}

func TestHandleCallbackConcurrentDuplicatesCreditOnce(t *testing.T) {
	db := newFileDB(t)
	svc := NewInvestmentService(db, &fakeGateway{}, GatewayConfig{IPNSecret: testSecret})
	user := createUser(t, db, "a@example.com")
	ctx := context.Background()

	inv, err := svc.RequestInvoice(ctx, user.ID, decimal.NewFromInt(40), PaymentMethodCrypto)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make(chan CallbackResult, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.HandleCallback(ctx, testSecret, inv.InvoiceID, PaymentStatusFinished)
			if assert.NoError(t, err) {
				results <- res
			}
		}()
	}
	wg.Wait()
	close(results)

	credited := 0
	for r := range results {
		if r == CallbackCredited {
			credited++
		}
	}
	assert.Equal(t, 1, credited)
	assert.Equal(t, "1.5", balanceOf(t, db, user.ID).String())
}

func TestHandleCallbackBadSignatureChangesNothing(t *testing.T) {
	svc, _, db := newInvestmentService(t)
	user := createUser(t, db, "a@example.com")
	ctx := context.Background()

	inv, err := svc.RequestInvoice(ctx, user.ID, decimal.NewFromInt(8), PaymentMethodCrypto)
	require.NoError(t, err)

	for _, sig := range []string{"", "wrong", testSecret + "x"} {
		_, err = svc.HandleCallback(ctx, sig, inv.InvoiceID, PaymentStatusFinished)
		assert.ErrorIs(t, err, ErrForbidden)
	}

	var stored models.Investment
	require.NoError(t, db.First(&stored, inv.ID).Error)
	assert.Equal(t, models.InvestmentPending, stored.Status)
	assert.True(t, balanceOf(t, db, user.ID).IsZero())
}

func TestHandleCallbackEmptySecretRejectsEverything(t *testing.T) {
	db := newTestDB(t)
	svc := NewInvestmentService(db, &fakeGateway{}, GatewayConfig{})

	_, err := svc.HandleCallback(context.Background(), "", "1001", PaymentStatusFinished)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestHandleCallbackNonFinishedIsNoop(t *testing.T) {
	svc, _, db := newInvestmentService(t)
	user := createUser(t, db, "a@example.com")
	ctx := context.Background()

	inv, err := svc.RequestInvoice(ctx, user.ID, decimal.NewFromInt(5), "")
	require.NoError(t, err)

	for _, status := range []string{"waiting", "confirming", "partially_paid", "failed", "Finished"} {
		res, err := svc.HandleCallback(ctx, testSecret, inv.InvoiceID, status)
		require.NoError(t, err)
		assert.Equal(t, CallbackIgnored, res)
	}

	var stored models.Investment
	require.NoError(t, db.First(&stored, inv.ID).Error)
	assert.Equal(t, models.InvestmentPending, stored.Status)
	assert.True(t, balanceOf(t, db, user.ID).IsZero())
}

func TestHandleCallbackUnknownInvoice(t *testing.T) {
	svc, _, _ := newInvestmentService(t)

	_, err := svc.HandleCallback(context.Background(), testSecret, "does-not-exist", PaymentStatusFinished)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListInvestmentsScopedToUser(t *testing.T) {
	svc, _, db := newInvestmentService(t)
	a := createUser(t, db, "a@example.com")
	b := createUser(t, db, "b@example.com")
	ctx := context.Background()

	_, err := svc.RequestInvoice(ctx, a.ID, decimal.NewFromInt(5), "")
	require.NoError(t, err)
	_, err = svc.RequestInvoice(ctx, a.ID, decimal.NewFromInt(8), "")
	require.NoError(t, err)
	_, err = svc.RequestInvoice(ctx, b.ID, decimal.NewFromInt(12), "")
	require.NoError(t, err)

	list, err := svc.ListInvestments(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "8", list[0].Amount.String())
	assert.Equal(t, "5", list[1].Amount.String())
}
