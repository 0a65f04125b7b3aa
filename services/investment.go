package services

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Tebogokaulela455/psa/metrics"
	"github.com/Tebogokaulela455/psa/models"
	"github.com/Tebogokaulela455/psa/utils"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	// PaymentStatusFinished is the only gateway status that activates an investment.
	PaymentStatusFinished = "finished"
	// PaymentMethodCrypto asks the gateway for a BTC invoice; anything else pays in USD.
	PaymentMethodCrypto = "Crypto"

	priceCurrency = "usd"

	persistTimeout = 10 * time.Second
)

// Gateway creates hosted payment invoices.
type Gateway interface {
	CreateInvoice(ctx context.Context, in utils.InvoiceRequest) (*utils.Invoice, error)
}

// GatewayConfig is the part of the gateway settings the service needs.
type GatewayConfig struct {
	IPNSecret   string
	CallbackURL string
}

// CallbackResult tells the caller what a payment callback did.
type CallbackResult string

const (
	CallbackCredited  CallbackResult = "credited"
	CallbackDuplicate CallbackResult = "duplicate"
	CallbackIgnored   CallbackResult = "ignored"
)

type InvestmentService struct {
	db      *gorm.DB
	gateway Gateway
	cfg     GatewayConfig
	now     func() time.Time
}

func NewInvestmentService(db *gorm.DB, gateway Gateway, cfg GatewayConfig) *InvestmentService {
	return &InvestmentService{db: db, gateway: gateway, cfg: cfg, now: time.Now}
}

// GetPlanInfo returns the catalog entry for amount.
func (s *InvestmentService) GetPlanInfo(amount decimal.Decimal) (models.Plan, error) {
	plan, ok := models.LookupPlan(amount)
	if !ok {
		return models.Plan{}, ErrInvalidPlan
	}
	return plan, nil
}

// RequestInvoice asks the gateway for an invoice and records a pending
// investment. Nothing is written when the gateway call fails.
func (s *InvestmentService) RequestInvoice(ctx context.Context, userID uint, amount decimal.Decimal, paymentMethod string) (*models.Investment, error) {
	plan, ok := models.LookupPlan(amount)
	if !ok {
		return nil, ErrInvalidPlan
	}

	payCurrency := "usd"
	if paymentMethod == PaymentMethodCrypto {
		payCurrency = "btc"
	}
	orderID := utils.GenerateOrderID()

	start := time.Now()
	invoice, err := s.gateway.CreateInvoice(ctx, utils.InvoiceRequest{
		PriceAmount:    json.Number(plan.Amount.String()),
		PriceCurrency:  priceCurrency,
		PayCurrency:    payCurrency,
		OrderID:        orderID,
		IPNCallbackURL: s.cfg.CallbackURL,
	})
	metrics.RecordGatewayRequest(time.Since(start), err == nil)
	if err != nil {
		utils.Log.WithError(err).WithFields(logrus.Fields{
			"user_id":  userID,
			"order_id": orderID,
		}).Error("[nowpayments] create invoice failed")
		return nil, fmt.Errorf("%w: %w", ErrGateway, err)
	}

	now := s.now()
	inv := models.Investment{
		UserID:        userID,
		Amount:        plan.Amount,
		Daily:         plan.Daily,
		Total:         plan.Total,
		Status:        models.InvestmentPending,
		InvoiceID:     invoice.ID,
		OrderID:       orderID,
		PaymentMethod: paymentMethod,
		InvoiceURL:    invoice.InvoiceURL,
		ExpiresAt:     now.AddDate(0, 0, models.PlanTermDays),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	// The invoice exists at the gateway now; a client disconnect must not lose it.
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	if err := s.db.WithContext(persistCtx).Create(&inv).Error; err != nil {
		return nil, fmt.Errorf("save investment for invoice %s: %w", invoice.ID, err)
	}

	metrics.RecordInvoiceCreated(payCurrency)
	utils.Log.WithFields(logrus.Fields{
		"user_id":    userID,
		"investment": inv.ID,
		"invoice_id": inv.InvoiceID,
		"amount":     plan.Amount.String(),
	}).Info("[invest] invoice created")
	return &inv, nil
}

// VerifySignature checks the callback header against the IPN secret. Callers
// run it before looking at the request body.
func (s *InvestmentService) VerifySignature(signature string) error {
	if !s.validSignature(signature) {
		metrics.RecordCallback("forbidden")
		return ErrForbidden
	}
	return nil
}

// HandleCallback verifies a gateway notification and activates the matching
// investment. The owner is credited one daily yield only on the pending to
// active transition, so repeated or concurrent callbacks credit once.
func (s *InvestmentService) HandleCallback(ctx context.Context, signature, invoiceID, paymentStatus string) (CallbackResult, error) {
	if err := s.VerifySignature(signature); err != nil {
		return "", err
	}

	var inv models.Investment
	if err := s.db.WithContext(ctx).Where("invoice_id = ?", invoiceID).First(&inv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.RecordCallback("not_found")
			return "", ErrNotFound
		}
		metrics.RecordCallback("error")
		return "", err
	}

	if paymentStatus != PaymentStatusFinished {
		s.recordPayment(ctx, inv, paymentStatus, CallbackIgnored)
		metrics.RecordCallback(string(CallbackIgnored))
		return CallbackIgnored, nil
	}

	result := CallbackDuplicate
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Investment{}).
			Where("id = ? AND status = ?", inv.ID, models.InvestmentPending).
			Update("status", models.InvestmentActive)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return nil
		}

		credit := tx.Model(&models.User{}).
			Where("id = ?", inv.UserID).
			Update("balance", gorm.Expr("balance + ?", inv.Daily))
		if credit.Error != nil {
			return credit.Error
		}
		if credit.RowsAffected != 1 {
			return fmt.Errorf("credit user %d: %w", inv.UserID, ErrNotFound)
		}

		msg := fmt.Sprintf("Daily return for investment #%d", inv.ID)
		if err := tx.Create(&models.Transaction{
			UserID:          inv.UserID,
			Amount:          inv.Daily,
			OrderID:         "RET-" + inv.OrderID,
			TransactionFlow: models.FlowDebit,
			TransactionType: models.TransactionTypeReturn,
			Message:         &msg,
			Status:          models.TransactionSuccess,
		}).Error; err != nil {
			return err
		}
		result = CallbackCredited
		return nil
	})
	if err != nil {
		metrics.RecordCallback("error")
		return "", err
	}

	s.recordPayment(ctx, inv, paymentStatus, result)
	metrics.RecordCallback(string(result))
	utils.Log.WithFields(logrus.Fields{
		"investment": inv.ID,
		"invoice_id": invoiceID,
		"result":     result,
	}).Info("[ipn] callback processed")
	return result, nil
}

// ListInvestments returns the user's investments, newest first.
func (s *InvestmentService) ListInvestments(ctx context.Context, userID uint) ([]models.Investment, error) {
	var out []models.Investment
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id DESC").Find(&out).Error
	return out, err
}

// recordPayment appends to the callback audit trail. A failed insert is logged
// and does not fail the callback, which has already been applied.
func (s *InvestmentService) recordPayment(ctx context.Context, inv models.Investment, paymentStatus string, result CallbackResult) {
	p := models.Payment{
		InvestmentID:  inv.ID,
		InvoiceID:     inv.InvoiceID,
		PaymentStatus: paymentStatus,
		Result:        string(result),
	}
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		utils.Log.WithError(err).WithField("invoice_id", inv.InvoiceID).Warn("[ipn] audit insert failed")
	}
}

func (s *InvestmentService) validSignature(signature string) bool {
	// an unset secret must never accept a callback
	if s.cfg.IPNSecret == "" || signature == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(signature), []byte(s.cfg.IPNSecret)) == 1
}
