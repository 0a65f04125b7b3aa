package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Tebogokaulela455/psa/metrics"
	"github.com/Tebogokaulela455/psa/models"
	"github.com/Tebogokaulela455/psa/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MinimumWithdrawal is the smallest balance, in USD, that can be withdrawn.
var MinimumWithdrawal = decimal.NewFromInt(1)

type WithdrawalService struct {
	db *gorm.DB
}

func NewWithdrawalService(db *gorm.DB) *WithdrawalService {
	return &WithdrawalService{db: db}
}

// Withdraw sweeps the whole balance to zero and returns the amount swept.
// No payout is sent anywhere; the ledger row is the only record.
func (s *WithdrawalService) Withdraw(ctx context.Context, userID uint) (decimal.Decimal, error) {
	var swept decimal.Decimal
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "balance").
			First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if user.Balance.LessThan(MinimumWithdrawal) {
			return ErrInsufficientFunds
		}

		res := tx.Model(&models.User{}).
			Where("id = ? AND balance >= ?", user.ID, MinimumWithdrawal).
			Update("balance", decimal.Zero)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return ErrInsufficientFunds
		}

		swept = user.Balance.Round(2)
		msg := fmt.Sprintf("Withdrawal of $%s", swept.StringFixed(2))
		if err := tx.Create(&models.Transaction{
			UserID:          user.ID,
			Amount:          swept,
			OrderID:         "WD-" + uuid.NewString(),
			TransactionFlow: models.FlowCredit,
			TransactionType: models.TransactionTypeWithdrawal,
			Message:         &msg,
			Status:          models.TransactionSuccess,
		}).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			metrics.RecordWithdrawal("insufficient")
		} else {
			metrics.RecordWithdrawal("error")
		}
		return decimal.Zero, err
	}

	metrics.RecordWithdrawal("success")
	utils.Log.WithFields(logrus.Fields{"user_id": userID, "amount": swept.String()}).Info("[withdraw] balance swept")
	return swept, nil
}
