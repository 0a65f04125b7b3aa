package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Tebogokaulela455/psa/models"
	"github.com/Tebogokaulela455/psa/utils"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const defaultPasswordCost = 12

// Profile is what the authenticated user sees about their own account.
type Profile struct {
	User        models.User         `json:"user"`
	Investments []models.Investment `json:"investments"`
}

type AccountService struct {
	db           *gorm.DB
	tokens       *utils.TokenManager
	passwordCost int
}

func NewAccountService(db *gorm.DB, tokens *utils.TokenManager) *AccountService {
	return &AccountService{db: db, tokens: tokens, passwordCost: defaultPasswordCost}
}

// WithPasswordCost overrides the bcrypt cost; values outside bcrypt's range are ignored.
func (s *AccountService) WithPasswordCost(cost int) *AccountService {
	if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
		s.passwordCost = cost
	}
	return s
}

// NormalizeEmail trims and lower-cases an address before any lookup or insert.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account with a zero balance.
func (s *AccountService) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password are required")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrConflict
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.passwordCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := models.User{Email: email, Password: string(hash)}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrConflict
		}
		return nil, err
	}
	utils.Log.WithField("user_id", user.ID).Info("[auth] user registered")
	return &user, nil
}

// Login checks the credentials and returns a signed access token.
func (s *AccountService) Login(ctx context.Context, email, password string) (string, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUnauthorized
		}
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", ErrUnauthorized
	}

	token, _, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Logout revokes the token described by claims.
func (s *AccountService) Logout(ctx context.Context, claims *utils.Claims) error {
	return s.tokens.Revoke(ctx, claims)
}

// ForgotPassword only records the request. Reset delivery is not implemented
// and the caller always answers with the same generic message.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", NormalizeEmail(email)).Count(&count).Error; err != nil {
		utils.Log.WithError(err).Error("[auth] password reset lookup failed")
		return
	}
	utils.Log.WithField("known", count > 0).Info("[auth] password reset requested")
}

func (s *AccountService) Profile(ctx context.Context, userID uint) (*Profile, error) {
	var p Profile
	if err := s.db.WithContext(ctx).First(&p.User, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id DESC").Find(&p.Investments).Error; err != nil {
		return nil, err
	}
	return &p, nil
}
