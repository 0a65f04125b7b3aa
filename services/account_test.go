package services

import (
	"context"
	"testing"
	"time"

	"github.com/Tebogokaulela455/psa/models"
	"github.com/Tebogokaulela455/psa/utils"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newAccountService(t *testing.T) (*AccountService, *utils.TokenManager, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	tokens := utils.NewTokenManager("test-secret", 7*24*time.Hour, utils.NewDBRevocationStore(db))
	svc := NewAccountService(db, tokens).WithPasswordCost(bcrypt.MinCost)
	return svc, tokens, db
}

func TestRegisterNormalizesEmailAndHashes(t *testing.T) {
	svc, _, db := newAccountService(t)

	user, err := svc.Register(context.Background(), "  Alice@Example.COM ", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)

	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.NotEqual(t, "hunter22", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("hunter22")))
	assert.True(t, stored.Balance.IsZero())
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newAccountService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "bob@example.com", "pw")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "BOB@example.com", "other")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestPasswordCost(t *testing.T) {
	svc := NewAccountService(nil, nil)
	assert.Equal(t, 12, svc.passwordCost)
	assert.Equal(t, 12, svc.WithPasswordCost(99).passwordCost)
	assert.Equal(t, bcrypt.MinCost, svc.WithPasswordCost(bcrypt.MinCost).passwordCost)
}

func TestLogin(t *testing.T) {
	svc, tokens, _ := newAccountService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "carol@example.com", "s3cret")
	require.NoError(t, err)

	token, err := svc.Login(ctx, "Carol@example.com", "s3cret")
	require.NoError(t, err)
	claims, err := tokens.Validate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), claims.ExpiresAt.Time, time.Minute)

	_, err = svc.Login(ctx, "carol@example.com", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.Login(ctx, "nobody@example.com", "s3cret")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, tokens, _ := newAccountService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "dan@example.com", "pw")
	require.NoError(t, err)
	token, err := svc.Login(ctx, "dan@example.com", "pw")
	require.NoError(t, err)
	claims, err := tokens.Validate(ctx, token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims))
	_, err = tokens.Validate(ctx, token)
	assert.ErrorIs(t, err, utils.ErrTokenRevoked)
}

func TestProfile(t *testing.T) {
	svc, _, db := newAccountService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "erin@example.com", "pw")
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.Investment{
		UserID: user.ID, InvoiceID: "77", OrderID: "inv_x", Status: models.InvestmentPending,
	}).Error)

	p, err := svc.Profile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "erin@example.com", p.User.Email)
	assert.Len(t, p.Investments, 1)

	_, err = svc.Profile(ctx, 12345)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestForgotPasswordLogsLookup(t *testing.T) {
	svc, _, _ := newAccountService(t)
	_, err := svc.Register(context.Background(), "a@example.com", "hunter22")
	require.NoError(t, err)

	hook := logtest.NewLocal(utils.Log)
	defer hook.Reset()

	svc.ForgotPassword(context.Background(), " A@Example.com")
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
	assert.Equal(t, true, hook.LastEntry().Data["known"])
}

func TestForgotPasswordLookupFailureIsLogged(t *testing.T) {
	svc, _, db := newAccountService(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	hook := logtest.NewLocal(utils.Log)
	defer hook.Reset()

	svc.ForgotPassword(context.Background(), "a@example.com")
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.NotContains(t, hook.LastEntry().Data, "known")
}
