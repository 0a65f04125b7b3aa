package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Tebogokaulela455/psa/config"
	"github.com/Tebogokaulela455/psa/database"
	"github.com/Tebogokaulela455/psa/models"
	"github.com/Tebogokaulela455/psa/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))
	return db
}

// newFileDB opens a file-backed SQLite database with several connections so
// concurrent tests really run in parallel and contend on the write lock.
func newFileDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "psa.db") +
		"?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)&_txlock=immediate"
	db, err := database.Connect(config.Database{
		Driver:         "sqlite",
		URL:            dsn,
		ConnectRetries: 1,
		MaxOpenConns:   8,
		MaxIdleConns:   8,
	}, false)
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func createUser(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()
	u := models.User{Email: email, Password: "x"}
	require.NoError(t, db.Create(&u).Error)
	return u
}

// fakeGateway hands out sequential invoice ids and records every request.
type fakeGateway struct {
	mu       sync.Mutex
	err      error
	requests []utils.InvoiceRequest
	// onCreate runs before a successful invoice is returned.
	onCreate func()
}

func (g *fakeGateway) CreateInvoice(_ context.Context, in utils.InvoiceRequest) (*utils.Invoice, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, in)
	if g.err != nil {
		return nil, g.err
	}
	if g.onCreate != nil {
		g.onCreate()
	}
	id := fmt.Sprintf("%d", 1000+len(g.requests))
	return &utils.Invoice{
		ID:         id,
		InvoiceURL: "https://nowpayments.io/payment/?iid=" + id,
		OrderID:    in.OrderID,
	}, nil
}

var errGatewayDown = errors.New("connection refused")
