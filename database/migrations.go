package database

import (
	"fmt"

	"github.com/Tebogokaulela455/psa/models"

	"gorm.io/gorm"
)

// RunMigrations auto-migrates every model. Callers should review schema changes
// before running this against production.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
