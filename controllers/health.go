package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/Tebogokaulela455/psa/utils"

	"gorm.io/gorm"
)

type HealthController struct {
	DB *gorm.DB
}

func NewHealthController(db *gorm.DB) *HealthController {
	return &HealthController{DB: db}
}

// GET /api/health
func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	dbStatus := "ok"
	sqlDB, err := c.DB.DB()
	if err == nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		utils.Log.WithError(err).Warn("[health] database ping failed")
		utils.WriteJSON(w, http.StatusServiceUnavailable, utils.APIResponse{
			Success: false,
			Message: "Database unavailable",
			Data:    map[string]interface{}{"database": "down"},
		})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "OK",
		Data:    map[string]interface{}{"database": dbStatus},
	})
}
