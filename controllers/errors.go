package controllers

import (
	"errors"
	"net/http"

	"github.com/Tebogokaulela455/psa/services"
	"github.com/Tebogokaulela455/psa/utils"
)

// WriteServiceError maps a service error to its HTTP status and writes the
// JSON envelope. Unknown errors are logged and answered with a generic 500.
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := http.StatusInternalServerError, "Internal server error"
	switch {
	case errors.Is(err, services.ErrInvalidPlan):
		status, msg = http.StatusBadRequest, "Invalid plan"
	case errors.Is(err, services.ErrInsufficientFunds):
		status, msg = http.StatusBadRequest, "Minimum withdrawal is $1"
	case errors.Is(err, services.ErrConflict):
		status, msg = http.StatusBadRequest, "Email taken"
	case errors.Is(err, services.ErrUnauthorized):
		status, msg = http.StatusUnauthorized, "Invalid"
	case errors.Is(err, services.ErrForbidden):
		status, msg = http.StatusForbidden, "Forbidden"
	case errors.Is(err, services.ErrNotFound):
		status, msg = http.StatusNotFound, "Not found"
	case errors.Is(err, services.ErrGateway):
		status, msg = http.StatusBadGateway, "Payment gateway unavailable"
	default:
		utils.Log.WithError(err).WithField("path", r.URL.Path).Error("unhandled error")
	}
	utils.WriteJSON(w, status, utils.APIResponse{Success: false, Message: msg})
}
