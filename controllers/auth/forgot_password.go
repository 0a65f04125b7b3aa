package auth

import (
	"encoding/json"
	"net/http"

	"github.com/Tebogokaulela455/psa/utils"
)

const forgotPasswordMessage = "If that email is registered, you will receive reset instructions."

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// POST /api/auth/forgot
// The answer never reveals whether the address exists.
func (c *AuthController) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.Email != "" {
		c.Accounts.ForgotPassword(r.Context(), req.Email)
	}
	utils.WriteText(w, http.StatusOK, forgotPasswordMessage)
}
