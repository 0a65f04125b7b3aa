package auth

import (
	"net/http"

	"github.com/Tebogokaulela455/psa/controllers"
	"github.com/Tebogokaulela455/psa/middleware"
	"github.com/Tebogokaulela455/psa/utils"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

// POST /api/auth/login
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	token, err := c.Accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		controllers.WriteServiceError(w, r, err)
		return
	}
	utils.WriteRawJSON(w, http.StatusOK, LoginResponse{Token: token})
}
