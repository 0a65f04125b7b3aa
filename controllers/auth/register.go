package auth

import (
	"net/http"

	"github.com/Tebogokaulela455/psa/controllers"
	"github.com/Tebogokaulela455/psa/middleware"
	"github.com/Tebogokaulela455/psa/services"
	"github.com/Tebogokaulela455/psa/utils"
)

type AuthController struct {
	Accounts *services.AccountService
}

func NewAuthController(accounts *services.AccountService) *AuthController {
	return &AuthController{Accounts: accounts}
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// POST /api/auth/register
func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	if _, err := c.Accounts.Register(r.Context(), req.Email, req.Password); err != nil {
		controllers.WriteServiceError(w, r, err)
		return
	}
	utils.WriteText(w, http.StatusCreated, "Registered")
}
