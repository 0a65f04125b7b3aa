package users

import (
	"net/http"

	"github.com/Tebogokaulela455/psa/controllers"
	"github.com/Tebogokaulela455/psa/services"
	"github.com/Tebogokaulela455/psa/utils"
)

type ProfileController struct {
	Accounts *services.AccountService
}

func NewProfileController(accounts *services.AccountService) *ProfileController {
	return &ProfileController{Accounts: accounts}
}

// GET /api/users/me
func (c *ProfileController) Me(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	p, err := c.Accounts.Profile(r.Context(), uid)
	if err != nil {
		controllers.WriteServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: p})
}
