package users

import (
	"net/http"

	"github.com/Tebogokaulela455/psa/controllers"
	"github.com/Tebogokaulela455/psa/services"
	"github.com/Tebogokaulela455/psa/utils"
)

type WithdrawalController struct {
	Withdrawals *services.WithdrawalService
}

func NewWithdrawalController(withdrawals *services.WithdrawalService) *WithdrawalController {
	return &WithdrawalController{Withdrawals: withdrawals}
}

// POST /api/withdraw
// Sweeps the whole balance; there is no amount in the request.
func (c *WithdrawalController) Withdraw(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	if _, err := c.Withdrawals.Withdraw(r.Context(), uid); err != nil {
		controllers.WriteServiceError(w, r, err)
		return
	}
	utils.WriteText(w, http.StatusOK, "Withdrawal successful")
}
