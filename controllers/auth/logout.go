package auth

import (
	"net/http"

	"github.com/Tebogokaulela455/psa/utils"
)

// POST /api/auth/logout
// Revokes the access token the request was authenticated with.
func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := utils.GetClaims(r)
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	if err := c.Accounts.Logout(r.Context(), claims); err != nil {
		utils.Log.WithError(err).Error("[auth] logout failed")
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Logout failed"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Logged out"})
}
