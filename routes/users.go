package routes

import (
	"net/http"

	"github.com/Tebogokaulela455/psa/controllers"
	"github.com/Tebogokaulela455/psa/controllers/auth"
	"github.com/Tebogokaulela455/psa/controllers/users"
	"github.com/Tebogokaulela455/psa/middleware"

	"github.com/gorilla/mux"
)

// UsersRoutes registers the auth, investment, withdrawal and profile routes on api.
func UsersRoutes(api *mux.Router, d Dependencies) {
	authn := middleware.AuthMiddleware(d.Tokens)
	limited := d.AuthLimiter.Middleware

	authCtl := auth.NewAuthController(d.Accounts)
	planCtl := controllers.NewPlanController(d.Investments)
	investCtl := users.NewInvestmentController(d.Investments)
	withdrawCtl := users.NewWithdrawalController(d.Withdrawals)
	profileCtl := users.NewProfileController(d.Accounts)

	// Register, login, forgot password, logout
	api.Handle("/auth/register", limited(http.HandlerFunc(authCtl.Register))).Methods(http.MethodPost)
	api.Handle("/auth/login", limited(http.HandlerFunc(authCtl.Login))).Methods(http.MethodPost)
	api.Handle("/auth/forgot", limited(http.HandlerFunc(authCtl.ForgotPassword))).Methods(http.MethodPost)
	api.Handle("/auth/logout", authn(http.HandlerFunc(authCtl.Logout))).Methods(http.MethodPost)

	// Public plan catalog
	api.Handle("/invest/plans", http.HandlerFunc(planCtl.ListPlans)).Methods(http.MethodGet)
	api.Handle("/invest/plan-info/{amount}", http.HandlerFunc(planCtl.PlanInfo)).Methods(http.MethodGet)

	// Investments
	api.Handle("/invest/confirm", authn(http.HandlerFunc(investCtl.Confirm))).Methods(http.MethodPost)
	api.Handle("/invest/investments", authn(http.HandlerFunc(investCtl.List))).Methods(http.MethodGet)

	// NOWPayments IPN callback, authenticated by the shared signature header
	api.Handle("/invest/ipn", d.WebhookLimiter.Middleware(http.HandlerFunc(investCtl.IPN))).Methods(http.MethodPost)

	api.Handle("/withdraw", authn(http.HandlerFunc(withdrawCtl.Withdraw))).Methods(http.MethodPost)
	api.Handle("/users/me", authn(http.HandlerFunc(profileCtl.Me))).Methods(http.MethodGet)
}
