package routes

import (
	"net/http"
	"time"

	"github.com/Tebogokaulela455/psa/controllers"
	"github.com/Tebogokaulela455/psa/metrics"
	"github.com/Tebogokaulela455/psa/middleware"
	"github.com/Tebogokaulela455/psa/services"
	"github.com/Tebogokaulela455/psa/utils"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// Dependencies is everything the router needs, built once by the serve command.
type Dependencies struct {
	DB          *gorm.DB
	Tokens      *utils.TokenManager
	Accounts    *services.AccountService
	Investments *services.InvestmentService
	Withdrawals *services.WithdrawalService

	AllowedOrigins []string
	TrustedProxies []string

	// Optional; defaults are created when nil.
	AuthLimiter    *middleware.IPRateLimiter
	WebhookLimiter *middleware.IPRateLimiter
}

func optionsHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusMethodNotAllowed)
}

func InitRouter(d Dependencies) *mux.Router {
	r := mux.NewRouter()
	r.Use(metrics.InstrumentHandler)
	r.NotFoundHandler = metrics.InstrumentHandler(http.NotFoundHandler())
	r.MethodNotAllowedHandler = metrics.InstrumentHandler(http.HandlerFunc(methodNotAllowed))

	health := controllers.NewHealthController(d.DB)

	// Health check endpoint for container probes (root level)
	r.Handle("/health", http.HandlerFunc(health.Health)).Methods(http.MethodGet)

	cors := []handlers.CORSOption{
		handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Requested-With", "X-Request-ID"}),
	}
	if len(d.AllowedOrigins) > 0 {
		cors = append(cors, handlers.AllowedOrigins(d.AllowedOrigins), handlers.AllowCredentials())
	}
	r.Use(handlers.CORS(cors...))

	api := r.PathPrefix("/api").Subrouter()

	// Catch-all OPTIONS handler for CORS preflight
	api.PathPrefix("/").HandlerFunc(optionsHandler).Methods(http.MethodOptions)

	api.Handle("/health", http.HandlerFunc(health.Health)).Methods(http.MethodGet)
	api.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	if d.AuthLimiter == nil {
		// 60 per IP per 5 minutes on register/login/forgot
		d.AuthLimiter = middleware.NewIPRateLimiter(60, 5*time.Minute, d.TrustedProxies)
	}
	if d.WebhookLimiter == nil {
		d.WebhookLimiter = middleware.NewIPRateLimiter(500, time.Hour, d.TrustedProxies)
	}

	UsersRoutes(api, d)

	return r
}
