package controllers

import (
	"net/http"

	"github.com/Tebogokaulela455/psa/models"
	"github.com/Tebogokaulela455/psa/services"
	"github.com/Tebogokaulela455/psa/utils"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

type PlanController struct {
	Investments *services.InvestmentService
}

func NewPlanController(investments *services.InvestmentService) *PlanController {
	return &PlanController{Investments: investments}
}

// GET /api/invest/plans
func (c *PlanController) ListPlans(w http.ResponseWriter, r *http.Request) {
	utils.WriteRawJSON(w, http.StatusOK, models.Plans())
}

// GET /api/invest/plan-info/{amount}
func (c *PlanController) PlanInfo(w http.ResponseWriter, r *http.Request) {
	amount, err := decimal.NewFromString(mux.Vars(r)["amount"])
	if err != nil {
		WriteServiceError(w, r, services.ErrInvalidPlan)
		return
	}
	plan, err := c.Investments.GetPlanInfo(amount)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	utils.WriteRawJSON(w, http.StatusOK, plan)
}
