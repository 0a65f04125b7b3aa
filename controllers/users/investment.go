package users

import (
	"io"
	"net/http"

	"github.com/Tebogokaulela455/psa/controllers"
	"github.com/Tebogokaulela455/psa/middleware"
	"github.com/Tebogokaulela455/psa/services"
	"github.com/Tebogokaulela455/psa/utils"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// SignatureHeader carries the shared IPN secret on gateway callbacks.
const SignatureHeader = "x-nowpayments-signature"

type InvestmentController struct {
	Investments *services.InvestmentService
}

func NewInvestmentController(investments *services.InvestmentService) *InvestmentController {
	return &InvestmentController{Investments: investments}
}

type ConfirmInvestmentRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod"`
}

type ConfirmInvestmentResponse struct {
	InvoiceURL string `json:"invoiceUrl"`
}

// POST /api/invest/confirm
func (c *InvestmentController) Confirm(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	var req ConfirmInvestmentRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	inv, err := c.Investments.RequestInvoice(r.Context(), uid, req.Amount, req.PaymentMethod)
	if err != nil {
		controllers.WriteServiceError(w, r, err)
		return
	}
	utils.WriteRawJSON(w, http.StatusOK, ConfirmInvestmentResponse{InvoiceURL: inv.InvoiceURL})
}

// POST /api/invest/ipn
// The gateway posts a large payload; only invoice_id and payment_status matter.
func (c *InvestmentController) IPN(w http.ResponseWriter, r *http.Request) {
	signature := r.Header.Get(SignatureHeader)
	if err := c.Investments.VerifySignature(signature); err != nil {
		controllers.WriteServiceError(w, r, err)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil || !gjson.ValidBytes(body) {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid JSON body"})
		return
	}
	payload := gjson.ParseBytes(body)

	_, err = c.Investments.HandleCallback(
		r.Context(),
		signature,
		payload.Get("invoice_id").String(),
		payload.Get("payment_status").String(),
	)
	if err != nil {
		controllers.WriteServiceError(w, r, err)
		return
	}
	utils.WriteRawJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// GET /api/invest/investments
func (c *InvestmentController) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	list, err := c.Investments.ListInvestments(r.Context(), uid)
	if err != nil {
		controllers.WriteServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: list})
}
