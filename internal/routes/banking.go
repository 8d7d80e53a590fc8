package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dirham-pay/dirham_pay/internal/banking"
)

// RegisterBankingRoutes wires ATM withdrawal and bank-transfer endpoints.
func RegisterBankingRoutes(r fiber.Router, h *banking.Handler, otpLimiter fiber.Handler) {
	r.Post("/atm/simulate", h.SimulateWithdrawal)
	r.Post("/atm/confirm", h.ConfirmWithdrawal)
	r.Post("/bank-transfers/simulate", h.SimulateBankTransfer)
	r.Post("/bank-transfers/confirm", h.ConfirmBankTransfer)
	if otpLimiter != nil {
		r.Post("/atm/otp", otpLimiter, h.IssueWithdrawalOTP)
		r.Post("/bank-transfers/otp", otpLimiter, h.IssueBankTransferOTP)
	} else {
		r.Post("/atm/otp", h.IssueWithdrawalOTP)
		r.Post("/bank-transfers/otp", h.IssueBankTransferOTP)
	}
}
