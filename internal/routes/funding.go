package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dirham-pay/dirham_pay/internal/funding"
)

// RegisterFundingRoutes wires cash-in and cash-out endpoints.
func RegisterFundingRoutes(r fiber.Router, h *funding.Handler, otpLimiter fiber.Handler) {
	r.Post("/cashin/simulate", h.SimulateCashIn)
	r.Post("/cashin/confirm", h.ConfirmCashIn)
	r.Post("/cashout/simulate", h.SimulateCashOut)
	if otpLimiter != nil {
		r.Post("/cashout/otp", otpLimiter, h.IssueCashOutOTP)
	} else {
		r.Post("/cashout/otp", h.IssueCashOutOTP)
	}
	r.Post("/cashout/confirm", h.ConfirmCashOut)
}
