package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dirham-pay/dirham_pay/internal/payments"
)

// RegisterPaymentRoutes wires wallet-transfer and merchant-payment endpoints.
func RegisterPaymentRoutes(r fiber.Router, h *payments.Handler, otpLimiter fiber.Handler) {
	r.Post("/transfers/simulate", h.SimulateTransfer)
	r.Post("/transfers/confirm", h.ConfirmTransfer)
	r.Post("/merchant-payments/simulate", h.SimulatePayment)
	r.Post("/merchant-payments/confirm", h.ConfirmPayment)
	if otpLimiter != nil {
		r.Post("/transfers/otp", otpLimiter, h.IssueTransferOTP)
		r.Post("/merchant-payments/otp", otpLimiter, h.IssuePaymentOTP)
	} else {
		r.Post("/transfers/otp", h.IssueTransferOTP)
		r.Post("/merchant-payments/otp", h.IssuePaymentOTP)
	}
}
