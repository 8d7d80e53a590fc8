package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dirham-pay/dirham_pay/internal/wallet"
)

// RegisterWalletRoutes wires registration, balance and history endpoints.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler, otpLimiter fiber.Handler) {
	if otpLimiter != nil {
		r.Post("/wallets/precreate", otpLimiter, h.PreCreateWallet)
		r.Post("/merchants/precreate", otpLimiter, h.PreCreateMerchant)
	} else {
		r.Post("/wallets/precreate", h.PreCreateWallet)
		r.Post("/merchants/precreate", h.PreCreateMerchant)
	}
	r.Post("/wallets/activate", h.Activate)
	r.Post("/merchants/activate", h.Activate)
	r.Get("/wallets/:key/balance", h.Balance)
	r.Get("/wallets/:key/transactions", h.History)
}
