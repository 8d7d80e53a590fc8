package funding

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes cash-in and cash-out endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a funding handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type cashInSimulateRequest struct {
	ContractID string `json:"contract_id"`
	Amount     int64  `json:"amount"`
	Fee        int64  `json:"fee"`
}

type confirmRequest struct {
	Token  string `json:"token"`
	OTP    string `json:"otp"`
	Amount int64  `json:"amount"`
}

type cashOutSimulateRequest struct {
	PhoneNumber string `json:"phone_number"`
	Amount      int64  `json:"amount"`
	Fee         int64  `json:"fee"`
}

type otpRequest struct {
	PhoneNumber string `json:"phone_number"`
}

// SimulateCashIn computes the cash-in cost and returns the confirm token.
func (h *Handler) SimulateCashIn(c *fiber.Ctx) error {
	var req cashInSimulateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	sim, err := h.service.SimulateCashIn(c.UserContext(), req.ContractID, req.Amount, req.Fee)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"token": sim.Token,
		"fee":   sim.Fee,
	})
}

// ConfirmCashIn credits the wallet.
func (h *Handler) ConfirmCashIn(c *fiber.Ctx) error {
	var req confirmRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	receipt, err := h.service.ConfirmCashIn(c.UserContext(), req.Token, req.Amount)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"transaction_reference": receipt.Reference,
		"balance":               receipt.Balance,
	})
}

// SimulateCashOut computes the cash-out cost and returns the confirm token.
func (h *Handler) SimulateCashOut(c *fiber.Ctx) error {
	var req cashOutSimulateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	sim, err := h.service.SimulateCashOut(c.UserContext(), req.PhoneNumber, req.Amount, req.Fee)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"token":       sim.Token,
		"fee":         sim.Fee,
		"total_debit": sim.TotalDebit,
	})
}

// IssueCashOutOTP sends a one-time code to the wallet owner.
func (h *Handler) IssueCashOutOTP(c *fiber.Ctx) error {
	var req otpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	code, err := h.service.IssueCashOutCode(c.UserContext(), req.PhoneNumber)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"otp": code})
}

// ConfirmCashOut verifies the code and debits the wallet.
func (h *Handler) ConfirmCashOut(c *fiber.Ctx) error {
	var req confirmRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	receipt, err := h.service.ConfirmCashOut(c.UserContext(), req.Token, req.OTP, req.Amount)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"transaction_reference": receipt.Reference,
		"balance":               receipt.Balance,
	})
}
