package banking

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes ATM withdrawal and bank-transfer endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a banking handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type withdrawalSimulateRequest struct {
	ContractID string `json:"contract_id"`
	Amount     int64  `json:"amount"`
}

type bankTransferSimulateRequest struct {
	ContractID string `json:"contract_id"`
	RIB        string `json:"rib"`
	Amount     int64  `json:"amount"`
}

type otpRequest struct {
	ContractID string `json:"contract_id"`
}

type confirmRequest struct {
	Token  string `json:"token"`
	OTP    string `json:"otp"`
	Amount int64  `json:"amount"`
}

// SimulateWithdrawal prices an ATM withdrawal and returns the confirm token.
func (h *Handler) SimulateWithdrawal(c *fiber.Ctx) error {
	var req withdrawalSimulateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	sim, err := h.service.SimulateWithdrawal(c.UserContext(), req.ContractID, req.Amount)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"token":       sim.Token,
		"fee":         sim.Fee,
		"tax":         sim.Tax,
		"total_fees":  sim.TotalFees,
		"total_debit": sim.TotalDebit,
	})
}

// IssueWithdrawalOTP sends the cardless withdrawal code to the wallet owner.
func (h *Handler) IssueWithdrawalOTP(c *fiber.Ctx) error {
	var req otpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	code, err := h.service.IssueWithdrawalCode(c.UserContext(), req.ContractID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"otp": code})
}

// ConfirmWithdrawal verifies the code and debits the wallet.
func (h *Handler) ConfirmWithdrawal(c *fiber.Ctx) error {
	var req confirmRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	receipt, err := h.service.ConfirmWithdrawal(c.UserContext(), req.Token, req.OTP, req.Amount)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"transaction_reference": receipt.Reference,
		"balance":               receipt.Balance,
	})
}

// SimulateBankTransfer prices a transfer to an external RIB.
func (h *Handler) SimulateBankTransfer(c *fiber.Ctx) error {
	var req bankTransferSimulateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	sim, err := h.service.SimulateBankTransfer(c.UserContext(), req.ContractID, req.RIB, req.Amount)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"token":       sim.Token,
		"total_debit": sim.TotalDebit,
	})
}

// IssueBankTransferOTP sends a one-time code to the wallet owner.
func (h *Handler) IssueBankTransferOTP(c *fiber.Ctx) error {
	var req otpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	code, err := h.service.IssueBankTransferCode(c.UserContext(), req.ContractID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"otp": code})
}

// ConfirmBankTransfer verifies the code and debits the wallet.
func (h *Handler) ConfirmBankTransfer(c *fiber.Ctx) error {
	var req confirmRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	receipt, err := h.service.ConfirmBankTransfer(c.UserContext(), req.Token, req.OTP, req.Amount)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"transaction_reference": receipt.Reference,
		"balance":               receipt.Balance,
	})
}
