package payments

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes transfer and merchant-payment endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a payments handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type transferSimulateRequest struct {
	ContractID       string `json:"contract_id"`
	DestinationPhone string `json:"destination_phone"`
	Amount           int64  `json:"amount"`
}

type paymentSimulateRequest struct {
	ContractID         string `json:"contract_id"`
	MerchantContractID string `json:"merchant_contract_id"`
	Amount             int64  `json:"amount"`
}

type otpRequest struct {
	ContractID string `json:"contract_id"`
}

type confirmRequest struct {
	Token  string `json:"token"`
	OTP    string `json:"otp"`
	Amount int64  `json:"amount"`
}

// SimulateTransfer prices a wallet transfer and returns the confirm token.
func (h *Handler) SimulateTransfer(c *fiber.Ctx) error {
	var req transferSimulateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	sim, err := h.service.SimulateTransfer(c.UserContext(), req.ContractID, req.DestinationPhone, req.Amount)
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

// IssueTransferOTP sends a one-time code to the sending wallet.
func (h *Handler) IssueTransferOTP(c *fiber.Ctx) error {
	var req otpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	code, err := h.service.IssueTransferCode(c.UserContext(), req.ContractID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"otp": code})
}

// ConfirmTransfer verifies the code and moves the money.
func (h *Handler) ConfirmTransfer(c *fiber.Ctx) error {
	var req confirmRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	receipt, err := h.service.ConfirmTransfer(c.UserContext(), req.Token, req.OTP, req.Amount)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"transaction_reference": receipt.Reference,
		"balance":               receipt.Balance,
	})
}

// SimulatePayment prices a merchant payment and returns the confirm token.
func (h *Handler) SimulatePayment(c *fiber.Ctx) error {
	var req paymentSimulateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	sim, err := h.service.SimulatePayment(c.UserContext(), req.ContractID, req.MerchantContractID, req.Amount)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"token":       sim.Token,
		"total_debit": sim.TotalDebit,
	})
}

// IssuePaymentOTP sends a one-time code to the paying wallet.
func (h *Handler) IssuePaymentOTP(c *fiber.Ctx) error {
	var req otpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	code, err := h.service.IssuePaymentCode(c.UserContext(), req.ContractID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"otp": code})
}

// ConfirmPayment verifies the code and pays the merchant.
func (h *Handler) ConfirmPayment(c *fiber.Ctx) error {
	var req confirmRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	receipt, err := h.service.ConfirmPayment(c.UserContext(), req.Token, req.OTP, req.Amount)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"transaction_reference": receipt.Reference,
		"balance":               receipt.Balance,
	})
}
