package wallet

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/dirham-pay/dirham_pay/internal/ledger"
)

// Handler exposes registration, balance and history endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type preCreateRequest struct {
	PhoneNumber string `json:"phone_number"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	CompanyName string `json:"company_name"`
}

type activateRequest struct {
	Token string `json:"token"`
	OTP   string `json:"otp"`
}

// PreCreateWallet stages a wallet registration.
func (h *Handler) PreCreateWallet(c *fiber.Ctx) error {
	var req preCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.service.PreCreateWallet(c.UserContext(), PreCreateInput{
		Phone:     req.PhoneNumber,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"token":        res.Token,
		"otp":          res.Code,
		"phone_number": res.Phone,
	})
}

// PreCreateMerchant stages a merchant registration.
func (h *Handler) PreCreateMerchant(c *fiber.Ctx) error {
	var req preCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	res, err := h.service.PreCreateMerchant(c.UserContext(), PreCreateInput{
		Phone:       req.PhoneNumber,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		CompanyName: req.CompanyName,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"token":        res.Token,
		"otp":          res.Code,
		"phone_number": res.Phone,
	})
}

// Activate consumes the token and code and mints the account.
func (h *Handler) Activate(c *fiber.Ctx) error {
	var req activateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	account, err := h.service.Activate(c.UserContext(), req.Token, req.OTP)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"contract_id": account.ContractID,
		"rib":         account.RIB,
		"status":      account.Status,
	})
}

// Balance returns the account balance by contract ID or phone number.
func (h *Handler) Balance(c *fiber.Ctx) error {
	res, err := h.service.Balance(c.UserContext(), c.Params("key"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"contract_id": res.ContractID,
		"balance":     res.Balance,
		"as_of":       res.AsOf.Format(time.RFC3339Nano),
	})
}

// History lists journal entries for the account, most recent first.
func (h *Handler) History(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", ledger.DefaultHistoryLimit)
	entries, err := h.service.History(c.UserContext(), c.Params("key"), limit)
	if err != nil {
		return err
	}

	out := make([]fiber.Map, 0, len(entries))
	for _, tx := range entries {
		out = append(out, fiber.Map{
			"reference":   tx.Reference,
			"type":        tx.Type,
			"source":      tx.Source,
			"destination": tx.Destination,
			"amount":      tx.Amount,
			"fees":        tx.Fees,
			"total_fees":  tx.TotalFees,
			"status":      tx.Status,
			"is_canceled": tx.IsCanceled,
			"created_at":  tx.CreatedAt.Format(time.RFC3339Nano),
		})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"transactions": out})
}
