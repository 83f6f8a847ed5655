package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// AccountsHandler exposes provisioning and lifecycle endpoints for
// hierarchy accounts.
type AccountsHandler struct {
	accounts *service.AccountService
}

// NewAccountsHandler constructs handler.
func NewAccountsHandler(accountService *service.AccountService) *AccountsHandler {
	return &AccountsHandler{accounts: accountService}
}

// Create handles POST /accounts.
func (h *AccountsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.CreateAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	account, err := h.accounts.CreateAccount(c.UserContext(), req.ToInput(), principal.AccountID)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewAccountResponse(account)})
}

// Get handles GET /accounts/:id.
func (h *AccountsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	account, err := h.accounts.GetAccount(c.UserContext(), c.Params("id"), principal.AccountID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": dto.NewAccountResponse(account)})
}

// Update handles PATCH /accounts/:id.
func (h *AccountsHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.UpdateAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	account, err := h.accounts.UpdateAccount(c.UserContext(), c.Params("id"), req.ToInput(), principal.AccountID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": dto.NewAccountResponse(account)})
}

// Deactivate handles DELETE /accounts/:id. Accounts are soft deleted;
// rows stay behind for aggregation history.
func (h *AccountsHandler) Deactivate(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	if err := h.accounts.DeactivateAccount(c.UserContext(), c.Params("id"), principal.AccountID); err != nil {
		return err
	}

	return c.Status(http.StatusNoContent).Send(nil)
}
