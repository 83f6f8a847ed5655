package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// MetricsHandler exposes subtree dashboard aggregates.
type MetricsHandler struct {
	metrics *service.MetricsService
}

// NewMetricsHandler constructs handler.
func NewMetricsHandler(metricsService *service.MetricsService) *MetricsHandler {
	return &MetricsHandler{metrics: metricsService}
}

// Scoped handles GET /metrics. Results cover only the caller's owned
// subtree.
func (h *MetricsHandler) Scoped(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	rng, err := parseDateRange(c)
	if err != nil {
		return err
	}

	metrics, err := h.metrics.GetScopedMetrics(c.UserContext(), principal.AccountID, rng)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": metrics})
}

// Dashboard handles GET /metrics/dashboard for super admins: the
// scoped aggregate plus quota utilization and expiry countdown.
func (h *MetricsHandler) Dashboard(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	rng, err := parseDateRange(c)
	if err != nil {
		return err
	}

	dashboard, err := h.metrics.GetSuperAdminDashboard(c.UserContext(), principal.AccountID, rng)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": dashboard})
}

func parseDateRange(c *fiber.Ctx) (service.DateRange, error) {
	var rng service.DateRange

	from, err := parseQueryDate(c.Query("from"))
	if err != nil {
		return rng, err
	}
	rng.From = from

	to, err := parseQueryDate(c.Query("to"))
	if err != nil {
		return rng, err
	}
	rng.To = to

	return rng, nil
}
