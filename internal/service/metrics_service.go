package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/helpdesk-service/internal/authz"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

const millisPerDay = 24 * 60 * 60 * 1000

// DateRange is an inclusive window; a missing bound is unbounded on
// that side.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// UserCounts groups active subtree accounts by role. SuperAdmins is
// populated only for system owner callers.
type UserCounts struct {
	SuperAdmins *int `json:"super_admins,omitempty"`
	Admins      int  `json:"admins"`
	ItPersons   int  `json:"it_persons"`
	Users       int  `json:"users"`
}

// ScopedMetrics is the caller-subtree aggregate.
type ScopedMetrics struct {
	Users   UserCounts              `json:"users"`
	Tickets repository.TicketCounts `json:"tickets"`
}

// SuperAdminDashboard extends the aggregate with quota and expiry
// figures for a limited tenant.
type SuperAdminDashboard struct {
	Metrics            ScopedMetrics `json:"metrics"`
	AccountLimit       *int          `json:"account_limit,omitempty"`
	AccountUtilization *int          `json:"account_utilization,omitempty"`
	RemainingSlots     *int          `json:"remaining_slots,omitempty"`
	DaysUntilExpiry    *int          `json:"days_until_expiry,omitempty"`
}

// MetricsService computes dashboard aggregates restricted to the
// caller's subtree. Aggregates are cached briefly in Redis when a
// client is configured.
type MetricsService struct {
	accounts repository.AccountRepository
	tickets  repository.TicketRepository
	cache    *redis.Client
	cacheTTL time.Duration
	now      func() time.Time
}

// MetricsDependencies bundles collaborators for the metrics service.
type MetricsDependencies struct {
	AccountRepo repository.AccountRepository
	TicketRepo  repository.TicketRepository
	Cache       *redis.Client
	CacheTTL    time.Duration
}

// NewMetricsService constructs the service.
func NewMetricsService(deps MetricsDependencies) *MetricsService {
	return &MetricsService{
		accounts: deps.AccountRepo,
		tickets:  deps.TicketRepo,
		cache:    deps.Cache,
		cacheTTL: deps.CacheTTL,
		now:      time.Now,
	}
}

// GetScopedMetrics counts active accounts by role and tickets by
// status over the caller's subtree, with an optional inclusive date
// window on tickets.
func (s *MetricsService) GetScopedMetrics(ctx context.Context, callerID string, rng DateRange) (*ScopedMetrics, error) {
	caller, err := s.accounts.GetByID(ctx, callerID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("caller", map[string]any{"id": callerID})
		}
		return nil, apperrors.MapError(err)
	}
	if !authz.CanViewTickets(caller.Role) {
		return nil, apperrors.NewForbidden("no dashboard scope for this role")
	}

	var to *time.Time
	if rng.To != nil {
		bounded := endOfDay(*rng.To)
		to = &bounded
	}

	cacheKey := metricsCacheKey(callerID, rng.From, to)
	if cached, ok := s.cacheGet(ctx, cacheKey); ok {
		return cached, nil
	}

	roleCounts, err := s.accounts.CountActiveInSubtree(ctx, caller.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	ticketCounts, err := s.tickets.CountInSubtree(ctx, caller.ID, rng.From, to)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	metrics := &ScopedMetrics{
		Users: UserCounts{
			Admins:    roleCounts[domain.RoleAdmin],
			ItPersons: roleCounts[domain.RoleItPerson],
			Users:     roleCounts[domain.RoleUser],
		},
		Tickets: ticketCounts,
	}
	if caller.Role == domain.RoleSystemOwner {
		superAdmins := roleCounts[domain.RoleSuperAdmin]
		metrics.Users.SuperAdmins = &superAdmins
	}

	s.cacheSet(ctx, cacheKey, metrics)
	return metrics, nil
}

// GetSuperAdminDashboard adds quota utilization and expiry countdown
// to the scoped aggregate. Only super admins have this view.
func (s *MetricsService) GetSuperAdminDashboard(ctx context.Context, callerID string, rng DateRange) (*SuperAdminDashboard, error) {
	caller, err := s.accounts.GetByID(ctx, callerID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("caller", map[string]any{"id": callerID})
		}
		return nil, apperrors.MapError(err)
	}
	if caller.Role != domain.RoleSuperAdmin {
		return nil, apperrors.NewForbidden("super admin dashboard requires a super admin")
	}

	metrics, err := s.GetScopedMetrics(ctx, callerID, rng)
	if err != nil {
		return nil, err
	}

	dashboard := &SuperAdminDashboard{Metrics: *metrics}
	if caller.AccountLimit != nil {
		limit := *caller.AccountLimit
		userCount := metrics.Users.Admins + metrics.Users.ItPersons + metrics.Users.Users
		utilization := int(math.Round(100 * float64(userCount) / float64(limit)))
		remaining := limit - userCount
		dashboard.AccountLimit = &limit
		dashboard.AccountUtilization = &utilization
		dashboard.RemainingSlots = &remaining
	}
	if caller.ExpiryDate != nil {
		days := daysUntil(s.now(), *caller.ExpiryDate)
		dashboard.DaysUntilExpiry = &days
	}
	return dashboard, nil
}

// daysUntil returns the whole-day countdown via ceiling division of
// the millisecond difference; past deadlines report zero.
func daysUntil(now, deadline time.Time) int {
	millis := deadline.Sub(now).Milliseconds()
	if millis <= 0 {
		return 0
	}
	return int((millis + millisPerDay - 1) / millisPerDay)
}

func metricsCacheKey(callerID string, from, to *time.Time) string {
	formatBound := func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("metrics:%s:%s:%s", callerID, formatBound(from), formatBound(to))
}

func (s *MetricsService) cacheGet(ctx context.Context, key string) (*ScopedMetrics, bool) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		return nil, false
	}
	var metrics ScopedMetrics
	if err := json.Unmarshal([]byte(raw), &metrics); err != nil {
		return nil, false
	}
	return &metrics, true
}

func (s *MetricsService) cacheSet(ctx context.Context, key string, metrics *ScopedMetrics) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(metrics)
	if err != nil {
		return
	}
	_ = s.cache.Set(ctx, key, raw, s.cacheTTL).Err()
}
