package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/mentorlink/mentorship-api/internal/api/metrics"
	"github.com/mentorlink/mentorship-api/internal/core/domain"
	"github.com/mentorlink/mentorship-api/internal/core/service"
)

// RBAC enforces role-based access control. It must be mounted after Session.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			account, _ := c.Get(AccountKey).(*domain.Account)
			if err := service.RequireRole(account, allowedRoles...); err != nil {
				metrics.SessionRejectionsTotal.WithLabelValues(rejectionReason(err)).Inc()
				return err
			}
			return next(c)
		}
	}
}
