package middleware

import (
	"net/http"

	"queue-system/models"

	"github.com/labstack/echo/v5"
)

// Identity is established upstream by the API gateway and forwarded in
// trusted headers. This service performs no credential verification.
const (
	HeaderUserID   = "X-User-Id"
	HeaderUserName = "X-User-Name"
	HeaderUserRole = "X-User-Role"

	ContextUserID   = "user_id"
	ContextUserName = "user_name"
	ContextUserRole = "user_role"

	RoleStaff = "staff"
	RoleAdmin = "admin"
)

// Identity extracts the gateway identity headers into the request
// context. It never rejects; the guards below do.
func Identity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(ContextUserID, c.Request().Header.Get(HeaderUserID))
			c.Set(ContextUserName, c.Request().Header.Get(HeaderUserName))
			c.Set(ContextUserRole, c.Request().Header.Get(HeaderUserRole))
			return next(c)
		}
	}
}

// RequireUser rejects requests without an authenticated identity.
func RequireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if UserID(c) == "" {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error: "authentication required",
				})
			}
			return next(c)
		}
	}
}

// RequireStaff admits staff and admin roles.
func RequireStaff() echo.MiddlewareFunc {
	return requireRole(RoleStaff, RoleAdmin)
}

// RequireAdmin admits only admins.
func RequireAdmin() echo.MiddlewareFunc {
	return requireRole(RoleAdmin)
}

func requireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if UserID(c) == "" {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error: "authentication required",
				})
			}
			role := Role(c)
			for _, allowed := range roles {
				if role == allowed {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, models.ErrorResponse{
				Error: "insufficient permissions",
			})
		}
	}
}

func UserID(c echo.Context) string {
	id, _ := c.Get(ContextUserID).(string)
	return id
}

func UserName(c echo.Context) string {
	name, _ := c.Get(ContextUserName).(string)
	return name
}

func Role(c echo.Context) string {
	role, _ := c.Get(ContextUserRole).(string)
	return role
}
