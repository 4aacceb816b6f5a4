package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

func adminMiddleware(roles ...string) echo.MiddlewareFunc {
	return roleMiddleware(func(claims Claims) bool { return claims.IsAdmin }, roles...)
}

// managerMiddleware allows admins and managers.
func managerMiddleware(roles ...string) echo.MiddlewareFunc {
	return roleMiddleware(func(claims Claims) bool { return claims.IsManager }, roles...)
}

// familyEditorMiddleware allows anyone who may register and edit families.
func familyEditorMiddleware(roles ...string) echo.MiddlewareFunc {
	return roleMiddleware(func(claims Claims) bool { return claims.CanEditFamilies }, roles...)
}

// aidApproverMiddleware allows anyone who may approve or reject aid requests.
func aidApproverMiddleware(roles ...string) echo.MiddlewareFunc {
	return roleMiddleware(func(claims Claims) bool { return claims.CanApproveAid }, roles...)
}

// financeMiddleware allows admins and accountants.
func financeMiddleware(roles ...string) echo.MiddlewareFunc {
	return roleMiddleware(func(claims Claims) bool { return claims.CanManageFinance }, roles...)
}

func roleMiddleware(allowed func(Claims) bool, roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if allowed(claims) && contextHasAnyRole(ctx, roles) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
