package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/madrasahapp/madrasah/core/user"
)

// roleMiddleware only lets requests through whose verified claims carry
// one of the given roles. It must run behind the JWT middleware.
func roleMiddleware(roles ...user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			for _, role := range roles {
				if claims.Role == role {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}

func principalMiddleware() echo.MiddlewareFunc {
	return roleMiddleware(user.RolePrincipal)
}

func teacherOrPrincipalMiddleware() echo.MiddlewareFunc {
	return roleMiddleware(user.RoleTeacher, user.RolePrincipal)
}
