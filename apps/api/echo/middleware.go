package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// revokedSessionMiddleware rejects tokens whose session was ended through
// logout. It runs after JWT signature validation, so a syntactically valid
// token of a closed session still gets a 401.
func revokedSessionMiddleware(deps ServerDeps) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			token, err := getContextToken(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context token")
			}
			if deps.Idp.SessionRevoked(token) {
				return errUnauthorized
			}
			return next(ctx)
		}
	}
}

// roleMiddleware only lets through tokens carrying one of the given roles.
func roleMiddleware(roles ...string) echo.MiddlewareFunc {
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
