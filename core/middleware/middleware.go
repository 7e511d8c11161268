package middleware

import (
	stderrors "errors"
	"strings"

	"club-scheduler/core/constants"
	"club-scheduler/core/controller"
	"club-scheduler/core/errors"
	"club-scheduler/core/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Middleware bundles the authentication middleware used by module routers.
type Middleware struct {
	jwtSecret string
}

func NewMiddleware(jwtSecret string) *Middleware {
	return &Middleware{jwtSecret: jwtSecret}
}

// AuthMiddleware validates the bearer token and stores its claims in the
// echo context under constants.ContextTokenData.
func (m *Middleware) AuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return controller.NewErrorResponse(401, errors.ErrMissingAuthorizationHeader, "Missing Authorization header")
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return controller.NewErrorResponse(401, errors.ErrInvalidTokenFormat, "Authorization header must be a Bearer token")
			}

			claims, err := utils.ParseToken(parts[1], m.jwtSecret)
			if err != nil {
				code := errors.ErrUnauthorized
				if stderrors.Is(err, jwt.ErrTokenExpired) {
					code = errors.ErrTokenExpired
				}
				return controller.NewErrorResponse(401, code, "Invalid or expired token")
			}

			c.Set(constants.ContextTokenData, claims)
			return next(c)
		}
	}
}
