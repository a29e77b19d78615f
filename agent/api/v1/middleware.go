package v1

import (
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/labstack/echo/v5"
)

// AuthMiddleware validates Bearer or Basic auth and resolves the token to a caller name.
func AuthMiddleware(tokens map[string]string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if auth == "" {
				c.Response().Header().Set("WWW-Authenticate", `Basic realm="nfs-exports"`)
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error: "missing authorization header",
					Code:  "UNAUTHORIZED",
				})
			}

			scheme, cred, ok := strings.Cut(auth, " ")
			if !ok {
				return unauthorized(c)
			}

			var provided string
			switch scheme {
			case "Bearer":
				provided = cred
			case "Basic":
				decoded, err := base64.StdEncoding.DecodeString(cred)
				if err != nil {
					return unauthorized(c)
				}
				_, pass, ok := strings.Cut(string(decoded), ":")
				if !ok {
					return unauthorized(c)
				}
				provided = pass
			default:
				return unauthorized(c)
			}

			caller, ok := lookupToken(tokens, provided)
			if !ok {
				return unauthorized(c)
			}
			c.Set("caller", caller)

			return next(c)
		}
	}
}

func lookupToken(tokens map[string]string, provided string) (string, bool) {
	for token, name := range tokens {
		if subtle.ConstantTimeCompare([]byte(token), []byte(provided)) == 1 {
			return name, true
		}
	}
	return "", false
}

func unauthorized(c *echo.Context) error {
	c.Response().Header().Set("WWW-Authenticate", `Basic realm="nfs-exports"`)
	return c.JSON(http.StatusUnauthorized, ErrorResponse{
		Error: "invalid auth token",
		Code:  "UNAUTHORIZED",
	})
}
