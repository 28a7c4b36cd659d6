package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"taskflow/internal/apperror"
	"taskflow/internal/auth"
	"taskflow/internal/policy"
)

const claimsKey = "claims"

// Authenticator turns a raw bearer token into verified claims.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (*auth.Claims, error)
}

// Authenticate rejects requests without a valid bearer token and stores
// the caller's claims in the context locals.
func Authenticate(a Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, err := bearerToken(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return err
		}
		claims, err := a.Authenticate(c.UserContext(), raw)
		if err != nil {
			return err
		}
		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", apperror.Unauthenticated("No token provided")
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", apperror.Unauthenticated("Invalid token format")
	}
	return parts[1], nil
}

// Claims returns the verified claims of the current request.
func Claims(c *fiber.Ctx) (*auth.Claims, bool) {
	claims, ok := c.Locals(claimsKey).(*auth.Claims)
	return claims, ok && claims != nil
}

func callerFrom(c *fiber.Ctx) (policy.Caller, bool) {
	claims, ok := Claims(c)
	if !ok {
		return policy.Caller{}, false
	}
	return claims.Caller(), true
}

// Caller returns the authenticated caller. Routes behind Authenticate
// always have one; anywhere else it fails with Unauthenticated.
func Caller(c *fiber.Ctx) (policy.Caller, error) {
	caller, ok := callerFrom(c)
	if !ok {
		return policy.Caller{}, apperror.Unauthenticated("Not authenticated")
	}
	return caller, nil
}
