package middleware

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"itemapi/internal/actor"
	"itemapi/internal/config"
)

const (
	// UserIDHeader carries the caller id when the deployment trusts an upstream gateway.
	UserIDHeader = "X-User-ID"
	// UserIDLocalKey is the key used to store the caller id in Fiber's context locals.
	UserIDLocalKey = "user_id"
)

var errNoCredentials = errors.New("no credentials")

// Auth resolves the caller for every request and stores it in the user context
// with actor.WithContext.
//
// Resolution order:
// - Authorization: Bearer <HS256 JWT> whose "sub" claim is the numeric user id
// - X-User-ID, only when cfg.TrustUserHeader is set
//
// Anything else is rejected with 401. User id 0 is reserved for the system and is
// never accepted from a request.
func Auth(cfg config.AuthConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, err := resolveUserID(c, cfg)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}
		ac, err := actor.New(uid)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		c.Locals(UserIDLocalKey, uid)
		c.SetUserContext(actor.WithContext(c.UserContext(), ac))
		return c.Next()
	}
}

func resolveUserID(c *fiber.Ctx, cfg config.AuthConfig) (int64, error) {
	if h := c.Get(fiber.HeaderAuthorization); h != "" {
		tok, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || cfg.JWTSecret == "" {
			return 0, errors.New("unsupported authorization")
		}
		return subjectFromJWT(strings.TrimSpace(tok), cfg)
	}
	if cfg.TrustUserHeader {
		if h := c.Get(UserIDHeader); h != "" {
			return parseUserID(h)
		}
	}
	return 0, errNoCredentials
}

func subjectFromJWT(tok string, cfg config.AuthConfig) (int64, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.JWTIssuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.JWTIssuer))
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tok, claims, func(*jwt.Token) (any, error) {
		return []byte(cfg.JWTSecret), nil
	}, opts...)
	if err != nil {
		return 0, fmt.Errorf("invalid token: %w", err)
	}
	return parseUserID(claims.Subject)
}

func parseUserID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user id %q", s)
	}
	return id, nil
}
