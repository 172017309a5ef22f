package middleware

import (
	"strings"

	"notes-server/models"
	"notes-server/utils"

	"github.com/gofiber/fiber/v2"
)

// PrincipalKey is the Locals key holding the models.Principal.
const PrincipalKey = "user"

// JWTParser resolves the caller from "Authorization: Bearer <jwt>" and stores
// a models.Principal in c.Locals. WebSocket upgrades may pass the token as
// ?token= since browsers cannot set headers on them.
func JWTParser(store *utils.PublicKeyStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, msg := bearerToken(c)
		if msg != "" {
			return unauthorized(c, msg)
		}

		claims, err := utils.ParseJWT(store, tokenString)
		if err != nil {
			return unauthorized(c, "Invalid JWT: "+utils.DescribeJWTError(err))
		}

		c.Locals(PrincipalKey, models.Principal{ID: claims.Subject, Role: claims.Role})
		return c.Next()
	}
}

// PrincipalFrom returns the principal stored by JWTParser.
func PrincipalFrom(c *fiber.Ctx) (models.Principal, bool) {
	p, ok := c.Locals(PrincipalKey).(models.Principal)
	return p, ok && p.ID != ""
}

func bearerToken(c *fiber.Ctx) (string, string) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		if token := c.Query("token"); token != "" && isUpgrade(c) {
			return token, ""
		}
		return "", "Missing Authorization header"
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader || tokenString == "" {
		return "", "Malformed Authorization header"
	}
	return tokenString, ""
}

func isUpgrade(c *fiber.Ctx) bool {
	return strings.EqualFold(c.Get(fiber.HeaderUpgrade), "websocket")
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": msg})
}
