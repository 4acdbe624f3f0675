package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// EnsurePlayerID identifies the caller and stores playerID and playerName in locals.
//
// With a secret, the caller must present a token from /api/player, either as a bearer token
// or, for websockets which cannot set headers, as the token query parameter. Without a
// secret the X-Player-ID header or playerId query parameter is trusted as-is.
func EnsurePlayerID(secret []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Locals("playerID") != nil {
			return c.Next()
		}

		if len(secret) > 0 {
			tokenStr := bearer(c.Get(fiber.HeaderAuthorization))
			if tokenStr == "" {
				tokenStr = c.Query("token")
			}
			if tokenStr == "" {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "player token is required",
				})
			}
			player, err := ParsePlayerToken(secret, tokenStr)
			if err != nil {
				log.Debug().Err(err).Str("path", c.Path()).Msg("rejected player token")
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": err.Error(),
				})
			}
			c.Locals("playerID", player.ID)
			c.Locals("playerName", player.Name)
			return c.Next()
		}

		playerID := c.Get("X-Player-ID")
		if playerID == "" {
			playerID = c.Query("playerId")
		}
		if playerID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Player ID is required. Please ensure client is properly initialized.",
			})
		}
		name := c.Get("X-Player-Name")
		if name == "" {
			name = playerID
		}

		c.Locals("playerID", playerID)
		c.Locals("playerName", name)
		return c.Next()
	}
}

func bearer(header string) string {
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
