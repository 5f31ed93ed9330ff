package api

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/ronospace/flowiq/internal/models"
)

var errInvalidAuthToken = errors.New("invalid auth token")

// authenticateRequest resolves the bearer token into a stored user. Any
// failure collapses into one opaque error so responses never hint at which
// check rejected the token.
func (handler *Handler) authenticateRequest(c *fiber.Ctx) (*models.User, error) {
	token := bearerToken(c)
	if token == "" {
		return nil, errInvalidAuthToken
	}

	claims := &authClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidAuthToken
		}
		return handler.secretKey, nil
	})
	if err != nil || !parsed.Valid {
		return nil, errInvalidAuthToken
	}
	if claims.ExpiresAt == nil || claims.ExpiresAt.Before(time.Now()) {
		return nil, errInvalidAuthToken
	}

	user, err := handler.repositories.Users.FindByID(claims.UserID)
	if err != nil {
		return nil, errInvalidAuthToken
	}
	return &user, nil
}

func bearerToken(c *fiber.Ctx) string {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
