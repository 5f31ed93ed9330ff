package api

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MintToken issues a signed bearer token for the given user. The token
// subcommand exposes this so operators can mint credentials for the
// companion apps without a round trip through the identity provider.
func MintToken(secretKey []byte, userID uint, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = defaultAuthTokenTTL
	}
	now := time.Now()
	claims := authClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey)
}
