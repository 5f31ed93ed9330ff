package api

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ronospace/flowiq/internal/db"
	"github.com/ronospace/flowiq/internal/services"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Handler carries everything the HTTP layer needs. Build it with New; the
// zero value is not usable.
type Handler struct {
	db        *gorm.DB
	secretKey []byte
	location  *time.Location
	logger    *logrus.Logger

	repositories *db.Repositories
	tracking     *services.TrackingService
	insights     *services.InsightsService
	exports      *services.ExportService
}

const defaultAuthTokenTTL = 7 * 24 * time.Hour

type authClaims struct {
	UserID uint `json:"uid"`
	jwt.RegisteredClaims
}
