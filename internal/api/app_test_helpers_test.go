package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/ronospace/flowiq/internal/db"
	"github.com/ronospace/flowiq/internal/models"
	"github.com/sirupsen/logrus"
)

var testSecretKey = []byte("test-secret-key")

func newTestApp(t *testing.T) (*fiber.App, *db.Repositories) {
	t.Helper()

	databasePath := filepath.Join(t.TempDir(), "flowiq-test.db")
	database, err := db.Open(databasePath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("open sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	handler := New(database, Options{
		SecretKey: testSecretKey,
		Location:  time.UTC,
		Logger:    logger,
	})

	app := fiber.New()
	RegisterRoutes(app, handler)
	return app, handler.repositories
}

func createTestUser(t *testing.T, repositories *db.Repositories, displayName string) models.User {
	t.Helper()
	user := models.User{DisplayName: displayName, TimeZone: "UTC"}
	if err := repositories.Users.Create(&user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func authedRequest(t *testing.T, method string, target string, body string, userID uint) *http.Request {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	request := httptest.NewRequest(method, target, reader)

	token, err := MintToken(testSecretKey, userID, time.Hour)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	request.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	if body != "" {
		request.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	return request
}

func performRequest(t *testing.T, app *fiber.App, request *http.Request, wantStatus int) *http.Response {
	t.Helper()

	response, err := app.Test(request, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if response.StatusCode != wantStatus {
		body, _ := io.ReadAll(response.Body)
		response.Body.Close()
		t.Fatalf("expected status %d, got %d: %s", wantStatus, response.StatusCode, string(body))
	}
	return response
}

func decodeJSONBody(t *testing.T, response *http.Response, target interface{}) {
	t.Helper()
	defer response.Body.Close()
	if err := json.NewDecoder(response.Body).Decode(target); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func startPeriodThroughAPI(t *testing.T, app *fiber.App, userID uint, date string) {
	t.Helper()
	request := authedRequest(t, http.MethodPost, "/api/periods", `{"date":"`+date+`"}`, userID)
	response := performRequest(t, app, request, http.StatusOK)
	response.Body.Close()
}
