package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/newsflow/backend/internal/database"
	"github.com/newsflow/backend/internal/middleware"
	"github.com/newsflow/backend/internal/models"
	"github.com/newsflow/backend/internal/services"
	"github.com/newsflow/backend/internal/storage"
	"github.com/newsflow/backend/pkg/logger"
	"github.com/newsflow/backend/pkg/utils"
	"gorm.io/gorm"
)

type testEnv struct {
	app    *fiber.App
	db     *gorm.DB
	store  *storage.MemoryStore
	mailer *stubMailer
}

// stubMailer records approval notifications instead of dialing SMTP.
type stubMailer struct {
	mu        sync.Mutex
	sent      []string
	failSends bool
}

func (m *stubMailer) SendAccountApproved(user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSends {
		return errTestMailer
	}
	m.sent = append(m.sent, user.Email)
	return nil
}

func (m *stubMailer) sentTo() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}

var errTestMailer = &mailerError{}

type mailerError struct{}

func (*mailerError) Error() string { return "simulated mailer failure" }

var testSetupOnce sync.Once

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testSetupOnce.Do(func() {
		logger.Init()
		utils.ConfigureJWT("test-secret", 24)
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed automigrating models: %v", err)
	}

	store := storage.NewMemoryStore()
	mailer := &stubMailer{}

	authzService := services.NewAuthzService()
	libraryService := services.NewLibraryService(db)

	authHandler := NewAuthHandler(db)
	assetsHandler := NewAssetsHandler(db, store, authzService, libraryService)
	collectionsHandler := NewCollectionsHandler(db, authzService)
	adminHandler := NewAdminHandler(db, authzService, mailer)
	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New(fiber.Config{BodyLimit: 100 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	api.Get("/version", GetVersion)

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Get("/me", authMiddleware.RequireAuth, authHandler.Me)

	assetRoutes := api.Group("/assets", authMiddleware.RequireAuth)
	assetRoutes.Post("/upload", assetsHandler.Upload)
	assetRoutes.Get("/", assetsHandler.List)
	assetRoutes.Get("/review", middleware.ReviewerOnly, assetsHandler.ReviewQueue)
	assetRoutes.Get("/library", assetsHandler.LibraryView)
	assetRoutes.Put("/:id/status", middleware.ReviewerOnly, assetsHandler.UpdateStatus)
	assetRoutes.Get("/:id/download-url", assetsHandler.DownloadURL)
	assetRoutes.Get("/:id", assetsHandler.Get)
	assetRoutes.Delete("/:id", assetsHandler.Delete)

	collectionRoutes := api.Group("/collections", authMiddleware.RequireAuth)
	collectionRoutes.Post("/", collectionsHandler.Create)
	collectionRoutes.Get("/", collectionsHandler.ListMine)
	collectionRoutes.Get("/:id", collectionsHandler.Get)
	collectionRoutes.Put("/:id/add", collectionsHandler.AddAsset)
	collectionRoutes.Put("/:id/remove", collectionsHandler.RemoveAsset)
	collectionRoutes.Put("/:id", collectionsHandler.Update)
	collectionRoutes.Delete("/:id", collectionsHandler.Delete)

	adminRoutes := api.Group("/admin", authMiddleware.RequireAuth, middleware.AdminOnly)
	adminRoutes.Get("/users", adminHandler.ListUsers)
	adminRoutes.Put("/users/:id/status", adminHandler.UpdateUserStatus)

	return &testEnv{app: app, db: db, store: store, mailer: mailer}
}

func createTestUser(t *testing.T, db *gorm.DB, email, password string, role models.UserRole) (*models.User, string) {
	t.Helper()

	hash, err := utils.HashPassword(password)
	if err != nil {
		t.Fatalf("failed hashing password: %v", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         "Test User",
		Role:         role,
		Status:       models.UserStatusApproved,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating test user: %v", err)
	}

	token, err := utils.GenerateToken(user)
	if err != nil {
		t.Fatalf("failed generating auth token: %v", err)
	}

	return user, token
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, int((10 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	return resp
}

func performJSONRequest(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	requestHeaders := map[string]string{}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	if payload != nil {
		requestHeaders["Content-Type"] = "application/json"
	}

	return performRequest(t, app, method, path, body, requestHeaders)
}

// performUpload posts a multipart form with the file under the "asset"
// field plus any extra form fields.
func performUpload(t *testing.T, app *fiber.App, token, filename, contentType string, content []byte, fields map[string]string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(map[string][]string)
	header["Content-Disposition"] = []string{`form-data; name="asset"; filename="` + filename + `"`}
	header["Content-Type"] = []string{contentType}
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("failed creating multipart file part: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("failed writing multipart content: %v", err)
	}

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("failed writing form field %s: %v", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed closing multipart writer: %v", err)
	}

	headers := authHeaders(token)
	headers["Content-Type"] = writer.FormDataContentType()

	return performRequest(t, app, http.MethodPost, "/api/assets/upload", &buf, headers)
}

func decodeJSONMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, string(raw))
	}

	return payload
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

func assertEnvelopeError(t *testing.T, body map[string]any, expected string) {
	t.Helper()
	if success, _ := body["success"].(bool); success {
		t.Fatalf("expected success=false, got %+v", body)
	}
	if got, _ := body["error"].(string); got != expected {
		t.Fatalf("expected error %q, got %q", expected, got)
	}
}
