package handlers

import (
	"net/mail"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/newsflow/backend/internal/middleware"
	"github.com/newsflow/backend/internal/models"
	"github.com/newsflow/backend/pkg/logger"
	"github.com/newsflow/backend/pkg/utils"
	"gorm.io/gorm"
)

type AuthHandler struct {
	DB *gorm.DB
}

func NewAuthHandler(db *gorm.DB) *AuthHandler {
	return &AuthHandler{DB: db}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account in pending state. No token is issued until an
// admin approves the account.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)

	if _, err := mail.ParseAddress(req.Email); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid email")
	}
	if len(req.Password) < 8 {
		return utils.Error(c, fiber.StatusBadRequest, "password must be at least 8 characters")
	}
	if req.Name == "" {
		return utils.Error(c, fiber.StatusBadRequest, "name is required")
	}

	var existing models.User
	if err := h.DB.First(&existing, "email = ?", req.Email).Error; err == nil {
		return utils.Error(c, fiber.StatusConflict, "email already registered")
	} else if err != gorm.ErrRecordNotFound {
		return utils.Error(c, fiber.StatusInternalServerError, "failed checking existing user")
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed to hash password")
	}

	user := models.User{
		Email:        req.Email,
		PasswordHash: passwordHash,
		Name:         req.Name,
		Role:         models.UserRoleUser,
		Status:       models.UserStatusPending,
	}

	if err := h.DB.Create(&user).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating user")
	}

	logger.Info("user_registered", map[string]interface{}{
		"user_id": user.ID.String(),
		"email":   user.Email,
		"status":  string(user.Status),
	})

	return utils.Success(c, fiber.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if req.Email == "" || req.Password == "" {
		return utils.Error(c, fiber.StatusBadRequest, "email and password are required")
	}

	var user models.User
	if err := h.DB.First(&user, "email = ?", req.Email).Error; err != nil {
		logger.Warn("login_failed_user_not_found", map[string]interface{}{
			"email": req.Email,
			"ip":    c.IP(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "invalid credentials")
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		logger.WarnWithUser(user.ID.String(), "login_failed_bad_password", map[string]interface{}{
			"ip": c.IP(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "invalid credentials")
	}

	switch user.Status {
	case models.UserStatusApproved:
	case models.UserStatusPending:
		return utils.Error(c, fiber.StatusForbidden, "account pending approval")
	default:
		return utils.Error(c, fiber.StatusForbidden, "account not approved")
	}

	token, err := utils.GenerateToken(&user)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed generating token")
	}

	logger.InfoWithUser(user.ID.String(), "login_success", map[string]interface{}{
		"ip": c.IP(),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"token": token, "user": user})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	return utils.Success(c, fiber.StatusOK, currentUser)
}
