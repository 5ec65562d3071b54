package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/newsflow/backend/internal/middleware"
	"github.com/newsflow/backend/internal/models"
	"github.com/newsflow/backend/internal/services"
	"github.com/newsflow/backend/pkg/logger"
	"github.com/newsflow/backend/pkg/utils"
	"gorm.io/gorm"
)

type AdminHandler struct {
	DB     *gorm.DB
	Authz  *services.AuthzService
	Mailer services.Mailer
}

func NewAdminHandler(db *gorm.DB, authz *services.AuthzService, mailer services.Mailer) *AdminHandler {
	return &AdminHandler{DB: db, Authz: authz, Mailer: mailer}
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if !h.Authz.Can(currentUser, services.OpUserList) {
		return utils.Error(c, fiber.StatusForbidden, "admin access required")
	}

	p := utils.ParsePagination(c)

	var total int64
	if err := h.DB.Model(&models.User{}).Count(&total).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed counting users")
	}

	users := make([]models.User, 0)
	if err := utils.ApplyPagination(h.DB.Model(&models.User{}).Order("created_at DESC"), p).Find(&users).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing users")
	}

	return utils.Paginated(c, users, p.Page, p.Limit, total)
}

type updateUserStatusRequest struct {
	Status models.UserStatus `json:"status"`
}

// UpdateUserStatus changes an account's status. Approving a pending
// account sends a notification email; a failed send is logged and never
// fails the request.
func (h *AdminHandler) UpdateUserStatus(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if !h.Authz.Can(currentUser, services.OpUserSetStatus) {
		return utils.Error(c, fiber.StatusForbidden, "admin access required")
	}

	userID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	var req updateUserStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if !models.ValidUserStatus(req.Status) {
		return utils.Error(c, fiber.StatusBadRequest, "invalid status")
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "user not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading user")
	}

	wasPending := user.Status == models.UserStatusPending
	user.Status = req.Status

	if err := h.DB.Save(&user).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating user status")
	}

	logger.InfoWithUser(currentUser.ID.String(), "user_status_updated", map[string]interface{}{
		"target_user_id": user.ID.String(),
		"status":         string(user.Status),
	})

	if wasPending && user.Status == models.UserStatusApproved {
		if err := h.Mailer.SendAccountApproved(&user); err != nil {
			logger.Error("approval_email_failed", err, map[string]interface{}{
				"target_user_id": user.ID.String(),
				"email":          user.Email,
			})
		}
	}

	return utils.Success(c, fiber.StatusOK, user)
}
