package handlers

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/newsflow/backend/internal/middleware"
	"github.com/newsflow/backend/internal/models"
	"github.com/newsflow/backend/internal/services"
	"github.com/newsflow/backend/internal/storage"
	"github.com/newsflow/backend/pkg/logger"
	"github.com/newsflow/backend/pkg/utils"
	"gorm.io/gorm"
)

const (
	defaultCategory = "Uncategorized"

	// Stored in ReviewNotes when a reviewer rejects without a reason.
	defaultRejectionNote = "No reason provided"

	downloadURLExpiry = 15 * time.Minute
)

type AssetsHandler struct {
	DB      *gorm.DB
	Storage storage.ObjectStore
	Authz   *services.AuthzService
	Library *services.LibraryService
}

func NewAssetsHandler(db *gorm.DB, store storage.ObjectStore, authz *services.AuthzService, library *services.LibraryService) *AssetsHandler {
	return &AssetsHandler{DB: db, Storage: store, Authz: authz, Library: library}
}

func (h *AssetsHandler) Upload(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if !h.Authz.Can(currentUser, services.OpAssetUpload) {
		return utils.Error(c, fiber.StatusForbidden, "access denied")
	}

	fileHeader, err := c.FormFile("asset")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "file is required")
	}
	if fileHeader.Size == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "file is empty")
	}

	filename := filepath.Base(strings.TrimSpace(fileHeader.Filename))
	if filename == "" || filename == "." {
		return utils.Error(c, fiber.StatusBadRequest, "invalid filename")
	}

	title := strings.TrimSpace(c.FormValue("title"))
	if title == "" {
		title = filename
	}

	category := strings.TrimSpace(c.FormValue("category"))
	if category == "" {
		category = defaultCategory
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(filename))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	stream, err := fileHeader.Open()
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed opening uploaded file")
	}
	defer stream.Close()

	objectKey := fmt.Sprintf("%s/%s/%s", currentUser.ID.String(), uuid.New().String(), filename)
	if err := h.Storage.Upload(c.Context(), objectKey, stream, fileHeader.Size, contentType); err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed uploading file")
	}

	asset := models.Asset{
		Title:       title,
		Description: strings.TrimSpace(c.FormValue("description")),
		Tags:        models.ParseTagList(c.FormValue("tags")),
		Category:    category,
		StorageKey:  objectKey,
		MimeType:    contentType,
		Size:        fileHeader.Size,
		UploaderID:  currentUser.ID,
		Status:      models.AssetStatusPending,
	}

	if err := h.DB.Create(&asset).Error; err != nil {
		_ = h.Storage.Delete(c.Context(), objectKey)
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating asset record")
	}

	logger.InfoWithUser(currentUser.ID.String(), "asset_uploaded", map[string]interface{}{
		"asset_id":    asset.ID.String(),
		"title":       asset.Title,
		"category":    asset.Category,
		"mime_type":   contentType,
		"size":        fileHeader.Size,
		"storage_key": objectKey,
	})

	return utils.Success(c, fiber.StatusCreated, asset)
}

// List returns the caller's own uploads, optionally filtered by exact
// status, MIME-type prefix, and a case-insensitive title/tag search.
func (h *AssetsHandler) List(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if !h.Authz.Can(currentUser, services.OpAssetList) {
		return utils.Error(c, fiber.StatusForbidden, "access denied")
	}

	query := h.DB.Where("uploader_id = ?", currentUser.ID)

	if status := models.AssetStatus(strings.TrimSpace(c.Query("status"))); status != "" {
		if !models.ValidAssetStatus(status) {
			return utils.Error(c, fiber.StatusBadRequest, "invalid status filter")
		}
		query = query.Where("status = ?", status)
	}

	if fileType := strings.TrimSpace(c.Query("fileType")); fileType != "" {
		query = query.Where("LOWER(mime_type) LIKE ?", strings.ToLower(fileType)+"%")
	}

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		searchValue := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(tags) LIKE ?", searchValue, searchValue)
	}

	assets := make([]models.Asset, 0)
	if err := query.Order("created_at DESC").Find(&assets).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing assets")
	}

	return utils.Success(c, fiber.StatusOK, assets)
}

// ReviewQueue lists pending assets oldest first, so the earliest
// submission is reviewed first.
func (h *AssetsHandler) ReviewQueue(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if !h.Authz.Can(currentUser, services.OpAssetReview) {
		return utils.Error(c, fiber.StatusForbidden, "reviewer access required")
	}

	assets := make([]models.Asset, 0)
	if err := h.DB.
		Preload("Uploader").
		Where("status = ?", models.AssetStatusPending).
		Order("created_at ASC").
		Find(&assets).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing review queue")
	}

	return utils.Success(c, fiber.StatusOK, assets)
}

type updateStatusRequest struct {
	Status models.AssetStatus `json:"status"`
	Notes  string             `json:"notes"`
}

func (h *AssetsHandler) UpdateStatus(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if !h.Authz.Can(currentUser, services.OpAssetSetStatus) {
		return utils.Error(c, fiber.StatusForbidden, "reviewer access required")
	}

	assetID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid asset id")
	}

	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Status != models.AssetStatusApproved && req.Status != models.AssetStatusRejected {
		return utils.Error(c, fiber.StatusBadRequest, "status must be approved or rejected")
	}

	var asset models.Asset
	if err := h.DB.First(&asset, "id = ?", assetID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "asset not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading asset")
	}

	asset.Status = req.Status
	if req.Status == models.AssetStatusApproved {
		asset.ReviewNotes = ""
	} else {
		notes := strings.TrimSpace(req.Notes)
		if notes == "" {
			notes = defaultRejectionNote
		}
		asset.ReviewNotes = notes
	}

	if err := h.DB.Save(&asset).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating asset status")
	}

	logger.InfoWithUser(currentUser.ID.String(), "asset_reviewed", map[string]interface{}{
		"asset_id": asset.ID.String(),
		"status":   string(asset.Status),
	})

	return utils.Success(c, fiber.StatusOK, asset)
}

func (h *AssetsHandler) LibraryView(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	view, err := h.Library.Aggregate(c.Context())
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed building library")
	}

	return utils.Success(c, fiber.StatusOK, view)
}

// Get returns an asset plus the caller's collections that contain it.
func (h *AssetsHandler) Get(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	assetID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid asset id")
	}

	var asset models.Asset
	if err := h.DB.Preload("Uploader").First(&asset, "id = ?", assetID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "asset not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading asset")
	}

	if !h.canViewAsset(currentUser, &asset) {
		return utils.Error(c, fiber.StatusForbidden, "access denied")
	}

	collections := make([]models.Collection, 0)
	if err := h.DB.
		Joins("JOIN collection_assets ON collection_assets.collection_id = collections.id").
		Where("collection_assets.asset_id = ? AND collections.owner_id = ?", asset.ID, currentUser.ID).
		Find(&collections).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading collections")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"asset":       asset,
		"collections": collections,
	})
}

func (h *AssetsHandler) DownloadURL(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	assetID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid asset id")
	}

	var asset models.Asset
	if err := h.DB.First(&asset, "id = ?", assetID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "asset not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading asset")
	}

	if !h.canViewAsset(currentUser, &asset) {
		return utils.Error(c, fiber.StatusForbidden, "access denied")
	}

	url, err := h.Storage.PresignedGetURL(c.Context(), asset.StorageKey, downloadURLExpiry)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed generating download URL")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"url": url})
}

// Delete removes the stored object first. If the storage provider fails,
// the record stays untouched so it never points at a missing object.
func (h *AssetsHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	assetID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid asset id")
	}

	var asset models.Asset
	if err := h.DB.First(&asset, "id = ?", assetID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "asset not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading asset")
	}

	if !h.Authz.CanOn(currentUser, services.OpAssetDelete, asset.UploaderID) {
		return utils.Error(c, fiber.StatusForbidden, "only the uploader may delete an asset")
	}

	if err := h.Storage.Delete(c.Context(), asset.StorageKey); err != nil {
		logger.ErrorWithUser(currentUser.ID.String(), "asset_storage_delete_failed", err, map[string]interface{}{
			"asset_id":    asset.ID.String(),
			"storage_key": asset.StorageKey,
		})
		return utils.Error(c, fiber.StatusBadGateway, "failed deleting stored object")
	}

	if err := h.DB.Model(&asset).Association("Collections").Clear(); err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed detaching asset from collections")
	}
	if err := h.DB.Delete(&asset).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting asset record")
	}

	logger.InfoWithUser(currentUser.ID.String(), "asset_deleted", map[string]interface{}{
		"asset_id":    asset.ID.String(),
		"storage_key": asset.StorageKey,
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": true})
}

// Uploaders always see their own assets; reviewers see everything; everyone
// else sees an asset once it is approved.
func (h *AssetsHandler) canViewAsset(user *models.User, asset *models.Asset) bool {
	if asset.UploaderID == user.ID {
		return true
	}
	if h.Authz.Can(user, services.OpAssetReview) {
		return true
	}
	return asset.Status == models.AssetStatusApproved
}
