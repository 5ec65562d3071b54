package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/newsflow/backend/internal/middleware"
	"github.com/newsflow/backend/internal/models"
	"github.com/newsflow/backend/internal/services"
	"github.com/newsflow/backend/pkg/logger"
	"github.com/newsflow/backend/pkg/utils"
	"gorm.io/gorm"
)

type CollectionsHandler struct {
	DB    *gorm.DB
	Authz *services.AuthzService
}

func NewCollectionsHandler(db *gorm.DB, authz *services.AuthzService) *CollectionsHandler {
	return &CollectionsHandler{DB: db, Authz: authz}
}

type createCollectionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPublic    bool   `json:"isPublic"`
}

func (h *CollectionsHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req createCollectionRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)

	if req.Name == "" {
		return utils.Error(c, fiber.StatusBadRequest, "name is required")
	}
	if len(req.Name) > models.CollectionNameMaxLen {
		return utils.Error(c, fiber.StatusBadRequest, "name cannot be more than 100 characters")
	}
	if len(req.Description) > models.CollectionDescriptionMaxLen {
		return utils.Error(c, fiber.StatusBadRequest, "description cannot be more than 500 characters")
	}

	// A plain user asking for a public collection is declined outright,
	// nothing is created.
	if req.IsPublic && !h.Authz.Can(currentUser, services.OpCollectionShare) {
		return utils.Error(c, fiber.StatusForbidden, "only reviewers may create public collections")
	}

	collection := models.Collection{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     currentUser.ID,
		IsPublic:    req.IsPublic && h.Authz.Can(currentUser, services.OpCollectionShare),
	}

	if err := h.DB.Create(&collection).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating collection")
	}

	logger.InfoWithUser(currentUser.ID.String(), "collection_created", map[string]interface{}{
		"collection_id": collection.ID.String(),
		"name":          collection.Name,
		"is_public":     collection.IsPublic,
	})

	return utils.Success(c, fiber.StatusCreated, collection)
}

func (h *CollectionsHandler) ListMine(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	collections := make([]models.Collection, 0)
	if err := h.DB.
		Preload("Assets").
		Where("owner_id = ?", currentUser.ID).
		Order("updated_at DESC").
		Find(&collections).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing collections")
	}

	return utils.Success(c, fiber.StatusOK, collections)
}

// Get applies the visibility gate: non-owners may read only public
// collections.
func (h *CollectionsHandler) Get(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	collectionID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid collection id")
	}

	var collection models.Collection
	if err := h.DB.
		Preload("Assets").
		Preload("Assets.Uploader").
		First(&collection, "id = ?", collectionID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "collection not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading collection")
	}

	if !collection.IsPublic && collection.OwnerID != currentUser.ID {
		return utils.Error(c, fiber.StatusForbidden, "access denied")
	}

	return utils.Success(c, fiber.StatusOK, collection)
}

type updateCollectionRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsPublic    *bool   `json:"isPublic"`
}

func (h *CollectionsHandler) Update(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	collectionID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid collection id")
	}

	var collection models.Collection
	if err := h.DB.First(&collection, "id = ?", collectionID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "collection not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading collection")
	}

	if !h.Authz.CanOn(currentUser, services.OpCollectionEdit, collection.OwnerID) {
		return utils.Error(c, fiber.StatusForbidden, "access denied")
	}

	var req updateCollectionRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return utils.Error(c, fiber.StatusBadRequest, "name cannot be empty")
		}
		if len(name) > models.CollectionNameMaxLen {
			return utils.Error(c, fiber.StatusBadRequest, "name cannot be more than 100 characters")
		}
		collection.Name = name
	}
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		if len(description) > models.CollectionDescriptionMaxLen {
			return utils.Error(c, fiber.StatusBadRequest, "description cannot be more than 500 characters")
		}
		collection.Description = description
	}

	// Visibility changes from non-reviewers are ignored, not rejected.
	if req.IsPublic != nil && h.Authz.Can(currentUser, services.OpCollectionShare) {
		collection.IsPublic = *req.IsPublic
	}

	if err := h.DB.Save(&collection).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating collection")
	}

	return utils.Success(c, fiber.StatusOK, collection)
}

func (h *CollectionsHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	collectionID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid collection id")
	}

	var collection models.Collection
	if err := h.DB.First(&collection, "id = ?", collectionID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "collection not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading collection")
	}

	if !h.Authz.CanOn(currentUser, services.OpCollectionOwn, collection.OwnerID) {
		return utils.Error(c, fiber.StatusForbidden, "only the owner may delete a collection")
	}

	if err := h.DB.Model(&collection).Association("Assets").Clear(); err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed detaching collection assets")
	}
	if err := h.DB.Delete(&collection).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting collection")
	}

	logger.InfoWithUser(currentUser.ID.String(), "collection_deleted", map[string]interface{}{
		"collection_id": collection.ID.String(),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": true})
}

type collectionMemberRequest struct {
	AssetID string `json:"assetId"`
}

// AddAsset is idempotent: adding an asset that is already a member leaves
// the collection unchanged.
func (h *CollectionsHandler) AddAsset(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	collectionID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid collection id")
	}

	var req collectionMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	assetID, err := parseUUID(req.AssetID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid asset id")
	}

	var collection models.Collection
	if err := h.DB.Preload("Assets").First(&collection, "id = ?", collectionID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "collection not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading collection")
	}

	if !h.Authz.CanOn(currentUser, services.OpCollectionOwn, collection.OwnerID) {
		return utils.Error(c, fiber.StatusForbidden, "only the owner may modify a collection")
	}

	var asset models.Asset
	if err := h.DB.First(&asset, "id = ?", assetID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "asset not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading asset")
	}

	if !collection.Contains(asset.ID) {
		if err := h.DB.Model(&collection).Association("Assets").Append(&asset); err != nil {
			return utils.Error(c, fiber.StatusInternalServerError, "failed adding asset to collection")
		}
		collection.Assets = append(collection.Assets, asset)
	}

	return utils.Success(c, fiber.StatusOK, collection)
}

// RemoveAsset is idempotent: removing an asset that is not a member is a
// no-op.
func (h *CollectionsHandler) RemoveAsset(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	collectionID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid collection id")
	}

	var req collectionMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	assetID, err := parseUUID(req.AssetID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid asset id")
	}

	var collection models.Collection
	if err := h.DB.Preload("Assets").First(&collection, "id = ?", collectionID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "collection not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading collection")
	}

	if !h.Authz.CanOn(currentUser, services.OpCollectionOwn, collection.OwnerID) {
		return utils.Error(c, fiber.StatusForbidden, "only the owner may modify a collection")
	}

	if collection.Contains(assetID) {
		if err := h.DB.Model(&collection).Association("Assets").Delete(&models.Asset{BaseModel: models.BaseModel{ID: assetID}}); err != nil {
			return utils.Error(c, fiber.StatusInternalServerError, "failed removing asset from collection")
		}
		remaining := make([]models.Asset, 0, len(collection.Assets))
		for _, member := range collection.Assets {
			if member.ID != assetID {
				remaining = append(remaining, member)
			}
		}
		collection.Assets = remaining
	}

	return utils.Success(c, fiber.StatusOK, collection)
}
