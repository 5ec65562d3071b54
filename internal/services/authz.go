package services

import (
	"github.com/google/uuid"
	"github.com/newsflow/backend/internal/models"
)

// Operation names every role- or ownership-gated action in the API.
type Operation string

const (
	OpAssetUpload     Operation = "asset.upload"
	OpAssetList       Operation = "asset.list"
	OpAssetDelete     Operation = "asset.delete"
	OpAssetReview     Operation = "asset.review"
	OpAssetSetStatus  Operation = "asset.set_status"
	OpCollectionOwn   Operation = "collection.own"
	OpCollectionEdit  Operation = "collection.edit"
	OpCollectionShare Operation = "collection.share"
	OpUserList        Operation = "user.list"
	OpUserSetStatus   Operation = "user.set_status"
)

// capability describes who may perform an operation: any of the listed
// roles, and/or the owner of the target entity. Ownership is orthogonal to
// role: an admin does not own another user's collection.
type capability struct {
	roles        []models.UserRole
	ownerAllowed bool
}

var capabilities = map[Operation]capability{
	OpAssetUpload:     {roles: []models.UserRole{models.UserRoleUser, models.UserRoleReviewer, models.UserRoleAdmin}},
	OpAssetList:       {roles: []models.UserRole{models.UserRoleUser, models.UserRoleReviewer, models.UserRoleAdmin}},
	OpAssetDelete:     {ownerAllowed: true},
	OpAssetReview:     {roles: []models.UserRole{models.UserRoleReviewer, models.UserRoleAdmin}},
	OpAssetSetStatus:  {roles: []models.UserRole{models.UserRoleReviewer, models.UserRoleAdmin}},
	OpCollectionOwn:   {ownerAllowed: true},
	OpCollectionEdit:  {roles: []models.UserRole{models.UserRoleReviewer, models.UserRoleAdmin}, ownerAllowed: true},
	OpCollectionShare: {roles: []models.UserRole{models.UserRoleReviewer, models.UserRoleAdmin}},
	OpUserList:        {roles: []models.UserRole{models.UserRoleAdmin}},
	OpUserSetStatus:   {roles: []models.UserRole{models.UserRoleAdmin}},
}

// AuthzService evaluates the capability table. It replaces per-route role
// conditionals with a single policy consulted by every handler.
type AuthzService struct{}

func NewAuthzService() *AuthzService {
	return &AuthzService{}
}

// Can reports whether the user's role alone permits the operation.
func (a *AuthzService) Can(user *models.User, op Operation) bool {
	return a.CanOn(user, op, uuid.Nil)
}

// CanOn reports whether the user may perform the operation against an
// entity owned by ownerID. A nil user is never authorized.
func (a *AuthzService) CanOn(user *models.User, op Operation, ownerID uuid.UUID) bool {
	if user == nil {
		return false
	}

	entry, known := capabilities[op]
	if !known {
		return false
	}

	for _, role := range entry.roles {
		if user.Role == role {
			return true
		}
	}
	if entry.ownerAllowed && ownerID != uuid.Nil && user.ID == ownerID {
		return true
	}
	return false
}
