package models

import "github.com/google/uuid"

const (
	CollectionNameMaxLen        = 100
	CollectionDescriptionMaxLen = 500
)

type Collection struct {
	BaseModel
	Name        string    `json:"name" gorm:"type:varchar(100);not null"`
	Description string    `json:"description" gorm:"type:varchar(500)"`
	OwnerID     uuid.UUID `json:"ownerID" gorm:"type:uuid;not null;index"`
	IsPublic    bool      `json:"isPublic" gorm:"not null;default:false;index"`

	Owner  User    `json:"owner,omitempty" gorm:"foreignKey:OwnerID;references:ID"`
	Assets []Asset `json:"assets" gorm:"many2many:collection_assets"`
}

// Contains reports whether the collection references the given asset.
func (c *Collection) Contains(assetID uuid.UUID) bool {
	for _, asset := range c.Assets {
		if asset.ID == assetID {
			return true
		}
	}
	return false
}
