package models

import "github.com/google/uuid"

type AssetStatus string

const (
	AssetStatusPending  AssetStatus = "pending"
	AssetStatusApproved AssetStatus = "approved"
	AssetStatusRejected AssetStatus = "rejected"
)

func ValidAssetStatus(value AssetStatus) bool {
	switch value {
	case AssetStatusPending, AssetStatusApproved, AssetStatusRejected:
		return true
	default:
		return false
	}
}

type Asset struct {
	BaseModel
	Title       string      `json:"title" gorm:"type:varchar(255);not null"`
	Description string      `json:"description" gorm:"type:text"`
	Tags        StringSet   `json:"tags" gorm:"type:text"`
	Category    string      `json:"category" gorm:"type:varchar(100);not null"`
	StorageKey  string      `json:"storageKey" gorm:"type:text;not null"`
	MimeType    string      `json:"mimeType" gorm:"type:varchar(255);not null"`
	Size        int64       `json:"size" gorm:"not null;default:0"`
	UploaderID  uuid.UUID   `json:"uploaderID" gorm:"type:uuid;not null;index"`
	Status      AssetStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	ReviewNotes string      `json:"reviewNotes" gorm:"type:text;not null;default:''"`

	Uploader    User         `json:"uploader,omitempty" gorm:"foreignKey:UploaderID;references:ID"`
	Collections []Collection `json:"-" gorm:"many2many:collection_assets"`
}
