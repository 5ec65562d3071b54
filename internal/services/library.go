package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/newsflow/backend/internal/models"
	"gorm.io/gorm"
)

// Collections shown in the library carry at most this many assets, enough
// for a thumbnail strip.
const libraryThumbnailCount = 4

type LibraryView struct {
	Collections []models.Collection `json:"collections"`
	Assets      []models.Asset      `json:"assets"`
}

// LibraryService builds the shared library view: every public collection
// plus the approved assets not already grouped into one.
type LibraryService struct {
	DB *gorm.DB
}

func NewLibraryService(db *gorm.DB) *LibraryService {
	return &LibraryService{DB: db}
}

func (s *LibraryService) Aggregate(ctx context.Context) (*LibraryView, error) {
	var collections []models.Collection
	if err := s.DB.WithContext(ctx).
		Preload("Assets").
		Where("is_public = ?", true).
		Order("created_at DESC").
		Find(&collections).Error; err != nil {
		return nil, err
	}

	// The exclusion set must cover every asset in any public collection,
	// not just the thumbnails kept below.
	grouped := make([]uuid.UUID, 0)
	seen := map[uuid.UUID]bool{}
	for _, collection := range collections {
		for _, asset := range collection.Assets {
			if !seen[asset.ID] {
				grouped = append(grouped, asset.ID)
				seen[asset.ID] = true
			}
		}
	}

	for i := range collections {
		if len(collections[i].Assets) > libraryThumbnailCount {
			collections[i].Assets = collections[i].Assets[:libraryThumbnailCount]
		}
	}

	query := s.DB.WithContext(ctx).
		Where("status = ?", models.AssetStatusApproved).
		Order("created_at DESC")
	if len(grouped) > 0 {
		query = query.Where("id NOT IN ?", grouped)
	}

	assets := make([]models.Asset, 0)
	if err := query.Find(&assets).Error; err != nil {
		return nil, err
	}

	return &LibraryView{Collections: collections, Assets: assets}, nil
}
