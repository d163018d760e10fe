package media

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nestfinderhq/nestfinder-backend/pkg/db/models"
)

// Repository persists media upload metadata.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a media row.
func (r *Repository) Create(ctx context.Context, media *models.Media) (*models.Media, error) {
	if media.ID == uuid.Nil {
		media.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(media).Error; err != nil {
		return nil, err
	}
	return media, nil
}

// FindByID loads a media row.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Media, error) {
	var media models.Media
	if err := r.db.WithContext(ctx).First(&media, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &media, nil
}

// MarkUploaded transitions a pending row to uploaded and records the public URL.
func (r *Repository) MarkUploaded(ctx context.Context, id uuid.UUID, url string) error {
	return r.db.WithContext(ctx).
		Model(&models.Media{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": "uploaded", "url": url}).
		Error
}

// Delete removes a media row. Used to roll back rows whose signed URL could
// not be minted.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Media{}, "id = ?", id).Error
}
