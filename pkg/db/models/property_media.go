package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nestfinderhq/nestfinder-backend/pkg/enums"
)

// PropertyMedia stores ordered media entries for property listings. Video
// entries are gated behind a paid unlock; images are public listing media.
type PropertyMedia struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PropertyID uuid.UUID       `gorm:"column:property_id;type:uuid;not null"`
	Kind       enums.MediaKind `gorm:"column:kind;type:media_kind;not null;default:'property_image'"`
	URL        *string         `gorm:"column:url"`
	GCSKey     string          `gorm:"column:gcs_key;not null"`
	MediaID    *uuid.UUID      `gorm:"column:media_id;type:uuid"`
	Position   int             `gorm:"column:position;not null;default:0"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
