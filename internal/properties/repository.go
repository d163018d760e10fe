package properties

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nestfinderhq/nestfinder-backend/pkg/db/models"
	"github.com/nestfinderhq/nestfinder-backend/pkg/pagination"
)

// Repository wires together property persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads the property without associations.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	var property models.Property
	if err := r.db.WithContext(ctx).First(&property, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &property, nil
}

// GetPropertyDetail fetches a property with its media ordered by position.
func (r *Repository) GetPropertyDetail(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	var property models.Property
	err := r.db.WithContext(ctx).
		Preload("Media", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&property, "id = ?", id).
		Error
	if err != nil {
		return nil, err
	}
	return &property, nil
}

// CreateProperty inserts a new listing row.
func (r *Repository) CreateProperty(ctx context.Context, property *models.Property) (*models.Property, error) {
	if err := r.db.WithContext(ctx).Create(property).Error; err != nil {
		return nil, err
	}
	return property, nil
}

// UpdateProperty updates an existing listing row.
func (r *Repository) UpdateProperty(ctx context.Context, property *models.Property) (*models.Property, error) {
	if err := r.db.WithContext(ctx).Save(property).Error; err != nil {
		return nil, err
	}
	return property, nil
}

// Deactivate soft-removes the listing from public queries.
func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Property{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}

// MarkVerified flips the admin verification flag.
func (r *Repository) MarkVerified(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Property{}).
		Where("id = ?", id).
		Update("is_verified", true).Error
}

// ListByLandlord lists the properties owned by a landlord with media preloaded.
func (r *Repository) ListByLandlord(ctx context.Context, landlordID uuid.UUID) ([]models.Property, error) {
	var rows []models.Property
	err := r.db.WithContext(ctx).
		Preload("Media", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("landlord_id = ?", landlordID).
		Order("created_at DESC").
		Find(&rows).
		Error
	return rows, err
}

// ReplacePropertyMedia replaces the listing's media set.
func (r *Repository) ReplacePropertyMedia(ctx context.Context, propertyID uuid.UUID, media []models.PropertyMedia) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("property_id = ?", propertyID).Delete(&models.PropertyMedia{}).Error; err != nil {
		return err
	}
	if len(media) == 0 {
		return nil
	}
	return tx.Create(&media).Error
}

type propertyListQuery struct {
	Pagination pagination.Params
	Filters    PropertyListFilters
	LandlordID *uuid.UUID
}

// ListPropertySummaries pages through listings using a keyset cursor.
// Without a landlord scope only active, verified listings are returned.
func (r *Repository) ListPropertySummaries(ctx context.Context, query propertyListQuery) (*PropertyListResult, error) {
	pageSize := pagination.NormalizeLimit(query.Pagination.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(query.Pagination.Limit)
	if limitWithBuffer <= pageSize {
		limitWithBuffer = pageSize + 1
	}

	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, err
	}

	qb := r.db.WithContext(ctx).
		Table("properties p").
		Select(strings.Join([]string{
			"p.id",
			"p.landlord_id",
			"p.title",
			"p.tier",
			"p.city",
			"p.area",
			"p.annual_rent",
			"p.total_rooms",
			"p.rooms_available",
			"p.created_at",
			"p.updated_at",
		}, ", "))

	filter := query.Filters
	if filter.City != nil {
		qb = qb.Where("LOWER(p.city) = LOWER(?)", *filter.City)
	}
	if filter.Area != nil {
		qb = qb.Where("LOWER(p.area) = LOWER(?)", *filter.Area)
	}
	if filter.Tier != nil {
		qb = qb.Where("p.tier = ?", *filter.Tier)
	}
	if filter.RentMin != nil {
		qb = qb.Where("p.annual_rent >= ?", *filter.RentMin)
	}
	if filter.RentMax != nil {
		qb = qb.Where("p.annual_rent <= ?", *filter.RentMax)
	}
	if filter.HasRooms != nil && *filter.HasRooms {
		qb = qb.Where("p.rooms_available > 0")
	}
	if search := strings.TrimSpace(filter.Query); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("(LOWER(p.title) LIKE ? OR LOWER(p.area) LIKE ?)", pattern, pattern)
	}

	if query.LandlordID != nil {
		qb = qb.Where("p.landlord_id = ?", *query.LandlordID)
	} else {
		qb = qb.Where("p.is_active = ?", true)
		qb = qb.Where("p.is_verified = ?", true)
	}

	if cursor != nil {
		qb = qb.Where("(p.created_at < ?) OR (p.created_at = ? AND p.id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	qb = qb.Order("p.created_at DESC").Order("p.id DESC").Limit(limitWithBuffer)

	var records []propertySummaryRecord
	if err := qb.Scan(&records).Error; err != nil {
		return nil, err
	}

	resultRows := records
	nextCursor := ""
	if len(records) > pageSize {
		resultRows = records[:pageSize]
		last := resultRows[len(resultRows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	summaries := make([]PropertySummary, 0, len(resultRows))
	for _, record := range resultRows {
		summaries = append(summaries, record.toSummary())
	}

	return &PropertyListResult{
		Properties: summaries,
		NextCursor: nextCursor,
	}, nil
}

type propertySummaryRecord struct {
	ID             uuid.UUID
	LandlordID     uuid.UUID
	Title          string
	Tier           string
	City           string
	Area           string
	AnnualRent     decimal.Decimal
	TotalRooms     int
	RoomsAvailable int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (r propertySummaryRecord) toSummary() PropertySummary {
	return PropertySummary{
		ID:             r.ID,
		LandlordID:     r.LandlordID,
		Title:          r.Title,
		Tier:           r.Tier,
		City:           r.City,
		Area:           r.Area,
		AnnualRent:     r.AnnualRent,
		TotalRooms:     r.TotalRooms,
		RoomsAvailable: r.RoomsAvailable,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}
