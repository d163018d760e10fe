package properties

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nestfinderhq/nestfinder-backend/pkg/db/models"
	"github.com/nestfinderhq/nestfinder-backend/pkg/enums"
)

// PropertyDTO represents the listing payload returned to clients. Address and
// ContactPhone stay nil until the viewer has earned access to them.
type PropertyDTO struct {
	ID             uuid.UUID          `json:"id"`
	LandlordID     uuid.UUID          `json:"landlord_id"`
	Title          string             `json:"title"`
	Description    *string            `json:"description,omitempty"`
	Tier           string             `json:"tier"`
	City           string             `json:"city"`
	Area           string             `json:"area"`
	Address        *string            `json:"address,omitempty"`
	ContactPhone   *string            `json:"contact_phone,omitempty"`
	Amenities      []string           `json:"amenities"`
	AnnualRent     decimal.Decimal    `json:"annual_rent"`
	TotalRooms     int                `json:"total_rooms"`
	RoomsAvailable int                `json:"rooms_available"`
	UnlockFee      decimal.Decimal    `json:"unlock_fee"`
	IsActive       bool               `json:"is_active"`
	IsVerified     bool               `json:"is_verified"`
	Unlocked       bool               `json:"unlocked"`
	Media          []PropertyMediaDTO `json:"media,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// PropertyMediaDTO captures listing media metadata.
type PropertyMediaDTO struct {
	ID        uuid.UUID `json:"id"`
	Kind      string    `json:"kind"`
	URL       *string   `json:"url,omitempty"`
	GCSKey    string    `json:"gcs_key"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// PropertySummary is the compact row shape used by list endpoints. Summaries
// never carry sensitive fields.
type PropertySummary struct {
	ID             uuid.UUID       `json:"id"`
	LandlordID     uuid.UUID       `json:"landlord_id"`
	Title          string          `json:"title"`
	Tier           string          `json:"tier"`
	City           string          `json:"city"`
	Area           string          `json:"area"`
	AnnualRent     decimal.Decimal `json:"annual_rent"`
	TotalRooms     int             `json:"total_rooms"`
	RoomsAvailable int             `json:"rooms_available"`
	UnlockFee      decimal.Decimal `json:"unlock_fee"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// PropertyListResult pairs a page of summaries with the next cursor.
type PropertyListResult struct {
	Properties []PropertySummary `json:"properties"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

// NewPropertyDTO builds a DTO from the persisted model. Sensitive fields are
// included only when revealSensitive is true.
func NewPropertyDTO(property *models.Property, unlockFee decimal.Decimal, revealSensitive bool) *PropertyDTO {
	dto := &PropertyDTO{
		ID:             property.ID,
		LandlordID:     property.LandlordID,
		Title:          property.Title,
		Description:    property.Description,
		Tier:           string(property.Tier),
		City:           property.City,
		Area:           property.Area,
		Amenities:      append([]string{}, property.Amenities...),
		AnnualRent:     property.AnnualRent,
		TotalRooms:     property.TotalRooms,
		RoomsAvailable: property.RoomsAvailable,
		UnlockFee:      unlockFee,
		IsActive:       property.IsActive,
		IsVerified:     property.IsVerified,
		Unlocked:       revealSensitive,
		CreatedAt:      property.CreatedAt,
		UpdatedAt:      property.UpdatedAt,
	}

	if revealSensitive {
		address := property.Address
		phone := property.ContactPhone
		dto.Address = &address
		dto.ContactPhone = &phone
	}

	for _, pm := range property.Media {
		// Video tours are gated behind the unlock alongside the address
		// and contact fields.
		if pm.Kind == enums.MediaKindPropertyVideo && !revealSensitive {
			continue
		}
		dto.Media = append(dto.Media, PropertyMediaDTO{
			ID:        pm.ID,
			Kind:      string(pm.Kind),
			URL:       pm.URL,
			GCSKey:    pm.GCSKey,
			Position:  pm.Position,
			CreatedAt: pm.CreatedAt,
		})
	}

	return dto
}
