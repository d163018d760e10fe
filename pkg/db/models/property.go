package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/nestfinderhq/nestfinder-backend/pkg/enums"
)

// Property represents the canonical landlord listing.
type Property struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	LandlordID     uuid.UUID          `gorm:"column:landlord_id;type:uuid;not null;index"`
	Title          string             `gorm:"column:title;not null"`
	Description    *string            `gorm:"column:description"`
	Tier           enums.PropertyTier `gorm:"column:tier;type:property_tier;not null;default:'standard'"`
	City           string             `gorm:"column:city;not null"`
	Area           string             `gorm:"column:area;not null"`
	Address        string             `gorm:"column:address;not null"`
	ContactPhone   string             `gorm:"column:contact_phone;not null"`
	Amenities      pq.StringArray     `gorm:"column:amenities;type:text[];not null;default:ARRAY[]::text[]"`
	AnnualRent     decimal.Decimal    `gorm:"column:annual_rent;type:numeric(12,2);not null"`
	TotalRooms     int                `gorm:"column:total_rooms;not null"`
	RoomsAvailable int                `gorm:"column:rooms_available;not null"`
	UnlockFee      decimal.Decimal    `gorm:"column:unlock_fee;type:numeric(12,2);not null"`
	IsActive       bool               `gorm:"column:is_active;not null;default:true"`
	IsVerified     bool               `gorm:"column:is_verified;not null;default:false"`
	Media          []PropertyMedia    `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
