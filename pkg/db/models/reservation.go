package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nestfinderhq/nestfinder-backend/pkg/enums"
)

// Reservation records a paid unlock of a property's sensitive details by a
// student. At most one row exists per (student, property) pair, enforced by
// the ux_reservations_student_property constraint.
type Reservation struct {
	ID                    uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StudentID             uuid.UUID           `gorm:"column:student_id;type:uuid;not null;index"`
	PropertyID            uuid.UUID           `gorm:"column:property_id;type:uuid;not null;index"`
	FeeAmount             decimal.Decimal     `gorm:"column:fee_amount;type:numeric(12,2);not null"`
	Currency              string              `gorm:"column:currency;not null;default:'ngn'"`
	PaymentStatus         enums.PaymentStatus `gorm:"column:payment_status;type:payment_status;not null;default:'pending'"`
	StripePaymentIntentID *string             `gorm:"column:stripe_payment_intent_id;uniqueIndex"`
	UnlockGranted         bool                `gorm:"column:unlock_granted;not null;default:false"`
	RoomDecremented       bool                `gorm:"column:room_decremented;not null;default:false"`
	PaidAt                *time.Time          `gorm:"column:paid_at"`
	RefundedAt            *time.Time          `gorm:"column:refunded_at"`
	CreatedAt             time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
