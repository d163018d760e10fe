package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReservationUnlockedEvent signals a paid unlock of a property's contact details.
type ReservationUnlockedEvent struct {
	ReservationID  uuid.UUID       `json:"reservation_id"`
	StudentID      uuid.UUID       `json:"student_id"`
	PropertyID     uuid.UUID       `json:"property_id"`
	FeeAmount      decimal.Decimal `json:"fee_amount"`
	Currency       string          `json:"currency"`
	RoomsAvailable int             `json:"rooms_available"`
	PaidAt         time.Time       `json:"paid_at"`
}

// ReservationRefundedEvent is emitted when a paid unlock is refunded.
type ReservationRefundedEvent struct {
	ReservationID uuid.UUID       `json:"reservation_id"`
	StudentID     uuid.UUID       `json:"student_id"`
	PropertyID    uuid.UUID       `json:"property_id"`
	FeeAmount     decimal.Decimal `json:"fee_amount"`
	Currency      string          `json:"currency"`
	UnlockRevoked bool            `json:"unlock_revoked"`
	RefundedAt    time.Time       `json:"refunded_at"`
}

// ReservationOversoldEvent alerts operations that a paid unlock landed on a
// listing with no rooms left to decrement.
type ReservationOversoldEvent struct {
	ReservationID  uuid.UUID `json:"reservation_id"`
	StudentID      uuid.UUID `json:"student_id"`
	PropertyID     uuid.UUID `json:"property_id"`
	RoomsAvailable int       `json:"rooms_available"`
	DetectedAt     time.Time `json:"detected_at"`
}

// PropertyCreatedEvent signals a new landlord listing awaiting verification.
type PropertyCreatedEvent struct {
	PropertyID uuid.UUID `json:"property_id"`
	LandlordID uuid.UUID `json:"landlord_id"`
	City       string    `json:"city"`
	Area       string    `json:"area"`
	TotalRooms int       `json:"total_rooms"`
}

// PropertyVerifiedEvent is emitted when an admin verifies a listing.
type PropertyVerifiedEvent struct {
	PropertyID uuid.UUID `json:"property_id"`
	VerifiedAt time.Time `json:"verified_at"`
}
