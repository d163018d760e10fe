package reservations

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nestfinderhq/nestfinder-backend/pkg/db/models"
)

// ReservationDTO is the ledger row shape returned to clients.
type ReservationDTO struct {
	ID            uuid.UUID       `json:"id"`
	StudentID     uuid.UUID       `json:"student_id"`
	PropertyID    uuid.UUID       `json:"property_id"`
	FeeAmount     decimal.Decimal `json:"fee_amount"`
	Currency      string          `json:"currency"`
	PaymentStatus string          `json:"payment_status"`
	UnlockGranted bool            `json:"unlock_granted"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	RefundedAt    *time.Time      `json:"refunded_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// QuoteRequest asks for the unlock fee of a property.
type QuoteRequest struct {
	PropertyID uuid.UUID `json:"property_id" validate:"required"`
}

// QuoteResponse carries the authoritative fee for the property as priced now.
type QuoteResponse struct {
	PropertyID uuid.UUID       `json:"property_id"`
	FeeAmount  decimal.Decimal `json:"fee_amount"`
	Currency   string          `json:"currency"`
}

// CreateIntentRequest asks the server to mint a PaymentIntent for an unlock.
type CreateIntentRequest struct {
	PropertyID uuid.UUID `json:"property_id" validate:"required"`
}

// CreateIntentResponse returns the client secret the frontend hands to
// Stripe's payment surface. The fee echoed here is informational; the charge
// amount was fixed server-side when the intent was minted.
type CreateIntentResponse struct {
	ReservationID   uuid.UUID       `json:"reservation_id"`
	PaymentIntentID string          `json:"payment_intent_id"`
	ClientSecret    string          `json:"client_secret"`
	FeeAmount       decimal.Decimal `json:"fee_amount"`
	Currency        string          `json:"currency"`
}

// ReservationListResult pairs a page of ledger rows with the next cursor.
type ReservationListResult struct {
	Reservations []ReservationDTO `json:"reservations"`
	NextCursor   string           `json:"next_cursor,omitempty"`
}

// NewReservationDTO maps the persisted model to its transport shape.
func NewReservationDTO(r *models.Reservation) ReservationDTO {
	return ReservationDTO{
		ID:            r.ID,
		StudentID:     r.StudentID,
		PropertyID:    r.PropertyID,
		FeeAmount:     r.FeeAmount,
		Currency:      r.Currency,
		PaymentStatus: string(r.PaymentStatus),
		UnlockGranted: r.UnlockGranted,
		PaidAt:        r.PaidAt,
		RefundedAt:    r.RefundedAt,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}
