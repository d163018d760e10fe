package reservations

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nestfinderhq/nestfinder-backend/pkg/db/models"
	"github.com/nestfinderhq/nestfinder-backend/pkg/enums"
	pkgerrors "github.com/nestfinderhq/nestfinder-backend/pkg/errors"
	"github.com/nestfinderhq/nestfinder-backend/pkg/pagination"
)

// Repository exposes reservation ledger persistence. Ledger rows are never
// deleted; refunds are status transitions.
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

// Create inserts a new ledger row. Callers must handle the
// ux_reservations_student_property unique violation.
func (r *Repository) Create(ctx context.Context, reservation *models.Reservation) (*models.Reservation, error) {
	if reservation.ID == uuid.Nil {
		reservation.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(reservation).Error; err != nil {
		return nil, err
	}
	return reservation, nil
}

// FindByID loads a reservation by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := r.db.WithContext(ctx).First(&reservation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &reservation, nil
}

// FindByStudentAndProperty returns the single ledger row for the pair.
func (r *Repository) FindByStudentAndProperty(ctx context.Context, studentID, propertyID uuid.UUID) (*models.Reservation, error) {
	var reservation models.Reservation
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND property_id = ?", studentID, propertyID).
		First(&reservation).
		Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// FindByPaymentIntentID resolves a ledger row from the Stripe reference.
func (r *Repository) FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*models.Reservation, error) {
	var reservation models.Reservation
	err := r.db.WithContext(ctx).
		Where("stripe_payment_intent_id = ?", paymentIntentID).
		First(&reservation).
		Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// Save persists mutations on an existing ledger row.
func (r *Repository) Save(ctx context.Context, reservation *models.Reservation) (*models.Reservation, error) {
	if err := r.db.WithContext(ctx).Save(reservation).Error; err != nil {
		return nil, err
	}
	return reservation, nil
}

// GrantIfPending transitions a pending ledger row to paid with the unlock
// granted, conditionally on the row still being pending. It reports false
// when the row was no longer pending, meaning another writer already settled
// it (or a refund made the row terminal).
func (r *Repository) GrantIfPending(ctx context.Context, reservation *models.Reservation) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ? AND payment_status = ?", reservation.ID, enums.PaymentStatusPending).
		Updates(map[string]any{
			"payment_status":           enums.PaymentStatusPaid,
			"unlock_granted":           true,
			"fee_amount":               reservation.FeeAmount,
			"currency":                 reservation.Currency,
			"paid_at":                  reservation.PaidAt,
			"stripe_payment_intent_id": reservation.StripePaymentIntentID,
		})
	if res.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "grant pending reservation")
	}
	return res.RowsAffected > 0, nil
}

// HasUnlock reports whether the student holds a granted unlock for the
// property. Used by the read-time visibility gate.
func (r *Repository) HasUnlock(ctx context.Context, studentID, propertyID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("student_id = ? AND property_id = ? AND unlock_granted = ?", studentID, propertyID, true).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// DecrementRoomIfAvailable performs the single atomic conditional decrement.
// It reports false when no row qualified, which is the oversell signal.
func (r *Repository) DecrementRoomIfAvailable(ctx context.Context, propertyID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE properties
		SET rooms_available = rooms_available - 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND rooms_available > 0
	`, propertyID)
	if res.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "decrement rooms_available")
	}
	return res.RowsAffected > 0, nil
}

// IncrementRoomBounded returns a refunded room to availability, capped at
// total_rooms so concurrent refunds can never overshoot.
func (r *Repository) IncrementRoomBounded(ctx context.Context, propertyID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE properties
		SET rooms_available = rooms_available + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND rooms_available < total_rooms
	`, propertyID)
	if res.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "increment rooms_available")
	}
	return res.RowsAffected > 0, nil
}

type reservationListQuery struct {
	StudentID  uuid.UUID
	Pagination pagination.Params
}

// ListByStudent pages through the student's ledger rows, newest first.
func (r *Repository) ListByStudent(ctx context.Context, query reservationListQuery) ([]models.Reservation, string, error) {
	pageSize := pagination.NormalizeLimit(query.Pagination.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(query.Pagination.Limit)
	if limitWithBuffer <= pageSize {
		limitWithBuffer = pageSize + 1
	}

	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, "", err
	}

	qb := r.db.WithContext(ctx).
		Where("student_id = ?", query.StudentID)
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Reservation
	err = qb.Order("created_at DESC").
		Order("id DESC").
		Limit(limitWithBuffer).
		Find(&rows).
		Error
	if err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, nextCursor, nil
}
