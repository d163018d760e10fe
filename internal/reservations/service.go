package reservations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/nestfinderhq/nestfinder-backend/pkg/config"
	pkgdb "github.com/nestfinderhq/nestfinder-backend/pkg/db"
	"github.com/nestfinderhq/nestfinder-backend/pkg/db/models"
	"github.com/nestfinderhq/nestfinder-backend/pkg/enums"
	pkgerrors "github.com/nestfinderhq/nestfinder-backend/pkg/errors"
	"github.com/nestfinderhq/nestfinder-backend/pkg/feecalc"
	"github.com/nestfinderhq/nestfinder-backend/pkg/logger"
	"github.com/nestfinderhq/nestfinder-backend/pkg/metrics"
	"github.com/nestfinderhq/nestfinder-backend/pkg/outbox"
	"github.com/nestfinderhq/nestfinder-backend/pkg/outbox/payloads"
	"github.com/nestfinderhq/nestfinder-backend/pkg/pagination"
	"github.com/nestfinderhq/nestfinder-backend/pkg/visibility"
)

// Stripe metadata keys carried on every PaymentIntent so the webhook can map
// a payment back to its (student, property) pair.
const (
	MetadataStudentID  = "student_id"
	MetadataPropertyID = "property_id"
)

// Service exposes the unlock workflow and the reservation ledger.
type Service interface {
	Quote(ctx context.Context, viewer visibility.Viewer, req QuoteRequest) (*QuoteResponse, error)
	CreatePaymentIntent(ctx context.Context, studentID uuid.UUID, req CreateIntentRequest) (*CreateIntentResponse, error)
	GrantUnlock(ctx context.Context, input GrantUnlockInput) (*ReservationDTO, error)
	RequestRefund(ctx context.Context, studentID, reservationID uuid.UUID) (*ReservationDTO, error)
	ListReservations(ctx context.Context, studentID uuid.UUID, page pagination.Params) (*ReservationListResult, error)
	HasUnlock(ctx context.Context, studentID, propertyID uuid.UUID) (bool, error)
}

// GrantUnlockInput carries the facts established by the verified payment
// event. The fee stored on the ledger row is recomputed from the property,
// never taken from the payment payload.
type GrantUnlockInput struct {
	StudentID       uuid.UUID
	PropertyID      uuid.UUID
	PaymentIntentID string
	PaidAt          time.Time
}

// PaymentIntentClient is the subset of Stripe used to mint intents.
type PaymentIntentClient interface {
	CreateIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type propertyLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Property, error)
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ServiceParams bundles the dependencies of the reservation service.
type ServiceParams struct {
	Repo       *Repository
	DB         *pkgdb.Client
	Properties propertyLoader
	Outbox     outboxEmitter
	Stripe     PaymentIntentClient
	Metrics    *metrics.ReservationMetrics
	Config     config.ReservationsConfig
	Logger     *logger.Logger
}

type service struct {
	repo       *Repository
	dbClient   *pkgdb.Client
	properties propertyLoader
	outbox     outboxEmitter
	stripe     PaymentIntentClient
	metrics    *metrics.ReservationMetrics
	cfg        config.ReservationsConfig
	logg       *logger.Logger
}

// NewService constructs the reservation service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("reservation repository required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	if params.Properties == nil {
		return nil, fmt.Errorf("property loader required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:       params.Repo,
		dbClient:   params.DB,
		properties: params.Properties,
		outbox:     params.Outbox,
		stripe:     params.Stripe,
		metrics:    params.Metrics,
		cfg:        params.Config,
		logg:       params.Logger,
	}, nil
}

// Quote prices an unlock for the property as it stands now. The stored
// unlock_fee column is advisory; the fee is always recomputed from
// annual_rent and total_rooms.
func (s *service) Quote(ctx context.Context, viewer visibility.Viewer, req QuoteRequest) (*QuoteResponse, error) {
	property, err := s.loadVisibleProperty(ctx, viewer, req.PropertyID)
	if err != nil {
		return nil, err
	}

	fee, err := feecalc.UnlockFee(property.AnnualRent, property.TotalRooms)
	if err != nil {
		return nil, err
	}

	return &QuoteResponse{
		PropertyID: property.ID,
		FeeAmount:  fee,
		Currency:   s.currency(),
	}, nil
}

// CreatePaymentIntent mints a Stripe PaymentIntent for the authoritative fee
// and records a pending ledger row. The client only ever receives the client
// secret; the amount cannot be influenced from the outside.
func (s *service) CreatePaymentIntent(ctx context.Context, studentID uuid.UUID, req CreateIntentRequest) (*CreateIntentResponse, error) {
	if s.stripe == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stripe client not configured")
	}

	viewer := visibility.Viewer{UserID: studentID, Role: enums.UserRoleStudent}
	property, err := s.loadVisibleProperty(ctx, viewer, req.PropertyID)
	if err != nil {
		return nil, err
	}
	if property.LandlordID == studentID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot unlock your own listing")
	}

	fee, err := feecalc.UnlockFee(property.AnnualRent, property.TotalRooms)
	if err != nil {
		return nil, err
	}
	minor, err := feecalc.UnlockFeeMinorUnits(property.AnnualRent, property.TotalRooms)
	if err != nil {
		return nil, err
	}

	reservation, err := s.ensurePendingReservation(ctx, studentID, property.ID, fee)
	if err != nil {
		return nil, err
	}
	if reservation.PaymentStatus == enums.PaymentStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "property already unlocked")
	}
	if reservation.PaymentStatus == enums.PaymentStatusRefunded {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "reservation was refunded and cannot be reopened")
	}

	intent, err := s.stripe.CreateIntent(ctx, &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(minor),
		Currency: stripe.String(s.currency()),
		Metadata: map[string]string{
			MetadataStudentID:  studentID.String(),
			MetadataPropertyID: property.ID.String(),
		},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stripe: create payment intent")
	}

	reservation.StripePaymentIntentID = &intent.ID
	reservation.FeeAmount = fee
	reservation.Currency = s.currency()
	if _, err := s.repo.Save(ctx, reservation); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save reservation")
	}

	return &CreateIntentResponse{
		ReservationID:   reservation.ID,
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		FeeAmount:       fee,
		Currency:        s.currency(),
	}, nil
}

// GrantUnlock is the single entry point for turning a verified payment into
// an unlock. It is idempotent per (student, property): replays return the
// existing grant without touching the counter again.
//
// Oversell policy: when the conditional decrement affects no rows the student
// keeps the unlock they paid for, and an operational alert goes out instead
// of rolling back.
func (s *service) GrantUnlock(ctx context.Context, input GrantUnlockInput) (*ReservationDTO, error) {
	if input.StudentID == uuid.Nil || input.PropertyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "student and property ids required")
	}
	paidAt := input.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now().UTC()
	}

	property, err := s.properties.FindByID(ctx, input.PropertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "property not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load property")
	}

	fee, err := feecalc.UnlockFee(property.AnnualRent, property.TotalRooms)
	if err != nil {
		return nil, err
	}

	var result *models.Reservation
	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		reservation, err := s.upsertGrantedRow(ctx, txRepo, input, fee, paidAt)
		if err != nil {
			return err
		}
		if reservation == nil {
			// Replay of an already granted unlock.
			existing, err := txRepo.FindByStudentAndProperty(ctx, input.StudentID, input.PropertyID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload reservation")
			}
			result = existing
			return nil
		}

		decremented, err := txRepo.DecrementRoomIfAvailable(ctx, input.PropertyID)
		if err != nil {
			return err
		}
		reservation.RoomDecremented = decremented
		if _, err := txRepo.Save(ctx, reservation); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save reservation")
		}
		result = reservation

		if !decremented {
			return s.emitOversold(ctx, tx, reservation)
		}

		s.metrics.IncUnlock(string(property.Tier))
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReservationUnlocked,
			AggregateType: enums.AggregateReservation,
			AggregateID:   reservation.ID,
			Actor:         &outbox.ActorRef{UserID: input.StudentID, Role: string(enums.UserRoleStudent)},
			Data: payloads.ReservationUnlockedEvent{
				ReservationID:  reservation.ID,
				StudentID:      reservation.StudentID,
				PropertyID:     reservation.PropertyID,
				FeeAmount:      reservation.FeeAmount,
				Currency:       reservation.Currency,
				RoomsAvailable: property.RoomsAvailable - 1,
				PaidAt:         paidAt,
			},
		})
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "grant unlock")
	}

	dto := NewReservationDTO(result)
	return &dto, nil
}

// upsertGrantedRow inserts or transitions the ledger row to paid+granted.
// It returns (nil, nil) when the row was already settled, the idempotent
// no-op case: an existing grant replays as-is, and a refunded row is
// terminal so a replayed payment event can never resurrect it.
func (s *service) upsertGrantedRow(ctx context.Context, txRepo *Repository, input GrantUnlockInput, fee decimal.Decimal, paidAt time.Time) (*models.Reservation, error) {
	existing, err := txRepo.FindByStudentAndProperty(ctx, input.StudentID, input.PropertyID)
	switch {
	case err == nil:
		return s.grantExistingRow(ctx, txRepo, existing, input, fee, paidAt)
	case errors.Is(err, gorm.ErrRecordNotFound):
		// fall through to insert
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read reservation")
	}

	reservation := &models.Reservation{
		StudentID:  input.StudentID,
		PropertyID: input.PropertyID,
	}
	s.markGranted(reservation, input, fee, paidAt)

	if _, err := txRepo.Create(ctx, reservation); err != nil {
		if pkgdb.IsUniqueViolation(err, "ux_reservations_student_property") {
			// Lost the insert race; fall back to the idempotent read.
			raced, readErr := txRepo.FindByStudentAndProperty(ctx, input.StudentID, input.PropertyID)
			if readErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, readErr, "read raced reservation")
			}
			return s.grantExistingRow(ctx, txRepo, raced, input, fee, paidAt)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert reservation")
	}
	return reservation, nil
}

// grantExistingRow settles a pre-existing pair row. Only the pending ->
// paid edge touches the counter; the transition is a conditional UPDATE on
// payment_status so two success events racing on the same row can never
// both claim it.
func (s *service) grantExistingRow(ctx context.Context, txRepo *Repository, existing *models.Reservation, input GrantUnlockInput, fee decimal.Decimal, paidAt time.Time) (*models.Reservation, error) {
	if existing.UnlockGranted || existing.PaymentStatus != enums.PaymentStatusPending {
		return nil, nil
	}

	s.markGranted(existing, input, fee, paidAt)
	granted, err := txRepo.GrantIfPending(ctx, existing)
	if err != nil {
		return nil, err
	}
	if !granted {
		// Another writer settled the row between the read and the update.
		return nil, nil
	}
	return existing, nil
}

func (s *service) markGranted(r *models.Reservation, input GrantUnlockInput, fee decimal.Decimal, paidAt time.Time) {
	r.PaymentStatus = enums.PaymentStatusPaid
	r.UnlockGranted = true
	r.FeeAmount = fee
	r.Currency = s.currency()
	r.PaidAt = &paidAt
	if input.PaymentIntentID != "" {
		pi := input.PaymentIntentID
		r.StripePaymentIntentID = &pi
	}
}

func (s *service) emitOversold(ctx context.Context, tx *gorm.DB, reservation *models.Reservation) error {
	s.metrics.IncOversell()
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"reservation_id": reservation.ID.String(),
		"property_id":    reservation.PropertyID.String(),
	})
	s.logg.Warn(logCtx, "unlock granted with no rooms left to decrement")

	return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventReservationOversold,
		AggregateType: enums.AggregateReservation,
		AggregateID:   reservation.ID,
		Data: payloads.ReservationOversoldEvent{
			ReservationID:  reservation.ID,
			StudentID:      reservation.StudentID,
			PropertyID:     reservation.PropertyID,
			RoomsAvailable: 0,
			DetectedAt:     time.Now().UTC(),
		},
	})
}

// RequestRefund transitions the caller's own paid reservation to refunded.
// The room returns to availability only if the grant actually took one, and
// the increment is bounded at total_rooms. Whether the unlock survives the
// refund is a configuration choice.
func (s *service) RequestRefund(ctx context.Context, studentID, reservationID uuid.UUID) (*ReservationDTO, error) {
	var result *models.Reservation
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		reservation, err := txRepo.FindByID(ctx, reservationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "reservation not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reservation")
		}
		if reservation.StudentID != studentID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "reservation does not belong to student")
		}
		if reservation.PaymentStatus == enums.PaymentStatusRefunded {
			result = reservation
			return nil
		}
		if reservation.PaymentStatus != enums.PaymentStatusPaid {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only paid reservations can be refunded")
		}

		now := time.Now().UTC()
		reservation.PaymentStatus = enums.PaymentStatusRefunded
		reservation.RefundedAt = &now

		unlockRevoked := false
		if s.cfg.RevokeUnlockOnRefund {
			reservation.UnlockGranted = false
			unlockRevoked = true
		}

		if reservation.RoomDecremented {
			if _, err := txRepo.IncrementRoomBounded(ctx, reservation.PropertyID); err != nil {
				return err
			}
			reservation.RoomDecremented = false
		}

		if _, err := txRepo.Save(ctx, reservation); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save reservation")
		}
		result = reservation

		tier := s.propertyTier(ctx, reservation.PropertyID)
		s.metrics.IncRefund(tier)

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReservationRefunded,
			AggregateType: enums.AggregateReservation,
			AggregateID:   reservation.ID,
			Actor:         &outbox.ActorRef{UserID: studentID, Role: string(enums.UserRoleStudent)},
			Data: payloads.ReservationRefundedEvent{
				ReservationID: reservation.ID,
				StudentID:     reservation.StudentID,
				PropertyID:    reservation.PropertyID,
				FeeAmount:     reservation.FeeAmount,
				Currency:      reservation.Currency,
				UnlockRevoked: unlockRevoked,
				RefundedAt:    now,
			},
		})
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "request refund")
	}

	dto := NewReservationDTO(result)
	return &dto, nil
}

// ListReservations pages through the student's own ledger rows.
func (s *service) ListReservations(ctx context.Context, studentID uuid.UUID, page pagination.Params) (*ReservationListResult, error) {
	rows, nextCursor, err := s.repo.ListByStudent(ctx, reservationListQuery{
		StudentID:  studentID,
		Pagination: page,
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reservations")
	}

	dtos := make([]ReservationDTO, len(rows))
	for i := range rows {
		dtos[i] = NewReservationDTO(&rows[i])
	}
	return &ReservationListResult{Reservations: dtos, NextCursor: nextCursor}, nil
}

// HasUnlock is the read-time disclosure check used by property reads.
func (s *service) HasUnlock(ctx context.Context, studentID, propertyID uuid.UUID) (bool, error) {
	return s.repo.HasUnlock(ctx, studentID, propertyID)
}

func (s *service) loadVisibleProperty(ctx context.Context, viewer visibility.Viewer, propertyID uuid.UUID) (*models.Property, error) {
	if propertyID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "property id required")
	}
	property, err := s.properties.FindByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "property not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load property")
	}
	if err := visibility.EnsurePropertyVisible(visibility.PropertyVisibilityInput{Property: property, Viewer: viewer}); err != nil {
		return nil, err
	}
	return property, nil
}

// ensurePendingReservation returns the existing pair row or inserts a pending
// one, absorbing the unique-violation race.
func (s *service) ensurePendingReservation(ctx context.Context, studentID, propertyID uuid.UUID, fee decimal.Decimal) (*models.Reservation, error) {
	existing, err := s.repo.FindByStudentAndProperty(ctx, studentID, propertyID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read reservation")
	}

	reservation := &models.Reservation{
		StudentID:     studentID,
		PropertyID:    propertyID,
		FeeAmount:     fee,
		Currency:      s.currency(),
		PaymentStatus: enums.PaymentStatusPending,
	}
	if _, err := s.repo.Create(ctx, reservation); err != nil {
		if pkgdb.IsUniqueViolation(err, "ux_reservations_student_property") {
			raced, readErr := s.repo.FindByStudentAndProperty(ctx, studentID, propertyID)
			if readErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, readErr, "read raced reservation")
			}
			return raced, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert reservation")
	}
	return reservation, nil
}

func (s *service) propertyTier(ctx context.Context, propertyID uuid.UUID) string {
	property, err := s.properties.FindByID(ctx, propertyID)
	if err != nil {
		return "unknown"
	}
	return string(property.Tier)
}

func (s *service) currency() string {
	currency := strings.ToLower(strings.TrimSpace(s.cfg.Currency))
	if currency == "" {
		currency = "ngn"
	}
	return currency
}
