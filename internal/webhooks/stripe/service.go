package stripewebhook

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/nestfinderhq/nestfinder-backend/internal/reservations"
	pkgerrors "github.com/nestfinderhq/nestfinder-backend/pkg/errors"
	"github.com/nestfinderhq/nestfinder-backend/pkg/logger"
)

// consumerName scopes the processed-event markers in Redis.
const consumerName = "stripe-webhook"

type reservationGranter interface {
	GrantUnlock(ctx context.Context, input reservations.GrantUnlockInput) (*reservations.ReservationDTO, error)
}

type processedGuard interface {
	CheckAndMarkProcessedKey(ctx context.Context, consumer, eventID string) (bool, error)
	DeleteKey(ctx context.Context, consumer, eventID string) error
}

type ServiceParams struct {
	Reservations reservationGranter
	Idempotency  processedGuard
	Logger       *logger.Logger
}

// Service turns verified Stripe events into reservation state. Payment truth
// lives here: the client-side payment callback is never trusted.
type Service struct {
	reservations reservationGranter
	idempotency  processedGuard
	logg         *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Reservations == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "reservation service required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		reservations: params.Reservations,
		idempotency:  params.Idempotency,
		logg:         params.Logger,
	}, nil
}

// HandleEvent dispatches a signature-verified Stripe event. Unknown event
// types are acknowledged without action so Stripe stops retrying them.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	marked := false
	if s.idempotency != nil && event.ID != "" {
		seen, err := s.idempotency.CheckAndMarkProcessedKey(ctx, consumerName, event.ID)
		if err != nil {
			// The ledger upsert is idempotent, so a guard outage is
			// survivable. Process the event anyway.
			s.logg.Warn(ctx, "stripe webhook idempotency check failed")
		} else if seen {
			return nil
		} else {
			marked = true
		}
	}

	if err := s.dispatch(ctx, event); err != nil {
		// Clear the marker so Stripe's retry is not silently dropped.
		if marked {
			_ = s.idempotency.DeleteKey(ctx, consumerName, event.ID)
		}
		return err
	}
	return nil
}

func (s *Service) dispatch(ctx context.Context, event *stripe.Event) error {
	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payment intent event")
		}
		return s.handlePaymentSucceeded(ctx, event, &intent)
	case stripe.EventTypePaymentIntentPaymentFailed:
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"stripe_event_id": event.ID,
		})
		s.logg.Warn(logCtx, "payment intent failed")
		return nil
	default:
		return nil
	}
}

func (s *Service) handlePaymentSucceeded(ctx context.Context, event *stripe.Event, intent *stripe.PaymentIntent) error {
	studentID, propertyID, err := pairFromMetadata(intent.Metadata)
	if err != nil {
		return err
	}

	paidAt := time.Now().UTC()
	if event.Created > 0 {
		paidAt = time.Unix(event.Created, 0).UTC()
	}

	_, err = s.reservations.GrantUnlock(ctx, reservations.GrantUnlockInput{
		StudentID:       studentID,
		PropertyID:      propertyID,
		PaymentIntentID: intent.ID,
		PaidAt:          paidAt,
	})
	return err
}

// pairFromMetadata recovers the (student, property) pair stamped on the
// intent when it was minted.
func pairFromMetadata(metadata map[string]string) (uuid.UUID, uuid.UUID, error) {
	studentRaw := metadata[reservations.MetadataStudentID]
	propertyRaw := metadata[reservations.MetadataPropertyID]
	if studentRaw == "" || propertyRaw == "" {
		return uuid.Nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent metadata missing reservation pair")
	}
	studentID, err := uuid.Parse(studentRaw)
	if err != nil {
		return uuid.Nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid student id in payment metadata")
	}
	propertyID, err := uuid.Parse(propertyRaw)
	if err != nil {
		return uuid.Nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid property id in payment metadata")
	}
	return studentID, propertyID, nil
}
