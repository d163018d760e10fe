package properties

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nestfinderhq/nestfinder-backend/pkg/config"
	"github.com/nestfinderhq/nestfinder-backend/pkg/db"
	"github.com/nestfinderhq/nestfinder-backend/pkg/db/models"
	"github.com/nestfinderhq/nestfinder-backend/pkg/enums"
	pkgerrors "github.com/nestfinderhq/nestfinder-backend/pkg/errors"
	"github.com/nestfinderhq/nestfinder-backend/pkg/feecalc"
	"github.com/nestfinderhq/nestfinder-backend/pkg/outbox"
	"github.com/nestfinderhq/nestfinder-backend/pkg/outbox/payloads"
	"github.com/nestfinderhq/nestfinder-backend/pkg/visibility"
)

// Service exposes listing management and browse operations.
type Service interface {
	CreateProperty(ctx context.Context, landlordID uuid.UUID, input CreatePropertyInput) (*PropertyDTO, error)
	UpdateProperty(ctx context.Context, landlordID, propertyID uuid.UUID, input UpdatePropertyInput) (*PropertyDTO, error)
	DeactivateProperty(ctx context.Context, landlordID, propertyID uuid.UUID) error
	VerifyProperty(ctx context.Context, adminID, propertyID uuid.UUID) error
	GetProperty(ctx context.Context, viewer visibility.Viewer, propertyID uuid.UUID) (*PropertyDTO, error)
	ListProperties(ctx context.Context, input ListPropertiesInput) (*PropertyListResult, error)
}

// CreatePropertyInput holds the validated payload to create a listing.
type CreatePropertyInput struct {
	Title        string
	Description  *string
	Tier         enums.PropertyTier
	City         string
	Area         string
	Address      string
	ContactPhone string
	Amenities    []string
	AnnualRent   decimal.Decimal
	TotalRooms   int
	MediaKeys    []PropertyMediaInput
}

// PropertyMediaInput references an uploaded object to attach to a listing.
// Kind defaults to property_image when unset.
type PropertyMediaInput struct {
	GCSKey   string
	Kind     enums.MediaKind
	MediaID  *uuid.UUID
	Position int
}

// UpdatePropertyInput holds optional mutation values for a listing.
type UpdatePropertyInput struct {
	Title        *string
	Description  *string
	Tier         *enums.PropertyTier
	City         *string
	Area         *string
	Address      *string
	ContactPhone *string
	Amenities    *[]string
	AnnualRent   *decimal.Decimal
	TotalRooms   *int
	IsActive     *bool
	MediaKeys    *[]PropertyMediaInput
}

type unlockChecker interface {
	HasUnlock(ctx context.Context, studentID, propertyID uuid.UUID) (bool, error)
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// service implements the property service.
type service struct {
	repo     *Repository
	dbClient *db.Client
	unlocks  unlockChecker
	outbox   outboxEmitter
	resCfg   config.ReservationsConfig
}

// NewService constructs a property service instance.
func NewService(repo *Repository, dbClient *db.Client, unlocks unlockChecker, outboxSvc outboxEmitter, resCfg config.ReservationsConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("property repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if unlocks == nil {
		return nil, fmt.Errorf("unlock checker required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	return &service{
		repo:     repo,
		dbClient: dbClient,
		unlocks:  unlocks,
		outbox:   outboxSvc,
		resCfg:   resCfg,
	}, nil
}

// CreateProperty inserts a new listing and queues the created event. New
// listings start unverified and stay hidden from students until an admin
// verifies them.
func (s *service) CreateProperty(ctx context.Context, landlordID uuid.UUID, input CreatePropertyInput) (*PropertyDTO, error) {
	if input.TotalRooms <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total_rooms must be positive")
	}
	if input.AnnualRent.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "annual_rent cannot be negative")
	}
	if !input.Tier.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid property tier")
	}

	fee, err := feecalc.UnlockFee(input.AnnualRent, input.TotalRooms)
	if err != nil {
		return nil, err
	}

	var createdID uuid.UUID
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		property := &models.Property{
			LandlordID:     landlordID,
			Title:          input.Title,
			Description:    input.Description,
			Tier:           input.Tier,
			City:           input.City,
			Area:           input.Area,
			Address:        input.Address,
			ContactPhone:   input.ContactPhone,
			Amenities:      input.Amenities,
			AnnualRent:     input.AnnualRent,
			TotalRooms:     input.TotalRooms,
			RoomsAvailable: input.TotalRooms,
			UnlockFee:      fee,
			IsActive:       true,
			IsVerified:     false,
		}

		created, err := txRepo.CreateProperty(ctx, property)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert property")
		}
		createdID = created.ID

		if len(input.MediaKeys) > 0 {
			entries := buildPropertyMediaRows(created.ID, input.MediaKeys)
			if err := txRepo.ReplacePropertyMedia(ctx, created.ID, entries); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: replace property media")
			}
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPropertyCreated,
			AggregateType: enums.AggregateProperty,
			AggregateID:   created.ID,
			Actor:         &outbox.ActorRef{UserID: landlordID, Role: string(enums.UserRoleLandlord)},
			Data: payloads.PropertyCreatedEvent{
				PropertyID: created.ID,
				LandlordID: landlordID,
				City:       created.City,
				Area:       created.Area,
				TotalRooms: created.TotalRooms,
			},
		})
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create property")
	}

	property, err := s.repo.GetPropertyDetail(ctx, createdID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load property detail")
	}
	return NewPropertyDTO(property, fee, true), nil
}

// UpdateProperty applies a partial mutation to a landlord's own listing.
func (s *service) UpdateProperty(ctx context.Context, landlordID, propertyID uuid.UUID, input UpdatePropertyInput) (*PropertyDTO, error) {
	property, err := s.repo.FindByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "property not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load property")
	}
	if property.LandlordID != landlordID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "property does not belong to landlord")
	}

	if input.TotalRooms != nil {
		if *input.TotalRooms <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "total_rooms must be positive")
		}
		if *input.TotalRooms < property.TotalRooms-property.RoomsAvailable {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "total_rooms cannot drop below rooms already taken")
		}
	}
	if input.AnnualRent != nil && input.AnnualRent.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "annual_rent cannot be negative")
	}
	if input.Tier != nil && !input.Tier.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid property tier")
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		applyUpdateToProperty(property, input)

		fee, err := feecalc.UnlockFee(property.AnnualRent, property.TotalRooms)
		if err != nil {
			return err
		}
		property.UnlockFee = fee

		if _, err := txRepo.UpdateProperty(ctx, property); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update property")
		}

		if input.MediaKeys != nil {
			entries := buildPropertyMediaRows(property.ID, *input.MediaKeys)
			if err := txRepo.ReplacePropertyMedia(ctx, property.ID, entries); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: replace property media")
			}
		}
		return nil
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update property")
	}

	updated, err := s.repo.GetPropertyDetail(ctx, propertyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load property detail")
	}
	return NewPropertyDTO(updated, updated.UnlockFee, true), nil
}

// DeactivateProperty hides the listing from students without deleting rows.
// Existing unlocks keep their access.
func (s *service) DeactivateProperty(ctx context.Context, landlordID, propertyID uuid.UUID) error {
	property, err := s.repo.FindByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "property not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load property")
	}
	if property.LandlordID != landlordID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "property does not belong to landlord")
	}
	if err := s.repo.Deactivate(ctx, propertyID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: deactivate property")
	}
	return nil
}

// VerifyProperty marks the listing verified and queues the verification event
// at most once per property.
func (s *service) VerifyProperty(ctx context.Context, adminID, propertyID uuid.UUID) error {
	property, err := s.repo.FindByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "property not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load property")
	}
	if property.IsVerified {
		return nil
	}

	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.MarkVerified(ctx, propertyID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: mark verified")
		}
		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPropertyVerified,
			AggregateType: enums.AggregateProperty,
			AggregateID:   propertyID,
			Actor:         &outbox.ActorRef{UserID: adminID, Role: string(enums.UserRoleAdmin)},
			Data: payloads.PropertyVerifiedEvent{
				PropertyID: propertyID,
				VerifiedAt: time.Now().UTC(),
			},
		})
	})
}

// GetProperty returns the listing shaped for the viewer. Sensitive contact
// fields are withheld until the viewer owns the listing, is an admin, or
// holds a paid unlock.
func (s *service) GetProperty(ctx context.Context, viewer visibility.Viewer, propertyID uuid.UUID) (*PropertyDTO, error) {
	property, err := s.loadDetailWithRetry(ctx, propertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "property not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load property")
	}

	visInput := visibility.PropertyVisibilityInput{Property: property, Viewer: viewer}
	if err := visibility.EnsurePropertyVisible(visInput); err != nil {
		return nil, err
	}

	hasUnlock := false
	if viewer.UserID != uuid.Nil && viewer.Role == enums.UserRoleStudent {
		hasUnlock, err = s.unlocks.HasUnlock(ctx, viewer.UserID, propertyID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check unlock")
		}
	}

	fee, err := feecalc.UnlockFee(property.AnnualRent, property.TotalRooms)
	if err != nil {
		return nil, err
	}

	reveal := visibility.CanViewSensitiveFields(visInput, hasUnlock)
	return NewPropertyDTO(property, fee, reveal), nil
}

// ListProperties pages through listings. Without a landlord scope the result
// only includes active, verified properties.
func (s *service) ListProperties(ctx context.Context, input ListPropertiesInput) (*PropertyListResult, error) {
	result, err := s.repo.ListPropertySummaries(ctx, propertyListQuery{
		Pagination: input.Pagination,
		Filters:    input.Filters,
		LandlordID: input.LandlordID,
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list properties")
	}

	for i := range result.Properties {
		summary := &result.Properties[i]
		fee, err := feecalc.UnlockFee(summary.AnnualRent, summary.TotalRooms)
		if err != nil {
			continue
		}
		summary.UnlockFee = fee
	}
	return result, nil
}

// loadDetailWithRetry shields the hot read path from transient errors. Only
// dependency-class failures are retried; not-found surfaces immediately.
func (s *service) loadDetailWithRetry(ctx context.Context, propertyID uuid.UUID) (*models.Property, error) {
	attempts := s.resCfg.ReadRetryAttempts
	if attempts <= 1 {
		return s.repo.GetPropertyDetail(ctx, propertyID)
	}

	var property *models.Property
	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewFibonacci(50*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		loaded, err := s.repo.GetPropertyDetail(ctx, propertyID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			if pkgerrors.As(err) != nil && !pkgerrors.IsRetryable(err) {
				return err
			}
			return retry.RetryableError(err)
		}
		property = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return property, nil
}

func applyUpdateToProperty(property *models.Property, input UpdatePropertyInput) {
	if input.Title != nil {
		property.Title = *input.Title
	}
	if input.Description != nil {
		property.Description = input.Description
	}
	if input.Tier != nil {
		property.Tier = *input.Tier
	}
	if input.City != nil {
		property.City = *input.City
	}
	if input.Area != nil {
		property.Area = *input.Area
	}
	if input.Address != nil {
		property.Address = *input.Address
	}
	if input.ContactPhone != nil {
		property.ContactPhone = *input.ContactPhone
	}
	if input.Amenities != nil {
		property.Amenities = *input.Amenities
	}
	if input.AnnualRent != nil {
		property.AnnualRent = *input.AnnualRent
	}
	if input.TotalRooms != nil {
		taken := property.TotalRooms - property.RoomsAvailable
		property.TotalRooms = *input.TotalRooms
		property.RoomsAvailable = *input.TotalRooms - taken
	}
	if input.IsActive != nil {
		property.IsActive = *input.IsActive
	}
}

func buildPropertyMediaRows(propertyID uuid.UUID, inputs []PropertyMediaInput) []models.PropertyMedia {
	rows := make([]models.PropertyMedia, len(inputs))
	for i, m := range inputs {
		kind := m.Kind
		if kind == "" {
			kind = enums.MediaKindPropertyImage
		}
		rows[i] = models.PropertyMedia{
			PropertyID: propertyID,
			Kind:       kind,
			GCSKey:     m.GCSKey,
			MediaID:    m.MediaID,
			Position:   m.Position,
		}
	}
	return rows
}
