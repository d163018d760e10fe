package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nestfinderhq/nestfinder-backend/api/middleware"
	"github.com/nestfinderhq/nestfinder-backend/api/responses"
	"github.com/nestfinderhq/nestfinder-backend/api/validators"
	"github.com/nestfinderhq/nestfinder-backend/internal/properties"
	"github.com/nestfinderhq/nestfinder-backend/pkg/enums"
	pkgerrors "github.com/nestfinderhq/nestfinder-backend/pkg/errors"
	"github.com/nestfinderhq/nestfinder-backend/pkg/logger"
	"github.com/nestfinderhq/nestfinder-backend/pkg/pagination"
	"github.com/nestfinderhq/nestfinder-backend/pkg/visibility"
)

func requireUserID(ctx context.Context) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(ctx)
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return id, nil
}

// viewerFromContext builds the visibility viewer for the request. Anonymous
// requests produce a zero viewer.
func viewerFromContext(ctx context.Context) visibility.Viewer {
	viewer := visibility.Viewer{}
	if raw := middleware.UserIDFromContext(ctx); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			viewer.UserID = id
		}
	}
	if role := middleware.RoleFromContext(ctx); role != "" {
		viewer.Role = enums.UserRole(role)
	}
	return viewer
}

type propertyMediaRequest struct {
	GCSKey   string  `json:"gcs_key" validate:"required"`
	Kind     string  `json:"kind,omitempty"`
	MediaID  *string `json:"media_id,omitempty"`
	Position int     `json:"position"`
}

func (m propertyMediaRequest) toInput() (properties.PropertyMediaInput, error) {
	input := properties.PropertyMediaInput{GCSKey: m.GCSKey, Position: m.Position}
	if m.Kind != "" {
		kind, err := enums.ParseMediaKind(m.Kind)
		if err != nil || kind == enums.MediaKindUserAvatar {
			return input, pkgerrors.New(pkgerrors.CodeValidation, "invalid media kind for listing").WithDetails(map[string]any{"field": "kind"})
		}
		input.Kind = kind
	}
	if m.MediaID != nil && *m.MediaID != "" {
		id, err := uuid.Parse(*m.MediaID)
		if err != nil {
			return input, pkgerrors.New(pkgerrors.CodeValidation, "invalid media id").WithDetails(map[string]any{"field": "media_id"})
		}
		input.MediaID = &id
	}
	return input, nil
}

type createPropertyRequest struct {
	Title        string                 `json:"title" validate:"required,min=3"`
	Description  *string                `json:"description,omitempty"`
	Tier         string                 `json:"tier"`
	City         string                 `json:"city" validate:"required"`
	Area         string                 `json:"area" validate:"required"`
	Address      string                 `json:"address" validate:"required"`
	ContactPhone string                 `json:"contact_phone" validate:"required"`
	Amenities    []string               `json:"amenities,omitempty"`
	AnnualRent   decimal.Decimal        `json:"annual_rent"`
	TotalRooms   int                    `json:"total_rooms" validate:"required,min=1"`
	Media        []propertyMediaRequest `json:"media,omitempty"`
}

func (req createPropertyRequest) toInput() (properties.CreatePropertyInput, error) {
	tier := enums.PropertyTierStandard
	if strings.TrimSpace(req.Tier) != "" {
		parsed, err := enums.ParsePropertyTier(req.Tier)
		if err != nil {
			return properties.CreatePropertyInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid tier").WithDetails(map[string]any{"field": "tier"})
		}
		tier = parsed
	}

	input := properties.CreatePropertyInput{
		Title:        req.Title,
		Description:  req.Description,
		Tier:         tier,
		City:         req.City,
		Area:         req.Area,
		Address:      req.Address,
		ContactPhone: req.ContactPhone,
		Amenities:    req.Amenities,
		AnnualRent:   req.AnnualRent,
		TotalRooms:   req.TotalRooms,
	}
	for _, m := range req.Media {
		media, err := m.toInput()
		if err != nil {
			return properties.CreatePropertyInput{}, err
		}
		input.MediaKeys = append(input.MediaKeys, media)
	}
	return input, nil
}

type updatePropertyRequest struct {
	Title        *string                 `json:"title,omitempty"`
	Description  *string                 `json:"description,omitempty"`
	Tier         *string                 `json:"tier,omitempty"`
	City         *string                 `json:"city,omitempty"`
	Area         *string                 `json:"area,omitempty"`
	Address      *string                 `json:"address,omitempty"`
	ContactPhone *string                 `json:"contact_phone,omitempty"`
	Amenities    *[]string               `json:"amenities,omitempty"`
	AnnualRent   *decimal.Decimal        `json:"annual_rent,omitempty"`
	TotalRooms   *int                    `json:"total_rooms,omitempty"`
	IsActive     *bool                   `json:"is_active,omitempty"`
	Media        *[]propertyMediaRequest `json:"media,omitempty"`
}

func (req updatePropertyRequest) toInput() (properties.UpdatePropertyInput, error) {
	input := properties.UpdatePropertyInput{
		Title:        req.Title,
		Description:  req.Description,
		City:         req.City,
		Area:         req.Area,
		Address:      req.Address,
		ContactPhone: req.ContactPhone,
		Amenities:    req.Amenities,
		AnnualRent:   req.AnnualRent,
		TotalRooms:   req.TotalRooms,
		IsActive:     req.IsActive,
	}
	if req.Tier != nil {
		tier, err := enums.ParsePropertyTier(*req.Tier)
		if err != nil {
			return properties.UpdatePropertyInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid tier").WithDetails(map[string]any{"field": "tier"})
		}
		input.Tier = &tier
	}
	if req.Media != nil {
		media := make([]properties.PropertyMediaInput, 0, len(*req.Media))
		for _, m := range *req.Media {
			item, err := m.toInput()
			if err != nil {
				return properties.UpdatePropertyInput{}, err
			}
			media = append(media, item)
		}
		input.MediaKeys = &media
	}
	return input, nil
}

func parseListFilters(r *http.Request) (properties.PropertyListFilters, error) {
	filters := properties.PropertyListFilters{}
	q := r.URL.Query()

	if city := strings.TrimSpace(q.Get("city")); city != "" {
		filters.City = &city
	}
	if area := strings.TrimSpace(q.Get("area")); area != "" {
		filters.Area = &area
	}
	if raw := strings.TrimSpace(q.Get("tier")); raw != "" {
		tier, err := enums.ParsePropertyTier(raw)
		if err != nil {
			return filters, pkgerrors.New(pkgerrors.CodeValidation, "invalid tier").WithDetails(map[string]any{"field": "tier"})
		}
		filters.Tier = &tier
	}

	rentMin, err := validators.ParseQueryDecimal(r, "rent_min")
	if err != nil {
		return filters, err
	}
	filters.RentMin = rentMin

	rentMax, err := validators.ParseQueryDecimal(r, "rent_max")
	if err != nil {
		return filters, err
	}
	filters.RentMax = rentMax

	if raw := strings.TrimSpace(q.Get("has_rooms")); raw != "" {
		hasRooms := raw == "true" || raw == "1"
		filters.HasRooms = &hasRooms
	}
	filters.Query = strings.TrimSpace(q.Get("q"))
	return filters, nil
}

func parseListPagination(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}

// PropertiesList serves the public catalog of active, verified listings.
func PropertiesList(svc properties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters, err := parseListFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := parseListPagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListProperties(r.Context(), properties.ListPropertiesInput{
			Filters:    filters,
			Pagination: page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// PropertyDetail serves a single listing, redacting sensitive fields unless
// the viewer has earned access to them.
func PropertyDetail(svc properties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		propertyID, err := validators.ParsePathUUID(chi.URLParam(r, "propertyId"), "propertyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.GetProperty(r.Context(), viewerFromContext(r.Context()), propertyID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// LandlordCreateProperty creates a listing owned by the authenticated landlord.
func LandlordCreateProperty(svc properties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		landlordID, err := requireUserID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createPropertyRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := body.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.CreateProperty(r.Context(), landlordID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// LandlordUpdateProperty applies a partial update to an owned listing.
func LandlordUpdateProperty(svc properties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		landlordID, err := requireUserID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		propertyID, err := validators.ParsePathUUID(chi.URLParam(r, "propertyId"), "propertyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updatePropertyRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := body.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.UpdateProperty(r.Context(), landlordID, propertyID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// LandlordDeleteProperty deactivates an owned listing. The row is kept so
// existing unlock records stay intact.
func LandlordDeleteProperty(svc properties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		landlordID, err := requireUserID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		propertyID, err := validators.ParsePathUUID(chi.URLParam(r, "propertyId"), "propertyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeactivateProperty(r.Context(), landlordID, propertyID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deactivated"})
	}
}

// LandlordListProperties lists the authenticated landlord's own listings,
// including inactive and unverified ones.
func LandlordListProperties(svc properties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		landlordID, err := requireUserID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := parseListPagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListProperties(r.Context(), properties.ListPropertiesInput{
			LandlordID: &landlordID,
			Pagination: page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdminVerifyProperty marks a listing as verified so it can enter the public
// catalog.
func AdminVerifyProperty(svc properties.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, err := requireUserID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		propertyID, err := validators.ParsePathUUID(chi.URLParam(r, "propertyId"), "propertyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.VerifyProperty(r.Context(), adminID, propertyID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "verified"})
	}
}
