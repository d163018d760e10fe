package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nestfinderhq/nestfinder-backend/api/middleware"
	"github.com/nestfinderhq/nestfinder-backend/internal/properties"
	"github.com/nestfinderhq/nestfinder-backend/pkg/enums"
	pkgerrors "github.com/nestfinderhq/nestfinder-backend/pkg/errors"
	"github.com/nestfinderhq/nestfinder-backend/pkg/logger"
	"github.com/nestfinderhq/nestfinder-backend/pkg/visibility"
)

type stubPropertiesService struct {
	viewer visibility.Viewer
	dto    *properties.PropertyDTO
	err    error
}

func (s *stubPropertiesService) CreateProperty(ctx context.Context, landlordID uuid.UUID, input properties.CreatePropertyInput) (*properties.PropertyDTO, error) {
	panic("unimplemented")
}

func (s *stubPropertiesService) UpdateProperty(ctx context.Context, landlordID, propertyID uuid.UUID, input properties.UpdatePropertyInput) (*properties.PropertyDTO, error) {
	panic("unimplemented")
}

func (s *stubPropertiesService) DeactivateProperty(ctx context.Context, landlordID, propertyID uuid.UUID) error {
	panic("unimplemented")
}

func (s *stubPropertiesService) VerifyProperty(ctx context.Context, adminID, propertyID uuid.UUID) error {
	panic("unimplemented")
}

func (s *stubPropertiesService) GetProperty(ctx context.Context, viewer visibility.Viewer, propertyID uuid.UUID) (*properties.PropertyDTO, error) {
	s.viewer = viewer
	if s.err != nil {
		return nil, s.err
	}
	return s.dto, nil
}

func (s *stubPropertiesService) ListProperties(ctx context.Context, input properties.ListPropertiesInput) (*properties.PropertyListResult, error) {
	panic("unimplemented")
}

func detailRequest(ctx context.Context, propertyID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/properties/"+propertyID, nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("propertyId", propertyID)
	ctx = context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
	return req.WithContext(ctx)
}

func TestPropertyDetail(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: io.Discard})
	propertyID := uuid.New()
	address := "12 Awolowo Avenue"

	t.Run("invalid property id", func(t *testing.T) {
		stub := &stubPropertiesService{}
		rec := httptest.NewRecorder()
		PropertyDetail(stub, logg).ServeHTTP(rec, detailRequest(context.Background(), "not-a-uuid"))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 got %d", rec.Code)
		}
	})

	t.Run("not found", func(t *testing.T) {
		stub := &stubPropertiesService{err: pkgerrors.New(pkgerrors.CodeNotFound, "property not found")}
		rec := httptest.NewRecorder()
		PropertyDetail(stub, logg).ServeHTTP(rec, detailRequest(context.Background(), propertyID.String()))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404 got %d", rec.Code)
		}
	})

	t.Run("anonymous viewer is forwarded as zero viewer", func(t *testing.T) {
		stub := &stubPropertiesService{dto: &properties.PropertyDTO{ID: propertyID, Title: "Room"}}
		rec := httptest.NewRecorder()
		PropertyDetail(stub, logg).ServeHTTP(rec, detailRequest(context.Background(), propertyID.String()))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d", rec.Code)
		}
		if stub.viewer.UserID != uuid.Nil || stub.viewer.Role != "" {
			t.Fatalf("expected zero viewer for anonymous request, got %+v", stub.viewer)
		}

		var payload struct {
			Data struct {
				Address *string `json:"address"`
			} `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("parse response: %v", err)
		}
		if payload.Data.Address != nil {
			t.Fatalf("expected address omitted for redacted listing, got %q", *payload.Data.Address)
		}
	})

	t.Run("authenticated viewer is forwarded with role", func(t *testing.T) {
		userID := uuid.New()
		stub := &stubPropertiesService{dto: &properties.PropertyDTO{
			ID:       propertyID,
			Title:    "Room",
			Address:  &address,
			Unlocked: true,
		}}

		ctx := middleware.WithUserID(context.Background(), userID.String())
		ctx = middleware.WithRole(ctx, string(enums.UserRoleStudent))
		rec := httptest.NewRecorder()
		PropertyDetail(stub, logg).ServeHTTP(rec, detailRequest(ctx, propertyID.String()))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d", rec.Code)
		}
		if stub.viewer.UserID != userID {
			t.Fatalf("expected viewer user id %s got %s", userID, stub.viewer.UserID)
		}
		if stub.viewer.Role != enums.UserRoleStudent {
			t.Fatalf("expected student viewer role, got %q", stub.viewer.Role)
		}

		var payload struct {
			Data struct {
				Address  *string `json:"address"`
				Unlocked bool    `json:"unlocked"`
			} `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("parse response: %v", err)
		}
		if payload.Data.Address == nil || *payload.Data.Address != address {
			t.Fatalf("expected address disclosed for unlocked viewer")
		}
		if !payload.Data.Unlocked {
			t.Fatalf("expected unlocked flag set")
		}
	})
}
