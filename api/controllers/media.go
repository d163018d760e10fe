package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nestfinderhq/nestfinder-backend/api/responses"
	"github.com/nestfinderhq/nestfinder-backend/api/validators"
	"github.com/nestfinderhq/nestfinder-backend/internal/media"
	"github.com/nestfinderhq/nestfinder-backend/pkg/enums"
	pkgerrors "github.com/nestfinderhq/nestfinder-backend/pkg/errors"
	"github.com/nestfinderhq/nestfinder-backend/pkg/logger"
)

type mediaPresignRequest struct {
	Kind       string  `json:"kind" validate:"required"`
	PropertyID *string `json:"property_id,omitempty"`
	MimeType   string  `json:"mime_type" validate:"required"`
	FileName   string  `json:"file_name" validate:"required"`
	SizeBytes  int64   `json:"size_bytes" validate:"required,min=1"`
}

func (req mediaPresignRequest) toInput() (media.PresignInput, error) {
	kind, err := enums.ParseMediaKind(req.Kind)
	if err != nil {
		return media.PresignInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid media kind").WithDetails(map[string]any{"field": "kind"})
	}

	input := media.PresignInput{
		Kind:      kind,
		MimeType:  req.MimeType,
		FileName:  req.FileName,
		SizeBytes: req.SizeBytes,
	}
	if req.PropertyID != nil && *req.PropertyID != "" {
		id, err := uuid.Parse(*req.PropertyID)
		if err != nil {
			return media.PresignInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid property id").WithDetails(map[string]any{"field": "property_id"})
		}
		input.PropertyID = &id
	}
	return input, nil
}

// MediaPresign creates a pending media record and returns a signed PUT URL.
func MediaPresign(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body mediaPresignRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := body.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out, err := svc.PresignUpload(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, out)
	}
}

// MediaConfirm marks a pending media record as uploaded.
func MediaConfirm(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUserID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		mediaID, err := validators.ParsePathUUID(chi.URLParam(r, "mediaId"), "mediaId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.ConfirmUpload(r.Context(), userID, mediaID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// MediaDownloadURL returns a short-lived signed read URL for an uploaded
// object. The viewer identity gates unlock-protected media.
func MediaDownloadURL(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mediaID, err := validators.ParsePathUUID(chi.URLParam(r, "mediaId"), "mediaId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		url, err := svc.DownloadURL(r.Context(), viewerFromContext(r.Context()), mediaID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"url": url})
	}
}
