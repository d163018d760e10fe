package media

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nestfinderhq/nestfinder-backend/pkg/db/models"
	"github.com/nestfinderhq/nestfinder-backend/pkg/enums"
	pkgerrors "github.com/nestfinderhq/nestfinder-backend/pkg/errors"
	"github.com/nestfinderhq/nestfinder-backend/pkg/visibility"
)

type mediaRepository interface {
	Create(ctx context.Context, media *models.Media) (*models.Media, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Media, error)
	MarkUploaded(ctx context.Context, id uuid.UUID, url string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type propertyOwnershipChecker interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Property, error)
}

type gcsSigner interface {
	SignedURL(bucket, object, contentType string, expires time.Duration) (string, error)
	SignedReadURL(bucket, object string, expires time.Duration) (string, error)
}

type unlockChecker interface {
	HasUnlock(ctx context.Context, studentID, propertyID uuid.UUID) (bool, error)
}

// Service exposes the presigned upload flow for listing photos and avatars.
type Service interface {
	PresignUpload(ctx context.Context, userID uuid.UUID, input PresignInput) (*PresignOutput, error)
	ConfirmUpload(ctx context.Context, userID, mediaID uuid.UUID) (*MediaDTO, error)
	DownloadURL(ctx context.Context, viewer visibility.Viewer, mediaID uuid.UUID) (string, error)
}

type service struct {
	repo           mediaRepository
	properties     propertyOwnershipChecker
	unlocks        unlockChecker
	gcs            gcsSigner
	bucket         string
	uploadTTL      time.Duration
	downloadTTL    time.Duration
	maxUploadBytes int64
}

// ServiceParams bundles the dependencies of the media service.
type ServiceParams struct {
	Repo        mediaRepository
	Properties  propertyOwnershipChecker
	Unlocks     unlockChecker
	GCS         gcsSigner
	Bucket      string
	UploadTTL   time.Duration
	DownloadTTL time.Duration
	MaxUploadMB int
}

// NewService constructs a media service backed by the provided repositories
// and GCS signer.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("media repository required")
	}
	if params.Properties == nil {
		return nil, fmt.Errorf("property repository required")
	}
	if params.Unlocks == nil {
		return nil, fmt.Errorf("unlock checker required")
	}
	if params.GCS == nil {
		return nil, fmt.Errorf("gcs client required")
	}
	if params.Bucket == "" {
		return nil, fmt.Errorf("gcs bucket required")
	}
	if params.UploadTTL <= 0 {
		return nil, fmt.Errorf("upload ttl must be positive")
	}
	downloadTTL := params.DownloadTTL
	if downloadTTL <= 0 {
		downloadTTL = params.UploadTTL
	}
	maxMB := params.MaxUploadMB
	if maxMB <= 0 {
		maxMB = 50
	}
	return &service{
		repo:           params.Repo,
		properties:     params.Properties,
		unlocks:        params.Unlocks,
		gcs:            params.GCS,
		bucket:         params.Bucket,
		uploadTTL:      params.UploadTTL,
		downloadTTL:    downloadTTL,
		maxUploadBytes: int64(maxMB) * 1024 * 1024,
	}, nil
}

// PresignInput models the payload required to request an upload URL.
// PropertyID is required for listing media and must belong to the caller.
type PresignInput struct {
	Kind       enums.MediaKind
	PropertyID *uuid.UUID
	MimeType   string
	FileName   string
	SizeBytes  int64
}

// PresignOutput contains the data returned to the client after creating a
// pending media record.
type PresignOutput struct {
	MediaID      uuid.UUID `json:"media_id"`
	GCSKey       string    `json:"gcs_key"`
	SignedPUTURL string    `json:"signed_put_url"`
	ContentType  string    `json:"content_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// MediaDTO is the persisted media shape returned to clients.
type MediaDTO struct {
	ID        uuid.UUID `json:"id"`
	Kind      string    `json:"kind"`
	Status    string    `json:"status"`
	GCSKey    string    `json:"gcs_key"`
	URL       *string   `json:"url,omitempty"`
	FileName  string    `json:"file_name"`
	MimeType  string    `json:"mime_type"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

var mimeTypesByKind = map[enums.MediaKind][]string{
	enums.MediaKindPropertyImage: {"image/png", "image/jpeg", "image/webp"},
	enums.MediaKindPropertyVideo: {"video/mp4", "video/webm"},
	enums.MediaKindUserAvatar:    {"image/png", "image/jpeg", "image/webp"},
}

func (s *service) PresignUpload(ctx context.Context, userID uuid.UUID, input PresignInput) (*PresignOutput, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	if input.Kind == "" || !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid media kind")
	}

	fileName := strings.TrimSpace(input.FileName)
	if fileName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file_name is required")
	}
	if input.SizeBytes <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "size_bytes must be positive")
	}
	if input.SizeBytes > s.maxUploadBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("size_bytes must be at most %d bytes", s.maxUploadBytes))
	}

	mimeType := strings.TrimSpace(input.MimeType)
	if mimeType == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mime_type is required")
	}
	if !isAllowedMime(input.Kind, mimeType) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mime_type not allowed for media kind")
	}

	if err := s.checkKindOwnership(ctx, userID, input); err != nil {
		return nil, err
	}

	mediaID := uuid.New()
	gcsKey := buildGCSKey(input.Kind, mediaID, fileName)

	mediaRow := &models.Media{
		ID:         mediaID,
		UserID:     &userID,
		PropertyID: input.PropertyID,
		Kind:       input.Kind,
		Status:     enums.MediaStatusPending,
		GCSKey:     gcsKey,
		FileName:   fileName,
		MimeType:   mimeType,
		SizeBytes:  input.SizeBytes,
	}
	if _, err := s.repo.Create(ctx, mediaRow); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist media row")
	}

	expiresAt := time.Now().Add(s.uploadTTL)
	signedURL, err := s.gcs.SignedURL(s.bucket, gcsKey, mimeType, s.uploadTTL)
	if err != nil {
		_ = s.repo.Delete(ctx, mediaID)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign upload url")
	}

	return &PresignOutput{
		MediaID:      mediaID,
		GCSKey:       gcsKey,
		SignedPUTURL: signedURL,
		ContentType:  mimeType,
		ExpiresAt:    expiresAt,
	}, nil
}

// ConfirmUpload marks a pending row uploaded after the client finishes the
// PUT. Confirming an already uploaded row is a no-op.
func (s *service) ConfirmUpload(ctx context.Context, userID, mediaID uuid.UUID) (*MediaDTO, error) {
	if mediaID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "media id required")
	}
	row, err := s.repo.FindByID(ctx, mediaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "media not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load media")
	}
	if row.UserID == nil || *row.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "media does not belong to user")
	}

	if row.Status != enums.MediaStatusUploaded {
		publicURL := fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, row.GCSKey)
		if err := s.repo.MarkUploaded(ctx, mediaID, publicURL); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark media uploaded")
		}
		row.Status = enums.MediaStatusUploaded
		row.URL = &publicURL
	}

	dto := newMediaDTO(row)
	return &dto, nil
}

// DownloadURL mints a short-lived read URL for an uploaded object. The same
// gate that withholds addresses applies here: property videos require the
// viewer to own the listing, be an admin, or hold a paid unlock.
func (s *service) DownloadURL(ctx context.Context, viewer visibility.Viewer, mediaID uuid.UUID) (string, error) {
	row, err := s.repo.FindByID(ctx, mediaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", pkgerrors.New(pkgerrors.CodeNotFound, "media not found")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load media")
	}
	if row.Status != enums.MediaStatusUploaded {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict, "media upload not confirmed")
	}
	if err := s.authorizeDownload(ctx, viewer, row); err != nil {
		return "", err
	}
	url, err := s.gcs.SignedReadURL(s.bucket, row.GCSKey, s.downloadTTL)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign download url")
	}
	return url, nil
}

func (s *service) authorizeDownload(ctx context.Context, viewer visibility.Viewer, row *models.Media) error {
	if viewer.Role == enums.UserRoleAdmin {
		return nil
	}
	if row.UserID != nil && viewer.UserID != uuid.Nil && *row.UserID == viewer.UserID {
		return nil
	}

	switch row.Kind {
	case enums.MediaKindUserAvatar:
		return pkgerrors.New(pkgerrors.CodeForbidden, "media does not belong to user")
	case enums.MediaKindPropertyImage, enums.MediaKindPropertyVideo:
		if row.PropertyID == nil {
			return pkgerrors.New(pkgerrors.CodeForbidden, "media not attached to a listing")
		}
		property, err := s.properties.FindByID(ctx, *row.PropertyID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "property not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load property")
		}
		visInput := visibility.PropertyVisibilityInput{Property: property, Viewer: viewer}
		if err := visibility.EnsurePropertyVisible(visInput); err != nil {
			return err
		}
		if row.Kind == enums.MediaKindPropertyImage {
			return nil
		}
		hasUnlock := false
		if viewer.UserID != uuid.Nil && viewer.Role == enums.UserRoleStudent {
			hasUnlock, err = s.unlocks.HasUnlock(ctx, viewer.UserID, *row.PropertyID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check unlock")
			}
		}
		if !visibility.CanViewSensitiveFields(visInput, hasUnlock) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "unlock required to view this media")
		}
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeForbidden, "media not accessible")
	}
}

// checkKindOwnership ties listing media to a property the caller owns.
// Avatars need no property.
func (s *service) checkKindOwnership(ctx context.Context, userID uuid.UUID, input PresignInput) error {
	switch input.Kind {
	case enums.MediaKindPropertyImage, enums.MediaKindPropertyVideo:
		if input.PropertyID == nil || *input.PropertyID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "property_id is required for listing media")
		}
		property, err := s.properties.FindByID(ctx, *input.PropertyID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "property not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load property")
		}
		if property.LandlordID != userID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "property does not belong to landlord")
		}
	case enums.MediaKindUserAvatar:
		if input.PropertyID != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "property_id not allowed for avatars")
		}
	}
	return nil
}

func newMediaDTO(row *models.Media) MediaDTO {
	return MediaDTO{
		ID:        row.ID,
		Kind:      string(row.Kind),
		Status:    string(row.Status),
		GCSKey:    row.GCSKey,
		URL:       row.URL,
		FileName:  row.FileName,
		MimeType:  row.MimeType,
		SizeBytes: row.SizeBytes,
		CreatedAt: row.CreatedAt,
	}
}

func isAllowedMime(kind enums.MediaKind, mimeType string) bool {
	allowed, ok := mimeTypesByKind[kind]
	if !ok {
		return false
	}
	for _, candidate := range allowed {
		if strings.EqualFold(candidate, mimeType) {
			return true
		}
	}
	return false
}

func buildGCSKey(kind enums.MediaKind, id uuid.UUID, fileName string) string {
	cleanName := sanitizeFileName(fileName)
	if cleanName == "" {
		cleanName = id.String()
	}
	return fmt.Sprintf("media/%s/%s/%s", kind, id.String(), cleanName)
}

func sanitizeFileName(name string) string {
	clean := path.Base(strings.TrimSpace(name))
	if clean == "" || clean == "." || clean == "/" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		switch {
		case r == '/' || r == '\\' || unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-_.")
}
