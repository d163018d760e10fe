package visibility

import (
	"github.com/google/uuid"

	"github.com/nestfinderhq/nestfinder-backend/pkg/db/models"
	"github.com/nestfinderhq/nestfinder-backend/pkg/enums"
	pkgerrors "github.com/nestfinderhq/nestfinder-backend/pkg/errors"
)

// Viewer identifies who is looking at a listing. A zero-value Viewer is an
// anonymous browser.
type Viewer struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// PropertyVisibilityInput drives the shared visibility checks for
// student-facing property queries.
type PropertyVisibilityInput struct {
	Property *models.Property
	Viewer   Viewer
}

// EnsurePropertyVisible enforces canonical rules so inactive or unverified
// listings never leak through public queries. Owners and admins bypass the
// listing gates so they can inspect their own drafts.
func EnsurePropertyVisible(input PropertyVisibilityInput) error {
	if input.Property == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "property not found")
	}
	if isOwner(input) || input.Viewer.Role == enums.UserRoleAdmin {
		return nil
	}
	if !input.Property.IsActive {
		return pkgerrors.New(pkgerrors.CodeNotFound, "property not found")
	}
	if !input.Property.IsVerified {
		return pkgerrors.New(pkgerrors.CodeNotFound, "property not verified")
	}
	return nil
}

// CanViewSensitiveFields reports whether the viewer may see the exact address
// and landlord contact details. Students earn access through a paid unlock;
// the owning landlord and admins always have it.
func CanViewSensitiveFields(input PropertyVisibilityInput, hasUnlock bool) bool {
	if input.Property == nil {
		return false
	}
	if isOwner(input) || input.Viewer.Role == enums.UserRoleAdmin {
		return true
	}
	return hasUnlock
}

func isOwner(input PropertyVisibilityInput) bool {
	return input.Viewer.UserID != uuid.Nil && input.Viewer.UserID == input.Property.LandlordID
}
