package properties

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nestfinderhq/nestfinder-backend/pkg/db/models"
	"github.com/nestfinderhq/nestfinder-backend/pkg/enums"
)

func mustCreateTestLandlord(t *testing.T, tx *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.New(),
		Email:        fmt.Sprintf("nf_test_%s@example.com", uuid.NewString()),
		PasswordHash: "hash",
		FirstName:    "Repo",
		LastName:     "Tester",
		Role:         enums.UserRoleLandlord,
		IsActive:     true,
	}
	if err := tx.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func mustCreateTestProperty(t *testing.T, tx *gorm.DB, landlordID uuid.UUID, active, verified bool) *models.Property {
	t.Helper()
	property := &models.Property{
		LandlordID:     landlordID,
		Title:          fmt.Sprintf("Test Property %s", uuid.NewString()[:8]),
		Tier:           enums.PropertyTierStandard,
		City:           "Ibadan",
		Area:           "Agbowo",
		Address:        "12 Awolowo Avenue",
		ContactPhone:   "+2348010000001",
		Amenities:      pq.StringArray{"water"},
		AnnualRent:     decimal.NewFromInt(180000),
		TotalRooms:     4,
		RoomsAvailable: 4,
		UnlockFee:      decimal.NewFromInt(450),
		IsActive:       active,
		IsVerified:     verified,
	}
	if err := tx.Create(property).Error; err != nil {
		t.Fatalf("create property: %v", err)
	}
	return property
}
