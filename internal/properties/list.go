package properties

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nestfinderhq/nestfinder-backend/pkg/enums"
	"github.com/nestfinderhq/nestfinder-backend/pkg/pagination"
)

// PropertyListFilters describe the supported filter knobs for the browse endpoint.
type PropertyListFilters struct {
	City     *string             `json:"city,omitempty"`
	Area     *string             `json:"area,omitempty"`
	Tier     *enums.PropertyTier `json:"tier,omitempty"`
	RentMin  *decimal.Decimal    `json:"rent_min,omitempty"`
	RentMax  *decimal.Decimal    `json:"rent_max,omitempty"`
	HasRooms *bool               `json:"has_rooms,omitempty"`
	Query    string              `json:"q,omitempty"`
}

// ListPropertiesInput captures the inputs needed to paginate and filter listings.
type ListPropertiesInput struct {
	LandlordID *uuid.UUID
	Filters    PropertyListFilters
	Pagination pagination.Params
}
