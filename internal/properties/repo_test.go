package properties

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/nestfinderhq/nestfinder-backend/pkg/pagination"
)

func TestRepositoryPropertyFlow(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	if tx.Error != nil {
		t.Fatalf("begin tx: %v", tx.Error)
	}
	t.Cleanup(func() {
		_ = tx.Rollback()
	})

	repo := NewRepository(tx)
	ctx := context.Background()

	landlord := mustCreateTestLandlord(t, tx)
	property := mustCreateTestProperty(t, tx, landlord.ID, true, true)
	if property.ID == uuid.Nil {
		t.Fatal("expected property id to be generated")
	}

	detail, err := repo.GetPropertyDetail(ctx, property.ID)
	if err != nil {
		t.Fatalf("get detail: %v", err)
	}
	if detail.Title != property.Title {
		t.Fatalf("expected title %s, got %s", property.Title, detail.Title)
	}

	detail.Title = "Updated Title"
	if _, err := repo.UpdateProperty(ctx, detail); err != nil {
		t.Fatalf("update property: %v", err)
	}

	fetched, err := repo.GetPropertyDetail(ctx, property.ID)
	if err != nil {
		t.Fatalf("get detail after update: %v", err)
	}
	if fetched.Title != "Updated Title" {
		t.Fatalf("expected updated title, got %s", fetched.Title)
	}

	list, err := repo.ListByLandlord(ctx, landlord.ID)
	if err != nil {
		t.Fatalf("list by landlord: %v", err)
	}
	if len(list) == 0 {
		t.Fatal("expected at least one property")
	}

	if err := repo.Deactivate(ctx, property.ID); err != nil {
		t.Fatalf("deactivate property: %v", err)
	}
	after, err := repo.FindByID(ctx, property.ID)
	if err != nil {
		t.Fatalf("reload property: %v", err)
	}
	if after.IsActive {
		t.Fatal("expected property to be inactive")
	}
}

func TestRepositoryListPropertySummariesHidesUnverified(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	if tx.Error != nil {
		t.Fatalf("begin tx: %v", tx.Error)
	}
	t.Cleanup(func() {
		_ = tx.Rollback()
	})

	ctx := context.Background()
	repo := NewRepository(tx)
	landlord := mustCreateTestLandlord(t, tx)

	visible := mustCreateTestProperty(t, tx, landlord.ID, true, true)
	unverified := mustCreateTestProperty(t, tx, landlord.ID, true, false)
	inactive := mustCreateTestProperty(t, tx, landlord.ID, false, true)

	result, err := repo.ListPropertySummaries(ctx, propertyListQuery{
		Pagination: pagination.Params{Limit: 50},
	})
	if err != nil {
		t.Fatalf("list summaries: %v", err)
	}

	found := map[uuid.UUID]bool{}
	for _, summary := range result.Properties {
		found[summary.ID] = true
	}
	if !found[visible.ID] {
		t.Fatal("expected verified listing in public results")
	}
	if found[unverified.ID] {
		t.Fatal("unverified listing leaked into public results")
	}
	if found[inactive.ID] {
		t.Fatal("inactive listing leaked into public results")
	}

	scoped, err := repo.ListPropertySummaries(ctx, propertyListQuery{
		Pagination: pagination.Params{Limit: 50},
		LandlordID: &landlord.ID,
	})
	if err != nil {
		t.Fatalf("list landlord summaries: %v", err)
	}
	if len(scoped.Properties) != 3 {
		t.Fatalf("expected landlord to see all 3 listings, got %d", len(scoped.Properties))
	}
}
