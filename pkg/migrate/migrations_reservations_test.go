package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration file matching %q", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestInitSchemaContainsReservationConstraints(t *testing.T) {
	content := readMigration(t, "*_init_schema.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS reservations",
		"CREATE UNIQUE INDEX ux_reservations_student_property ON reservations (student_id, property_id)",
		"FOREIGN KEY (student_id) REFERENCES users(id) ON DELETE CASCADE",
		"FOREIGN KEY (property_id) REFERENCES properties(id) ON DELETE CASCADE",
		"CHECK (fee_amount >= 0)",
		"DROP TABLE IF EXISTS reservations",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestInitSchemaContainsRoomCounterConstraints(t *testing.T) {
	content := readMigration(t, "*_init_schema.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS properties",
		"CHECK (total_rooms > 0)",
		"CHECK (rooms_available >= 0)",
		"CHECK (rooms_available <= total_rooms)",
		"DROP TABLE IF EXISTS properties",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestInitSchemaContainsOutboxDedupeIndex(t *testing.T) {
	content := readMigration(t, "*_init_schema.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS outbox_events",
		"CREATE UNIQUE INDEX ux_outbox_events_event_aggregate ON outbox_events (event_type, aggregate_type, aggregate_id)",
		"CREATE TABLE IF NOT EXISTS outbox_dlq",
		"DROP TABLE IF EXISTS outbox_events",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestBackfillMigrationComputesDynamicFee(t *testing.T) {
	content := readMigration(t, "*_backfill_dynamic_unlock_fee.sql")

	checks := []string{
		"ROUND((annual_rent / total_rooms) * 0.01, 0)",
		"WHERE total_rooms > 0",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
