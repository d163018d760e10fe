package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	pgErr := errors.New(`duplicate key value violates unique constraint "ux_reservations_student_property"`)
	sqliteErr := errors.New("UNIQUE constraint failed: reservations.student_id, reservations.property_id")

	assert.False(t, IsUniqueViolation(nil, ""))
	assert.False(t, IsUniqueViolation(errors.New("connection refused"), "ux_reservations_student_property"))

	assert.True(t, IsUniqueViolation(pgErr, "ux_reservations_student_property"))
	assert.True(t, IsUniqueViolation(pgErr, ""))
	assert.True(t, IsUniqueViolation(pgErr, "some_other_constraint"), "generic duplicate text still matches")

	// sqlite reports column names, never the constraint name.
	assert.True(t, IsUniqueViolation(sqliteErr, "ux_reservations_student_property"))

	wrapped := fmt.Errorf("db: insert reservation: %w", gorm.ErrDuplicatedKey)
	assert.True(t, IsUniqueViolation(wrapped, ""))
}
