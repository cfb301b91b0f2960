package pgerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestUniqueViolation(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &pq.Error{Code: "23505", Constraint: "bookings_provider_slot_active_uidx"})

	constraint, ok := UniqueViolation(err)
	assert.True(t, ok)
	assert.Equal(t, "bookings_provider_slot_active_uidx", constraint)

	_, ok = UniqueViolation(errors.New("plain"))
	assert.False(t, ok)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&pq.Error{Code: "40001"}))
	assert.True(t, IsRetryable(fmt.Errorf("x: %w", &pq.Error{Code: "40P01"})))
	assert.False(t, IsRetryable(&pq.Error{Code: "23505"}))
	assert.False(t, IsRetryable(errors.New("connection refused")))
}
