package controllers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iommarket/marketplace/app/models"
	"github.com/iommarket/marketplace/internal/pkg/lifecycle"
)

func TestFormatTimePtr(t *testing.T) {
	assert.Nil(t, formatTimePtr(nil))

	now := time.Date(2025, 5, 1, 12, 34, 56, 0, time.Local)
	formatted := formatTimePtr(&now)
	assert.IsType(t, "", formatted)

	expected := now.UTC().Format(time.RFC3339)
	assert.Equal(t, expected, formatted)
}

func TestModerationTarget(t *testing.T) {
	to, expiresAt := moderationTarget("takedown", 30)
	assert.Equal(t, lifecycle.StatusTakenDown, to)
	assert.Nil(t, expiresAt)

	to, expiresAt = moderationTarget("approve", 30)
	assert.Equal(t, lifecycle.StatusLive, to)
	if assert.NotNil(t, expiresAt) {
		assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), *expiresAt, time.Minute)
	}
}

func TestListingResponse_NormalizesLegacyStatus(t *testing.T) {
	listing := &models.Listing{
		UUID:   "abc-123",
		Title:  "Vintage bike",
		Status: lifecycle.StatusApproved,
	}

	resp := listingResponse(listing)
	assert.Equal(t, lifecycle.StatusLive, resp["status"])
	assert.Equal(t, "abc-123", resp["uuid"])
}
