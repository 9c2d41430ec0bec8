package dynamo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taptone-api/internal/domain"
)

func TestLiveCode_ExpiredRowDoesNotShadowLiveOne(t *testing.T) {
	now := int64(1_000_000)
	// An expired row on another device sharing the code value must be
	// skipped in favor of the live one, regardless of result order.
	matches := []domain.ClaimCode{
		{DeviceID: "kiosk-dead", Code: "AB12CD", ExpiresAt: now - 60},
		{DeviceID: "kiosk-live", Code: "AB12CD", ExpiresAt: now + 300},
	}

	c := liveCode(matches, now)
	require.NotNil(t, c)
	assert.Equal(t, "kiosk-live", c.DeviceID)
}

func TestLiveCode_AllExpired(t *testing.T) {
	now := int64(1_000_000)
	matches := []domain.ClaimCode{
		{DeviceID: "kiosk-001", Code: "AB12CD", ExpiresAt: now - 1},
	}
	assert.Nil(t, liveCode(matches, now))
}

func TestLiveCode_NoMatches(t *testing.T) {
	assert.Nil(t, liveCode(nil, int64(1_000_000)))
}
