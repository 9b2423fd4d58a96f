package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRejectsUnknownMembers(t *testing.T) {
	role, err := ParseActorRole("pilot")
	require.NoError(t, err)
	assert.Equal(t, ActorRolePilot, role)

	_, err = ParseActorRole("customer")
	assert.EqualError(t, err, `invalid actor role "customer"`)

	_, err = ParseRefundType("Full")
	assert.Error(t, err, "parsing is case sensitive")
}

func TestOutboxEnums(t *testing.T) {
	assert.True(t, AggregateBooking.IsValid())
	assert.False(t, OutboxAggregateType("pilot").IsValid())
	assert.True(t, EventNotificationRequested.IsValid())
	assert.False(t, OutboxEventType("").IsValid())
}
