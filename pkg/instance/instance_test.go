package instance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetIDPrefersExplicitID(t *testing.T) {
	t.Setenv("TANDEMFLIGHT_INSTANCE_ID", "api-7")
	t.Setenv("DYNO", "web.1")
	assert.Equal(t, "api-7", GetID("api"))
}

func TestGetIDFallsBackToDyno(t *testing.T) {
	t.Setenv("TANDEMFLIGHT_INSTANCE_ID", "")
	t.Setenv("DYNO", "worker.2")
	assert.Equal(t, "worker.2", GetID("worker"))
}

func TestGetIDUsesKindWithoutPlatformHints(t *testing.T) {
	t.Setenv("TANDEMFLIGHT_INSTANCE_ID", "")
	t.Setenv("DYNO", "")
	assert.Contains(t, GetID("cron-worker"), "cron-worker")
}
