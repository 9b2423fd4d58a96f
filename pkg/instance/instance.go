// Package instance names the running process in logs.
package instance

import (
	"os"

	"github.com/angelmondragon/tandemflight-backend/pkg/env"
)

// GetID returns the instance identifier for kind. TANDEMFLIGHT_INSTANCE_ID
// wins, then the platform dyno name, then the hostname.
func GetID(kind string) string {
	if id := env.Get("TANDEMFLIGHT_INSTANCE_ID", ""); id != "" {
		return id
	}
	if dyno := env.Get("DYNO", ""); dyno != "" {
		return dyno
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return kind + "@" + host
	}
	return kind + "-0"
}
