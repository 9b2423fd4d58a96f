// Package gcp holds the bits shared by the Pub/Sub and BigQuery clients.
package gcp

import (
	"fmt"
	"strings"

	"google.golang.org/api/option"

	"github.com/angelmondragon/tandemflight-backend/pkg/config"
)

// ClientOptions picks credentials for Google clients. Inline JSON wins over a
// key file; with neither, Application Default Credentials apply.
func ClientOptions(cfg config.GCPConfig) []option.ClientOption {
	if creds := strings.TrimSpace(cfg.CredentialsJSON); creds != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	if path := strings.TrimSpace(cfg.ApplicationCredentials); path != "" {
		return []option.ClientOption{option.WithCredentialsFile(path)}
	}
	return nil
}

// ResourceName expands a short id into projects/<project>/<kind>/<id>. Names
// that are already fully qualified for kind pass through. An empty result
// means the name cannot be resolved.
func ResourceName(projectID, kind, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, "projects/") && strings.Contains(name, "/"+kind+"/") {
		return name
	}
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return ""
	}
	return fmt.Sprintf("projects/%s/%s/%s", projectID, kind, name)
}
