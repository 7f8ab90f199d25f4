// Package endpoint holds the operational HTTP endpoints.
package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/speakerlab/version"
)

// CollaboratorStatus reports reachability of one model sidecar.
type CollaboratorStatus struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

// HealthChecker probes the service's collaborators.
type HealthChecker func(ctx context.Context) []CollaboratorStatus

// Health returns a handler reporting service health. The service is
// degraded, not down, when a collaborator is unreachable: requests that
// need it will fail, but the server itself is fine.
func Health(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		var collaborators []CollaboratorStatus

		if checker != nil {
			collaborators = checker(c.Request.Context())
			for _, cs := range collaborators {
				if !cs.Available {
					status = "degraded"
					break
				}
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":        status,
			"service":       serviceName,
			"version":       version.Get(),
			"timestamp":     time.Now().UTC().Format(time.RFC3339),
			"collaborators": collaborators,
		})
	}
}
