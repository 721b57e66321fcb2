package handler

import (
	"net/http"
	"time"

	"github.com/Santhosh-Rony/growdigo-qdrant/internal/api/response"
	"github.com/Santhosh-Rony/growdigo-qdrant/internal/config"
	"github.com/Santhosh-Rony/growdigo-qdrant/internal/domain"
	"github.com/Santhosh-Rony/growdigo-qdrant/internal/service"
)

func now() string {
	return time.Now().UTC().Format(domain.TimestampLayout)
}

// Root returns the service banner
func Root(app config.AppConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, map[string]string{
			"message":   app.Name,
			"status":    "running",
			"version":   app.Version,
			"timestamp": now(),
		})
	}
}

// HealthStatus is the body of the health endpoint
type HealthStatus struct {
	Status          string `json:"status"`
	StoreConnected  bool   `json:"store_connected"`
	CollectionCount *int   `json:"collection_count,omitempty"`
	Error           string `json:"error,omitempty"`
	Timestamp       string `json:"timestamp"`
}

// HealthCheck pings the store. It always answers 200 and reports problems in
// the body.
func HealthCheck(svc *service.ConversationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := svc.Health(r.Context())
		if err != nil {
			response.OK(w, HealthStatus{
				Status:    "unhealthy",
				Error:     err.Error(),
				Timestamp: now(),
			})
			return
		}

		response.OK(w, HealthStatus{
			Status:          "healthy",
			StoreConnected:  true,
			CollectionCount: &count,
			Timestamp:       now(),
		})
	}
}
