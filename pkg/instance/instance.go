package instance

import (
	"os"

	"github.com/learnhub/learnhub-backend/pkg/config"
	"github.com/learnhub/learnhub-backend/pkg/env"
)

// GetID identifies this worker process in logs. It prefers
// LEARNHUB_WORKER_ID, then the hostname.
func GetID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker-0"
	}
	return env.Get(config.EnvWorkerID, host)
}
