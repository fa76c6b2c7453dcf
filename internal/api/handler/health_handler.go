package handler

import (
	"context"
	"net/http"
	"time"

	"leetlab/internal/common"

	"github.com/rs/zerolog/log"
)

// Pinger reports whether a backing store is reachable.
type Pinger func(ctx context.Context) error

// Health reports "OK" when every dependency answers within two seconds.
func Health(deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{}
		healthy := true
		for name, ping := range deps {
			if err := ping(ctx); err != nil {
				log.Warn().Err(err).Str("dependency", name).Msg("health check failed")
				status[name] = "down"
				healthy = false
				continue
			}
			status[name] = "up"
		}

		if !healthy {
			common.RespondWithJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded", "dependencies": status})
			return
		}
		common.RespondWithJSON(w, http.StatusOK, map[string]any{"status": "OK", "dependencies": status})
	}
}
