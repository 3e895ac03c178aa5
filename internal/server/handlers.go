package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/fakeNetflix/dyno/internal/routing"
)

// Handlers holds the admin API handlers.
type Handlers struct {
	selector *routing.HostSelectionWithFallback
	logger   *zap.Logger
}

// NewHandlers creates the admin API handlers.
func NewHandlers(selector *routing.HostSelectionWithFallback, logger *zap.Logger) *Handlers {
	return &Handlers{selector: selector, logger: logger}
}

// Liveness reports that the process is up.
func (h *Handlers) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness reports whether the selector holds a usable topology.
func (h *Handlers) Readiness(w http.ResponseWriter, r *http.Request) {
	info, err := h.selector.Topology()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "topology not initialized")
		return
	}

	active := 0
	for _, rack := range info.Racks {
		for _, host := range rack.Hosts {
			if host.Up && host.PoolActive {
				active++
			}
		}
	}
	if active == 0 {
		writeError(w, http.StatusServiceUnavailable, "no active hosts")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ready",
		"active_hosts": active,
	})
}

// Topology returns the full topology snapshot view.
func (h *Handlers) Topology(w http.ResponseWriter, r *http.Request) {
	info, err := h.selector.Topology()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// Ring returns only the token ring portion of the topology.
func (h *Handlers) Ring(w http.ResponseWriter, r *http.Request) {
	info, err := h.selector.Topology()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"replication_factor": info.ReplicationFactor,
		"tokens":             info.Tokens,
	})
}

// RouteKey resolves which host would serve the given key, without
// borrowing a connection.
func (h *Handlers) RouteKey(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	host, err := h.selector.RouteKey(key)
	if err != nil {
		switch {
		case errors.Is(err, routing.ErrNotInitialized):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		case errors.Is(err, routing.ErrNoActiveHost):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			h.logger.Error("route lookup failed", zap.String("key", key), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "route lookup failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"key":        key,
		"hostname":   host.Hostname,
		"port":       host.Port,
		"rack":       host.Rack,
		"datacenter": host.Datacenter,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"status": "error", "message": message})
}
