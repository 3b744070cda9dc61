package handler

import "net/http"

// Health reports liveness. It deliberately does not touch the database: a
// degraded store shows up as 503s on authenticated routes, not as a dead
// process.
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
