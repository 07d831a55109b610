package health

import (
	"encoding/json"
	"net/http"
)

// HTTPHandler serves the general probes. Degraded still answers 200.
func (c *Checker) HTTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := c.Check()
		code := http.StatusOK
		if response.Status == StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, response)
	}
}

// ReadinessHandler serves the readiness probes; anything but healthy is 503.
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return binaryHandler(c.CheckReadiness)
}

// LivenessHandler serves the liveness probes; anything but healthy is 503.
func (c *Checker) LivenessHandler() http.HandlerFunc {
	return binaryHandler(c.CheckLiveness)
}

// Mount registers the three handlers under prefix on mux.
func (c *Checker) Mount(mux *http.ServeMux, prefix string) {
	mux.Handle(prefix, c.HTTPHandler())
	mux.Handle(prefix+"/ready", c.ReadinessHandler())
	mux.Handle(prefix+"/live", c.LivenessHandler())
}

func binaryHandler(probe func() Response) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := probe()
		code := http.StatusOK
		if response.Status != StatusHealthy {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, response)
	}
}

func writeJSON(w http.ResponseWriter, code int, response Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(response)
}
