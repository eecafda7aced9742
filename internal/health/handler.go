package health

import (
	"encoding/json"
	"net/http"
)

type Status struct {
	Status  string `json:"status"`
	Dataset string `json:"dataset"`
	Error   string `json:"error,omitempty"`
}

// Handler reports "ok" while check passes and "degraded" with 503 otherwise.
func Handler(dataset string, check func() error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := Status{Status: "ok", Dataset: dataset}
		code := http.StatusOK
		if err := check(); err != nil {
			resp.Status = "degraded"
			resp.Error = err.Error()
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	})
}
