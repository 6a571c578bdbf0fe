// Copyright 2014-2026 the variableserver authors.
package vsmetrics

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

// SessionSnapshot is one entry in the /status response: enough to see what
// a session is doing without exposing its reference list or connection.
type SessionSnapshot struct {
	ID              string `json:"id"`
	State           string `json:"state"`
	CopyMode        string `json:"copy_mode"`
	WriteMode       string `json:"write_mode"`
	Paused          bool   `json:"paused"`
	SubscriptionCount int  `json:"subscription_count"`
	ClientTag       string `json:"client_tag,omitempty"`
}

// SnapshotSource is implemented by the registry: the status handler only
// needs a list of the fields it renders, not the whole Server/Session API.
type SnapshotSource interface {
	Snapshot() []SessionSnapshot
}

// StatusHandler builds the JSON /status endpoint, backed by src. Grounded
// in the gorilla/mux routing the example pack's web-facing services use to
// separate the metrics surface (/metrics, promhttp) from the
// application-level status surface (/status).
func StatusHandler(src SnapshotSource) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/status", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(src.Snapshot()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}).Methods(http.MethodGet)
	return r
}
