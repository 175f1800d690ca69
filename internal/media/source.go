// Package media implements the HTTP resources the playback device fetches.
// Each source wraps one local asset and owns its method, range and header
// semantics; everything above it (routing, CORS, logging) is middleware.
package media

import (
	"encoding/json"
	"net/http"
)

// Kind identifies the delivery behavior of a Source.
type Kind string

const (
	KindStatic   Kind = "static"
	KindGrowable Kind = "growable"
	KindPiped    Kind = "piped"
)

// Source is one media resource mounted on the delivery server. A source
// lives for exactly one serving session; none of the implementations are
// reusable across server runs.
type Source interface {
	http.Handler

	// Kind reports which delivery variant this source is.
	Kind() Kind

	// ContentType is the MIME type advertised on every response.
	ContentType() string

	// BytesServed is the total number of body bytes written so far.
	BytesServed() int64
}

type errorEnvelope struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: errorPayload{Code: code, Message: message}})
}
