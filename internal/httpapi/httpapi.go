// Package httpapi carries the HTTP handlers. Handlers stay thin: decode,
// delegate to a manager, translate the error taxonomy into the envelope.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/api"
	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/httpserver"
)

const maxBodyBytes = 1 << 20

func requestID(r *http.Request) string {
	return httpserver.RequestIDFromContext(r.Context())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		api.BadRequest(w, "INVALID_JSON", "invalid JSON", requestID(r), nil)
		return false
	}
	return true
}
