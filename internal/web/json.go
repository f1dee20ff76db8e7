package web

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// decodeJSON reads a JSON request body into dst, rejecting unknown
// fields so typos in client payloads surface as errors instead of
// silently ignored options.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}
