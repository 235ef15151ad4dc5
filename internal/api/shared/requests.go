package shared

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// maxRequestBodySize caps request bodies at 1 MiB.
const maxRequestBodySize = 1 << 20

// DecodeJSON decodes the request body into v, rejecting unknown fields and
// oversized bodies. Returns an error suitable for a 400 response.
func DecodeJSON(r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxRequestBodySize)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}

	// A second decode catches trailing garbage after the JSON value.
	if decoder.More() {
		return fmt.Errorf("invalid request body: unexpected trailing data")
	}

	return nil
}
