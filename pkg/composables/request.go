package composables

import (
	"net/http"

	"github.com/koinonia-app/koinonia/pkg/shared"
)

// UseQuery decodes the request query string into v and validates it.
func UseQuery[T any](v *T, r *http.Request) (*T, error) {
	if err := shared.Decoder.Decode(v, r.URL.Query()); err != nil {
		return v, err
	}
	return v, shared.Validate.Struct(v)
}

// GetLastQueryParam returns the last occurrence of a query parameter.
func GetLastQueryParam(r *http.Request, key string) string {
	values := r.URL.Query()[key]
	if len(values) > 0 {
		return values[len(values)-1]
	}
	return ""
}
