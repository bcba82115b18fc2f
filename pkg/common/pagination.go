package common

import (
	"net/http"
	"strconv"
)

// DefaultPageSize and MaxPageSize bound token-paginated listings.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageParams are the pagination inputs accepted on list endpoints: a page
// size and the opaque continuation token from the previous response.
type PageParams struct {
	Limit int32  `json:"limit"`
	Token string `json:"token,omitempty"`
}

// ExtractPageParams extracts pagination parameters from request
func ExtractPageParams(r *http.Request) PageParams {
	params := PageParams{Limit: DefaultPageSize}

	if limit := r.URL.Query().Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n > 0 {
			if n > MaxPageSize {
				n = MaxPageSize
			}
			params.Limit = int32(n)
		}
	}

	params.Token = r.URL.Query().Get("nextToken")

	return params
}
