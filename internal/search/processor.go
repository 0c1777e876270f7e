package search

import (
	"strings"

	"github.com/nysgpt/billembed/internal/legislature"
	"github.com/nysgpt/billembed/internal/models"
)

// ProcessQuery trims the query, clamps the limit, maps the session year to its session key
// and validates the result.
func ProcessQuery(req *models.SearchRequest) error {
	req.Query = strings.TrimSpace(req.Query)
	if req.SessionYear == 0 {
		req.SessionYear = models.DefaultSessionYear
	}
	req.SessionYear = legislature.SessionYear(req.SessionYear)
	req.Normalize()
	return req.Validate()
}
