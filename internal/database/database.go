// Package database holds the storage contract shared by the repository
// implementation and the business layer: sentinel errors and the result
// type of the transactional create operation.
package database

import "github.com/drlsv91/shortlink/internal/models"

// CreateResult reports the outcome of a create attempt: the record, and
// whether this call inserted it or found an existing record for the same
// original URL.
type CreateResult struct {
	URL     *models.URL
	Created bool
}
