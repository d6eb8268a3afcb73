package models

import "time"

// URL represents a shortened URL and its associated metadata.
type URL struct {
	// ID is the unique identifier for the shortened URL record.
	ID int64
	// ShortCode is the short code associated with the original URL.
	ShortCode string
	// OriginalURL is the original, full-length URL that the short code points to.
	OriginalURL string
	// VisitCount tracks the number of times the shortened URL has been resolved.
	VisitCount int64
	// CreatedAt is the timestamp indicating when the shortened URL was created.
	CreatedAt time.Time
}

// URLPage is a single page of URL records returned by a listing query.
type URLPage struct {
	URLs       []URL
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}
