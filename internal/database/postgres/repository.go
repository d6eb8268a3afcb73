package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/drlsv91/shortlink/internal/database"
	"github.com/drlsv91/shortlink/internal/models"
)

// Constraint names from the urls table migration. The insert relies on them
// to tell a short code collision apart from a same-URL race.
const (
	shortCodeConstraint   = "urls_short_code_key"
	originalURLConstraint = "urls_original_url_key"
)

type urlRecord struct {
	ID          int64     `db:"id"`
	ShortCode   string    `db:"short_code"`
	OriginalURL string    `db:"original_url"`
	VisitCount  int64     `db:"visit_count"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r *urlRecord) ToURL() *models.URL {
	return &models.URL{
		ID:          r.ID,
		ShortCode:   r.ShortCode,
		OriginalURL: r.OriginalURL,
		VisitCount:  r.VisitCount,
		CreatedAt:   r.CreatedAt,
	}
}

// URLRepository stores shortened URLs in Postgres. It owns record identity
// and uniqueness enforcement; both are backed by unique constraints on
// short_code and original_url.
type URLRepository struct {
	db *sqlx.DB
}

func NewURLRepository(db *sqlx.DB) *URLRepository {
	return &URLRepository{
		db: db,
	}
}

const (
	findByOriginalURLQuery = `SELECT * FROM urls WHERE original_url = $1`
	insertURLQuery         = `INSERT INTO urls(short_code, original_url) VALUES ($1, $2) RETURNING *`
	resolveAndTouchQuery   = `UPDATE urls SET visit_count = visit_count + 1 WHERE short_code = $1 RETURNING *`
	getByShortCodeQuery    = `SELECT * FROM urls WHERE short_code = $1`
	countURLsQuery         = `SELECT count(*) FROM urls WHERE ($1 = '' OR original_url ILIKE '%' || $1 || '%')`
	listURLsQuery          = `SELECT * FROM urls
		WHERE ($1 = '' OR original_url ILIKE '%' || $1 || '%')
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`
)

// FindByOriginalURL looks up the record for an original URL without side effects.
func (r *URLRepository) FindByOriginalURL(ctx context.Context, originalURL string) (*models.URL, error) {
	const op = "database.postgres.URLRepository.FindByOriginalURL"

	rec := new(urlRecord)

	if err := r.db.GetContext(ctx, rec, findByOriginalURLQuery, originalURL); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
		}

		return nil, storeError(op, "failed to find url record", err)
	}

	return rec.ToURL(), nil
}

// Create inserts a new record with a zero visit count inside a single
// transaction. The original URL is re-checked first so that repeated
// creations return the existing record instead of inserting a duplicate.
//
// A unique violation on short_code aborts the transaction without partial
// writes and returns ErrShortCodeExists. A unique violation on original_url
// means another transaction committed the same URL after our re-check; the
// committed record is read back and returned as an existing one.
func (r *URLRepository) Create(ctx context.Context, originalURL, shortCode string) (*database.CreateResult, error) {
	const op = "database.postgres.URLRepository.Create"

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, storeError(op, "failed to begin transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	rec := new(urlRecord)

	err = tx.GetContext(ctx, rec, findByOriginalURLQuery, originalURL)
	if err == nil {
		if err := tx.Commit(); err != nil {
			return nil, storeError(op, "failed to commit transaction", err)
		}

		return &database.CreateResult{URL: rec.ToURL()}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, storeError(op, "failed to check original url", err)
	}

	if err := tx.GetContext(ctx, rec, insertURLQuery, shortCode, originalURL); err != nil {
		if isUniqueViolationError(err, shortCodeConstraint) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrShortCodeExists)
		}

		if isUniqueViolationError(err, originalURLConstraint) {
			url, ferr := r.FindByOriginalURL(ctx, originalURL)
			if ferr != nil {
				return nil, ferr
			}

			return &database.CreateResult{URL: url}, nil
		}

		return nil, storeError(op, "failed to insert url record", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, storeError(op, "failed to commit transaction", err)
	}

	return &database.CreateResult{URL: rec.ToURL(), Created: true}, nil
}

// ResolveAndTouch looks up a record by short code and increments its visit
// count in the same statement. The single UPDATE ... RETURNING is what makes
// concurrent resolutions lose no increments.
func (r *URLRepository) ResolveAndTouch(ctx context.Context, shortCode string) (*models.URL, error) {
	const op = "database.postgres.URLRepository.ResolveAndTouch"

	rec := new(urlRecord)

	if err := r.db.GetContext(ctx, rec, resolveAndTouchQuery, shortCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
		}

		return nil, storeError(op, "failed to resolve url record", err)
	}

	return rec.ToURL(), nil
}

// GetStats retrieves a record by short code without touching the visit count.
func (r *URLRepository) GetStats(ctx context.Context, shortCode string) (*models.URL, error) {
	const op = "database.postgres.URLRepository.GetStats"

	rec := new(urlRecord)

	if err := r.db.GetContext(ctx, rec, getByShortCodeQuery, shortCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
		}

		return nil, storeError(op, "failed to get url record", err)
	}

	return rec.ToURL(), nil
}

// List returns records newest first, optionally filtered by a substring of
// the original URL, along with the total count matching the filter.
func (r *URLRepository) List(ctx context.Context, searchTerm string, limit, offset int) ([]models.URL, int64, error) {
	const op = "database.postgres.URLRepository.List"

	var total int64

	if err := r.db.GetContext(ctx, &total, countURLsQuery, searchTerm); err != nil {
		return nil, 0, storeError(op, "failed to count url records", err)
	}

	var recs []urlRecord

	if err := r.db.SelectContext(ctx, &recs, listURLsQuery, searchTerm, limit, offset); err != nil {
		return nil, 0, storeError(op, "failed to list url records", err)
	}

	urls := make([]models.URL, 0, len(recs))
	for _, rec := range recs {
		urls = append(urls, *rec.ToURL())
	}

	return urls, total, nil
}

func storeError(op, msg string, err error) error {
	if isConnectionError(err) {
		return fmt.Errorf("%s: %s: %w", op, msg, database.ErrStoreUnavailable)
	}

	return fmt.Errorf("%s: %s: %w", op, msg, err)
}
