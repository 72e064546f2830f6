package repositories

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/turtacn/LitFed/internal/domain/review"
	"github.com/turtacn/LitFed/internal/domain/search"
	"github.com/turtacn/LitFed/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/LitFed/pkg/errors"
	"github.com/turtacn/LitFed/pkg/types/common"
)

// ResultRepository is the PostgreSQL implementation of review.ResultRepository.
// Records live in the shared review_results table, scoped per review by the
// collection column; scores are stored beside the record so upserts of a
// re-fetched record never clobber evaluations.
type ResultRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewResultRepository constructs a ready-to-use ResultRepository.
func NewResultRepository(pool *pgxpool.Pool, logger logging.Logger) *ResultRepository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ResultRepository{pool: pool, logger: logger.Named("result_repo")}
}

var _ review.ResultRepository = (*ResultRepository)(nil)

// SaveResults upserts records by DOI with persisted=true.  Records without a
// DOI are skipped and counted.
func (r *ResultRepository) SaveResults(ctx context.Context, reviewID common.ID, records []search.Record) (int, int, []string, error) {
	collection := review.ResultCollectionName(reviewID)

	saved := 0
	skipped := 0
	savedDOIs := []string{}
	for i := range records {
		rec := records[i]
		if rec.DOI == "" {
			skipped++
			continue
		}
		rec.Persisted = true
		rec.Scores = nil // evaluations live in their own column

		recordJSON, err := json.Marshal(&rec)
		if err != nil {
			return saved, skipped, savedDOIs, apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to encode result record")
		}

		_, err = r.pool.Exec(ctx, `
			INSERT INTO review_results (collection, doi, record)
			VALUES ($1, $2, $3)
			ON CONFLICT (collection, doi)
			DO UPDATE SET record = EXCLUDED.record, updated_at = now()`,
			collection, rec.DOI, recordJSON,
		)
		if err != nil {
			return saved, skipped, savedDOIs, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to upsert result record")
		}
		saved++
		savedDOIs = append(savedDOIs, rec.DOI)
	}
	return saved, skipped, savedDOIs, nil
}

// GetPageForReview returns one page over all records of the review, ordered
// by insertion time.  page == 0 disables pagination.
func (r *ResultRepository) GetPageForReview(ctx context.Context, reviewID common.ID, page, pageLength int) (*review.ResultPage, error) {
	collection := review.ResultCollectionName(reviewID)

	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM review_results WHERE collection = $1`, collection,
	).Scan(&total)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to count results")
	}

	query := `
		SELECT record, scores FROM review_results
		WHERE collection = $1 ORDER BY created_at`
	args := []any{collection}
	if page > 0 {
		// SQL paging is 0-based; the 1-based start_at convention belongs
		// to the provider wrappers.
		query += ` LIMIT $2 OFFSET $3`
		args = append(args, pageLength, (page-1)*pageLength)
	}

	results, err := r.queryRecords(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &review.ResultPage{Results: results, Total: total}, nil
}

// GetPageForSession returns one page over the records whose DOI belongs to
// the given session.
func (r *ResultRepository) GetPageForSession(ctx context.Context, reviewID common.ID, sessionDOIs []string, page, pageLength int) (*review.ResultPage, error) {
	collection := review.ResultCollectionName(reviewID)
	if len(sessionDOIs) == 0 {
		return &review.ResultPage{Results: []search.Record{}, Total: 0}, nil
	}

	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM review_results WHERE collection = $1 AND doi = ANY($2)`,
		collection, sessionDOIs,
	).Scan(&total)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to count session results")
	}

	query := `
		SELECT record, scores FROM review_results
		WHERE collection = $1 AND doi = ANY($2) ORDER BY created_at`
	args := []any{collection, sessionDOIs}
	if page > 0 {
		query += ` LIMIT $3 OFFSET $4`
		args = append(args, pageLength, (page-1)*pageLength)
	}

	results, err := r.queryRecords(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &review.ResultPage{Results: results, Total: total}, nil
}

func (r *ResultRepository) GetByDOI(ctx context.Context, reviewID common.ID, doi string) (*search.Record, error) {
	var recordJSON, scoresJSON []byte
	err := r.pool.QueryRow(ctx, `
		SELECT record, scores FROM review_results
		WHERE collection = $1 AND doi = $2`,
		review.ResultCollectionName(reviewID), doi,
	).Scan(&recordJSON, &scoresJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.Newf(apperrors.ErrCodeResultNotFound, "result %s not found", doi)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to load result")
	}
	return decodeRecord(recordJSON, scoresJSON)
}

func (r *ResultRepository) GetByDOIs(ctx context.Context, reviewID common.ID, dois []string) ([]search.Record, error) {
	if len(dois) == 0 {
		return []search.Record{}, nil
	}
	return r.queryRecords(ctx, `
		SELECT record, scores FROM review_results
		WHERE collection = $1 AND doi = ANY($2) ORDER BY created_at`,
		review.ResultCollectionName(reviewID), dois,
	)
}

func (r *ResultRepository) DeleteByDOIs(ctx context.Context, reviewID common.ID, dois []string) (int64, error) {
	if len(dois) == 0 {
		return 0, nil
	}
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM review_results WHERE collection = $1 AND doi = ANY($2)`,
		review.ResultCollectionName(reviewID), dois,
	)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to delete results")
	}
	return tag.RowsAffected(), nil
}

func (r *ResultRepository) DeleteAllForReview(ctx context.Context, reviewID common.ID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM review_results WHERE collection = $1`,
		review.ResultCollectionName(reviewID),
	)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to truncate result collection")
	}
	return nil
}

// UpdateScore upserts the evaluator's score on one record inside a
// transaction.  The scores row is locked so concurrent evaluators cannot
// lose each other's writes.
func (r *ResultRepository) UpdateScore(ctx context.Context, reviewID common.ID, doi string, eval search.Score) (*search.Record, error) {
	collection := review.ResultCollectionName(reviewID)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var recordJSON, scoresJSON []byte
	err = tx.QueryRow(ctx, `
		SELECT record, scores FROM review_results
		WHERE collection = $1 AND doi = $2 FOR UPDATE`,
		collection, doi,
	).Scan(&recordJSON, &scoresJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.Newf(apperrors.ErrCodeResultNotFound, "result %s not found", doi)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to load result for scoring")
	}

	var scores []search.Score
	if len(scoresJSON) > 0 {
		if err := json.Unmarshal(scoresJSON, &scores); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeSerialization, "stored scores are unreadable")
		}
	}
	scores = review.UpsertEvaluation(scores, eval)

	updatedScores, err := json.Marshal(scores)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to encode scores")
	}

	if _, err := tx.Exec(ctx, `
		UPDATE review_results SET scores = $3, updated_at = now()
		WHERE collection = $1 AND doi = $2`,
		collection, doi, updatedScores,
	); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to update scores")
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to commit score update")
	}

	return decodeRecord(recordJSON, updatedScores)
}

func (r *ResultRepository) queryRecords(ctx context.Context, query string, args ...any) ([]search.Record, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to query results")
	}
	defer rows.Close()

	results := []search.Record{}
	for rows.Next() {
		var recordJSON, scoresJSON []byte
		if err := rows.Scan(&recordJSON, &scoresJSON); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to scan result")
		}
		rec, err := decodeRecord(recordJSON, scoresJSON)
		if err != nil {
			return nil, err
		}
		results = append(results, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to iterate results")
	}
	return results, nil
}

// decodeRecord reassembles a stored record with its evaluations attached.
func decodeRecord(recordJSON, scoresJSON []byte) (*search.Record, error) {
	rec := &search.Record{}
	if err := json.Unmarshal(recordJSON, rec); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeSerialization, "stored record is unreadable")
	}
	if len(scoresJSON) > 0 {
		var scores []search.Score
		if err := json.Unmarshal(scoresJSON, &scores); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeSerialization, "stored scores are unreadable")
		}
		if len(scores) > 0 {
			rec.Scores = scores
		}
	}
	return rec, nil
}
