// Package repositories provides the PostgreSQL-backed implementations of the
// review and result-store repository contracts.
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

// ReviewRepository is the PostgreSQL implementation of review.Repository.
type ReviewRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewReviewRepository constructs a ready-to-use ReviewRepository.
func NewReviewRepository(pool *pgxpool.Pool, logger logging.Logger) *ReviewRepository {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ReviewRepository{pool: pool, logger: logger.Named("review_repo")}
}

var _ review.Repository = (*ReviewRepository)(nil)

func (r *ReviewRepository) Create(ctx context.Context, rv *review.Review) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO reviews (id, name, description, owner, collaborators, result_collection, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rv.ID, rv.Name, rv.Description, rv.Owner, userIDs(rv.Collaborators),
		rv.ResultCollection, rv.CreatedAt, rv.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to create review")
	}
	return nil
}

func (r *ReviewRepository) GetByID(ctx context.Context, id common.ID) (*review.Review, error) {
	rv := &review.Review{}
	var collaborators []string
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, description, owner, collaborators, result_collection, created_at, updated_at
		FROM reviews WHERE id = $1`, id,
	).Scan(&rv.ID, &rv.Name, &rv.Description, &rv.Owner, &collaborators,
		&rv.ResultCollection, &rv.CreatedAt, &rv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.Newf(apperrors.ErrCodeReviewNotFound, "review %s not found", id)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to load review")
	}
	for _, c := range collaborators {
		rv.Collaborators = append(rv.Collaborators, common.UserID(c))
	}

	sessions, err := r.loadSessions(ctx, id)
	if err != nil {
		return nil, err
	}
	rv.Queries = sessions
	return rv, nil
}

func (r *ReviewRepository) loadSessions(ctx context.Context, reviewID common.ID) ([]review.QuerySession, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, time, search, results
		FROM review_queries WHERE review_id = $1 ORDER BY time`, reviewID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to load query sessions")
	}
	defer rows.Close()

	sessions := []review.QuerySession{}
	for rows.Next() {
		qs, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *qs)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to iterate query sessions")
	}
	return sessions, nil
}

func scanSession(row pgx.Row) (*review.QuerySession, error) {
	qs := &review.QuerySession{}
	var searchJSON []byte
	if err := row.Scan(&qs.ID, &qs.Time, &searchJSON, &qs.Results); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.New(apperrors.ErrCodeQuerySessionNotFound, "query session not found")
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to scan query session")
	}
	if len(searchJSON) > 0 {
		q := &search.Query{}
		if err := json.Unmarshal(searchJSON, q); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeSerialization, "stored search query is unreadable")
		}
		qs.Search = q
	}
	if qs.Results == nil {
		qs.Results = []string{}
	}
	return qs, nil
}

func (r *ReviewRepository) Update(ctx context.Context, rv *review.Review) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE reviews
		SET name = $2, description = $3, collaborators = $4, updated_at = now()
		WHERE id = $1`,
		rv.ID, rv.Name, rv.Description, userIDs(rv.Collaborators),
	)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to update review")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.Newf(apperrors.ErrCodeReviewNotFound, "review %s not found", rv.ID)
	}
	return nil
}

// Delete removes the review, its sessions (cascade), and its result
// collection in one transaction.
func (r *ReviewRepository) Delete(ctx context.Context, id common.ID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx,
		`DELETE FROM review_results WHERE collection = $1`,
		review.ResultCollectionName(id),
	); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to drop result collection")
	}

	tag, err := tx.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to delete review")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.Newf(apperrors.ErrCodeReviewNotFound, "review %s not found", id)
	}

	if err := tx.Commit(ctx); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to commit review deletion")
	}
	r.logger.Info("review deleted", logging.String("review", string(id)))
	return nil
}

func (r *ReviewRepository) ListByUser(ctx context.Context, user common.UserID, p common.Pagination) ([]*review.Review, int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM reviews
		WHERE owner = $1 OR $1 = ANY(collaborators)`, user,
	).Scan(&total)
	if err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to count reviews")
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, owner, collaborators, result_collection, created_at, updated_at
		FROM reviews
		WHERE owner = $1 OR $1 = ANY(collaborators)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		user, p.PageSize, p.Offset(),
	)
	if err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to list reviews")
	}
	defer rows.Close()

	reviews := []*review.Review{}
	for rows.Next() {
		rv := &review.Review{}
		var collaborators []string
		if err := rows.Scan(&rv.ID, &rv.Name, &rv.Description, &rv.Owner, &collaborators,
			&rv.ResultCollection, &rv.CreatedAt, &rv.UpdatedAt); err != nil {
			return nil, 0, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to scan review")
		}
		for _, c := range collaborators {
			rv.Collaborators = append(rv.Collaborators, common.UserID(c))
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to iterate reviews")
	}
	return reviews, total, nil
}

func (r *ReviewRepository) AddQuerySession(ctx context.Context, reviewID common.ID, qs *review.QuerySession) error {
	searchJSON, err := json.Marshal(qs.Search)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to encode search query")
	}

	tag, err := r.pool.Exec(ctx, `
		INSERT INTO review_queries (id, review_id, time, search, results)
		SELECT $1, id, $3, $4, $5 FROM reviews WHERE id = $2`,
		qs.ID, reviewID, qs.Time, searchJSON, qs.Results,
	)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to add query session")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.Newf(apperrors.ErrCodeReviewNotFound, "review %s not found", reviewID)
	}
	return nil
}

func (r *ReviewRepository) GetQuerySession(ctx context.Context, reviewID, sessionID common.ID) (*review.QuerySession, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, time, search, results
		FROM review_queries WHERE review_id = $1 AND id = $2`,
		reviewID, sessionID)
	return scanSession(row)
}

func (r *ReviewRepository) AppendSessionDOIs(ctx context.Context, reviewID, sessionID common.ID, dois []string) error {
	if len(dois) == 0 {
		return nil
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE review_queries SET results = results || $3
		WHERE review_id = $1 AND id = $2`,
		reviewID, sessionID, dois,
	)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to append session DOIs")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.Newf(apperrors.ErrCodeQuerySessionNotFound, "query session %s not found", sessionID)
	}
	return nil
}

func (r *ReviewRepository) PersistedDOIs(ctx context.Context, reviewID common.ID) (map[string]struct{}, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT unnest(results) FROM review_queries WHERE review_id = $1`,
		reviewID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to load persisted DOIs")
	}
	defer rows.Close()

	dois := map[string]struct{}{}
	for rows.Next() {
		var doi string
		if err := rows.Scan(&doi); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to scan DOI")
		}
		dois[doi] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to iterate DOIs")
	}
	return dois, nil
}

func userIDs(users []common.UserID) []string {
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = string(u)
	}
	return out
}
