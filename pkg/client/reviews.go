package client

import (
	"context"
	"fmt"
	"net/url"
)

// ReviewsClient groups the review CRUD, result, and scoring endpoints.
type ReviewsClient struct {
	client *Client
}

// CreateReviewRequest carries the fields of a new review.  The owner is the
// authenticated caller.
type CreateReviewRequest struct {
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Collaborators []string `json:"collaborators,omitempty"`
}

// UpdateReviewRequest carries a partial update.  Nil fields stay unchanged.
type UpdateReviewRequest struct {
	Name          *string  `json:"name,omitempty"`
	Description   *string  `json:"description,omitempty"`
	Collaborators []string `json:"collaborators,omitempty"`
}

// Create registers a new review owned by the caller.
func (rc *ReviewsClient) Create(ctx context.Context, req *CreateReviewRequest) (*Review, error) {
	out := &Review{}
	if err := rc.client.post(ctx, "/reviews", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches one review with its query sessions.
func (rc *ReviewsClient) Get(ctx context.Context, reviewID string) (*Review, error) {
	out := &Review{}
	if err := rc.client.get(ctx, "/reviews/"+url.PathEscape(reviewID), out); err != nil {
		return nil, err
	}
	return out, nil
}

// List pages through the reviews the caller owns or collaborates on.
func (rc *ReviewsClient) List(ctx context.Context, page, pageSize int) (*ReviewList, error) {
	out := &ReviewList{}
	path := fmt.Sprintf("/reviews?page=%d&page_size=%d", page, pageSize)
	if err := rc.client.get(ctx, path, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies a partial update to the review.
func (rc *ReviewsClient) Update(ctx context.Context, reviewID string, req *UpdateReviewRequest) (*Review, error) {
	out := &Review{}
	if err := rc.client.put(ctx, "/reviews/"+url.PathEscape(reviewID), req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the review and its result collection.  Owner only.
func (rc *ReviewsClient) Delete(ctx context.Context, reviewID string) error {
	return rc.client.delete(ctx, "/reviews/"+url.PathEscape(reviewID), nil, nil)
}

// ResultsOptions scopes a Results call.  A zero Page returns the whole
// collection; a non-empty QueryID restricts the page to one session.
type ResultsOptions struct {
	Page       int
	PageLength int
	QueryID    string
}

// Results fetches one page of the review's persisted records.
func (rc *ReviewsClient) Results(ctx context.Context, reviewID string, opts ResultsOptions) (*ResultPage, error) {
	q := url.Values{}
	if opts.Page > 0 {
		q.Set("page", fmt.Sprintf("%d", opts.Page))
	}
	if opts.PageLength > 0 {
		q.Set("page_length", fmt.Sprintf("%d", opts.PageLength))
	}
	if opts.QueryID != "" {
		q.Set("query_id", opts.QueryID)
	}
	path := "/results/" + url.PathEscape(reviewID)
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	out := &ResultPage{}
	if err := rc.client.get(ctx, path, out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteResults removes records by DOI and reports how many were deleted.
func (rc *ReviewsClient) DeleteResults(ctx context.Context, reviewID string, dois []string) (int, error) {
	body := struct {
		DOIs []string `json:"dois"`
	}{DOIs: dois}
	var out struct {
		NumDeleted int `json:"num_deleted"`
	}
	if err := rc.client.delete(ctx, "/results/"+url.PathEscape(reviewID), body, &out); err != nil {
		return 0, err
	}
	return out.NumDeleted, nil
}

// Score upserts the caller's evaluation of one record and returns the
// updated record.
func (rc *ReviewsClient) Score(ctx context.Context, reviewID, doi string, score int, comment string) (*Record, error) {
	body := struct {
		Score   int    `json:"score"`
		Comment string `json:"comment,omitempty"`
	}{Score: score, Comment: comment}

	path := "/score/" + url.PathEscape(reviewID) + "?doi=" + url.QueryEscape(doi)
	out := &Record{}
	if err := rc.client.post(ctx, path, body, out); err != nil {
		return nil, err
	}
	return out, nil
}
