package client

import (
	"context"
	"fmt"
	"net/url"
)

// QueriesClient groups the federated query and persistence endpoints.
type QueriesClient struct {
	client *Client
}

// DryQueryOptions scopes a DryQuery call.  PageLengthMax requests each
// provider's maximum page; it wins over PageLength.  A non-empty ReviewID
// marks records already persisted in that review.
type DryQueryOptions struct {
	Page          int
	PageLength    int
	PageLengthMax bool
	ReviewID      string
}

// dryQueryResponse is the wire shape of POST /dry_query.
type dryQueryResponse struct {
	Results []*Envelope `json:"results"`
}

// DryQuery runs a federated query without persisting anything.  The response
// is one envelope per provider.
func (qc *QueriesClient) DryQuery(ctx context.Context, query *Query, opts DryQueryOptions) ([]*Envelope, error) {
	q := url.Values{}
	if opts.Page > 0 {
		q.Set("page", fmt.Sprintf("%d", opts.Page))
	}
	if opts.PageLengthMax {
		q.Set("page_length", "max")
	} else if opts.PageLength > 0 {
		q.Set("page_length", fmt.Sprintf("%d", opts.PageLength))
	}
	if opts.ReviewID != "" {
		q.Set("review_id", opts.ReviewID)
	}
	path := "/dry_query"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	out := dryQueryResponse{}
	if err := qc.client.post(ctx, path, query, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// NewQueryResult is the response of a NewQuery call.
type NewQueryResult struct {
	QueryID      string `json:"query_id"`
	NumPersisted int    `json:"num_persisted"`
}

// NewQuery registers a query session on the review.  With maxRecords > 0 the
// server pages through the federated results and persists records until at
// least maxRecords were seen.
func (qc *QueriesClient) NewQuery(ctx context.Context, reviewID string, query *Query, maxRecords int) (*NewQueryResult, error) {
	body := struct {
		Search     *Query `json:"search"`
		MaxRecords int    `json:"max_records,omitempty"`
	}{Search: query, MaxRecords: maxRecords}

	out := &NewQueryResult{}
	if err := qc.client.post(ctx, "/review/"+url.PathEscape(reviewID)+"/query", body, out); err != nil {
		return nil, err
	}
	return out, nil
}

// PersistPages persists the given federated result pages of the query into
// the review.  pageLength 0 with max=false uses the server default; max=true
// requests each provider's maximum page.
func (qc *QueriesClient) PersistPages(ctx context.Context, reviewID string, query *Query, pages []int, pageLength int, max bool) (*PersistOutcome, error) {
	body := struct {
		Search     *Query      `json:"search"`
		Pages      []int       `json:"pages"`
		PageLength interface{} `json:"page_length,omitempty"`
	}{Search: query, Pages: pages}
	if max {
		body.PageLength = "max"
	} else if pageLength > 0 {
		body.PageLength = pageLength
	}

	out := &PersistOutcome{}
	if err := qc.client.post(ctx, "/persist/"+url.PathEscape(reviewID), body, out); err != nil {
		return nil, err
	}
	return out, nil
}

// PersistList persists an explicit record list, e.g. results hand-picked
// from a dry query.
func (qc *QueriesClient) PersistList(ctx context.Context, reviewID string, query *Query, records []Record) (*PersistOutcome, error) {
	body := struct {
		Search  *Query   `json:"search"`
		Results []Record `json:"results"`
	}{Search: query, Results: records}

	out := &PersistOutcome{}
	if err := qc.client.post(ctx, "/persist/"+url.PathEscape(reviewID)+"/list", body, out); err != nil {
		return nil, err
	}
	return out, nil
}
