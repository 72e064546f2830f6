package client

import (
	"encoding/json"
	"time"
)

// Query is the canonical search expression.  Groups combine their terms with
// the group match; the query combines its groups with the top-level match.
type Query struct {
	SearchGroups []Group  `json:"search_groups"`
	Match        string   `json:"match"`
	Fields       []string `json:"fields,omitempty"`
}

// Group is one term group of a query.
type Group struct {
	SearchTerms []string `json:"search_terms"`
	Match       string   `json:"match"`
}

// Record is one normalized literature result.  Records is intentionally kept
// loose: provider-specific extras survive a round trip through Raw.
type Record struct {
	ContentType     string   `json:"contentType,omitempty"`
	Title           string   `json:"title,omitempty"`
	Authors         []string `json:"authors,omitempty"`
	PublicationName string   `json:"publicationName,omitempty"`
	DOI             string   `json:"doi,omitempty"`
	Publisher       string   `json:"publisher,omitempty"`
	PublicationDate string   `json:"publicationDate,omitempty"`
	Abstract        string   `json:"abstract,omitempty"`
	URI             string   `json:"uri,omitempty"`

	Persisted bool    `json:"persisted"`
	Scores    []Score `json:"scores,omitempty"`
}

// Score is one user's evaluation of a record.
type Score struct {
	User    string `json:"user"`
	Score   int    `json:"score"`
	Comment string `json:"comment,omitempty"`
}

// ResultInfo summarizes one provider response.
type ResultInfo struct {
	Total            int64 `json:"total"`
	Start            int   `json:"start"`
	PageLength       int   `json:"pageLength"`
	RecordsDisplayed int   `json:"recordsDisplayed"`
}

// Envelope is one provider's slice of a federated query response.
type Envelope struct {
	Query   *Query          `json:"query"`
	Error   string          `json:"error,omitempty"`
	Result  ResultInfo      `json:"result"`
	Records []Record        `json:"records"`
	Facets  json.RawMessage `json:"facets,omitempty"`
}

// Review is a user-owned container of query sessions and persisted results.
type Review struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Description      string         `json:"description,omitempty"`
	Owner            string         `json:"owner"`
	Collaborators    []string       `json:"collaborators,omitempty"`
	ResultCollection string         `json:"result_collection"`
	Queries          []QuerySession `json:"queries"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// QuerySession is one recorded orchestrator run against a review.
type QuerySession struct {
	ID      string    `json:"id"`
	Time    time.Time `json:"time"`
	Search  *Query    `json:"search"`
	Results []string  `json:"results"`
}

// ReviewList is one page of the caller's reviews.
type ReviewList struct {
	Reviews  []*Review `json:"reviews"`
	Total    int64     `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
}

// ResultPage is one page of a review's persisted records.
type ResultPage struct {
	Results      []Record `json:"results"`
	TotalResults int64    `json:"total_results"`
}

// PersistOutcome summarizes a persistence run.
type PersistOutcome struct {
	Success      bool   `json:"success"`
	NumPersisted int    `json:"num_persisted"`
	NumSkipped   int    `json:"num_skipped"`
	QueryID      string `json:"query_id"`
}
