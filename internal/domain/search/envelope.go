package search

// Pages holds the first and last page of a record in its publication.
// Vendors deliver these as strings (page ranges like "vii-ix" exist).
type Pages struct {
	First string `json:"first,omitempty"`
	Last  string `json:"last,omitempty"`
}

// Score is a per-user evaluation attached to a persisted record.
// The store guarantees at most one Score per (record, user).
type Score struct {
	User    string `json:"user"`
	Score   int    `json:"score"`
	Comment string `json:"comment,omitempty"`
}

// Record is the canonical normalized result record.  Wrappers populate the
// fields their vendor delivers and leave the rest zero; normalizers must not
// invent values for absent vendor fields.
//
// DOI is the primary key for persistence.  Records without a DOI are valid
// query output but cannot be persisted.
type Record struct {
	ContentType     string   `json:"contentType,omitempty"`
	Title           string   `json:"title,omitempty"`
	Authors         []string `json:"authors,omitempty"`
	PublicationName string   `json:"publicationName,omitempty"`
	OpenAccess      *bool    `json:"openAccess,omitempty"`
	DOI             string   `json:"doi,omitempty"`
	Publisher       string   `json:"publisher,omitempty"`
	PublicationDate string   `json:"publicationDate,omitempty"`
	PublicationType string   `json:"publicationType,omitempty"`
	ISSN            string   `json:"issn,omitempty"`
	Volume          string   `json:"volume,omitempty"`
	Number          string   `json:"number,omitempty"`
	Genre           []string `json:"genre,omitempty"`
	Pages           *Pages   `json:"pages,omitempty"`
	JournalID       string   `json:"journalId,omitempty"`
	Copyright       string   `json:"copyright,omitempty"`
	Abstract        string   `json:"abstract,omitempty"`
	URI             string   `json:"uri,omitempty"`

	// Annotations added by the store, never by wrappers.
	Persisted bool    `json:"persisted"`
	Scores    []Score `json:"scores,omitempty"`
}

// ResultInfo carries the pagination metadata of one provider response.
// Total is -1 when the request failed or the vendor did not report a count.
type ResultInfo struct {
	Total            int64 `json:"total"`
	Start            int   `json:"start"`
	PageLength       int   `json:"pageLength"`
	RecordsDisplayed int   `json:"recordsDisplayed"`
}

// Envelope is the canonical response shape every wrapper emits, on success
// and on failure alike.  Callers detect failure via Error being non-empty
// and Result.Total == -1; no wrapper error ever surfaces as a Go error to
// the orchestrator.
type Envelope struct {
	// Query echoes the canonical input query.
	Query *Query `json:"query"`
	// DBQuery is the native query sent to the vendor: a string for GET
	// providers, the JSON request body for PUT providers.
	DBQuery interface{} `json:"dbQuery"`
	// APIKey is the credential used for the request.
	APIKey  string     `json:"apiKey"`
	Error   string     `json:"error,omitempty"`
	Result  ResultInfo `json:"result"`
	Records []Record   `json:"records"`
	Facets  Facets     `json:"facets"`
}

// IsValid reports whether the envelope represents a successful provider call.
func (e *Envelope) IsValid() bool {
	return e != nil && e.Error == "" && e.Result.Total >= 0
}

// NewInvalidEnvelope builds the canonical failure envelope: shape-compatible
// with success, Total -1, no records.
func NewInvalidEnvelope(query *Query, dbQuery interface{}, apiKey, errMsg string, start, pageLength int) *Envelope {
	return &Envelope{
		Query:   query,
		DBQuery: dbQuery,
		APIKey:  apiKey,
		Error:   errMsg,
		Result: ResultInfo{
			Total:            -1,
			Start:            start,
			PageLength:       pageLength,
			RecordsDisplayed: 0,
		},
		Records: []Record{},
		Facets:  NewFacets(),
	}
}
