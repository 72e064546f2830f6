package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/turtacn/LitFed/internal/domain/search"
	"github.com/turtacn/LitFed/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/LitFed/pkg/errors"
)

const elsevierName = "ELSEVIER"

const defaultElsevierEndpoint = "https://api.elsevier.com/content"

const (
	collScienceDirect = "search/sciencedirect"
	collScopus        = "search/scopus"
	collMetadata      = "metadata/article"
)

var elsevierResultFormats = map[string][]string{
	collScienceDirect: {"application/json"},
	collMetadata:      {"application/json", "application/atom+xml", "application/xml"},
	collScopus:        {"application/json", "application/atom+xml", "application/xml"},
}

// elsevierSearchFields holds the manual-search tables per collection.
// Empty value lists accept any value.
var elsevierSearchFields = map[string]map[string][]string{
	// https://dev.elsevier.com/tecdoc_sdsearch_migration.html
	collScienceDirect: {
		"author": {}, "date": {}, "highlights": {"true", "false"},
		"openAccess": {"true", "false"}, "issue": {}, "loadedAfter": {},
		"page": {}, "pub": {}, "qs": {}, "title": {}, "volume": {},
	},
	// https://dev.elsevier.com/tips/ArticleMetadataTips.htm
	collMetadata: {
		"keywords": {}, "content-type": {"JL", "BS", "HB", "BK", "RW"},
		"authors": {}, "affiliation": {}, "pub-date": {}, "title": {},
		"srctitle": {}, "doi": {}, "eid": {}, "issn": {}, "isbn": {},
		"vol-issue": {}, "available-online-date": {},
		"vor-available-online-date": {}, "openaccess": {"0", "1"},
	},
	// https://dev.elsevier.com/tips/ScopusSearchTips.htm
	collScopus: {
		"ALL": {}, "ABS": {}, "AF-ID": {}, "AFFIL": {}, "AFFILCITY": {},
		"AFFILCOUNTRY": {}, "AFFILORG": {}, "ARTNUM": {}, "AU-ID": {},
		"AUTHOR-NAME": {}, "AUTH": {}, "AUTHFIRST": {},
		"AUTHLASTNAME": {}, "AUTHCOLLAB": {}, "AUTHKEY": {},
		"CASREGNUMBER": {}, "CHEM": {}, "CHEMNAME": {}, "CODE": {},
		"CONF": {}, "CONFLOC": {}, "CONFNAME": {}, "CONFSPONSOR": {},
		"DOCTYPE": {"ar", "ab", "bk", "bz", "ch", "cp", "cr", "ed",
			"er", "le", "no", "pr", "re", "sh"},
		"PUBSTAGE": {"aip", "final"}, "DOI": {}, "EDFIRST": {},
		"EDITOR": {}, "EDLASTNAME": {}, "EISSN": {},
		"EXACTSRCTITLE": {}, "FIRSTAUTH": {}, "FUND-SPONSOR": {},
		"FUND-ACR": {}, "FUND-NO": {}, "INDEXTERMS": {}, "ISBN": {},
		"ISSN": {}, "ISSNP": {}, "ISSUE": {}, "KEY": {}, "LANGUAGE": {},
		"MAUFACTURER": {}, "OPENACCESS": {"0", "1"}, "PAGEFIRST": {},
		"PAGELAST": {}, "PAGES": {}, "PMID": {}, "PUBLISHER": {},
		"PUBYEAR": {}, "REF": {}, "REFAUTH": {}, "REFTITLE": {},
		"REFSCRTITLE": {}, "REFPUBYEAR": {}, "REFARTNUM": {},
		"REFPAGE": {}, "REFAGEFIRST": {}, "SEQBANK": {},
		"SEQNUMBER": {}, "SRCTITLE": {},
		"SRCTYPE": {"j", "b", "k", "p", "r", "d"},
		"SUBJARE": {"AGRI", "ARTS", "BIOC", "BUSI", "CENG", "CHEM",
			"COMP", "DECI", "DENT", "EART", "ECON", "ENER", "ENGI",
			"ENVI", "HEAL", "IMMU", "MATE", "MATH", "MEDI", "NEUR",
			"NURS", "PHAR", "PHYS", "PSYC", "SOCI", "VETE", "MULT"},
		"TITLE": {}, "TITLE-ABS-KEY": {},
		"TITLE-ABS-KEY-AUTH": {}, "TRADENAME": {}, "VOLUME": {},
		"WEBSITE": {},
	},
}

var elsevierFieldsTranslate = map[string]map[search.Field]string{
	collScienceDirect: {
		search.FieldAll:   "qs",
		search.FieldTitle: "title",
	},
	collMetadata: {
		search.FieldKeywords: "keywords",
		search.FieldTitle:    "title",
	},
	collScopus: {
		search.FieldAll:      "ALL",
		search.FieldAbstract: "ABS",
		search.FieldKeywords: "KEY",
		search.FieldTitle:    "TITLE",
	},
}

// ElsevierWrapper adapts the Elsevier APIs (Scopus and ScienceDirect) to the
// canonical query/envelope contract.  Scopus is searched via GET, the
// ScienceDirect v2 search via PUT with a JSON body.  The credential travels
// in the X-ELS-APIKey header; the vendor offset is 0-based.
type ElsevierWrapper struct {
	apiKey       string
	endpoint     string
	collection   string
	resultFormat string
	startRecord  int // 0-based, vendor convention
	showNum      int
	parameters   map[string]string
	maxRetries   int
	timeout      time.Duration
	executor     *Executor
	logger       logging.Logger
}

// NewElsevierWrapper builds a wrapper for the Scopus collection with JSON
// format, honoring any overrides in s.
func NewElsevierWrapper(apiKey string, s Settings, logger logging.Logger) (*ElsevierWrapper, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	w := &ElsevierWrapper{
		apiKey:       apiKey,
		endpoint:     defaultElsevierEndpoint,
		collection:   collScopus,
		resultFormat: "application/json",
		startRecord:  0,
		showNum:      25,
		parameters:   map[string]string{},
		maxRetries:   DefaultMaxRetries,
		timeout:      30 * time.Second,
		logger:       logger.Named("elsevier"),
	}
	if s.Endpoint != "" {
		w.endpoint = strings.TrimSuffix(s.Endpoint, "/")
	}
	if s.Timeout > 0 {
		w.timeout = s.Timeout
	}
	if s.MaxRetries > 0 {
		w.maxRetries = s.MaxRetries
	}
	if s.Collection != "" {
		if err := w.SetCollection(s.Collection); err != nil {
			return nil, err
		}
	}
	if s.ResultFormat != "" {
		if err := w.SetResultFormat(s.ResultFormat); err != nil {
			return nil, err
		}
	}
	w.showNum = w.MaxRecords()
	w.executor = NewExecutor(w.timeout, w.logger)
	return w, nil
}

func (w *ElsevierWrapper) Name() string     { return elsevierName }
func (w *ElsevierWrapper) Endpoint() string { return w.endpoint }

func (w *ElsevierWrapper) Collection() string { return w.collection }

func (w *ElsevierWrapper) SetCollection(value string) error {
	value = strings.ToLower(strings.TrimSpace(value))
	formats, ok := elsevierResultFormats[value]
	if !ok {
		return apperrors.Newf(apperrors.ErrCodeWrapperUnknownCollection, "Unknown collection %s", value)
	}
	if !containsString(formats, w.resultFormat) {
		w.logger.Warn("result format illegal for collection, coercing",
			logging.String("collection", value),
			logging.String("format", formats[0]),
		)
		w.resultFormat = formats[0]
	}
	w.collection = value
	if w.showNum > w.MaxRecords() {
		w.showNum = w.MaxRecords()
	}
	return nil
}

func (w *ElsevierWrapper) ResultFormat() string { return w.resultFormat }

// SetResultFormat accepts either the full MIME type or its subtype
// ("json" is coerced to "application/json").
func (w *ElsevierWrapper) SetResultFormat(value string) error {
	value = strings.ToLower(strings.TrimSpace(value))
	formats := elsevierResultFormats[w.collection]
	switch {
	case containsString(formats, value):
		w.resultFormat = value
	case containsString(formats, "application/"+value):
		w.logger.Debug("coercing result format", logging.String("format", "application/"+value))
		w.resultFormat = "application/" + value
	default:
		return apperrors.Newf(apperrors.ErrCodeWrapperIllegalFormat,
			"Illegal format %s for collection %s", value, w.collection)
	}
	return nil
}

func (w *ElsevierWrapper) AllowedResultFormats() map[string][]string {
	return elsevierResultFormats
}

// MaxRecords returns the per-request ceiling: Scopus caps at 25, the other
// collections at 100.
func (w *ElsevierWrapper) MaxRecords() int {
	if w.collection == collScopus {
		return 25
	}
	return 100
}

func (w *ElsevierWrapper) ShowNum() int { return w.showNum }

func (w *ElsevierWrapper) SetShowNum(value int) {
	if value > w.MaxRecords() {
		w.logger.Warn("requested page length exceeds provider maximum",
			logging.Int("requested", value),
			logging.Int("max", w.MaxRecords()),
		)
		w.showNum = w.MaxRecords()
		return
	}
	w.showNum = value
}

// StartAt takes the canonical 1-based index; the vendor offset is 0-based.
func (w *ElsevierWrapper) StartAt(value int) { w.startRecord = value - 1 }

func (w *ElsevierWrapper) MaxRetries() int         { return w.maxRetries }
func (w *ElsevierWrapper) SetMaxRetries(value int) { w.maxRetries = value }

func (w *ElsevierWrapper) AllowedSearchFields() map[string][]string {
	if fields, ok := elsevierSearchFields[w.collection]; ok {
		return fields
	}
	return map[string][]string{}
}

func (w *ElsevierWrapper) FieldsTranslateMap() map[search.Field]string {
	if m, ok := elsevierFieldsTranslate[w.collection]; ok {
		return m
	}
	return map[search.Field]string{}
}

func (w *ElsevierWrapper) SearchField(key, value string) error {
	return w.searchFieldInto(w.parameters, key, value)
}

func (w *ElsevierWrapper) searchFieldInto(params map[string]string, key, value string) error {
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if err := validateSearchField(w.AllowedSearchFields(), key, value); err != nil {
		return err
	}
	params[key] = value
	return nil
}

func (w *ElsevierWrapper) ResetField(key string) error {
	if _, ok := w.parameters[key]; !ok {
		return apperrors.Newf(apperrors.ErrCodeQueryUnknownField, "field %s is not set", key)
	}
	delete(w.parameters, key)
	return nil
}

func (w *ElsevierWrapper) ResetAllFields() { w.parameters = map[string]string{} }

// queryURL builds the API URL without the search expression.  GET
// collections carry offset and page length as query parameters; the
// ScienceDirect PUT body carries them in its display block instead.
func (w *ElsevierWrapper) queryURL() string {
	url := w.endpoint + "/" + w.collection
	if w.collection == collScopus || w.collection == collMetadata {
		url += fmt.Sprintf("?start=%d&count=%d", w.startRecord, w.showNum)
	}
	return url
}

func (w *ElsevierWrapper) queryHeaders() map[string]string {
	return map[string]string{
		"X-ELS-APIKey": w.apiKey,
		"Accept":       w.resultFormat,
	}
}

// BuildQuery builds the request from manual-search parameters.
func (w *ElsevierWrapper) BuildQuery() (*Request, error) {
	if len(w.parameters) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeQueryInvalid, "no search-parameters set")
	}

	switch w.collection {
	case collScienceDirect:
		body := map[string]interface{}{}
		for k, v := range w.parameters {
			body[k] = v
		}
		w.attachDisplay(body)
		return NewPutRequest(w.queryURL(), w.queryHeaders(), body), nil
	case collScopus, collMetadata:
		url := w.queryURL() + "&query=" + BuildGetQuery(w.parameters, "(", ")+AND+") + ")"
		return NewGetRequest(url, w.queryHeaders()), nil
	default:
		return nil, apperrors.Newf(apperrors.ErrCodeWrapperUnknownCollection,
			"Unknown collection %s", w.collection)
	}
}

// TranslateQuery renders the canonical query into the collection's native
// syntax: Scopus wraps each group in its field token ("ALL((energy))",
// "NOT+" negation), ScienceDirect renders a space-padded boolean expression
// into the PUT body under each field's key.
func (w *ElsevierWrapper) TranslateQuery(q *search.Query) (*Request, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	fields, err := resolveFields(q, w.FieldsTranslateMap())
	if err != nil {
		return nil, err
	}
	translate := w.FieldsTranslateMap()

	switch w.collection {
	case collScienceDirect:
		expr, err := RenderBodyGroups(q)
		if err != nil {
			return nil, err
		}
		body := map[string]interface{}{}
		for _, f := range fields {
			if err := w.searchFieldInto(map[string]string{}, translate[f], expr); err != nil {
				return nil, err
			}
			body[translate[f]] = expr
		}
		w.attachDisplay(body)
		return NewPutRequest(w.queryURL(), w.queryHeaders(), body), nil

	case collScopus, collMetadata:
		exprs := make([]string, 0, len(fields))
		for _, f := range fields {
			expr, err := TranslateGetQuery(q, translate[f], "+", "NOT+", false)
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, expr)
		}
		url := w.queryURL() + "&query=" + strings.Join(exprs, "+OR+")
		return NewGetRequest(url, w.queryHeaders()), nil

	default:
		return nil, apperrors.Newf(apperrors.ErrCodeWrapperUnknownCollection,
			"Unknown collection %s", w.collection)
	}
}

func (w *ElsevierWrapper) attachDisplay(body map[string]interface{}) {
	body["display"] = map[string]interface{}{
		"offset": w.startRecord,
		"show":   w.showNum,
	}
}

// dbQuery extracts the native query for the envelope: the expression after
// "&query=" for GET collections, the request body for PUT collections.
func (w *ElsevierWrapper) dbQuery(req *Request) interface{} {
	if req.Body != nil {
		return req.Body
	}
	if i := strings.LastIndex(req.URL, "&query="); i >= 0 {
		return req.URL[i+len("&query="):]
	}
	return req.URL
}

// envelopeStart is the canonical 1-based start index reported in envelopes.
func (w *ElsevierWrapper) envelopeStart() int { return w.startRecord + 1 }

// CallAPI executes the query and normalizes the vendor response.  All
// failures are reported through the envelope.
func (w *ElsevierWrapper) CallAPI(ctx context.Context, q *search.Query) *search.Envelope {
	switch w.collection {
	case collScienceDirect, collScopus:
	case collMetadata:
		return search.NewInvalidEnvelope(q, nil, w.apiKey,
			fmt.Sprintf("A request to current collection %s is not yet implemented.", w.collection),
			w.envelopeStart(), w.showNum)
	default:
		return search.NewInvalidEnvelope(q, nil, w.apiKey,
			fmt.Sprintf("Unknown collection %s", w.collection),
			w.envelopeStart(), w.showNum)
	}

	req, err := w.request(q)
	if err != nil {
		return search.NewInvalidEnvelope(q, nil, w.apiKey,
			errPrefixRequest+envelopeErrorMessage(err), w.envelopeStart(), w.showNum)
	}

	body, execErr := w.executor.Execute(ctx, req, w.maxRetries)
	if execErr != nil {
		return search.NewInvalidEnvelope(q, w.dbQuery(req), w.apiKey,
			envelopeErrorMessage(execErr), w.envelopeStart(), w.showNum)
	}

	return w.formatResponse(body, q, w.dbQuery(req))
}

// CallRaw executes the query and returns the unparsed vendor body.
func (w *ElsevierWrapper) CallRaw(ctx context.Context, q *search.Query) ([]byte, error) {
	if w.collection != collScienceDirect && w.collection != collScopus {
		return nil, apperrors.Newf(apperrors.ErrCodeProviderUnimplemented,
			"A request to current collection %s is not yet implemented.", w.collection)
	}
	req, err := w.request(q)
	if err != nil {
		return nil, err
	}
	body, execErr := w.executor.Execute(ctx, req, w.maxRetries)
	if execErr != nil {
		return nil, execErr
	}
	return body, nil
}

func (w *ElsevierWrapper) request(q *search.Query) (*Request, error) {
	if q == nil {
		return w.BuildQuery()
	}
	return w.TranslateQuery(q)
}

func (w *ElsevierWrapper) Clone() Wrapper {
	clone := *w
	clone.parameters = map[string]string{}
	for k, v := range w.parameters {
		clone.parameters[k] = v
	}
	clone.executor = NewExecutor(w.timeout, w.logger)
	return &clone
}

// ─────────────────────────────────────────────────────────────────────────────
// Response normalization
// ─────────────────────────────────────────────────────────────────────────────

type scopusResponse struct {
	SearchResults *scopusSearchResults `json:"search-results"`
}

type scopusSearchResults struct {
	TotalResults flexInt `json:"opensearch:totalResults"`
	Query        *struct {
		SearchTerms string `json:"@searchTerms"`
	} `json:"opensearch:Query"`
	Entries []scopusEntry `json:"entry"`
}

type scopusEntry struct {
	Error              string     `json:"error"`
	SubtypeDescription string     `json:"subtypeDescription"`
	Title              string     `json:"dc:title"`
	Creator            string     `json:"dc:creator"`
	PublicationName    string     `json:"prism:publicationName"`
	OpenAccess         flexBool   `json:"openaccess"`
	DOI                string     `json:"prism:doi"`
	CoverDate          string     `json:"prism:coverDate"`
	AggregationType    string     `json:"prism:aggregationType"`
	ISSN               string     `json:"prism:issn"`
	Volume             flexString `json:"prism:volume"`
	PageRange          string     `json:"prism:pageRange"`
	Links              []struct {
		Ref  string `json:"@ref"`
		Href string `json:"@href"`
	} `json:"link"`
	Affiliations []struct {
		Country string `json:"affiliation-country"`
	} `json:"affiliation"`
}

type sciencedirectResponse struct {
	ResultsFound flexInt               `json:"resultsFound"`
	Results      []sciencedirectResult `json:"results"`
}

type sciencedirectResult struct {
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
	DOI             string `json:"doi"`
	Title           string `json:"title"`
	OpenAccess      *bool  `json:"openAccess"`
	PublicationDate string `json:"publicationDate"`
	SourceTitle     string `json:"sourceTitle"`
	URI             string `json:"uri"`
	Pages           *struct {
		First flexString `json:"first"`
		Last  flexString `json:"last"`
	} `json:"pages"`
	VolumeIssue string `json:"volumeIssue"`
}

func (w *ElsevierWrapper) formatResponse(body []byte, q *search.Query, dbQuery interface{}) *search.Envelope {
	if w.resultFormat != "application/json" {
		return search.NewInvalidEnvelope(q, dbQuery, w.apiKey,
			errPrefixRequest+fmt.Sprintf("no formatter defined for %s", w.resultFormat),
			w.envelopeStart(), w.showNum)
	}

	switch w.collection {
	case collScopus:
		return w.formatScopus(body, q, dbQuery)
	case collScienceDirect:
		return w.formatScienceDirect(body, q, dbQuery)
	default:
		return search.NewInvalidEnvelope(q, dbQuery, w.apiKey,
			errPrefixRequest+fmt.Sprintf("no formatter defined for collection %s", w.collection),
			w.envelopeStart(), w.showNum)
	}
}

func (w *ElsevierWrapper) formatScopus(body []byte, q *search.Query, dbQuery interface{}) *search.Envelope {
	var resp scopusResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return search.NewInvalidEnvelope(q, dbQuery, w.apiKey,
			errPrefixRequest+err.Error(), w.envelopeStart(), w.showNum)
	}
	if resp.SearchResults == nil {
		return search.NewInvalidEnvelope(q, dbQuery, w.apiKey,
			"Scopus returned unknown format.", w.envelopeStart(), w.showNum)
	}
	sr := resp.SearchResults

	env := &search.Envelope{
		Query:   q,
		DBQuery: dbQuery,
		APIKey:  w.apiKey,
		Records: []search.Record{},
		Facets:  search.NewFacets(),
	}
	if sr.Query != nil && sr.Query.SearchTerms != "" {
		env.DBQuery = sr.Query.SearchTerms
	}

	entries := sr.Entries
	// An empty result set arrives as a single entry carrying only an error
	// field.
	if len(entries) == 1 && entries[0].Error != "" {
		entries = nil
	}

	env.Result = search.ResultInfo{
		Total:            int64(sr.TotalResults),
		Start:            w.envelopeStart(),
		PageLength:       w.showNum,
		RecordsDisplayed: len(entries),
	}

	titles := make([]string, 0, len(entries))
	for _, e := range entries {
		rec := search.Record{
			ContentType:     e.SubtypeDescription,
			Title:           e.Title,
			PublicationName: e.PublicationName,
			DOI:             e.DOI,
			Publisher:       "Elsevier",
			PublicationDate: e.CoverDate,
			PublicationType: e.AggregationType,
			ISSN:            e.ISSN,
			Volume:          string(e.Volume),
		}
		if e.Creator != "" {
			rec.Authors = []string{e.Creator}
		}
		if e.OpenAccess.Set {
			open := e.OpenAccess.Value
			rec.OpenAccess = &open
		}
		if e.PageRange != "" {
			parts := strings.SplitN(e.PageRange, "-", 2)
			pages := &search.Pages{First: parts[0]}
			if len(parts) > 1 {
				pages.Last = parts[1]
			}
			rec.Pages = pages
		}
		for _, link := range e.Links {
			if link.Ref == "scopus" {
				rec.URI = link.Href
				break
			}
		}
		if len(e.Affiliations) > 0 && e.Affiliations[0].Country != "" {
			env.Facets.Countries[countryISO2(e.Affiliations[0].Country)]++
		}
		if rec.Title != "" {
			titles = append(titles, rec.Title)
		}
		env.Records = append(env.Records, rec)
	}
	env.Facets.Keywords = search.KeywordsFromTitles(titles)

	return env
}

func (w *ElsevierWrapper) formatScienceDirect(body []byte, q *search.Query, dbQuery interface{}) *search.Envelope {
	var resp sciencedirectResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return search.NewInvalidEnvelope(q, dbQuery, w.apiKey,
			errPrefixRequest+err.Error(), w.envelopeStart(), w.showNum)
	}

	env := &search.Envelope{
		Query:   q,
		DBQuery: dbQuery,
		APIKey:  w.apiKey,
		Result: search.ResultInfo{
			Total:            int64(resp.ResultsFound),
			Start:            w.envelopeStart(),
			PageLength:       w.showNum,
			RecordsDisplayed: len(resp.Results),
		},
		Records: make([]search.Record, 0, len(resp.Results)),
		Facets:  search.NewFacets(),
	}

	titles := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		rec := search.Record{
			Title:           r.Title,
			PublicationName: r.SourceTitle,
			DOI:             r.DOI,
			Publisher:       "ScienceDirect",
			PublicationDate: r.PublicationDate,
			URI:             r.URI,
			OpenAccess:      r.OpenAccess,
		}
		for _, a := range r.Authors {
			rec.Authors = append(rec.Authors, a.Name)
		}
		if r.Pages != nil {
			rec.Pages = &search.Pages{First: string(r.Pages.First), Last: string(r.Pages.Last)}
		}
		if rec.Title != "" {
			titles = append(titles, rec.Title)
		}
		env.Records = append(env.Records, rec)
	}
	env.Facets.Keywords = search.KeywordsFromTitles(titles)

	return env
}
