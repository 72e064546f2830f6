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

// springerName is the registry name; the credential binder derives the
// SPRINGER_API_KEY lookup from it.
const springerName = "SPRINGER"

const defaultSpringerEndpoint = "http://api.springernature.com"

// springerResultFormats enumerates the permitted result format per collection.
var springerResultFormats = map[string][]string{
	"meta/v2":    {"pam", "jats", "json", "jsonp", "jsonld"},
	"metadata":   {"pam", "json", "jsonp"},
	"openaccess": {"jats", "json", "jsonp"},
	"integro":    {"xml"},
}

// springerSearchFields enumerates the manual-search parameters Springer
// accepts.  Empty value lists accept any value.
var springerSearchFields = map[string][]string{
	"doi": {}, "subject": {}, "keyword": {}, "pub": {}, "year": {},
	"onlinedate": {}, "onlinedatefrom": {}, "onlinedateto": {},
	"country": {}, "isbn": {}, "issn": {}, "journalid": {},
	"topicalcollection": {}, "journalonlinefirst": {"true"},
	"date": {}, "issuetype": {}, "issue": {}, "volume": {},
	"type": {"Journal", "Book"}, "openaccess": {"true"}, "title": {},
	"orgname": {}, "journal": {}, "book": {}, "name": {},
}

var springerFieldsTranslate = map[search.Field]string{
	search.FieldAll:      "",
	search.FieldKeywords: "keyword",
	search.FieldTitle:    "title",
}

// SpringerWrapper adapts the Springer Nature API to the canonical
// query/envelope contract.  It searches via GET requests with the API key
// embedded in the URL; pagination is 1-based.
type SpringerWrapper struct {
	apiKey       string
	endpoint     string
	collection   string
	resultFormat string
	startRecord  int // 1-based
	showNum      int
	parameters   map[string]string
	maxRetries   int
	timeout      time.Duration
	executor     *Executor
	logger       logging.Logger
}

// NewSpringerWrapper builds a wrapper with the metadata collection and JSON
// format, honoring any overrides in s.
func NewSpringerWrapper(apiKey string, s Settings, logger logging.Logger) (*SpringerWrapper, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	w := &SpringerWrapper{
		apiKey:       apiKey,
		endpoint:     defaultSpringerEndpoint,
		collection:   "metadata",
		resultFormat: "json",
		startRecord:  1,
		showNum:      50,
		parameters:   map[string]string{},
		maxRetries:   DefaultMaxRetries,
		timeout:      30 * time.Second,
		logger:       logger.Named("springer"),
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

func (w *SpringerWrapper) Name() string     { return springerName }
func (w *SpringerWrapper) Endpoint() string { return w.endpoint }

func (w *SpringerWrapper) Collection() string { return w.collection }

// SetCollection switches the collection and coerces the result format to the
// collection's first allowed value when the current one is illegal.
func (w *SpringerWrapper) SetCollection(value string) error {
	value = strings.ToLower(strings.TrimSpace(value))
	formats, ok := springerResultFormats[value]
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

func (w *SpringerWrapper) ResultFormat() string { return w.resultFormat }

func (w *SpringerWrapper) SetResultFormat(value string) error {
	value = strings.ToLower(strings.TrimSpace(value))
	if !containsString(springerResultFormats[w.collection], value) {
		return apperrors.Newf(apperrors.ErrCodeWrapperIllegalFormat,
			"Illegal format %s for collection %s", value, w.collection)
	}
	w.resultFormat = value
	return nil
}

func (w *SpringerWrapper) AllowedResultFormats() map[string][]string {
	return springerResultFormats
}

// MaxRecords returns the per-request ceiling: the openaccess collection caps
// at 20, the others at 50.
func (w *SpringerWrapper) MaxRecords() int {
	if w.collection == "openaccess" {
		return 20
	}
	return 50
}

func (w *SpringerWrapper) ShowNum() int { return w.showNum }

func (w *SpringerWrapper) SetShowNum(value int) {
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

func (w *SpringerWrapper) StartAt(value int) { w.startRecord = value }

func (w *SpringerWrapper) MaxRetries() int         { return w.maxRetries }
func (w *SpringerWrapper) SetMaxRetries(value int) { w.maxRetries = value }

func (w *SpringerWrapper) AllowedSearchFields() map[string][]string {
	return springerSearchFields
}

func (w *SpringerWrapper) FieldsTranslateMap() map[search.Field]string {
	return springerFieldsTranslate
}

func (w *SpringerWrapper) SearchField(key, value string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	value = strings.TrimSpace(value)
	if err := validateSearchField(springerSearchFields, key, value); err != nil {
		return err
	}
	w.parameters[key] = value
	return nil
}

func (w *SpringerWrapper) ResetField(key string) error {
	if _, ok := w.parameters[key]; !ok {
		return apperrors.Newf(apperrors.ErrCodeQueryUnknownField, "field %s is not set", key)
	}
	delete(w.parameters, key)
	return nil
}

func (w *SpringerWrapper) ResetAllFields() { w.parameters = map[string]string{} }

// queryPrefix builds the API URL up to but excluding the search expression.
func (w *SpringerWrapper) queryPrefix() string {
	return fmt.Sprintf("%s/%s/%s?api_key=%s&s=%d&p=%d",
		w.endpoint, w.collection, w.resultFormat, w.apiKey, w.startRecord, w.showNum)
}

// BuildQuery builds the request from manual-search parameters.
func (w *SpringerWrapper) BuildQuery() (*Request, error) {
	if len(w.parameters) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeQueryInvalid, "no search-parameters set")
	}
	url := w.queryPrefix() + "&q=" + BuildGetQuery(w.parameters, ":", "+")
	return NewGetRequest(url, nil), nil
}

// TranslateQuery renders the canonical query into the Springer GET syntax:
// per-term field prefixes ("keyword:bitcoin"), "+" padding, "-" negation,
// multiple fields joined by "+OR+".
func (w *SpringerWrapper) TranslateQuery(q *search.Query) (*Request, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	fields, err := resolveFields(q, springerFieldsTranslate)
	if err != nil {
		return nil, err
	}

	exprs := make([]string, 0, len(fields))
	for _, f := range fields {
		prefix := springerFieldsTranslate[f]
		if prefix != "" {
			prefix += ":"
		}
		expr, err := TranslateGetQuery(q, prefix, "+", "-", true)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
	}

	url := w.queryPrefix() + "&q=" + strings.Join(exprs, "+OR+")
	return NewGetRequest(url, nil), nil
}

// dbQuery extracts the native search expression from the request URL.
func (w *SpringerWrapper) dbQuery(url string) string {
	if i := strings.LastIndex(url, "&q="); i >= 0 {
		return url[i+len("&q="):]
	}
	return url
}

// CallAPI executes the query and normalizes the vendor response.  All
// failures are reported through the envelope.
func (w *SpringerWrapper) CallAPI(ctx context.Context, q *search.Query) *search.Envelope {
	req, err := w.request(q)
	if err != nil {
		return search.NewInvalidEnvelope(q, "", w.apiKey,
			errPrefixRequest+envelopeErrorMessage(err), w.startRecord, w.showNum)
	}

	body, execErr := w.executor.Execute(ctx, req, w.maxRetries)
	if execErr != nil {
		return search.NewInvalidEnvelope(q, w.dbQuery(req.URL), w.apiKey,
			envelopeErrorMessage(execErr), w.startRecord, w.showNum)
	}

	return w.formatResponse(body, q, w.dbQuery(req.URL))
}

// CallRaw executes the query and returns the unparsed vendor body.
func (w *SpringerWrapper) CallRaw(ctx context.Context, q *search.Query) ([]byte, error) {
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

func (w *SpringerWrapper) request(q *search.Query) (*Request, error) {
	if q == nil {
		return w.BuildQuery()
	}
	return w.TranslateQuery(q)
}

func (w *SpringerWrapper) Clone() Wrapper {
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

type springerResponse struct {
	Query   string               `json:"query"`
	Result  []springerResultInfo `json:"result"`
	Records []springerRecord     `json:"records"`
	Facets  []springerFacet      `json:"facets"`
}

type springerResultInfo struct {
	Total            flexInt `json:"total"`
	Start            flexInt `json:"start"`
	PageLength       flexInt `json:"pageLength"`
	RecordsDisplayed flexInt `json:"recordsDisplayed"`
}

type springerRecord struct {
	ContentType     string      `json:"contentType"`
	Title           string      `json:"title"`
	Creators        []struct {
		Creator string `json:"creator"`
	} `json:"creators"`
	PublicationName string      `json:"publicationName"`
	OpenAccess      flexBool    `json:"openaccess"`
	DOI             string      `json:"doi"`
	Publisher       string      `json:"publisher"`
	PublicationDate string      `json:"publicationDate"`
	PublicationType string      `json:"publicationType"`
	ISSN            string      `json:"issn"`
	Volume          flexString  `json:"volume"`
	Number          flexString  `json:"number"`
	Genre           flexStrings `json:"genre"`
	StartingPage    flexString  `json:"startingPage"`
	EndingPage      flexString  `json:"endingPage"`
	JournalID       flexString  `json:"journalId"`
	Copyright       string      `json:"copyright"`
	Abstract        string      `json:"abstract"`
	URL             []struct {
		Format   string `json:"format"`
		Platform string `json:"platform"`
		Value    string `json:"value"`
	} `json:"url"`
}

type springerFacet struct {
	Name   string `json:"name"`
	Values []struct {
		Value string  `json:"value"`
		Count flexInt `json:"count"`
	} `json:"values"`
}

// formatResponse maps the Springer JSON onto the canonical envelope.
func (w *SpringerWrapper) formatResponse(body []byte, q *search.Query, dbQuery string) *search.Envelope {
	if w.resultFormat != "json" && w.resultFormat != "jsonld" {
		return search.NewInvalidEnvelope(q, dbQuery, w.apiKey,
			errPrefixRequest+fmt.Sprintf("no formatter defined for %s", w.resultFormat),
			w.startRecord, w.showNum)
	}

	var resp springerResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return search.NewInvalidEnvelope(q, dbQuery, w.apiKey,
			errPrefixRequest+err.Error(), w.startRecord, w.showNum)
	}

	env := &search.Envelope{
		Query:   q,
		DBQuery: resp.Query,
		APIKey:  w.apiKey,
		Records: make([]search.Record, 0, len(resp.Records)),
		Facets:  search.NewFacets(),
	}
	if env.DBQuery == "" {
		env.DBQuery = dbQuery
	}

	if len(resp.Result) > 0 {
		r := resp.Result[0]
		env.Result = search.ResultInfo{
			Total:            int64(r.Total),
			Start:            int(r.Start),
			PageLength:       int(r.PageLength),
			RecordsDisplayed: int(r.RecordsDisplayed),
		}
	} else {
		env.Result = search.ResultInfo{
			Total:            -1,
			Start:            -1,
			PageLength:       -1,
			RecordsDisplayed: len(resp.Records),
		}
	}

	titles := make([]string, 0, len(resp.Records))
	for _, sr := range resp.Records {
		rec := search.Record{
			ContentType:     sr.ContentType,
			Title:           sr.Title,
			PublicationName: sr.PublicationName,
			DOI:             sr.DOI,
			Publisher:       sr.Publisher,
			PublicationDate: sr.PublicationDate,
			PublicationType: sr.PublicationType,
			ISSN:            sr.ISSN,
			Volume:          string(sr.Volume),
			Number:          string(sr.Number),
			Genre:           []string(sr.Genre),
			JournalID:       string(sr.JournalID),
			Copyright:       sr.Copyright,
			Abstract:        sr.Abstract,
		}
		for _, c := range sr.Creators {
			rec.Authors = append(rec.Authors, c.Creator)
		}
		if len(sr.URL) > 0 && sr.URL[0].Value != "" {
			rec.URI = sr.URL[0].Value
		}
		if sr.StartingPage != "" || sr.EndingPage != "" {
			rec.Pages = &search.Pages{First: string(sr.StartingPage), Last: string(sr.EndingPage)}
		}
		// Every record of the openaccess collection is open access; other
		// collections carry a string flag.
		if w.collection == "openaccess" {
			open := true
			rec.OpenAccess = &open
		} else if sr.OpenAccess.Set {
			open := sr.OpenAccess.Value
			rec.OpenAccess = &open
		}
		if rec.Title != "" {
			titles = append(titles, rec.Title)
		}
		env.Records = append(env.Records, rec)
	}

	for _, facet := range resp.Facets {
		switch facet.Name {
		case "country":
			for _, v := range facet.Values {
				if v.Value == "" {
					continue
				}
				env.Facets.Countries[countryISO2(v.Value)] += int(v.Count)
			}
		case "keyword":
			for _, v := range facet.Values {
				if v.Value == "" {
					continue
				}
				env.Facets.Keywords = append(env.Facets.Keywords,
					search.KeywordCount{Text: v.Value, Value: int(v.Count)})
			}
		}
	}
	if len(env.Facets.Keywords) == 0 {
		env.Facets.Keywords = search.KeywordsFromTitles(titles)
	}

	return env
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
