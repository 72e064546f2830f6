package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/LitFed/internal/domain/search"
)

const springerFixture = `{
	"query": "(bitcoin+AND+blockchain)",
	"result": [{"total": "42", "start": "1", "pageLength": "50", "recordsDisplayed": "2"}],
	"records": [
		{
			"contentType": "Article",
			"title": "Blockchain Consensus",
			"creators": [{"creator": "Doe, Jane"}, {"creator": "Roe, Richard"}],
			"publicationName": "Journal of Things",
			"openaccess": "false",
			"doi": "10.1000/42",
			"publisher": "Springer",
			"publicationDate": "2020-01-02",
			"publicationType": "Journal",
			"issn": "1234-5678",
			"volume": "7",
			"number": "2",
			"genre": ["OriginalPaper"],
			"startingPage": "15",
			"endingPage": "30",
			"journalId": "987",
			"copyright": "(c) 2020",
			"abstract": "Abstract text",
			"url": [{"format": "html", "platform": "web", "value": "http://link.example/1"}]
		},
		{"title": "Bitcoin Energy Use", "doi": "10.1000/43", "openaccess": "true"}
	],
	"facets": [
		{"name": "country", "values": [{"value": "Germany", "count": "3"}]},
		{"name": "keyword", "values": [{"value": "Blockchain", "count": "2"}]}
	]
}`

func newTestSpringer(t *testing.T, s Settings) *SpringerWrapper {
	t.Helper()
	w, err := NewSpringerWrapper("test-key", s, nil)
	require.NoError(t, err)
	return w
}

func TestSpringerTranslateQuery(t *testing.T) {
	w := newTestSpringer(t, Settings{})

	q := &search.Query{
		Match: search.MatchAnd,
		SearchGroups: []search.Group{
			{SearchTerms: []string{"bitcoin", "blockchain"}, Match: search.MatchAnd},
		},
	}
	req, err := w.TranslateQuery(q)
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t,
		"http://api.springernature.com/metadata/json?api_key=test-key&s=1&p=50&q=(bitcoin+AND+blockchain)",
		req.URL)
}

func TestSpringerTranslateQuery_FieldPrefixAndPaging(t *testing.T) {
	w := newTestSpringer(t, Settings{})
	w.StartAt(21)
	w.SetShowNum(20)

	q := &search.Query{
		Match:  search.MatchAnd,
		Fields: []search.Field{search.FieldKeywords},
		SearchGroups: []search.Group{
			{SearchTerms: []string{"bitcoin"}, Match: search.MatchOr},
		},
	}
	req, err := w.TranslateQuery(q)
	require.NoError(t, err)
	assert.Contains(t, req.URL, "&s=21&p=20")
	assert.Contains(t, req.URL, "&q=(keyword:bitcoin)")
}

func TestSpringerTranslateQuery_MultipleFields(t *testing.T) {
	w := newTestSpringer(t, Settings{})

	q := &search.Query{
		Match:  search.MatchAnd,
		Fields: []search.Field{search.FieldTitle, search.FieldKeywords},
		SearchGroups: []search.Group{
			{SearchTerms: []string{"iot"}, Match: search.MatchOr},
		},
	}
	req, err := w.TranslateQuery(q)
	require.NoError(t, err)
	assert.Contains(t, req.URL, "&q=(title:iot)+OR+(keyword:iot)")
}

func TestSpringerBuildQuery(t *testing.T) {
	w := newTestSpringer(t, Settings{})

	_, err := w.BuildQuery()
	require.Error(t, err)

	require.NoError(t, w.SearchField("year", "2020"))
	require.NoError(t, w.SearchField("keyword", "machine learning"))
	req, err := w.BuildQuery()
	require.NoError(t, err)
	assert.Contains(t, req.URL, "&q=keyword:%22machine+learning%22+year:2020")

	assert.Error(t, w.SearchField("openaccess", "maybe"))
	assert.Error(t, w.SearchField("nonsense", "x"))

	require.NoError(t, w.ResetField("year"))
	assert.Error(t, w.ResetField("year"))
}

func TestSpringerCollections(t *testing.T) {
	w := newTestSpringer(t, Settings{})

	assert.Equal(t, 50, w.MaxRecords())

	require.NoError(t, w.SetCollection("openaccess"))
	assert.Equal(t, 20, w.MaxRecords())
	assert.Equal(t, 20, w.ShowNum())

	// integro only supports xml; the format is coerced.
	require.NoError(t, w.SetCollection("integro"))
	assert.Equal(t, "xml", w.ResultFormat())

	err := w.SetCollection("bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown collection bogus")

	w = newTestSpringer(t, Settings{})
	assert.Error(t, w.SetResultFormat("jats")) // not allowed for metadata
	require.NoError(t, w.SetResultFormat("pam"))
	assert.Equal(t, "pam", w.ResultFormat())
}

func TestSpringerCallAPI_Normalization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/metadata/json", r.URL.Path)
		w.Write([]byte(springerFixture))
	}))
	defer srv.Close()

	w := newTestSpringer(t, Settings{Endpoint: srv.URL})
	q := &search.Query{
		Match: search.MatchAnd,
		SearchGroups: []search.Group{
			{SearchTerms: []string{"bitcoin", "blockchain"}, Match: search.MatchAnd},
		},
	}

	env := w.CallAPI(context.Background(), q)
	require.True(t, env.IsValid(), "error: %s", env.Error)

	assert.Equal(t, int64(42), env.Result.Total)
	assert.Equal(t, 1, env.Result.Start)
	assert.Equal(t, 50, env.Result.PageLength)
	assert.Equal(t, 2, env.Result.RecordsDisplayed)
	assert.Equal(t, "(bitcoin+AND+blockchain)", env.DBQuery)

	require.Len(t, env.Records, 2)
	rec := env.Records[0]
	assert.Equal(t, "Blockchain Consensus", rec.Title)
	assert.Equal(t, []string{"Doe, Jane", "Roe, Richard"}, rec.Authors)
	assert.Equal(t, "Journal of Things", rec.PublicationName)
	assert.Equal(t, "10.1000/42", rec.DOI)
	assert.Equal(t, "http://link.example/1", rec.URI)
	require.NotNil(t, rec.Pages)
	assert.Equal(t, "15", rec.Pages.First)
	assert.Equal(t, "30", rec.Pages.Last)
	require.NotNil(t, rec.OpenAccess)
	assert.False(t, *rec.OpenAccess)
	require.NotNil(t, env.Records[1].OpenAccess)
	assert.True(t, *env.Records[1].OpenAccess)

	assert.Equal(t, map[string]int{"DE": 3}, env.Facets.Countries)
	require.Len(t, env.Facets.Keywords, 1)
	assert.Equal(t, search.KeywordCount{Text: "Blockchain", Value: 2}, env.Facets.Keywords[0])
}

func TestSpringerCallAPI_OpenAccessCollectionForcesFlag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":[{"total":"1"}],"records":[{"title":"A","doi":"10.1/1"}]}`))
	}))
	defer srv.Close()

	w := newTestSpringer(t, Settings{Endpoint: srv.URL, Collection: "openaccess"})
	env := w.CallAPI(context.Background(), &search.Query{
		Match:        search.MatchAnd,
		SearchGroups: []search.Group{{SearchTerms: []string{"a"}, Match: search.MatchOr}},
	})
	require.True(t, env.IsValid(), "error: %s", env.Error)
	require.Len(t, env.Records, 1)
	require.NotNil(t, env.Records[0].OpenAccess)
	assert.True(t, *env.Records[0].OpenAccess)
}

func TestSpringerCallAPI_ORNOTGivesInvalidEnvelope(t *testing.T) {
	w := newTestSpringer(t, Settings{})
	q := &search.Query{
		Match: search.MatchOr,
		SearchGroups: []search.Group{
			{SearchTerms: []string{"solar"}, Match: search.MatchOr},
			{SearchTerms: []string{"nuclear"}, Match: search.MatchNot},
		},
	}

	env := w.CallAPI(context.Background(), q)
	assert.False(t, env.IsValid())
	assert.Equal(t, "Request error: only AND NOT supported", env.Error)
	assert.Equal(t, int64(-1), env.Result.Total)
	assert.NotNil(t, env.Records)
	assert.Empty(t, env.Records)
}

func TestSpringerCallAPI_HTTPErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	w := newTestSpringer(t, Settings{Endpoint: srv.URL})
	env := w.CallAPI(context.Background(), &search.Query{
		Match:        search.MatchAnd,
		SearchGroups: []search.Group{{SearchTerms: []string{"a"}, Match: search.MatchOr}},
	})
	assert.False(t, env.IsValid())
	assert.Equal(t, "HTTP error: 500 Internal Server Error", env.Error)
	assert.Equal(t, "(a)", env.DBQuery)
}

func TestSpringerClone(t *testing.T) {
	w := newTestSpringer(t, Settings{})
	require.NoError(t, w.SearchField("year", "2020"))

	c := w.Clone().(*SpringerWrapper)
	c.StartAt(101)
	c.SetShowNum(10)
	require.NoError(t, c.SearchField("keyword", "x"))

	assert.Equal(t, 1, w.startRecord)
	assert.Equal(t, 50, w.showNum)
	assert.NotContains(t, w.parameters, "keyword")
	assert.Equal(t, "2020", c.parameters["year"])
}
