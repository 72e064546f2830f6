// Package provider implements the vendor wrapper framework: the capability
// interface every bibliographic provider satisfies, the query translators
// that turn the canonical query into vendor syntax, the retrying HTTP
// executor with its uniform error taxonomy, and the response normalizers
// that map vendor JSON back into the canonical envelope.
package provider

import "net/http"

// Request is the fully built vendor API request produced by a translator.
// GET providers carry the whole query in URL; PUT providers additionally
// carry a JSON body.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	// Body is the JSON request body for PUT providers, nil for GET.
	Body map[string]interface{}
}

// NewGetRequest builds a body-less GET request.
func NewGetRequest(url string, headers map[string]string) *Request {
	return &Request{Method: http.MethodGet, URL: url, Headers: headers}
}

// NewPutRequest builds a PUT request with a JSON body.
func NewPutRequest(url string, headers map[string]string, body map[string]interface{}) *Request {
	return &Request{Method: http.MethodPut, URL: url, Headers: headers, Body: body}
}
