package provider

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/biter777/countries"
)

// Vendors are inconsistent about scalar types: Springer reports totals as
// strings, Scopus as strings, ScienceDirect as numbers; volume and page
// fields show up as either.  The flex types below accept both encodings so
// normalizers never fail on a representation change.

// flexInt unmarshals from a JSON number or a numeric string.
type flexInt int64

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Tolerate unparsable values rather than failing the whole response.
		*f = 0
		return nil
	}
	*f = flexInt(n)
	return nil
}

// flexString unmarshals from a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(strings.TrimSpace(string(data)))
	return nil
}

// flexBool unmarshals from a JSON bool or the vendor string flags
// "true"/"false"/"1"/"0".
type flexBool struct {
	Set   bool
	Value bool
}

func (f *flexBool) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.ToLower(string(data)), `"`)
	switch s {
	case "true", "1":
		f.Set, f.Value = true, true
	case "false", "0":
		f.Set, f.Value = true, false
	default:
		f.Set = false
	}
	return nil
}

// flexStrings unmarshals from a JSON string or an array of strings.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*f = nil
		return nil
	}
	if data[0] == '[' {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*f = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = []string{s}
	return nil
}

// countryISO2 converts a vendor country name to its ISO 3166-1 alpha-2 code.
// Unrecognized names pass through unchanged so no counter is lost.
func countryISO2(name string) string {
	if name == "" {
		return name
	}
	c := countries.ByName(name)
	if c == countries.Unknown {
		return name
	}
	return c.Alpha2()
}
