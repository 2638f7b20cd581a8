// Package config describes which function calls carry SQL. Sites arrive
// either as the JSON boundary payload (ordered array whose elements are
// objects or JSON-encoded strings) or from a .sqlembed.kdl project file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"

	sqlerrors "github.com/standardbeagle/sqlembed/internal/errors"
)

// QuerySite declares one SQL-bearing function signature: the callee name to
// match, which positional argument holds the SQL (1-based), and whether a
// template/formatted string is accepted for that argument. Without
// IsStringTemplate a template argument is ignored even when the name
// matches, because an unresolved interpolation may hide SQL-relevant
// structure.
type QuerySite struct {
	FunctionName     string `json:"functionName"`
	SQLArgNo         int    `json:"sqlArgNo"`
	IsStringTemplate bool   `json:"isStringTemplate"`
}

// DefaultSites returns the built-in site list covering the common DB-API,
// Django ORM and SQLAlchemy entry points. Callers receive a fresh slice and
// may modify it.
func DefaultSites() []QuerySite {
	return []QuerySite{
		{FunctionName: "execute", SQLArgNo: 1},
		{FunctionName: "executemany", SQLArgNo: 1},
		{FunctionName: "query", SQLArgNo: 1},
		{FunctionName: "raw", SQLArgNo: 1},     // Django ORM
		{FunctionName: "text", SQLArgNo: 1},    // SQLAlchemy
		{FunctionName: "raw_sql", SQLArgNo: 1}, // custom raw_sql helpers
	}
}

// DecodeSites decodes a JSON site payload. The payload is an ordered array;
// each element is either a site object or a string containing the JSON of a
// site object. A bare single object is also accepted. SQLArgNo defaults to
// 1 when omitted. The decoded list is validated; any decode or validation
// failure returns a config error and no sites - the caller decides the
// fallback policy.
func DecodeSites(payload []byte) ([]QuerySite, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal(payload, &elements); err != nil {
		// Accept a single bare object for convenience at the boundary.
		site, objErr := decodeSiteElement(payload)
		if objErr != nil {
			return nil, sqlerrors.NewConfigError("DecodeSites", err)
		}
		elements = nil
		if err := Validate([]QuerySite{site}); err != nil {
			return nil, err
		}
		return []QuerySite{site}, nil
	}

	sites := make([]QuerySite, 0, len(elements))
	for i, raw := range elements {
		site, err := decodeSiteElement(raw)
		if err != nil {
			return nil, sqlerrors.NewConfigError("DecodeSites",
				fmt.Errorf("element %d: %w", i, err))
		}
		sites = append(sites, site)
	}

	if err := Validate(sites); err != nil {
		return nil, err
	}
	return sites, nil
}

// decodeSiteElement decodes one payload element, which may be an object or
// a JSON-encoded string holding an object.
func decodeSiteElement(raw []byte) (QuerySite, error) {
	site := QuerySite{SQLArgNo: 1}
	if err := json.Unmarshal(raw, &site); err == nil {
		return site, nil
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return QuerySite{}, errors.New("element is neither a site object nor a JSON string")
	}
	site = QuerySite{SQLArgNo: 1}
	if err := json.Unmarshal([]byte(encoded), &site); err != nil {
		return QuerySite{}, fmt.Errorf("embedded JSON string: %w", err)
	}
	return site, nil
}

// Validate checks that every site has a function name and a positive
// 1-based argument index.
func Validate(sites []QuerySite) error {
	for i, site := range sites {
		if site.FunctionName == "" {
			return sqlerrors.NewConfigError("Validate",
				fmt.Errorf("site %d: functionName cannot be empty", i))
		}
		if site.SQLArgNo < 1 {
			return sqlerrors.NewConfigError("Validate",
				fmt.Errorf("site %d (%s): sqlArgNo must be >= 1, got %d",
					i, site.FunctionName, site.SQLArgNo))
		}
	}
	return nil
}
