// This file implements utilities for parsing and validating HTTP request
// data: month and id parameters, JSON transaction bodies and the form
// fields posted by the tracker UI.

package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/core"
)

// maxBodyBytes bounds request bodies; a transaction is well under 4KB.
const maxBodyBytes = 64 << 10

// ParseMonthParam reads the required "month" query parameter. The API never
// defaults it.
func ParseMonthParam(query url.Values) (core.Month, error) {
	v := strings.TrimSpace(query.Get("month"))
	if v == "" {
		return core.Month{}, core.InvalidArgument("month is required (YYYY-MM)")
	}
	return core.ParseMonth(v)
}

// MonthOrCurrent reads "month" and falls back to the month containing now
// when it is absent. A malformed value is still an error.
func MonthOrCurrent(query url.Values, now time.Time) (core.Month, error) {
	if strings.TrimSpace(query.Get("month")) == "" {
		return core.CurrentMonth(now), nil
	}
	return ParseMonthParam(query)
}

// parseID reads the {id} path parameter.
func parseID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, core.InvalidArgument("invalid transaction id %q", raw)
	}
	return id, nil
}

// decodeInput reads a JSON transaction body. Field-level decode failures
// (a bad date, a missing or non-numeric amount) keep their own message.
func decodeInput(w http.ResponseWriter, r *http.Request) (core.Input, error) {
	var in core.Input
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&in); err != nil {
		var argErr *core.ArgumentError
		var maxErr *http.MaxBytesError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &argErr):
			return core.Input{}, argErr
		case errors.As(err, &typeErr) && typeErr.Field != "":
			return core.Input{}, core.InvalidArgument("invalid value for %s", typeErr.Field)
		case errors.As(err, &maxErr):
			return core.Input{}, core.InvalidArgument("request body too large")
		case errors.Is(err, io.EOF):
			return core.Input{}, core.InvalidArgument("request body is required")
		default:
			return core.Input{}, core.InvalidArgument("invalid JSON body")
		}
	}
	return in, nil
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body != nil {
		p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Has reports whether key was submitted at all, even empty.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	if p.formData != nil {
		return p.formData.Has(key)
	}
	return false
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(val)))
		}
	}
	if p.formData != nil {
		return strings.TrimSpace(sanitizeInput(p.formData.Get(key)))
	}
	return ""
}

// Values collects the submitted subset of keys.
func (p *RequestBodyParser) Values(keys []string) map[string]string {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if p.Has(k) {
			out[k] = p.Get(k)
		}
	}
	return out
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts a decoded JSON value to string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput removes control characters except tab, newline and
// carriage return.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
