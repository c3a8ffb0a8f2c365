// Request parsing utilities shared by the JSON handlers.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"chatledger/internal/core"
	"chatledger/internal/ledger"
)

const maxBodyBytes = 64 << 10

var errInvalidMonth = errors.New("invalid year or month")

// ParseMonthParams reads year and month from query parameters. Missing
// values fall back to fallback; present but malformed values are an error.
func ParseMonthParams(query url.Values, fallback ledger.Month) (ledger.Month, error) {
	year := fallback.Year
	month := int(fallback.Month)

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 || y > 9999 {
			return ledger.Month{}, errInvalidMonth
		}
		year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return ledger.Month{}, errInvalidMonth
		}
		month = m
	}

	m, err := ledger.NewMonth(year, month)
	if err != nil {
		return ledger.Month{}, errInvalidMonth
	}
	return m, nil
}

// RequestBodyParser reads a JSON or form-encoded body once and exposes its
// fields as sanitized strings.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser reads at most maxBodyBytes of the request body.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

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

	trimmed := strings.TrimSpace(string(p.body))
	if strings.HasPrefix(trimmed, "{") {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
		}
		return p.err
	}

	p.formData, p.err = url.ParseQuery(trimmed)
	return p.err
}

// Get returns a sanitized string value, or "" when absent.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Has reports whether key was present in the body.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	return p.formData != nil && p.formData.Has(key)
}

// GetBool accepts true/false, 1/0 and on/off.
func (p *RequestBodyParser) GetBool(key string) (bool, error) {
	switch strings.ToLower(p.Get(key)) {
	case "", "false", "0", "off":
		return false, nil
	case "true", "1", "on":
		return true, nil
	}
	return false, fmt.Errorf("invalid boolean for %s", key)
}

// GetInt parses an integer field.
func (p *RequestBodyParser) GetInt(key string) (int, error) {
	v := p.Get(key)
	if v == "" {
		return 0, fmt.Errorf("missing %s", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

// GetAmount parses a non-negative amount such as "12.50" or "12,50".
func (p *RequestBodyParser) GetAmount(key string) (float64, error) {
	v := p.Get(key)
	if v == "" {
		return 0, fmt.Errorf("missing %s", key)
	}
	return core.ParseAmount(v)
}

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

// RequireMethod returns a 405 builder when the method is not one of methods.
func RequireMethod(r *http.Request, methods ...string) *ResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}
