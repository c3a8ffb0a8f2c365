package http

import (
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestResponseBuilderJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	NewResponse().
		Status(http.StatusCreated).
		Header("X-Test", "1").
		NoCache().
		JSON(map[string]int{"n": 1}).
		Write(rr)

	if rr.Code != http.StatusCreated {
		t.Fatalf("code = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("content type = %q", ct)
	}
	if rr.Header().Get("X-Test") != "1" || rr.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("headers = %v", rr.Header())
	}
	if strings.TrimSpace(rr.Body.String()) != `{"n":1}` {
		t.Fatalf("body = %q", rr.Body.String())
	}
}

func TestResponseBuilderNoBody(t *testing.T) {
	rr := httptest.NewRecorder()
	NewResponse().Status(http.StatusNoContent).Write(rr)
	if rr.Code != http.StatusNoContent || rr.Body.Len() != 0 {
		t.Fatalf("code=%d body=%q", rr.Code, rr.Body.String())
	}
}

func TestResponseBuilderEncodeFailure(t *testing.T) {
	rr := httptest.NewRecorder()
	NewResponse().JSON(math.Inf(1)).Write(rr)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("code = %d", rr.Code)
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name string
		b    *ResponseBuilder
		code int
	}{
		{"bad request", BadRequestError("nope"), http.StatusBadRequest},
		{"unprocessable", UnprocessableEntityError("nope"), http.StatusUnprocessableEntity},
		{"internal", InternalServerError("nope"), http.StatusInternalServerError},
		{"not found", NotFoundError("nope"), http.StatusNotFound},
		{"unavailable", ServiceUnavailableError("nope"), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			tt.b.Write(rr)
			if rr.Code != tt.code {
				t.Fatalf("code = %d, want %d", rr.Code, tt.code)
			}
			if strings.TrimSpace(rr.Body.String()) != `{"error":"nope"}` {
				t.Fatalf("body = %q", rr.Body.String())
			}
		})
	}
}
