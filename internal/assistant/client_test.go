package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chatledger/internal/log"
)

func TestAnalyzeReplyAndParsed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/analyze" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Message != "lunch 12.5" {
			t.Errorf("message = %q", req.Message)
		}
		_, _ = io.WriteString(w, `{"reply":"Got it!","parsedExpense":{"description":"lunch","amount":12.5,"category":"Food"}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second)
	reply, err := c.Analyze(context.Background(), "lunch 12.5")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if reply.Text == nil || *reply.Text != "Got it!" {
		t.Fatalf("reply text = %v", reply.Text)
	}
	if reply.Parsed == nil || reply.Parsed.Amount != 12.5 || reply.Parsed.Category != "Food" || reply.Parsed.Description != "lunch" {
		t.Fatalf("parsed = %+v", reply.Parsed)
	}
}

func TestDecodeReply(t *testing.T) {
	cases := []struct {
		name       string
		body       string
		wantErr    error
		wantText   bool
		wantParsed bool
	}{
		{"empty object", `{}`, nil, false, false},
		{"text only", `{"reply":"hello"}`, nil, true, false},
		{"empty text ignored", `{"reply":""}`, nil, false, false},
		{"parsed only", `{"parsedExpense":{"description":"x","amount":0,"category":""}}`, nil, false, true},
		{"missing amount", `{"parsedExpense":{"description":"x"}}`, ErrInvalidParsedTransaction, false, false},
		{"negative amount", `{"parsedExpense":{"amount":-3}}`, ErrInvalidParsedTransaction, false, false},
		{"not json", `<html>`, ErrUnexpectedResponse, false, false},
		{"wrong type", `{"reply":42}`, ErrUnexpectedResponse, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := decodeReply([]byte(tc.body))
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if (r.Text != nil) != tc.wantText || (r.Parsed != nil) != tc.wantParsed {
				t.Fatalf("reply = %+v", r)
			}
		})
	}
}

func TestAnalyzeKeepsTextWhenParsedInvalid(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"missing amount with text", `{"reply":"Noted","parsedExpense":{"description":"x"}}`, nil},
		{"negative amount with text", `{"reply":"Noted","parsedExpense":{"amount":-1}}`, nil},
		{"missing amount without text", `{"parsedExpense":{"description":"x"}}`, ErrInvalidParsedTransaction},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			var logs bytes.Buffer
			c := NewClient(srv.URL, time.Second, WithLogger(log.New(log.Config{Output: &logs})))
			reply, err := c.Analyze(context.Background(), "hi")
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Analyze: %v", err)
			}
			if reply.Text == nil || *reply.Text != "Noted" || reply.Parsed != nil {
				t.Fatalf("reply = %+v", reply)
			}
			if out := logs.String(); !strings.Contains(out, "component=assistant") || !strings.Contains(out, "Dropping invalid parsed transaction") {
				t.Errorf("log output = %q", out)
			}
		})
	}
}

func TestDecodeReplyKeepsCategoryVerbatim(t *testing.T) {
	r, err := decodeReply([]byte(`{"parsedExpense":{"description":" taxi ","amount":9,"category":" food"}}`))
	if err != nil {
		t.Fatal(err)
	}
	if r.Parsed.Category != " food" {
		t.Errorf("category = %q, want it untouched", r.Parsed.Category)
	}
	if r.Parsed.Description != "taxi" {
		t.Errorf("description = %q", r.Parsed.Description)
	}
}

func TestAnalyzeStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Analyze(context.Background(), "hi")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.StatusCode != http.StatusBadGateway || se.Body != "boom" {
		t.Fatalf("status error = %+v", se)
	}
}

func TestAnalyzeContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewClient(srv.URL, time.Second).Analyze(ctx, "hi"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestTranscribe(t *testing.T) {
	analyze := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("transcription must not hit the analyze host")
	}))
	defer analyze.Close()

	transcribe := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transcribe" {
			t.Errorf("path = %s", r.URL.Path)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		if string(data) != "AUDIO" || hdr.Filename != "note.m4a" || hdr.Header.Get("Content-Type") != "audio/m4a" {
			t.Errorf("upload = %q %q %q", data, hdr.Filename, hdr.Header.Get("Content-Type"))
		}
		_, _ = io.WriteString(w, `{"transcript":"  coffee 3 dollars "}`)
	}))
	defer transcribe.Close()

	c := NewClient(analyze.URL, time.Second, WithTranscribeURL(transcribe.URL))
	got, err := c.Transcribe(context.Background(), "note.m4a", strings.NewReader("AUDIO"))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got != "coffee 3 dollars" {
		t.Fatalf("transcript = %q", got)
	}
}

func TestTranscribeUnexpectedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `not json`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Transcribe(context.Background(), "", strings.NewReader("x"))
	if !errors.Is(err, ErrUnexpectedResponse) {
		t.Fatalf("expected ErrUnexpectedResponse, got %v", err)
	}
}
