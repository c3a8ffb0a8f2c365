// Package assistant talks to the remote service that turns chat messages into
// replies and structured transactions, and voice notes into text.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"chatledger/internal/log"
)

const maxResponseBytes = 1 << 20

// Client calls the analyze and transcribe endpoints.
type Client struct {
	baseURL       string
	transcribeURL string
	httpClient    *http.Client
	logger        *log.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the pooled default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTranscribeURL points transcription at a different host than analysis.
func WithTranscribeURL(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.transcribeURL = strings.TrimSuffix(base, "/")
		}
	}
}

func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	base := strings.TrimSuffix(baseURL, "/")
	c := &Client{
		baseURL:       base,
		transcribeURL: base,
		httpClient:    newPooledHTTPClient(timeout),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.New(log.DefaultConfig())
	}
	c.logger = c.logger.WithComponent(log.ComponentAssistant)
	return c
}

func newPooledHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   5,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: timeout}
}

// Analyze sends one chat message and returns the validated reply.
func (c *Client) Analyze(ctx context.Context, message string) (Reply, error) {
	payload, err := json.Marshal(analyzeRequest{Message: message})
	if err != nil {
		return Reply{}, fmt.Errorf("encode analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(payload))
	if err != nil {
		return Reply{}, fmt.Errorf("build analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req, "analyze")
	if err != nil {
		return Reply{}, err
	}

	reply, err := decodeReply(body)
	if errors.Is(err, ErrInvalidParsedTransaction) && reply.Text != nil {
		c.logger.WarnContext(ctx, "Dropping invalid parsed transaction",
			log.FieldError, err,
			log.FieldOperation, log.OpAnalyze)
		err = nil
	}
	if err != nil {
		return Reply{}, err
	}
	c.logger.DebugContext(ctx, "Assistant replied",
		"has_text", reply.Text != nil,
		"has_transaction", reply.Parsed != nil)
	return reply, nil
}

// Transcribe uploads a recorded voice note and returns its transcript.
// An empty transcript is not an error.
func (c *Client) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	if filename == "" {
		filename = "recording.m4a"
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	h.Set("Content-Type", "audio/m4a")
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", fmt.Errorf("create multipart part: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", fmt.Errorf("copy audio: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.transcribeURL+"/transcribe", &buf)
	if err != nil {
		return "", fmt.Errorf("build transcribe request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req, "transcribe")
	if err != nil {
		return "", err
	}

	var out transcribeResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	return strings.TrimSpace(out.Transcript), nil
}

func (c *Client) do(req *http.Request, endpoint string) ([]byte, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("assistant %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", endpoint, err)
	}

	c.logger.DebugContext(req.Context(), "Assistant call finished",
		log.FieldOperation, endpoint,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}
	return body, nil
}
