package assistant

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrUnexpectedResponse       = errors.New("unexpected response from assistant")
	ErrInvalidParsedTransaction = errors.New("assistant returned an invalid transaction")
)

// StatusError is returned when the assistant answers with a non-2xx status.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("assistant %s: status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("assistant %s: status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// ParsedTransaction is the structured expense extracted from a chat message.
type ParsedTransaction struct {
	Description string
	Amount      float64
	Category    string
}

// Reply is the validated answer to an analyze call. Either field may be nil.
type Reply struct {
	Text   *string
	Parsed *ParsedTransaction
}

type analyzeRequest struct {
	Message string `json:"message"`
}

type analyzeResponse struct {
	Reply         *string        `json:"reply"`
	ParsedExpense *parsedPayload `json:"parsedExpense"`
}

type parsedPayload struct {
	Description string   `json:"description"`
	Amount      *float64 `json:"amount"`
	Category    string   `json:"category"`
}

type transcribeResponse struct {
	Transcript string `json:"transcript"`
}

// decodeReply validates an analyze response. An invalid parsed transaction
// yields ErrInvalidParsedTransaction alongside whatever reply text was sent.
func decodeReply(body []byte) (Reply, error) {
	var raw analyzeResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return Reply{}, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}

	var r Reply
	if raw.Reply != nil && *raw.Reply != "" {
		r.Text = raw.Reply
	}
	if raw.ParsedExpense != nil {
		p := raw.ParsedExpense
		if p.Amount == nil {
			return r, fmt.Errorf("%w: missing amount", ErrInvalidParsedTransaction)
		}
		amount := *p.Amount
		if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
			return r, fmt.Errorf("%w: amount %v", ErrInvalidParsedTransaction, amount)
		}
		r.Parsed = &ParsedTransaction{
			Description: strings.TrimSpace(p.Description),
			Amount:      amount,
			Category:    p.Category, // labels are kept verbatim
		}
	}
	return r, nil
}
