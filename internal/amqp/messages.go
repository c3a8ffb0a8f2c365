package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"chatledger/internal/core"
)

var ErrInvalidMessage = errors.New("invalid transaction message")

// TransactionRecordedMessage announces a transaction appended to a ledger.
// It carries the identifying fields only; consumers load the full
// transaction from storage by ID.
type TransactionRecordedMessage struct {
	ID        string    `json:"id"`
	Kind      core.Kind `json:"kind"`
	Amount    float64   `json:"amount"`
	Category  string    `json:"category"`
	Date      time.Time `json:"date"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionRecordedMessage(t core.Transaction) *TransactionRecordedMessage {
	return &TransactionRecordedMessage{
		ID:        t.ID,
		Kind:      t.Kind(),
		Amount:    t.Amount,
		Category:  t.Category,
		Date:      t.Date,
		Timestamp: time.Now(),
	}
}

func (m *TransactionRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionRecordedMessageFromJSON decodes and validates a message body.
func TransactionRecordedMessageFromJSON(data []byte) (*TransactionRecordedMessage, error) {
	var msg TransactionRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" {
		return nil, ErrInvalidMessage
	}
	if _, err := core.ParseKind(string(msg.Kind)); err != nil {
		return nil, ErrInvalidMessage
	}
	return &msg, nil
}
