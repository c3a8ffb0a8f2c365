// Package chat holds the conversational state of one ledger: the transaction
// store, the reference month and the message log, plus the flows that connect
// them to the remote assistant.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"chatledger/internal/assistant"
	"chatledger/internal/core"
	"chatledger/internal/ledger"
	"chatledger/internal/log"
	"chatledger/internal/store"
)

// ErrorReply is shown in the conversation whenever the assistant round trip fails.
const ErrorReply = "Error talking to server 😢"

var ErrNoAssistant = errors.New("assistant not configured")

type (
	Analyzer interface {
		Analyze(ctx context.Context, message string) (assistant.Reply, error)
	}

	Transcriber interface {
		Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
	}

	// Publisher is notified after every recorded transaction. Failures are
	// logged and never undo the append.
	Publisher interface {
		PublishTransactionRecorded(ctx context.Context, t core.Transaction) error
	}
)

// Outcome describes what a single submission changed.
type Outcome struct {
	Messages []core.ChatMessage // appended to the log by this call, in order
	Recorded *core.Transaction
}

// Controller is safe for concurrent use.
type Controller struct {
	store       store.Store
	ids         *core.IDSource
	analyzer    Analyzer
	transcriber Transcriber
	publisher   Publisher
	now         func() time.Time
	logger      *log.Logger
	events      *log.StructuredLogger

	mu        sync.RWMutex
	month     ledger.Month
	messages  []core.ChatMessage
	listeners []func(core.Transaction)
}

type Option func(*Controller)

func WithAnalyzer(a Analyzer) Option       { return func(c *Controller) { c.analyzer = a } }
func WithTranscriber(t Transcriber) Option { return func(c *Controller) { c.transcriber = t } }
func WithPublisher(p Publisher) Option     { return func(c *Controller) { c.publisher = p } }
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}
func WithIDSource(ids *core.IDSource) Option { return func(c *Controller) { c.ids = ids } }
func WithLogger(l *log.Logger) Option        { return func(c *Controller) { c.logger = l } }

// NewController starts a conversation with the welcome message and the
// reference month set to the current calendar month.
func NewController(s store.Store, opts ...Option) *Controller {
	c := &Controller{
		store:    s,
		ids:      core.NewIDSource(),
		now:      time.Now,
		messages: []core.ChatMessage{{Role: core.RoleSystem, Content: core.WelcomeMessage}},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.New(log.DefaultConfig())
	}
	c.logger = c.logger.WithComponent(log.ComponentChat)
	c.events = log.NewStructuredLogger(c.logger)
	c.month = ledger.MonthOf(c.now())
	return c
}

// OnRecorded registers fn to run synchronously after each successful append.
func (c *Controller) OnRecorded(fn func(core.Transaction)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Submit sends a user message to the assistant. Blank input is ignored.
// Assistant failures become the conversational ErrorReply and are not returned;
// an error is returned only when a parsed transaction could not be stored.
func (c *Controller) Submit(ctx context.Context, text string) (Outcome, error) {
	if strings.TrimSpace(text) == "" {
		return Outcome{}, nil
	}

	var out Outcome
	out.Messages = append(out.Messages, c.appendMessage(core.RoleUser, text))

	if c.analyzer == nil {
		c.events.LogError(ctx, "Cannot analyze message", ErrNoAssistant, log.OpAnalyze, nil)
		out.Messages = append(out.Messages, c.appendMessage(core.RoleSystem, ErrorReply))
		return out, nil
	}

	reply, err := c.analyzer.Analyze(ctx, text)
	if err != nil {
		c.events.LogError(ctx, "Assistant analyze failed", err, log.OpAnalyze, nil)
		out.Messages = append(out.Messages, c.appendMessage(core.RoleSystem, ErrorReply))
		return out, nil
	}

	if reply.Text != nil {
		out.Messages = append(out.Messages, c.appendMessage(core.RoleSystem, *reply.Text))
	}

	if p := reply.Parsed; p != nil {
		t, err := c.Record(ctx, p.Description, p.Amount, p.Category, false)
		if err != nil {
			out.Messages = append(out.Messages, c.appendMessage(core.RoleSystem, ErrorReply))
			return out, err
		}
		out.Recorded = &t
	}
	return out, nil
}

// SubmitVoice transcribes a voice note and submits the transcript as a chat
// message. An empty transcript changes nothing.
func (c *Controller) SubmitVoice(ctx context.Context, filename string, audio io.Reader) (Outcome, error) {
	if c.transcriber == nil {
		return Outcome{}, ErrNoAssistant
	}
	transcript, err := c.transcriber.Transcribe(ctx, filename, audio)
	if err != nil {
		c.events.LogError(ctx, "Transcription failed", err, log.OpTranscribe, nil)
		return Outcome{}, fmt.Errorf("transcribe voice note: %w", err)
	}
	if transcript == "" {
		return Outcome{}, nil
	}
	return c.Submit(ctx, transcript)
}

// Record adds a transaction dated now to the head of its ledger.
func (c *Controller) Record(ctx context.Context, description string, amount float64, category string, isIncome bool) (core.Transaction, error) {
	t, err := core.NewTransaction(c.ids, c.now(), description, amount, category, isIncome)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := c.store.Append(ctx, t); err != nil {
		c.events.LogError(ctx, "Failed to store transaction", err, log.OpRecord, nil)
		return core.Transaction{}, fmt.Errorf("append transaction: %w", err)
	}
	c.events.LogTransactionRecorded(ctx, t.ID, t.Kind().String(), t.Description, t.Amount, t.Category)

	c.mu.RLock()
	listeners := slices.Clone(c.listeners)
	c.mu.RUnlock()
	for _, fn := range listeners {
		fn(t)
	}

	if c.publisher != nil {
		if err := c.publisher.PublishTransactionRecorded(ctx, t); err != nil {
			c.logger.WarnContext(ctx, "Failed to publish transaction event",
				log.FieldTxID, t.ID,
				log.FieldError, err)
		}
	}
	return t, nil
}

// SetMonth changes the reference month used by the summaries.
func (c *Controller) SetMonth(m ledger.Month) {
	c.mu.Lock()
	c.month = m
	c.mu.Unlock()
}

func (c *Controller) Month() ledger.Month {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.month
}

// Messages returns a copy of the conversation log, oldest first.
func (c *Controller) Messages() []core.ChatMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]core.ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// Transactions returns one ledger, newest first.
func (c *Controller) Transactions(ctx context.Context, kind core.Kind) ([]core.Transaction, error) {
	snap, err := c.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot ledgers: %w", err)
	}
	if kind == core.KindIncome {
		return snap.Income, nil
	}
	return snap.Expenses, nil
}

// Home returns the headline figures for the reference month. Transactions
// match on month number alone, whatever their year.
func (c *Controller) Home(ctx context.Context) (ledger.Summary, error) {
	return c.summarize(ctx, c.Month(), ledger.MatchMonthOfYear)
}

// Statistics returns the calendar-month breakdown for the reference month.
func (c *Controller) Statistics(ctx context.Context) (ledger.Summary, error) {
	return c.summarize(ctx, c.Month(), ledger.MatchCalendarMonth)
}

// StatisticsFor returns the calendar-month breakdown for month without
// touching the reference month.
func (c *Controller) StatisticsFor(ctx context.Context, month ledger.Month) (ledger.Summary, error) {
	return c.summarize(ctx, month, ledger.MatchCalendarMonth)
}

// SummaryFor summarizes month under an explicit match mode.
func (c *Controller) SummaryFor(ctx context.Context, month ledger.Month, mode ledger.MatchMode) (ledger.Summary, error) {
	return c.summarize(ctx, month, mode)
}

func (c *Controller) summarize(ctx context.Context, month ledger.Month, mode ledger.MatchMode) (ledger.Summary, error) {
	snap, err := c.store.Snapshot(ctx)
	if err != nil {
		return ledger.Summary{}, fmt.Errorf("snapshot ledgers: %w", err)
	}
	return ledger.Summarize(snap.Expenses, snap.Income, month, mode), nil
}

func (c *Controller) appendMessage(role core.Role, content string) core.ChatMessage {
	m := core.ChatMessage{Role: role, Content: content}
	c.mu.Lock()
	c.messages = append(c.messages, m)
	c.mu.Unlock()
	return m
}
