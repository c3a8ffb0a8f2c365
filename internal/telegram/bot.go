// Package telegram exposes the chat controller over a Telegram bot.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"chatledger/internal/chat"
	"chatledger/internal/core"
	"chatledger/internal/ledger"
	"chatledger/internal/log"
)

const (
	cmdStart   = "start"
	cmdHelp    = "help"
	cmdSummary = "summary"
	cmdStats   = "stats"
	cmdExpense = "expense"
	cmdIncome  = "income"
)

const (
	updateTimeout = 60 * time.Second
	maxVoiceBytes = 10 << 20
	voiceFilename = "voice.ogg"
)

const helpText = `Send a message like "lunch 12.50" and I will record it.
Voice notes work too.

/summary - this month's income, expenses and balance
/stats - breakdown by category and source
/expense <amount> <category> [description]
/income <amount> <source> [description]`

// API is the part of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Controller is the chat surface driven by incoming updates.
type Controller interface {
	Submit(ctx context.Context, text string) (chat.Outcome, error)
	SubmitVoice(ctx context.Context, filename string, audio io.Reader) (chat.Outcome, error)
	Record(ctx context.Context, description string, amount float64, category string, isIncome bool) (core.Transaction, error)
	Home(ctx context.Context) (ledger.Summary, error)
	Statistics(ctx context.Context) (ledger.Summary, error)
}

type Bot struct {
	api        API
	ctrl       Controller
	httpClient *http.Client
	logger     *log.Logger
}

type Option func(*Bot)

func WithHTTPClient(c *http.Client) Option { return func(b *Bot) { b.httpClient = c } }
func WithLogger(l *log.Logger) Option      { return func(b *Bot) { b.logger = l } }

func NewBot(api API, ctrl Controller, opts ...Option) *Bot {
	b := &Bot{
		api:        api,
		ctrl:       ctrl,
		httpClient: &http.Client{Timeout: updateTimeout},
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = log.New(log.DefaultConfig())
	}
	b.logger = b.logger.WithComponent(log.ComponentTelegram)
	return b
}

// Connect authenticates with the Bot API and starts long polling.
// The returned stop function ends polling.
func Connect(token string, pollTimeout int) (*tgbotapi.BotAPI, tgbotapi.UpdatesChannel, func(), error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect telegram bot: %w", err)
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout
	return api, api.GetUpdatesChan(u), api.StopReceivingUpdates, nil
}

// Run handles updates one at a time until ctx is done or updates closes.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	b.logger.InfoContext(ctx, "Telegram bot started consuming")
	for {
		select {
		case <-ctx.Done():
			b.logger.InfoContext(ctx, "Telegram bot stopped", "reason", ctx.Err())
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			uctx, cancel := context.WithTimeout(ctx, updateTimeout)
			b.HandleUpdate(uctx, update)
			cancel()
		}
	}
}

// HandleUpdate dispatches a single update. Updates without a message are ignored.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}

	var replies []string
	switch {
	case msg.IsCommand():
		replies = b.handleCommand(ctx, msg)
	case msg.Voice != nil:
		replies = b.handleVoice(ctx, msg.Voice.FileID)
	case strings.TrimSpace(msg.Text) != "":
		replies = b.handleText(ctx, msg.Text)
	default:
		return
	}

	for _, text := range replies {
		reply := tgbotapi.NewMessage(msg.Chat.ID, text)
		reply.ReplyToMessageID = msg.MessageID
		if _, err := b.api.Send(reply); err != nil {
			b.logger.ErrorContext(ctx, "Failed to send reply",
				log.FieldChatID, msg.Chat.ID,
				log.FieldError, err)
		}
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) []string {
	switch msg.Command() {
	case cmdStart, cmdHelp:
		return []string{core.WelcomeMessage, helpText}
	case cmdSummary:
		s, err := b.ctrl.Home(ctx)
		if err != nil {
			b.logger.ErrorContext(ctx, "Failed to build summary", log.FieldError, err)
			return []string{chat.ErrorReply}
		}
		return []string{FormatHome(s)}
	case cmdStats:
		s, err := b.ctrl.Statistics(ctx)
		if err != nil {
			b.logger.ErrorContext(ctx, "Failed to build statistics", log.FieldError, err)
			return []string{chat.ErrorReply}
		}
		return []string{FormatStatistics(s)}
	case cmdExpense, cmdIncome:
		return b.handleRecord(ctx, msg.CommandArguments(), msg.Command() == cmdIncome)
	default:
		return []string{helpText}
	}
}

// handleRecord parses "<amount> <category> [description]".
func (b *Bot) handleRecord(ctx context.Context, args string, isIncome bool) []string {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return []string{helpText}
	}
	amount, err := core.ParseAmount(fields[0])
	if err != nil {
		return []string{fmt.Sprintf("Invalid amount %q", fields[0])}
	}
	category := fields[1]
	description := strings.Join(fields[2:], " ")
	if description == "" {
		description = category
	}

	t, err := b.ctrl.Record(ctx, description, amount, category, isIncome)
	if err != nil {
		b.logger.ErrorContext(ctx, "Failed to record transaction", log.FieldError, err)
		return []string{chat.ErrorReply}
	}
	return []string{FormatRecorded(t)}
}

func (b *Bot) handleText(ctx context.Context, text string) []string {
	out, err := b.ctrl.Submit(ctx, text)
	if err != nil {
		b.logger.ErrorContext(ctx, "Failed to submit message", log.FieldError, err)
	}
	return outcomeReplies(out)
}

func (b *Bot) handleVoice(ctx context.Context, fileID string) []string {
	audio, err := b.downloadFile(ctx, fileID)
	if err != nil {
		b.logger.ErrorContext(ctx, "Failed to download voice note", log.FieldError, err)
		return []string{chat.ErrorReply}
	}
	defer audio.Close()

	out, err := b.ctrl.SubmitVoice(ctx, voiceFilename, io.LimitReader(audio, maxVoiceBytes))
	if errors.Is(err, chat.ErrNoAssistant) {
		return []string{"Voice notes are not available right now."}
	}
	if err != nil {
		b.logger.ErrorContext(ctx, "Failed to submit voice note", log.FieldError, err)
		return []string{chat.ErrorReply}
	}
	return outcomeReplies(out)
}

func (b *Bot) downloadFile(ctx context.Context, fileID string) (io.ReadCloser, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("download file: unexpected status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// outcomeReplies turns the system messages of an outcome into replies and
// confirms a recorded transaction.
func outcomeReplies(out chat.Outcome) []string {
	var replies []string
	for _, m := range out.Messages {
		if m.Role == core.RoleSystem {
			replies = append(replies, m.Content)
		}
	}
	if out.Recorded != nil {
		replies = append(replies, FormatRecorded(*out.Recorded))
	}
	return replies
}
