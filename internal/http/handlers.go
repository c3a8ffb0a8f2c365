package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"chatledger/internal/chat"
	"chatledger/internal/core"
	"chatledger/internal/ledger"
	"chatledger/internal/log"
)

const maxVoiceBytes = 10 << 20

var templateFuncs = template.FuncMap{
	"amount":  core.FormatAmount,
	"percent": func(share float64) string { return fmt.Sprintf("%.0f%%", share*100) },
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.logger.WarnContext(ctx, "Readiness check failed", log.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleSummary serves the home figures. Transactions match the requested
// month number in any year.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	month, err := ParseMonthParams(r.URL.Query(), s.ctrl.Month())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	sum, err := s.ctrl.SummaryFor(r.Context(), month, ledger.MatchMonthOfYear)
	if err != nil {
		s.internalError(w, r, "Failed to compute summary", err)
		return
	}
	NewResponse().JSON(newSummaryView(sum)).Write(w)
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	month, err := ParseMonthParams(r.URL.Query(), s.ctrl.Month())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	view, err := s.statistics(r.Context(), month)
	if err != nil {
		s.internalError(w, r, "Failed to compute statistics", err)
		return
	}
	NewResponse().JSON(view).Write(w)
}

type statisticsPage struct {
	statisticsView
	TipTitle string
	TipText  string
}

func (s *Server) handleStatisticsPage(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	month, err := ParseMonthParams(r.URL.Query(), s.ctrl.Month())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	view, err := s.statistics(r.Context(), month)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Failed to compute statistics", log.FieldError, err)
		http.Error(w, "failed to load statistics", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	page := statisticsPage{statisticsView: view, TipTitle: budgetTipTitle, TipText: budgetTipText}
	if err := s.templates.ExecuteTemplate(&buf, "statistics.html", page); err != nil {
		s.logger.ErrorContext(r.Context(), "Statistics template execution failed",
			log.FieldError, err,
			log.FieldOperation, log.OpRender)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// statistics returns the calendar-month view for month, served from cache
// until the next append or TTL expiry. Keys carry the append generation read
// before the snapshot, so a view computed while an append lands is never
// served after it.
func (s *Server) statistics(ctx context.Context, month ledger.Month) (statisticsView, error) {
	key := fmt.Sprintf("%d/%s", s.statsGen.Load(), month)
	if v, ok := s.statsCache.Get(key); ok {
		return v, nil
	}
	sum, err := s.ctrl.StatisticsFor(ctx, month)
	if err != nil {
		return statisticsView{}, err
	}
	v := newStatisticsView(sum)
	s.statsCache.Set(key, v)
	return v, nil
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		NewResponse().NoCache().JSON(messagesView{Messages: s.ctrl.Messages()}).Write(w)
	case http.MethodPost:
		p := NewRequestBodyParser(r)
		if err := p.Parse(); err != nil {
			BadRequestError("invalid request body").Write(w)
			return
		}
		out, err := s.ctrl.Submit(r.Context(), p.Get("message"))
		if err != nil {
			s.internalError(w, r, "Failed to record parsed transaction", err)
			return
		}
		NewResponse().JSON(newMessagesView(out)).Write(w)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodPost); resp != nil {
		resp.Write(w)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxVoiceBytes)
	if err := r.ParseMultipartForm(maxVoiceBytes); err != nil {
		BadRequestError("expected multipart form with a file field").Write(w)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		BadRequestError("missing file").Write(w)
		return
	}
	defer file.Close()

	out, err := s.ctrl.SubmitVoice(r.Context(), header.Filename, file)
	switch {
	case errors.Is(err, chat.ErrNoAssistant):
		ServiceUnavailableError("voice transcription is not configured").Write(w)
		return
	case err != nil:
		s.logger.WarnContext(r.Context(), "Voice submission failed", log.FieldError, err)
		ErrorResponse(http.StatusBadGateway, chat.ErrorReply).Write(w)
		return
	}
	NewResponse().JSON(newMessagesView(out)).Write(w)
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		kind := core.KindExpense
		if v := r.URL.Query().Get("kind"); v != "" {
			k, err := core.ParseKind(v)
			if err != nil {
				BadRequestError("kind must be expense or income").Write(w)
				return
			}
			kind = k
		}
		txs, err := s.ctrl.Transactions(r.Context(), kind)
		if err != nil {
			s.internalError(w, r, "Failed to list transactions", err)
			return
		}
		NewResponse().JSON(map[string]any{
			"kind":         kind.String(),
			"transactions": newTransactionViews(txs),
		}).Write(w)
	case http.MethodPost:
		s.createTransaction(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}

	description := p.Get("description")
	if description == "" {
		UnprocessableEntityError("description is required").Write(w)
		return
	}
	amount, err := p.GetAmount("amount")
	if err != nil {
		UnprocessableEntityError("amount must be a non-negative number").Write(w)
		return
	}

	isIncome, err := p.GetBool("is_income")
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}
	if v := p.Get("kind"); v != "" {
		kind, err := core.ParseKind(v)
		if err != nil {
			UnprocessableEntityError("kind must be expense or income").Write(w)
			return
		}
		isIncome = kind == core.KindIncome
	}

	t, err := s.ctrl.Record(r.Context(), description, amount, p.Get("category"), isIncome)
	if err != nil {
		if errors.Is(err, core.ErrInvalidAmount) {
			UnprocessableEntityError("amount must be a non-negative number").Write(w)
			return
		}
		s.internalError(w, r, "Failed to record transaction", err)
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(newTransactionView(t)).Write(w)
}

func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		NewResponse().JSON(newMonthView(s.ctrl.Month())).Write(w)
	case http.MethodPut:
		p := NewRequestBodyParser(r)
		if err := p.Parse(); err != nil {
			BadRequestError("invalid request body").Write(w)
			return
		}
		year, yerr := p.GetInt("year")
		month, merr := p.GetInt("month")
		if yerr != nil || merr != nil {
			UnprocessableEntityError("year and month are required integers").Write(w)
			return
		}
		m, err := ledger.NewMonth(year, month)
		if err != nil || year < 1 {
			UnprocessableEntityError(errInvalidMonth.Error()).Write(w)
			return
		}
		s.ctrl.SetMonth(m)
		NewResponse().JSON(newMonthView(m)).Write(w)
	default:
		MethodNotAllowedError("GET, PUT").Write(w)
	}
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.events.LogError(r.Context(), msg, err, "", nil)
	InternalServerError("internal error").Write(w)
}

func newMessagesView(out chat.Outcome) messagesView {
	v := messagesView{Messages: out.Messages}
	if v.Messages == nil {
		v.Messages = []core.ChatMessage{}
	}
	if out.Recorded != nil {
		tv := newTransactionView(*out.Recorded)
		v.Recorded = &tv
	}
	return v
}
